package browse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeExactHost(t *testing.T) {
	s := NewScope("base.com", false)
	assert.Equal(t, "base.com", s.Domain())
	assert.False(t, s.IsZero())
	assert.True(t, s.Contains("base.com"))
	assert.True(t, s.Contains("BASE.com."))
	assert.False(t, s.Contains("www.base.com"))
	assert.False(t, s.Contains("other.com"))
}

func TestScopeWithSubdomains(t *testing.T) {
	s := NewScope("www.example.co.uk", true)
	assert.True(t, s.Contains("www.example.co.uk"))
	assert.True(t, s.Contains("shop.example.co.uk"))
	assert.True(t, s.Contains("example.co.uk"))
	assert.False(t, s.Contains("notexample.co.uk"))
	assert.False(t, s.Contains("co.uk"))
}

func TestScopeWithoutPublicSuffixStaysExact(t *testing.T) {
	s := NewScope("localhost", true)
	assert.True(t, s.Contains("localhost"))
	assert.False(t, s.Contains("a.localhost"))
}

func TestZeroScopeContainsNothing(t *testing.T) {
	var s Scope
	assert.True(t, s.IsZero())
	assert.False(t, s.Contains(""))
	assert.False(t, s.Contains("base.com"))
}
