package browse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionBeginEstablishesScope(t *testing.T) {
	s := NewSession(false)
	assert.True(t, s.Scope().IsZero())
	assert.Empty(t, s.EntryURL())

	require.NoError(t, s.Begin(Entry{URL: "https://base.com/a", Scope: "base.com"}))
	assert.Equal(t, "base.com", s.Scope().Domain())
	assert.Equal(t, "https://base.com/a", s.EntryURL())

	// A new round with the same scope only moves the entry.
	require.NoError(t, s.Begin(Entry{URL: "https://base.com/b", Scope: "BASE.com"}))
	assert.Equal(t, "https://base.com/b", s.EntryURL())
}

func TestSessionScopeCannotChange(t *testing.T) {
	s := beganSession(t, "base.com")
	err := s.Begin(Entry{URL: "https://other.com/", Scope: "other.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScopeChanged)
	assert.Equal(t, "base.com", s.Scope().Domain())
	assert.Equal(t, "https://base.com/", s.EntryURL())
}

func TestSessionBeginRequiresScope(t *testing.T) {
	s := NewSession(false)
	assert.Error(t, s.Begin(Entry{URL: "https://base.com/"}))
	assert.True(t, s.Scope().IsZero())
}

func TestSessionVisited(t *testing.T) {
	s := beganSession(t, "base.com")
	assert.True(t, s.MarkVisited("https://base.com/a"))
	assert.False(t, s.MarkVisited("https://base.com/a"), "second mark must report a duplicate")
	assert.True(t, s.MarkVisited("https://base.com/b"))
	assert.Equal(t, 2, s.VisitedCount())
	assert.ElementsMatch(t, []string{"https://base.com/a", "https://base.com/b"}, s.Visited())
	assert.True(t, s.IsVisited("https://base.com/a"))

	s.ClearVisited()
	assert.Zero(t, s.VisitedCount())
	assert.False(t, s.IsVisited("https://base.com/a"))
	assert.Equal(t, "base.com", s.Scope().Domain(), "clearing history keeps the scope")
}

func TestSessionSkip(t *testing.T) {
	s := beganSession(t, "base.com")
	require.NoError(t, s.AddSkip("https://BASE.com/private/"))
	require.Error(t, s.AddSkip("/relative"))

	tests := []struct {
		url  string
		want bool
	}{
		{"https://base.com/private", true},
		{"https://base.com/private/area", true},
		{"https://base.com/private?x=1", true},
		{"https://base.com/privateer", false},
		{"https://base.com/public", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, s.IsSkipped(tt.url))
		})
	}

	s.ClearVisited()
	assert.True(t, s.IsSkipped("https://base.com/private"), "skip entries survive a reset")
}
