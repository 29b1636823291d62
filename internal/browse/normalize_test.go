package browse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases scheme and host", "HTTPS://Base.COM/About", "https://base.com/About"},
		{"drops fragment", "https://base.com/a#section", "https://base.com/a"},
		{"drops trailing slash", "https://base.com/a/", "https://base.com/a"},
		{"root collapses", "https://base.com/", "https://base.com"},
		{"drops default https port", "https://base.com:443/a", "https://base.com/a"},
		{"drops default http port", "http://base.com:80/a", "http://base.com/a"},
		{"keeps other port", "http://base.com:8080/a", "http://base.com:8080/a"},
		{"keeps query", "https://base.com/search?q=1&p=2", "https://base.com/search?q=1&p=2"},
		{"ipv6 host", "http://[::1]:80/x", "http://[::1]/x"},
		{"trims whitespace", "  https://base.com/a  ", "https://base.com/a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeRejectsNonAbsolute(t *testing.T) {
	for _, in := range []string{"/relative", "ftp://base.com/file", "https://", "not a url", "mailto:x@base.com", "http://%zz"} {
		t.Run(in, func(t *testing.T) {
			_, err := Normalize(in)
			assert.Error(t, err)
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	once, err := Normalize("HTTPS://Base.com:443/Path/?x=1#frag")
	require.NoError(t, err)
	twice, err := Normalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}
