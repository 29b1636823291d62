package browse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/trafficsim/internal/config"
)

func testSite() config.SiteConfig {
	return config.SiteConfig{
		Scheme:      "https",
		BaseDomain:  "Base.COM",
		EntryPaths:  []string{"/a", "b/", "/c?x=1"},
		IgnorePaths: []string{"/private/", "login"},
	}
}

func TestEntrySelectorResolvesCatalog(t *testing.T) {
	sel, err := NewEntrySelector(testSite())
	require.NoError(t, err)

	assert.Equal(t, "https://base.com/", sel.BaseURL())
	assert.Equal(t, []string{"https://base.com/private", "https://base.com/login"}, sel.IgnoreURLs())

	var urls []string
	for i := 0; i < 3; i++ {
		e, err := sel.Select(newSeqRand(i))
		require.NoError(t, err)
		assert.Equal(t, "base.com", e.Scope)
		urls = append(urls, e.URL)
	}
	assert.Equal(t, []string{"https://base.com/a", "https://base.com/b", "https://base.com/c?x=1"}, urls)
}

func TestEntrySelectorFirstIndexGivesFirstPath(t *testing.T) {
	sel, err := NewEntrySelector(config.SiteConfig{Scheme: "https", BaseDomain: "base.com", EntryPaths: []string{"/a", "/b"}})
	require.NoError(t, err)

	e, err := sel.Select(newSeqRand(0))
	require.NoError(t, err)
	assert.Equal(t, Entry{URL: "https://base.com/a", Scope: "base.com"}, e)
}

func TestEntrySelectorIgnoreURLsIsACopy(t *testing.T) {
	sel, err := NewEntrySelector(testSite())
	require.NoError(t, err)
	ignores := sel.IgnoreURLs()
	ignores[0] = "mutated"
	assert.Equal(t, "https://base.com/private", sel.IgnoreURLs()[0])
}

func TestEntrySelectorDefaultsScheme(t *testing.T) {
	sel, err := NewEntrySelector(config.SiteConfig{BaseDomain: "base.com", EntryPaths: []string{"/"}})
	require.NoError(t, err)
	e, err := sel.Select(newSeqRand(0))
	require.NoError(t, err)
	assert.Equal(t, "https://base.com", e.URL)
}

func TestEntrySelectorErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.SiteConfig)
		target error
		substr string
	}{
		{"empty catalog", func(s *config.SiteConfig) { s.EntryPaths = nil }, config.ErrNoEntryPaths, ""},
		{"missing base domain", func(s *config.SiteConfig) { s.BaseDomain = "" }, nil, "base_domain"},
		{"absolute entry", func(s *config.SiteConfig) { s.EntryPaths = []string{"https://other.com/x"} }, nil, "entry path"},
		{"host-relative ignore", func(s *config.SiteConfig) { s.IgnorePaths = []string{"//other.com/x"} }, nil, "ignore path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := testSite()
			tt.mutate(&site)
			_, err := NewEntrySelector(site)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.substr != "" {
				assert.Contains(t, err.Error(), tt.substr)
			}
		})
	}
}
