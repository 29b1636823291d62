package browse

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/xkilldash9x/trafficsim/internal/config"
)

// Entry is a chosen entry page and the scope it establishes.
type Entry struct {
	URL   string
	Scope string
}

// EntrySelector picks entry pages from the configured catalog. It is the
// only producer of scopes.
type EntrySelector struct {
	base    *url.URL
	entries []Entry
	ignores []string
}

// NewEntrySelector resolves every entry and ignore path against
// scheme://base_domain/ up front, so a bad catalog fails at startup.
func NewEntrySelector(site config.SiteConfig) (*EntrySelector, error) {
	if len(site.EntryPaths) == 0 {
		return nil, config.ErrNoEntryPaths
	}
	scheme := strings.ToLower(site.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	base := &url.URL{Scheme: scheme, Host: strings.ToLower(site.BaseDomain), Path: "/"}
	if base.Hostname() == "" {
		return nil, fmt.Errorf("site.base_domain is required")
	}

	sel := &EntrySelector{base: base}
	for _, p := range site.EntryPaths {
		u, err := resolvePath(base, p)
		if err != nil {
			return nil, fmt.Errorf("entry path %q: %w", p, err)
		}
		sel.entries = append(sel.entries, Entry{URL: normalizeURL(u), Scope: u.Hostname()})
	}
	for _, p := range site.IgnorePaths {
		u, err := resolvePath(base, p)
		if err != nil {
			return nil, fmt.Errorf("ignore path %q: %w", p, err)
		}
		sel.ignores = append(sel.ignores, normalizeURL(u))
	}
	return sel, nil
}

func resolvePath(base *url.URL, p string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(p))
	if err != nil {
		return nil, err
	}
	if ref.Scheme != "" || ref.Host != "" {
		return nil, fmt.Errorf("must be a path on the base domain")
	}
	if !strings.HasPrefix(ref.Path, "/") {
		ref.Path = "/" + ref.Path
	}
	return base.ResolveReference(ref), nil
}

// Select draws one entry uniformly.
func (e *EntrySelector) Select(rng Rand) (Entry, error) {
	if len(e.entries) == 0 {
		return Entry{}, config.ErrNoEntryPaths
	}
	return e.entries[rng.IntN(len(e.entries))], nil
}

// IgnoreURLs returns the normalized skip prefixes built from site.ignore_paths.
func (e *EntrySelector) IgnoreURLs() []string {
	return append([]string(nil), e.ignores...)
}

// BaseURL returns scheme://base_domain/, the fallback page when a session
// has no entry yet.
func (e *EntrySelector) BaseURL() string {
	return e.base.String()
}
