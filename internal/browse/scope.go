package browse

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Scope is the set of hosts a session may visit. By default it is exactly
// the entry host; with subdomains enabled it widens to every host under the
// entry host's registrable domain (eTLD+1).
type Scope struct {
	domain     string
	rootDomain string
}

// NewScope builds a scope around host. Hosts without a public suffix (IPs,
// localhost) always get an exact-match scope.
func NewScope(host string, includeSubdomains bool) Scope {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	s := Scope{domain: host}
	if !includeSubdomains {
		return s
	}
	// The public suffix list handles example.co.uk correctly; a naive
	// "last two labels" split does not.
	if root, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		s.rootDomain = root
	}
	return s
}

// Domain returns the host the scope was established from.
func (s Scope) Domain() string { return s.domain }

// IsZero reports whether the scope was never established.
func (s Scope) IsZero() bool { return s.domain == "" }

// Contains reports whether host is in scope. Comparison ignores case.
func (s Scope) Contains(host string) bool {
	if s.domain == "" {
		return false
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == s.domain {
		return true
	}
	if s.rootDomain == "" {
		return false
	}
	// Require the dot so "notexample.com" never matches "example.com".
	return host == s.rootDomain || strings.HasSuffix(host, "."+s.rootDomain)
}
