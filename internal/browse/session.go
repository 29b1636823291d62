// Package browse holds the random-walk core: the link filter, the per-user
// browse session, the traversal engine, entry selection and the reset policy.
package browse

import (
	"errors"
	"fmt"
	"strings"
)

// ErrScopeChanged is returned when an entry names a different scope than the
// one the session was established with.
var ErrScopeChanged = errors.New("browse session scope cannot change once set")

// Session is the mutable state of one virtual user's visits. It is owned by a
// single goroutine and shared by every step of that user; it is not safe for
// concurrent use.
type Session struct {
	includeSubdomains bool

	scope   Scope
	entry   string
	current string
	visited map[string]struct{}
	// skip holds normalized URLs; each also excludes everything below it.
	skip map[string]struct{}
}

// NewSession creates an empty session. includeSubdomains widens the scope
// established by Begin to the entry host's registrable domain.
func NewSession(includeSubdomains bool) *Session {
	return &Session{
		includeSubdomains: includeSubdomains,
		visited:           make(map[string]struct{}),
		skip:              make(map[string]struct{}),
	}
}

// Begin records entry as the session's entry page. The first call
// establishes the scope; later calls must name the same scope.
func (s *Session) Begin(entry Entry) error {
	if entry.Scope == "" {
		return fmt.Errorf("entry %q has no scope", entry.URL)
	}
	if s.scope.IsZero() {
		s.scope = NewScope(entry.Scope, s.includeSubdomains)
	} else if !strings.EqualFold(s.scope.Domain(), entry.Scope) {
		return fmt.Errorf("%w: established %q, entry names %q", ErrScopeChanged, s.scope.Domain(), entry.Scope)
	}
	s.entry = entry.URL
	return nil
}

// AddSkip excludes u, and every URL below it, for the life of the session.
func (s *Session) AddSkip(u string) error {
	normalized, err := Normalize(u)
	if err != nil {
		return fmt.Errorf("invalid skip url: %w", err)
	}
	s.skip[normalized] = struct{}{}
	return nil
}

// IsSkipped reports whether the normalized URL equals a skip entry or lies
// beneath one.
func (s *Session) IsSkipped(normalized string) bool {
	if _, ok := s.skip[normalized]; ok {
		return true
	}
	for prefix := range s.skip {
		if strings.HasPrefix(normalized, prefix) {
			rest := normalized[len(prefix):]
			if strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, "?") {
				return true
			}
		}
	}
	return false
}

// MarkVisited adds a normalized URL to the visited set and reports whether it
// was new.
func (s *Session) MarkVisited(normalized string) bool {
	if _, ok := s.visited[normalized]; ok {
		return false
	}
	s.visited[normalized] = struct{}{}
	return true
}

// IsVisited reports whether the normalized URL was opened in this visit.
func (s *Session) IsVisited(normalized string) bool {
	_, ok := s.visited[normalized]
	return ok
}

// VisitedCount is the number of distinct URLs opened in this visit.
func (s *Session) VisitedCount() int { return len(s.visited) }

// Visited returns the visited URLs in no particular order.
func (s *Session) Visited() []string {
	out := make([]string, 0, len(s.visited))
	for u := range s.visited {
		out = append(out, u)
	}
	return out
}

// ClearVisited starts a fresh visit. Scope, entry and skip are kept.
func (s *Session) ClearVisited() {
	s.visited = make(map[string]struct{})
}

// Scope returns the session scope; it is zero until Begin succeeds.
func (s *Session) Scope() Scope { return s.scope }

// EntryURL returns the URL of the latest entry page, or "" before Begin.
func (s *Session) EntryURL() string { return s.entry }

// CurrentURL returns the last URL opened through the session.
func (s *Session) CurrentURL() string { return s.current }
