// internal/reporting/summary.go
package reporting

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Outcome classifies how a virtual user's sequence ended.
type Outcome string

const (
	// OutcomeSuccess: every step ran and every traversal reached its target.
	OutcomeSuccess Outcome = "success"
	// OutcomePartial: every step ran but a traversal stopped early.
	OutcomePartial Outcome = "partial"
	// OutcomeFailure: a step failed or the browser never started.
	OutcomeFailure Outcome = "failure"
)

// UserResult is the record of one virtual user.
type UserResult struct {
	UserID           string        `json:"user_id"`
	Index            int           `json:"index"`
	Outcome          Outcome       `json:"outcome"`
	Rounds           int           `json:"rounds"`
	PagesOpened      int           `json:"pages_opened"`
	EntryReopens     int           `json:"entry_reopens"`
	Resets           int           `json:"resets"`
	Rejected         int           `json:"links_rejected"`
	DeadEnds         int           `json:"dead_ends"`
	ReadErrors       int           `json:"read_errors"`
	DiagnosticCookie string        `json:"diagnostic_cookie,omitempty"`
	Error            string        `json:"error,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration_ns"`
}

// Totals aggregates a run.
type Totals struct {
	Users       int `json:"users"`
	Success     int `json:"success"`
	Partial     int `json:"partial"`
	Failure     int `json:"failure"`
	PagesOpened int `json:"pages_opened"`
	Resets      int `json:"resets"`
}

// Summary collects UserResults from concurrent users.
type Summary struct {
	mu         sync.Mutex
	startedAt  time.Time
	finishedAt time.Time
	users      []UserResult
}

// NewSummary starts a summary clocked from now.
func NewSummary() *Summary {
	return &Summary{startedAt: time.Now()}
}

// Add records one user. Safe for concurrent use.
func (s *Summary) Add(r UserResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, r)
}

// Finish stamps the end time. Later calls keep the first stamp.
func (s *Summary) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finishedAt.IsZero() {
		s.finishedAt = time.Now()
	}
}

// Users returns the recorded users ordered by index.
func (s *Summary) Users() []UserResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]UserResult(nil), s.users...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Totals counts outcomes, pages and resets over every recorded user.
func (s *Summary) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	var t Totals
	for _, u := range s.users {
		t.Users++
		t.PagesOpened += u.PagesOpened
		t.Resets += u.Resets
		switch u.Outcome {
		case OutcomeSuccess:
			t.Success++
		case OutcomePartial:
			t.Partial++
		default:
			t.Failure++
		}
	}
	return t
}

// Elapsed is the wall time of the run, up to now if it has not finished.
func (s *Summary) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	end := s.finishedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.startedAt)
}

// Log writes the totals as one structured line.
func (s *Summary) Log(logger *zap.Logger) {
	t := s.Totals()
	logger.Info("Simulation finished.",
		zap.Int("users", t.Users),
		zap.Int("success", t.Success),
		zap.Int("partial", t.Partial),
		zap.Int("failure", t.Failure),
		zap.Int("pages_opened", t.PagesOpened),
		zap.Int("resets", t.Resets),
		zap.Duration("elapsed", s.Elapsed()),
	)
}

// document is the serialized form of a Summary.
type document struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Totals     Totals       `json:"totals"`
	Users      []UserResult `json:"users"`
}

func (s *Summary) document() document {
	users := s.Users()
	if users == nil {
		users = []UserResult{}
	}
	s.mu.Lock()
	started, finished := s.startedAt, s.finishedAt
	s.mu.Unlock()
	return document{
		StartedAt:  started,
		FinishedAt: finished,
		Totals:     s.Totals(),
		Users:      users,
	}
}
