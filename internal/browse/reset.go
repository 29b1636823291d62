package browse

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/trafficsim/internal/browser"
	"github.com/xkilldash9x/trafficsim/internal/metrics"
)

// ResetPolicy simulates a user leaving and coming back between rounds: the
// visit history and the site's identity cookie go, the browser stays.
type ResetPolicy struct {
	identityCookie string
	recorder       metrics.Recorder
	logger         *zap.Logger
}

// NewResetPolicy creates a policy that deletes identityCookie on reset. An
// empty name only clears the history.
func NewResetPolicy(identityCookie string, recorder metrics.Recorder, logger *zap.Logger) *ResetPolicy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResetPolicy{
		identityCookie: identityCookie,
		recorder:       metrics.OrNop(recorder),
		logger:         logger,
	}
}

// Enabled reports whether a user with the given round count resets between
// rounds. A single round never resets.
func (p *ResetPolicy) Enabled(rounds int) bool {
	return rounds > 1
}

// Apply clears the visited set and the identity cookie. Skip entries, the
// browser and every other cookie are untouched.
func (p *ResetPolicy) Apply(ctx context.Context, s *Session, d browser.Driver) error {
	s.ClearVisited()
	if p.identityCookie != "" {
		if err := d.DeleteCookie(ctx, p.identityCookie); err != nil {
			return fmt.Errorf("session reset: %w", err)
		}
	}
	p.recorder.SessionReset()
	p.logger.Info("Session reset, starting a new visit.", zap.String("cookie", p.identityCookie))
	return nil
}
