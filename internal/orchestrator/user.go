package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/trafficsim/internal/browse"
	"github.com/xkilldash9x/trafficsim/internal/browser"
	"github.com/xkilldash9x/trafficsim/internal/reporting"
)

// The entry step nudges the pointer here once the page is up.
const (
	nudgeX = 8
	nudgeY = 0
)

// diagnosticReadTimeout bounds the cookie read after the sequence.
const diagnosticReadTimeout = 5 * time.Second

// errInterrupted marks a sequence stopped by its context between steps.
var errInterrupted = errors.New("sequence interrupted")

// virtualUser is one simulated visitor. It owns its driver, session and
// random source exclusively.
type virtualUser struct {
	id      string
	index   int
	logger  *zap.Logger
	driver  browser.Driver
	session *browse.Session
	rng     browse.Rand
	engine  *browse.Engine
	reset   *browse.ResetPolicy
	rounds  int
	steps   []Step
	result  *reporting.UserResult
	partial bool
}

// RunUser runs one virtual user from launch to teardown and reports how it
// ended. The browser is released exactly once whatever happens, panics
// included.
func (o *Orchestrator) RunUser(ctx context.Context, index int) (res reporting.UserResult) {
	id := uuid.NewString()
	logger := o.logger.With(zap.String("user_id", id), zap.Int("user_index", index))
	res = reporting.UserResult{
		UserID:    id,
		Index:     index,
		Outcome:   reporting.OutcomeFailure,
		StartedAt: time.Now(),
	}

	o.recorder.UserStarted()
	defer func() {
		res.Duration = time.Since(res.StartedAt)
		o.recorder.UserFinished(string(res.Outcome))
		logger.Info("Virtual user finished.",
			zap.String("outcome", string(res.Outcome)),
			zap.Int("pages_opened", res.PagesOpened),
			zap.Duration("duration", res.Duration),
		)
	}()

	if timeout := o.cfg.Traffic.UserTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// The browser outlives ctx: a timeout or signal stops the sequence, not
	// Chrome, so the diagnostic read and Quit still reach a live tab.
	driver, err := o.launcher.Launch(browser.Detach(ctx))
	if err != nil {
		res.Error = fmt.Sprintf("failed to launch browser: %v", err)
		logger.Error("Could not start a browser for the virtual user.", zap.Error(err))
		return res
	}

	var quitOnce sync.Once
	teardown := func() {
		quitOnce.Do(func() {
			if err := driver.Quit(); err != nil {
				logger.Warn("Error while closing the browser.", zap.Error(err))
				return
			}
			logger.Debug("Browser closed.")
		})
	}
	defer teardown()

	rng := browse.NewRand(o.userSeed(index))
	engine, err := browse.NewEngine(driver, o.filter, rng, browse.EngineOptions{
		Dwell:              o.cfg.Traffic.Dwell,
		ImplicitWait:       o.cfg.Browser.ImplicitWait,
		MaxAttemptsPerPage: o.cfg.Traffic.MaxAttemptsPerPage,
		MaxIterations:      o.cfg.Traffic.MaxIterations,
		FallbackURL:        o.entries.BaseURL(),
		Sleep:              o.sleep,
	}, o.recorder, logger)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	u := &virtualUser{
		id:      id,
		index:   index,
		logger:  logger,
		driver:  driver,
		session: browse.NewSession(o.cfg.Site.IncludeSubdomains),
		rng:     rng,
		engine:  engine,
		reset:   browse.NewResetPolicy(o.cfg.Site.IdentityCookie, o.recorder, logger),
		result:  &res,
	}
	u.rounds = o.cfg.Traffic.Rounds.Draw(rng)
	if u.rounds < 1 {
		u.rounds = 1
	}
	u.steps = Plan(u.rounds)
	res.Rounds = u.rounds
	logger.Info("Virtual user starting.",
		zap.Int("rounds", u.rounds),
		zap.Int("steps", len(u.steps)),
		zap.Bool("resets", u.reset.Enabled(u.rounds)),
	)

	err = o.runSequence(ctx, u)
	switch {
	case errors.Is(err, errInterrupted):
		res.Outcome = reporting.OutcomePartial
		res.Error = err.Error()
		logger.Warn("Virtual user interrupted before finishing its plan.", zap.Error(err))
		return res
	case err != nil:
		res.Error = err.Error()
		logger.Error("Virtual user sequence failed, releasing its browser.", zap.Error(err))
		teardown()
		return res
	}

	if u.partial {
		res.Outcome = reporting.OutcomePartial
	} else {
		res.Outcome = reporting.OutcomeSuccess
	}
	o.readDiagnosticCookie(ctx, u)
	return res
}

// runSequence executes the steps in order. A panic inside a step is turned
// into an error for that user.
func (o *Orchestrator) runSequence(ctx context.Context, u *virtualUser) (err error) {
	var current Step
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("Recovered from panic in virtual user step.",
				zap.Stringer("step", current), zap.Any("panic_value", r), zap.Stack("stack"))
			err = fmt.Errorf("panic in %s step: %v", current, r)
		}
	}()

	for _, step := range u.steps {
		current = step
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w before %s: %v", errInterrupted, step, ctxErr)
		}
		if err := o.runStep(ctx, u, step); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w during %s: %v", errInterrupted, step, err)
			}
			return fmt.Errorf("%s step failed: %w", step, err)
		}
	}
	return nil
}

func (o *Orchestrator) runStep(ctx context.Context, u *virtualUser, step Step) error {
	switch step.Kind {
	case StepApplyIgnoreList:
		return o.applyIgnoreList(u)
	case StepEntry:
		return o.enter(ctx, u, step.Round)
	case StepTraverse:
		o.traverse(ctx, u, step.Round)
		return nil
	case StepReset:
		if err := u.reset.Apply(ctx, u.session, u.driver); err != nil {
			return err
		}
		u.result.Resets++
		return nil
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (o *Orchestrator) applyIgnoreList(u *virtualUser) error {
	ignores := o.entries.IgnoreURLs()
	for _, ignore := range ignores {
		if err := u.session.AddSkip(ignore); err != nil {
			return err
		}
	}
	u.logger.Debug("Ignore list applied.", zap.Int("entries", len(ignores)))
	return nil
}

func (o *Orchestrator) enter(ctx context.Context, u *virtualUser, round int) error {
	entry, err := o.entries.Select(u.rng)
	if err != nil {
		return err
	}
	if err := u.session.Begin(entry); err != nil {
		return err
	}
	u.logger.Info("Entering site.", zap.Int("round", round), zap.String("url", entry.URL))
	if err := u.engine.Open(ctx, u.session, entry.URL); err != nil {
		return err
	}
	u.result.PagesOpened++

	if err := u.driver.MovePointer(ctx, nudgeX, nudgeY); err != nil {
		u.logger.Debug("Pointer nudge failed.", zap.Error(err))
	}
	return nil
}

func (o *Orchestrator) traverse(ctx context.Context, u *virtualUser, round int) {
	target := o.cfg.Traffic.Pages.Draw(u.rng)
	u.logger.Info("Browsing pages.", zap.Int("round", round), zap.Int("target_pages", target))

	r := u.engine.Run(ctx, u.session, target)
	u.result.PagesOpened += r.Opened
	u.result.EntryReopens += r.Reopened
	u.result.Rejected += r.Rejected
	u.result.DeadEnds += r.DeadEnds
	u.result.ReadErrors += r.ReadErrors
	if !r.Complete() {
		u.partial = true
		u.logger.Warn("Round ended before its page target.",
			zap.Int("round", round),
			zap.Int("target_pages", target),
			zap.Int("visited", u.session.VisitedCount()),
			zap.Bool("canceled", r.Canceled),
		)
	}
}

// readDiagnosticCookie logs the tracking cookie. It has no effect on the
// outcome. The read runs on a detached context so a user whose deadline just
// passed still reports it.
func (o *Orchestrator) readDiagnosticCookie(ctx context.Context, u *virtualUser) {
	name := o.cfg.Site.DiagnosticCookie
	if name == "" {
		return
	}
	readCtx, cancel := context.WithTimeout(browser.Detach(ctx), diagnosticReadTimeout)
	defer cancel()

	value, found, err := u.driver.GetCookie(readCtx, name)
	switch {
	case err != nil:
		u.logger.Warn("Could not read diagnostic cookie.", zap.String("cookie", name), zap.Error(err))
	case !found:
		u.logger.Info("Diagnostic cookie not set.", zap.String("cookie", name))
	default:
		u.result.DiagnosticCookie = value
		u.logger.Info("Diagnostic cookie.", zap.String("cookie", name), zap.String("value", value))
	}
}
