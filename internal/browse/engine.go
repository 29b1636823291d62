package browse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/trafficsim/internal/browser"
	"github.com/xkilldash9x/trafficsim/internal/config"
	"github.com/xkilldash9x/trafficsim/internal/metrics"
)

const (
	defaultMaxAttemptsPerPage = 50
	// minIterations floors the derived run-wide cap for small targets.
	minIterations = 100
	// maxConsecutiveDeadEnds stops a run whose entry page itself is a dead end.
	maxConsecutiveDeadEnds = 5
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EngineOptions tune one Engine.
type EngineOptions struct {
	// Dwell is the read time drawn after every opened page.
	Dwell config.DurationRange
	// ImplicitWait bounds DOM queries on the page just opened.
	ImplicitWait time.Duration
	// MaxAttemptsPerPage is the number of consecutive draws or failed reads
	// allowed before the page is treated as a dead end.
	MaxAttemptsPerPage int
	// MaxIterations caps a whole Run; 0 derives it from the target.
	MaxIterations int
	// FallbackURL is opened on a dead end when the session has no entry.
	FallbackURL string
	// Sleep replaces SleepContext, mainly in tests.
	Sleep Sleeper
}

// Result summarizes one Run.
type Result struct {
	// Opened counts new pages reached through a link.
	Opened int
	// Reopened counts returns to the entry (or fallback) page after a dead
	// end. Those pages were already visited and are not in Opened.
	Reopened   int
	Iterations int
	Rejected   int
	DeadEnds   int
	ReadErrors int
	// Exhausted is set when the run hit an iteration or dead-end bound
	// before reaching its target.
	Exhausted bool
	// Canceled is set when the context ended the run.
	Canceled bool
}

// Complete reports whether the run reached its target.
func (r Result) Complete() bool { return !r.Exhausted && !r.Canceled }

// Engine random-walks a site's in-scope links for one virtual user.
type Engine struct {
	driver   browser.Driver
	filter   *Filter
	rng      Rand
	opts     EngineOptions
	recorder metrics.Recorder
	logger   *zap.Logger
}

// NewEngine creates an engine driving d. The engine draws from rng and never
// shares it.
func NewEngine(d browser.Driver, filter *Filter, rng Rand, opts EngineOptions, recorder metrics.Recorder, logger *zap.Logger) (*Engine, error) {
	if d == nil {
		return nil, fmt.Errorf("browser driver cannot be nil")
	}
	if filter == nil {
		return nil, fmt.Errorf("link filter cannot be nil")
	}
	if rng == nil {
		return nil, fmt.Errorf("random source cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxAttemptsPerPage <= 0 {
		opts.MaxAttemptsPerPage = defaultMaxAttemptsPerPage
	}
	if opts.Sleep == nil {
		opts.Sleep = SleepContext
	}
	return &Engine{
		driver:   d,
		filter:   filter,
		rng:      rng,
		opts:     opts,
		recorder: metrics.OrNop(recorder),
		logger:   logger.Named("traversal"),
	}, nil
}

func (e *Engine) iterationLimit(targetPages int) int {
	if e.opts.MaxIterations > 0 {
		return e.opts.MaxIterations
	}
	limit := targetPages * 100
	if limit < minIterations {
		limit = minIterations
	}
	return limit
}

// Open navigates to rawURL as a new page of the visit: it is normalized and
// marked visited before the browser moves, then the dwell time is slept.
// The returned error is the parse or navigation error.
func (e *Engine) Open(ctx context.Context, s *Session, rawURL string) error {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return fmt.Errorf("cannot open %q: %w", rawURL, err)
	}

	s.MarkVisited(normalized)
	s.current = normalized
	dwell := e.opts.Dwell.Draw(e.rng)

	e.logger.Info("Opening page.", zap.String("url", normalized), zap.Duration("dwell", dwell))
	if err := e.driver.Navigate(ctx, normalized); err != nil {
		return err
	}
	e.driver.SetImplicitWait(e.opts.ImplicitWait)
	e.recorder.PageOpened(dwell)

	// An interrupted dwell is not a failed open; callers watch ctx themselves.
	if err := e.opts.Sleep(ctx, dwell); err != nil {
		e.logger.Debug("Dwell interrupted.", zap.Error(err))
	}
	return nil
}

// Run walks until the session holds more than targetPages visited URLs. A
// target of one page or less is a bounce: the entry page was the whole visit
// and Run returns without iterating. Run never returns an error and never
// panics; it stops early only when ctx is done or a hardening bound trips,
// and says so in the Result.
func (e *Engine) Run(ctx context.Context, s *Session, targetPages int) Result {
	var res Result
	if targetPages <= 1 {
		return res
	}
	limit := e.iterationLimit(targetPages)
	attempts := 0
	deadEnds := 0

	for s.VisitedCount() <= targetPages {
		if ctx.Err() != nil {
			res.Canceled = true
			break
		}
		if res.Iterations >= limit {
			e.logger.Warn("Iteration limit reached before the page target.",
				zap.Int("limit", limit), zap.Int("visited", s.VisitedCount()), zap.Int("target", targetPages))
			res.Exhausted = true
			break
		}
		if deadEnds >= maxConsecutiveDeadEnds {
			e.logger.Warn("Entry page keeps leading nowhere; ending the round.",
				zap.Int("dead_ends", deadEnds), zap.String("entry", s.EntryURL()))
			res.Exhausted = true
			break
		}
		res.Iterations++

		outcome := e.step(ctx, s, &res, attempts)
		switch outcome {
		case stepOpened:
			attempts = 0
			deadEnds = 0
		case stepRetry:
			attempts++
		case stepDeadEnd:
			attempts = 0
			deadEnds++
		}
	}
	return res
}

type stepOutcome int

const (
	stepRetry stepOutcome = iota
	stepOpened
	stepDeadEnd
)

// step performs one iteration. A panic inside it is logged and counted as a
// failed read so one bad page cannot take the user down.
func (e *Engine) step(ctx context.Context, s *Session, res *Result, attempts int) (outcome stepOutcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Recovered from panic during traversal step.", zap.Any("panic_value", r), zap.Stack("stack"))
			res.ReadErrors++
			outcome = stepRetry
		}
	}()

	if attempts >= e.opts.MaxAttemptsPerPage {
		e.logger.Warn("No eligible link within the attempt budget, treating page as a dead end.",
			zap.String("url", s.CurrentURL()), zap.Int("attempts", attempts))
		e.reopenEntry(ctx, s, res)
		return stepDeadEnd
	}

	anchors, err := e.driver.FindAnchors(ctx)
	if err != nil {
		if ctx.Err() == nil {
			res.ReadErrors++
			e.logger.Warn("Could not read page links.", zap.String("url", s.CurrentURL()), zap.Error(err))
		}
		return stepRetry
	}
	if len(anchors) == 0 {
		e.logger.Debug("Page has no links.", zap.String("url", s.CurrentURL()))
		e.reopenEntry(ctx, s, res)
		return stepDeadEnd
	}

	current, err := e.driver.CurrentURL(ctx)
	if err != nil {
		current = s.CurrentURL()
	}

	anchor, _ := Pick(anchors, e.rng)
	candidate, reason := e.filter.Evaluate(anchor, current, s)
	if reason != ReasonNone {
		res.Rejected++
		e.recorder.LinkRejected(reason.String())
		e.logger.Debug("Link rejected.", zap.String("href", anchor.Href), zap.Stringer("reason", reason))
		return stepRetry
	}

	if err := e.driver.Hover(ctx, anchor.Ref); err != nil {
		e.logger.Debug("Hover failed.", zap.String("href", anchor.Href), zap.Error(err))
	}
	if err := e.Open(ctx, s, candidate.Normalized); err != nil {
		e.logOpenError(ctx, candidate.Normalized, err)
		return stepOpened
	}
	res.Opened++
	return stepOpened
}

// reopenEntry returns to the entry page (or the site root) after a dead end.
func (e *Engine) reopenEntry(ctx context.Context, s *Session, res *Result) {
	res.DeadEnds++
	e.recorder.DeadEnd()

	target := s.EntryURL()
	if target == "" {
		target = e.opts.FallbackURL
	}
	if target == "" {
		e.logger.Warn("Dead end with no entry or fallback page to return to.")
		return
	}
	if err := e.Open(ctx, s, target); err != nil {
		e.logOpenError(ctx, target, err)
		return
	}
	res.Reopened++
}

func (e *Engine) logOpenError(ctx context.Context, target string, err error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return
	}
	e.logger.Warn("Could not open page.", zap.String("url", target), zap.Error(err))
}
