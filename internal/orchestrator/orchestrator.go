// File: internal/orchestrator/orchestrator.go
// Description: Spawns virtual users and drives each through its step plan. It
// is injected with the browser launcher and recorder via interfaces, so tests
// run it against a fake site.

package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/trafficsim/internal/browse"
	"github.com/xkilldash9x/trafficsim/internal/browser"
	"github.com/xkilldash9x/trafficsim/internal/config"
	"github.com/xkilldash9x/trafficsim/internal/metrics"
	"github.com/xkilldash9x/trafficsim/internal/reporting"
)

// Orchestrator runs the simulation for a number of virtual users.
type Orchestrator struct {
	cfg      *config.Config
	logger   *zap.Logger
	launcher browser.Launcher
	recorder metrics.Recorder
	entries  *browse.EntrySelector
	filter   *browse.Filter
	seed     uint64
	sleep    browse.Sleeper
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSleeper replaces the dwell sleep, mainly so tests do not wait.
func WithSleeper(s browse.Sleeper) Option {
	return func(o *Orchestrator) { o.sleep = s }
}

// New creates an Orchestrator. The configuration must already be validated;
// the entry catalog is resolved here so a bad catalog fails before any
// browser starts.
func New(
	cfg *config.Config,
	logger *zap.Logger,
	launcher browser.Launcher,
	recorder metrics.Recorder,
	opts ...Option,
) (*Orchestrator, error) {
	if cfg == nil ||
		logger == nil ||
		launcher == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	entries, err := browse.NewEntrySelector(cfg.Site)
	if err != nil {
		return nil, fmt.Errorf("failed to build entry catalog: %w", err)
	}

	seed := cfg.Traffic.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	o := &Orchestrator{
		cfg:      cfg,
		logger:   logger.Named("orchestrator"),
		launcher: launcher,
		recorder: metrics.OrNop(recorder),
		entries:  entries,
		filter:   browse.NewFilter(cfg.Site.AssetMarkers),
		seed:     seed,
		sleep:    browse.SleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// userSeed spreads the run seed over users so each gets its own stream and a
// given (seed, index) pair always replays the same walk.
func (o *Orchestrator) userSeed(index int) uint64 {
	s := o.seed + uint64(index+1)*0x9e3779b97f4a7c15
	if s == 0 {
		s = 1
	}
	return s
}

// Run executes users virtual users and returns their summary. Users run one
// at a time unless traffic.concurrency is above one; spawning is paced by
// traffic.spawn_rate. A failing user never stops the others. The returned
// error is the context error when the run was interrupted; the summary is
// still complete for every user that started.
func (o *Orchestrator) Run(ctx context.Context, users int) (*reporting.Summary, error) {
	if users < 0 {
		return nil, fmt.Errorf("user count cannot be negative: %d", users)
	}
	concurrency := o.cfg.Traffic.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	o.logger.Info("Starting simulation.",
		zap.Int("users", users),
		zap.Int("concurrency", concurrency),
		zap.Float64("spawn_rate", o.cfg.Traffic.SpawnRate),
		zap.Uint64("seed", o.seed),
	)

	var limiter *rate.Limiter
	if o.cfg.Traffic.SpawnRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(o.cfg.Traffic.SpawnRate), 1)
	}

	summary := reporting.NewSummary()
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i := 0; i < users; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
		index := i
		g.Go(func() error {
			summary.Add(o.RunUser(ctx, index))
			return nil
		})
	}
	_ = g.Wait()

	summary.Finish()
	summary.Log(o.logger)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}
