package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/trafficsim/internal/browse"
	"github.com/xkilldash9x/trafficsim/internal/browser"
	"github.com/xkilldash9x/trafficsim/internal/config"
	"github.com/xkilldash9x/trafficsim/internal/metrics"
	"github.com/xkilldash9x/trafficsim/internal/observability"
	"github.com/xkilldash9x/trafficsim/internal/orchestrator"
	"github.com/xkilldash9x/trafficsim/internal/reporting"
)

// errAllUsersFailed is returned when not a single virtual user got through.
var errAllUsersFailed = errors.New("every virtual user failed")

// Function variables for dependency injection in tests.
var (
	newLauncher = func(cfg *config.Config, logger *zap.Logger) browser.Launcher {
		return browser.NewChromeLauncher(cfg.Browser, cfg.Traffic.Seed, logger)
	}
	orchestratorOptions []orchestrator.Option
)

// browseOptions are the command-only flags of `browse`.
type browseOptions struct {
	users        int
	reportPath   string
	reportFormat string
}

func newBrowseCmd() *cobra.Command {
	var opts browseOptions

	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "Run virtual users against the configured site",
		Long: `Launches one Chrome per virtual user. Each user enters the site at a random
entry page and random-walks its in-scope links for a random number of pages,
repeating for a random number of rounds. The user count is drawn from
traffic.users unless --users is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := configFromContext(ctx)
			if err != nil {
				return err
			}
			return runBrowse(ctx, cfg, opts, observability.GetLogger())
		},
	}

	flags := browseCmd.Flags()
	flags.IntVarP(&opts.users, "users", "u", 0, "Number of virtual users. 0 draws from traffic.users.")
	flags.StringVarP(&opts.reportPath, "report", "o", "", "Write the run report to this file ('-' for stdout). If unset, no report is written.")
	flags.StringVarP(&opts.reportFormat, "format", "f", "json", "Report format: 'json' or 'text'.")

	// Config override flags, bound to viper in initializeConfig.
	flags.IntP("concurrency", "j", 1, "Virtual users running at once. (Overrides config/env)")
	flags.Uint64("seed", 0, "Random seed; 0 picks a time based one. (Overrides config/env)")
	flags.Bool("headless", true, "Run Chrome headless. (Overrides config/env)")
	flags.Bool("metrics", false, "Serve Prometheus metrics while running. (Overrides config/env)")
	flags.String("base-domain", "", "Target site host. (Overrides config/env)")
	flags.StringSlice("entry-paths", nil, "Entry page paths on the target site. (Overrides config/env)")

	return browseCmd
}

func runBrowse(ctx context.Context, cfg *config.Config, opts browseOptions, logger *zap.Logger) error {
	users := opts.users
	if users <= 0 {
		users = cfg.Traffic.Users.Draw(browse.NewRand(cfg.Traffic.Seed))
	}

	var recorder metrics.Recorder
	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheusRecorder(logger)
		if err := prom.Serve(cfg.Metrics.Listen, cfg.Metrics.Path); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := prom.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Error during metrics endpoint shutdown", zap.Error(err))
			}
		}()
		recorder = prom
	}

	orch, err := orchestrator.New(cfg, logger, newLauncher(cfg, logger), recorder, orchestratorOptions...)
	if err != nil {
		return fmt.Errorf("failed to initialize orchestrator: %w", err)
	}

	logger.Info("Virtual users drawn.", zap.Int("users", users), zap.String("site", cfg.Site.BaseDomain))
	summary, runErr := orch.Run(ctx, users)

	if opts.reportPath != "" && summary != nil {
		if err := writeReport(summary, opts.reportFormat, opts.reportPath); err != nil {
			return err
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logger.Warn("Simulation aborted by signal")
		}
		return runErr
	}
	if t := summary.Totals(); t.Users > 0 && t.Failure == t.Users {
		return errAllUsersFailed
	}
	return nil
}

func writeReport(summary *reporting.Summary, format, path string) error {
	r, err := reporting.New(format, path)
	if err != nil {
		return err
	}
	if err := r.Write(summary); err != nil {
		_ = r.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return r.Close()
}
