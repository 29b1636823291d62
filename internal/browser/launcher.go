// internal/browser/launcher.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/trafficsim/internal/browser/stealth"
	"github.com/xkilldash9x/trafficsim/internal/config"
	"github.com/xkilldash9x/trafficsim/internal/humanoid"
)

// allocatorFlag is one Chrome command line switch.
type allocatorFlag struct {
	name  string
	value interface{}
}

// allocatorFlags translates the browser config into Chrome switches, on top
// of chromedp's defaults.
func allocatorFlags(cfg config.BrowserConfig) []allocatorFlag {
	flags := []allocatorFlag{
		// Chrome's sandbox fails with "Permission denied" on hardened hosts and in containers.
		{"no-sandbox", true},
		{"disable-dev-shm-usage", true},
	}

	if cfg.Headless {
		flags = append(flags, allocatorFlag{"headless", true}, allocatorFlag{"hide-scrollbars", true}, allocatorFlag{"mute-audio", true})
	} else {
		flags = append(flags, allocatorFlag{"headless", false})
	}
	if cfg.DisableGPU {
		flags = append(flags, allocatorFlag{"disable-gpu", true})
	}
	if cfg.IgnoreTLSErrors {
		flags = append(flags, allocatorFlag{"ignore-certificate-errors", true}, allocatorFlag{"allow-insecure-localhost", true})
	}

	for _, arg := range cfg.Args {
		arg = strings.TrimPrefix(arg, "--")
		if arg == "" {
			continue
		}
		if key, value, ok := strings.Cut(arg, "="); ok {
			flags = append(flags, allocatorFlag{key, value})
			continue
		}
		flags = append(flags, allocatorFlag{arg, true})
	}
	return flags
}

// ExecAllocatorOptions builds the chromedp allocator options for cfg.
func ExecAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range allocatorFlags(cfg) {
		opts = append(opts, chromedp.Flag(f.name, f.value))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.Viewport.Width > 0 && cfg.Viewport.Height > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.Viewport.Width, cfg.Viewport.Height))
	}
	return opts
}

// ChromeLauncher starts one exec-allocated Chrome per Launch call.
type ChromeLauncher struct {
	cfg      config.BrowserConfig
	logger   *zap.Logger
	seed     uint64
	launches atomic.Uint64
}

var _ Launcher = (*ChromeLauncher)(nil)

// NewChromeLauncher creates a launcher. seed feeds the per-browser pointer
// models so hover paths are reproducible for a fixed seed.
func NewChromeLauncher(cfg config.BrowserConfig, seed uint64, logger *zap.Logger) *ChromeLauncher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromeLauncher{cfg: cfg, seed: seed, logger: logger.Named("browser")}
}

// Launch starts Chrome and opens its first tab. The browser lives until the
// returned driver's Quit is called or ctx is canceled. Startup is bounded by
// browser.launch_timeout, not by ctx.
func (l *ChromeLauncher) Launch(ctx context.Context) (Driver, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, ExecAllocatorOptions(l.cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(l.logger.Sugar().Debugf))

	// The first Run allocates the browser and binds it to the context passed
	// in, so it cannot take a timeout context; bound it from the outside.
	errc := make(chan error, 1)
	go func() { errc <- chromedp.Run(tabCtx) }()

	var timeout <-chan time.Time
	if l.cfg.LaunchTimeout > 0 {
		timer := time.NewTimer(l.cfg.LaunchTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case err := <-errc:
		if err != nil {
			tabCancel()
			allocCancel()
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
	case <-timeout:
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("browser did not start within %s", l.cfg.LaunchTimeout)
	}

	n := l.launches.Add(1)
	d := &ChromeDriver{
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
		logger:      l.logger.With(zap.Uint64("browser", n)),
	}
	d.SetImplicitWait(l.cfg.ImplicitWait)
	if l.cfg.Humanoid {
		d.humanoid = humanoid.New(humanoid.DefaultConfig(), humanoid.NewCDPExecutor(), d.logger.Named("humanoid"), l.seed+n)
	}

	if l.cfg.Persona.Enabled {
		persona := stealth.FromConfig(l.cfg.Persona)
		if err := chromedp.Run(tabCtx, stealth.Apply(persona, d.logger.Named("stealth"))); err != nil {
			d.logger.Warn("Could not apply browser persona.", zap.Error(err))
		}
	}

	if l.cfg.ClearCookiesOnStart {
		if err := d.DeleteAllCookies(ctx); err != nil {
			d.logger.Warn("Could not clear cookies on start.", zap.Error(err))
		}
	}

	d.logger.Debug("Browser started.")
	return d, nil
}
