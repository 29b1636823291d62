// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (TRAFFICSIM_SITE_BASE_DOMAIN, ...).
const EnvPrefix = "TRAFFICSIM"

// Config holds the entire application configuration. It is built once at
// startup, validated, and then passed down explicitly; nothing reads it globally.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Site    SiteConfig    `mapstructure:"site" yaml:"site"`
	Traffic TrafficConfig `mapstructure:"traffic" yaml:"traffic"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the per-user Chrome instances.
type BrowserConfig struct {
	Headless            bool           `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors     bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	DisableGPU          bool           `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	ExecPath            string         `mapstructure:"exec_path" yaml:"exec_path"`
	Args                []string       `mapstructure:"args" yaml:"args"`
	ImplicitWait        time.Duration  `mapstructure:"implicit_wait" yaml:"implicit_wait"`
	LaunchTimeout       time.Duration  `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	ClearCookiesOnStart bool           `mapstructure:"clear_cookies_on_start" yaml:"clear_cookies_on_start"`
	Humanoid            bool           `mapstructure:"humanoid" yaml:"humanoid"`
	Viewport            ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	Persona             PersonaConfig  `mapstructure:"persona" yaml:"persona"`
}

// PersonaConfig is the browser identity presented to the site. Empty fields
// keep Chrome's own value.
type PersonaConfig struct {
	Enabled   bool     `mapstructure:"enabled" yaml:"enabled"`
	UserAgent string   `mapstructure:"user_agent" yaml:"user_agent"`
	Platform  string   `mapstructure:"platform" yaml:"platform"`
	Languages []string `mapstructure:"languages" yaml:"languages"`
	Timezone  string   `mapstructure:"timezone" yaml:"timezone"`
	Locale    string   `mapstructure:"locale" yaml:"locale"`
}

// ViewportConfig is the browser window size in CSS pixels.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// SiteConfig describes the single target website.
type SiteConfig struct {
	Scheme            string   `mapstructure:"scheme" yaml:"scheme"`
	BaseDomain        string   `mapstructure:"base_domain" yaml:"base_domain"`
	EntryPaths        []string `mapstructure:"entry_paths" yaml:"entry_paths"`
	IgnorePaths       []string `mapstructure:"ignore_paths" yaml:"ignore_paths"`
	AssetMarkers      []string `mapstructure:"asset_markers" yaml:"asset_markers"`
	IncludeSubdomains bool     `mapstructure:"include_subdomains" yaml:"include_subdomains"`
	IdentityCookie    string   `mapstructure:"identity_cookie" yaml:"identity_cookie"`
	DiagnosticCookie  string   `mapstructure:"diagnostic_cookie" yaml:"diagnostic_cookie"`
}

// TrafficConfig shapes how many users run and how they behave.
type TrafficConfig struct {
	Users              Range         `mapstructure:"users" yaml:"users"`
	Rounds             Range         `mapstructure:"rounds" yaml:"rounds"`
	Pages              Range         `mapstructure:"pages" yaml:"pages"`
	Dwell              DurationRange `mapstructure:"dwell" yaml:"dwell"`
	Concurrency        int           `mapstructure:"concurrency" yaml:"concurrency"`
	SpawnRate          float64       `mapstructure:"spawn_rate" yaml:"spawn_rate"`
	UserTimeout        time.Duration `mapstructure:"user_timeout" yaml:"user_timeout"`
	MaxAttemptsPerPage int           `mapstructure:"max_attempts_per_page" yaml:"max_attempts_per_page"`
	MaxIterations      int           `mapstructure:"max_iterations" yaml:"max_iterations"`
	Seed               uint64        `mapstructure:"seed" yaml:"seed"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "trafficsim")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.implicit_wait", "30s")
	v.SetDefault("browser.launch_timeout", "60s")
	v.SetDefault("browser.clear_cookies_on_start", true)
	v.SetDefault("browser.humanoid", true)
	v.SetDefault("browser.viewport.width", 1366)
	v.SetDefault("browser.viewport.height", 768)
	v.SetDefault("browser.persona.enabled", true)
	v.SetDefault("browser.persona.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	v.SetDefault("browser.persona.platform", "Win32")
	v.SetDefault("browser.persona.languages", []string{"en-US", "en"})

	// -- Site --
	v.SetDefault("site.scheme", "https")
	v.SetDefault("site.asset_markers", []string{"/-/media/"})
	v.SetDefault("site.include_subdomains", false)
	v.SetDefault("site.identity_cookie", "ASP.NET_SessionId")
	v.SetDefault("site.diagnostic_cookie", "SC_ANALYTICS_GLOBAL_COOKIE")

	// -- Traffic --
	v.SetDefault("traffic.users.min", 1)
	v.SetDefault("traffic.users.max", 99)
	v.SetDefault("traffic.rounds.min", 1)
	v.SetDefault("traffic.rounds.max", 4)
	v.SetDefault("traffic.pages.min", 2)
	v.SetDefault("traffic.pages.max", 10)
	v.SetDefault("traffic.dwell.min", "0s")
	v.SetDefault("traffic.dwell.max", "9s")
	v.SetDefault("traffic.concurrency", 1)
	v.SetDefault("traffic.spawn_rate", 0.0)
	v.SetDefault("traffic.user_timeout", "0s")
	v.SetDefault("traffic.max_attempts_per_page", 50)
	v.SetDefault("traffic.max_iterations", 0)
	v.SetDefault("traffic.seed", 0)

	// -- Metrics --
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", ":9464")
	v.SetDefault("metrics.path", "/metrics")
}

// NewConfigFromViper creates a validated configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Logger.LogFile != "" {
		expanded, err := homedir.Expand(cfg.Logger.LogFile)
		if err != nil {
			return nil, fmt.Errorf("could not resolve log file path '%s': %w", cfg.Logger.LogFile, err)
		}
		cfg.Logger.LogFile = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ErrNoEntryPaths is returned when the entry catalog is empty.
var ErrNoEntryPaths = errors.New("site.entry_paths must contain at least one path")

// Validate checks the configuration for required fields and sane values.
// It is run once, before any virtual user starts.
func (c *Config) Validate() error {
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.Traffic.Validate(); err != nil {
		return err
	}
	if c.Browser.ImplicitWait <= 0 {
		return fmt.Errorf("browser.implicit_wait must be a positive duration")
	}
	if c.Browser.LaunchTimeout < 0 {
		return fmt.Errorf("browser.launch_timeout must not be negative")
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("metrics.listen is required when metrics are enabled")
	}
	return nil
}

// Validate checks the site description.
func (s *SiteConfig) Validate() error {
	switch strings.ToLower(s.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("site.scheme must be http or https, got %q", s.Scheme)
	}
	if strings.TrimSpace(s.BaseDomain) == "" {
		return fmt.Errorf("site.base_domain is a required configuration field")
	}
	if strings.Contains(s.BaseDomain, "/") {
		return fmt.Errorf("site.base_domain must be a bare host, got %q", s.BaseDomain)
	}
	if len(s.EntryPaths) == 0 {
		return ErrNoEntryPaths
	}
	for _, p := range s.EntryPaths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("site.entry_paths must not contain empty paths")
		}
	}
	return nil
}

// Validate checks the traffic ranges and limits.
func (t *TrafficConfig) Validate() error {
	if err := t.Users.validate("traffic.users", 1); err != nil {
		return err
	}
	if err := t.Rounds.validate("traffic.rounds", 1); err != nil {
		return err
	}
	if err := t.Pages.validate("traffic.pages", 0); err != nil {
		return err
	}
	if err := t.Dwell.validate("traffic.dwell"); err != nil {
		return err
	}
	if t.Concurrency < 0 {
		return fmt.Errorf("traffic.concurrency must not be negative")
	}
	if t.SpawnRate < 0 {
		return fmt.Errorf("traffic.spawn_rate must not be negative")
	}
	if t.UserTimeout < 0 {
		return fmt.Errorf("traffic.user_timeout must not be negative")
	}
	if t.MaxAttemptsPerPage <= 0 {
		return fmt.Errorf("traffic.max_attempts_per_page must be a positive integer")
	}
	if t.MaxIterations < 0 {
		return fmt.Errorf("traffic.max_iterations must not be negative")
	}
	return nil
}
