// Package stealth makes the per-user Chrome present a consistent desktop
// identity instead of the headless defaults.
package stealth

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/trafficsim/internal/config"
)

// evasionsTemplate hides the automation flag and aligns navigator.languages
// with the Accept-Language header. %s is a JSON array of language tags.
const evasionsTemplate = `(() => {
  Object.defineProperty(Navigator.prototype, 'webdriver', { get: () => undefined });
  const langs = %s;
  if (langs.length) {
    Object.defineProperty(Navigator.prototype, 'languages', { get: () => langs.slice() });
  }
})();`

// Persona defines the browser characteristics to emulate.
type Persona struct {
	UserAgent string
	Platform  string
	Languages []string
	Timezone  string
	Locale    string
}

// DefaultPersona provides a realistic default browser profile.
var DefaultPersona = Persona{
	UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	Platform:  "Win32",
	Languages: []string{"en-US", "en"},
}

// FromConfig builds a persona, taking the user agent from DefaultPersona
// when the config leaves it empty.
func FromConfig(cfg config.PersonaConfig) Persona {
	p := Persona{
		UserAgent: cfg.UserAgent,
		Platform:  cfg.Platform,
		Languages: append([]string(nil), cfg.Languages...),
		Timezone:  cfg.Timezone,
		Locale:    cfg.Locale,
	}
	if p.UserAgent == "" {
		p.UserAgent = DefaultPersona.UserAgent
		if p.Platform == "" {
			p.Platform = DefaultPersona.Platform
		}
	}
	return p
}

// AcceptLanguage renders langs as an Accept-Language value with descending
// q-weights: "en-US,en;q=0.9".
func AcceptLanguage(langs []string) string {
	var b strings.Builder
	q := 10
	for _, l := range langs {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(l)
		if q < 10 {
			fmt.Fprintf(&b, ";q=0.%d", q)
		}
		if q > 1 {
			q--
		}
	}
	return b.String()
}

// Script returns the evasion script for p.
func Script(p Persona) (string, error) {
	langs := p.Languages
	if langs == nil {
		langs = []string{}
	}
	encoded, err := jsoniter.MarshalToString(langs)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(evasionsTemplate, encoded), nil
}

// Apply constructs a sequence of Chrome DevTools Protocol actions to make the
// headless browser appear more like a standard, user-operated browser.
func Apply(p Persona, logger *zap.Logger) chromedp.Tasks {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Applying browser persona",
		zap.String("userAgent", p.UserAgent),
		zap.String("platform", p.Platform),
	)

	override := emulation.SetUserAgentOverride(p.UserAgent)
	if al := AcceptLanguage(p.Languages); al != "" {
		override = override.WithAcceptLanguage(al)
	}
	if p.Platform != "" {
		override = override.WithPlatform(p.Platform)
	}

	tasks := chromedp.Tasks{
		override,
		chromedp.ActionFunc(func(ctx context.Context) error {
			script, err := Script(p)
			if err != nil {
				return err
			}
			if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
				return fmt.Errorf("failed to inject evasions script: %w", err)
			}
			return nil
		}),
	}
	if p.Timezone != "" {
		tasks = append(tasks, emulation.SetTimezoneOverride(p.Timezone))
	}
	if p.Locale != "" {
		tasks = append(tasks, emulation.SetLocaleOverride().WithLocale(p.Locale))
	}
	return tasks
}
