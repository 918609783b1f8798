// Package stealth builds the per-session identity: a randomized but coherent
// profile, the launch flags and CDP overrides that apply it, and the init
// script that patches automation tells before any page script runs.
package stealth

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	rodstealth "github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

//go:embed evasions.js
var evasionsScript string

// ErrEmptyPool is returned when a candidate pool has no entries.
var ErrEmptyPool = errors.New("stealth: candidate pool is empty")

// Pools are the fixed candidate sets a profile is drawn from.
type Pools struct {
	UserAgents      []string       `mapstructure:"user_agents" yaml:"user_agents"`
	Viewports       []schemas.Size `mapstructure:"viewports" yaml:"viewports"`
	Locales         []string       `mapstructure:"locales" yaml:"locales"`
	AcceptLanguages []string       `mapstructure:"accept_languages" yaml:"accept_languages"`
}

// DefaultPools returns the candidate sets the portal workflow was run with.
func DefaultPools() Pools {
	return Pools{
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Safari/605.1.15",
		},
		Viewports: []schemas.Size{
			{Width: 1200, Height: 800},
			{Width: 1366, Height: 768},
			{Width: 1440, Height: 900},
			{Width: 1600, Height: 900},
		},
		Locales:         []string{"en-US", "tr-TR", "en-GB"},
		AcceptLanguages: []string{"en-US,en;q=0.9", "tr-TR,tr;q=0.9,en;q=0.8", "en-GB,en;q=0.9"},
	}
}

// Validate checks that every pool can be sampled.
func (p Pools) Validate() error {
	switch {
	case len(p.UserAgents) == 0:
		return fmt.Errorf("%w: user_agents", ErrEmptyPool)
	case len(p.Viewports) == 0:
		return fmt.Errorf("%w: viewports", ErrEmptyPool)
	case len(p.Locales) == 0:
		return fmt.Errorf("%w: locales", ErrEmptyPool)
	case len(p.AcceptLanguages) == 0:
		return fmt.Errorf("%w: accept_languages", ErrEmptyPool)
	}
	for _, vp := range p.Viewports {
		if vp.Width <= 0 || vp.Height <= 0 {
			return fmt.Errorf("stealth: invalid viewport %dx%d", vp.Width, vp.Height)
		}
	}
	return nil
}

// Overrides are the navigator properties patched before page scripts run.
type Overrides struct {
	HideWebdriver bool     `json:"hideWebdriver"`
	Plugins       int      `json:"plugins"`
	Languages     []string `json:"languages"`
}

// Profile is the identity of one session. It is chosen once and never
// changes while the session lives.
type Profile struct {
	UserAgent      string       `json:"userAgent"`
	Platform       string       `json:"platform"`
	Viewport       schemas.Size `json:"viewport"`
	Locale         string       `json:"locale"`
	AcceptLanguage string       `json:"acceptLanguage"`
	Overrides      Overrides    `json:"overrides"`
}

// NewProfile draws one value from each pool.
func NewProfile(rng *rand.Rand, pools Pools) (Profile, error) {
	if err := pools.Validate(); err != nil {
		return Profile{}, err
	}
	ua := pools.UserAgents[rng.Intn(len(pools.UserAgents))]
	vp := pools.Viewports[rng.Intn(len(pools.Viewports))]
	locale := pools.Locales[rng.Intn(len(pools.Locales))]
	acceptLang := pools.AcceptLanguages[rng.Intn(len(pools.AcceptLanguages))]

	return Profile{
		UserAgent:      ua,
		Platform:       PlatformFor(ua),
		Viewport:       vp,
		Locale:         locale,
		AcceptLanguage: acceptLang,
		Overrides: Overrides{
			HideWebdriver: true,
			Plugins:       5,
			Languages:     LanguagesFrom(acceptLang),
		},
	}, nil
}

// PlatformFor maps a user agent onto the navigator.platform value a real
// browser with that agent would report.
func PlatformFor(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Windows"):
		return "Win32"
	case strings.Contains(userAgent, "Macintosh"):
		return "MacIntel"
	default:
		return "Linux x86_64"
	}
}

// LanguagesFrom extracts the language tags of an Accept-Language value in
// order, dropping quality weights.
func LanguagesFrom(acceptLanguage string) []string {
	var langs []string
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag != "" {
			langs = append(langs, tag)
		}
	}
	return langs
}

// OverrideScript renders the init script for a profile. With extended set,
// the go-rod/stealth evasion bundle runs ahead of the profile overrides.
func OverrideScript(p Profile, extended bool) (string, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("stealth: failed to marshal profile: %w", err)
	}
	script := fmt.Sprintf("const QUICKFINDER_PROFILE = %s;\n%s", payload, evasionsScript)
	if extended {
		script = rodstealth.JS + "\n" + script
	}
	return script, nil
}

// Apply returns the CDP actions that put a profile into effect on the
// current tab. They must run before the first navigation.
func Apply(p Profile, extended bool, logger *zap.Logger) chromedp.Tasks {
	l := logger.Named("stealth")
	return chromedp.Tasks{
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": p.AcceptLanguage}),
		emulation.SetUserAgentOverride(p.UserAgent).
			WithPlatform(p.Platform).
			WithAcceptLanguage(p.AcceptLanguage),
		emulation.SetLocaleOverride().WithLocale(p.Locale),
		emulation.SetDeviceMetricsOverride(p.Viewport.Width, p.Viewport.Height, 1.0, false),
		injectOverrides(p, extended, l),
		chromedp.ActionFunc(func(ctx context.Context) error {
			l.Debug("Session profile applied.",
				zap.String("user_agent", p.UserAgent),
				zap.String("locale", p.Locale),
				zap.Int64("width", p.Viewport.Width),
				zap.Int64("height", p.Viewport.Height),
			)
			return nil
		}),
	}
}

func injectOverrides(p Profile, extended bool, logger *zap.Logger) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		script, err := OverrideScript(p, extended)
		if err != nil {
			return err
		}
		if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
			logger.Error("Failed to register override script.", zap.Error(err))
			return fmt.Errorf("stealth: failed to add script on new document: %w", err)
		}
		return nil
	})
}
