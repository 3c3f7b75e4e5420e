// internal/browser/stealth/stealth.go
package stealth

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

//go:embed evasions.js
var evasionsScript string

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
	UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	Platform:  "MacIntel",
	Languages: []string{"en-US", "en"},
	Timezone:  "America/New_York",
	Locale:    "en-US",
}

// Apply constructs the DevTools actions that make a headless session look
// like a standard, user-operated browser. Applied once at session creation,
// before any action executes.
func Apply(p Persona, logger *zap.Logger) chromedp.Tasks {
	logger.Debug("Applying stealth persona",
		zap.String("user_agent", p.UserAgent),
		zap.String("platform", p.Platform),
	)

	tasks := chromedp.Tasks{
		emulation.SetUserAgentOverride(p.UserAgent).WithPlatform(p.Platform),

		// AddScriptToEvaluateOnNewDocument returns two values, so it needs an
		// ActionFunc wrapper to satisfy the chromedp.Action interface.
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(evasionsScript).Do(ctx)
			if err != nil {
				return fmt.Errorf("failed to inject evasions script: %w", err)
			}
			return nil
		}),

		emulation.SetTimezoneOverride(p.Timezone),
		emulation.SetLocaleOverride().WithLocale(p.Locale),
	}

	if len(p.Languages) > 0 {
		tasks = append(tasks, network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": acceptLanguage(p.Languages),
		}))
	}
	return tasks
}

// acceptLanguage renders the persona's languages as an Accept-Language value
// with descending quality weights.
func acceptLanguage(langs []string) string {
	out := langs[0]
	for i, lang := range langs[1:] {
		out += fmt.Sprintf(",%s;q=0.%d", lang, 9-i)
	}
	return out
}

// Script exposes the embedded evasions payload for inspection in tests.
func Script() string { return evasionsScript }
