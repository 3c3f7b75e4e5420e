// internal/browser/stealth/stealth_test.go
package stealth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestApply_TaskCount verifies the persona produces the full evasion set.
func TestApply_TaskCount(t *testing.T) {
	tasks := Apply(DefaultPersona, zap.NewNop())
	// UA override, evasions injection, timezone, locale, headers.
	assert.Len(t, tasks, 5)
}

func TestApply_NoLanguagesSkipsHeaders(t *testing.T) {
	p := DefaultPersona
	p.Languages = nil
	tasks := Apply(p, zap.NewNop())
	assert.Len(t, tasks, 4)
}

// TestEvasionsScript_CoversKnownSignals pins the fingerprint surfaces the
// payload must touch.
func TestEvasionsScript_CoversKnownSignals(t *testing.T) {
	script := Script()
	require.NotEmpty(t, script)

	assert.Contains(t, script, "navigator, 'webdriver'")
	assert.Contains(t, script, "navigator, 'plugins'")
	assert.Contains(t, script, "navigator, 'languages'")
	assert.Contains(t, script, "window.chrome")
	assert.Contains(t, script, "permissions.query")
	assert.Contains(t, script, "Notification.permission")
}

func TestAcceptLanguage(t *testing.T) {
	assert.Equal(t, "en-US", acceptLanguage([]string{"en-US"}))
	assert.Equal(t, "en-US,en;q=0.9", acceptLanguage([]string{"en-US", "en"}))
	assert.Equal(t, "de-DE,de;q=0.9,en;q=0.8", acceptLanguage([]string{"de-DE", "de", "en"}))
}

func TestDefaultPersona_IsPlausible(t *testing.T) {
	assert.Contains(t, DefaultPersona.UserAgent, "Mozilla/5.0")
	assert.NotContains(t, DefaultPersona.UserAgent, "Headless")
	assert.NotEmpty(t, DefaultPersona.Timezone)
	assert.NotEmpty(t, DefaultPersona.Locale)
}
