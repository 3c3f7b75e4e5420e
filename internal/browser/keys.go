// internal/browser/keys.go
package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp/kb"
)

// namedKeys maps the wire-level key names callers use (the DOM KeyboardEvent
// key vocabulary) onto the rune sequences the keyboard layer understands.
var namedKeys = map[string]string{
	"enter":      kb.Enter,
	"return":     kb.Enter,
	"tab":        kb.Tab,
	"escape":     kb.Escape,
	"esc":        kb.Escape,
	"backspace":  kb.Backspace,
	"delete":     kb.Delete,
	"space":      " ",
	"arrowup":    kb.ArrowUp,
	"arrowdown":  kb.ArrowDown,
	"arrowleft":  kb.ArrowLeft,
	"arrowright": kb.ArrowRight,
	"home":       kb.Home,
	"end":        kb.End,
	"pageup":     kb.PageUp,
	"pagedown":   kb.PageDown,
}

// keySequence translates a named key into its input sequence. Single
// printable characters pass through as-is.
func keySequence(name string) (string, error) {
	if seq, ok := namedKeys[strings.ToLower(strings.TrimSpace(name))]; ok {
		return seq, nil
	}
	if len([]rune(name)) == 1 {
		return name, nil
	}
	return "", fmt.Errorf("unknown key name %q", name)
}
