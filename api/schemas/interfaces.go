// api/schemas/interfaces.go
package schemas

import (
	"context"
	"encoding/json"
)

// Target is a resolved element reference: a selector plus a concrete strategy.
// The engine normalizes StrategyAuto away before a Target reaches a session.
type Target struct {
	Selector string
	Strategy SelectorStrategy
}

// Session is the live-browser capability the engine drives. Every call is
// bounded by its context; implementations resolve the Target fresh on each
// call and never cache element handles, since the page mutates between steps.
//
// The production implementation lives in internal/browser; tests substitute
// an in-memory fake.
type Session interface {
	// Navigation. Each returns the page URL after the move settles.
	Navigate(ctx context.Context, url string) (string, error)
	NavigateBack(ctx context.Context) (string, error)
	NavigateForward(ctx context.Context) (string, error)
	Reload(ctx context.Context) (string, error)

	// Pure reads.
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)

	// Element interaction. Fill replaces the field's content wholesale;
	// Type appends keystroke by keystroke. SetChecked is idempotent.
	Click(ctx context.Context, t Target) error
	Hover(ctx context.Context, t Target) error
	Focus(ctx context.Context, t Target) error
	Fill(ctx context.Context, t Target, value string) error
	Type(ctx context.Context, t Target, value string) error
	SelectOption(ctx context.Context, t Target, value string) error
	SetChecked(ctx context.Context, t Target, checked bool) error
	// PressKey sends a named key (Enter, Escape, ...). A nil target sends it
	// to whatever currently holds focus.
	PressKey(ctx context.Context, t *Target, key string) error

	// Extraction. A nil target for HTML/Screenshot means the whole document.
	ExtractText(ctx context.Context, t Target) (string, error)
	ExtractAttributes(ctx context.Context, t Target) (map[string]string, error)
	HTML(ctx context.Context, t *Target) (string, error)
	Screenshot(ctx context.Context, t *Target) ([]byte, error)

	// Advanced.
	Evaluate(ctx context.Context, script string) (json.RawMessage, error)
	WaitForElement(ctx context.Context, t Target) error
	// Scroll moves to the target when given, by pixels otherwise, and to the
	// document bottom when pixels is zero.
	Scroll(ctx context.Context, t *Target, pixels int) error

	// Lifecycle.
	ID() string
	Terminated() bool
	Close(ctx context.Context) error
}

// SessionFactory creates a live session for one run. The engine owns the
// returned session and releases it on every exit path.
type SessionFactory func(ctx context.Context) (Session, error)
