// internal/engine/handlers.go
package engine

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/anuj123upadhyay/pagedriver/api/schemas"
	"github.com/anuj123upadhyay/pagedriver/internal/selector"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// perform dispatches one validated action to the session. The switch covers
// the full vocabulary; an unreachable default guards against a new kind being
// added to the schema without a handler.
func (e *Engine) perform(ctx context.Context, session schemas.Session, a *schemas.Action) (any, []byte, error) {
	// Validation already ran, but the dispatch re-checks shape so a handler
	// never sees a descriptor it cannot serve.
	if err := a.Validate(); err != nil {
		return nil, nil, err
	}

	target := selector.Normalize(a.Selector, a.Strategy)
	// Kinds with an optional selector take a pointer: nil means the whole
	// page (or the focused element for press_key).
	var optTarget *schemas.Target
	if a.Selector != "" {
		optTarget = &target
	}

	switch a.Kind {
	case schemas.ActionNavigate:
		finalURL, err := session.Navigate(ctx, string(a.Value))
		if err != nil {
			return nil, nil, err
		}
		return fmt.Sprintf("Navigated to %s", finalURL), nil, nil

	case schemas.ActionGoBack:
		finalURL, err := session.NavigateBack(ctx)
		if err != nil {
			return nil, nil, err
		}
		return fmt.Sprintf("Went back to %s", finalURL), nil, nil

	case schemas.ActionGoForward:
		finalURL, err := session.NavigateForward(ctx)
		if err != nil {
			return nil, nil, err
		}
		return fmt.Sprintf("Went forward to %s", finalURL), nil, nil

	case schemas.ActionReload:
		finalURL, err := session.Reload(ctx)
		if err != nil {
			return nil, nil, err
		}
		return fmt.Sprintf("Reloaded %s", finalURL), nil, nil

	case schemas.ActionGetURL:
		u, err := session.CurrentURL(ctx)
		return u, nil, err

	case schemas.ActionGetTitle:
		title, err := session.Title(ctx)
		return title, nil, err

	case schemas.ActionClick:
		if err := session.Click(ctx, target); err != nil {
			return nil, nil, err
		}
		return fmt.Sprintf("Clicked element: %s", a.Selector), nil, nil

	case schemas.ActionFill:
		if err := session.Fill(ctx, target, string(a.Value)); err != nil {
			return nil, nil, err
		}
		return fmt.Sprintf("Filled element: %s", a.Selector), nil, nil

	case schemas.ActionType:
		if err := session.Type(ctx, target, string(a.Value)); err != nil {
			return nil, nil, err
		}
		return fmt.Sprintf("Typed into element: %s", a.Selector), nil, nil

	case schemas.ActionSelect:
		if err := session.SelectOption(ctx, target, string(a.Value)); err != nil {
			return nil, nil, err
		}
		return fmt.Sprintf("Selected option %q in %s", a.Value, a.Selector), nil, nil

	case schemas.ActionCheck:
		if err := session.SetChecked(ctx, target, true); err != nil {
			return nil, nil, err
		}
		return fmt.Sprintf("Checked element: %s", a.Selector), nil, nil

	case schemas.ActionUncheck:
		if err := session.SetChecked(ctx, target, false); err != nil {
			return nil, nil, err
		}
		return fmt.Sprintf("Unchecked element: %s", a.Selector), nil, nil

	case schemas.ActionHover:
		if err := session.Hover(ctx, target); err != nil {
			return nil, nil, err
		}
		return fmt.Sprintf("Hovered over element: %s", a.Selector), nil, nil

	case schemas.ActionFocus:
		if err := session.Focus(ctx, target); err != nil {
			return nil, nil, err
		}
		return fmt.Sprintf("Focused element: %s", a.Selector), nil, nil

	case schemas.ActionPressKey:
		if err := session.PressKey(ctx, optTarget, string(a.Value)); err != nil {
			return nil, nil, err
		}
		return fmt.Sprintf("Pressed key: %s", a.Value), nil, nil

	case schemas.ActionExtractText:
		text, err := session.ExtractText(ctx, target)
		return text, nil, err

	case schemas.ActionExtractAttributes:
		attrs, err := session.ExtractAttributes(ctx, target)
		if err != nil {
			return nil, nil, err
		}
		return attrs, nil, nil

	case schemas.ActionGetHTML:
		markup, err := session.HTML(ctx, optTarget)
		return markup, nil, err

	case schemas.ActionScreenshot:
		data, err := session.Screenshot(ctx, optTarget)
		if err != nil {
			return nil, nil, err
		}
		return nil, data, nil

	case schemas.ActionEvaluate:
		raw, err := session.Evaluate(ctx, string(a.Value))
		if err != nil {
			return nil, nil, err
		}
		var decoded any
		if err := jsonAPI.Unmarshal(raw, &decoded); err != nil {
			// Non-JSON evaluation results surface as their raw text.
			return string(raw), nil, nil
		}
		return decoded, nil, nil

	case schemas.ActionWait:
		ms, err := a.Value.Int()
		if err != nil {
			return nil, nil, schemas.NewConfigurationError(fmt.Sprintf("wait action requires a numeric 'value': %v", err))
		}
		if err := sleep(ctx, time.Duration(ms)*time.Millisecond); err != nil {
			return nil, nil, err
		}
		return fmt.Sprintf("Waited %d ms", ms), nil, nil

	case schemas.ActionWaitForElement:
		if err := session.WaitForElement(ctx, target); err != nil {
			return nil, nil, err
		}
		return fmt.Sprintf("Element appeared: %s", a.Selector), nil, nil

	case schemas.ActionScroll:
		pixels := 0
		if a.Selector == "" && a.Value != "" {
			var err error
			if pixels, err = a.Value.Int(); err != nil {
				return nil, nil, schemas.NewConfigurationError(fmt.Sprintf("scroll action requires a numeric 'value': %v", err))
			}
		}
		if err := session.Scroll(ctx, optTarget, pixels); err != nil {
			return nil, nil, err
		}
		switch {
		case optTarget != nil:
			return fmt.Sprintf("Scrolled to element: %s", a.Selector), nil, nil
		case pixels != 0:
			return fmt.Sprintf("Scrolled by %d pixels", pixels), nil, nil
		default:
			return "Scrolled to page bottom", nil, nil
		}

	default:
		return nil, nil, schemas.NewConfigurationError(fmt.Sprintf("unknown action type: %q", a.Kind))
	}
}

// sleep waits for d or until the context ends. The wait action does not
// touch the browser; its deadline still applies.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", schemas.ErrTimeout, ctx.Err())
	}
}
