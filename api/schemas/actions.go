// api/schemas/actions.go
package schemas

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ActionKind identifies one member of the fixed automation vocabulary.
// The set is closed; the engine dispatches over it exhaustively.
type ActionKind string

const (
	ActionNavigate          ActionKind = "navigate"
	ActionGoBack            ActionKind = "go_back"
	ActionGoForward         ActionKind = "go_forward"
	ActionReload            ActionKind = "reload"
	ActionGetURL            ActionKind = "get_url"
	ActionGetTitle          ActionKind = "get_title"
	ActionClick             ActionKind = "click"
	ActionFill              ActionKind = "fill"
	ActionType              ActionKind = "type"
	ActionSelect            ActionKind = "select"
	ActionCheck             ActionKind = "check"
	ActionUncheck           ActionKind = "uncheck"
	ActionHover             ActionKind = "hover"
	ActionFocus             ActionKind = "focus"
	ActionPressKey          ActionKind = "press_key"
	ActionExtractText       ActionKind = "extract_text"
	ActionExtractAttributes ActionKind = "extract_attributes"
	ActionGetHTML           ActionKind = "get_html"
	ActionScreenshot        ActionKind = "screenshot"
	ActionEvaluate          ActionKind = "evaluate"
	ActionWait              ActionKind = "wait"
	ActionWaitForElement    ActionKind = "wait_for_element"
	ActionScroll            ActionKind = "scroll"
)

// AllActionKinds lists every member of the vocabulary in a stable order.
// Used by the dispatch-coverage test and input validation.
var AllActionKinds = []ActionKind{
	ActionNavigate, ActionGoBack, ActionGoForward, ActionReload,
	ActionGetURL, ActionGetTitle,
	ActionClick, ActionFill, ActionType, ActionSelect,
	ActionCheck, ActionUncheck, ActionHover, ActionFocus, ActionPressKey,
	ActionExtractText, ActionExtractAttributes, ActionGetHTML, ActionScreenshot,
	ActionEvaluate, ActionWait, ActionWaitForElement, ActionScroll,
}

// SelectorStrategy names the method used to locate a DOM element.
// Wire values keep the original input vocabulary (css/xpath/text/role).
type SelectorStrategy string

const (
	StrategyAuto       SelectorStrategy = "auto"
	StrategyStructural SelectorStrategy = "css"
	StrategyPath       SelectorStrategy = "xpath"
	StrategyText       SelectorStrategy = "text"
	StrategyRole       SelectorStrategy = "role"
)

// FlexibleString is a string that also accepts a JSON number on the wire.
// Callers routinely send {"value": 1000} for wait/scroll durations.
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value must be a string or number: %w", err)
	}
	*f = FlexibleString(n.String())
	return nil
}

// Int parses the value as a base-10 integer.
func (f FlexibleString) Int() (int, error) {
	return strconv.Atoi(strings.TrimSpace(string(f)))
}

const (
	// DefaultTimeoutMs applies when a descriptor omits its timeout.
	DefaultTimeoutMs = 10000
	// MaxTimeoutMs is the per-action ceiling; larger requests are clamped.
	MaxTimeoutMs = 30000
)

// Action is one requested automation step: what to do, against which element,
// with what payload, and how long to wait before giving up.
type Action struct {
	Kind        ActionKind        `json:"type"`
	Selector    string            `json:"selector,omitempty"`
	Strategy    SelectorStrategy  `json:"selector_type,omitempty"`
	Value       FlexibleString    `json:"value,omitempty"`
	TimeoutMs   int               `json:"timeout,omitempty"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// fieldRule describes whether a descriptor field is required for a kind.
type fieldRule int

const (
	forbidden fieldRule = iota
	optional
	required
)

// kindRules is the per-kind selector/value requirement matrix. A descriptor
// violating its row is a configuration error, never a runtime failure.
var kindRules = map[ActionKind]struct{ selector, value fieldRule }{
	ActionNavigate:          {forbidden, required},
	ActionGoBack:            {forbidden, forbidden},
	ActionGoForward:         {forbidden, forbidden},
	ActionReload:            {forbidden, forbidden},
	ActionGetURL:            {forbidden, forbidden},
	ActionGetTitle:          {forbidden, forbidden},
	ActionClick:             {required, forbidden},
	ActionFill:              {required, required},
	ActionType:              {required, required},
	ActionSelect:            {required, required},
	ActionCheck:             {required, forbidden},
	ActionUncheck:           {required, forbidden},
	ActionHover:             {required, forbidden},
	ActionFocus:             {required, forbidden},
	ActionPressKey:          {optional, required},
	ActionExtractText:       {required, forbidden},
	ActionExtractAttributes: {required, forbidden},
	ActionGetHTML:           {optional, forbidden},
	ActionScreenshot:        {optional, forbidden},
	ActionEvaluate:          {forbidden, required},
	ActionWait:              {forbidden, required},
	ActionWaitForElement:    {required, forbidden},
	ActionScroll:            {optional, optional},
}

// Validate checks the descriptor's shape against the requirement matrix for
// its kind. It does not touch a browser.
func (a *Action) Validate() error {
	rules, ok := kindRules[a.Kind]
	if !ok {
		return NewConfigurationError(fmt.Sprintf("unknown action type: %q", a.Kind))
	}

	switch rules.selector {
	case required:
		if a.Selector == "" {
			return NewConfigurationError(fmt.Sprintf("%s action requires 'selector'", a.Kind))
		}
	case forbidden:
		if a.Selector != "" {
			return NewConfigurationError(fmt.Sprintf("%s action does not accept 'selector'", a.Kind))
		}
	}

	switch rules.value {
	case required:
		if a.Value == "" {
			return NewConfigurationError(fmt.Sprintf("%s action requires 'value'", a.Kind))
		}
	case forbidden:
		if a.Value != "" {
			return NewConfigurationError(fmt.Sprintf("%s action does not accept 'value'", a.Kind))
		}
	}

	switch a.Strategy {
	case "", StrategyAuto, StrategyStructural, StrategyPath, StrategyText, StrategyRole:
	default:
		return NewConfigurationError(fmt.Sprintf("unknown selector strategy: %q", a.Strategy))
	}

	if a.TimeoutMs < 0 {
		return NewConfigurationError("timeout must be a positive integer")
	}

	// Durations ride in on the value field and must be numeric.
	if a.Kind == ActionWait || (a.Kind == ActionScroll && a.Value != "") {
		if _, err := a.Value.Int(); err != nil {
			return NewConfigurationError(fmt.Sprintf("%s action requires a numeric 'value': %v", a.Kind, err))
		}
	}
	return nil
}

// NeedsTarget reports whether the descriptor references an element for this
// invocation. Kinds with an optional selector only need one when it is set.
func (a *Action) NeedsTarget() bool {
	rules, ok := kindRules[a.Kind]
	if !ok {
		return false
	}
	if rules.selector == required {
		return true
	}
	return rules.selector == optional && a.Selector != ""
}

// Timeout returns the effective per-action timeout in milliseconds:
// the configured default when unset, clamped to the ceiling otherwise.
func (a *Action) Timeout(defaultMs int) int {
	if a.TimeoutMs <= 0 {
		if defaultMs > 0 {
			return defaultMs
		}
		return DefaultTimeoutMs
	}
	if a.TimeoutMs > MaxTimeoutMs {
		return MaxTimeoutMs
	}
	return a.TimeoutMs
}
