// api/schemas/errors.go
package schemas

import "errors"

// Recoverable per-action failure classes. The engine folds these into the
// per-action result; they never escape a run.
var (
	// ErrElementNotFound means no element matched the selector before the
	// action's timeout elapsed.
	ErrElementNotFound = errors.New("element not found")
	// ErrTimeout means the action's own work exceeded its timeout budget.
	ErrTimeout = errors.New("action timed out")
	// ErrScript means an evaluated script threw in page context.
	ErrScript = errors.New("script execution failed")
	// ErrNavigation means the navigation target was unreachable.
	ErrNavigation = errors.New("navigation failed")
)

// ErrSessionTerminated is fatal: the browser process or its connection died.
// Remaining descriptors are recorded as failed with this reason.
var ErrSessionTerminated = errors.New("session terminated")

// Template expansion failures, surfaced before any browser work begins.
var (
	ErrUnknownTemplate  = errors.New("unknown template")
	ErrMissingParameter = errors.New("missing required parameter")
)

// ConfigurationError marks input that is wrong before a session exists:
// unknown templates, missing parameters, malformed descriptors. It aborts the
// whole run with no partial result.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Reason }

// NewConfigurationError wraps a human-readable reason.
func NewConfigurationError(reason string) *ConfigurationError {
	return &ConfigurationError{Reason: reason}
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
