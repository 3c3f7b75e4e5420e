// api/schemas/results.go
package schemas

import "time"

// ActionResult records the outcome of a single executed action. It is created
// by the engine immediately after the attempt completes and never mutated.
type ActionResult struct {
	Kind            ActionKind `json:"type"`
	Selector        string     `json:"selector,omitempty"`
	Value           string     `json:"value,omitempty"`
	Description     string     `json:"description,omitempty"`
	Success         bool       `json:"success"`
	Output          any        `json:"output,omitempty"`
	Error           string     `json:"error,omitempty"`
	ExecutionTimeMs float64    `json:"execution_time_ms"`
	Timestamp       string     `json:"timestamp"`
	HasScreenshot   bool       `json:"has_screenshot,omitempty"`
}

// RunStats are the aggregate counters over one run. SuccessfulActions plus
// FailedActions always equals TotalActions.
type RunStats struct {
	TotalActions         int     `json:"total_actions"`
	SuccessfulActions    int     `json:"successful_actions"`
	FailedActions        int     `json:"failed_actions"`
	TotalExecutionTimeMs float64 `json:"total_execution_time_ms"`
	AverageActionTimeMs  float64 `json:"average_action_time_ms"`
	ScreenshotsCaptured  int     `json:"screenshots_captured"`
}

// RunResult is the run-level summary handed back to the caller. Actions keeps
// the input descriptor order; it is never reordered.
type RunResult struct {
	Success   bool           `json:"success"`
	Stats     RunStats       `json:"stats"`
	Actions   []ActionResult `json:"actions"`
	Timestamp string         `json:"timestamp"`
}

// ISOTimestamp formats t the way results report capture times.
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
