// internal/results/aggregate.go

// Package results folds per-action records into the run-level summary.
package results

import (
	"time"

	"github.com/anuj123upadhyay/pagedriver/api/schemas"
)

// Aggregate computes the run summary from the ordered per-action records.
// It is a pure fold: the records are not modified, and identical input
// always yields an identical summary.
func Aggregate(records []schemas.ActionResult, finishedAt time.Time) schemas.RunResult {
	stats := schemas.RunStats{TotalActions: len(records)}

	for _, r := range records {
		if r.Success {
			stats.SuccessfulActions++
		} else {
			stats.FailedActions++
		}
		stats.TotalExecutionTimeMs += r.ExecutionTimeMs
		if r.HasScreenshot {
			stats.ScreenshotsCaptured++
		}
	}

	if stats.TotalActions > 0 {
		stats.AverageActionTimeMs = stats.TotalExecutionTimeMs / float64(stats.TotalActions)
	}

	return schemas.RunResult{
		Success:   stats.FailedActions == 0,
		Stats:     stats,
		Actions:   records,
		Timestamp: schemas.ISOTimestamp(finishedAt),
	}
}
