// internal/results/aggregate_test.go
package results

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/anuj123upadhyay/pagedriver/api/schemas"
)

var testFinishedAt = time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC)

func TestAggregate_EmptyRun(t *testing.T) {
	result := Aggregate(nil, testFinishedAt)

	assert.True(t, result.Success)
	assert.Zero(t, result.Stats.TotalActions)
	assert.Zero(t, result.Stats.AverageActionTimeMs)
	assert.Empty(t, result.Actions)
	assert.Equal(t, schemas.ISOTimestamp(testFinishedAt), result.Timestamp)
}

func TestAggregate_MixedOutcomes(t *testing.T) {
	records := []schemas.ActionResult{
		{Kind: schemas.ActionNavigate, Success: true, ExecutionTimeMs: 120},
		{Kind: schemas.ActionClick, Success: false, Error: "element not found", ExecutionTimeMs: 10000},
		{Kind: schemas.ActionScreenshot, Success: true, ExecutionTimeMs: 380, HasScreenshot: true},
		{Kind: schemas.ActionGetTitle, Success: true, ExecutionTimeMs: 4},
	}

	result := Aggregate(records, testFinishedAt)

	assert.False(t, result.Success, "a single failure marks the run unsuccessful")

	expected := schemas.RunStats{
		TotalActions:         4,
		SuccessfulActions:    3,
		FailedActions:        1,
		TotalExecutionTimeMs: 10504,
		AverageActionTimeMs:  2626,
		ScreenshotsCaptured:  1,
	}
	if diff := cmp.Diff(expected, result.Stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_PreservesRecordOrder(t *testing.T) {
	records := []schemas.ActionResult{
		{Kind: schemas.ActionNavigate, Success: true},
		{Kind: schemas.ActionFill, Success: true},
		{Kind: schemas.ActionClick, Success: true},
	}

	result := Aggregate(records, testFinishedAt)

	if diff := cmp.Diff(records, result.Actions); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_CountsEveryScreenshot(t *testing.T) {
	records := []schemas.ActionResult{
		{Kind: schemas.ActionScreenshot, Success: true, HasScreenshot: true},
		{Kind: schemas.ActionScreenshot, Success: false},
		{Kind: schemas.ActionScreenshot, Success: true, HasScreenshot: true},
	}

	result := Aggregate(records, testFinishedAt)
	assert.Equal(t, 2, result.Stats.ScreenshotsCaptured)
}

func TestAggregate_IsDeterministic(t *testing.T) {
	records := []schemas.ActionResult{
		{Kind: schemas.ActionNavigate, Success: true, ExecutionTimeMs: 33.5},
		{Kind: schemas.ActionWait, Success: true, ExecutionTimeMs: 500},
	}

	first := Aggregate(records, testFinishedAt)
	second := Aggregate(records, testFinishedAt)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("aggregation is not deterministic (-first +second):\n%s", diff)
	}
}
