// api/schemas/actions_test.go
package schemas

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction_Validate_RequirementMatrix(t *testing.T) {
	testCases := []struct {
		name   string
		action Action
		valid  bool
	}{
		{"navigate with value", Action{Kind: ActionNavigate, Value: "https://example.com"}, true},
		{"navigate without value", Action{Kind: ActionNavigate}, false},
		{"navigate with selector", Action{Kind: ActionNavigate, Selector: "#a", Value: "https://example.com"}, false},
		{"go_back bare", Action{Kind: ActionGoBack}, true},
		{"go_back with value", Action{Kind: ActionGoBack, Value: "x"}, false},
		{"click with selector", Action{Kind: ActionClick, Selector: "#a"}, true},
		{"click without selector", Action{Kind: ActionClick}, false},
		{"click with value", Action{Kind: ActionClick, Selector: "#a", Value: "x"}, false},
		{"fill complete", Action{Kind: ActionFill, Selector: "#a", Value: "v"}, true},
		{"fill without value", Action{Kind: ActionFill, Selector: "#a"}, false},
		{"press_key without selector", Action{Kind: ActionPressKey, Value: "Enter"}, true},
		{"press_key with selector", Action{Kind: ActionPressKey, Selector: "#a", Value: "Enter"}, true},
		{"press_key without value", Action{Kind: ActionPressKey}, false},
		{"screenshot bare", Action{Kind: ActionScreenshot}, true},
		{"screenshot with selector", Action{Kind: ActionScreenshot, Selector: "#a"}, true},
		{"screenshot with value", Action{Kind: ActionScreenshot, Value: "x"}, false},
		{"evaluate with script", Action{Kind: ActionEvaluate, Value: "1 + 1"}, true},
		{"evaluate with selector", Action{Kind: ActionEvaluate, Selector: "#a", Value: "1"}, false},
		{"wait numeric", Action{Kind: ActionWait, Value: "1000"}, true},
		{"wait non-numeric", Action{Kind: ActionWait, Value: "soon"}, false},
		{"scroll bare", Action{Kind: ActionScroll}, true},
		{"scroll by pixels", Action{Kind: ActionScroll, Value: "500"}, true},
		{"scroll non-numeric", Action{Kind: ActionScroll, Value: "down"}, false},
		{"wait_for_element with selector", Action{Kind: ActionWaitForElement, Selector: ".ready"}, true},
		{"extract_text without selector", Action{Kind: ActionExtractText}, false},
		{"unknown kind", Action{Kind: "teleport"}, false},
		{"unknown strategy", Action{Kind: ActionClick, Selector: "#a", Strategy: "vibes"}, false},
		{"negative timeout", Action{Kind: ActionGetTitle, TimeoutMs: -1}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.action.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, IsConfigurationError(err), "validation failures are configuration errors")
			}
		})
	}
}

func TestAction_Validate_CoversEveryKind(t *testing.T) {
	for _, kind := range AllActionKinds {
		_, ok := kindRules[kind]
		assert.True(t, ok, "kind %q has no requirement rule", kind)
	}
	assert.Len(t, kindRules, len(AllActionKinds))
}

func TestAction_Timeout(t *testing.T) {
	assert.Equal(t, 10000, (&Action{}).Timeout(0), "falls back to the built-in default")
	assert.Equal(t, 5000, (&Action{}).Timeout(5000), "configured default wins when unset")
	assert.Equal(t, 2500, (&Action{TimeoutMs: 2500}).Timeout(5000))
	assert.Equal(t, 30000, (&Action{TimeoutMs: 90000}).Timeout(5000), "requests above the ceiling are clamped")
}

func TestAction_NeedsTarget(t *testing.T) {
	assert.True(t, (&Action{Kind: ActionClick, Selector: "#a"}).NeedsTarget())
	assert.False(t, (&Action{Kind: ActionNavigate}).NeedsTarget())
	assert.False(t, (&Action{Kind: ActionScreenshot}).NeedsTarget())
	assert.True(t, (&Action{Kind: ActionScreenshot, Selector: "#a"}).NeedsTarget())
}

func TestFlexibleString_AcceptsStringAndNumber(t *testing.T) {
	var a Action
	require.NoError(t, json.Unmarshal([]byte(`{"type": "wait", "value": 1500}`), &a))
	assert.Equal(t, "1500", string(a.Value))

	require.NoError(t, json.Unmarshal([]byte(`{"type": "wait", "value": "1500"}`), &a))
	assert.Equal(t, "1500", string(a.Value))

	n, err := a.Value.Int()
	require.NoError(t, err)
	assert.Equal(t, 1500, n)

	assert.Error(t, json.Unmarshal([]byte(`{"type": "wait", "value": true}`), &a))
}

func TestISOTimestamp_IsUTC(t *testing.T) {
	parsed, err := time.Parse(time.RFC3339, "2025-06-15T14:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15T12:30:00Z", ISOTimestamp(parsed))
}
