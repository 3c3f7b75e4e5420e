package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anuj123upadhyay/pagedriver/api/schemas"
	"github.com/anuj123upadhyay/pagedriver/internal/templates"
)

func writeTempInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadInput_BareArray(t *testing.T) {
	path := writeTempInput(t, `[
		{"type": "navigate", "value": "https://example.com"},
		{"type": "get_title"}
	]`)

	input, err := readInput(path)
	require.NoError(t, err)
	require.Len(t, input.Actions, 2)
	assert.Equal(t, schemas.ActionNavigate, input.Actions[0].Kind)
	assert.Equal(t, "https://example.com", string(input.Actions[0].Value))
}

func TestReadInput_WrappedDocument(t *testing.T) {
	path := writeTempInput(t, `{"actions": [{"type": "screenshot"}]}`)

	input, err := readInput(path)
	require.NoError(t, err)
	require.Len(t, input.Actions, 1)
	assert.Equal(t, schemas.ActionScreenshot, input.Actions[0].Kind)
}

func TestReadInput_NumericValueAccepted(t *testing.T) {
	path := writeTempInput(t, `[{"type": "wait", "value": 1500}]`)

	input, err := readInput(path)
	require.NoError(t, err)
	require.Len(t, input.Actions, 1)
	assert.Equal(t, "1500", string(input.Actions[0].Value))
}

func TestReadInput_MissingFile(t *testing.T) {
	_, err := readInput(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestResolveActions_TemplateInsideDocument(t *testing.T) {
	path := writeTempInput(t, `{
		"template": "google_search",
		"template_params": {"search_query": "chromedp", "max_results": 3}
	}`)

	actions, err := resolveActions(path, "", nil, zap.NewNop())
	require.NoError(t, err)
	require.NotEmpty(t, actions)
	assert.Contains(t, string(actions[0].Value), "q=chromedp")

	var script string
	for _, a := range actions {
		if a.Kind == schemas.ActionEvaluate {
			script = string(a.Value)
		}
	}
	assert.Contains(t, script, ".slice(0, 3)", "numeric template params must round-trip")
}

func TestParseTemplateParams(t *testing.T) {
	params, err := parseTemplateParams([]string{"search_query=usb hub", "max_results=5"})
	require.NoError(t, err)
	assert.Equal(t, templates.Params{"search_query": "usb hub", "max_results": "5"}, params)
}

func TestParseTemplateParams_RejectsMalformed(t *testing.T) {
	_, err := parseTemplateParams([]string{"no-equals-sign"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-equals-sign")
}

func TestResolveActions_TemplateWinsOverInput(t *testing.T) {
	path := writeTempInput(t, `[{"type": "get_url"}]`)

	actions, err := resolveActions(path, "google_search", []string{"search_query=golang"}, zap.NewNop())
	require.NoError(t, err)
	require.NotEmpty(t, actions)
	assert.Equal(t, schemas.ActionNavigate, actions[0].Kind)
	assert.Contains(t, string(actions[0].Value), "google.com/search")
}

func TestResolveActions_DefaultsToDemoWorkflow(t *testing.T) {
	actions, err := resolveActions("", "", nil, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, actions, 4)
	assert.Equal(t, schemas.ActionNavigate, actions[0].Kind)
	assert.Equal(t, schemas.ActionScreenshot, actions[3].Kind)

	for i := range actions {
		assert.NoError(t, actions[i].Validate(), "demo action %d must pass validation", i)
	}
}

func TestResolveActions_UnknownTemplate(t *testing.T) {
	_, err := resolveActions("", "nonexistent", nil, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrUnknownTemplate)
}

func TestTemplatesCommand_ListsEveryPreset(t *testing.T) {
	cmd := newTemplatesCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, cmd.RunE(cmd, nil))

	for _, info := range templates.List() {
		assert.Contains(t, out.String(), info.Name)
	}
}

func TestTemplatesCommand_JSONOutput(t *testing.T) {
	cmd := newTemplatesCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Flags().Set("json", "true"))

	require.NoError(t, cmd.RunE(cmd, nil))

	var infos []templates.Info
	require.NoError(t, jsonAPI.Unmarshal(out.Bytes(), &infos))
	assert.Len(t, infos, 5)
}
