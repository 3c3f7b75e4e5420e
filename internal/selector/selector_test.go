// internal/selector/selector_test.go
package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anuj123upadhyay/pagedriver/api/schemas"
)

// TestInfer_Precedence pins the documented inference order: path beats
// structural beats text.
func TestInfer_Precedence(t *testing.T) {
	cases := []struct {
		selector string
		want     schemas.SelectorStrategy
	}{
		{"/html/body/div", schemas.StrategyPath},
		{"//button[@type='submit']", schemas.StrategyPath},
		{"#search", schemas.StrategyStructural},
		{".s-result-item", schemas.StrategyStructural},
		{"input[name='q']", schemas.StrategyStructural},
		{"div", schemas.StrategyStructural},
		{"BUTTON", schemas.StrategyStructural},
		{"Sign in", schemas.StrategyText},
		{"Add to cart", schemas.StrategyText},
		// A bare word that is not an HTML tag reads as visible text.
		{"Submit", schemas.StrategyText},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Infer(tc.selector), "selector %q", tc.selector)
	}
}

func TestNormalize_ResolvesAuto(t *testing.T) {
	got := Normalize("//a", schemas.StrategyAuto)
	assert.Equal(t, schemas.StrategyPath, got.Strategy)

	// An explicit strategy is preserved even when inference would disagree.
	got = Normalize("div", schemas.StrategyText)
	assert.Equal(t, schemas.StrategyText, got.Strategy)

	// An empty strategy behaves like auto.
	got = Normalize("#id", "")
	assert.Equal(t, schemas.StrategyStructural, got.Strategy)
}

func TestCompile_Structural(t *testing.T) {
	q, err := Compile(schemas.Target{Selector: "input[name='q']", Strategy: schemas.StrategyStructural})
	require.NoError(t, err)
	assert.False(t, q.XPath)
	assert.Equal(t, "input[name='q']", q.Expr)
}

func TestCompile_Path(t *testing.T) {
	q, err := Compile(schemas.Target{Selector: "//div[@id='x']", Strategy: schemas.StrategyPath})
	require.NoError(t, err)
	assert.True(t, q.XPath)
	assert.Equal(t, "//div[@id='x']", q.Expr)
}

func TestCompile_Text(t *testing.T) {
	q, err := Compile(schemas.Target{Selector: "Sign in", Strategy: schemas.StrategyText})
	require.NoError(t, err)
	assert.True(t, q.XPath)
	assert.Contains(t, q.Expr, "contains(normalize-space(.), 'Sign in')")
}

func TestCompile_Role(t *testing.T) {
	q, err := Compile(schemas.Target{Selector: "button[name='Submit']", Strategy: schemas.StrategyRole})
	require.NoError(t, err)
	assert.True(t, q.XPath)
	assert.Contains(t, q.Expr, `@role='button'`)
	assert.Contains(t, q.Expr, `'Submit'`)

	q, err = Compile(schemas.Target{Selector: "article", Strategy: schemas.StrategyRole})
	require.NoError(t, err)
	assert.Equal(t, `//*[@role='article']`, q.Expr)

	_, err = Compile(schemas.Target{Selector: "not a [role", Strategy: schemas.StrategyRole})
	assert.Error(t, err)
}

func TestXPathLiteral_Quoting(t *testing.T) {
	assert.Equal(t, `'plain'`, xpathLiteral("plain"))
	assert.Equal(t, `"it's"`, xpathLiteral("it's"))
	assert.Equal(t, `'say "hi"'`, xpathLiteral(`say "hi"`))
	// Mixed quotes fall back to concat().
	assert.Contains(t, xpathLiteral(`it's "x"`), "concat(")
}

func TestQueryJS(t *testing.T) {
	css := Query{Expr: "#main"}
	assert.Equal(t, `document.querySelector('#main')`, css.JS())

	xp := Query{Expr: "//div", XPath: true}
	assert.Contains(t, xp.JS(), "document.evaluate('//div'")
}
