// internal/selector/selector.go
package selector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/anuj123upadhyay/pagedriver/api/schemas"
)

// Query is a compiled selector ready for the browser layer: either a CSS
// expression handled by querySelector, or an XPath expression.
type Query struct {
	Expr  string
	XPath bool
}

// Option maps the query onto the matching chromedp query option.
func (q Query) Option() chromedp.QueryOption {
	if q.XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// JS returns an expression that resolves the query to an element (or null)
// in page context. Used by handlers that need to read or mutate element
// state beyond what the protocol-level queries cover.
func (q Query) JS() string {
	if q.XPath {
		return fmt.Sprintf(
			`document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`,
			jsString(q.Expr))
	}
	return fmt.Sprintf(`document.querySelector(%s)`, jsString(q.Expr))
}

// htmlTags covers the element tokens the auto heuristic recognizes. A bare
// word outside this set is treated as visible text, not a tag selector.
var htmlTags = map[string]struct{}{
	"a": {}, "article": {}, "aside": {}, "body": {}, "button": {}, "canvas": {},
	"div": {}, "footer": {}, "form": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {},
	"h5": {}, "h6": {}, "header": {}, "html": {}, "iframe": {}, "img": {},
	"input": {}, "label": {}, "li": {}, "main": {}, "nav": {}, "ol": {},
	"option": {}, "p": {}, "section": {}, "select": {}, "span": {}, "table": {},
	"tbody": {}, "td": {}, "textarea": {}, "th": {}, "tr": {}, "ul": {},
}

// Infer applies the auto-strategy heuristic with its documented precedence:
// path selectors first, then anything that looks like a structural query,
// and visible text as the fallback.
func Infer(sel string) schemas.SelectorStrategy {
	if strings.HasPrefix(sel, "/") {
		return schemas.StrategyPath
	}
	if strings.ContainsAny(sel, "#.[") {
		return schemas.StrategyStructural
	}
	if _, ok := htmlTags[strings.ToLower(strings.TrimSpace(sel))]; ok {
		return schemas.StrategyStructural
	}
	return schemas.StrategyText
}

// Normalize returns a Target with a concrete strategy, resolving auto (or an
// unset strategy) through Infer.
func Normalize(sel string, strategy schemas.SelectorStrategy) schemas.Target {
	if strategy == "" || strategy == schemas.StrategyAuto {
		strategy = Infer(sel)
	}
	return schemas.Target{Selector: sel, Strategy: strategy}
}

// roleSelector matches "button" or "button[name='Submit']".
var roleSelector = regexp.MustCompile(`^\s*([A-Za-z]+)\s*(?:\[\s*name\s*=\s*['"](.*)['"]\s*\])?\s*$`)

// Compile turns a normalized target into an executable query.
func Compile(t schemas.Target) (Query, error) {
	switch t.Strategy {
	case schemas.StrategyStructural:
		return Query{Expr: t.Selector}, nil
	case schemas.StrategyPath:
		return Query{Expr: t.Selector, XPath: true}, nil
	case schemas.StrategyText:
		expr := fmt.Sprintf(`//*[contains(normalize-space(.), %s) and not(.//*[contains(normalize-space(.), %s)])]`,
			xpathLiteral(t.Selector), xpathLiteral(t.Selector))
		return Query{Expr: expr, XPath: true}, nil
	case schemas.StrategyRole:
		m := roleSelector.FindStringSubmatch(t.Selector)
		if m == nil {
			return Query{}, fmt.Errorf("invalid role selector %q (want role or role[name='...'])", t.Selector)
		}
		role, name := m[1], m[2]
		if name == "" {
			return Query{Expr: fmt.Sprintf(`//*[@role=%s]`, xpathLiteral(role)), XPath: true}, nil
		}
		expr := fmt.Sprintf(`//*[@role=%s and (contains(@aria-label, %s) or contains(normalize-space(.), %s))]`,
			xpathLiteral(role), xpathLiteral(name), xpathLiteral(name))
		return Query{Expr: expr, XPath: true}, nil
	case schemas.StrategyAuto:
		return Compile(Normalize(t.Selector, schemas.StrategyAuto))
	default:
		return Query{}, fmt.Errorf("unknown selector strategy %q", t.Strategy)
	}
}

// xpathLiteral renders s as an XPath string literal. XPath 1.0 has no escape
// sequences, so a string containing both quote kinds needs concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}
