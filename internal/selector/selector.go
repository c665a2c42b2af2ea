// Package selector executes typed selector rules against rendered
// pages. Every rule resolves to at most one element: the first match in
// document order.
package selector

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"

	"github.com/IshaanNene/ScrapeBoard/internal/render"
	"github.com/IshaanNene/ScrapeBoard/internal/sites"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// Extract runs one selector rule against the document and returns the
// matched element's text with surrounding whitespace trimmed. Internal
// whitespace is preserved. A rule matching nothing returns an error
// wrapping types.ErrNoMatch; the engine never invents values.
func Extract(doc *render.Document, rule sites.SelectorRule) (string, error) {
	switch rule.Kind {
	case sites.KindID:
		// Exact attribute match, not a #-selector, so values with
		// CSS metacharacters still work.
		return firstText(doc, fmt.Sprintf(`[id=%q]`, rule.Value))
	case sites.KindClass:
		// ~= matches a whole token in the class list.
		return firstText(doc, fmt.Sprintf(`[class~=%q]`, rule.Value))
	case sites.KindCSS:
		return firstText(doc, rule.Value)
	case sites.KindXPath:
		return xpathText(doc, rule.Value)
	default:
		return "", fmt.Errorf("unknown selector kind %q", rule.Kind)
	}
}

func firstText(doc *render.Document, selector string) (string, error) {
	gq, err := doc.Doc()
	if err != nil {
		return "", err
	}
	sel := gq.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %s", types.ErrNoMatch, selector)
	}
	return strings.TrimSpace(sel.Text()), nil
}

func xpathText(doc *render.Document, expr string) (string, error) {
	root, err := doc.Root()
	if err != nil {
		return "", err
	}
	// Expressions are compile-checked at config load; an error here
	// means the expression cannot evaluate against this tree, which
	// reads as no match.
	node, err := htmlquery.Query(root, expr)
	if err != nil || node == nil {
		return "", fmt.Errorf("%w: %s", types.ErrNoMatch, expr)
	}
	return strings.TrimSpace(htmlquery.InnerText(node)), nil
}
