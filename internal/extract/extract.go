// Package extract runs a site's selector rules over a rendered page
// and normalizes the results into a raw field map.
package extract

import (
	"errors"
	"log/slog"

	"github.com/IshaanNene/ScrapeBoard/internal/normalize"
	"github.com/IshaanNene/ScrapeBoard/internal/render"
	"github.com/IshaanNene/ScrapeBoard/internal/selector"
	"github.com/IshaanNene/ScrapeBoard/internal/sites"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// Extractor executes selector rules and applies value normalization.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger.With("component", "extractor")}
}

// Run executes every selector rule of the site against the document, in
// deterministic field order. Fields are independent: a selector that
// matches nothing sets its field to null and the run continues, so one
// broken selector never costs the rest of the page. Run itself never
// fails; a page where nothing matches yields an all-null map.
func (e *Extractor) Run(doc *render.Document, site *sites.SiteConfig) types.RawFields {
	fields := types.NewRawFields()
	for _, name := range site.SelectorFields() {
		rule := site.Selectors[name]
		raw, err := selector.Extract(doc, rule)
		if err != nil {
			if errors.Is(err, types.ErrNoMatch) {
				e.logger.Debug("field missing", "site", site.Host, "field", name, "kind", rule.Kind)
			} else {
				e.logger.Warn("field extraction failed", "site", site.Host, "field", name, "error", err)
			}
			fields.Set(name, nil)
			continue
		}
		fields.Set(name, e.normalizeValue(site, name, raw))
	}
	return fields
}

// normalizeValue applies the binding's declared type. A numeric field
// that fails to parse keeps its trimmed raw text, so the value still
// reaches a human who can correct it downstream.
func (e *Extractor) normalizeValue(site *sites.SiteConfig, name, raw string) any {
	if binding, ok := site.Fields[name]; ok && binding.Type.Numeric() {
		if v, ok := normalize.Number(raw); ok {
			return v
		}
		e.logger.Warn("numeric field did not parse, keeping text",
			"site", site.Host, "field", name, "raw", raw)
	}
	return normalize.Text(raw)
}
