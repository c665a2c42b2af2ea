package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// Metrics tracks operational counters for the capture service.
type Metrics struct {
	// Capture outcomes
	CapturesTotal       atomic.Int64
	CapturesCaptured    atomic.Int64
	CapturesDuplicate   atomic.Int64
	CapturesUnsupported atomic.Int64
	CapturesFailed      atomic.Int64
	PreviewsTotal       atomic.Int64

	// Render metrics
	RendersTotal  atomic.Int64
	RendersFailed atomic.Int64

	// Store metrics
	StoreQueries atomic.Int64
	StoreInserts atomic.Int64

	// Config metrics
	SiteReloads atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// RecordCapture counts one finished capture run under its outcome.
func (m *Metrics) RecordCapture(status types.CaptureStatus) {
	m.CapturesTotal.Add(1)
	switch status {
	case types.StatusCaptured:
		m.CapturesCaptured.Add(1)
	case types.StatusDuplicate:
		m.CapturesDuplicate.Add(1)
	case types.StatusUnsupported:
		m.CapturesUnsupported.Add(1)
	case types.StatusFailed:
		m.CapturesFailed.Add(1)
	case types.StatusPreviewed:
		m.PreviewsTotal.Add(1)
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"scrapeboard_captures_total", "Total capture runs", m.CapturesTotal.Load()},
		{"scrapeboard_captures_captured_total", "Captures that stored a new record", m.CapturesCaptured.Load()},
		{"scrapeboard_captures_duplicate_total", "Captures stopped by duplicate detection", m.CapturesDuplicate.Load()},
		{"scrapeboard_captures_unsupported_total", "Captures of hosts with no site configuration", m.CapturesUnsupported.Load()},
		{"scrapeboard_captures_failed_total", "Captures that failed", m.CapturesFailed.Load()},
		{"scrapeboard_previews_total", "Preview runs", m.PreviewsTotal.Load()},
		{"scrapeboard_renders_total", "Total page renders", m.RendersTotal.Load()},
		{"scrapeboard_renders_failed_total", "Failed page renders", m.RendersFailed.Load()},
		{"scrapeboard_store_queries_total", "Duplicate-check queries against the store", m.StoreQueries.Load()},
		{"scrapeboard_store_inserts_total", "Records inserted into the store", m.StoreInserts.Load()},
		{"scrapeboard_site_reloads_total", "Site configuration reloads", m.SiteReloads.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"captures_total":       m.CapturesTotal.Load(),
		"captures_captured":    m.CapturesCaptured.Load(),
		"captures_duplicate":   m.CapturesDuplicate.Load(),
		"captures_unsupported": m.CapturesUnsupported.Load(),
		"captures_failed":      m.CapturesFailed.Load(),
		"previews_total":       m.PreviewsTotal.Load(),
		"renders_total":        m.RendersTotal.Load(),
		"renders_failed":       m.RendersFailed.Load(),
		"store_queries":        m.StoreQueries.Load(),
		"store_inserts":        m.StoreInserts.Load(),
		"site_reloads":         m.SiteReloads.Load(),
	}
}
