// Package service orchestrates a capture run end to end: site lookup,
// URL canonicalization, duplicate check, page render, field extraction,
// payload binding, and the final store insert.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/uuid/v5"

	"github.com/IshaanNene/ScrapeBoard/internal/canonical"
	"github.com/IshaanNene/ScrapeBoard/internal/dedup"
	"github.com/IshaanNene/ScrapeBoard/internal/extract"
	"github.com/IshaanNene/ScrapeBoard/internal/history"
	"github.com/IshaanNene/ScrapeBoard/internal/identity"
	"github.com/IshaanNene/ScrapeBoard/internal/observability"
	"github.com/IshaanNene/ScrapeBoard/internal/payload"
	"github.com/IshaanNene/ScrapeBoard/internal/render"
	"github.com/IshaanNene/ScrapeBoard/internal/sites"
	"github.com/IshaanNene/ScrapeBoard/internal/store"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// CaptureRequest describes one page to capture.
type CaptureRequest struct {
	// URL is the page address as shared by the actor. It is rendered
	// as-is; only storage and duplicate checks use the canonical form.
	URL string `json:"url"`

	// Actor names who triggered the capture. Required only when the
	// site binds an actor field.
	Actor string `json:"actor,omitempty"`

	// Fields optionally overrides extracted values before storage.
	// Null values are ignored; unknown names are stored as given.
	Fields types.RawFields `json:"fields,omitempty"`
}

// Result is the terminal state of a capture or preview run.
type Result struct {
	RunID        string              `json:"run_id"`
	URL          string              `json:"url"`
	CanonicalURL string              `json:"canonical_url,omitempty"`
	Host         string              `json:"host,omitempty"`
	Site         string              `json:"site,omitempty"`
	Status       types.CaptureStatus `json:"status"`
	Fields       types.RawFields     `json:"fields,omitempty"`
	RecordID     string              `json:"record_id,omitempty"`
	DuplicateOf  string              `json:"duplicate_of,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// CheckResult is the outcome of a duplicate check without a render.
type CheckResult struct {
	URL          string `json:"url"`
	CanonicalURL string `json:"canonical_url"`
	Host         string `json:"host"`
	Site         string `json:"site"`
	Duplicate    bool   `json:"duplicate"`
	RecordID     string `json:"record_id,omitempty"`
}

// StatusReport summarizes service health for the status endpoint.
type StatusReport struct {
	Store      string                        `json:"store"`
	StoreOK    bool                          `json:"store_ok"`
	StoreError string                        `json:"store_error,omitempty"`
	Renderer   string                        `json:"renderer"`
	Sites      int                           `json:"sites"`
	History    map[types.CaptureStatus]int64 `json:"history,omitempty"`
	Metrics    map[string]int64              `json:"metrics"`
}

// Options wires the service's collaborators.
type Options struct {
	Registry  *sites.Registry
	Renderer  render.Renderer
	Store     store.Store
	Identity  identity.Resolver
	Journal   *history.Journal
	Metrics   *observability.Metrics
	SitesPath string
	Logger    *slog.Logger
}

// Service runs captures.
type Service struct {
	registry  *sites.Registry
	renderer  render.Renderer
	store     store.Store
	identity  identity.Resolver
	journal   *history.Journal
	metrics   *observability.Metrics
	extractor *extract.Extractor
	checker   *dedup.Checker
	sitesPath string
	logger    *slog.Logger
}

// New creates a capture service. Registry, Renderer, and Store are
// required; Identity, Journal, and Metrics may be nil.
func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}
	resolver := opts.Identity
	if resolver == nil {
		resolver = identity.Static{}
	}
	return &Service{
		registry:  opts.Registry,
		renderer:  opts.Renderer,
		store:     opts.Store,
		identity:  resolver,
		journal:   opts.Journal,
		metrics:   metrics,
		extractor: extract.New(logger),
		checker:   dedup.New(logger),
		sitesPath: opts.SitesPath,
		logger:    logger.With("component", "service"),
	}
}

// Capture runs the full flow for one page. The returned Result is
// always non-nil; a non-nil error classifies why the run did not store
// a record (errors.Is against types.ErrSiteNotSupported, ErrDuplicate,
// and friends).
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (*Result, error) {
	res := &Result{RunID: newRunID(), URL: req.URL}
	logger := s.logger.With("run_id", res.RunID, "url", req.URL)
	logger.Info("capture started", "actor", req.Actor)

	site, err := s.registry.Resolve(req.URL)
	if err != nil {
		if errors.Is(err, types.ErrSiteNotSupported) {
			res.Status = types.StatusUnsupported
		} else {
			res.Status = types.StatusFailed
		}
		return s.finish(ctx, res, err, logger)
	}
	res.Host = site.Host
	res.Site = site.Name
	res.CanonicalURL = canonical.Canonicalize(req.URL, site.CleanRule())

	// Checking before the render saves a page load on repeats.
	dupID, found, err := s.checker.Check(ctx, site, res.CanonicalURL, s.queryFn())
	if err != nil {
		res.Status = types.StatusFailed
		return s.finish(ctx, res, err, logger)
	}
	if found {
		res.Status = types.StatusDuplicate
		res.DuplicateOf = dupID
		return s.finish(ctx, res, fmt.Errorf("%w: record %s", types.ErrDuplicate, dupID), logger)
	}

	doc, err := s.renderPage(ctx, req.URL)
	if err != nil {
		res.Status = types.StatusFailed
		return s.finish(ctx, res, err, logger)
	}

	fields := s.extractor.Run(doc, site)
	if len(req.Fields) > 0 {
		fields = fields.MergeOver(req.Fields)
	}
	res.Fields = fields

	var actorID string
	if site.BindsActor() {
		actorID, err = s.identity.Resolve(req.Actor)
		if err != nil {
			res.Status = types.StatusFailed
			return s.finish(ctx, res, err, logger)
		}
	}

	p, err := payload.Build(site, fields, res.CanonicalURL, actorID)
	if err != nil {
		res.Status = types.StatusFailed
		return s.finish(ctx, res, err, logger)
	}

	recordID, err := s.store.Insert(ctx, p)
	if err != nil {
		res.Status = types.StatusFailed
		return s.finish(ctx, res, err, logger)
	}
	s.metrics.StoreInserts.Add(1)

	res.Status = types.StatusCaptured
	res.RecordID = recordID
	return s.finish(ctx, res, nil, logger)
}

// Preview renders and extracts without touching the store. Field
// overrides, duplicate checks, and identity resolution do not apply.
func (s *Service) Preview(ctx context.Context, rawURL string) (*Result, error) {
	res := &Result{RunID: newRunID(), URL: rawURL}
	logger := s.logger.With("run_id", res.RunID, "url", rawURL)
	logger.Info("preview started")

	site, err := s.registry.Resolve(rawURL)
	if err != nil {
		if errors.Is(err, types.ErrSiteNotSupported) {
			res.Status = types.StatusUnsupported
		} else {
			res.Status = types.StatusFailed
		}
		return s.finish(ctx, res, err, logger)
	}
	res.Host = site.Host
	res.Site = site.Name
	res.CanonicalURL = canonical.Canonicalize(rawURL, site.CleanRule())

	doc, err := s.renderPage(ctx, rawURL)
	if err != nil {
		res.Status = types.StatusFailed
		return s.finish(ctx, res, err, logger)
	}

	res.Fields = s.extractor.Run(doc, site)
	res.Status = types.StatusPreviewed
	return s.finish(ctx, res, nil, logger)
}

// Check resolves and canonicalizes a URL and runs the duplicate check
// without rendering the page.
func (s *Service) Check(ctx context.Context, rawURL string) (*CheckResult, error) {
	site, err := s.registry.Resolve(rawURL)
	if err != nil {
		return nil, err
	}
	res := &CheckResult{
		URL:          rawURL,
		CanonicalURL: canonical.Canonicalize(rawURL, site.CleanRule()),
		Host:         site.Host,
		Site:         site.Name,
	}
	dupID, found, err := s.checker.Check(ctx, site, res.CanonicalURL, s.queryFn())
	if err != nil {
		return nil, err
	}
	res.Duplicate = found
	res.RecordID = dupID
	return res, nil
}

// Status reports store reachability, site count, and counters.
func (s *Service) Status(ctx context.Context) *StatusReport {
	report := &StatusReport{
		Store:    s.store.Name(),
		StoreOK:  true,
		Renderer: s.renderer.Name(),
		Sites:    s.registry.Len(),
		Metrics:  s.metrics.Snapshot(),
	}
	if err := s.store.Ping(ctx); err != nil {
		report.StoreOK = false
		report.StoreError = err.Error()
	}
	if s.journal != nil {
		if counts, err := s.journal.CountByStatus(ctx); err == nil {
			report.History = counts
		}
	}
	return report
}

// Reload re-reads the site configuration file. The running set is kept
// when the new file fails to load.
func (s *Service) Reload() error {
	if s.sitesPath == "" {
		return fmt.Errorf("no site configuration path to reload from")
	}
	if err := s.registry.Reload(s.sitesPath); err != nil {
		return err
	}
	s.metrics.SiteReloads.Add(1)
	s.logger.Info("site configuration reloaded", "path", s.sitesPath, "sites", s.registry.Len())
	return nil
}

// Registry exposes the site registry for listing endpoints.
func (s *Service) Registry() *sites.Registry {
	return s.registry
}

// Metrics exposes the counters for the metrics endpoint.
func (s *Service) Metrics() *observability.Metrics {
	return s.metrics
}

// Journal exposes the capture journal; nil when history is disabled.
func (s *Service) Journal() *history.Journal {
	return s.journal
}

// Close releases the renderer, store, and journal.
func (s *Service) Close() error {
	var errs []error
	if err := s.renderer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("renderer: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("journal: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) renderPage(ctx context.Context, rawURL string) (*render.Document, error) {
	s.metrics.RendersTotal.Add(1)
	doc, err := s.renderer.Render(ctx, rawURL)
	if err != nil {
		s.metrics.RendersFailed.Add(1)
		return nil, err
	}
	return doc, nil
}

func (s *Service) queryFn() dedup.QueryFunc {
	return func(ctx context.Context, field, value string) ([]types.Record, error) {
		s.metrics.StoreQueries.Add(1)
		return s.store.QueryEqual(ctx, field, value)
	}
}

// finish records the terminal state in metrics, the journal, and the
// log, then returns the pair the caller hands out.
func (s *Service) finish(ctx context.Context, res *Result, err error, logger *slog.Logger) (*Result, error) {
	if err != nil {
		res.Error = err.Error()
	}
	s.metrics.RecordCapture(res.Status)

	if s.journal != nil {
		entry := history.Entry{
			RunID:        res.RunID,
			URL:          res.URL,
			CanonicalURL: res.CanonicalURL,
			Host:         res.Host,
			Status:       res.Status,
			RecordID:     res.RecordID,
			Error:        res.Error,
		}
		if jerr := s.journal.Record(ctx, entry); jerr != nil {
			logger.Warn("journal write failed", "error", jerr)
		}
	}

	if err != nil {
		logger.Warn("run finished", "status", res.Status, "error", err)
	} else {
		logger.Info("run finished", "status", res.Status, "record_id", res.RecordID)
	}
	return res, err
}

func newRunID() string {
	return uuid.Must(uuid.NewV4()).String()
}
