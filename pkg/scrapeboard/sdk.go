// Package scrapeboard provides a public SDK for embedding ScrapeBoard
// as a library.
//
// Example usage:
//
//	board, err := scrapeboard.New(
//	    scrapeboard.WithSites("./configs/sites.yaml"),
//	    scrapeboard.WithHTTPRenderer(),
//	    scrapeboard.WithNocoDB("http://localhost:8080", "xc-token", "listings"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer board.Close()
//
//	res, err := board.CaptureURL(ctx, "https://www.example.com/expose/123", "heiner")
//	if errors.Is(err, scrapeboard.ErrDuplicate) {
//	    fmt.Println("already captured as record", res.DuplicateOf)
//	}
package scrapeboard

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/ScrapeBoard/internal/config"
	"github.com/IshaanNene/ScrapeBoard/internal/history"
	"github.com/IshaanNene/ScrapeBoard/internal/identity"
	"github.com/IshaanNene/ScrapeBoard/internal/render"
	"github.com/IshaanNene/ScrapeBoard/internal/service"
	"github.com/IshaanNene/ScrapeBoard/internal/sites"
	"github.com/IshaanNene/ScrapeBoard/internal/store"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// Result and request types returned by the SDK.
type (
	Result         = service.Result
	CaptureRequest = service.CaptureRequest
	CheckResult    = service.CheckResult
	StatusReport   = service.StatusReport
)

// Sentinel errors a caller can test with errors.Is.
var (
	ErrSiteNotSupported   = types.ErrSiteNotSupported
	ErrDuplicate          = types.ErrDuplicate
	ErrIdentityUnresolved = types.ErrIdentityUnresolved
	ErrInvalidURL         = types.ErrInvalidURL
)

// Capture statuses carried in Result.Status.
const (
	StatusCaptured    = types.StatusCaptured
	StatusDuplicate   = types.StatusDuplicate
	StatusUnsupported = types.StatusUnsupported
	StatusFailed      = types.StatusFailed
	StatusPreviewed   = types.StatusPreviewed
)

// Board is the high-level API for using ScrapeBoard as a library.
type Board struct {
	cfg    *config.Config
	svc    *service.Service
	logger *slog.Logger
}

// Option configures a Board.
type Option func(*config.Config)

// WithSites sets the site configuration file.
func WithSites(path string) Option {
	return func(c *config.Config) { c.Sites.Path = path }
}

// WithIdentities sets the actor identity map file.
func WithIdentities(path string) Option {
	return func(c *config.Config) { c.Identity.Path = path }
}

// WithBrowserRenderer renders pages in headless Chromium.
func WithBrowserRenderer() Option {
	return func(c *config.Config) { c.Renderer.Mode = render.ModeBrowser }
}

// WithHTTPRenderer renders pages with a plain HTTP client.
func WithHTTPRenderer() Option {
	return func(c *config.Config) { c.Renderer.Mode = render.ModeHTTP }
}

// WithRendererTimeout bounds each page render.
func WithRendererTimeout(d time.Duration) Option {
	return func(c *config.Config) { c.Renderer.Timeout = d }
}

// WithUserAgent sets a custom User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *config.Config) { c.Renderer.UserAgent = ua }
}

// WithNocoDB stores records in a NocoDB table.
func WithNocoDB(baseURL, token, table string) Option {
	return func(c *config.Config) {
		c.Store.Backend = "nocodb"
		c.Store.NocoDB.BaseURL = baseURL
		c.Store.NocoDB.Token = token
		c.Store.NocoDB.Table = table
	}
}

// WithMongo stores records in a MongoDB collection.
func WithMongo(uri, database, collection string) Option {
	return func(c *config.Config) {
		c.Store.Backend = "mongo"
		c.Store.Mongo.URI = uri
		c.Store.Mongo.Database = database
		c.Store.Mongo.Collection = collection
	}
}

// WithPostgres stores records as JSONB rows in Postgres.
func WithPostgres(dsn, table string) Option {
	return func(c *config.Config) {
		c.Store.Backend = "postgres"
		c.Store.Postgres.DSN = dsn
		c.Store.Postgres.Table = table
	}
}

// WithFileStore stores records in a local JSON file; no database
// needed.
func WithFileStore(path string) Option {
	return func(c *config.Config) {
		c.Store.Backend = "file"
		c.Store.File.Path = path
	}
}

// WithHistory journals capture runs to a SQLite file. The SDK keeps no
// journal unless this is set.
func WithHistory(path string) Option {
	return func(c *config.Config) {
		c.History.Enabled = true
		c.History.Path = path
	}
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// New creates a Board with the given options.
func New(opts ...Option) (*Board, error) {
	cfg := config.DefaultConfig()
	cfg.History.Enabled = false
	for _, opt := range opts {
		opt(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	registry, err := sites.NewRegistryFromFile(cfg.Sites.Path)
	if err != nil {
		return nil, fmt.Errorf("load sites: %w", err)
	}

	renderer, err := render.New(&cfg.Renderer, logger)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	st, err := store.New(&cfg.Store, logger)
	if err != nil {
		renderer.Close()
		return nil, fmt.Errorf("create store: %w", err)
	}

	var resolver identity.Resolver = identity.Static{}
	if cfg.Identity.Path != "" {
		if fr, err := identity.NewFileResolver(cfg.Identity.Path, logger); err == nil {
			resolver = fr
		} else {
			logger.Warn("identity map not loaded", "path", cfg.Identity.Path, "error", err)
		}
	}

	var journal *history.Journal
	if cfg.History.Enabled {
		journal, err = history.Open(cfg.History.Path, logger)
		if err != nil {
			renderer.Close()
			st.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
	}

	svc := service.New(service.Options{
		Registry:  registry,
		Renderer:  renderer,
		Store:     st,
		Identity:  resolver,
		Journal:   journal,
		SitesPath: cfg.Sites.Path,
		Logger:    logger,
	})

	return &Board{cfg: cfg, svc: svc, logger: logger}, nil
}

// Capture runs the full capture flow for one request. On the duplicate
// path the returned error matches ErrDuplicate and the Result names the
// existing record, the way io.EOF accompanies a valid final read.
func (b *Board) Capture(ctx context.Context, req CaptureRequest) (*Result, error) {
	return b.svc.Capture(ctx, req)
}

// CaptureURL captures one page for the given actor.
func (b *Board) CaptureURL(ctx context.Context, rawURL, actor string) (*Result, error) {
	return b.svc.Capture(ctx, CaptureRequest{URL: rawURL, Actor: actor})
}

// Preview extracts fields without writing to the store.
func (b *Board) Preview(ctx context.Context, rawURL string) (*Result, error) {
	return b.svc.Preview(ctx, rawURL)
}

// Check reports whether a page was already captured.
func (b *Board) Check(ctx context.Context, rawURL string) (*CheckResult, error) {
	return b.svc.Check(ctx, rawURL)
}

// Status reports store reachability and counters.
func (b *Board) Status(ctx context.Context) *StatusReport {
	return b.svc.Status(ctx)
}

// Reload re-reads the site configuration file.
func (b *Board) Reload() error {
	return b.svc.Reload()
}

// Hosts returns the configured site hosts.
func (b *Board) Hosts() []string {
	return b.svc.Registry().Hosts()
}

// Close releases the renderer, store, and journal.
func (b *Board) Close() error {
	return b.svc.Close()
}
