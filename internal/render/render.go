// Package render turns page URLs into parsed documents. The browser
// mode runs pages in headless Chromium so client-side markup is present
// before extraction; the http mode is a plain client for static sites
// and tests.
package render

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/ScrapeBoard/internal/config"
)

// Renderer modes accepted by New.
const (
	ModeBrowser = "browser"
	ModeHTTP    = "http"
)

// Renderer fetches and renders a single page.
type Renderer interface {
	// Render loads the page and returns its document. Failures come
	// back as *types.RenderError.
	Render(ctx context.Context, rawURL string) (*Document, error)

	// Name returns the renderer mode identifier.
	Name() string

	// Close releases renderer resources.
	Close() error
}

// New builds the renderer selected by cfg.Mode.
func New(cfg *config.RendererConfig, logger *slog.Logger) (Renderer, error) {
	switch cfg.Mode {
	case ModeBrowser:
		return NewBrowserRenderer(cfg, logger)
	case ModeHTTP:
		return NewHTTPRenderer(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown renderer mode %q (valid: browser, http)", cfg.Mode)
	}
}
