package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/ScrapeBoard/internal/config"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// BrowserRenderer renders pages in headless Chromium via Rod. Listing
// sites assemble most of their markup client-side, so this is the
// default mode.
type BrowserRenderer struct {
	browser  *rod.Browser
	cfg      *config.RendererConfig
	logger   *slog.Logger
	pagePool chan *rod.Page
}

// NewBrowserRenderer launches a headless browser and connects to it.
func NewBrowserRenderer(cfg *config.RendererConfig, logger *slog.Logger) (*BrowserRenderer, error) {
	br := &BrowserRenderer{
		cfg:    cfg,
		logger: logger.With("component", "browser_renderer"),
	}

	launchURL, err := launchBrowser()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	br.browser = browser
	br.pagePool = make(chan *rod.Page, cfg.MaxPages)

	br.logger.Info("browser renderer ready",
		"max_pages", cfg.MaxPages,
		"stealth", cfg.Stealth,
	)

	return br, nil
}

// launchBrowser starts a Chromium instance with appropriate flags.
func launchBrowser() (string, error) {
	return launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Launch()
}

// Render navigates to the URL and returns the settled page markup.
func (br *BrowserRenderer) Render(ctx context.Context, rawURL string) (*Document, error) {
	start := time.Now()

	page, pooled, err := br.getPage()
	if err != nil {
		return nil, &types.RenderError{URL: rawURL, Err: err}
	}
	defer br.putPage(page, pooled)

	page = page.Context(ctx)

	if ua := br.cfg.UserAgent; ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			br.logger.Warn("failed to set user agent", "error", err)
		}
	}

	if err := page.Timeout(br.cfg.Timeout).Navigate(rawURL); err != nil {
		return nil, &types.RenderError{URL: rawURL, Err: err}
	}

	// Late-loading content settles here; a stability timeout is not
	// fatal because the page may simply keep polling.
	if br.cfg.StableWait > 0 {
		if err := page.Timeout(br.cfg.Timeout).WaitStable(br.cfg.StableWait); err != nil {
			br.logger.Warn("page stability timeout, continuing", "url", rawURL, "error", err)
		}
	}

	markup, err := page.HTML()
	if err != nil {
		return nil, &types.RenderError{URL: rawURL, Err: err}
	}

	finalURL := rawURL
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	br.logger.Debug("browser render complete",
		"url", rawURL,
		"final_url", finalURL,
		"size", len(markup),
		"duration", time.Since(start),
	)

	return NewDocument(finalURL, []byte(markup)), nil
}

// Name returns the renderer mode identifier.
func (br *BrowserRenderer) Name() string { return ModeBrowser }

// Close shuts down the browser and releases resources.
func (br *BrowserRenderer) Close() error {
	close(br.pagePool)
	for page := range br.pagePool {
		_ = page.Close()
	}
	if br.browser != nil {
		return br.browser.Close()
	}
	return nil
}

// getPage retrieves a page from the pool or creates a new one. Stealth
// pages carry injected patches and cannot be pooled, so they are
// created fresh per render.
func (br *BrowserRenderer) getPage() (*rod.Page, bool, error) {
	if br.cfg.Stealth {
		page, err := stealth.Page(br.browser)
		return page, false, err
	}
	select {
	case page := <-br.pagePool:
		return page, true, nil
	default:
		page, err := br.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
		return page, true, err
	}
}

// putPage returns a pooled page or closes a single-use one.
func (br *BrowserRenderer) putPage(page *rod.Page, pooled bool) {
	if page == nil {
		return
	}
	if !pooled {
		_ = page.Close()
		return
	}

	// Navigate to blank to free memory from the last page
	_ = page.Navigate("about:blank")

	select {
	case br.pagePool <- page:
	default:
		_ = page.Close() // Pool full, close the page
	}
}
