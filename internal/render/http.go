package render

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/ScrapeBoard/internal/config"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// HTTPRenderer fetches pages with net/http. It cannot execute scripts,
// so it only suits sites that serve complete markup.
type HTTPRenderer struct {
	client *http.Client
	cfg    *config.RendererConfig
	logger *slog.Logger
}

// NewHTTPRenderer creates a plain HTTP renderer.
func NewHTTPRenderer(cfg *config.RendererConfig, logger *slog.Logger) (*HTTPRenderer, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.TLSInsecure,
		},
		DisableCompression: true, // We handle decompression ourselves (including brotli)
	}

	return &HTTPRenderer{
		client: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   cfg.Timeout,
		},
		cfg:    cfg,
		logger: logger.With("component", "http_renderer"),
	}, nil
}

// Render executes a GET request and returns the response markup.
func (r *HTTPRenderer) Render(ctx context.Context, rawURL string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &types.RenderError{URL: rawURL, Err: err}
	}

	req.Header.Set("User-Agent", r.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,de;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Connection", "keep-alive")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &types.RenderError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &types.RenderError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(snippet)),
		}
	}

	var reader io.Reader = resp.Body
	if r.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, r.cfg.MaxBodySize)
	}

	reader, err = decompressReader(resp, reader)
	if err != nil {
		return nil, &types.RenderError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &types.RenderError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	if len(body) == 0 {
		return nil, &types.RenderError{URL: rawURL, StatusCode: resp.StatusCode, Err: types.ErrEmptyResponse}
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	r.logger.Debug("http render complete",
		"url", rawURL,
		"status", resp.StatusCode,
		"size", len(body),
		"duration", time.Since(start),
	)

	return NewDocument(finalURL, body), nil
}

// Name returns the renderer mode identifier.
func (r *HTTPRenderer) Name() string { return ModeHTTP }

// Close releases resources.
func (r *HTTPRenderer) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

func (r *HTTPRenderer) userAgent() string {
	if r.cfg.UserAgent != "" {
		return r.cfg.UserAgent
	}
	return "ScrapeBoard/" + config.Version
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
