package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/IshaanNene/ScrapeBoard/internal/config"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// NocoDBStore stores records in a NocoDB table through the v2 REST API.
type NocoDBStore struct {
	client  *http.Client
	baseURL string
	token   string
	table   string
	logger  *slog.Logger
}

// NewNocoDBStore creates a NocoDB-backed store. It does not contact the
// server; use Ping to verify connectivity.
func NewNocoDBStore(cfg *config.NocoDBConfig, logger *slog.Logger) (*NocoDBStore, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("nocodb base URL is required")
	}
	if cfg.Table == "" {
		return nil, fmt.Errorf("nocodb table is required")
	}
	return &NocoDBStore{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		table:   cfg.Table,
		logger:  logger.With("component", "nocodb_store"),
	}, nil
}

func (s *NocoDBStore) recordsURL() string {
	return fmt.Sprintf("%s/api/v2/tables/%s/records", s.baseURL, url.PathEscape(s.table))
}

func (s *NocoDBStore) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("xc-token", s.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// QueryEqual lists records where field equals value, using NocoDB's
// where=(field,eq,value) filter syntax.
func (s *NocoDBStore) QueryEqual(ctx context.Context, field, value string) ([]types.Record, error) {
	q := url.Values{}
	q.Set("where", fmt.Sprintf("(%s,eq,%s)", field, value))
	q.Set("limit", "25")

	req, err := s.newRequest(ctx, http.MethodGet, s.recordsURL()+"?"+q.Encode(), nil)
	if err != nil {
		return nil, s.wrap("query", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, s.wrap("query", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.wrap("query", statusError(resp))
	}

	var body struct {
		List []map[string]any `json:"list"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, s.wrap("query", fmt.Errorf("decode response: %w", err))
	}

	records := make([]types.Record, 0, len(body.List))
	for _, fields := range body.List {
		records = append(records, types.Record{ID: recordID(fields), Fields: fields})
	}
	return records, nil
}

// Insert creates a record and returns the identifier NocoDB assigned.
func (s *NocoDBStore) Insert(ctx context.Context, p types.Payload) (string, error) {
	buf, err := json.Marshal(p)
	if err != nil {
		return "", s.wrap("insert", fmt.Errorf("encode payload: %w", err))
	}

	req, err := s.newRequest(ctx, http.MethodPost, s.recordsURL(), bytes.NewReader(buf))
	if err != nil {
		return "", s.wrap("insert", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", s.wrap("insert", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", s.wrap("insert", statusError(resp))
	}

	var created map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", s.wrap("insert", fmt.Errorf("decode response: %w", err))
	}
	id := recordID(created)
	if id == "" {
		s.logger.Warn("insert response carried no record id")
	}
	return id, nil
}

// Ping lists a single record to verify the table is reachable.
func (s *NocoDBStore) Ping(ctx context.Context) error {
	req, err := s.newRequest(ctx, http.MethodGet, s.recordsURL()+"?limit=1", nil)
	if err != nil {
		return s.wrap("ping", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return s.wrap("ping", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return s.wrap("ping", statusError(resp))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (s *NocoDBStore) Name() string { return "nocodb" }

func (s *NocoDBStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *NocoDBStore) wrap(op string, err error) error {
	return &types.StoreError{Backend: "nocodb", Op: op, Err: err}
}

// statusError reads a short body snippet so API error messages survive
// into the log.
func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(snippet))
	if msg == "" {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
}
