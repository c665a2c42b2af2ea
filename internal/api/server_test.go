package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/IshaanNene/ScrapeBoard/internal/config"
	"github.com/IshaanNene/ScrapeBoard/internal/identity"
	"github.com/IshaanNene/ScrapeBoard/internal/render"
	"github.com/IshaanNene/ScrapeBoard/internal/service"
	"github.com/IshaanNene/ScrapeBoard/internal/sites"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

const flatPage = `<!DOCTYPE html>
<html><body>
  <h1 class="title">Bright two-room flat</h1>
  <span id="warm-rent">1.234,56 &euro;</span>
</body></html>`

const sitesYAML = `sites:
  flats.example.org:
    name: Example Flats
    selectors:
      title:
        kind: css
        value: "h1.title"
      warm_rent:
        kind: id
        value: "warm-rent"
    fields:
      title:
        field: Title
      warm_rent:
        field: WarmRent
        type: currency
      url_address:
        field: Link
        source: url
        duplicate_check: true
      found_by:
        field: FoundBy
        source: actor
`

type fakeRenderer struct{ html string }

func (f *fakeRenderer) Render(ctx context.Context, rawURL string) (*render.Document, error) {
	return render.NewDocument(rawURL, []byte(f.html)), nil
}
func (f *fakeRenderer) Name() string { return "fake" }
func (f *fakeRenderer) Close() error { return nil }

type fakeStore struct {
	records []types.Record
	nextID  int
}

func (f *fakeStore) QueryEqual(ctx context.Context, field, value string) ([]types.Record, error) {
	var out []types.Record
	for _, r := range f.records {
		if fmt.Sprintf("%v", r.Fields[field]) == value {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) Insert(ctx context.Context, p types.Payload) (string, error) {
	f.nextID++
	id := strconv.Itoa(f.nextID)
	f.records = append(f.records, types.Record{ID: id, Fields: p})
	return id, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Name() string                   { return "fake" }
func (f *fakeStore) Close() error                   { return nil }

func newTestServer(t *testing.T) (*Server, *fakeStore) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sites.yaml")
	if err := os.WriteFile(path, []byte(sitesYAML), 0o644); err != nil {
		t.Fatalf("write sites file: %v", err)
	}
	reg, err := sites.NewRegistryFromFile(path)
	if err != nil {
		t.Fatalf("load sites: %v", err)
	}

	st := &fakeStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(service.Options{
		Registry:  reg,
		Renderer:  &fakeRenderer{html: flatPage},
		Store:     st,
		Identity:  identity.Static{"heiner": "usr_123"},
		SitesPath: path,
		Logger:    logger,
	})

	cfg := config.DefaultConfig()
	return NewServer(&cfg.Server, svc, logger), st
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) *service.Result {
	t.Helper()
	var res service.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return &res
}

func TestCaptureEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/capture", map[string]string{
		"url":   "https://flats.example.org/expose/12345?ref=x",
		"actor": "heiner",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	res := decodeResult(t, rec)
	if res.Status != types.StatusCaptured {
		t.Errorf("capture status = %q", res.Status)
	}
	if res.RecordID == "" {
		t.Error("record_id missing")
	}
	if res.Fields["warm_rent"] != 1234.56 {
		t.Errorf("warm_rent = %v", res.Fields["warm_rent"])
	}
}

func TestCaptureDuplicateConflict(t *testing.T) {
	s, st := newTestServer(t)
	st.records = append(st.records, types.Record{
		ID: "7", Fields: map[string]any{"Link": "https://flats.example.org/expose/12345"},
	})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/capture", map[string]string{
		"url":   "https://flats.example.org/expose/12345",
		"actor": "heiner",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	res := decodeResult(t, rec)
	if res.Status != types.StatusDuplicate || res.DuplicateOf != "7" {
		t.Errorf("status = %q, duplicate_of = %q", res.Status, res.DuplicateOf)
	}
}

func TestCaptureUnsupportedHost(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/capture", map[string]string{
		"url": "https://unknown.example/item/1",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	res := decodeResult(t, rec)
	if res.Status != types.StatusUnsupported {
		t.Errorf("status = %q", res.Status)
	}
}

func TestCaptureActorFromHeader(t *testing.T) {
	s, st := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"url": "https://flats.example.org/expose/9"})
	req := httptest.NewRequest(http.MethodPost, "/api/capture", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "heiner")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if st.records[0].Fields["FoundBy"] != "usr_123" {
		t.Errorf("FoundBy = %v", st.records[0].Fields["FoundBy"])
	}
}

func TestCaptureRequiresURL(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/capture", map[string]string{"actor": "heiner"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	s, st := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/preview", map[string]string{
		"url": "https://flats.example.org/expose/12345",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	res := decodeResult(t, rec)
	if res.Status != types.StatusPreviewed {
		t.Errorf("status = %q", res.Status)
	}
	if res.Fields["title"] != "Bright two-room flat" {
		t.Errorf("title = %v", res.Fields["title"])
	}
	if len(st.records) != 0 {
		t.Error("preview stored a record")
	}
}

func TestSitesEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/sites", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var infos []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&infos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("got %d sites, want 1", len(infos))
	}
	if infos[0]["host"] != "flats.example.org" {
		t.Errorf("host = %v", infos[0]["host"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var report service.StatusReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !report.StoreOK || report.Sites != 1 {
		t.Errorf("store_ok = %v, sites = %d", report.StoreOK, report.Sites)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	doJSON(t, s.Handler(), http.MethodPost, "/api/capture", map[string]string{
		"url":   "https://flats.example.org/expose/1",
		"actor": "heiner",
	})

	rec := doJSON(t, s.Handler(), http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	text := rec.Body.String()
	if !strings.Contains(text, "scrapeboard_captures_total 1") {
		t.Errorf("metrics missing capture counter:\n%s", text)
	}
}

func TestHistoryDisabled(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/history", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestReloadEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/reload", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["sites"] != float64(1) {
		t.Errorf("sites = %v", body["sites"])
	}
}
