package scrapeboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const listingPage = `<!DOCTYPE html>
<html>
<body>
  <h1 class="title">Bright two-room flat</h1>
  <span id="warm-rent">1.234,56 &euro;</span>
</body>
</html>`

// nocoFake is an in-memory stand-in for the NocoDB records API.
type nocoFake struct {
	mu      sync.Mutex
	records []map[string]any
}

func (f *nocoFake) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xc-token") != "test-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/api/v2/tables/listings/records" {
			http.NotFound(w, r)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodGet:
			list := f.records
			if where := r.URL.Query().Get("where"); where != "" {
				field, value, ok := parseWhere(where)
				if !ok {
					http.Error(w, "bad where clause", http.StatusBadRequest)
					return
				}
				list = nil
				for _, rec := range f.records {
					if fmt.Sprintf("%v", rec[field]) == value {
						list = append(list, rec)
					}
				}
			}
			if list == nil {
				list = []map[string]any{}
			}
			json.NewEncoder(w).Encode(map[string]any{"list": list})
		case http.MethodPost:
			var rec map[string]any
			if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
				http.Error(w, "bad body", http.StatusBadRequest)
				return
			}
			rec["Id"] = len(f.records) + 1
			f.records = append(f.records, rec)
			json.NewEncoder(w).Encode(map[string]any{"Id": rec["Id"]})
		default:
			http.Error(w, "unsupported", http.StatusMethodNotAllowed)
		}
	})
}

// parseWhere unpacks "(field,eq,value)".
func parseWhere(where string) (field, value string, ok bool) {
	where = strings.TrimPrefix(where, "(")
	where = strings.TrimSuffix(where, ")")
	parts := strings.SplitN(where, ",", 3)
	if len(parts) != 3 || parts[1] != "eq" {
		return "", "", false
	}
	return parts[0], parts[2], true
}

func writeConfigFiles(t *testing.T) (sitesPath, identitiesPath string) {
	t.Helper()
	dir := t.TempDir()

	sitesYAML := `sites:
  127.0.0.1:
    name: Local Test
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
	sitesPath = filepath.Join(dir, "sites.yaml")
	if err := os.WriteFile(sitesPath, []byte(sitesYAML), 0o644); err != nil {
		t.Fatalf("write sites file: %v", err)
	}

	identitiesPath = filepath.Join(dir, "identities.yaml")
	if err := os.WriteFile(identitiesPath, []byte("heiner: usr_123\n"), 0o644); err != nil {
		t.Fatalf("write identities file: %v", err)
	}
	return sitesPath, identitiesPath
}

func newTestBoard(t *testing.T) (*Board, *nocoFake, *httptest.Server) {
	t.Helper()

	pageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, listingPage)
	}))
	t.Cleanup(pageSrv.Close)

	noco := &nocoFake{}
	nocoSrv := httptest.NewServer(noco.handler())
	t.Cleanup(nocoSrv.Close)

	sitesPath, identitiesPath := writeConfigFiles(t)

	board, err := New(
		WithSites(sitesPath),
		WithIdentities(identitiesPath),
		WithHTTPRenderer(),
		WithNocoDB(nocoSrv.URL, "test-token", "listings"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { board.Close() })

	return board, noco, pageSrv
}

func TestCaptureEndToEnd(t *testing.T) {
	board, noco, pageSrv := newTestBoard(t)
	ctx := context.Background()

	res, err := board.CaptureURL(ctx, pageSrv.URL+"/expose/123?utm_source=mail", "heiner")
	if err != nil {
		t.Fatalf("CaptureURL: %v", err)
	}
	if res.Status != StatusCaptured {
		t.Fatalf("status = %q", res.Status)
	}
	if res.RecordID != "1" {
		t.Errorf("record id = %q", res.RecordID)
	}

	if len(noco.records) != 1 {
		t.Fatalf("stored %d records, want 1", len(noco.records))
	}
	rec := noco.records[0]
	if rec["Title"] != "Bright two-room flat" {
		t.Errorf("Title = %v", rec["Title"])
	}
	if rec["WarmRent"] != 1234.56 {
		t.Errorf("WarmRent = %v", rec["WarmRent"])
	}
	if rec["FoundBy"] != "usr_123" {
		t.Errorf("FoundBy = %v", rec["FoundBy"])
	}
	link, _ := rec["Link"].(string)
	if strings.Contains(link, "utm_source") {
		t.Errorf("stored link kept its query: %q", link)
	}
}

func TestCaptureDuplicateEndToEnd(t *testing.T) {
	board, _, pageSrv := newTestBoard(t)
	ctx := context.Background()

	if _, err := board.CaptureURL(ctx, pageSrv.URL+"/expose/123", "heiner"); err != nil {
		t.Fatalf("first capture: %v", err)
	}

	// Same page with tracking params canonicalizes to the same record.
	res, err := board.CaptureURL(ctx, pageSrv.URL+"/expose/123?ref=newsletter", "heiner")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	if res.Status != StatusDuplicate || res.DuplicateOf != "1" {
		t.Errorf("status = %q, duplicate_of = %q", res.Status, res.DuplicateOf)
	}
}

func TestPreviewEndToEnd(t *testing.T) {
	board, noco, pageSrv := newTestBoard(t)

	res, err := board.Preview(context.Background(), pageSrv.URL+"/expose/9")
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if res.Status != StatusPreviewed {
		t.Errorf("status = %q", res.Status)
	}
	if res.Fields["warm_rent"] != 1234.56 {
		t.Errorf("warm_rent = %v", res.Fields["warm_rent"])
	}
	if len(noco.records) != 0 {
		t.Error("preview stored a record")
	}
}

func TestCheckEndToEnd(t *testing.T) {
	board, _, pageSrv := newTestBoard(t)
	ctx := context.Background()

	res, err := board.Check(ctx, pageSrv.URL+"/expose/55")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Duplicate {
		t.Error("fresh URL reported as duplicate")
	}

	if _, err := board.CaptureURL(ctx, pageSrv.URL+"/expose/55", "heiner"); err != nil {
		t.Fatalf("capture: %v", err)
	}

	res, err = board.Check(ctx, pageSrv.URL+"/expose/55")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Duplicate {
		t.Error("captured URL not reported as duplicate")
	}
}

func TestCaptureUnsupportedEndToEnd(t *testing.T) {
	board, _, _ := newTestBoard(t)

	_, err := board.CaptureURL(context.Background(), "https://unknown.example/item/1", "heiner")
	if !errors.Is(err, ErrSiteNotSupported) {
		t.Fatalf("err = %v, want ErrSiteNotSupported", err)
	}
}
