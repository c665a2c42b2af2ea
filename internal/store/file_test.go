package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/IshaanNene/ScrapeBoard/internal/config"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

func newTestFileStore(t *testing.T, path string) *FileStore {
	t.Helper()
	s, err := NewFileStore(&config.FileStoreConfig{Path: path}, testLogger())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func TestFileStoreInsertAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	s := newTestFileStore(t, path)
	ctx := context.Background()

	id, err := s.Insert(ctx, types.Payload{
		"Title":    "Flat",
		"WarmRent": 1234.56,
		"Link":     "https://example.com/item/42",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id != "1" {
		t.Errorf("id = %q, want %q", id, "1")
	}

	records, err := s.QueryEqual(ctx, "Link", "https://example.com/item/42")
	if err != nil {
		t.Fatalf("QueryEqual: %v", err)
	}
	if len(records) != 1 || records[0].ID != "1" {
		t.Fatalf("records = %v", records)
	}

	records, err = s.QueryEqual(ctx, "Link", "https://example.com/other")
	if err != nil {
		t.Fatalf("QueryEqual: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records for an unknown URL", len(records))
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	ctx := context.Background()

	s := newTestFileStore(t, path)
	if _, err := s.Insert(ctx, types.Payload{"Link": "https://example.com/item/1"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.Insert(ctx, types.Payload{"Link": "https://example.com/item/2"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A fresh store over the same file sees the old records and keeps
	// assigning fresh ids after them.
	s2 := newTestFileStore(t, path)
	records, err := s2.QueryEqual(ctx, "Link", "https://example.com/item/2")
	if err != nil {
		t.Fatalf("QueryEqual: %v", err)
	}
	if len(records) != 1 || records[0].ID != "2" {
		t.Fatalf("records = %v", records)
	}

	id, err := s2.Insert(ctx, types.Payload{"Link": "https://example.com/item/3"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id != "3" {
		t.Errorf("id after reopen = %q, want %q", id, "3")
	}
}

func TestFileStoreQueryByNumericValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	s := newTestFileStore(t, path)
	ctx := context.Background()

	if _, err := s.Insert(ctx, types.Payload{"WarmRent": 850.0}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	records, err := s.QueryEqual(ctx, "WarmRent", "850")
	if err != nil {
		t.Fatalf("QueryEqual: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
}

func TestFileStoreCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "records.json")
	s := newTestFileStore(t, path)

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	_, err := NewFileStore(&config.FileStoreConfig{Path: path}, testLogger())
	if err == nil {
		t.Fatal("NewFileStore accepted a corrupt file")
	}
	if !strings.Contains(err.Error(), "parse store file") {
		t.Errorf("error = %v", err)
	}
}
