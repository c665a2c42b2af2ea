package history

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	j, err := Open(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	entries := []Entry{
		{RunID: "run-1", URL: "https://example.com/item/1", CanonicalURL: "https://example.com/item/1", Host: "example.com", Status: types.StatusCaptured, RecordID: "11"},
		{RunID: "run-2", URL: "https://example.com/item/2?ref=x", CanonicalURL: "https://example.com/item/2", Host: "example.com", Status: types.StatusDuplicate, RecordID: "12"},
		{RunID: "run-3", URL: "https://other.example/item", CanonicalURL: "", Host: "other.example", Status: types.StatusUnsupported, Error: "no site configuration for host"},
	}
	for _, e := range entries {
		if err := j.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	// Newest first.
	if got[0].RunID != "run-3" || got[2].RunID != "run-1" {
		t.Errorf("order = %s, %s, %s", got[0].RunID, got[1].RunID, got[2].RunID)
	}
	if got[0].Status != types.StatusUnsupported {
		t.Errorf("status = %q", got[0].Status)
	}
	if got[0].Error != "no site configuration for host" {
		t.Errorf("error = %q", got[0].Error)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("CreatedAt was not filled in")
	}
}

func TestRecentLimit(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := Entry{RunID: "run", URL: "https://example.com", Host: "example.com", Status: types.StatusCaptured}
		if err := j.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d entries, want 2", len(got))
	}
}

func TestCountByStatus(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	statuses := []types.CaptureStatus{
		types.StatusCaptured, types.StatusCaptured, types.StatusDuplicate, types.StatusFailed,
	}
	for _, s := range statuses {
		e := Entry{RunID: "run", URL: "https://example.com", Host: "example.com", Status: s}
		if err := j.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	counts, err := j.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[types.StatusCaptured] != 2 {
		t.Errorf("captured = %d, want 2", counts[types.StatusCaptured])
	}
	if counts[types.StatusDuplicate] != 1 {
		t.Errorf("duplicate = %d, want 1", counts[types.StatusDuplicate])
	}
	if counts[types.StatusFailed] != 1 {
		t.Errorf("failed = %d, want 1", counts[types.StatusFailed])
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	e := Entry{RunID: "run-ts", URL: "https://example.com", Host: "example.com", Status: types.StatusCaptured, CreatedAt: at}
	if err := j.Record(ctx, e); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := j.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if !got[0].CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", got[0].CreatedAt, at)
	}
}
