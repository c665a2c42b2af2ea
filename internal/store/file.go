package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/IshaanNene/ScrapeBoard/internal/config"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// FileStore keeps records in a local JSON file: an array of field maps,
// each carrying its Id. It exists for development and single-user
// setups without a database; every insert rewrites the file.
type FileStore struct {
	path    string
	mu      sync.Mutex
	records []types.Record
	nextID  int
	logger  *slog.Logger
}

// NewFileStore opens the record file at cfg.Path, creating parent
// directories as needed. A missing file is an empty store.
func NewFileStore(cfg *config.FileStoreConfig, logger *slog.Logger) (*FileStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	s := &FileStore{
		path:   cfg.Path,
		logger: logger.With("component", "file_store"),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	s.logger.Info("file store ready", "path", cfg.Path, "records", len(s.records))
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read store file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("parse store file %s: %w", s.path, err)
	}

	s.records = make([]types.Record, 0, len(rows))
	for _, fields := range rows {
		id := recordID(fields)
		s.records = append(s.records, types.Record{ID: id, Fields: fields})
		if n, err := strconv.Atoi(id); err == nil && n > s.nextID {
			s.nextID = n
		}
	}
	return nil
}

// QueryEqual scans the loaded records for field == value. Values
// compare by their string form, matching how they were written.
func (s *FileStore) QueryEqual(ctx context.Context, field, value string) ([]types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.Record
	for _, r := range s.records {
		v, ok := r.Fields[field]
		if !ok || v == nil {
			continue
		}
		if valueString(v) == value {
			out = append(out, r)
		}
	}
	return out, nil
}

// Insert appends a record and rewrites the file. The whole array is
// written to a temp file first so a crash never truncates the store.
func (s *FileStore) Insert(ctx context.Context, p types.Payload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := strconv.Itoa(s.nextID)

	fields := make(map[string]any, len(p)+1)
	fields["Id"] = s.nextID
	for k, v := range p {
		fields[k] = v
	}
	s.records = append(s.records, types.Record{ID: id, Fields: fields})

	if err := s.flush(); err != nil {
		s.records = s.records[:len(s.records)-1]
		s.nextID--
		return "", s.wrap("insert", err)
	}
	return id, nil
}

func (s *FileStore) flush() error {
	rows := make([]map[string]any, len(s.records))
	for i, r := range s.records {
		rows[i] = r.Fields
	}
	buf, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// Ping verifies the store directory is still writable.
func (s *FileStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return s.wrap("ping", err)
	}
	return nil
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) Close() error { return nil }

func (s *FileStore) wrap(op string, err error) error {
	return &types.StoreError{Backend: "file", Op: op, Err: err}
}

// valueString renders a field value the way JSON round-trips it, so
// queries see the same text regardless of load-vs-insert history.
func valueString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
