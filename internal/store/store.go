// Package store talks to the external record store the capture flow
// queries for duplicates and inserts into. One backend is active at a
// time; all of them speak the same small interface.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/IshaanNene/ScrapeBoard/internal/config"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// Store is the record store interface.
type Store interface {
	// QueryEqual returns records whose field equals value.
	QueryEqual(ctx context.Context, field, value string) ([]types.Record, error)

	// Insert writes a new record and returns its identifier.
	Insert(ctx context.Context, p types.Payload) (string, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Name returns the backend identifier.
	Name() string

	// Close releases backend resources.
	Close() error
}

// New builds the backend selected by cfg.Backend.
func New(cfg *config.StoreConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case "nocodb":
		return NewNocoDBStore(&cfg.NocoDB, logger)
	case "mongo":
		return NewMongoStore(&cfg.Mongo, logger)
	case "postgres":
		return NewPostgresStore(&cfg.Postgres, logger)
	case "file":
		return NewFileStore(&cfg.File, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q (valid: nocodb, mongo, postgres, file)", cfg.Backend)
	}
}

// recordID normalizes a backend's record identifier to a string.
func recordID(fields map[string]any) string {
	for _, key := range []string{"Id", "id", "ID"} {
		v, ok := fields[key]
		if !ok {
			continue
		}
		switch id := v.(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64)
		case int64:
			return strconv.FormatInt(id, 10)
		case int:
			return strconv.Itoa(id)
		}
	}
	return ""
}
