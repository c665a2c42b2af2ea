// Package dedup checks the record store for an existing capture of the
// same canonical URL before anything is inserted.
package dedup

import (
	"context"
	"log/slog"

	"github.com/IshaanNene/ScrapeBoard/internal/sites"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// QueryFunc runs an equality query against the record store.
type QueryFunc func(ctx context.Context, field, value string) ([]types.Record, error)

// Checker runs pre-insert duplicate queries.
type Checker struct {
	logger *slog.Logger
}

// New creates a Checker.
func New(logger *slog.Logger) *Checker {
	return &Checker{logger: logger.With("component", "dedup")}
}

// Check queries each duplicate-check field of the site for equality
// with the canonical URL; the first hit wins and its record ID is
// returned. A query failure propagates as an error, it never reads as
// "no duplicate". The check and a later insert are not atomic, so a
// record inserted in between slips through; the next capture of the
// same URL catches it.
func (c *Checker) Check(ctx context.Context, site *sites.SiteConfig, canonicalURL string, query QueryFunc) (string, bool, error) {
	for _, field := range site.DuplicateCheckFields() {
		records, err := query(ctx, field, canonicalURL)
		if err != nil {
			return "", false, err
		}
		if len(records) > 0 {
			c.logger.Info("duplicate found",
				"site", site.Host,
				"field", field,
				"record_id", records[0].ID,
			)
			return records[0].ID, true, nil
		}
	}
	return "", false, nil
}
