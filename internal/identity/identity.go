// Package identity resolves capturing actors to the identity stored
// with their records. Authentication happens elsewhere; this package
// only answers "what does this login look like in the record store".
package identity

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// Resolver maps an actor login to an external identity.
type Resolver interface {
	Resolve(actor string) (string, error)
}

// Static resolves from a fixed map. Logins compare lower-cased.
type Static map[string]string

// Resolve implements Resolver.
func (s Static) Resolve(actor string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(actor))
	if key == "" {
		return "", fmt.Errorf("%w: empty actor", types.ErrIdentityUnresolved)
	}
	id, ok := s[key]
	if !ok || id == "" {
		return "", fmt.Errorf("%w: %s", types.ErrIdentityUnresolved, key)
	}
	return id, nil
}

// FileResolver resolves from a map file of login -> identity. The file
// is a flat YAML or JSON object, so existing user maps load unchanged.
type FileResolver struct {
	mu      sync.RWMutex
	entries Static
	logger  *slog.Logger
}

// NewFileResolver loads the map file at path.
func NewFileResolver(path string, logger *slog.Logger) (*FileResolver, error) {
	entries, err := loadEntries(path)
	if err != nil {
		return nil, err
	}
	r := &FileResolver{
		entries: entries,
		logger:  logger.With("component", "identity"),
	}
	r.logger.Info("identity map loaded", "path", path, "entries", len(entries))
	return r, nil
}

// Resolve implements Resolver.
func (r *FileResolver) Resolve(actor string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries.Resolve(actor)
}

// Reload re-reads the map file. On error the current map stays.
func (r *FileResolver) Reload(path string) error {
	entries, err := loadEntries(path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.entries = entries
	r.mu.Unlock()
	r.logger.Info("identity map reloaded", "path", path, "entries", len(entries))
	return nil
}

// loadEntries parses the map file. JSON is a YAML subset, so one
// unmarshal covers both formats.
func loadEntries(path string) (Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity map: %w", err)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse identity map: %w", err)
	}
	entries := make(Static, len(raw))
	for login, id := range raw {
		entries[strings.ToLower(strings.TrimSpace(login))] = strings.TrimSpace(id)
	}
	return entries, nil
}
