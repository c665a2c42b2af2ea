package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if cfg.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}

	if cfg.Renderer.Mode != "browser" && cfg.Renderer.Mode != "http" {
		return fmt.Errorf("renderer.mode must be 'browser' or 'http', got %q", cfg.Renderer.Mode)
	}
	if cfg.Renderer.Timeout <= 0 {
		return fmt.Errorf("renderer.timeout must be > 0")
	}
	if cfg.Renderer.StableWait < 0 {
		return fmt.Errorf("renderer.stable_wait must be >= 0")
	}
	if cfg.Renderer.MaxPages < 1 {
		return fmt.Errorf("renderer.max_pages must be >= 1, got %d", cfg.Renderer.MaxPages)
	}
	if cfg.Renderer.MaxBodySize <= 0 {
		return fmt.Errorf("renderer.max_body_size must be > 0")
	}

	switch cfg.Store.Backend {
	case "nocodb":
		if cfg.Store.NocoDB.BaseURL == "" {
			return fmt.Errorf("store.nocodb.base_url is required")
		}
		if _, err := url.Parse(cfg.Store.NocoDB.BaseURL); err != nil {
			return fmt.Errorf("invalid store.nocodb.base_url: %w", err)
		}
		if cfg.Store.NocoDB.Table == "" {
			return fmt.Errorf("store.nocodb.table is required")
		}
	case "mongo":
		if cfg.Store.Mongo.URI == "" {
			return fmt.Errorf("store.mongo.uri is required")
		}
		if cfg.Store.Mongo.Database == "" || cfg.Store.Mongo.Collection == "" {
			return fmt.Errorf("store.mongo.database and store.mongo.collection are required")
		}
	case "postgres":
		if cfg.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn is required")
		}
		if cfg.Store.Postgres.Table == "" {
			return fmt.Errorf("store.postgres.table is required")
		}
	case "file":
		if cfg.Store.File.Path == "" {
			return fmt.Errorf("store.file.path is required")
		}
	default:
		return fmt.Errorf("store.backend %q is not supported (valid: nocodb, mongo, postgres, file)", cfg.Store.Backend)
	}

	if cfg.Sites.Path == "" {
		return fmt.Errorf("sites.path is required")
	}
	if cfg.History.Enabled && cfg.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is valid for capture.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
