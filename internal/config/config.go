package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for ScrapeBoard.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   yaml:"server"`
	Renderer RendererConfig `mapstructure:"renderer" yaml:"renderer"`
	Store    StoreConfig    `mapstructure:"store"    yaml:"store"`
	Sites    SitesConfig    `mapstructure:"sites"    yaml:"sites"`
	Identity IdentityConfig `mapstructure:"identity" yaml:"identity"`
	History  HistoryConfig  `mapstructure:"history"  yaml:"history"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"             yaml:"host"`
	Port            int           `mapstructure:"port"             yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// RendererConfig controls how pages are rendered before extraction.
type RendererConfig struct {
	// Mode is "browser" (headless Chromium) or "http" (plain client).
	Mode        string        `mapstructure:"mode"          yaml:"mode"`
	Timeout     time.Duration `mapstructure:"timeout"       yaml:"timeout"`
	StableWait  time.Duration `mapstructure:"stable_wait"   yaml:"stable_wait"`
	MaxPages    int           `mapstructure:"max_pages"     yaml:"max_pages"`
	UserAgent   string        `mapstructure:"user_agent"    yaml:"user_agent"`
	Stealth     bool          `mapstructure:"stealth"       yaml:"stealth"`
	MaxBodySize int64         `mapstructure:"max_body_size" yaml:"max_body_size"`
	TLSInsecure bool          `mapstructure:"tls_insecure"  yaml:"tls_insecure"`
}

// StoreConfig selects and configures the external record store.
type StoreConfig struct {
	// Backend is "nocodb", "mongo", "postgres", or "file".
	Backend  string          `mapstructure:"backend"  yaml:"backend"`
	NocoDB   NocoDBConfig    `mapstructure:"nocodb"   yaml:"nocodb"`
	Mongo    MongoConfig     `mapstructure:"mongo"    yaml:"mongo"`
	Postgres PostgresConfig  `mapstructure:"postgres" yaml:"postgres"`
	File     FileStoreConfig `mapstructure:"file"     yaml:"file"`
}

// NocoDBConfig configures the NocoDB REST backend.
type NocoDBConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Token   string        `mapstructure:"token"    yaml:"token"`
	Table   string        `mapstructure:"table"    yaml:"table"`
	Timeout time.Duration `mapstructure:"timeout"  yaml:"timeout"`
}

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	URI        string        `mapstructure:"uri"        yaml:"uri"`
	Database   string        `mapstructure:"database"   yaml:"database"`
	Collection string        `mapstructure:"collection" yaml:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"    yaml:"timeout"`
}

// PostgresConfig configures the Postgres backend.
type PostgresConfig struct {
	DSN   string `mapstructure:"dsn"   yaml:"dsn"`
	Table string `mapstructure:"table" yaml:"table"`
}

// FileStoreConfig configures the local JSON file backend.
type FileStoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// SitesConfig points at the per-site capture configuration file.
type SitesConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// IdentityConfig points at the actor identity map file.
type IdentityConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// HistoryConfig controls the local capture journal.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8800,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Renderer: RendererConfig{
			Mode:        "browser",
			Timeout:     30 * time.Second,
			StableWait:  2 * time.Second,
			MaxPages:    4,
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Stealth:     true,
			MaxBodySize: 10 * 1024 * 1024, // 10MB
		},
		Store: StoreConfig{
			Backend: "nocodb",
			NocoDB: NocoDBConfig{
				BaseURL: "http://localhost:8080",
				Timeout: 15 * time.Second,
			},
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "scrapeboard",
				Collection: "records",
				Timeout:    10 * time.Second,
			},
			Postgres: PostgresConfig{
				Table: "records",
			},
			File: FileStoreConfig{
				Path: "./records.json",
			},
		},
		Sites: SitesConfig{
			Path: "./configs/sites.yaml",
		},
		Identity: IdentityConfig{
			Path: "./configs/identities.yaml",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "./scrapeboard.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}
