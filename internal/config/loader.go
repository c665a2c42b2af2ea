package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults from struct
	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("SCRAPEBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("scrapeboard")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".scrapeboard"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	v.SetDefault("renderer.mode", cfg.Renderer.Mode)
	v.SetDefault("renderer.timeout", cfg.Renderer.Timeout)
	v.SetDefault("renderer.stable_wait", cfg.Renderer.StableWait)
	v.SetDefault("renderer.max_pages", cfg.Renderer.MaxPages)
	v.SetDefault("renderer.user_agent", cfg.Renderer.UserAgent)
	v.SetDefault("renderer.stealth", cfg.Renderer.Stealth)
	v.SetDefault("renderer.max_body_size", cfg.Renderer.MaxBodySize)

	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.nocodb.base_url", cfg.Store.NocoDB.BaseURL)
	v.SetDefault("store.nocodb.token", cfg.Store.NocoDB.Token)
	v.SetDefault("store.nocodb.table", cfg.Store.NocoDB.Table)
	v.SetDefault("store.nocodb.timeout", cfg.Store.NocoDB.Timeout)
	v.SetDefault("store.mongo.uri", cfg.Store.Mongo.URI)
	v.SetDefault("store.mongo.database", cfg.Store.Mongo.Database)
	v.SetDefault("store.mongo.collection", cfg.Store.Mongo.Collection)
	v.SetDefault("store.mongo.timeout", cfg.Store.Mongo.Timeout)
	v.SetDefault("store.postgres.dsn", cfg.Store.Postgres.DSN)
	v.SetDefault("store.postgres.table", cfg.Store.Postgres.Table)
	v.SetDefault("store.file.path", cfg.Store.File.Path)

	v.SetDefault("sites.path", cfg.Sites.Path)
	v.SetDefault("identity.path", cfg.Identity.Path)

	v.SetDefault("history.enabled", cfg.History.Enabled)
	v.SetDefault("history.path", cfg.History.Path)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
}
