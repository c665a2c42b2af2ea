package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/ScrapeBoard/internal/api"
	"github.com/IshaanNene/ScrapeBoard/internal/config"
	"github.com/IshaanNene/ScrapeBoard/internal/history"
	"github.com/IshaanNene/ScrapeBoard/internal/identity"
	"github.com/IshaanNene/ScrapeBoard/internal/observability"
	"github.com/IshaanNene/ScrapeBoard/internal/render"
	"github.com/IshaanNene/ScrapeBoard/internal/service"
	"github.com/IshaanNene/ScrapeBoard/internal/sites"
	"github.com/IshaanNene/ScrapeBoard/internal/store"
)

var (
	cfgFile   string
	verbose   bool
	colorMode string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scrapeboard",
		Short: "ScrapeBoard — capture listings from the web into your record store",
		Long: `ScrapeBoard captures structured records from listing pages.

Paste a URL and ScrapeBoard renders the page, extracts the fields the
site's configuration describes, checks your record store for an earlier
capture of the same page, and files a new record when there is none.

Features:
  • Per-site field selectors (id, class, CSS, XPath)
  • Headless-browser or plain-HTTP page rendering
  • European number normalization for prices and sizes
  • Canonical URL rewriting and duplicate detection
  • NocoDB, MongoDB, and Postgres record stores
  • Local SQLite capture journal
  • REST API with Prometheus metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "color output: auto, always, never")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(captureCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(sitesCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the capture API server",
		Long:  "Start the HTTP API that accepts capture requests, serves site and status info, and exposes metrics.",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(&cfg.Logging)

	svc, err := buildService(cfg, logger, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	server := api.NewServer(&cfg.Server, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("scrapeboard serving",
		"addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"renderer", cfg.Renderer.Mode,
		"store", cfg.Store.Backend,
		"sites", svc.Registry().Len(),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", "error", err)
	}
	return <-errCh
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ScrapeBoard %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("Server:\n")
			fmt.Printf("  Address:          %s:%d\n", cfg.Server.Host, cfg.Server.Port)
			fmt.Printf("  Read Timeout:     %s\n", cfg.Server.ReadTimeout)
			fmt.Printf("  Write Timeout:    %s\n", cfg.Server.WriteTimeout)
			fmt.Printf("  Shutdown Timeout: %s\n", cfg.Server.ShutdownTimeout)
			fmt.Printf("\nRenderer:\n")
			fmt.Printf("  Mode:             %s\n", cfg.Renderer.Mode)
			fmt.Printf("  Timeout:          %s\n", cfg.Renderer.Timeout)
			fmt.Printf("  Stable Wait:      %s\n", cfg.Renderer.StableWait)
			fmt.Printf("  Max Pages:        %d\n", cfg.Renderer.MaxPages)
			fmt.Printf("  Stealth:          %v\n", cfg.Renderer.Stealth)
			fmt.Printf("\nStore:\n")
			fmt.Printf("  Backend:          %s\n", cfg.Store.Backend)
			switch cfg.Store.Backend {
			case "nocodb":
				fmt.Printf("  Base URL:         %s\n", cfg.Store.NocoDB.BaseURL)
				fmt.Printf("  Table:            %s\n", cfg.Store.NocoDB.Table)
			case "mongo":
				fmt.Printf("  Database:         %s\n", cfg.Store.Mongo.Database)
				fmt.Printf("  Collection:       %s\n", cfg.Store.Mongo.Collection)
			case "postgres":
				fmt.Printf("  Table:            %s\n", cfg.Store.Postgres.Table)
			case "file":
				fmt.Printf("  Path:             %s\n", cfg.Store.File.Path)
			}
			fmt.Printf("\nSites:\n")
			fmt.Printf("  Path:             %s\n", cfg.Sites.Path)
			fmt.Printf("\nIdentity:\n")
			fmt.Printf("  Path:             %s\n", cfg.Identity.Path)
			fmt.Printf("\nHistory:\n")
			fmt.Printf("  Enabled:          %v\n", cfg.History.Enabled)
			fmt.Printf("  Path:             %s\n", cfg.History.Path)
			return nil
		},
	}
}

// loadConfig loads and validates the effective configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogger creates a structured logger per the logging config.
func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stderr
	if cfg.Output == "stdout" {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// buildService wires the capture service from config. With httpOnly the
// renderer runs in plain-HTTP mode regardless of config, for commands
// that never render a page.
func buildService(cfg *config.Config, logger *slog.Logger, httpOnly bool) (*service.Service, error) {
	registry, err := sites.NewRegistryFromFile(cfg.Sites.Path)
	if err != nil {
		return nil, fmt.Errorf("load sites: %w", err)
	}

	rendererCfg := cfg.Renderer
	if httpOnly {
		rendererCfg.Mode = render.ModeHTTP
	}
	renderer, err := render.New(&rendererCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	st, err := store.New(&cfg.Store, logger)
	if err != nil {
		renderer.Close()
		return nil, fmt.Errorf("create store: %w", err)
	}

	var resolver identity.Resolver = identity.Static{}
	if cfg.Identity.Path != "" {
		fr, err := identity.NewFileResolver(cfg.Identity.Path, logger)
		if err != nil {
			logger.Warn("identity map not loaded, actor bindings will fail", "path", cfg.Identity.Path, "error", err)
		} else {
			resolver = fr
		}
	}

	var journal *history.Journal
	if cfg.History.Enabled {
		journal, err = history.Open(cfg.History.Path, logger)
		if err != nil {
			logger.Warn("capture journal disabled", "path", cfg.History.Path, "error", err)
			journal = nil
		}
	}

	return service.New(service.Options{
		Registry:  registry,
		Renderer:  renderer,
		Store:     st,
		Identity:  resolver,
		Journal:   journal,
		Metrics:   observability.NewMetrics(logger),
		SitesPath: cfg.Sites.Path,
		Logger:    logger,
	}), nil
}
