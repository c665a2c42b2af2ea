package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/ScrapeBoard/internal/config"
	"github.com/IshaanNene/ScrapeBoard/internal/history"
	"github.com/IshaanNene/ScrapeBoard/internal/render"
	"github.com/IshaanNene/ScrapeBoard/internal/service"
	"github.com/IshaanNene/ScrapeBoard/internal/sites"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
	"github.com/IshaanNene/ScrapeBoard/internal/ui"
)

var (
	actor        string
	setFields    []string
	rendererFlag string
	historyLimit int
)

// captureCmd creates the "capture" subcommand.
func captureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture [url]",
		Short: "Capture one page into the record store",
		Long:  "Render the page, extract its fields, check for an earlier capture, and store a new record.",
		Args:  cobra.ExactArgs(1),
		RunE:  runCapture,
	}

	cmd.Flags().StringVarP(&actor, "actor", "a", "", "who is capturing (for sites that record the finder)")
	cmd.Flags().StringArrayVar(&setFields, "set", nil, "override an extracted field, e.g. --set title=Corrected")
	cmd.Flags().StringVar(&rendererFlag, "renderer", "", "renderer override: browser or http")

	return cmd
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRendererFlag(cfg); err != nil {
		return err
	}
	if err := config.ValidateURL(args[0]); err != nil {
		return fmt.Errorf("invalid URL %q: %w", args[0], err)
	}

	logger := setupLogger(&cfg.Logging)
	u := newUI()

	svc, err := buildService(cfg, logger, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	overrides, err := parseOverrides(setFields)
	if err != nil {
		return err
	}

	res, captureErr := svc.Capture(cmd.Context(), service.CaptureRequest{
		URL:    args[0],
		Actor:  actor,
		Fields: overrides,
	})

	switch res.Status {
	case types.StatusCaptured:
		u.Successf("captured %s", res.CanonicalURL)
		u.Field("site", res.Site)
		u.Field("record", res.RecordID)
		printFields(u, res.Fields)
		return nil
	case types.StatusDuplicate:
		u.Warnf("already captured: %s", res.CanonicalURL)
		u.Field("record", res.DuplicateOf)
		return nil
	case types.StatusUnsupported:
		u.Errorf("no site configuration for %s", args[0])
		return captureErr
	default:
		u.Errorf("capture failed: %s", res.Error)
		return captureErr
	}
}

// previewCmd creates the "preview" subcommand.
func previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview [url]",
		Short: "Extract fields without storing anything",
		Long:  "Render the page and print the fields the site configuration extracts. Nothing is written to the record store.",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreview,
	}

	cmd.Flags().StringVar(&rendererFlag, "renderer", "", "renderer override: browser or http")

	return cmd
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRendererFlag(cfg); err != nil {
		return err
	}

	logger := setupLogger(&cfg.Logging)
	u := newUI()

	svc, err := buildService(cfg, logger, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	res, previewErr := svc.Preview(cmd.Context(), args[0])
	if previewErr != nil {
		if errors.Is(previewErr, types.ErrSiteNotSupported) {
			u.Errorf("no site configuration for %s", args[0])
		} else {
			u.Errorf("preview failed: %s", res.Error)
		}
		return previewErr
	}

	u.Infof("%s (%s)", res.Site, res.CanonicalURL)
	printFields(u, res.Fields)
	return nil
}

// checkCmd creates the "check" subcommand.
func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [url]",
		Short: "Check whether a page was already captured",
		Long:  "Canonicalize the URL and query the record store for an earlier capture. The page itself is not rendered.",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(&cfg.Logging)
	u := newUI()

	svc, err := buildService(cfg, logger, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.Check(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, types.ErrSiteNotSupported) {
			u.Errorf("no site configuration for %s", args[0])
		} else {
			u.Errorf("check failed: %v", err)
		}
		return err
	}

	if res.Duplicate {
		u.Warnf("already captured: %s", res.CanonicalURL)
		u.Field("record", res.RecordID)
	} else {
		u.Successf("not captured yet: %s", res.CanonicalURL)
	}
	return nil
}

// sitesCmd creates the "sites" subcommand.
func sitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List configured sites",
		RunE:  runSites,
	}
}

func runSites(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	u := newUI()

	registry, err := sites.NewRegistryFromFile(cfg.Sites.Path)
	if err != nil {
		return fmt.Errorf("load sites: %w", err)
	}

	hosts := registry.Hosts()
	if len(hosts) == 0 {
		u.Warnf("no sites configured in %s", cfg.Sites.Path)
		return nil
	}

	for _, host := range hosts {
		site, ok := registry.Lookup(host)
		if !ok {
			continue
		}
		u.Infof("%s (%s)", host, site.Name)
		u.Field("selectors", strings.Join(site.SelectorFields(), ", "))
		u.Field("bindings", strings.Join(site.BindingFields(), ", "))
		if checks := site.DuplicateCheckFields(); len(checks) > 0 {
			u.Field("duplicate check", strings.Join(checks, ", "))
		}
	}
	return nil
}

// historyCmd creates the "history" subcommand.
func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent capture runs",
		RunE:  runHistory,
	}

	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled in the configuration")
	}

	logger := setupLogger(&cfg.Logging)
	u := newUI()

	journal, err := history.Open(cfg.History.Path, logger)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer journal.Close()

	entries, err := journal.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		u.Warnf("no captures recorded yet")
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-11s %s",
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			u.StatusLabel(e.Status),
			e.URL,
		)
		u.Plainf("%s", line)
		if e.RecordID != "" {
			u.Field("record", e.RecordID)
		}
		if e.Error != "" {
			u.Field("error", e.Error)
		}
	}
	return nil
}

func newUI() *ui.UI {
	return ui.New(os.Stdout, os.Stderr, ui.NormalizeColorMode(colorMode))
}

func applyRendererFlag(cfg *config.Config) error {
	if rendererFlag == "" {
		return nil
	}
	switch rendererFlag {
	case render.ModeBrowser, render.ModeHTTP:
		cfg.Renderer.Mode = rendererFlag
		return nil
	default:
		return fmt.Errorf("unknown renderer %q (valid: browser, http)", rendererFlag)
	}
}

// printFields prints extracted fields in stable order.
func printFields(u *ui.UI, fields types.RawFields) {
	for _, name := range fields.Names() {
		v, _ := fields.Get(name)
		if v == nil {
			v = "null"
		}
		u.Field(name, v)
	}
}

// parseOverrides turns repeated --set key=value flags into a field map.
func parseOverrides(pairs []string) (types.RawFields, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	fields := types.NewRawFields()
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", pair)
		}
		fields.Set(strings.TrimSpace(key), value)
	}
	return fields, nil
}
