// Package cli implements the micograph command-line interface.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/micograph/pkg/api"
	"github.com/matzehuels/micograph/pkg/buildinfo"
	"github.com/matzehuels/micograph/pkg/cache"
	"github.com/matzehuels/micograph/pkg/config"
	"github.com/matzehuels/micograph/pkg/layoutstore"
	"github.com/matzehuels/micograph/pkg/pipeline"
	"github.com/matzehuels/micograph/pkg/textwrap"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "micograph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	offline    bool
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "micograph renders MICO service dependency graphs",
		Long:         `micograph renders the dependency graphs of MICO services and applications, keeps them in sync with the MICO API and serves them over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/micograph/config.toml)")
	root.PersistentFlags().BoolVar(&c.offline, "offline", false, "serve API responses from the cache only")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the snapshot and artifact cache")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.levelsCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.versionsCommand())
	root.AddCommand(c.dependenciesCommand())
	root.AddCommand(c.changeVersionCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Environment
// =============================================================================

// loadConfig reads the config file and applies the global flags.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.offline {
		cfg.API.Offline = true
	}
	if c.noCache {
		cfg.Cache.Backend = cache.BackendNone
	}
	return cfg, nil
}

// env bundles what commands talking to the API need.
type env struct {
	cfg    *config.Config
	cache  cache.Cache
	client *api.Client
	runner *pipeline.Runner
}

// open wires config, cache, API client and layout store into a runner.
func (c *CLI) open(ctx context.Context) (*env, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := cache.Open(ctx, cfg.CacheOptions())
	if err != nil {
		return nil, err
	}
	client, err := api.New(cfg.APIOptions(store, c.Logger))
	if err != nil {
		store.Close()
		return nil, err
	}
	layouts, err := layoutstore.Open(ctx, cfg.LayoutOptions(store))
	if err != nil {
		store.Close()
		return nil, err
	}

	runner := pipeline.NewRunner(store, nil, c.Logger)
	runner.Source = client
	runner.Layouts = layouts
	runner.Measurer = textwrap.NewFontMeasurer()
	c.Logger.Debug("opened environment",
		"config", cfg.Path(),
		"api", client.BaseURL(),
		"cache", cfg.Cache.Backend,
		"layouts", cfg.Layout.Backend)
	return &env{cfg: cfg, cache: store, client: client, runner: runner}, nil
}

// Close releases the cache and layout store.
func (e *env) Close() error { return e.runner.Close() }

// baseOptions returns pipeline options carrying the configured viewport,
// stylesheet and templates.
func (e *env) baseOptions() (pipeline.Options, error) {
	return e.cfg.PipelineOptions()
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
