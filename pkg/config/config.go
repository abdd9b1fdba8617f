// Package config loads the micograph TOML configuration.
//
// The file lives at $XDG_CONFIG_HOME/micograph/config.toml (or
// ~/.config/micograph/config.toml). A missing file yields the defaults.
//
//	[api]
//	base_url = "http://localhost:8080/"
//	timeout = "10s"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[[templates.node]]
//	id = "database"
//	markup = '<circle class="outline" r="30"></circle>'
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/micograph/pkg/api"
	"github.com/matzehuels/micograph/pkg/cache"
	"github.com/matzehuels/micograph/pkg/editor"
	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/layoutstore"
	"github.com/matzehuels/micograph/pkg/pipeline"
	"github.com/matzehuels/micograph/pkg/template"
)

// Defaults not covered by the packages they configure.
const (
	DefaultAPIURL       = "http://localhost:8080/"
	DefaultAttempts     = 3
	DefaultPollInterval = 2 * time.Second
	DefaultDebounce     = 500 * time.Millisecond
	DefaultListenAddr   = ":8090"
	DefaultMongoDB      = "micograph"
	DefaultCollection   = "layouts"
)

// Config is the decoded config file.
type Config struct {
	API       APIConfig    `toml:"api"`
	Editor    EditorConfig `toml:"editor"`
	Watch     WatchConfig  `toml:"watch"`
	Cache     CacheConfig  `toml:"cache"`
	Layout    LayoutConfig `toml:"layout"`
	Server    ServerConfig `toml:"server"`
	Templates Templates    `toml:"templates"`

	path string
}

// APIConfig locates mico-core.
type APIConfig struct {
	BaseURL  string        `toml:"base_url"`
	Timeout  time.Duration `toml:"timeout"`
	Attempts int           `toml:"attempts"`
	Offline  bool          `toml:"offline"`
}

// EditorConfig sets the viewport and look of rendered graphs.
type EditorConfig struct {
	Width      float64 `toml:"width"`
	Height     float64 `toml:"height"`
	ZoomMode   string  `toml:"zoom_mode"`
	Stylesheet string  `toml:"stylesheet"` // CSS file, relative to the config file
	PNGScale   float64 `toml:"png_scale"`
}

// WatchConfig paces live updates.
type WatchConfig struct {
	Interval time.Duration `toml:"interval"`
	Debounce time.Duration `toml:"debounce"`
}

// CacheConfig selects the snapshot and artifact cache.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// LayoutConfig selects where user positions are stored.
type LayoutConfig struct {
	Backend         string `toml:"backend"`
	SQLitePath      string `toml:"sqlite_path"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// ServerConfig configures `micograph serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Templates are user node and marker templates. A template whose id matches
// a built-in one replaces it.
type Templates struct {
	Node   []template.Template `toml:"node"`
	Marker []template.Template `toml:"marker"`
}

// DefaultPath returns the config file location.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "micograph", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "micograph", "config.toml"), nil
}

// Default returns a config with all defaults applied.
func Default() *Config {
	c := &Config{}
	_ = c.ValidateAndSetDefaults()
	return c
}

// Load reads the config at path. An empty path means DefaultPath, where a
// missing file is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	c := &Config{path: path}
	if _, err := toml.DecodeFile(path, c); err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := c.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Path returns the file the config was loaded from, if any.
func (c *Config) Path() string { return c.path }

// ValidateAndSetDefaults checks enumerations and templates and fills in
// defaults.
func (c *Config) ValidateAndSetDefaults() error {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIURL
	}
	if err := errors.ValidateURL(c.API.BaseURL); err != nil {
		return err
	}
	if c.API.Attempts <= 0 {
		c.API.Attempts = DefaultAttempts
	}

	if c.Editor.Width <= 0 {
		c.Editor.Width = pipeline.DefaultWidth
	}
	if c.Editor.Height <= 0 {
		c.Editor.Height = pipeline.DefaultHeight
	}
	switch c.Editor.ZoomMode {
	case "":
		c.Editor.ZoomMode = pipeline.DefaultZoomMode
	case editor.ZoomNone, editor.ZoomManual, editor.ZoomAutomatic, editor.ZoomBoth:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "editor.zoom_mode: unknown mode %q", c.Editor.ZoomMode)
	}
	if c.Editor.PNGScale <= 0 {
		c.Editor.PNGScale = pipeline.DefaultPNGScale
	}

	if c.Watch.Interval <= 0 {
		c.Watch.Interval = DefaultPollInterval
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = DefaultDebounce
	}

	switch c.Cache.Backend {
	case "":
		c.Cache.Backend = cache.BackendFile
	case cache.BackendFile, cache.BackendNone:
	case cache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend: unknown backend %q", c.Cache.Backend)
	}

	switch c.Layout.Backend {
	case "":
		c.Layout.Backend = layoutstore.BackendFile
	case layoutstore.BackendFile, layoutstore.BackendNone:
	case layoutstore.BackendSQLite:
		if c.Layout.SQLitePath == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "layout.sqlite_path is required for the sqlite backend")
		}
	case layoutstore.BackendMongo:
		if c.Layout.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "layout.mongo_uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "layout.backend: unknown backend %q", c.Layout.Backend)
	}
	if c.Layout.MongoDatabase == "" {
		c.Layout.MongoDatabase = DefaultMongoDB
	}
	if c.Layout.MongoCollection == "" {
		c.Layout.MongoCollection = DefaultCollection
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultListenAddr
	}

	for _, set := range [][]template.Template{c.Templates.Node, c.Templates.Marker} {
		for _, t := range set {
			if t.ID == "" {
				return errors.New(errors.ErrCodeInvalidTemplate, "template without id")
			}
			if _, err := template.Parse(t); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidTemplate, err, "template %s", t.ID)
			}
		}
	}
	return nil
}

// CacheOptions returns the options for cache.Open.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis: cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
		},
	}
}

// APIOptions returns the client options. GET responses are written through
// to store.
func (c *Config) APIOptions(store cache.Cache, logger *log.Logger) api.Options {
	return api.Options{
		BaseURL:  c.API.BaseURL,
		Timeout:  c.API.Timeout,
		Attempts: c.API.Attempts,
		Offline:  c.API.Offline,
		Cache:    store,
		Logger:   logger,
	}
}

// LayoutOptions returns the options for layoutstore.Open. The file backend
// stores layouts in store.
func (c *Config) LayoutOptions(store cache.Cache) layoutstore.Options {
	return layoutstore.Options{
		Backend:    c.Layout.Backend,
		Cache:      store,
		SQLitePath: c.Layout.SQLitePath,
		Mongo: layoutstore.MongoConfig{
			URI:        c.Layout.MongoURI,
			Database:   c.Layout.MongoDatabase,
			Collection: c.Layout.MongoCollection,
		},
	}
}

// PipelineOptions returns render options carrying the editor settings and
// templates. The stylesheet file is read relative to the config file.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	opts := pipeline.Options{
		Width:     c.Editor.Width,
		Height:    c.Editor.Height,
		ZoomMode:  c.Editor.ZoomMode,
		PNGScale:  c.Editor.PNGScale,
		Templates: c.Templates.Node,
		Markers:   c.Templates.Marker,
	}
	if c.Editor.Stylesheet != "" {
		path := c.Editor.Stylesheet
		if !filepath.IsAbs(path) && c.path != "" {
			path = filepath.Join(filepath.Dir(c.path), path)
		}
		css, err := os.ReadFile(path)
		if err != nil {
			return pipeline.Options{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "stylesheet %s", path)
		}
		opts.Stylesheet = string(css)
	}
	return opts, nil
}
