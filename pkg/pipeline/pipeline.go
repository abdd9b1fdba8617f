// Package pipeline provides the load → reconcile → render flow shared by the
// CLI and the HTTP server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a dependency graph or application snapshot from a JSON
//     file or the MICO API
//  2. Build: reconcile the snapshot into a graph editor, restoring saved
//     user positions and assigning dependency levels
//  3. Render: produce artifacts (svg, json, dot, png)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	runner.Source = apiClient
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    ShortName: "auth",
//	    Version:   "1.0.0",
//	    Formats:   []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/micograph/pkg/cache"
	"github.com/matzehuels/micograph/pkg/editor"
	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/template"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default viewport width.
	DefaultWidth = 800.0

	// DefaultHeight is the default viewport height.
	DefaultHeight = 600.0

	// DefaultZoomMode fits static renders into the viewport.
	DefaultZoomMode = editor.ZoomAutomatic

	// DefaultPNGScale is the resolution multiplier of PNG output.
	DefaultPNGScale = 2.0
)

// Views.
const (
	ViewService     = "service"
	ViewApplication = "application"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatPNG:  true,
}

// ContentTypes maps formats to HTTP content types.
var ContentTypes = map[string]string{
	FormatSVG:  "image/svg+xml",
	FormatJSON: "application/json",
	FormatDOT:  "text/vnd.graphviz",
	FormatPNG:  "image/png",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	// Load options
	View      string `json:"view,omitempty"`
	ShortName string `json:"short_name,omitempty"`
	Version   string `json:"version,omitempty"`
	File      string `json:"file,omitempty"` // snapshot JSON instead of the API
	Refresh   bool   `json:"refresh,omitempty"`

	// Build options
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	ZoomMode string  `json:"zoom_mode,omitempty"`

	// Render options
	Formats    []string            `json:"formats,omitempty"`
	Stylesheet string              `json:"stylesheet,omitempty"`
	Templates  []template.Template `json:"templates,omitempty"`
	Markers    []template.Template `json:"markers,omitempty"`
	Detailed   bool                `json:"detailed,omitempty"` // DOT labels with metadata
	PNGScale   float64             `json:"png_scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	View   string
	RootID string

	// Nodes and Edges are the reconciled graph.
	Nodes []*graph.Node
	Edges []*graph.Edge

	// SnapshotHash is the content hash of the loaded snapshot and layout.
	SnapshotHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // snapshot came from the cache
	RenderHit bool // all artifacts came from the cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, json, dot, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateView checks that a view name is valid.
func ValidateView(view string) error {
	if view != ViewService && view != ViewApplication {
		return errors.New(errors.ErrCodeInvalidInput, "invalid view: %q (must be one of: service, application)", view)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the snapshot source.
func (o *Options) ValidateForLoad() error {
	if o.View == "" {
		o.View = ViewService
	}
	if err := ValidateView(o.View); err != nil {
		return err
	}
	if o.File == "" {
		if err := errors.ValidateShortName(o.ShortName); err != nil {
			return err
		}
		if err := errors.ValidateVersion(o.Version); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// SetBuildDefaults sets default viewport values.
func (o *Options) SetBuildDefaults() {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.ZoomMode == "" {
		o.ZoomMode = DefaultZoomMode
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetBuildDefaults()
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.PNGScale <= 0 {
		o.PNGScale = DefaultPNGScale
	}
	return ValidateFormats(o.Formats)
}

// IsApplication reports whether the application view is requested.
func (o *Options) IsApplication() bool { return o.View == ViewApplication }

// LayoutRoot returns the layout store key of the requested view.
func (o *Options) LayoutRoot(rootID string) string { return o.View + ":" + rootID }

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		View:     o.View,
		Width:    o.Width,
		Height:   o.Height,
		ZoomMode: o.ZoomMode,
		Style:    cache.Hash([]byte(o.Stylesheet + templateDigest(o.Templates, o.Markers))),
	}
}

func templateDigest(sets ...[]template.Template) string {
	var s string
	for _, ts := range sets {
		for _, t := range ts {
			s += t.ID + "\x00" + t.Markup + "\x00" + t.LinkHandleMode + "\x00"
		}
	}
	return s
}

// hasFormat reports whether f is requested.
func (o *Options) hasFormat(f string) bool { return slices.Contains(o.Formats, f) }
