package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/micograph/pkg/cache"
	"github.com/matzehuels/micograph/pkg/editor"
	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/geometry"
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/layoutstore"
	"github.com/matzehuels/micograph/pkg/reconcile"
	"github.com/matzehuels/micograph/pkg/textwrap"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner keeps no results between calls, so several goroutines can use
// one Runner with different options.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
	Source   Source             // nil means file and cache only
	Layouts  layoutstore.Store  // nil disables saved positions
	Measurer textwrap.Measurer // nil uses the fixed-width estimate
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the complete load → build → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)
	result := &Result{View: opts.View, Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	snap, loadHit, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	layout, err := r.loadLayout(ctx, snap, opts)
	if err != nil {
		return nil, err
	}
	result.RootID = viewRootID(snap)
	result.Stats.LoadTime = time.Since(loadStart)
	result.CacheInfo.LoadHit = loadHit
	if h, err := cache.HashJSON(struct {
		Snap   Snapshot
		Layout map[string]geometry.Point
	}{snap, layout.Positions}); err == nil {
		result.SnapshotHash = h
	}

	r.Logger.Info("loaded snapshot",
		"view", opts.View,
		"root", result.RootID,
		"services", snap.Services(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Build
	buildStart := time.Now()
	v := r.build(snap, layout, opts)
	defer v.Close()
	result.Nodes = v.Editor.Nodes()
	result.Edges = v.Editor.Edges()
	result.Stats.NodeCount = len(result.Nodes)
	result.Stats.EdgeCount = len(result.Edges)
	result.Stats.BuildTime = time.Since(buildStart)

	// Stage 3: Render
	renderStart := time.Now()
	if cached, ok := r.cachedArtifacts(ctx, result.SnapshotHash, opts); ok {
		result.Artifacts = cached
		result.CacheInfo.RenderHit = true
	} else {
		artifacts, err := r.Render(ctx, v, opts)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		result.Artifacts = artifacts
		r.storeArtifacts(ctx, result.SnapshotHash, opts, artifacts)
	}
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", result.CacheInfo.RenderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// cachedArtifacts returns every requested format from the cache, or false
// if any is missing.
func (r *Runner) cachedArtifacts(ctx context.Context, hash string, opts Options) (map[string][]byte, bool) {
	if hash == "" || opts.Refresh {
		return nil, false
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format)))
		if err != nil || !hit {
			return nil, false
		}
		artifacts[format] = data
	}
	return artifacts, true
}

func (r *Runner) storeArtifacts(ctx context.Context, hash string, opts Options, artifacts map[string][]byte) {
	if hash == "" {
		return
	}
	for format, data := range artifacts {
		if err := r.Cache.Set(ctx, r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format)), data, cache.ArtifactTTL); err != nil {
			r.Logger.Debug("artifact cache write failed", "format", format, "err", err)
		}
	}
}

// =============================================================================
// Edits
// =============================================================================

// MoveNode moves a node of the service view and saves the view's layout.
func (r *Runner) MoveNode(ctx context.Context, opts Options, nodeID string, x, y float64) (graph.Layout, error) {
	if err := errors.ValidateNodeID(nodeID); err != nil {
		return graph.Layout{}, err
	}
	if r.Layouts == nil {
		return graph.Layout{}, errors.New(errors.ErrCodeUnsupported, "no layout store configured")
	}
	v, err := r.loadView(ctx, opts)
	if err != nil {
		return graph.Layout{}, err
	}
	defer v.Close()
	if v.Service == nil {
		return graph.Layout{}, errors.New(errors.ErrCodeUnsupported, "nodes of the %s view cannot be moved", opts.View)
	}

	v.Editor.SetMode(editor.ModeLayout)
	if !v.Editor.MoveNode(nodeID, x, y) {
		return graph.Layout{}, errors.New(errors.ErrCodeNotFound, "node %s not in graph", nodeID)
	}
	layout := v.Service.Layout()
	if err := r.Layouts.Save(ctx, layout); err != nil {
		return graph.Layout{}, fmt.Errorf("save layout: %w", err)
	}
	return layout, nil
}

// ChangeVersion replaces the direct dependency nodeID of the root service
// with newVersion of the same service. The new node keeps the old position.
func (r *Runner) ChangeVersion(ctx context.Context, opts Options, nodeID, newVersion string) error {
	client, ok := r.Source.(reconcile.DependeeClient)
	if !ok {
		return errors.New(errors.ErrCodeUnsupported, "version changes need the API")
	}
	opts.Refresh = true
	v, err := r.loadView(ctx, opts)
	if err != nil {
		return err
	}
	defer v.Close()
	if v.Service == nil {
		return errors.New(errors.ErrCodeUnsupported, "versions can only change in the service view")
	}

	n, ok := v.Service.Node(nodeID)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "node %s not in graph", nodeID)
	}
	at, moved := n.Position(), n.WasMovedByUser
	if err := v.Service.ChangeVersion(ctx, client, nodeID, newVersion); err != nil {
		return err
	}

	if err := r.Cache.Delete(ctx, r.Keyer.GraphKey(opts.ShortName, opts.Version)); err != nil {
		r.Logger.Debug("graph cache invalidation failed", "err", err)
	}
	if r.Layouts != nil {
		layout := v.Service.Layout()
		delete(layout.Positions, nodeID)
		if moved {
			layout.Positions[graph.ServiceNodeID(n.ShortName, newVersion)] = at
		}
		if err := r.Layouts.Save(ctx, layout); err != nil {
			return fmt.Errorf("save layout: %w", err)
		}
	}
	r.Logger.Info("changed dependency version", "node", nodeID, "version", newVersion)
	return nil
}

func (r *Runner) loadView(ctx context.Context, opts Options) (*View, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	snap, _, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return r.Build(ctx, snap, opts)
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var err error
	if r.Layouts != nil {
		err = r.Layouts.Close()
	}
	if r.Cache != nil {
		if cerr := r.Cache.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
