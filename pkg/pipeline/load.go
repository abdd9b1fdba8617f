package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/micograph/pkg/cache"
	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/observability"
	"github.com/matzehuels/micograph/pkg/reconcile"
)

// Source delivers snapshots from the MICO API.
type Source interface {
	reconcile.Source
	Application(ctx context.Context, shortName, version string) (graph.Application, error)
}

// Snapshot is the loaded input of one view. Exactly one of Graph and App is
// set.
type Snapshot struct {
	Root  graph.Service
	Graph *graph.DependencyGraph
	App   *graph.Application
}

// Services returns the number of services in the snapshot.
func (s Snapshot) Services() int {
	if s.App != nil {
		return len(s.App.Services)
	}
	if s.Graph != nil {
		return len(s.Graph.Services)
	}
	return 0
}

// Load reads the snapshot opts asks for. API snapshots are cached under
// the graph or application key unless opts.Refresh is set.
func (r *Runner) Load(ctx context.Context, opts Options) (Snapshot, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return Snapshot{}, false, err
	}
	start := time.Now()
	source := "api"
	if opts.File != "" {
		source = "file"
	}
	snap, hit, err := r.load(ctx, opts)
	observability.Pipeline().OnLoadComplete(ctx, source, snap.Services(), time.Since(start), err)
	return snap, hit, err
}

func (r *Runner) load(ctx context.Context, opts Options) (Snapshot, bool, error) {
	if opts.File != "" {
		return loadFile(opts)
	}
	if opts.IsApplication() {
		key := r.Keyer.ApplicationKey(opts.ShortName, opts.Version)
		var app graph.Application
		if !opts.Refresh {
			if ok, _ := cache.GetJSON(ctx, r.Cache, key, &app); ok {
				return Snapshot{Root: app.Service(), App: &app}, true, nil
			}
		}
		if r.Source == nil {
			return Snapshot{}, false, errors.New(errors.ErrCodeInvalidConfig, "no API configured and %s %s not cached", opts.ShortName, opts.Version)
		}
		app, err := r.Source.Application(ctx, opts.ShortName, opts.Version)
		if err != nil {
			return Snapshot{}, false, err
		}
		_ = cache.SetJSON(ctx, r.Cache, key, app, cache.GraphTTL)
		return Snapshot{Root: app.Service(), App: &app}, false, nil
	}

	key := r.Keyer.GraphKey(opts.ShortName, opts.Version)
	var dg graph.DependencyGraph
	if !opts.Refresh {
		if ok, _ := cache.GetJSON(ctx, r.Cache, key, &dg); ok {
			return Snapshot{Root: rootOf(dg, opts), Graph: &dg}, true, nil
		}
	}
	if r.Source == nil {
		return Snapshot{}, false, errors.New(errors.ErrCodeInvalidConfig, "no API configured and %s %s not cached", opts.ShortName, opts.Version)
	}
	dg, err := r.Source.DependencyGraph(ctx, opts.ShortName, opts.Version)
	if err != nil {
		return Snapshot{}, false, err
	}
	_ = cache.SetJSON(ctx, r.Cache, key, dg, cache.GraphTTL)
	return Snapshot{Root: rootOf(dg, opts), Graph: &dg}, false, nil
}

func loadFile(opts Options) (Snapshot, bool, error) {
	if opts.IsApplication() {
		app, err := graph.ReadApplicationFile(opts.File)
		if err != nil {
			return Snapshot{}, false, errors.Wrap(errors.ErrCodeFileNotFound, err, "load %s", opts.File)
		}
		return Snapshot{Root: app.Service(), App: &app}, false, nil
	}
	dg, err := graph.ReadDependencyGraphFile(opts.File)
	if err != nil {
		return Snapshot{}, false, errors.Wrap(errors.ErrCodeFileNotFound, err, "load %s", opts.File)
	}
	root := rootOf(dg, opts)
	if root.ShortName == "" {
		return Snapshot{}, false, errors.New(errors.ErrCodeInvalidInput, "%s has no services", opts.File)
	}
	return Snapshot{Root: root, Graph: &dg}, false, nil
}

// rootOf picks the requested service from the snapshot, or the snapshot's
// own root when none was requested.
func rootOf(dg graph.DependencyGraph, opts Options) graph.Service {
	if opts.ShortName != "" && opts.Version != "" {
		for _, s := range dg.Services {
			if s.ShortName == opts.ShortName && s.Version == opts.Version {
				return s
			}
		}
		return graph.Service{ShortName: opts.ShortName, Version: opts.Version}
	}
	root, _ := dg.Root()
	return root
}
