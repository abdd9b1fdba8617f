package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/geometry"
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/reconcile"
	"github.com/matzehuels/micograph/pkg/template"
)

// =============================================================================
// Watch
// =============================================================================

// WatchOptions pace a Watch.
type WatchOptions struct {
	PollInterval time.Duration
	Debounce     time.Duration
	// OnUpdate runs with exclusive access to the view after each applied
	// dependency graph. It must not call methods of the Watch.
	OnUpdate func(v *View, st reconcile.Stats)
}

// Watch keeps a service view in sync with the API.
type Watch struct {
	runner *Runner
	view   *View
	ctrl   *reconcile.Controller
	opts   Options
}

// Watch subscribes a new service view to the root service of opts. The
// saved layout of the root is applied before the first snapshot arrives.
func (r *Runner) Watch(ctx context.Context, opts Options, wo WatchOptions) (*Watch, error) {
	if opts.File != "" || opts.IsApplication() {
		return nil, errors.New(errors.ErrCodeUnsupported, "only service graphs from the API can be watched")
	}
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	if r.Source == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "watching needs an API source")
	}
	opts.SetBuildDefaults()
	r.applyLogger(&opts)

	root, err := r.Source.Service(ctx, opts.ShortName, opts.Version)
	switch {
	case errors.Is(err, errors.ErrCodeServiceNotFound):
		return nil, err
	case err != nil:
		opts.Logger.Warn("root service unavailable, watching anyway", "err", err)
		root = graph.Service{ShortName: opts.ShortName, Version: opts.Version}
	}

	layout, err := r.loadLayout(ctx, Snapshot{Root: root}, opts)
	if err != nil {
		return nil, err
	}

	ed := r.newEditor(opts)
	sg := reconcile.NewServiceGraph(ed, opts.Logger)
	r.applyTemplates(ed, template.ServiceViewNodes(), opts)
	v := &View{Name: ViewService, Editor: ed, Service: sg, Layout: layout, RootID: root.NodeID()}

	w := &Watch{runner: r, view: v, opts: opts}
	w.ctrl = reconcile.NewController(sg, r.Source, reconcile.ControllerOptions{
		Logger:       opts.Logger,
		PollInterval: wo.PollInterval,
		Debounce:     wo.Debounce,
		OnUpdate: func(st reconcile.Stats) {
			v.Stats = st
			if wo.OnUpdate != nil {
				wo.OnUpdate(v, st)
			}
		},
	})
	w.ctrl.Subscribe(ctx, root)
	w.ctrl.Do(func(sg *reconcile.ServiceGraph) { sg.ApplyLayout(layout) })
	opts.Logger.Info("watching", "root", v.RootID, "saved", len(layout.Positions))
	return w, nil
}

// Refresh polls the dependency graph at once.
func (w *Watch) Refresh() { w.ctrl.Refresh() }

// Do runs fn with exclusive access to the view.
func (w *Watch) Do(fn func(v *View)) {
	w.ctrl.Do(func(*reconcile.ServiceGraph) { fn(w.view) })
}

// ChangeVersion swaps the direct dependency nodeID for newVersion. The node
// of the new version takes the old position once the refreshed graph
// arrives; the saved layout is updated right away.
func (w *Watch) ChangeVersion(ctx context.Context, nodeID, newVersion string) error {
	client, ok := w.runner.Source.(reconcile.DependeeClient)
	if !ok {
		return errors.New(errors.ErrCodeUnsupported, "version changes need the API")
	}
	var (
		layout    graph.Layout
		shortName string
		at        geometry.Point
		moved     bool
	)
	w.ctrl.Do(func(sg *reconcile.ServiceGraph) {
		if n, ok := sg.Node(nodeID); ok {
			shortName, at, moved = n.ShortName, n.Position(), n.WasMovedByUser
		}
		layout = sg.Layout()
	})
	if err := w.ctrl.ChangeVersion(ctx, client, nodeID, newVersion); err != nil {
		return err
	}

	r := w.runner
	if err := r.Cache.Delete(ctx, r.Keyer.GraphKey(w.opts.ShortName, w.opts.Version)); err != nil {
		r.Logger.Debug("graph cache invalidation failed", "err", err)
	}
	if r.Layouts == nil {
		return nil
	}
	delete(layout.Positions, nodeID)
	if moved {
		layout.Positions[graph.ServiceNodeID(shortName, newVersion)] = at
	}
	if err := r.Layouts.Save(ctx, layout); err != nil {
		return fmt.Errorf("save layout: %w", err)
	}
	return nil
}

// SaveLayout stores the positions of nodes moved by the user.
func (w *Watch) SaveLayout(ctx context.Context) error {
	if w.runner.Layouts == nil {
		return nil
	}
	var layout graph.Layout
	w.ctrl.Do(func(sg *reconcile.ServiceGraph) { layout = sg.Layout() })
	if err := w.runner.Layouts.Save(ctx, layout); err != nil {
		return fmt.Errorf("save layout: %w", err)
	}
	return nil
}

// Close stops polling and releases the view.
func (w *Watch) Close() {
	w.ctrl.Close()
	w.view.Close()
}
