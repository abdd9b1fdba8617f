package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/micograph/pkg/editor"
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/layoutstore"
	"github.com/matzehuels/micograph/pkg/reconcile"
	"github.com/matzehuels/micograph/pkg/template"
)

// =============================================================================
// Build
// =============================================================================

// View is a snapshot reconciled into an editor. Service is set for the
// service view, App for the application view.
type View struct {
	Name    string
	RootID  string
	Editor  *editor.GraphEditor
	Service *reconcile.ServiceGraph
	App     *reconcile.AppGraph
	Layout  graph.Layout
	Stats   reconcile.Stats
}

// Close detaches the view from its editor.
func (v *View) Close() {
	if v.Service != nil {
		v.Service.Close()
	}
	if v.App != nil {
		v.App.Close()
	}
	v.Editor.Dispose()
}

// Build loads the saved layout of snap and reconciles both into a new
// editor.
func (r *Runner) Build(ctx context.Context, snap Snapshot, opts Options) (*View, error) {
	opts.SetBuildDefaults()
	r.applyLogger(&opts)
	layout, err := r.loadLayout(ctx, snap, opts)
	if err != nil {
		return nil, err
	}
	return r.build(snap, layout, opts), nil
}

func (r *Runner) loadLayout(ctx context.Context, snap Snapshot, opts Options) (graph.Layout, error) {
	root := opts.LayoutRoot(viewRootID(snap))
	if r.Layouts == nil || snap.App != nil {
		return graph.Layout{Root: root}, nil
	}
	return layoutstore.LoadOrEmpty(ctx, r.Layouts, root)
}

func viewRootID(snap Snapshot) string {
	if snap.App != nil {
		return reconcile.AppRootID
	}
	return snap.Root.NodeID()
}

func (r *Runner) newEditor(opts Options) *editor.GraphEditor {
	ed := editor.New(editor.Options{
		Logger:     opts.Logger,
		Measurer:   r.Measurer,
		Stylesheet: opts.Stylesheet,
		ZoomMode:   opts.ZoomMode,
	})
	ed.Init(opts.Width, opts.Height)
	return ed
}

func (r *Runner) build(snap Snapshot, layout graph.Layout, opts Options) *View {
	start := time.Now()
	ed := r.newEditor(opts)
	v := &View{Name: opts.View, Editor: ed, Layout: layout, RootID: viewRootID(snap)}
	if snap.App != nil {
		v.App = reconcile.NewAppGraph(ed, opts.Logger)
		r.applyTemplates(ed, template.ApplicationViewNodes(), opts)
		v.Stats = v.App.Apply(*snap.App)
	} else {
		v.Service = reconcile.NewServiceGraph(ed, opts.Logger)
		r.applyTemplates(ed, template.ServiceViewNodes(), opts)
		v.Service.Reset(snap.Root)
		v.Service.ApplyLayout(layout)
		v.Stats = v.Service.Apply(*snap.Graph)
	}
	opts.Logger.Debug("built view",
		"view", opts.View,
		"root", v.RootID,
		"nodes", len(ed.Nodes()),
		"edges", len(ed.Edges()),
		"duration", time.Since(start))
	return v
}

// applyTemplates adds user templates to the view's built-in ones. A user
// template with a built-in id replaces it.
func (r *Runner) applyTemplates(ed *editor.GraphEditor, builtin []template.Template, opts Options) {
	if len(opts.Templates) > 0 {
		ed.SetNodeTemplates(mergeTemplates(builtin, opts.Templates))
	}
	if len(opts.Markers) > 0 {
		ed.SetMarkerTemplates(mergeTemplates(template.Markers(), opts.Markers))
	}
}

func mergeTemplates(base, extra []template.Template) []template.Template {
	out := make([]template.Template, 0, len(base)+len(extra))
	seen := make(map[string]int, len(base))
	for _, t := range base {
		seen[t.ID] = len(out)
		out = append(out, t)
	}
	for _, t := range extra {
		if i, ok := seen[t.ID]; ok {
			out[i] = t
			continue
		}
		seen[t.ID] = len(out)
		out = append(out, t)
	}
	return out
}
