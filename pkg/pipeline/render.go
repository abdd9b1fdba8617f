package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/levels"
	"github.com/matzehuels/micograph/pkg/observability"
	"github.com/matzehuels/micograph/pkg/render"
	"github.com/matzehuels/micograph/pkg/render/dot"
)

// Export is the JSON artifact: the reconciled graph with its levels.
type Export struct {
	View   string       `json:"view"`
	Root   string       `json:"root"`
	Nodes  []ExportNode `json:"nodes"`
	Edges  []ExportEdge `json:"edges"`
	Levels [][]string   `json:"levels"`
}

// ExportNode is one node of an Export.
type ExportNode struct {
	ID      string  `json:"id"`
	Title   string  `json:"title,omitempty"`
	Version string  `json:"version,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Level   *int    `json:"level,omitempty"` // nil when unreachable from the root
	Moved   bool    `json:"wasMovedByUser,omitempty"`
}

// ExportEdge is one edge of an Export.
type ExportEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type,omitempty"`
}

// NewExport snapshots the nodes and edges of v.
func NewExport(v *View) Export {
	ex := Export{View: v.Name, Root: v.RootID}
	for _, n := range v.Editor.Nodes() {
		en := ExportNode{ID: n.ID, Title: n.Title, Version: n.Version, X: n.X, Y: n.Y, Moved: n.WasMovedByUser}
		if n.DependencyLevel != graph.LevelUnreached {
			lvl := n.DependencyLevel
			en.Level = &lvl
		}
		ex.Nodes = append(ex.Nodes, en)
	}
	for _, e := range v.Editor.Edges() {
		ex.Edges = append(ex.Edges, ExportEdge{ID: graph.EdgeID(e), Source: e.Source, Target: e.Target, Type: e.Type})
	}
	for _, tier := range levels.Tiers(v.Editor.Nodes()) {
		ids := make([]string, len(tier))
		for i, n := range tier {
			ids[i] = n.ID
		}
		ex.Levels = append(ex.Levels, ids)
	}
	return ex
}

// Render generates the requested artifacts of a built view.
func (r *Runner) Render(ctx context.Context, v *View, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	artifacts, err := renderArtifacts(ctx, v, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func renderArtifacts(ctx context.Context, v *View, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	var svg []byte
	svgOnce := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var buf bytes.Buffer
		if err := v.Editor.WriteSVG(&buf); err != nil {
			return nil, err
		}
		svg = buf.Bytes()
		return svg, nil
	}

	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatSVG:
			data, err = svgOnce()
		case FormatJSON:
			data, err = json.MarshalIndent(NewExport(v), "", "  ")
		case FormatDOT:
			data = []byte(dot.ToDOT(v.Editor.Nodes(), v.Editor.Edges(), dot.Options{Detailed: opts.Detailed}))
		case FormatPNG:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPNG(ctx, data, opts.PNGScale)
			}
		default:
			err = fmt.Errorf("unsupported format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
