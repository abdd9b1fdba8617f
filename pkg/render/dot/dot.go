// Package dot exports a rendered dependency graph as Graphviz DOT and lays
// it out with the embedded Graphviz of github.com/goccy/go-graphviz.
//
// Node positions are pinned, so Graphviz draws the graph where the editor
// placed it:
//
//	src := dot.ToDOT(ed.Nodes(), ed.Edges(), dot.Options{})
//	svg, err := dot.RenderSVG(ctx, src)
package dot

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/micograph/pkg/geometry"
	"github.com/matzehuels/micograph/pkg/graph"
)

// Options configure the DOT export.
type Options struct {
	// Detailed adds version, level and attributes to node labels.
	Detailed bool
	// Free lets Graphviz place the nodes instead of pinning them.
	Free bool
}

// pointsPerUnit converts editor units to Graphviz points.
const pointsPerUnit = 1.0

// ToDOT converts nodes and edges to DOT. Edges whose endpoints are missing
// are left out.
func ToDOT(nodes []*graph.Node, edges []*graph.Edge, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=\"#cccccc\", fontname=\"sans-serif\", fontsize=10];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	if !opts.Free {
		buf.WriteString("  splines=true;\n")
	}
	buf.WriteString("\n")

	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts), ", "))
	}

	buf.WriteString("\n")
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		attrs := []string{fmt.Sprintf("id=%q", graph.EdgeID(e))}
		if e.Type == "includes" {
			attrs = append(attrs, `color="#0099ff"`, "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *graph.Node, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", label(n, opts.Detailed))}
	if !opts.Free {
		// Graphviz y grows upwards.
		attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"",
			geometry.FormatNumber(n.X*pointsPerUnit), geometry.FormatNumber(-n.Y*pointsPerUnit)))
	}
	switch {
	case n.DependencyLevel == 0:
		attrs = append(attrs, `fillcolor="#005c99"`, "fontcolor=white")
	case n.DependencyLevel == graph.LevelUnreached:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

func label(n *graph.Node, detailed bool) string {
	title := n.Title
	if title == "" {
		title = n.ID
	}
	if !detailed {
		return title
	}
	parts := []string{title}
	if n.Version != "" {
		parts = append(parts, "version: "+n.Version)
	}
	if n.DependencyLevel != graph.LevelUnreached {
		parts = append(parts, fmt.Sprintf("level: %d", n.DependencyLevel))
	}
	for _, k := range slices.Sorted(maps.Keys(n.Attrs)) {
		parts = append(parts, fmt.Sprintf("%s: %s", k, n.Attrs[k]))
	}
	return strings.Join(parts, "\n")
}

// RenderSVG lays out src with Graphviz and returns SVG. Pinned graphs use
// the neato engine, which honors the pos attributes; free graphs use dot.
func RenderSVG(ctx context.Context, src string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if strings.Contains(src, "!\"") {
		gv.SetLayout(graphviz.NEATO)
	} else {
		gv.SetLayout(graphviz.DOT)
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz svg tag, which carries sizes in
// points, with a plain one sized to the view box.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
