// Package pkg holds the libraries behind micograph, a dependency graph
// editor for MICO services.
//
// # Layout
//
//   - [graph], [geometry] and [scene]: node and edge types, 2D math and the
//     retained SVG scene the editor draws into
//   - [editor] and [template]: the graph editor with its modes, events,
//     zoom and node templates
//   - [levels] and [reconcile]: dependency levels and the reconcilers that
//     keep a view in sync with MICO snapshots
//   - [api], [cache] and [layoutstore]: the MICO API client, snapshot and
//     artifact caching, and saved user positions
//   - [pipeline], [render] and [server]: load, build and render a view, and
//     serve it over HTTP
//   - [config], [errors], [observability] and [semver]: ambient support
//
// # Data Flow
//
//	MICO API (or snapshot file)
//	         ↓
//	    [api] / [cache]
//	         ↓
//	    [reconcile] + [layoutstore]   (nodes, edges, levels, saved positions)
//	         ↓
//	    [editor] → [scene]
//	         ↓
//	    SVG / JSON / DOT / PNG
//
// # Quick Start
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    File:    "graph.json",
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	os.WriteFile("graph.svg", res.Artifacts[pipeline.FormatSVG], 0o644)
package pkg
