// Package render converts rendered graph scenes into other output formats.
//
// The editor produces SVG. [ToPNG] and [ToPDF] rasterize or print that SVG
// with the external rsvg-convert tool (from librsvg). The [dot] subpackage
// exports the same graph as Graphviz DOT.
//
//	var buf bytes.Buffer
//	_ = ed.WriteSVG(&buf)
//	png, err := render.ToPNG(ctx, buf.Bytes(), 2.0)
package render
