// Package nodelink renders merge-tree graphs as node-link diagrams.
//
// # Overview
//
// Critical points become boxes, filled by their class (minimum, saddle,
// maximum), and arcs become arrows. The layout runs bottom-to-top by default
// so the drawing reads like the tree grows upward in scalar value.
//
// # Usage
//
// Convert a graph to DOT, then render:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// Or in one step, picking the format from the output path:
//
//	format, _ := nodelink.FormatFromPath("tree.svg")
//	out, err := nodelink.Render(ctx, g, format, nodelink.Options{})
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering. PDF conversion requires librsvg (rsvg-convert).
package nodelink
