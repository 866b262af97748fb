// Package render turns merge-tree graphs into pictures.
//
// The [nodelink] subpackage writes Graphviz DOT for a graph and renders it
// in-process to SVG or PNG. [ToPDF] converts any SVG to PDF with the
// external rsvg-convert tool (from librsvg).
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [nodelink]: github.com/matzehuels/tachyview/pkg/render/nodelink
package render
