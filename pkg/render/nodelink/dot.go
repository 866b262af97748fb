package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/tachyview/pkg/graph"
	"github.com/matzehuels/tachyview/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the scalar value and coordinates to node labels.
	// When false, only the node ID and type are shown.
	Detailed bool

	// RankDir is the Graphviz layout direction. Defaults to "BT" so that
	// low scalar values sit at the bottom of the drawing.
	RankDir string
}

// typeNames are the critical point classes as numbered by the
// topology toolkit.
var typeNames = map[int]string{
	0: "minimum",
	1: "1-saddle",
	2: "2-saddle",
	3: "maximum",
	4: "degenerate",
	5: "regular",
}

var typeColors = map[int]string{
	0: "#4c72b0",
	1: "#55a868",
	2: "#c4ad4f",
	3: "#c44e52",
	4: "#8172b2",
	5: "#cccccc",
}

// TypeName returns the name of a critical point class, or "type N" for codes
// without one.
func TypeName(t int) string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "type " + strconv.Itoa(t)
}

// ToDOT converts a merge-tree graph to Graphviz DOT format. Nodes are filled
// by critical point class. The resulting DOT string can be rendered using
// [RenderSVG], [RenderPNG] or [RenderPDF].
func ToDOT(g *graph.Graph, opts Options) string {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "BT"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  n%d [%s];\n", n.ID, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, l := range g.Links {
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", l.Source, l.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, detailed bool) string {
	label := fmt.Sprintf("%d\n%s", n.ID, TypeName(n.Type))
	if !detailed {
		return label
	}
	return label + fmt.Sprintf("\nscalar: %g\n(%g, %g, %g)", n.Scalar, n.X, n.Y, n.Z)
}

func fmtAttrs(n graph.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	if c, ok := typeColors[n.Type]; ok {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", c))
		if n.Type != 5 {
			attrs = append(attrs, "fontcolor=white")
		}
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderDOT(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.PNG)
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg element with one
// whose viewBox starts at the origin and whose size is unitless.
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

// Format is a node-link output format.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts dot, svg, png and pdf, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatDOT, FormatSVG, FormatPNG, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("unknown render format %q (want dot, svg, png or pdf)", s)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", fmt.Errorf("%s: no file extension to infer the render format from", path)
	}
	return ParseFormat(path[i+1:])
}

// Render produces g in the given format.
func Render(ctx context.Context, g *graph.Graph, format Format, opts Options) ([]byte, error) {
	dot := ToDOT(g, opts)
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return RenderPNG(ctx, dot)
	case FormatPDF:
		return RenderPDF(ctx, dot)
	}
	return nil, fmt.Errorf("unknown render format %q", format)
}
