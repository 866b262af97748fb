package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/tachyview/pkg/graph"
)

func sampleGraph() *graph.Graph {
	return &graph.Graph{
		Nodes: []graph.Node{
			{ID: 0, Type: 0, Scalar: 1.5},
			{ID: 1, Type: 1, Scalar: 4, X: 1, Y: 2, Z: 3},
			{ID: 2, Type: 3, Scalar: 9},
		},
		Links: []graph.Link{{Source: 0, Target: 1}, {Source: 1, Target: 2}},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleGraph(), Options{})

	for _, want := range []string{
		"digraph G {",
		"rankdir=BT;",
		`n0 [label="0\nminimum", fillcolor="#4c72b0", fontcolor=white];`,
		`n2 [label="2\nmaximum"`,
		"n0 -> n1;",
		"n1 -> n2;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "scalar:") {
		t.Error("plain labels should not include scalars")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(sampleGraph(), Options{Detailed: true, RankDir: "TB"})
	if !strings.Contains(dot, `scalar: 4\n(1, 2, 3)`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
	if !strings.Contains(dot, "rankdir=TB;") {
		t.Error("RankDir not applied")
	}
}

func TestToDOTEmpty(t *testing.T) {
	dot := ToDOT(&graph.Graph{}, Options{})
	if !strings.HasPrefix(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("unexpected DOT:\n%s", dot)
	}
}

func TestTypeName(t *testing.T) {
	tests := map[int]string{0: "minimum", 2: "2-saddle", 3: "maximum", 42: "type 42"}
	for in, want := range tests {
		if got := TypeName(in); got != want {
			t.Errorf("TypeName(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"tree.svg", FormatSVG, true},
		{"out/tree.PNG", FormatPNG, true},
		{"tree.dot", FormatDOT, true},
		{"tree.pdf", FormatPDF, true},
		{"tree.gif", "", false},
		{"tree", "", false},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, %v", tt.path, got, err)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	out, err := Render(context.Background(), sampleGraph(), FormatSVG, Options{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(out, []byte("<svg")) {
		t.Errorf("output is not SVG: %.200s", out)
	}
	if !bytes.Contains(out, []byte(`viewBox="0 0 `)) {
		t.Errorf("viewBox not normalized: %.200s", out)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116"><g/></svg>`
	if out != want {
		t.Errorf("got  %s\nwant %s", out, want)
	}
}
