package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/tachyview/pkg/config"
	"github.com/matzehuels/tachyview/pkg/graph"
	"github.com/matzehuels/tachyview/pkg/toolkit"
	"github.com/matzehuels/tachyview/pkg/toolkit/toolkittest"
	"github.com/matzehuels/tachyview/pkg/vtk"
)

// testCLI returns a CLI writing status lines to out, with its cache under a
// temp dir and the given fake toolkit.
func testCLI(t *testing.T, tk toolkit.Toolkit) (*CLI, *bytes.Buffer) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	var logs, out bytes.Buffer
	c := New(&logs, LogInfo)
	c.Out = &out
	c.newToolkit = func(config.ToolkitConfig, *log.Logger) toolkit.Toolkit { return tk }
	return c, &out
}

func execute(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func TestParseTriples(t *testing.T) {
	tests := []struct {
		in   string
		want [3]int
		ok   bool
	}{
		{"41,41,41", [3]int{41, 41, 41}, true},
		{"512x512x128", [3]int{512, 512, 128}, true},
		{"64", [3]int{64, 64, 64}, true},
		{"1, 2, 3", [3]int{1, 2, 3}, true},
		{"1,2", [3]int{}, false},
		{"a,b,c", [3]int{}, false},
	}
	for _, tt := range tests {
		got, err := parseIntTriple(tt.in)
		if (err == nil) != tt.ok || (tt.ok && got != tt.want) {
			t.Errorf("parseIntTriple(%q) = %v, %v", tt.in, got, err)
		}
	}

	f, err := parseFloatTriple("-20.5,-20.5,-20.5")
	if err != nil || f != [3]float64{-20.5, -20.5, -20.5} {
		t.Errorf("parseFloatTriple = %v, %v", f, err)
	}
}

func TestRootCommand(t *testing.T) {
	c, _ := testCLI(t, nil)
	root := c.RootCommand()

	want := []string{"pack", "resample", "extract", "inspect", "render", "cache", "completion"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil || root.PersistentFlags().Lookup("no-cache") == nil {
		t.Error("missing persistent flags")
	}
}

func TestPackCommand(t *testing.T) {
	c, out := testCLI(t, nil)
	dir := t.TempDir()
	raw := filepath.Join(dir, "skull.raw")
	if err := os.WriteFile(raw, []byte{0, 1, 2, 3, 4, 5, 6, 7}, 0o644); err != nil {
		t.Fatal(err)
	}
	vti := filepath.Join(dir, "out", "skull.vti")

	if err := execute(t, c, "pack", raw, "--dims", "2,2,2", "--origin", "-0.5,-0.5,-0.5", "-o", vti); err != nil {
		t.Fatalf("pack: %v", err)
	}
	im, err := vtk.ReadImageDataFile(vti)
	if err != nil {
		t.Fatal(err)
	}
	if im.Origin != [3]float64{-0.5, -0.5, -0.5} || im.Scalars().Value(im.Index(1, 0, 1)) != 5 {
		t.Errorf("origin %v, scalar(1,0,1) = %v", im.Origin, im.Scalars().Value(im.Index(1, 0, 1)))
	}
	if !strings.Contains(out.String(), "Packed 8 samples") {
		t.Errorf("output = %q", out.String())
	}
}

func TestPackCommandFromConfig(t *testing.T) {
	c, _ := testCLI(t, nil)
	dir := t.TempDir()
	raw := filepath.Join(dir, "vol.raw")
	if err := os.WriteFile(raw, make([]byte, 12), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := filepath.Join(dir, "tachyview.toml")
	if err := os.WriteFile(cfg, []byte("[pack]\ndims = [3, 2, 2]\nscalar_type = \"UInt8\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, c, "pack", raw, "-c", cfg); err != nil {
		t.Fatalf("pack: %v", err)
	}
	im, err := vtk.ReadImageDataFile(filepath.Join(dir, "vol.vti"))
	if err != nil {
		t.Fatal(err)
	}
	if im.Dims != [3]int{3, 2, 2} || im.Scalars().Type != vtk.UInt8 {
		t.Errorf("dims %v, type %s", im.Dims, im.Scalars().Type)
	}
}

func TestPackCommandRequiresDims(t *testing.T) {
	c, _ := testCLI(t, nil)
	raw := filepath.Join(t.TempDir(), "vol.raw")
	if err := os.WriteFile(raw, []byte{1}, 0o644); err != nil {
		t.Fatal(err)
	}
	err := execute(t, c, "pack", raw)
	if err == nil || !strings.Contains(err.Error(), "--dims") {
		t.Errorf("err = %v, want a --dims error", err)
	}
}

func mergeTreeToolkit() *toolkittest.Toolkit {
	nodes := &vtk.Mesh{
		Kind:   vtk.KindPolyData,
		Points: []r3.Vec{{}, {Z: 1}},
		Cells:  []vtk.Cell{{Type: vtk.CellVertex, Points: []int{0}}, {Type: vtk.CellVertex, Points: []int{1}}},
	}
	nodes.PointData.Add(vtk.NewDataArray("CriticalType", vtk.Int32, []float64{0, 3}))
	arcs := &vtk.Mesh{
		Kind:   vtk.KindUnstructuredGrid,
		Points: []r3.Vec{{}, {Z: 1}},
		Cells:  []vtk.Cell{{Type: vtk.CellLine, Points: []int{0, 1}}},
	}
	return &toolkittest.Toolkit{
		Filters: map[string]*toolkittest.FilterSpec{
			"TTKFTMTree": {
				Properties: map[string][]any{"TreeType": nil, "WithSegmentation": nil},
				Outputs: []*toolkit.Dataset{
					{Kind: vtk.KindPolyData, Mesh: nodes},
					{Kind: vtk.KindUnstructuredGrid, Mesh: arcs},
				},
			},
		},
	}
}

func writeVolume(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "vol.vti")
	im := vtk.NewImageData([3]int{2, 1, 1}, [3]float64{}, [3]float64{1, 1, 1})
	im.PointData.SetScalars(vtk.NewDataArray("Scalars_", vtk.UInt16, []float64{3, 9}))
	if err := vtk.WriteImageDataFile(path, im); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractAndRenderCommands(t *testing.T) {
	tk := mergeTreeToolkit()
	c, out := testCLI(t, tk)
	dir := t.TempDir()
	vol := writeVolume(t, dir)

	if err := execute(t, c, "extract", vol, "--tree", "contour"); err != nil {
		t.Fatalf("extract: %v", err)
	}
	graphPath := filepath.Join(dir, "vol_graph.json")
	g, err := graph.ReadFile(graphPath)
	if err != nil {
		t.Fatal(err)
	}
	if g.NodeCount() != 2 || g.LinkCount() != 1 {
		t.Errorf("graph: %d nodes, %d links", g.NodeCount(), g.LinkCount())
	}
	if tk.Created()[0].Props["TreeType"] != "Contour Tree" {
		t.Errorf("TreeType = %v", tk.Created()[0].Props["TreeType"])
	}
	if seg := tk.Created()[0].Props["WithSegmentation"]; seg != 1 {
		t.Errorf("WithSegmentation = %v, want 1 by default", seg)
	}
	if !strings.Contains(out.String(), "fresh") {
		t.Errorf("first extract should be computed: %q", out.String())
	}

	out.Reset()
	if err := execute(t, c, "extract", vol, "--tree", "contour"); err != nil {
		t.Fatalf("extract again: %v", err)
	}
	if !strings.Contains(out.String(), "cached") || len(tk.Created()) != 1 {
		t.Errorf("second extract should be cached: %q", out.String())
	}

	dot := filepath.Join(dir, "tree.dot")
	if err := execute(t, c, "render", graphPath, "-o", dot); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, _ := os.ReadFile(dot)
	if !strings.Contains(string(data), "n0 -> n1;") {
		t.Errorf("dot output:\n%s", data)
	}
}

func TestInspectCommand(t *testing.T) {
	c, out := testCLI(t, nil)
	dir := t.TempDir()
	vol := writeVolume(t, dir)

	if err := execute(t, c, "inspect", vol); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"2 x 1 x 1", "Scalars_", "3 .. 9"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("inspect output missing %q:\n%s", want, out.String())
		}
	}

	g := &graph.Graph{
		Nodes: []graph.Node{{ID: 0, Type: 0}, {ID: 1, Type: 3}, {ID: 2, Type: 3}},
		Links: []graph.Link{{Source: 0, Target: 1}},
	}
	gp := filepath.Join(dir, "g.json")
	if err := graph.WriteFile(g, gp); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := execute(t, c, "inspect", gp); err != nil {
		t.Fatalf("inspect graph: %v", err)
	}
	if !strings.Contains(out.String(), "maximum") {
		t.Errorf("graph summary missing type names:\n%s", out.String())
	}
}

func TestCacheCommands(t *testing.T) {
	c, out := testCLI(t, mergeTreeToolkit())
	dir := t.TempDir()
	vol := writeVolume(t, dir)
	if err := execute(t, c, "extract", vol); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := execute(t, c, "cache", "path"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out.String()), appName) {
		t.Errorf("cache path = %q", out.String())
	}

	out.Reset()
	if err := execute(t, c, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Cleared 1 cached entries") {
		t.Errorf("cache clear output = %q", out.String())
	}
}

func TestExtractSegmentationFlag(t *testing.T) {
	tk := mergeTreeToolkit()
	c, _ := testCLI(t, tk)
	vol := writeVolume(t, t.TempDir())
	if err := execute(t, c, "extract", vol, "--no-cache", "--segmentation=false"); err != nil {
		t.Fatal(err)
	}
	if seg := tk.Created()[0].Props["WithSegmentation"]; seg != 0 {
		t.Errorf("WithSegmentation = %v, want 0", seg)
	}
}

func TestNoCacheFlag(t *testing.T) {
	tk := mergeTreeToolkit()
	c, _ := testCLI(t, tk)
	vol := writeVolume(t, t.TempDir())
	for i := 0; i < 2; i++ {
		if err := execute(t, c, "extract", vol, "--no-cache"); err != nil {
			t.Fatal(err)
		}
	}
	if len(tk.Created()) != 2 {
		t.Errorf("--no-cache should recompute, filters created = %d", len(tk.Created()))
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("test") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("test") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("test") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("packed skull.raw")
	if !strings.Contains(buf.String(), "packed skull.raw (") {
		t.Errorf("progress output = %q", buf.String())
	}
}

func TestSpin(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")
	err := spin(context.Background(), &buf, "Working...", func() error {
		time.Sleep(250 * time.Millisecond)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("spin err = %v", err)
	}
	if !strings.Contains(buf.String(), "Working...") {
		t.Errorf("spinner never drew: %q", buf.String())
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, &bytes.Buffer{}, "Testing...")
	s.Start()
	cancel()
	s.Stop()
	s.Stop()
}
