package paraview

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/tachyview/pkg/mergetree"
	"github.com/matzehuels/tachyview/pkg/toolkit"
	"github.com/matzehuels/tachyview/pkg/vtk"
)

// fakePV writes a shell script standing in for pvpython. The body runs with
// $dir set to the job's scratch directory.
func fakePV(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell fake requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "pvpython")
	script := "#!/bin/sh\ndir=$(dirname \"$2\")\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestToolkit(exe string) *Toolkit {
	return New(Config{Executable: exe, Logger: log.New(os.Stderr)})
}

func TestSourcesCached(t *testing.T) {
	counter := filepath.Join(t.TempDir(), "calls")
	exe := fakePV(t, `echo x >> `+counter+`
cat > "$dir/result.json" <<'EOF'
{"sources": ["Contour", "TTKFTMTree", "TTKMergeTreeClustering"]}
EOF`)
	tk := newTestToolkit(exe)

	for i := 0; i < 2; i++ {
		got, err := tk.Sources(context.Background())
		if err != nil {
			t.Fatalf("Sources: %v", err)
		}
		if len(got) != 3 || got[1] != "TTKFTMTree" {
			t.Errorf("sources = %v", got)
		}
	}
	data, _ := os.ReadFile(counter)
	if n := strings.Count(string(data), "x"); n != 1 {
		t.Errorf("pvpython ran %d times, want 1", n)
	}
}

func TestSetPropertyValidation(t *testing.T) {
	exe := fakePV(t, `cat > "$dir/result.json" <<'EOF'
{"properties": {"TreeType": {"available": ["Join Tree", "Split Tree"]}, "WithSegmentation": {"available": []}}, "ports": 2}
EOF`)
	tk := newTestToolkit(exe)

	f, err := tk.NewFilter(context.Background(), "TTKFTMTree", toolkit.Input{Path: "vol.vti", Kind: vtk.KindImageData})
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if err := f.SetProperty("TreeType", "Join Tree"); err != nil {
		t.Errorf("valid symbolic value rejected: %v", err)
	}
	if err := f.SetProperty("TreeType", "JoinTree"); !errors.Is(err, toolkit.ErrInvalidValue) {
		t.Errorf("err = %v, want ErrInvalidValue", err)
	}
	if err := f.SetProperty("TreeType", 0); err != nil {
		t.Errorf("numeric value rejected: %v", err)
	}
	if err := f.SetProperty("Bogus", 1); !errors.Is(err, toolkit.ErrUnknownProperty) {
		t.Errorf("err = %v, want ErrUnknownProperty", err)
	}
}

func TestUpdateReadsOutputs(t *testing.T) {
	fixture := filepath.Join(t.TempDir(), "nodes.vtp")
	nodes := &vtk.Mesh{Kind: vtk.KindPolyData, Points: []r3.Vec{{X: 1, Y: 2, Z: 3}}}
	if err := vtk.WriteMeshFile(fixture, nodes); err != nil {
		t.Fatal(err)
	}

	exe := fakePV(t, `if grep -q '"mode":"describe"' "$2"; then
cat > "$dir/result.json" <<'EOF'
{"properties": {"TreeType": {"available": []}}, "ports": 1}
EOF
else
cp `+fixture+` "$dir/out/port0.vtp"
cat > "$dir/result.json" <<EOF
{"outputs": [{"port": 0, "kind": "PolyData", "path": "$dir/out/port0.vtp"}]}
EOF
fi`)
	tk := newTestToolkit(exe)

	f, err := tk.NewFilter(context.Background(), "TTKFTMTree", toolkit.Input{Path: "vol.vti", Kind: vtk.KindImageData})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Output(0); err == nil {
		t.Error("Output before Update should fail")
	}
	if err := f.Update(context.Background()); err != nil {
		t.Fatalf("Update: %v", err)
	}
	m, err := toolkit.MeshOutput(f, 0)
	if err != nil {
		t.Fatalf("MeshOutput: %v", err)
	}
	if m.NumPoints() != 1 || m.Point(0) != (r3.Vec{X: 1, Y: 2, Z: 3}) {
		t.Errorf("points = %v", m.Points)
	}
	if _, err := f.Output(1); !errors.Is(err, toolkit.ErrNoOutput) {
		t.Errorf("port 1: err = %v, want ErrNoOutput", err)
	}
}

func TestTreeTypeRejectedOnUpdate(t *testing.T) {
	dir := t.TempDir()
	nodesPath := filepath.Join(dir, "nodes.vtp")
	arcsPath := filepath.Join(dir, "arcs.vtu")
	nodes := &vtk.Mesh{Kind: vtk.KindPolyData, Points: []r3.Vec{{}, {X: 10}}}
	arcs := &vtk.Mesh{
		Kind:   vtk.KindUnstructuredGrid,
		Points: []r3.Vec{{}, {X: 10}},
		Cells:  []vtk.Cell{{Type: vtk.CellLine, Points: []int{0, 1}}},
	}
	if err := vtk.WriteMeshFile(nodesPath, nodes); err != nil {
		t.Fatal(err)
	}
	if err := vtk.WriteMeshFile(arcsPath, arcs); err != nil {
		t.Fatal(err)
	}
	runs := filepath.Join(dir, "runs")

	// TreeType reports no enumeration, so the symbolic name passes
	// SetProperty and is only refused when the filter runs.
	exe := fakePV(t, `if grep -q '"mode":"sources"' "$2"; then
cat > "$dir/result.json" <<'EOF'
{"sources": ["TTKFTMTree"]}
EOF
elif grep -q '"mode":"describe"' "$2"; then
cat > "$dir/result.json" <<'EOF'
{"properties": {"TreeType": {"available": []}, "WithSegmentation": {"available": []}}, "ports": 2}
EOF
else
echo x >> `+runs+`
if grep -q '"Join Tree"' "$2"; then
cat > "$dir/result.json" <<'EOF'
{"error": {"kind": "invalid_value", "message": "value must be an integer", "property": "TreeType"}}
EOF
exit 1
fi
cp `+nodesPath+` "$dir/out/port0.vtp"
cp `+arcsPath+` "$dir/out/port1.vtu"
cat > "$dir/result.json" <<EOF
{"outputs": [{"port": 0, "kind": "PolyData", "path": "$dir/out/port0.vtp"}, {"port": 1, "kind": "UnstructuredGrid", "path": "$dir/out/port1.vtu"}]}
EOF
fi`)
	c := mergetree.NewToolkitComputer(newTestToolkit(exe), log.New(&strings.Builder{}))

	gotNodes, gotArcs, err := c.ComputeMergeTree(context.Background(), "vol.vti", mergetree.JoinTree, true)
	if err != nil {
		t.Fatalf("ComputeMergeTree: %v", err)
	}
	if gotNodes.NumPoints() != 2 || gotArcs.NumCells() != 1 {
		t.Errorf("got %d nodes, %d arcs", gotNodes.NumPoints(), gotArcs.NumCells())
	}
	data, _ := os.ReadFile(runs)
	if n := strings.Count(string(data), "x"); n != 2 {
		t.Errorf("filter ran %d times, want 2 (symbolic, then numeric)", n)
	}
}

func TestScriptErrorMapping(t *testing.T) {
	exe := fakePV(t, `cat > "$dir/result.json" <<'EOF'
{"error": {"kind": "unknown_source", "message": "TTKFTMTree", "property": null}}
EOF
exit 3`)
	tk := newTestToolkit(exe)

	_, err := tk.NewFilter(context.Background(), "TTKFTMTree", toolkit.Input{Path: "vol.vti", Kind: vtk.KindImageData})
	if !errors.Is(err, toolkit.ErrUnknownSource) {
		t.Errorf("err = %v, want ErrUnknownSource", err)
	}

	rejected := (&scriptError{Kind: "invalid_value", Message: "bad", Property: "TreeType"}).err()
	if !toolkit.IsRejectedValue(rejected, "TreeType") || toolkit.IsRejectedValue(rejected, "WithSegmentation") {
		t.Errorf("invalid_value mapped to %v", rejected)
	}
}

func TestCrashReportsStderr(t *testing.T) {
	exe := fakePV(t, `echo "Segmentation fault in vtkFTMTree" >&2
exit 139`)
	tk := newTestToolkit(exe)

	_, err := tk.Sources(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Segmentation fault") {
		t.Errorf("err = %v, want stderr tail", err)
	}
}

func TestCheckMissingExecutable(t *testing.T) {
	tk := newTestToolkit(filepath.Join(t.TempDir(), "no-such-pvpython"))
	if err := tk.Check(); err == nil {
		t.Error("Check should fail for a missing executable")
	}
}

func TestTail(t *testing.T) {
	if got := tail("a\nb\nc\n", 2); got != "b\nc" {
		t.Errorf("tail = %q", got)
	}
}
