package vtk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func cubeImage(t ScalarType) *ImageData {
	im := NewImageData([3]int{2, 2, 2}, [3]float64{-0.5, -0.5, -0.5}, [3]float64{1, 1, 1})
	im.PointData.SetScalars(NewDataArray("Scalars_", t, []float64{0, 1, 2, 3, 4, 5, 6, 7}))
	return im
}

func TestImageDataRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatASCII, FormatBinary, FormatCompressed} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteImageData(&buf, cubeImage(UInt16), WithFormat(format)); err != nil {
				t.Fatalf("WriteImageData: %v", err)
			}

			got, err := ReadImageData(&buf)
			if err != nil {
				t.Fatalf("ReadImageData: %v", err)
			}
			if got.Dims != [3]int{2, 2, 2} {
				t.Errorf("Dims = %v", got.Dims)
			}
			if got.Origin != [3]float64{-0.5, -0.5, -0.5} {
				t.Errorf("Origin = %v", got.Origin)
			}
			s := got.Scalars()
			if s == nil || s.Name != "Scalars_" || s.Type != UInt16 {
				t.Fatalf("Scalars = %+v", s)
			}
			if v := s.Value(got.Index(1, 0, 1)); v != 5 {
				t.Errorf("value at (1,0,1) = %v, want 5", v)
			}
		})
	}
}

func TestCompressedMultiBlock(t *testing.T) {
	n := 3*DefaultBlockSize/2 + 7
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i % 251)
	}
	im := NewImageData([3]int{n, 1, 1}, [3]float64{}, [3]float64{1, 1, 1})
	im.PointData.SetScalars(NewDataArray("v", UInt8, values))

	var buf bytes.Buffer
	if err := WriteImageData(&buf, im, WithFormat(FormatCompressed)); err != nil {
		t.Fatal(err)
	}
	got, err := ReadImageData(&buf)
	if err != nil {
		t.Fatal(err)
	}
	gv := got.Scalars().Values
	if len(gv) != n {
		t.Fatalf("len = %d, want %d", len(gv), n)
	}
	for i := range values {
		if gv[i] != values[i] {
			t.Fatalf("value %d = %v, want %v", i, gv[i], values[i])
		}
	}
}

func TestReadImageDataExtentOffset(t *testing.T) {
	doc := `<?xml version="1.0"?>
<VTKFile type="ImageData" version="0.1" byte_order="LittleEndian">
  <ImageData WholeExtent="2 3 0 0 0 0" Origin="10 0 0" Spacing="0.5 1 1">
    <Piece Extent="2 3 0 0 0 0">
      <PointData Scalars="d">
        <DataArray type="Float32" Name="d" format="ascii">1.5 2.5</DataArray>
      </PointData>
    </Piece>
  </ImageData>
</VTKFile>`
	im, err := ReadImageData(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if im.Dims != [3]int{2, 1, 1} {
		t.Errorf("Dims = %v", im.Dims)
	}
	if im.Origin[0] != 11 {
		t.Errorf("Origin.x = %v, want 11", im.Origin[0])
	}
	b := im.Bounds()
	if b[0] != 11 || b[1] != 11.5 {
		t.Errorf("Bounds x = [%v, %v]", b[0], b[1])
	}
}

func TestReadAppendedBase64(t *testing.T) {
	c := codec{order: binary.LittleEndian, headerSize: 4}
	a, _ := c.encodeBinary(c.encodeValues([]float64{1, 2, 3}, Int32))
	b, _ := c.encodeBinary(c.encodeValues([]float64{0.25, 0.5, 9}, Float64))

	doc := `<VTKFile type="ImageData" version="0.1" byte_order="LittleEndian" header_type="UInt32">
  <ImageData WholeExtent="0 2 0 0 0 0" Origin="0 0 0" Spacing="1 1 1">
    <Piece Extent="0 2 0 0 0 0">
      <PointData Scalars="a">
        <DataArray type="Int32" Name="a" format="appended" offset="0"/>
        <DataArray type="Float64" Name="b" format="appended" offset="` + strconv.Itoa(len(a)) + `"/>
      </PointData>
    </Piece>
  </ImageData>
  <AppendedData encoding="base64">
   _` + a + b + `
  </AppendedData>
</VTKFile>`
	im, err := ReadImageData(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if got := im.Scalars().Values; len(got) != 3 || got[2] != 3 {
		t.Errorf("a = %v", got)
	}
	bArr, ok := im.PointData.Array("b")
	if !ok || bArr.Values[2] != 9 {
		t.Errorf("b = %+v", bArr)
	}
}

func TestSingleByteArrayUInt32Header(t *testing.T) {
	c := codec{order: binary.LittleEndian, headerSize: 4}
	enc, err := c.encodeBinary([]byte{42})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := c.decodeBinary(enc)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 1 || raw[0] != 42 {
		t.Errorf("raw = %v", raw)
	}
}

func TestRawAppendedUnsupported(t *testing.T) {
	doc := `<VTKFile type="ImageData"><ImageData/><AppendedData encoding="raw">_xx</AppendedData></VTKFile>`
	_, err := ReadImageData(strings.NewReader(doc))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestReadImageDataWrongKind(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMesh(&buf, &Mesh{Kind: KindPolyData}); err != nil {
		t.Fatal(err)
	}
	_, err := ReadImageData(&buf)
	if !errors.Is(err, ErrKindMismatch) {
		t.Errorf("err = %v, want ErrKindMismatch", err)
	}
}

func TestImageDataValidate(t *testing.T) {
	im := NewImageData([3]int{2, 2, 2}, [3]float64{}, [3]float64{1, 1, 1})
	im.PointData.SetScalars(NewDataArray("short", UInt8, []float64{1, 2, 3}))
	if err := WriteImageData(&bytes.Buffer{}, im); !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func arcsMesh() *Mesh {
	m := &Mesh{
		Kind: KindUnstructuredGrid,
		Points: []r3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 1, Y: 1, Z: 0},
		},
		Cells: []Cell{
			{Type: CellLine, Points: []int{0, 1}},
			{Type: CellPolyLine, Points: []int{1, 2, 0}},
			{Type: CellVertex, Points: []int{2}},
		},
	}
	m.PointData.Add(NewDataArray("Scalar", Float32, []float64{0.5, 1.5, 2.5}))
	m.CellData.Add(NewDataArray("SegmentationId", Int32, []float64{0, 1, 2}))
	return m
}

func TestMeshRoundTrip(t *testing.T) {
	for _, kind := range []Kind{KindUnstructuredGrid, KindPolyData} {
		for _, format := range []Format{FormatASCII, FormatBinary, FormatCompressed} {
			t.Run(string(kind)+"/"+string(format), func(t *testing.T) {
				src := arcsMesh()
				src.Kind = kind

				var buf bytes.Buffer
				if err := WriteMesh(&buf, src, WithFormat(format)); err != nil {
					t.Fatalf("WriteMesh: %v", err)
				}
				got, err := ReadMesh(&buf)
				if err != nil {
					t.Fatalf("ReadMesh: %v", err)
				}
				if got.Kind != kind {
					t.Errorf("Kind = %q, want %q", got.Kind, kind)
				}
				if got.NumPoints() != 3 || got.NumCells() != 3 {
					t.Fatalf("points=%d cells=%d", got.NumPoints(), got.NumCells())
				}
				if p := got.Point(2); p != (r3.Vec{X: 1, Y: 1}) {
					t.Errorf("point 2 = %v", p)
				}

				total := 0
				for i := 0; i < got.NumCells(); i++ {
					total += len(got.CellPoints(i))
				}
				if total != 6 {
					t.Errorf("total cell points = %d, want 6", total)
				}
				if !got.PointData.HasArray("Scalar") || !got.CellData.HasArray("SegmentationId") {
					t.Errorf("arrays = %v / %v", got.PointData.Names(), got.CellData.Names())
				}
			})
		}
	}
}

func TestPolyDataCellOrder(t *testing.T) {
	var buf bytes.Buffer
	src := arcsMesh()
	src.Kind = KindPolyData
	if err := WriteMesh(&buf, src); err != nil {
		t.Fatal(err)
	}
	got, err := ReadMesh(&buf)
	if err != nil {
		t.Fatal(err)
	}
	want := []CellType{CellVertex, CellLine, CellPolyLine}
	for i, ct := range want {
		if got.Cells[i].Type != ct {
			t.Errorf("cell %d type = %d, want %d", i, got.Cells[i].Type, ct)
		}
	}
	seg, _ := got.CellData.Array("SegmentationId")
	if seg.Values[0] != 2 || seg.Values[1] != 0 {
		t.Errorf("cell data not regrouped with cells: %v", seg.Values)
	}
}

func TestSniffFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "mislabelled.vtp")
	if err := WriteMeshFile(path, arcsMesh()); err != nil {
		t.Fatal(err)
	}
	kind, err := SniffFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindUnstructuredGrid {
		t.Errorf("kind = %q, want UnstructuredGrid", kind)
	}

	if _, err := Sniff(strings.NewReader("<html></html>")); !errors.Is(err, ErrMalformed) {
		t.Errorf("non-VTK root: err = %v", err)
	}
}

func TestIsVTK(t *testing.T) {
	if !IsVTK([]byte(`<?xml version="1.0"?><VTKFile type="ImageData">`)) {
		t.Error("expected VTK header to be detected")
	}
	if IsVTK([]byte("OFF\n8 6 0\n")) {
		t.Error("OFF header detected as VTK")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("Compressed"); err != nil || f != FormatCompressed {
		t.Errorf("ParseFormat(Compressed) = %q, %v", f, err)
	}
	if _, err := ParseFormat("hdf5"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestScalarTypeLimits(t *testing.T) {
	tests := []struct {
		typ    ScalarType
		lo, hi float64
		size   int
	}{
		{UInt8, 0, 255, 1},
		{UInt16, 0, 65535, 2},
		{Int16, -32768, 32767, 2},
	}
	for _, tt := range tests {
		lo, hi := tt.typ.Limits()
		if lo != tt.lo || hi != tt.hi {
			t.Errorf("%s limits = [%v, %v]", tt.typ, lo, hi)
		}
		if tt.typ.Size() != tt.size {
			t.Errorf("%s size = %d", tt.typ, tt.typ.Size())
		}
	}
	if _, err := ParseScalarType("UnsignedShort"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("legacy alias should be rejected, got %v", err)
	}
}
