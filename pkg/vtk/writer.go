package vtk

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// Format selects how DataArrays are encoded on write.
type Format string

const (
	// FormatASCII writes whitespace separated numbers.
	FormatASCII Format = "ascii"
	// FormatBinary writes base64 encoded little-endian data.
	FormatBinary Format = "binary"
	// FormatCompressed writes base64 encoded zlib blocks.
	FormatCompressed Format = "compressed"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatASCII, FormatBinary, FormatCompressed:
		return f, nil
	}
	return "", fmt.Errorf("%w: output format %q (want ascii, binary or compressed)", ErrUnsupported, s)
}

type writeConfig struct {
	format Format
	level  int
}

// WriteOption configures a writer.
type WriteOption func(*writeConfig)

// WithFormat sets the array encoding. The default is FormatBinary.
func WithFormat(f Format) WriteOption {
	return func(c *writeConfig) { c.format = f }
}

// WithCompressionLevel sets the zlib level used by FormatCompressed.
func WithCompressionLevel(level int) WriteOption {
	return func(c *writeConfig) { c.level = level }
}

type encoder struct {
	w      *bufio.Writer
	format Format
	codec  codec
	err    error
}

func newEncoder(w io.Writer, opts []WriteOption) *encoder {
	cfg := writeConfig{format: FormatBinary, level: zlib.DefaultCompression}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &encoder{
		w:      bufio.NewWriter(w),
		format: cfg.format,
		codec: codec{
			order:      binary.LittleEndian,
			headerSize: 8,
			compressed: cfg.format == FormatCompressed,
			level:      cfg.level,
			blockSize:  DefaultBlockSize,
		},
	}
}

func (e *encoder) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *encoder) header(kind Kind) {
	e.printf("<?xml version=\"1.0\"?>\n")
	e.printf(`<VTKFile type="%s" version="1.0" byte_order="LittleEndian" header_type="UInt64"`, kind)
	if e.codec.compressed {
		e.printf(` compressor="vtkZLibDataCompressor"`)
	}
	e.printf(">\n")
}

func (e *encoder) array(indent string, a *DataArray) {
	if e.err != nil {
		return
	}
	if a.Type.Size() == 0 {
		e.err = fmt.Errorf("%w: array %q type %q", ErrUnsupported, a.Name, a.Type)
		return
	}
	format := "ascii"
	if e.format != FormatASCII {
		format = "binary"
	}
	e.printf(`%s<DataArray type="%s" Name="%s"`, indent, a.Type, xmlEscape(a.Name))
	if a.NumComponents() > 1 {
		e.printf(` NumberOfComponents="%d"`, a.NumComponents())
	}
	lo, hi := a.Range()
	e.printf(` format="%s" RangeMin="%s" RangeMax="%s">`+"\n", format, formatValue(lo, Float64), formatValue(hi, Float64))

	if e.format == FormatASCII {
		const perLine = 12
		for i := 0; i < len(a.Values); i += perLine {
			end := min(i+perLine, len(a.Values))
			parts := make([]string, 0, end-i)
			for _, v := range a.Values[i:end] {
				parts = append(parts, formatValue(v, a.Type))
			}
			e.printf("%s  %s\n", indent, strings.Join(parts, " "))
		}
	} else {
		enc, err := e.codec.encodeBinary(e.codec.encodeValues(a.Values, a.Type))
		if err != nil {
			e.err = err
			return
		}
		e.printf("%s  %s\n", indent, enc)
	}
	e.printf("%s</DataArray>\n", indent)
}

func (e *encoder) fieldData(tag, indent string, fd *FieldData) {
	if len(fd.Arrays) == 0 {
		e.printf("%s<%s>\n%s</%s>\n", indent, tag, indent, tag)
		return
	}
	e.printf("%s<%s", indent, tag)
	if fd.ActiveScalars != "" {
		e.printf(` Scalars="%s"`, xmlEscape(fd.ActiveScalars))
	}
	e.printf(">\n")
	for _, a := range fd.Arrays {
		e.array(indent+"  ", a)
	}
	e.printf("%s</%s>\n", indent, tag)
}

func (e *encoder) flush() error {
	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

// WriteImageData encodes im as a VTK XML ImageData document.
func WriteImageData(w io.Writer, im *ImageData, opts ...WriteOption) error {
	if err := im.Validate(); err != nil {
		return err
	}
	e := newEncoder(w, opts)
	ext := im.Extent()
	extent := fmt.Sprintf("%d %d %d %d %d %d", ext[0], ext[1], ext[2], ext[3], ext[4], ext[5])

	e.header(KindImageData)
	e.printf(`  <ImageData WholeExtent="%s" Origin="%s" Spacing="%s" Direction="1 0 0 0 1 0 0 0 1">`+"\n",
		extent, formatVec3(im.Origin), formatVec3(im.Spacing))
	e.printf(`    <Piece Extent="%s">`+"\n", extent)
	e.fieldData("PointData", "      ", &im.PointData)
	e.fieldData("CellData", "      ", &FieldData{})
	e.printf("    </Piece>\n  </ImageData>\n</VTKFile>\n")
	return e.flush()
}

// WriteImageDataFile writes im to path, creating parent directories.
func WriteImageDataFile(path string, im *ImageData, opts ...WriteOption) error {
	return writeFile(path, func(w io.Writer) error { return WriteImageData(w, im, opts...) })
}

// WriteMesh encodes m as PolyData or UnstructuredGrid according to m.Kind.
// PolyData output groups cells into Verts, Lines and Polys; triangle strips
// are written as polys.
func WriteMesh(w io.Writer, m *Mesh, opts ...WriteOption) error {
	kind := m.Kind
	if kind == "" {
		kind = KindPolyData
	}
	if kind != KindPolyData && kind != KindUnstructuredGrid {
		return fmt.Errorf("%w: cannot write %q as a mesh", ErrKindMismatch, kind)
	}

	e := newEncoder(w, opts)
	e.header(kind)
	e.printf("  <%s>\n", kind)

	if kind == KindPolyData {
		var verts, lines, polys []Cell
		var vi, li, pi []int
		for i, c := range m.Cells {
			switch c.Type {
			case CellVertex, CellPolyVertex:
				verts, vi = append(verts, c), append(vi, i)
			case CellLine, CellPolyLine:
				lines, li = append(lines, c), append(li, i)
			default:
				polys, pi = append(polys, c), append(pi, i)
			}
		}
		// Cell data follows the regrouped cell order.
		cellData := permute(&m.CellData, append(append(vi, li...), pi...))

		e.printf(`    <Piece NumberOfPoints="%d" NumberOfVerts="%d" NumberOfLines="%d" NumberOfStrips="0" NumberOfPolys="%d">`+"\n",
			len(m.Points), len(verts), len(lines), len(polys))
		e.fieldData("PointData", "      ", &m.PointData)
		e.fieldData("CellData", "      ", cellData)
		e.points(m)
		e.cells("Verts", verts, false)
		e.cells("Lines", lines, false)
		e.cells("Strips", nil, false)
		e.cells("Polys", polys, false)
	} else {
		e.printf(`    <Piece NumberOfPoints="%d" NumberOfCells="%d">`+"\n", len(m.Points), len(m.Cells))
		e.fieldData("PointData", "      ", &m.PointData)
		e.fieldData("CellData", "      ", &m.CellData)
		e.points(m)
		e.cells("Cells", m.Cells, true)
	}

	e.printf("    </Piece>\n  </%s>\n</VTKFile>\n", kind)
	return e.flush()
}

// WriteMeshFile writes m to path, creating parent directories.
func WriteMeshFile(path string, m *Mesh, opts ...WriteOption) error {
	return writeFile(path, func(w io.Writer) error { return WriteMesh(w, m, opts...) })
}

func (e *encoder) points(m *Mesh) {
	coords := make([]float64, 0, 3*len(m.Points))
	for _, p := range m.Points {
		coords = append(coords, p.X, p.Y, p.Z)
	}
	e.printf("      <Points>\n")
	e.array("        ", &DataArray{Name: "Points", Type: Float64, Components: 3, Values: coords})
	e.printf("      </Points>\n")
}

func (e *encoder) cells(tag string, cells []Cell, withTypes bool) {
	var conn, offs, types []float64
	for _, c := range cells {
		for _, id := range c.Points {
			conn = append(conn, float64(id))
		}
		offs = append(offs, float64(len(conn)))
		types = append(types, float64(c.Type))
	}
	e.printf("      <%s>\n", tag)
	e.array("        ", NewDataArray("connectivity", Int64, conn))
	e.array("        ", NewDataArray("offsets", Int64, offs))
	if withTypes {
		e.array("        ", NewDataArray("types", UInt8, types))
	}
	e.printf("      </%s>\n", tag)
}

func permute(fd *FieldData, order []int) *FieldData {
	out := &FieldData{ActiveScalars: fd.ActiveScalars}
	for _, a := range fd.Arrays {
		c := a.NumComponents()
		if a.Len() != len(order) {
			out.Arrays = append(out.Arrays, a)
			continue
		}
		values := make([]float64, 0, len(a.Values))
		for _, i := range order {
			values = append(values, a.Values[i*c:(i+1)*c]...)
		}
		out.Arrays = append(out.Arrays, &DataArray{Name: a.Name, Type: a.Type, Components: c, Values: values})
	}
	return out
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatVec3(v [3]float64) string {
	return fmt.Sprintf("%s %s %s", formatValue(v[0], Float64), formatValue(v[1], Float64), formatValue(v[2], Float64))
}

var xmlEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")

func xmlEscape(s string) string { return xmlEscaper.Replace(s) }
