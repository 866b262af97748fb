package vtk

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

type xmlFile struct {
	XMLName          xml.Name      `xml:"VTKFile"`
	Type             string        `xml:"type,attr"`
	Version          string        `xml:"version,attr"`
	ByteOrder        string        `xml:"byte_order,attr"`
	HeaderType       string        `xml:"header_type,attr"`
	Compressor       string        `xml:"compressor,attr"`
	ImageData        *xmlImageData `xml:"ImageData"`
	PolyData         *xmlMeshData  `xml:"PolyData"`
	UnstructuredGrid *xmlMeshData  `xml:"UnstructuredGrid"`
	AppendedData     *xmlAppended  `xml:"AppendedData"`
}

type xmlImageData struct {
	WholeExtent string     `xml:"WholeExtent,attr"`
	Origin      string     `xml:"Origin,attr"`
	Spacing     string     `xml:"Spacing,attr"`
	Pieces      []xmlPiece `xml:"Piece"`
}

type xmlMeshData struct {
	Pieces []xmlPiece `xml:"Piece"`
}

type xmlPiece struct {
	Extent         string        `xml:"Extent,attr"`
	NumberOfPoints int           `xml:"NumberOfPoints,attr"`
	NumberOfCells  int           `xml:"NumberOfCells,attr"`
	PointData      xmlFieldData  `xml:"PointData"`
	CellData       xmlFieldData  `xml:"CellData"`
	Points         *xmlArrayList `xml:"Points"`
	Cells          *xmlArrayList `xml:"Cells"`
	Verts          *xmlArrayList `xml:"Verts"`
	Lines          *xmlArrayList `xml:"Lines"`
	Strips         *xmlArrayList `xml:"Strips"`
	Polys          *xmlArrayList `xml:"Polys"`
}

type xmlFieldData struct {
	Scalars string         `xml:"Scalars,attr"`
	Arrays  []xmlDataArray `xml:"DataArray"`
}

type xmlArrayList struct {
	Arrays []xmlDataArray `xml:"DataArray"`
}

type xmlDataArray struct {
	Type               string `xml:"type,attr"`
	Name               string `xml:"Name,attr"`
	NumberOfComponents int    `xml:"NumberOfComponents,attr"`
	Format             string `xml:"format,attr"`
	Offset             string `xml:"offset,attr"`
	Content            string `xml:",chardata"`
}

type xmlAppended struct {
	Encoding string `xml:"encoding,attr"`
	Content  string `xml:",chardata"`
}

var rawAppended = regexp.MustCompile(`<AppendedData[^>]*encoding\s*=\s*"raw"`)

// decoder turns the parsed XML tree into datasets.
type decoder struct {
	codec    codec
	appended string
	offsets  []int
}

func parse(r io.Reader) (*xmlFile, *decoder, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	if rawAppended.Match(data) {
		return nil, nil, fmt.Errorf("%w: raw appended data", ErrUnsupported)
	}

	var f xmlFile
	if err := xml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	c, err := newCodec(f.ByteOrder, f.HeaderType, f.Compressor)
	if err != nil {
		return nil, nil, err
	}

	d := &decoder{codec: c}
	if f.AppendedData != nil {
		if enc := f.AppendedData.Encoding; enc != "" && enc != "base64" {
			return nil, nil, fmt.Errorf("%w: appended encoding %q", ErrUnsupported, enc)
		}
		s := stripSpace(f.AppendedData.Content)
		d.appended = strings.TrimPrefix(s, "_")
		d.offsets = collectOffsets(&f)
	}
	return &f, d, nil
}

func collectOffsets(f *xmlFile) []int {
	var offsets []int
	visit := func(arrays []xmlDataArray) {
		for _, a := range arrays {
			if a.Format != "appended" {
				continue
			}
			if n, err := strconv.Atoi(strings.TrimSpace(a.Offset)); err == nil {
				offsets = append(offsets, n)
			}
		}
	}
	var pieces []xmlPiece
	switch {
	case f.ImageData != nil:
		pieces = f.ImageData.Pieces
	case f.PolyData != nil:
		pieces = f.PolyData.Pieces
	case f.UnstructuredGrid != nil:
		pieces = f.UnstructuredGrid.Pieces
	}
	for _, p := range pieces {
		visit(p.PointData.Arrays)
		visit(p.CellData.Arrays)
		for _, l := range []*xmlArrayList{p.Points, p.Cells, p.Verts, p.Lines, p.Strips, p.Polys} {
			if l != nil {
				visit(l.Arrays)
			}
		}
	}
	slices.Sort(offsets)
	return slices.Compact(offsets)
}

func (d *decoder) array(x xmlDataArray) (*DataArray, error) {
	t, err := ParseScalarType(x.Type)
	if err != nil {
		return nil, err
	}
	a := &DataArray{Name: x.Name, Type: t, Components: max(x.NumberOfComponents, 1)}

	switch x.Format {
	case "ascii":
		a.Values, err = parseASCII(x.Content)
	case "binary":
		var raw []byte
		if raw, err = d.codec.decodeBinary(x.Content); err == nil {
			a.Values, err = d.codec.decodeValues(raw, t)
		}
	case "appended":
		var raw []byte
		if raw, err = d.appendedBlock(x.Offset); err == nil {
			a.Values, err = d.codec.decodeValues(raw, t)
		}
	default:
		return nil, fmt.Errorf("%w: array %q format %q", ErrUnsupported, x.Name, x.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("array %q: %w", x.Name, err)
	}
	if len(a.Values)%a.Components != 0 {
		return nil, fmt.Errorf("%w: array %q has %d values for %d components", ErrMalformed, x.Name, len(a.Values), a.Components)
	}
	return a, nil
}

func (d *decoder) appendedBlock(offsetAttr string) ([]byte, error) {
	if d.offsets == nil {
		return nil, fmt.Errorf("%w: appended array without AppendedData", ErrMalformed)
	}
	off, err := strconv.Atoi(strings.TrimSpace(offsetAttr))
	if err != nil || off < 0 || off > len(d.appended) {
		return nil, fmt.Errorf("%w: appended offset %q", ErrMalformed, offsetAttr)
	}
	end := len(d.appended)
	if i, found := slices.BinarySearch(d.offsets, off); found && i+1 < len(d.offsets) {
		end = min(d.offsets[i+1], end)
	}
	return d.codec.decodeBinary(d.appended[off:end])
}

func (d *decoder) fieldData(x xmlFieldData) (FieldData, error) {
	fd := FieldData{ActiveScalars: x.Scalars}
	for _, xa := range x.Arrays {
		a, err := d.array(xa)
		if err != nil {
			return fd, err
		}
		fd.Add(a)
	}
	return fd, nil
}

// Sniff reports the dataset kind declared by the VTKFile root element.
func Sniff(r io.Reader) (Kind, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%w: no VTKFile element", ErrMalformed)
			}
			return "", fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != "VTKFile" {
			return "", fmt.Errorf("%w: root element is %q", ErrMalformed, se.Name.Local)
		}
		for _, attr := range se.Attr {
			if attr.Name.Local == "type" {
				return Kind(attr.Value), nil
			}
		}
		return "", fmt.Errorf("%w: VTKFile has no type", ErrMalformed)
	}
}

// SniffFile is Sniff on a named file.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Sniff(f)
}

// ReadImageData decodes an ImageData file. Only single-piece files are
// supported.
func ReadImageData(r io.Reader) (*ImageData, error) {
	f, d, err := parse(r)
	if err != nil {
		return nil, err
	}
	if f.ImageData == nil {
		return nil, fmt.Errorf("%w: want ImageData, file is %q", ErrKindMismatch, f.Type)
	}
	x := f.ImageData
	if len(x.Pieces) != 1 {
		return nil, fmt.Errorf("%w: %d pieces", ErrUnsupported, len(x.Pieces))
	}

	ext, err := parseInts(x.WholeExtent, 6)
	if err != nil {
		return nil, fmt.Errorf("WholeExtent: %w", err)
	}
	origin, err := parseVec3(x.Origin, [3]float64{})
	if err != nil {
		return nil, fmt.Errorf("Origin: %w", err)
	}
	spacing, err := parseVec3(x.Spacing, [3]float64{1, 1, 1})
	if err != nil {
		return nil, fmt.Errorf("Spacing: %w", err)
	}

	im := &ImageData{Spacing: spacing}
	for i := 0; i < 3; i++ {
		im.Dims[i] = ext[2*i+1] - ext[2*i] + 1
		if im.Dims[i] < 1 {
			return nil, fmt.Errorf("%w: empty extent on axis %d", ErrMalformed, i)
		}
		im.Origin[i] = origin[i] + float64(ext[2*i])*spacing[i]
	}

	if im.PointData, err = d.fieldData(x.Pieces[0].PointData); err != nil {
		return nil, err
	}
	if err := im.Validate(); err != nil {
		return nil, err
	}
	return im, nil
}

// ReadImageDataFile is ReadImageData on a named file.
func ReadImageDataFile(path string) (*ImageData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadImageData(f)
}

// ReadMesh decodes a PolyData or UnstructuredGrid file. Multiple pieces are
// concatenated with their point indices shifted.
func ReadMesh(r io.Reader) (*Mesh, error) {
	f, d, err := parse(r)
	if err != nil {
		return nil, err
	}

	var x *xmlMeshData
	m := &Mesh{}
	switch {
	case f.PolyData != nil:
		x, m.Kind = f.PolyData, KindPolyData
	case f.UnstructuredGrid != nil:
		x, m.Kind = f.UnstructuredGrid, KindUnstructuredGrid
	default:
		return nil, fmt.Errorf("%w: want PolyData or UnstructuredGrid, file is %q", ErrKindMismatch, f.Type)
	}

	for i, p := range x.Pieces {
		if err := d.appendPiece(m, p); err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}
	}
	return m, nil
}

// ReadMeshFile is ReadMesh on a named file.
func ReadMeshFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMesh(f)
}

func (d *decoder) appendPiece(m *Mesh, p xmlPiece) error {
	base := len(m.Points)
	if p.Points != nil && len(p.Points.Arrays) > 0 {
		pts, err := d.array(p.Points.Arrays[0])
		if err != nil {
			return err
		}
		if pts.NumComponents() != 3 {
			return fmt.Errorf("%w: points have %d components", ErrMalformed, pts.NumComponents())
		}
		for i := 0; i < pts.Len(); i++ {
			t := pts.Tuple(i)
			m.Points = append(m.Points, r3.Vec{X: t[0], Y: t[1], Z: t[2]})
		}
	}
	if len(m.Points)-base != p.NumberOfPoints {
		return fmt.Errorf("%w: NumberOfPoints=%d, found %d", ErrMalformed, p.NumberOfPoints, len(m.Points)-base)
	}

	if m.Kind == KindUnstructuredGrid {
		if err := d.appendCells(m, p.Cells, base, nil); err != nil {
			return fmt.Errorf("Cells: %w", err)
		}
	} else {
		// VTK orders poly data cells verts, lines, polys, strips.
		groups := []struct {
			name string
			list *xmlArrayList
			kind func(n int) CellType
		}{
			{"Verts", p.Verts, func(n int) CellType { return pick(n == 1, CellVertex, CellPolyVertex) }},
			{"Lines", p.Lines, func(n int) CellType { return pick(n == 2, CellLine, CellPolyLine) }},
			{"Polys", p.Polys, polyType},
			{"Strips", p.Strips, func(int) CellType { return CellTriangleStrip }},
		}
		for _, g := range groups {
			if err := d.appendCells(m, g.list, base, g.kind); err != nil {
				return fmt.Errorf("%s: %w", g.name, err)
			}
		}
	}

	pd, err := d.fieldData(p.PointData)
	if err != nil {
		return err
	}
	cd, err := d.fieldData(p.CellData)
	if err != nil {
		return err
	}
	mergeFieldData(&m.PointData, pd)
	mergeFieldData(&m.CellData, cd)
	return nil
}

// appendCells reads a connectivity/offsets(/types) group. When kind is nil
// the group must carry a "types" array.
func (d *decoder) appendCells(m *Mesh, list *xmlArrayList, base int, kind func(int) CellType) error {
	if list == nil {
		return nil
	}
	named := map[string]*DataArray{}
	for _, xa := range list.Arrays {
		a, err := d.array(xa)
		if err != nil {
			return err
		}
		named[a.Name] = a
	}
	conn, offs := named["connectivity"], named["offsets"]
	if conn == nil || offs == nil {
		return fmt.Errorf("%w: missing connectivity or offsets", ErrMalformed)
	}
	types := named["types"]
	if kind == nil && (types == nil || types.Len() != offs.Len()) {
		return fmt.Errorf("%w: missing or short types array", ErrMalformed)
	}

	start := 0
	for i := 0; i < offs.Len(); i++ {
		end := int(offs.Value(i))
		if end < start || end > conn.Len() {
			return fmt.Errorf("%w: cell %d offsets [%d,%d)", ErrMalformed, i, start, end)
		}
		ids := make([]int, end-start)
		for j := range ids {
			ids[j] = base + int(conn.Value(start+j))
			if ids[j] < 0 || ids[j] >= len(m.Points) {
				return fmt.Errorf("%w: cell %d references point %d", ErrMalformed, i, ids[j])
			}
		}
		var ct CellType
		if kind != nil {
			ct = kind(len(ids))
		} else {
			ct = CellType(types.Value(i))
		}
		m.Cells = append(m.Cells, Cell{Type: ct, Points: ids})
		start = end
	}
	return nil
}

func mergeFieldData(dst *FieldData, src FieldData) {
	if dst.ActiveScalars == "" {
		dst.ActiveScalars = src.ActiveScalars
	}
	for _, a := range src.Arrays {
		if existing, ok := dst.Array(a.Name); ok {
			existing.Values = append(existing.Values, a.Values...)
			continue
		}
		dst.Arrays = append(dst.Arrays, a)
	}
}

func polyType(n int) CellType {
	switch n {
	case 3:
		return CellTriangle
	case 4:
		return CellQuad
	}
	return CellPolygon
}

func pick(cond bool, a, b CellType) CellType {
	if cond {
		return a
	}
	return b
}

func parseInts(s string, n int) ([]int, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("%w: want %d integers, got %q", ErrMalformed, n, s)
	}
	out := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, f)
		}
		out[i] = v
	}
	return out, nil
}

func parseVec3(s string, def [3]float64) ([3]float64, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	vals, err := parseASCII(s)
	if err != nil {
		return def, err
	}
	if len(vals) != 3 {
		return def, fmt.Errorf("%w: want 3 values, got %q", ErrMalformed, s)
	}
	return [3]float64{vals[0], vals[1], vals[2]}, nil
}

// IsVTK reports whether head, the first bytes of a file, looks like a VTK
// XML document.
func IsVTK(head []byte) bool {
	return bytes.Contains(head, []byte("<VTKFile"))
}
