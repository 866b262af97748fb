package vtk

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/klauspost/compress/zlib"
)

// DefaultBlockSize is the uncompressed block size used by the zlib codec,
// matching the VTK default of 32 KiB.
const DefaultBlockSize = 1 << 15

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// codec holds the per-file binary settings declared on the VTKFile element.
type codec struct {
	order      byteOrder
	headerSize int
	compressed bool
	level      int
	blockSize  int
}

func newCodec(byteOrderAttr, headerType, compressor string) (codec, error) {
	c := codec{order: binary.LittleEndian, headerSize: 4, level: zlib.DefaultCompression, blockSize: DefaultBlockSize}

	switch byteOrderAttr {
	case "", "LittleEndian":
	case "BigEndian":
		c.order = binary.BigEndian
	default:
		return c, fmt.Errorf("%w: byte_order %q", ErrMalformed, byteOrderAttr)
	}

	switch headerType {
	case "", "UInt32":
	case "UInt64":
		c.headerSize = 8
	default:
		return c, fmt.Errorf("%w: header_type %q", ErrUnsupported, headerType)
	}

	switch compressor {
	case "":
	case "vtkZLibDataCompressor":
		c.compressed = true
	default:
		return c, fmt.Errorf("%w: compressor %q", ErrUnsupported, compressor)
	}
	return c, nil
}

func (c codec) readUint(b []byte) uint64 {
	if c.headerSize == 8 {
		return c.order.Uint64(b)
	}
	return uint64(c.order.Uint32(b))
}

func (c codec) appendUint(b []byte, v uint64) []byte {
	if c.headerSize == 8 {
		return c.order.AppendUint64(b, v)
	}
	return c.order.AppendUint32(b, uint32(v))
}

// b64Len is the encoded length of n bytes with padding.
func b64Len(n int) int { return 4 * ((n + 2) / 3) }

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// decodeBinary turns the base64 text of one array into its raw bytes.
func (c codec) decodeBinary(content string) ([]byte, error) {
	s := stripSpace(content)
	if c.compressed {
		return c.decodeCompressed(s)
	}

	// Writers either encode header and data as one stream or as two
	// separately padded streams. The separate header always ends in '='.
	hlen := b64Len(c.headerSize)
	if len(s) > hlen && s[hlen-1] == '=' {
		hdr, err := base64.StdEncoding.DecodeString(s[:hlen])
		if err != nil {
			return nil, fmt.Errorf("%w: array header: %v", ErrMalformed, err)
		}
		data, err := base64.StdEncoding.DecodeString(s[hlen:])
		if err != nil {
			return nil, fmt.Errorf("%w: array data: %v", ErrMalformed, err)
		}
		return trimTo(data, c.readUint(hdr))
	}

	all, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: array data: %v", ErrMalformed, err)
	}
	if len(all) < c.headerSize {
		return nil, fmt.Errorf("%w: array shorter than its header", ErrMalformed)
	}
	return trimTo(all[c.headerSize:], c.readUint(all))
}

func trimTo(data []byte, n uint64) ([]byte, error) {
	if uint64(len(data)) < n {
		return nil, fmt.Errorf("%w: header declares %d bytes, found %d", ErrMalformed, n, len(data))
	}
	return data[:n], nil
}

func (c codec) decodeCompressed(s string) ([]byte, error) {
	// The leading groups of the header hold the block count.
	probe := b64Len(c.headerSize)
	if probe%4 != 0 || len(s) < probe {
		return nil, fmt.Errorf("%w: compressed header truncated", ErrMalformed)
	}
	first, err := base64.StdEncoding.DecodeString(s[:probe])
	if err != nil || len(first) < c.headerSize {
		return nil, fmt.Errorf("%w: compressed header: %v", ErrMalformed, err)
	}
	nblocks := c.readUint(first)

	hbytes := (3 + int(nblocks)) * c.headerSize
	hlen := b64Len(hbytes)
	if nblocks > uint64(len(s)) || hlen > len(s) {
		return nil, fmt.Errorf("%w: compressed header declares %d blocks", ErrMalformed, nblocks)
	}
	hdr, err := base64.StdEncoding.DecodeString(s[:hlen])
	if err != nil {
		return nil, fmt.Errorf("%w: compressed header: %v", ErrMalformed, err)
	}
	word := func(i int) uint64 { return c.readUint(hdr[i*c.headerSize:]) }
	blockSize, lastSize := word(1), word(2)

	payload, err := base64.StdEncoding.DecodeString(s[hlen:])
	if err != nil {
		return nil, fmt.Errorf("%w: compressed data: %v", ErrMalformed, err)
	}

	var out bytes.Buffer
	offset := uint64(0)
	for i := 0; i < int(nblocks); i++ {
		csize := word(3 + i)
		if offset+csize > uint64(len(payload)) {
			return nil, fmt.Errorf("%w: block %d overruns data", ErrMalformed, i)
		}
		want := blockSize
		if i == int(nblocks)-1 && lastSize != 0 {
			want = lastSize
		}
		if err := inflate(&out, payload[offset:offset+csize], want); err != nil {
			return nil, fmt.Errorf("%w: block %d: %v", ErrMalformed, i, err)
		}
		offset += csize
	}
	return out.Bytes(), nil
}

func inflate(dst *bytes.Buffer, block []byte, want uint64) error {
	zr, err := zlib.NewReader(bytes.NewReader(block))
	if err != nil {
		return err
	}
	defer zr.Close()
	n, err := io.Copy(dst, zr)
	if err != nil {
		return err
	}
	if uint64(n) != want {
		return fmt.Errorf("inflated %d bytes, want %d", n, want)
	}
	return nil
}

// encodeBinary is the inverse of decodeBinary.
func (c codec) encodeBinary(data []byte) (string, error) {
	if !c.compressed {
		buf := c.appendUint(make([]byte, 0, c.headerSize+len(data)), uint64(len(data)))
		buf = append(buf, data...)
		return base64.StdEncoding.EncodeToString(buf), nil
	}

	bs := c.blockSize
	nblocks := (len(data) + bs - 1) / bs
	lastSize := len(data) - (nblocks-1)*bs
	if nblocks == 0 {
		lastSize = 0
	}

	var payload bytes.Buffer
	csizes := make([]uint64, 0, nblocks)
	for i := 0; i < nblocks; i++ {
		end := min((i+1)*bs, len(data))
		before := payload.Len()
		zw, err := zlib.NewWriterLevel(&payload, c.level)
		if err != nil {
			return "", err
		}
		if _, err := zw.Write(data[i*bs : end]); err != nil {
			return "", err
		}
		if err := zw.Close(); err != nil {
			return "", err
		}
		csizes = append(csizes, uint64(payload.Len()-before))
	}

	hdr := c.appendUint(nil, uint64(nblocks))
	hdr = c.appendUint(hdr, uint64(bs))
	hdr = c.appendUint(hdr, uint64(lastSize))
	for _, cs := range csizes {
		hdr = c.appendUint(hdr, cs)
	}
	return base64.StdEncoding.EncodeToString(hdr) + base64.StdEncoding.EncodeToString(payload.Bytes()), nil
}

// decodeValues widens raw element bytes to float64.
func (c codec) decodeValues(raw []byte, t ScalarType) ([]float64, error) {
	size := t.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: data type %q", ErrUnsupported, t)
	}
	if len(raw)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %s", ErrMalformed, len(raw), t)
	}
	out := make([]float64, len(raw)/size)
	o := c.order
	for i := range out {
		b := raw[i*size:]
		switch t {
		case Int8:
			out[i] = float64(int8(b[0]))
		case UInt8:
			out[i] = float64(b[0])
		case Int16:
			out[i] = float64(int16(o.Uint16(b)))
		case UInt16:
			out[i] = float64(o.Uint16(b))
		case Int32:
			out[i] = float64(int32(o.Uint32(b)))
		case UInt32:
			out[i] = float64(o.Uint32(b))
		case Int64:
			out[i] = float64(int64(o.Uint64(b)))
		case UInt64:
			out[i] = float64(o.Uint64(b))
		case Float32:
			out[i] = float64(math.Float32frombits(o.Uint32(b)))
		case Float64:
			out[i] = math.Float64frombits(o.Uint64(b))
		}
	}
	return out, nil
}

// encodeValues narrows values to t. Integer types truncate toward zero.
func (c codec) encodeValues(values []float64, t ScalarType) []byte {
	o := c.order
	buf := make([]byte, 0, len(values)*t.Size())
	for _, v := range values {
		switch t {
		case Int8:
			buf = append(buf, byte(int8(v)))
		case UInt8:
			buf = append(buf, byte(v))
		case Int16:
			buf = o.AppendUint16(buf, uint16(int16(v)))
		case UInt16:
			buf = o.AppendUint16(buf, uint16(v))
		case Int32:
			buf = o.AppendUint32(buf, uint32(int32(v)))
		case UInt32:
			buf = o.AppendUint32(buf, uint32(v))
		case Int64:
			buf = o.AppendUint64(buf, uint64(int64(v)))
		case UInt64:
			buf = o.AppendUint64(buf, uint64(v))
		case Float32:
			buf = o.AppendUint32(buf, math.Float32bits(float32(v)))
		case Float64:
			buf = o.AppendUint64(buf, math.Float64bits(v))
		}
	}
	return buf
}

func parseASCII(content string) ([]float64, error) {
	fields := strings.Fields(content)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: ascii value %q", ErrMalformed, f)
		}
		out[i] = v
	}
	return out, nil
}

func formatValue(v float64, t ScalarType) string {
	switch t {
	case Float32:
		return strconv.FormatFloat(v, 'g', -1, 32)
	case Float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case UInt64:
		return strconv.FormatUint(uint64(v), 10)
	default:
		return strconv.FormatInt(int64(v), 10)
	}
}
