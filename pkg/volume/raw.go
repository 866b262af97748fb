package volume

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	errs "github.com/matzehuels/tachyview/pkg/errors"
)

// SampleType is the element type of a raw voxel dump.
type SampleType string

const (
	SampleUInt8  SampleType = "uint8"
	SampleUInt16 SampleType = "uint16" // little-endian
)

// ParseSampleType validates a sample type name. Empty means uint8.
func ParseSampleType(s string) (SampleType, error) {
	switch t := SampleType(strings.ToLower(s)); t {
	case "":
		return SampleUInt8, nil
	case SampleUInt8, SampleUInt16:
		return t, nil
	}
	return "", errs.New(errs.ErrCodeInvalidInput, "sample type %q (want uint8 or uint16)", s)
}

// Size returns the byte width of one sample.
func (t SampleType) Size() int {
	if t == SampleUInt16 {
		return 2
	}
	return 1
}

// ReadRaw reads every sample of a flat binary file. A missing file returns
// an ErrCodeFileNotFound error.
func ReadRaw(path string, t SampleType) ([]uint16, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "raw volume %s", path)
		}
		return nil, fmt.Errorf("open raw volume: %w", err)
	}
	defer f.Close()
	return ReadRawFrom(f, t)
}

// ReadRawFrom reads samples from r until EOF. A trailing partial uint16
// sample is an error.
func ReadRawFrom(r io.Reader, t SampleType) ([]uint16, error) {
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("read raw volume: %w", err)
	}

	switch t {
	case SampleUInt8, "":
		out := make([]uint16, len(data))
		for i, b := range data {
			out[i] = uint16(b)
		}
		return out, nil
	case SampleUInt16:
		if len(data)%2 != 0 {
			return nil, errs.New(errs.ErrCodeSizeMismatch, "uint16 volume has odd byte length %d", len(data))
		}
		out := make([]uint16, len(data)/2)
		for i := range out {
			out[i] = binary.LittleEndian.Uint16(data[2*i:])
		}
		return out, nil
	}
	return nil, errs.New(errs.ErrCodeInvalidInput, "sample type %q", t)
}
