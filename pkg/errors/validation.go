package errors

import (
	"math"
	"strings"
	"unicode"
)

// MaxAxisSamples bounds a single grid axis. It keeps nx*ny*nz well inside
// the int range on 64-bit platforms and rejects obviously corrupt headers.
const MaxAxisSamples = 1 << 16

// ValidateDims validates grid dimensions for packing or resampling.
//
// The validation rules:
//   - Every axis must be at least 1
//   - No axis may exceed MaxAxisSamples
func ValidateDims(dims [3]int) error {
	for i, n := range dims {
		if n < 1 {
			return New(ErrCodeInvalidDims, "dimension %c must be positive, got %d", axisName(i), n)
		}
		if n > MaxAxisSamples {
			return New(ErrCodeInvalidDims, "dimension %c too large (max %d), got %d", axisName(i), MaxAxisSamples, n)
		}
	}
	return nil
}

// ValidateSpacing checks that every spacing component is finite and positive.
func ValidateSpacing(spacing [3]float64) error {
	for i, s := range spacing {
		if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
			return New(ErrCodeInvalidInput, "spacing %c must be a positive finite number, got %v", axisName(i), s)
		}
	}
	return nil
}

// ValidateOrigin checks that every origin component is finite.
func ValidateOrigin(origin [3]float64) error {
	for i, o := range origin {
		if math.IsNaN(o) || math.IsInf(o, 0) {
			return New(ErrCodeInvalidInput, "origin %c must be finite, got %v", axisName(i), o)
		}
	}
	return nil
}

// ValidatePath validates a local input or output path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateExtension checks that path ends in one of the accepted extensions
// (compared case-insensitively, each including the leading dot).
func ValidateExtension(path string, exts ...string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	lower := strings.ToLower(path)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return nil
		}
	}
	return New(ErrCodeInvalidPath, "%s: expected extension %s", path, strings.Join(exts, " or "))
}

func axisName(i int) rune {
	return rune('x' + i)
}
