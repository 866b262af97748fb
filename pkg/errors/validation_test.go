package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidateDims(t *testing.T) {
	tests := []struct {
		name    string
		dims    [3]int
		wantErr bool
	}{
		{"cube", [3]int{41, 41, 41}, false},
		{"single voxel", [3]int{1, 1, 1}, false},
		{"flat", [3]int{256, 256, 1}, false},
		{"max axis", [3]int{MaxAxisSamples, 1, 1}, false},

		{"zero x", [3]int{0, 2, 2}, true},
		{"negative z", [3]int{2, 2, -1}, true},
		{"axis too large", [3]int{MaxAxisSamples + 1, 1, 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDims(tt.dims)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDims(%v) error = %v, wantErr %v", tt.dims, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidDims) {
				t.Errorf("ValidateDims(%v) returned wrong error code: %v", tt.dims, err)
			}
		})
	}
}

func TestValidateDimsNamesAxis(t *testing.T) {
	err := ValidateDims([3]int{4, 0, 4})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "dimension y") {
		t.Errorf("error should name the y axis: %v", err)
	}
}

func TestValidateSpacing(t *testing.T) {
	tests := []struct {
		name    string
		spacing [3]float64
		wantErr bool
	}{
		{"unit", [3]float64{1, 1, 1}, false},
		{"anisotropic", [3]float64{0.5, 0.5, 2}, false},
		{"zero", [3]float64{1, 0, 1}, true},
		{"negative", [3]float64{-1, 1, 1}, true},
		{"nan", [3]float64{math.NaN(), 1, 1}, true},
		{"inf", [3]float64{1, 1, math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpacing(tt.spacing)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSpacing(%v) error = %v, wantErr %v", tt.spacing, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOrigin(t *testing.T) {
	if err := ValidateOrigin([3]float64{-20.5, -20.5, -20.5}); err != nil {
		t.Errorf("negative origin should be valid: %v", err)
	}
	if err := ValidateOrigin([3]float64{0, math.Inf(-1), 0}); err == nil {
		t.Error("infinite origin should be rejected")
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "data/volume.raw", false},
		{"absolute", "/tmp/out/volume.vti", false},
		{"with dots", "../shared/marschner_lobb.vti", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 5000), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateExtension(t *testing.T) {
	if err := ValidateExtension("out/volume.VTI", ".vti"); err != nil {
		t.Errorf("extension match should be case-insensitive: %v", err)
	}
	if err := ValidateExtension("graph.json", ".vti"); err == nil {
		t.Error("mismatched extension should fail")
	}
	if err := ValidateExtension("mesh.vtp", ".vtu", ".vtp"); err != nil {
		t.Errorf("second extension should match: %v", err)
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidDims,
		ErrCodeInvalidFormat,
		ErrCodeInvalidConfig,
		ErrCodeInvalidPath,
		ErrCodeSizeMismatch,
		ErrCodeFileNotFound,
		ErrCodeCapabilityNotFound,
		ErrCodeToolkit,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
