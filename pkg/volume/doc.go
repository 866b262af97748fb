// Package volume converts raw voxel dumps into VTK image data.
//
// A raw dump is a flat sequence of unsigned samples with no header. The
// caller supplies its dimensions, spacing and origin:
//
//	res, err := volume.PackFile(ctx, volume.Request{
//	    Input:   "data/marschner_lobb_41x41x41_uint8.raw",
//	    Output:  "out/marschner_lobb.vti",
//	    Dims:    [3]int{41, 41, 41},
//	    Spacing: [3]float64{1, 1, 1},
//	    Origin:  [3]float64{-20.5, -20.5, -20.5},
//	})
//
// The sample count must equal nx*ny*nz; a mismatch fails with
// SIZE_MISMATCH before anything is written.
package volume
