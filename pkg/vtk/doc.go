// Package vtk reads and writes the VTK XML dataset formats used by tachyview.
//
// # Overview
//
// Three dataset kinds are supported, each with its in-memory type:
//
//   - ImageData (.vti): [ImageData], a structured grid with dimensions, origin,
//     spacing and point-associated arrays
//   - PolyData (.vtp): [Mesh] with Kind [KindPolyData]
//   - UnstructuredGrid (.vtu): [Mesh] with Kind [KindUnstructuredGrid]
//
// Image data points are linearized x fastest, then y, then z: the point at
// grid position (x, y, z) has index x + y*nx + z*nx*ny.
//
// # Encodings
//
// Readers accept ascii and inline binary (base64) arrays, zlib-compressed
// binary arrays (compressor="vtkZLibDataCompressor"), and base64-encoded
// appended data. Raw appended data is rejected with [ErrUnsupported] since it
// is not valid XML character data.
//
// Writers emit ascii, binary or compressed binary according to [Format]:
//
//	err := vtk.WriteImageDataFile("out/volume.vti", img, vtk.WithFormat(vtk.FormatCompressed))
//
// # Kind Detection
//
// [SniffFile] reports the dataset kind declared in a file's VTKFile header
// regardless of its extension, so a mis-labelled .vtp that really holds an
// unstructured grid is still routed to the right reader.
package vtk
