package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// ConvertTool is the external SVG converter used for PDF output.
const ConvertTool = "rsvg-convert"

// ToPDF converts SVG bytes to PDF using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	if _, err := exec.LookPath(ConvertTool); err != nil {
		return nil, fmt.Errorf("pdf export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin")
	}

	cmd := exec.CommandContext(ctx, ConvertTool, "-f", "pdf")
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %v: %s", ConvertTool, err, errBuf.String())
	}
	return out.Bytes(), nil
}
