// Package upload implements the upload lifecycle: validation, transcoding,
// naming, and delegation to the configured storage backend.
package upload

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// maxPixelArea caps the decoded pixel count regardless of byte size. Headers
// are checked before the full decode so a small file cannot declare huge
// dimensions and exhaust memory.
const maxPixelArea = 64 << 20

// NormalizedImage is the bounded JPEG produced from an accepted upload.
type NormalizedImage struct {
	Data   []byte
	Width  int
	Height int
}

// Normalize decodes raw, fits it inside a maxDim x maxDim box without ever
// enlarging the source, and re-encodes it as JPEG at the given quality.
// Supported source formats are those registered by the imaging package
// (JPEG, PNG, GIF, TIFF, BMP). Undecodable input yields ErrInvalidImage;
// a transcode failure is never papered over by storing the raw bytes.
func Normalize(raw []byte, maxDim, quality int) (*NormalizedImage, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decode header: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxPixelArea {
		return nil, fmt.Errorf("%w: %dx%d exceeds pixel limit", ErrInvalidImage, cfg.Width, cfg.Height)
	}

	src, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidImage, err)
	}

	out := src
	if b := src.Bounds(); b.Dx() > maxDim || b.Dy() > maxDim {
		out = imaging.Fit(src, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("%w: encode jpeg: %v", ErrProcessingFailed, err)
	}

	b := out.Bounds()
	return &NormalizedImage{
		Data:   buf.Bytes(),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}
