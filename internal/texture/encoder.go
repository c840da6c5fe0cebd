// Package texture turns decoded raster pixels into a compact, render-ready
// texture: normalize to 8-bit RGB, downsample to a bounded maximum
// dimension, and encode with a lossy codec at a fixed quality tier.
package texture

import (
	"fmt"
	"image"
)

// Encoder encodes an image into transport bytes.
type Encoder interface {
	// Encode encodes an image to bytes in the target format.
	Encode(img image.Image) ([]byte, error)

	// Format returns the format name (e.g. "jpeg", "webp").
	Format() string

	// MIME returns the media type of the encoded bytes.
	MIME() string

	// FileExtension returns the appropriate file extension.
	FileExtension() string
}

// NewEncoder creates an encoder for the given format and quality.
func NewEncoder(format string, quality int) (Encoder, error) {
	switch format {
	case "jpeg", "jpg":
		return &JPEGEncoder{Quality: quality}, nil
	case "webp":
		return newWebPEncoder(quality)
	case "png":
		return &PNGEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported texture format: %q (supported: jpeg, webp, png)", format)
	}
}
