package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/contourhq/contour/internal/geotiff"
)

// ErrUnsupportedFormat is returned when an upload is neither a TIFF nor a
// recognized plain raster image.
var ErrUnsupportedFormat = errors.New("unsupported raster format")

// Format is the ingestion track an upload is routed to.
type Format int

const (
	FormatUnknown Format = iota
	// FormatGeoTagged rasters carry embedded georeferencing (TIFF container).
	FormatGeoTagged
	// FormatPlainImage rasters have pixels only; bounds must come from
	// elsewhere (vision inference or the user).
	FormatPlainImage
)

func (f Format) String() string {
	switch f {
	case FormatGeoTagged:
		return "geotagged"
	case FormatPlainImage:
		return "plain"
	default:
		return "unknown"
	}
}

var extFormats = map[string]Format{
	".tif":  FormatGeoTagged,
	".tiff": FormatGeoTagged,
	".jpg":  FormatPlainImage,
	".jpeg": FormatPlainImage,
	".png":  FormatPlainImage,
	".webp": FormatPlainImage,
	".bmp":  FormatPlainImage,
}

var (
	magicPNG  = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	magicJPEG = []byte{0xff, 0xd8, 0xff}
	magicBMP  = []byte("BM")
	magicRIFF = []byte("RIFF")
	magicWEBP = []byte("WEBP")
)

// DetectFormat classifies an upload by file extension, falling back to
// content sniffing when the extension is missing or unrecognized. ext may
// be given with or without the leading dot.
func DetectFormat(data []byte, ext string) (Format, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if f, ok := extFormats[ext]; ok {
		return f, nil
	}
	if geotiff.HasMagic(data) {
		return FormatGeoTagged, nil
	}
	if isPlainImage(data) {
		return FormatPlainImage, nil
	}
	return FormatUnknown, fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
}

func isPlainImage(data []byte) bool {
	switch {
	case bytes.HasPrefix(data, magicPNG):
		return true
	case bytes.HasPrefix(data, magicJPEG):
		return true
	case bytes.HasPrefix(data, magicBMP):
		return true
	case len(data) >= 12 && bytes.HasPrefix(data, magicRIFF) && bytes.Equal(data[8:12], magicWEBP):
		return true
	}
	return false
}
