// Package geotiff parses the GeoTIFF tagged raster format: the IFD
// directory walk, the GeoKey geo-referencing metadata, and full pixel
// decoding into a normalized 8-bit RGB image.
//
// Header parsing and pixel decoding are deliberately split. Parse touches
// only the directory structure, so bounds extraction never pays for pixel
// decompression; DecodeRGBA does the heavy work and is called exactly once
// per ingestion, after the metadata outcome is already known.
package geotiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/contourhq/contour/internal/coord"
)

var (
	// ErrMalformedHeader means the TIFF directory structure itself is
	// corrupt or truncated. Fatal for the asset.
	ErrMalformedHeader = errors.New("malformed TIFF header")

	// ErrMissingGeoTags means the file is a structurally valid TIFF but
	// lacks one of the three geo-referencing tag categories (pixel scale,
	// tie point, CRS key). Recoverable: the caller falls back to treating
	// the file as a plain image.
	ErrMissingGeoTags = errors.New("no geo-referencing tags")

	// ErrUnsupportedLayout means the pixel organization has no defined
	// mapping to RGB (palette images, planar separation, odd band counts).
	ErrUnsupportedLayout = errors.New("unsupported band layout")
)

// GeoTIFF GeoKey IDs.
const (
	gkModelTypeGeoKey       = 1024
	gkGeographicTypeGeoKey  = 2048
	gkProjectedCSTypeGeoKey = 3072
)

// GeoKey ModelType values.
const (
	modelTypeProjected  = 1
	modelTypeGeographic = 2
)

// HasMagic reports whether data starts with a TIFF byte-order mark and
// magic number. Used for content sniffing when the file extension lies.
func HasMagic(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	le := data[0] == 'I' && data[1] == 'I'
	be := data[0] == 'M' && data[1] == 'M'
	if !le && !be {
		return false
	}
	var bo binary.ByteOrder = binary.LittleEndian
	if be {
		bo = binary.BigEndian
	}
	magic := bo.Uint16(data[2:4])
	return magic == 42 || magic == 43
}

// Raster is a parsed GeoTIFF with directory metadata loaded and pixel data
// untouched. A Raster holds a reference to the original byte buffer and is
// only valid for the lifetime of that buffer.
type Raster struct {
	data []byte
	bo   binary.ByteOrder
	ifds []ifd
}

// Parse reads the TIFF directory structure from data without decoding any
// pixel data. Directory corruption is reported as ErrMalformedHeader.
func Parse(data []byte) (*Raster, error) {
	ifds, bo, err := parseTIFF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	first := &ifds[0]
	if first.Width == 0 || first.Height == 0 {
		return nil, fmt.Errorf("%w: image dimensions %dx%d", ErrMalformedHeader, first.Width, first.Height)
	}

	return &Raster{data: data, bo: bo, ifds: ifds}, nil
}

// Width returns the full-resolution image width in pixels.
func (r *Raster) Width() int { return int(r.ifds[0].Width) }

// Height returns the full-resolution image height in pixels.
func (r *Raster) Height() int { return int(r.ifds[0].Height) }

// GeoReference extracts the raw geo-referencing record from the first IFD.
// Returns ErrMissingGeoTags when pixel scale, tie point or the CRS key is
// absent; that is an expected outcome for ordinary (non-geo) TIFF files.
func (r *Raster) GeoReference() (coord.GeoReference, error) {
	d := &r.ifds[0]

	if len(d.ModelPixelScale) < 2 {
		return coord.GeoReference{}, fmt.Errorf("%w: ModelPixelScale absent", ErrMissingGeoTags)
	}
	// ModelTiepoint: [I, J, K, X, Y, Z] — maps pixel (I,J) to model (X,Y).
	if len(d.ModelTiepoint) < 6 {
		return coord.GeoReference{}, fmt.Errorf("%w: ModelTiepoint absent", ErrMissingGeoTags)
	}

	epsg, geographic, err := parseCRSKey(d.GeoKeys)
	if err != nil {
		return coord.GeoReference{}, err
	}

	return coord.GeoReference{
		ScaleX:       d.ModelPixelScale[0],
		ScaleY:       d.ModelPixelScale[1],
		TiePixelX:    d.ModelTiepoint[0],
		TiePixelY:    d.ModelTiepoint[1],
		TieModelX:    d.ModelTiepoint[3],
		TieModelY:    d.ModelTiepoint[4],
		EPSG:         epsg,
		IsGeographic: geographic,
	}, nil
}

// parseCRSKey walks the GeoKey directory for the model type and CRS code.
func parseCRSKey(geoKeys []uint16) (epsg int, geographic bool, err error) {
	if len(geoKeys) < 4 {
		return 0, false, fmt.Errorf("%w: GeoKey directory absent", ErrMissingGeoTags)
	}

	// Header: [KeyDirectoryVersion, KeyRevision, MinorRevision, NumberOfKeys].
	numKeys := int(geoKeys[3])

	modelType := 0
	geographicCS := 0
	projectedCS := 0

	for i := 0; i < numKeys; i++ {
		base := 4 + i*4
		if base+3 >= len(geoKeys) {
			break
		}
		keyID := geoKeys[base]
		valueOffset := geoKeys[base+3]

		switch keyID {
		case gkModelTypeGeoKey:
			modelType = int(valueOffset)
		case gkGeographicTypeGeoKey:
			geographicCS = int(valueOffset)
		case gkProjectedCSTypeGeoKey:
			projectedCS = int(valueOffset)
		}
	}

	switch {
	case modelType == modelTypeGeographic && geographicCS > 0:
		return geographicCS, true, nil
	case modelType == modelTypeProjected && projectedCS > 0:
		return projectedCS, false, nil
	case modelType == 0 && geographicCS > 0:
		// Some writers omit ModelType; the CS key alone is unambiguous.
		return geographicCS, true, nil
	case modelType == 0 && projectedCS > 0:
		return projectedCS, false, nil
	default:
		return 0, false, fmt.Errorf("%w: no CRS key in GeoKey directory", ErrMissingGeoTags)
	}
}
