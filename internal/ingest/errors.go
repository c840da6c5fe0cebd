package ingest

import (
	"errors"
	"fmt"

	"github.com/contourhq/contour/internal/coord"
	"github.com/contourhq/contour/internal/geotiff"
	"github.com/contourhq/contour/internal/texture"
)

// FailureKind classifies ingestion failures for callers that surface or
// log them. Only the kinds returned by Ingest as errors abort a call;
// bounds-path problems (missing tags, unsupported CRS, degenerate
// envelope) are carried inside a successful Result instead.
type FailureKind string

const (
	FailUnsupportedFormat     FailureKind = "unsupported_format"
	FailMalformedHeader       FailureKind = "malformed_header"
	FailMissingGeoTags        FailureKind = "missing_geo_tags"
	FailUnsupportedCRS        FailureKind = "unsupported_crs"
	FailDegenerateBounds      FailureKind = "degenerate_bounds"
	FailDecode                FailureKind = "decode_error"
	FailUnsupportedBandLayout FailureKind = "unsupported_band_layout"
)

// Error is a typed ingestion failure. It wraps the underlying cause so
// errors.Is/As keep working through it.
type Error struct {
	Kind FailureKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// failf wraps err under the given kind.
func failf(kind FailureKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Classify maps an error from any pipeline stage onto its FailureKind.
// Unknown errors default to FailDecode since every unclassified failure in
// this pipeline comes from pixel handling.
func Classify(err error) FailureKind {
	var ie *Error
	switch {
	case errors.As(err, &ie):
		return ie.Kind
	case errors.Is(err, ErrUnsupportedFormat):
		return FailUnsupportedFormat
	case errors.Is(err, geotiff.ErrMalformedHeader):
		return FailMalformedHeader
	case errors.Is(err, geotiff.ErrMissingGeoTags):
		return FailMissingGeoTags
	case errors.Is(err, geotiff.ErrUnsupportedLayout):
		return FailUnsupportedBandLayout
	case errors.Is(err, coord.ErrUnsupportedCRS):
		return FailUnsupportedCRS
	case errors.Is(err, coord.ErrDegenerateBounds):
		return FailDegenerateBounds
	case errors.Is(err, texture.ErrDecode):
		return FailDecode
	default:
		return FailDecode
	}
}
