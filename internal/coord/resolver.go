package coord

import (
	"errors"
	"fmt"
	"math"
)

// Resolver errors. Both are returned wrapped with the offending values so
// callers can log them; match with errors.Is.
var (
	// ErrUnsupportedCRS means the source CRS has no registered projection.
	// Failing here is deliberate: passing projected-unit coordinates through
	// as degrees would silently mis-place the raster on the globe.
	ErrUnsupportedCRS = errors.New("unsupported CRS")

	// ErrDegenerateBounds means the computed envelope has no area.
	ErrDegenerateBounds = errors.New("degenerate bounds")
)

// GeoReference is the raw geo-referencing record recovered from a tagged
// raster: one pixel-to-model anchor, per-axis pixel scale, and the CRS.
type GeoReference struct {
	ScaleX       float64 // model units per pixel, x axis (positive)
	ScaleY       float64 // model units per pixel, y axis (positive)
	TiePixelX    float64 // anchored pixel column
	TiePixelY    float64 // anchored pixel row
	TieModelX    float64 // model-space x of the anchored pixel
	TieModelY    float64 // model-space y of the anchored pixel
	EPSG         int
	IsGeographic bool // model space is already degrees
}

// Resolve converts a geo-reference record plus the raster pixel dimensions
// into a WGS84 bounding box.
//
// Geographic sources are used directly after axis-order normalization (some
// CRS definitions store latitude in the x slot). Projected sources are
// reprojected corner-wise through the registered Projection for their EPSG
// code; unknown codes fail with ErrUnsupportedCRS. A box whose computed
// north does not exceed its south fails with ErrDegenerateBounds.
func Resolve(ref GeoReference, width, height int) (Bounds, error) {
	if width <= 0 || height <= 0 {
		return Bounds{}, fmt.Errorf("%w: raster is %dx%d pixels", ErrDegenerateBounds, width, height)
	}
	if ref.ScaleX <= 0 || ref.ScaleY <= 0 {
		return Bounds{}, fmt.Errorf("%w: pixel scale is (%g, %g)", ErrDegenerateBounds, ref.ScaleX, ref.ScaleY)
	}

	// Model-space coordinates of the upper-left corner. Pixel rows grow
	// downward while model y grows upward, hence the sign flip.
	originX := ref.TieModelX - ref.TiePixelX*ref.ScaleX
	originY := ref.TieModelY + ref.TiePixelY*ref.ScaleY

	minX := originX
	maxX := originX + float64(width)*ref.ScaleX
	maxY := originY
	minY := originY - float64(height)*ref.ScaleY

	if ref.IsGeographic {
		return resolveGeographic(minX, minY, maxX, maxY)
	}
	return resolveProjected(ref.EPSG, minX, minY, maxX, maxY)
}

func resolveGeographic(minX, minY, maxX, maxY float64) (Bounds, error) {
	// Axis-order normalization: if the x range exceeds the valid latitude
	// span but the y range does not, the source stored latitude first.
	if outsideLatRange(minY, maxY) && !outsideLatRange(minX, maxX) {
		minX, minY = minY, minX
		maxX, maxY = maxY, maxX
	}

	if outsideLatRange(minY, maxY) {
		return Bounds{}, fmt.Errorf("%w: latitude range [%g, %g] outside [-90, 90]", ErrDegenerateBounds, minY, maxY)
	}

	b := Bounds{
		North: maxY,
		South: minY,
		West:  wrapLon(minX),
		East:  wrapLon(maxX),
	}

	// If wrapping the longitudes reordered them, the raster crosses the
	// antimeridian. East < West encodes that explicitly.
	if b.North <= b.South {
		return Bounds{}, fmt.Errorf("%w: north %g <= south %g", ErrDegenerateBounds, b.North, b.South)
	}
	return b, nil
}

func resolveProjected(epsg int, minX, minY, maxX, maxY float64) (Bounds, error) {
	proj := ForEPSG(epsg)
	if proj == nil {
		return Bounds{}, fmt.Errorf("%w: EPSG:%d", ErrUnsupportedCRS, epsg)
	}

	corners := [4][2]float64{
		{minX, minY},
		{minX, maxY},
		{maxX, minY},
		{maxX, maxY},
	}

	b := Bounds{North: -90, South: 90, East: -180, West: 180}
	for _, c := range corners {
		lon, lat := proj.ToWGS84(c[0], c[1])
		b.North = math.Max(b.North, lat)
		b.South = math.Min(b.South, lat)
		b.East = math.Max(b.East, lon)
		b.West = math.Min(b.West, lon)
	}

	if b.North <= b.South {
		return Bounds{}, fmt.Errorf("%w: north %g <= south %g", ErrDegenerateBounds, b.North, b.South)
	}
	return b, nil
}

func outsideLatRange(lo, hi float64) bool {
	return lo < -90 || hi > 90
}

// wrapLon normalizes a longitude into [-180, 180].
func wrapLon(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
