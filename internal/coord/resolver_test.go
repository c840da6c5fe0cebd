package coord

import (
	"errors"
	"math"
	"testing"
)

func TestResolve_Geographic(t *testing.T) {
	// A 1000x1000 raster covering one degree square over Kauai, anchored at
	// the northwest corner.
	ref := GeoReference{
		ScaleX: 0.001, ScaleY: 0.001,
		TiePixelX: 0, TiePixelY: 0,
		TieModelX: -160.0, TieModelY: 22.5,
		EPSG: 4326, IsGeographic: true,
	}

	b, err := Resolve(ref, 1000, 1000)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := Bounds{North: 22.5, South: 21.5, East: -159.0, West: -160.0}
	assertBoundsClose(t, b, want, 1e-9)
	if b.SpansAntimeridian() {
		t.Error("SpansAntimeridian() = true, want false")
	}
}

func TestResolve_NonZeroTiepoint(t *testing.T) {
	// The anchor sits mid-raster; the origin must be extrapolated from it.
	ref := GeoReference{
		ScaleX: 0.01, ScaleY: 0.01,
		TiePixelX: 50, TiePixelY: 50,
		TieModelX: 8.0, TieModelY: 47.0,
		EPSG: 4326, IsGeographic: true,
	}

	b, err := Resolve(ref, 100, 100)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := Bounds{North: 47.5, South: 46.5, East: 8.5, West: 7.5}
	assertBoundsClose(t, b, want, 1e-9)
}

func TestResolve_AxisSwap(t *testing.T) {
	// Latitude stored in the x slot. The x range (22.5..21.5 reversed) fits
	// latitudes while the y range (-160..-159) does not, so the axes must be
	// swapped before building the box.
	ref := GeoReference{
		ScaleX: 0.001, ScaleY: 0.001,
		TiePixelX: 0, TiePixelY: 0,
		TieModelX: 21.5, TieModelY: -159.0,
		EPSG: 4326, IsGeographic: true,
	}

	b, err := Resolve(ref, 1000, 1000)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := Bounds{North: 22.5, South: 21.5, East: -159.0, West: -160.0}
	assertBoundsClose(t, b, want, 1e-9)
}

func TestResolve_Antimeridian(t *testing.T) {
	// Two degrees of longitude starting at 179°E: the raster crosses the
	// dateline and the box must encode that as East < West.
	ref := GeoReference{
		ScaleX: 0.002, ScaleY: 0.001,
		TiePixelX: 0, TiePixelY: 0,
		TieModelX: 179.0, TieModelY: -16.0,
		EPSG: 4326, IsGeographic: true,
	}

	b, err := Resolve(ref, 1000, 1000)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !b.SpansAntimeridian() {
		t.Fatalf("SpansAntimeridian() = false for %s, want true", b)
	}
	want := Bounds{North: -16.0, South: -17.0, East: -179.0, West: 179.0}
	assertBoundsClose(t, b, want, 1e-9)
	if got := b.CenterLon(); math.Abs(got-180.0) > 1e-9 && math.Abs(got+180.0) > 1e-9 {
		t.Errorf("CenterLon() = %g, want ±180", got)
	}
}

func TestResolve_WebMercator(t *testing.T) {
	// 100km square anchored at the projected origin.
	ref := GeoReference{
		ScaleX: 1000, ScaleY: 1000,
		TiePixelX: 0, TiePixelY: 0,
		TieModelX: 0, TieModelY: 0,
		EPSG: 3857, IsGeographic: false,
	}

	b, err := Resolve(ref, 100, 100)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if math.Abs(b.North) > 1e-9 {
		t.Errorf("North = %g, want 0", b.North)
	}
	if math.Abs(b.West) > 1e-9 {
		t.Errorf("West = %g, want 0", b.West)
	}
	// 100km east at the equator is just under one degree.
	if b.East < 0.8 || b.East > 1.0 {
		t.Errorf("East = %g, want ~0.9", b.East)
	}
	if b.South > -0.8 || b.South < -1.0 {
		t.Errorf("South = %g, want ~-0.9", b.South)
	}
}

func TestResolve_SwissLV95(t *testing.T) {
	// 10km square anchored near Bern.
	ref := GeoReference{
		ScaleX: 10, ScaleY: 10,
		TiePixelX: 0, TiePixelY: 0,
		TieModelX: 2_600_000, TieModelY: 1_200_000,
		EPSG: 2056, IsGeographic: false,
	}

	b, err := Resolve(ref, 1000, 1000)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if b.North < 46.9 || b.North > 47.0 {
		t.Errorf("North = %g, want ~46.95", b.North)
	}
	if b.West < 7.40 || b.West > 7.48 {
		t.Errorf("West = %g, want ~7.44", b.West)
	}
	if !b.Valid() {
		t.Errorf("bounds %s not valid", b)
	}
}

func TestResolve_UnsupportedCRS(t *testing.T) {
	ref := GeoReference{
		ScaleX: 1, ScaleY: 1,
		TieModelX: 0, TieModelY: 0,
		EPSG: 27700, IsGeographic: false, // British National Grid: not registered
	}

	_, err := Resolve(ref, 100, 100)
	if !errors.Is(err, ErrUnsupportedCRS) {
		t.Errorf("Resolve() error = %v, want ErrUnsupportedCRS", err)
	}
}

func TestResolve_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		ref    GeoReference
		width  int
		height int
	}{
		{
			name: "zero pixel scale",
			ref: GeoReference{
				ScaleX: 0, ScaleY: 0.001,
				TieModelX: 0, TieModelY: 10,
				EPSG: 4326, IsGeographic: true,
			},
			width: 100, height: 100,
		},
		{
			name: "negative pixel scale",
			ref: GeoReference{
				ScaleX: 0.001, ScaleY: -0.001,
				TieModelX: 0, TieModelY: 10,
				EPSG: 4326, IsGeographic: true,
			},
			width: 100, height: 100,
		},
		{
			name: "zero-size raster",
			ref: GeoReference{
				ScaleX: 0.001, ScaleY: 0.001,
				TieModelX: 0, TieModelY: 10,
				EPSG: 4326, IsGeographic: true,
			},
			width: 0, height: 100,
		},
		{
			name: "latitude overflow",
			ref: GeoReference{
				ScaleX: 1, ScaleY: 1,
				TieModelX: 500, TieModelY: 500,
				EPSG: 4326, IsGeographic: true,
			},
			width: 10, height: 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.ref, tt.width, tt.height)
			if !errors.Is(err, ErrDegenerateBounds) {
				t.Errorf("Resolve() error = %v, want ErrDegenerateBounds", err)
			}
		})
	}
}

func TestBoundsValid(t *testing.T) {
	tests := []struct {
		name string
		b    Bounds
		want bool
	}{
		{"normal", Bounds{North: 22.5, South: 21.5, East: -159, West: -160}, true},
		{"antimeridian span", Bounds{North: -16, South: -17, East: -179, West: 179}, true},
		{"inverted latitudes", Bounds{North: 21.5, South: 22.5, East: -159, West: -160}, false},
		{"north out of range", Bounds{North: 91, South: 0, East: 10, West: 0}, false},
		{"longitude out of range", Bounds{North: 10, South: 0, East: 190, West: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func assertBoundsClose(t *testing.T, got, want Bounds, tol float64) {
	t.Helper()
	if math.Abs(got.North-want.North) > tol ||
		math.Abs(got.South-want.South) > tol ||
		math.Abs(got.East-want.East) > tol ||
		math.Abs(got.West-want.West) > tol {
		t.Errorf("bounds = %s, want %s", got, want)
	}
}
