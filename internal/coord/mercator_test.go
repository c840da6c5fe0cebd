package coord

import (
	"math"
	"testing"
)

func TestWebMercator_Origin(t *testing.T) {
	w := &WebMercator{}
	lon, lat := w.ToWGS84(0, 0)
	if math.Abs(lon) > 1e-9 || math.Abs(lat) > 1e-9 {
		t.Errorf("ToWGS84(0,0) = (%g, %g), want (0, 0)", lon, lat)
	}
}

func TestWebMercator_Edges(t *testing.T) {
	w := &WebMercator{}

	// The projection's x extent maps exactly to ±180 longitude.
	lon, _ := w.ToWGS84(OriginShift, 0)
	if math.Abs(lon-180) > 1e-9 {
		t.Errorf("ToWGS84(OriginShift, 0) lon = %g, want 180", lon)
	}
	lon, _ = w.ToWGS84(-OriginShift, 0)
	if math.Abs(lon+180) > 1e-9 {
		t.Errorf("ToWGS84(-OriginShift, 0) lon = %g, want -180", lon)
	}

	// The y extent maps to the Web Mercator latitude limit.
	_, lat := w.ToWGS84(0, OriginShift)
	if math.Abs(lat-85.05112878) > 1e-6 {
		t.Errorf("ToWGS84(0, OriginShift) lat = %g, want 85.05112878", lat)
	}
}

func TestWebMercator_RoundTrip(t *testing.T) {
	w := &WebMercator{}
	points := [][2]float64{
		{0, 0},
		{7.44, 46.95},
		{-159.5, 22.0},
		{151.21, -33.87},
		{179.9, 70.0},
	}
	for _, pt := range points {
		x, y := w.FromWGS84(pt[0], pt[1])
		lon, lat := w.ToWGS84(x, y)
		if math.Abs(lon-pt[0]) > 1e-9 || math.Abs(lat-pt[1]) > 1e-9 {
			t.Errorf("roundtrip (%g, %g) -> (%g, %g)", pt[0], pt[1], lon, lat)
		}
	}
}
