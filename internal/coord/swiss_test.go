package coord

import (
	"math"
	"testing"
)

// Reference points from the swisstopo LV95 documentation.
var swissRefPoints = []struct {
	name              string
	easting, northing float64
	lon, lat          float64
	tolDeg            float64
}{
	{
		name:    "Bern (reference origin)",
		easting: 2_600_000, northing: 1_200_000,
		lon: 7.438632, lat: 46.951083,
		tolDeg: 0.001,
	},
	{
		name:    "Zurich",
		easting: 2_683_474, northing: 1_247_862,
		lon: 8.5417, lat: 47.3769,
		tolDeg: 0.005,
	},
	{
		name:    "Geneva",
		easting: 2_500_560, northing: 1_118_017,
		lon: 6.1432, lat: 46.2075,
		tolDeg: 0.01, // polynomial approximation drifts at the edges
	},
}

func TestSwissLV95_ToWGS84(t *testing.T) {
	s := &SwissLV95{}
	for _, ref := range swissRefPoints {
		t.Run(ref.name, func(t *testing.T) {
			gotLon, gotLat := s.ToWGS84(ref.easting, ref.northing)
			if d := math.Abs(gotLon - ref.lon); d > ref.tolDeg {
				t.Errorf("lon = %.6f, want ~%.6f (delta %.6f)", gotLon, ref.lon, d)
			}
			if d := math.Abs(gotLat - ref.lat); d > ref.tolDeg {
				t.Errorf("lat = %.6f, want ~%.6f (delta %.6f)", gotLat, ref.lat, d)
			}
		})
	}
}

func TestSwissLV95_RoundTrip(t *testing.T) {
	s := &SwissLV95{}
	for _, ref := range swissRefPoints {
		t.Run(ref.name, func(t *testing.T) {
			lon, lat := s.ToWGS84(ref.easting, ref.northing)
			gotE, gotN := s.FromWGS84(lon, lat)

			tolM := 2.0
			if d := math.Abs(gotE - ref.easting); d > tolM {
				t.Errorf("easting = %.2f, want ~%.2f (delta %.2f)", gotE, ref.easting, d)
			}
			if d := math.Abs(gotN - ref.northing); d > tolM {
				t.Errorf("northing = %.2f, want ~%.2f (delta %.2f)", gotN, ref.northing, d)
			}
		})
	}
}

func TestSwissLV95_EPSG(t *testing.T) {
	s := &SwissLV95{}
	if s.EPSG() != 2056 {
		t.Errorf("EPSG() = %d, want 2056", s.EPSG())
	}
}
