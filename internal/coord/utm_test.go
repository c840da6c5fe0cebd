package coord

import (
	"math"
	"testing"
)

func TestUTM_CentralMeridianEquator(t *testing.T) {
	// A point on the central meridian at the equator maps exactly to the
	// false easting with zero northing.
	u := &UTM{Zone: 32}
	e, n := u.FromWGS84(9.0, 0.0)
	if math.Abs(e-500000) > 1e-6 {
		t.Errorf("easting = %f, want 500000", e)
	}
	if math.Abs(n) > 1e-6 {
		t.Errorf("northing = %f, want 0", n)
	}
}

func TestUTM_SouthFalseNorthing(t *testing.T) {
	// Southern zones add a 10,000km false northing, so the equator sits at
	// exactly 10,000,000 and points south of it come out below that.
	u := &UTM{Zone: 56, South: true}
	_, nEq := u.FromWGS84(153.0, 0.0)
	if math.Abs(nEq-utmFNSo) > 1e-6 {
		t.Errorf("equator northing = %f, want %f", nEq, utmFNSo)
	}
	_, nSouth := u.FromWGS84(153.0, -30.0)
	if nSouth >= nEq {
		t.Errorf("northing at 30°S (%f) not below equator northing (%f)", nSouth, nEq)
	}
}

func TestUTM_RoundTrip(t *testing.T) {
	points := []struct {
		name     string
		zone     int
		south    bool
		lon, lat float64
	}{
		{"Zurich (32N)", 32, false, 8.5417, 47.3769},
		{"Oslo (32N)", 32, false, 10.7522, 59.9139},
		{"Sydney (56S)", 56, true, 151.2093, -33.8688},
		{"Quito (17S)", 17, true, -78.4678, -0.1807},
		{"zone edge (33N)", 33, false, 17.9, 55.0},
	}

	for _, pt := range points {
		t.Run(pt.name, func(t *testing.T) {
			u := &UTM{Zone: pt.zone, South: pt.south}
			e, n := u.FromWGS84(pt.lon, pt.lat)
			gotLon, gotLat := u.ToWGS84(e, n)

			tol := 1e-6 // ~0.1m
			if math.Abs(gotLon-pt.lon) > tol || math.Abs(gotLat-pt.lat) > tol {
				t.Errorf("roundtrip (%.4f, %.4f) -> (%.7f, %.7f), delta=(%.2e, %.2e)",
					pt.lon, pt.lat, gotLon, gotLat, gotLon-pt.lon, gotLat-pt.lat)
			}
		})
	}
}

func TestUTM_KnownPoint(t *testing.T) {
	// Reference conversion for zone 32N: lon 9.5°E lat 47.0°N.
	// Easting should land ~38km east of the central meridian and the
	// northing near the meridional arc distance for 47°N (~5.21M meters).
	u := &UTM{Zone: 32}
	e, n := u.FromWGS84(9.5, 47.0)
	if e < 530000 || e > 545000 {
		t.Errorf("easting = %f, want ~538000", e)
	}
	if n < 5190000 || n > 5220000 {
		t.Errorf("northing = %f, want ~5205000", n)
	}
}

func TestForEPSG(t *testing.T) {
	tests := []struct {
		epsg     int
		wantNil  bool
		wantEPSG int
	}{
		{4326, false, 4326},
		{3857, false, 3857},
		{2056, false, 2056},
		{32601, false, 32601},
		{32632, false, 32632},
		{32660, false, 32660},
		{32701, false, 32701},
		{32756, false, 32756},
		{32760, false, 32760},
		{32661, true, 0}, // UPS, not UTM
		{27700, true, 0},
		{0, true, 0},
	}
	for _, tt := range tests {
		p := ForEPSG(tt.epsg)
		if tt.wantNil {
			if p != nil {
				t.Errorf("ForEPSG(%d) = %v, want nil", tt.epsg, p)
			}
			continue
		}
		if p == nil {
			t.Errorf("ForEPSG(%d) = nil, want projection", tt.epsg)
			continue
		}
		if p.EPSG() != tt.wantEPSG {
			t.Errorf("ForEPSG(%d).EPSG() = %d, want %d", tt.epsg, p.EPSG(), tt.wantEPSG)
		}
	}
}
