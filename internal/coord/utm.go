package coord

import "math"

// WGS84 ellipsoid parameters.
const (
	wgs84A  = 6378137.0           // semi-major axis in meters
	wgs84F  = 1 / 298.257223563   // flattening
	utmK0   = 0.9996              // UTM central meridian scale factor
	utmFE   = 500000.0            // false easting
	utmFNSo = 10000000.0          // false northing, southern hemisphere
)

// UTM implements the Projection interface for the WGS84 UTM zones
// (EPSG:32601-32660 north, EPSG:32701-32760 south) using Snyder's
// transverse Mercator series. Accuracy is sub-meter within a zone,
// far inside the tolerance needed for bounding boxes.
type UTM struct {
	Zone  int // 1-60
	South bool
}

func (u *UTM) EPSG() int {
	if u.South {
		return 32700 + u.Zone
	}
	return 32600 + u.Zone
}

// centralMeridian returns the zone's central meridian in degrees.
func (u *UTM) centralMeridian() float64 {
	return float64(u.Zone)*6 - 183
}

// FromWGS84 converts WGS84 longitude/latitude (degrees) to UTM easting/northing.
func (u *UTM) FromWGS84(lon, lat float64) (x, y float64) {
	e2 := wgs84F * (2 - wgs84F)
	ep2 := e2 / (1 - e2)

	phi := lat * math.Pi / 180
	dLam := (lon - u.centralMeridian()) * math.Pi / 180

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := wgs84A / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	aa := cosPhi * dLam

	m := meridionalArc(phi, e2)

	x = utmFE + utmK0*n*(aa+
		(1-t+c)*aa*aa*aa/6+
		(5-18*t+t*t+72*c-58*ep2)*aa*aa*aa*aa*aa/120)

	y = utmK0 * (m + n*tanPhi*(aa*aa/2+
		(5-t+9*c+4*c*c)*aa*aa*aa*aa/24+
		(61-58*t+t*t+600*c-330*ep2)*aa*aa*aa*aa*aa*aa/720))
	if u.South {
		y += utmFNSo
	}
	return
}

// ToWGS84 converts UTM easting/northing to WGS84 longitude/latitude (degrees).
func (u *UTM) ToWGS84(x, y float64) (lon, lat float64) {
	e2 := wgs84F * (2 - wgs84F)
	ep2 := e2 / (1 - e2)

	northing := y
	if u.South {
		northing -= utmFNSo
	}

	m := northing / utmK0
	mu := m / (wgs84A * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := wgs84A / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := wgs84A * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := (x - utmFE) / (n1 * utmK0)

	phi := phi1 - (n1 * tanPhi1 / r1) * (d*d/2 -
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d*d*d*d/24 +
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d*d*d*d*d*d/720)

	dLam := (d -
		(1+2*t1+c1)*d*d*d/6 +
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d*d*d*d*d/120) / cosPhi1

	lat = phi * 180 / math.Pi
	lon = u.centralMeridian() + dLam*180/math.Pi
	return
}

// meridionalArc computes the distance along the meridian from the equator
// to latitude phi (radians) on the WGS84 ellipsoid.
func meridionalArc(phi, e2 float64) float64 {
	return wgs84A * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*phi -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*phi) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*phi) -
		(35*e2*e2*e2/3072)*math.Sin(6*phi))
}
