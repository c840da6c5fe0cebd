package coord

import "fmt"

// Bounds is a geographic bounding box in WGS84 decimal degrees.
//
// North > South always holds for a valid box. East < West is legal and
// means the box crosses the antimeridian (the 180°/-180° boundary);
// consumers that assume West <= East must check SpansAntimeridian first.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// SpansAntimeridian reports whether the box crosses the 180°/-180° boundary.
func (b Bounds) SpansAntimeridian() bool {
	return b.East < b.West
}

// CenterLat returns the center latitude.
func (b Bounds) CenterLat() float64 {
	return (b.North + b.South) / 2
}

// CenterLon returns the center longitude, accounting for antimeridian spans.
func (b Bounds) CenterLon() float64 {
	if !b.SpansAntimeridian() {
		return (b.West + b.East) / 2
	}
	c := (b.West + b.East + 360) / 2
	if c > 180 {
		c -= 360
	}
	return c
}

// Valid reports whether the box satisfies the North > South invariant and
// all fields are within the WGS84 value ranges.
func (b Bounds) Valid() bool {
	if b.North <= b.South {
		return false
	}
	if b.North > 90 || b.South < -90 {
		return false
	}
	return b.West >= -180 && b.West <= 180 && b.East >= -180 && b.East <= 180
}

func (b Bounds) String() string {
	return fmt.Sprintf("N%.6f S%.6f E%.6f W%.6f", b.North, b.South, b.East, b.West)
}
