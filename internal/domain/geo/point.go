// Package geo provides the geographic primitives the routing pipeline is
// built on: WGS84 points, haversine distances, point-in-polygon tests and
// the encoded polyline codec.
package geo

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// IsZero reports whether the point carries no coordinates. The ingestion
// layer treats a zero point as "location missing".
func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}
