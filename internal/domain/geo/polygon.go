package geo

// Polygon is a closed outer ring. The first and last vertex do not need to
// repeat; the ring is closed implicitly.
type Polygon []Point

// Contains reports whether p lies inside the polygon, using the even-odd
// ray-casting rule with a horizontal ray. Points exactly on an edge may
// fall on either side; zone assignment tolerates that.
func (pg Polygon) Contains(p Point) bool {
	n := len(pg)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := pg[i], pg[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) &&
			p.Lng < (vj.Lng-vi.Lng)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat)+vi.Lng {
			inside = !inside
		}
		j = i
	}
	return inside
}
