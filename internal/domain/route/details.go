package route

import "github.com/transitops/shuttleplan-go/internal/domain/geo"

// Leg is one hop of the driven route: employee-to-next (with the facility
// leg last) for pickup, facility-to-first then between employees for
// dropoff. Durations here are raw road durations; the traffic buffer is
// applied to the totals and during ETA synthesis.
type Leg struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Details is the canonical description of a driven route as returned by
// the road service. TotalDurationSeconds already includes the time-of-day
// traffic buffer.
type Details struct {
	TotalDistanceMeters  float64
	TotalDurationSeconds float64
	Legs                 []Leg
	EncodedPolyline      string
	Geometry             []geo.Point
}

// TotalKm returns the total driven distance in kilometers.
func (d Details) TotalKm() float64 {
	return d.TotalDistanceMeters / 1000.0
}
