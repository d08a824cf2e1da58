// Package roadnet defines the port to the external OSRM-compatible road
// network service and the result shapes the pipeline consumes.
package roadnet

import (
	"context"

	"github.com/transitops/shuttleplan-go/internal/domain/geo"
)

// RouteRequest asks for the driven route visiting Points in order.
// TrafficBuffer is the fractional time-of-day padding applied to the
// returned total duration.
type RouteRequest struct {
	City          string
	Points        []geo.Point
	TrafficBuffer float64
}

// Leg is one hop between consecutive input points. Leg durations are raw;
// buffering is applied to totals and again, capped, during ETA synthesis.
type Leg struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// RouteResult is the road service's answer for a route request. The input
// coordinate sequence is preserved one-to-one: len(Legs) == len(Points)-1.
type RouteResult struct {
	DistanceMeters     float64
	DurationSeconds    float64 // buffered
	RawDurationSeconds float64
	Legs               []Leg
	EncodedPolyline    string
	Geometry           []geo.Point
}

// TableRequest asks for distance/duration matrices over Points. Nil
// Sources or Destinations mean "all points".
type TableRequest struct {
	City         string
	Points       []geo.Point
	Sources      []int
	Destinations []int
}

// TableResult holds the matrices in source-major order.
type TableResult struct {
	DistancesMeters  [][]float64
	DurationsSeconds [][]float64
}

// Service is the road network port. Every failure is reported as a
// shared.RoadServiceError: the current attempt is infeasible, partial data
// is never returned.
type Service interface {
	Route(ctx context.Context, req RouteRequest) (*RouteResult, error)
	Table(ctx context.Context, req TableRequest) (*TableResult, error)

	// Probe checks the backend for the city is reachable; it is called once
	// per request before any planning work starts.
	Probe(ctx context.Context, city string, at geo.Point) error
}
