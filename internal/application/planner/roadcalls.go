package planner

import (
	"context"
	"errors"
	"sync"

	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/geo"
	"github.com/transitops/shuttleplan-go/internal/domain/roadnet"
	"github.com/transitops/shuttleplan-go/internal/domain/route"
	"github.com/transitops/shuttleplan-go/internal/domain/shared"
)

const defaultFarthestFanout = 4

// detailsFrom converts a road-service answer into route details.
func detailsFrom(res *roadnet.RouteResult) route.Details {
	legs := make([]route.Leg, len(res.Legs))
	for i, l := range res.Legs {
		legs[i] = route.Leg{DistanceMeters: l.DistanceMeters, DurationSeconds: l.DurationSeconds}
	}
	return route.Details{
		TotalDistanceMeters:  res.DistanceMeters,
		TotalDurationSeconds: res.DurationSeconds,
		Legs:                 legs,
		EncodedPolyline:      res.EncodedPolyline,
		Geometry:             res.Geometry,
	}
}

// routeDetailsFor fetches the driven route for an employee sequence that is
// not yet wrapped in a route.
func (r *run) routeDetailsFor(ctx context.Context, emps []*employee.Employee) (route.Details, error) {
	res, err := r.svc.road.Route(ctx, roadnet.RouteRequest{
		City:          r.city,
		Points:        route.PointsFor(r.trip, r.facility, emps),
		TrafficBuffer: r.buffer,
	})
	if err != nil {
		return route.Details{}, err
	}
	return detailsFrom(res), nil
}

// refreshDetails recomputes a route's driven geometry for its current stop
// order.
func (r *run) refreshDetails(ctx context.Context, rt *route.Route) error {
	res, err := r.svc.road.Route(ctx, roadnet.RouteRequest{
		City:          r.city,
		Points:        rt.Points(r.facility),
		TrafficBuffer: r.buffer,
	})
	if err != nil {
		return err
	}
	rt.Details = detailsFrom(res)
	return nil
}

// edgeRoadKm fetches one employee's road distance to the facility in km, in
// the trip direction: employee to facility for pickup, facility to employee
// for dropoff. The road client's cache absorbs repeat lookups.
func (r *run) edgeRoadKm(ctx context.Context, e *employee.Employee) (float64, error) {
	pts := []geo.Point{e.Location, r.facility}
	if !r.trip.IsPickup() {
		pts = []geo.Point{r.facility, e.Location}
	}
	res, err := r.svc.road.Route(ctx, roadnet.RouteRequest{
		City:          r.city,
		Points:        pts,
		TrafficBuffer: r.buffer,
	})
	if err != nil {
		return 0, err
	}
	return res.DistanceMeters / 1000.0, nil
}

// farthestRoadKm returns the largest facility road distance among the given
// employees. The per-edge lookups are independent and fan out over a
// bounded worker set.
func (r *run) farthestRoadKm(ctx context.Context, emps []*employee.Employee) (float64, error) {
	if len(emps) == 0 {
		return 0, nil
	}
	fanout := r.svc.opts.FarthestFanout
	if fanout <= 0 {
		fanout = defaultFarthestFanout
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		farthest float64
		firstErr error
	)
	sem := make(chan struct{}, fanout)
	for _, e := range emps {
		wg.Add(1)
		sem <- struct{}{}
		go func(e *employee.Employee) {
			defer wg.Done()
			defer func() { <-sem }()
			km, err := r.edgeRoadKm(ctx, e)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			if km > farthest {
				farthest = km
			}
		}(e)
	}
	wg.Wait()

	if firstErr != nil {
		return 0, firstErr
	}
	return farthest, nil
}

// isRoadError reports whether err came from the road service rather than a
// rule violation.
func isRoadError(err error) bool {
	var rse *shared.RoadServiceError
	return errors.As(err, &rse)
}

// farthestHaversineKm is the straight-line fallback used when the deviation
// check is bypassed and no road distances were fetched.
func farthestHaversineKm(emps []*employee.Employee) float64 {
	var far float64
	for _, e := range emps {
		if e.DistToFacilityKm > far {
			far = e.DistToFacilityKm
		}
	}
	return far
}
