// Package planner implements the shuttle route planning pipeline: zone
// partitioning, heuristic group formation validated against the road
// network, VRP re-sequencing, fleet assignment, guard resolution and the
// unrouted recovery pass.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/transitops/shuttleplan-go/internal/application/common"
	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/fleet"
	"github.com/transitops/shuttleplan-go/internal/domain/geo"
	"github.com/transitops/shuttleplan-go/internal/domain/profile"
	"github.com/transitops/shuttleplan-go/internal/domain/roadnet"
	"github.com/transitops/shuttleplan-go/internal/domain/route"
	"github.com/transitops/shuttleplan-go/internal/domain/shared"
	"github.com/transitops/shuttleplan-go/internal/domain/solver"
	"github.com/transitops/shuttleplan-go/internal/domain/zone"
	"github.com/transitops/shuttleplan-go/pkg/utils"
)

// ZoneSource resolves zone polygons for a request. Inline zones from the
// request body win over the city's configured zone file. Errors are
// treated as bad request input.
type ZoneSource interface {
	Zones(city string, inline []byte) ([]zone.Zone, error)
}

// Options tune service behavior that is not part of the request profile.
type Options struct {
	// DeviationBypass short-circuits every deviation check to pass.
	DeviationBypass bool
	// FarthestFanout bounds the parallel per-employee road lookups during
	// deviation checks (default 4).
	FarthestFanout int
}

// Service is the route planning pipeline. It is stateless across requests:
// each Plan call owns its fleet counters, pools and routes.
type Service struct {
	road    roadnet.Service
	solver  solver.Client
	zones   ZoneSource
	opts    Options
	metrics Recorder
	clock   shared.Clock
}

// NewService wires the pipeline. zones and metrics may be nil.
func NewService(road roadnet.Service, vrp solver.Client, zones ZoneSource, opts Options, metrics Recorder) *Service {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &Service{
		road:    road,
		solver:  vrp,
		zones:   zones,
		opts:    opts,
		metrics: metrics,
		clock:   shared.NewRealClock(),
	}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(clock shared.Clock) *Service {
	s.clock = clock
	return s
}

// run is the per-request pipeline state. Everything here is owned by a
// single Plan call.
type run struct {
	svc     *Service
	req     *PlanRequest
	logger  common.PipelineLogger
	profile *profile.Profile

	trip     route.TripType
	facility geo.Point
	city     string
	shiftAt  time.Time

	buffer        float64
	serviceTime   float64
	reportingTime float64
	guardActive   bool

	inventory *fleet.Inventory
	pool      *unroutedPool
	routes    []*route.Route
	keySeq    int
}

// nextRouteKey derives a stable route key from the request uuid and a
// per-run sequence, so replaying the same request yields identical keys.
func (r *run) nextRouteKey() string {
	r.keySeq++
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", r.req.UUID, r.keySeq))).String()
}

// Plan runs the full pipeline for one request. Employees that cannot be
// routed are not an error: they surface in unroutedEmployees. Only invalid
// input and an unreachable road backend fail the request, and even then the
// envelope lists every employee as unrouted.
func (s *Service) Plan(ctx context.Context, req *PlanRequest) (*PlanResponse, error) {
	started := s.clock.Now()
	logger := common.LoggerFromContext(ctx)

	fail := func(err error) (*PlanResponse, error) {
		s.metrics.RecordPlanRequest(string(req.TripType), "error", s.clock.Now().Sub(started).Seconds())
		return emptyEnvelope(req), err
	}

	if err := req.Validate(); err != nil {
		return fail(err)
	}
	req.applyDefaults()
	shiftAt, err := req.shiftInstant()
	if err != nil {
		return fail(err)
	}

	r := &run{
		svc:           s,
		req:           req,
		logger:        logger,
		profile:       req.Profile,
		trip:          req.TripType,
		facility:      geo.Point{Lat: req.Facility.GeoY, Lng: req.Facility.GeoX},
		city:          req.Profile.Name,
		shiftAt:       shiftAt,
		serviceTime:   req.PickupTimePerEmployee,
		reportingTime: req.ReportingTime,
		inventory:     fleet.NewInventory(req.Profile.Fleet),
		pool:          newUnroutedPool(),
	}
	r.buffer = roadnet.TrafficBuffer(
		utils.DecimalHour(shiftAt),
		r.profile.Tunables.TrafficBufferPeak,
		r.profile.Tunables.TrafficBufferOffPeak,
	)
	r.guardActive = r.computeGuardActive()

	if err := s.road.Probe(ctx, r.city, r.facility); err != nil {
		logger.Log("ERROR", "road service probe failed", map[string]interface{}{
			"city": r.city, "error": err.Error(),
		})
		return fail(err)
	}

	if err := r.execute(ctx); err != nil {
		return fail(err)
	}

	resp := r.buildResponse()
	s.metrics.RecordPlanRequest(string(req.TripType), "ok", s.clock.Now().Sub(started).Seconds())
	s.metrics.RecordPlanOutcome(string(req.TripType), resp.TotalRoutes, resp.TotalRoutedEmployees, len(resp.UnroutedEmployees))
	logger.Log("INFO", "plan complete", map[string]interface{}{
		"uuid":     req.UUID,
		"routes":   resp.TotalRoutes,
		"routed":   resp.TotalRoutedEmployees,
		"unrouted": len(resp.UnroutedEmployees),
	})
	return resp, nil
}

// execute runs zoning, per-zone grouping, route validation and commit,
// then the unrouted recovery pass.
func (r *run) execute(ctx context.Context) error {
	employees := r.req.buildEmployees(r.facility)

	zones, err := r.resolveZones()
	if err != nil {
		return err
	}
	assignment := zone.Assign(employees, zones)
	groups := r.buildZoneGroups(assignment)
	r.logger.Log("INFO", "zoning complete", map[string]interface{}{
		"zoneGroups":  len(groups),
		"skipped":     len(assignment.Skipped()),
		"guardActive": r.guardActive,
		"buffer":      r.buffer,
	})

	var pending []*route.Route
	for _, zg := range groups {
		routes, err := r.planZone(ctx, zg)
		pending = append(pending, routes...)
		if err != nil {
			r.dissolveAll(pending)
			return err
		}
	}

	for i, rt := range pending {
		if err := ctx.Err(); err != nil {
			r.dissolveAll(pending[i:])
			return err
		}
		r.finishRoute(ctx, rt)
	}

	return r.recycleUnrouted(ctx)
}

// finishRoute runs guard resolution and final validation on an assembled
// route, committing it or dissolving it into the pool.
func (r *run) finishRoute(ctx context.Context, rt *route.Route) {
	r.resolveGuard(ctx, rt)

	// Guard resolution can move the critical seat, so the seat count must
	// be re-checked before validating.
	trimmed, ok := r.shrinkToCapacity(ctx, rt)
	r.pool.addAll(trimmed)
	if !ok || len(rt.Employees) == 0 {
		return
	}

	farthest, err := r.checkDeviation(ctx, rt.EmployeeRefs(), rt.Details, false)
	if err != nil {
		r.logger.Log("INFO", "route dissolved at validation", map[string]interface{}{
			"route": rt.UniqueKey, "zone": rt.Zone, "error": err.Error(),
		})
		r.pool.addAll(rt.EmployeeRefs())
		return
	}
	rt.FarthestRoadKm = farthest

	if !r.durationOK(rt.Details) {
		r.logger.Log("INFO", "route dissolved: over duration cap", map[string]interface{}{
			"route": rt.UniqueKey, "seconds": rt.Details.TotalDurationSeconds,
		})
		r.pool.addAll(rt.EmployeeRefs())
		return
	}
	r.commit(rt)
}

// commit finalizes a route: the guard flag is recomputed from the final
// stop order, stops are renumbered, ETAs stamped, and the route joins the
// response in commit order.
func (r *run) commit(rt *route.Route) {
	crit := rt.CriticalSeat()
	rt.GuardNeeded = r.guardActive && crit != nil && crit.Gender == employee.Female
	rt.Renumber()
	r.synthesizeETAs(rt)
	r.routes = append(r.routes, rt)
}

func (r *run) dissolveAll(routes []*route.Route) {
	for _, rt := range routes {
		r.pool.addAll(rt.EmployeeRefs())
	}
}

// resolveZones loads the zone polygons for the request city. No zone
// source or no zones just means everything lands in DEFAULT_ZONE.
func (r *run) resolveZones() ([]zone.Zone, error) {
	if r.svc.zones == nil {
		return nil, nil
	}
	zones, err := r.svc.zones.Zones(r.city, r.req.Zones)
	if err != nil {
		return nil, shared.NewValidationError("zones", err.Error())
	}
	return zones, nil
}

// computeGuardActive resolves the request guard flag against the profile's
// night-shift window for this direction, when one is configured. A window
// that fails to parse does not disable an explicitly requested guard.
func (r *run) computeGuardActive() bool {
	if !r.req.Guard {
		return false
	}
	w, ok := r.profile.GuardWindowFor(r.trip)
	if !ok {
		return true
	}
	sinceMidnight := r.shiftAt.Sub(utils.AtClock(r.shiftAt, 0))
	in, err := w.Contains(sinceMidnight)
	if err != nil {
		return true
	}
	return in
}
