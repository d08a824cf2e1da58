package planner

import (
	"context"

	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/geo"
	"github.com/transitops/shuttleplan-go/internal/domain/roadnet"
	"github.com/transitops/shuttleplan-go/internal/domain/route"
	"github.com/transitops/shuttleplan-go/pkg/utils"
)

// resolveGuard decides whether a route needs a guard seat. Before conceding
// one it attempts the experiential swap: move the nearest male within road
// range into the critical seat, accept only if the full driven route does
// not regress, then let the solver re-sequence around the pinned male.
// guardNeeded always ends up describing the final stop order.
func (r *run) resolveGuard(ctx context.Context, rt *route.Route) {
	if !r.guardActive {
		rt.GuardNeeded = false
		return
	}
	crit := rt.CriticalSeat()
	if crit == nil || crit.Gender != employee.Female {
		rt.GuardNeeded = false
		return
	}

	male, roadKm, ok := r.nearestSwappableMale(ctx, rt, crit)
	if !ok {
		rt.GuardNeeded = true
		return
	}
	if !r.applySwap(ctx, rt, crit, male, roadKm) {
		rt.GuardNeeded = true
		return
	}
	r.reoptimizeAfterSwap(ctx, rt, male)

	final := rt.CriticalSeat()
	rt.GuardNeeded = final != nil && final.Gender == employee.Female
}

// nearestSwappableMale queries road distances from the critical female to
// every in-route male and returns the nearest within swap range. A table
// failure just means no swap candidate; the route keeps its guard.
func (r *run) nearestSwappableMale(ctx context.Context, rt *route.Route, crit *employee.Employee) (*employee.Employee, float64, bool) {
	var males []*employee.Employee
	for _, re := range rt.Employees {
		if re.Employee.Gender == employee.Male {
			males = append(males, re.Employee)
		}
	}
	if len(males) == 0 {
		return nil, 0, false
	}

	pts := make([]geo.Point, 0, len(males)+1)
	pts = append(pts, crit.Location)
	dests := make([]int, 0, len(males))
	for i, m := range males {
		pts = append(pts, m.Location)
		dests = append(dests, i+1)
	}
	table, err := r.svc.road.Table(ctx, roadnet.TableRequest{
		City:         r.city,
		Points:       pts,
		Sources:      []int{0},
		Destinations: dests,
	})
	if err != nil || len(table.DistancesMeters) == 0 {
		return nil, 0, false
	}

	best := -1
	var bestKm float64
	for i, meters := range table.DistancesMeters[0] {
		km := meters / 1000.0
		if km > r.profile.Tunables.MaxSwapDistanceKm {
			continue
		}
		if best == -1 || km < bestKm {
			best = i
			bestKm = km
		}
	}
	if best == -1 {
		return nil, 0, false
	}
	return males[best], bestKm, true
}

// applySwap exchanges the critical female with the chosen male and re-runs
// the driven route. The swap is rolled back if the road service fails or
// the trip duration grows past the allowed increase.
func (r *run) applySwap(ctx context.Context, rt *route.Route, crit, male *employee.Employee, roadKm float64) bool {
	ci, mi := -1, -1
	for i := range rt.Employees {
		switch rt.Employees[i].Employee {
		case crit:
			ci = i
		case male:
			mi = i
		}
	}
	if ci == -1 || mi == -1 || ci == mi {
		return false
	}

	before := rt.Details
	rt.Employees[ci], rt.Employees[mi] = rt.Employees[mi], rt.Employees[ci]

	res, err := r.svc.road.Route(ctx, roadnet.RouteRequest{
		City:          r.city,
		Points:        rt.Points(r.facility),
		TrafficBuffer: r.buffer,
	})
	allowed := before.TotalDurationSeconds * (1 + r.profile.Tunables.SwapDurationIncreaseCap)
	if err != nil || res.DurationSeconds > allowed {
		rt.Employees[ci], rt.Employees[mi] = rt.Employees[mi], rt.Employees[ci]
		return false
	}

	rt.Details = detailsFrom(res)
	rt.Swapped = true
	rt.SwappedPair = &route.SwappedPairInfo{
		FemaleEmpCode:  crit.EmpCode,
		MaleEmpCode:    male.EmpCode,
		RoadDistanceKm: utils.Round3(roadKm),
	}
	r.logger.Log("INFO", "guard swap applied", map[string]interface{}{
		"route": rt.UniqueKey, "female": crit.EmpCode, "male": male.EmpCode, "roadKm": utils.Round3(roadKm),
	})
	return true
}

// reoptimizeAfterSwap lets the solver re-sequence the swapped route with
// the male pinned to the critical seat. Any failure along the way keeps
// the simple-swap order.
func (r *run) reoptimizeAfterSwap(ctx context.Context, rt *route.Route, male *employee.Employee) {
	emps := rt.EmployeeRefs()
	if len(emps) <= 2 {
		return
	}

	table, err := r.tableFor(ctx, emps)
	if err != nil {
		return
	}
	pinned := -1
	for i, e := range emps {
		if e == male {
			pinned = i + 1
			break
		}
	}
	if pinned == -1 {
		return
	}

	sol, err := r.runSolver(ctx, solveModeReopt, r.newReoptProblem(table, rt.VehicleCapacity, len(emps), pinned))
	if err != nil || len(sol.Routes) == 0 {
		return
	}
	ordered := orderFromNodes(sol.Routes[0], emps)
	if len(ordered) != len(emps) {
		return
	}

	res, err := r.svc.road.Route(ctx, roadnet.RouteRequest{
		City:          r.city,
		Points:        route.PointsFor(r.trip, r.facility, ordered),
		TrafficBuffer: r.buffer,
	})
	if err != nil {
		return
	}
	rt.Reorder(ordered)
	rt.Details = detailsFrom(res)
}
