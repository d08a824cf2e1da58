package planner

import (
	"context"

	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/route"
)

// polishRoute re-sequences a route's stops with a single-vehicle solver
// pass and refreshes the driven geometry for the final order. Stops the
// solver drops are removed and returned. On error the caller dissolves the
// route.
func (r *run) polishRoute(ctx context.Context, rt *route.Route) ([]*employee.Employee, error) {
	emps := rt.EmployeeRefs()
	if len(emps) <= 1 {
		return nil, r.refreshDetails(ctx, rt)
	}

	table, err := r.tableFor(ctx, emps)
	if err != nil {
		return nil, err
	}
	seats := r.passengerCap(rt, rt.GuardNeeded)
	sol, err := r.runSolver(ctx, solveModePolish, r.newPolishProblem(table, seats, len(emps)))
	if err != nil {
		return nil, err
	}

	var visit []int
	if len(sol.Routes) > 0 {
		visit = sol.Routes[0]
	}
	ordered := orderFromNodes(visit, emps)

	kept := make(map[string]bool, len(ordered))
	for _, e := range ordered {
		kept[e.EmpCode] = true
	}
	var dropped []*employee.Employee
	for _, e := range emps {
		if !kept[e.EmpCode] {
			dropped = append(dropped, e)
		}
	}

	if len(ordered) == 0 {
		rt.Employees = nil
		return dropped, nil
	}
	rt.Reorder(ordered)
	if err := r.refreshDetails(ctx, rt); err != nil {
		return dropped, err
	}
	return dropped, nil
}

// assembleRoute runs fleet assignment and the solver polish over an
// ordered group, producing an uncommitted route. The returned leftover
// employees fell out on the way: capacity trims, solver drops, or the
// whole group when the route dissolves (rt == nil).
func (r *run) assembleRoute(ctx context.Context, group []*employee.Employee) (*route.Route, []*employee.Employee, error) {
	if len(group) == 0 {
		return nil, nil, nil
	}

	rt := route.New(r.nextRouteKey(), group[0].Zone, r.trip)
	trimmed, err := r.assignVehicle(rt, group)
	if err != nil {
		r.logger.Log("WARN", "route dissolved: fleet exhausted", map[string]interface{}{
			"zone": rt.Zone, "groupSize": len(group),
		})
		return nil, group, err
	}
	leftover := trimmed
	if len(rt.Employees) == 0 {
		return nil, leftover, nil
	}

	dropped, err := r.polishRoute(ctx, rt)
	leftover = append(leftover, dropped...)
	if err != nil {
		leftover = append(leftover, rt.EmployeeRefs()...)
		r.logger.Log("WARN", "route dissolved during polish", map[string]interface{}{
			"zone": rt.Zone, "groupSize": len(group), "error": err.Error(),
		})
		return nil, leftover, err
	}
	if len(rt.Employees) == 0 {
		return nil, leftover, nil
	}
	return rt, leftover, nil
}
