package planner

import (
	"context"

	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/geo"
	"github.com/transitops/shuttleplan-go/internal/domain/roadnet"
	"github.com/transitops/shuttleplan-go/internal/domain/solver"
)

// Solver invocation modes, as recorded in telemetry.
const (
	solveModeZone   = "solve"
	solveModePolish = "polish"
	solveModeReopt  = "reopt"
)

// tableFor fetches the full distance/duration matrices over the facility
// (matrix index 0) and the employees (1..N, in list order).
func (r *run) tableFor(ctx context.Context, emps []*employee.Employee) (*roadnet.TableResult, error) {
	pts := make([]geo.Point, 0, len(emps)+1)
	pts = append(pts, r.facility)
	for _, e := range emps {
		pts = append(pts, e.Location)
	}
	return r.svc.road.Table(ctx, roadnet.TableRequest{City: r.city, Points: pts})
}

// newProblem builds the solver document fields shared by every mode.
func (r *run) newProblem(table *roadnet.TableResult, numVehicles, capacity, customers int) *solver.Problem {
	demands := make([]int, customers+1)
	serviceTimes := make([]float64, customers+1)
	for i := 1; i <= customers; i++ {
		demands[i] = 1
		serviceTimes[i] = r.serviceTime
	}
	capacities := make([]int, numVehicles)
	for i := range capacities {
		capacities[i] = capacity
	}
	return &solver.Problem{
		DistanceMatrix:         table.DistancesMeters,
		DurationMatrix:         table.DurationsSeconds,
		NumVehicles:            numVehicles,
		VehicleCapacities:      capacities,
		Demands:                demands,
		DepotIndex:             0,
		MaxRouteDuration:       r.profile.MaxDurationSeconds,
		ServiceTimes:           serviceTimes,
		FacilityCoords:         []float64{r.facility.Lat, r.facility.Lng},
		TripType:               string(r.trip),
		DirectionPenaltyWeight: r.profile.DirectionPenaltyWeight,
	}
}

// newPolishProblem is the single-vehicle re-sequencing pass. Dropping is
// allowed so an overloaded group can shed stops back to the pool.
func (r *run) newPolishProblem(table *roadnet.TableResult, capacity, customers int) *solver.Problem {
	p := r.newProblem(table, 1, capacity, customers)
	p.AllowDroppingVisits = true
	p.DropVisitPenalty = r.profile.DropPenalty
	return p
}

// newZoneProblem is the multi-vehicle fallback over a problematic zone's
// deferred employees: one vehicle per customer, dropping allowed.
func (r *run) newZoneProblem(table *roadnet.TableResult, numVehicles, capacity, customers int) *solver.Problem {
	p := r.newProblem(table, numVehicles, capacity, customers)
	p.AllowDroppingVisits = true
	p.DropVisitPenalty = r.profile.DropPenalty
	return p
}

// newReoptProblem re-sequences one route after a guard swap with the male
// pinned to the critical seat. Dropping is disallowed: the stop set is
// already settled.
func (r *run) newReoptProblem(table *roadnet.TableResult, capacity, customers, pinnedNode int) *solver.Problem {
	p := r.newProblem(table, 1, capacity, customers)
	p.DirectionPenaltyWeight = r.profile.ReoptDirectionPenaltyWeight
	node := pinnedNode
	if r.trip.IsPickup() {
		p.FixedStartNodeIndexInMatrix = &node
	} else {
		p.FixedEndNodeIndexInMatrix = &node
	}
	return p
}

// runSolver wraps one solver invocation with telemetry.
func (r *run) runSolver(ctx context.Context, mode string, p *solver.Problem) (*solver.Solution, error) {
	started := r.svc.clock.Now()
	sol, err := r.svc.solver.Solve(ctx, p)
	r.svc.metrics.RecordSolverRun(mode, err == nil, r.svc.clock.Now().Sub(started).Seconds())
	if err != nil {
		r.logger.Log("WARN", "solver invocation failed", map[string]interface{}{
			"mode": mode, "customers": len(p.Demands) - 1, "error": err.Error(),
		})
	}
	return sol, err
}

// orderFromNodes maps solver node indices back to employees, skipping the
// depot and anything out of range.
func orderFromNodes(nodes []int, emps []*employee.Employee) []*employee.Employee {
	out := make([]*employee.Employee, 0, len(nodes))
	for _, n := range nodes {
		if n <= 0 || n > len(emps) {
			continue
		}
		out = append(out, emps[n-1])
	}
	return out
}
