package planner

import (
	"context"

	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/geo"
	"github.com/transitops/shuttleplan-go/internal/domain/route"
)

// recycleUnrouted drains the unrouted pool and retries everyone under
// tightened rules: distant employees are filtered or forced into singleton
// routes, the rest pair up with one close neighbor, and each candidate
// route must pass the strict deviation check, trimming from the far end
// between attempts. Whatever survives every attempt returns to the pool as
// final unrouted.
func (r *run) recycleUnrouted(ctx context.Context) error {
	inputs := r.pool.drain()
	if len(inputs) == 0 {
		return nil
	}
	tun := r.profile.Tunables
	r.logger.Log("INFO", "unrouted recovery started", map[string]interface{}{"count": len(inputs)})

	queue := make([]*employee.Employee, len(inputs))
	copy(queue, inputs)
	attempts := make(map[string]int, len(inputs))
	var impossible []*employee.Employee

	for iter := 3 * len(inputs); iter > 0 && len(queue) > 0; iter-- {
		if err := ctx.Err(); err != nil {
			r.pool.addAll(queue)
			r.pool.addAll(impossible)
			return err
		}
		e := queue[0]
		queue = queue[1:]

		if e.DistToFacilityKm > tun.ImpossibleDistanceKm {
			impossible = append(impossible, e)
			continue
		}
		if attempts[e.EmpCode] >= tun.MaxUnroutedAttempts {
			impossible = append(impossible, e)
			continue
		}

		group := []*employee.Employee{e}
		if e.DistToFacilityKm <= tun.ForceSingletonDistanceKm {
			if partner, idx, ok := r.pickRecoveryPartner(e, queue); ok {
				avg := (e.DistToFacilityKm + partner.DistToFacilityKm) / 2
				if avg <= tun.UnroutedAvgDistanceReducerKm {
					group = append(group, partner)
					queue = append(queue[:idx], queue[idx+1:]...)
				}
			}
		}
		for _, m := range group {
			attempts[m.EmpCode]++
		}

		requeue := r.attemptRecovery(ctx, group, attempts, &impossible)
		queue = append(queue, requeue...)
	}

	r.pool.addAll(queue)
	r.pool.addAll(impossible)
	r.logger.Log("INFO", "unrouted recovery finished", map[string]interface{}{
		"remaining": r.pool.size(),
	})
	return nil
}

// pickRecoveryPartner finds the nearest queued employee eligible to share a
// recovery route: same special-needs status, within pairing range, and
// within the group span cap.
func (r *run) pickRecoveryPartner(e *employee.Employee, queue []*employee.Employee) (*employee.Employee, int, bool) {
	tun := r.profile.Tunables
	best := -1
	var bestKm float64
	for i, cand := range queue {
		if cand.SpecialNeeds() != e.SpecialNeeds() {
			continue
		}
		km := geo.HaversineKm(e.Location, cand.Location)
		if km > tun.UnroutedGroupDistanceKm || km > tun.UnroutedGroupSpanKm {
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
	return queue[best], best, true
}

// attemptRecovery assembles and validates one recovery group. Employees
// that fall out with attempts to spare are returned for requeueing; the
// rest land in impossible. A singleton that passes deviation but exceeds
// the duration cap is still committed, flagged durationExceeded.
func (r *run) attemptRecovery(ctx context.Context, group []*employee.Employee, attempts map[string]int, impossible *[]*employee.Employee) []*employee.Employee {
	tun := r.profile.Tunables
	requeueOrGiveUp := func(list []*employee.Employee) []*employee.Employee {
		var requeue []*employee.Employee
		for _, e := range list {
			if attempts[e.EmpCode] >= tun.MaxUnroutedAttempts {
				*impossible = append(*impossible, e)
				continue
			}
			requeue = append(requeue, e)
		}
		return requeue
	}

	ordered := sortByFacilityDistance(group, r.trip)
	rt, leftover, err := r.assembleRoute(ctx, ordered)
	requeue := requeueOrGiveUp(leftover)
	if err != nil || rt == nil {
		return requeue
	}

	r.resolveGuard(ctx, rt)
	if more, ok := r.shrinkToCapacity(ctx, rt); !ok {
		return append(requeue, requeueOrGiveUp(more)...)
	} else if len(more) > 0 {
		requeue = append(requeue, requeueOrGiveUp(more)...)
	}

	for trims := 0; ; trims++ {
		farthest, err := r.checkDeviation(ctx, rt.EmployeeRefs(), rt.Details, true)
		if err != nil && isRoadError(err) {
			return append(requeue, requeueOrGiveUp(rt.EmployeeRefs())...)
		}
		if err == nil {
			rt.FarthestRoadKm = farthest
			if !r.durationOK(rt.Details) {
				if len(rt.Employees) > 1 {
					return append(requeue, requeueOrGiveUp(rt.EmployeeRefs())...)
				}
				rt.DurationExceeded = true
			}
			r.commit(rt)
			return requeue
		}

		// Deviation failure: a lone employee is out of options, otherwise
		// trim the far end and re-measure.
		if len(rt.Employees) <= 1 {
			*impossible = append(*impossible, rt.Employees[0].Employee)
			return requeue
		}
		if trims >= tun.MaxTrimAttemptsPerGroup {
			return append(requeue, requeueOrGiveUp(rt.EmployeeRefs())...)
		}
		trimmed := rt.TrimFarEnd()
		requeue = append(requeue, requeueOrGiveUp([]*employee.Employee{trimmed})...)
		if rerr := r.refreshDetails(ctx, rt); rerr != nil {
			return append(requeue, requeueOrGiveUp(rt.EmployeeRefs())...)
		}
	}
}

// shrinkToCapacity re-enforces the seat count after guard resolution moved
// the critical seat; trimmed employees are returned. ok is false when the
// post-trim road refresh fails and the route must dissolve.
func (r *run) shrinkToCapacity(ctx context.Context, rt *route.Route) ([]*employee.Employee, bool) {
	trimmed := r.enforceCapacity(rt)
	if len(trimmed) == 0 {
		return nil, true
	}
	if len(rt.Employees) == 0 {
		return trimmed, false
	}
	if err := r.refreshDetails(ctx, rt); err != nil {
		return append(trimmed, rt.EmployeeRefs()...), false
	}
	return trimmed, true
}
