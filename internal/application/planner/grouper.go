package planner

import (
	"context"
	"sort"

	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/geo"
	"github.com/transitops/shuttleplan-go/internal/domain/route"
	"github.com/transitops/shuttleplan-go/pkg/utils"
)

// sortByFacilityDistance orders employees farthest-first for pickup and
// nearest-first for dropoff, matching the direction the bus sweeps. The
// sort is stable so equal distances keep input order.
func sortByFacilityDistance(emps []*employee.Employee, trip route.TripType) []*employee.Employee {
	out := make([]*employee.Employee, len(emps))
	copy(out, emps)
	sort.SliceStable(out, func(i, j int) bool {
		if trip.IsPickup() {
			return out[i].DistToFacilityKm > out[j].DistToFacilityKm
		}
		return out[i].DistToFacilityKm < out[j].DistToFacilityKm
	})
	return out
}

// growGroup extends a seeded group candidate-by-candidate up to the target
// size, validating every extension against the road service, the duration
// cap and the deviation rule. Accepted candidates are removed from
// remaining. Returns false when even the seed alone cannot form a valid
// route.
func (r *run) growGroup(ctx context.Context, seed *employee.Employee, remaining *[]*employee.Employee, target int) ([]*employee.Employee, bool) {
	group := []*employee.Employee{seed}
	details, err := r.routeDetailsFor(ctx, group)
	if err != nil || !r.durationOK(details) {
		return nil, false
	}
	if _, err := r.checkDeviation(ctx, group, details, false); err != nil {
		return nil, false
	}

	limit := target
	if seed.SpecialNeeds() {
		limit = utils.Min(target, specialNeedsGroupCap)
	}

	for len(group) < limit {
		cands := r.scoreCandidates(group[len(group)-1], *remaining, seed.SpecialNeeds())
		if len(cands) == 0 {
			break
		}
		accepted := false
		for _, c := range cands {
			tentative := make([]*employee.Employee, len(group), len(group)+1)
			copy(tentative, group)
			tentative = append(tentative, c.emp)

			d, err := r.routeDetailsFor(ctx, tentative)
			if err != nil || !r.durationOK(d) {
				continue
			}
			if _, err := r.checkDeviation(ctx, tentative, d, false); err != nil {
				continue
			}
			group = tentative
			*remaining = removeEmployee(*remaining, c.emp)
			accepted = true
			break
		}
		if !accepted {
			break
		}
	}
	return group, true
}

type scoredCandidate struct {
	emp   *employee.Employee
	score float64
	havKm float64
}

// scoreCandidates ranks eligible extension candidates relative to the
// group's tail. Candidates beyond twice the swap radius by haversine or
// with mismatched special-needs status are excluded. Ties within the score
// tolerance break toward the candidate nearest the tail.
func (r *run) scoreCandidates(tail *employee.Employee, remaining []*employee.Employee, specialSeed bool) []scoredCandidate {
	tun := r.profile.Tunables
	maxHav := 2 * tun.MaxSwapDistanceKm

	out := make([]scoredCandidate, 0, len(remaining))
	for _, cand := range remaining {
		if cand.SpecialNeeds() != specialSeed {
			continue
		}
		hav := geo.HaversineKm(tail.Location, cand.Location)
		if hav > maxHav {
			continue
		}
		out = append(out, scoredCandidate{emp: cand, score: r.extensionScore(tail, cand, hav), havKm: hav})
	}
	sort.SliceStable(out, func(i, j int) bool {
		diff := out[i].score - out[j].score
		if diff > tun.ScoreTolerance || diff < -tun.ScoreTolerance {
			return diff > 0
		}
		return out[i].havKm < out[j].havKm
	})
	return out
}

// extensionScore is the grouping heuristic: signed progress along the trip
// direction, penalized when the candidate breaks the monotonic sweep, plus
// a proximity bonus that decays hyperbolically with haversine distance from
// the tail.
func (r *run) extensionScore(tail, cand *employee.Employee, havKm float64) float64 {
	tun := r.profile.Tunables
	tailDist := tail.DistToFacilityKm
	candDist := cand.DistToFacilityKm

	var progress float64
	var good bool
	if r.trip.IsPickup() {
		progress = tailDist - candDist
		good = candDist <= tailDist*tun.PickupAcceptanceFactor
	} else {
		progress = candDist - tailDist
		good = candDist >= tailDist*tun.DropoffAcceptanceFactor
	}
	term := progress * tun.ProgressWeight
	if !good {
		term *= tun.ProgressPenaltyScalar
	}
	return term + (1.0/(1.0+havKm))*tun.DistanceWeight*tun.DistanceScalar
}

func removeEmployee(list []*employee.Employee, target *employee.Employee) []*employee.Employee {
	out := make([]*employee.Employee, 0, len(list))
	for _, e := range list {
		if e != target {
			out = append(out, e)
		}
	}
	return out
}

// planZone forms preliminary routes for one zone group: seed, grow, assign
// a vehicle, polish. Employees that cannot seed a valid route are deferred
// and, when the profile allows, handed to the zone-solve fallback.
func (r *run) planZone(ctx context.Context, zg zoneGroup) ([]*route.Route, error) {
	remaining := sortByFacilityDistance(zg.employees, r.trip)
	var routes []*route.Route
	var deferred []*employee.Employee

	for len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			r.pool.addAll(remaining)
			r.pool.addAll(deferred)
			return routes, err
		}
		seed := remaining[0]
		remaining = remaining[1:]

		group, ok := r.growGroup(ctx, seed, &remaining, zg.target)
		if !ok {
			deferred = append(deferred, seed)
			continue
		}
		rt, leftover, err := r.assembleRoute(ctx, group)
		r.pool.addAll(leftover)
		if err == nil && rt != nil {
			routes = append(routes, rt)
		}
	}

	r.logger.Log("INFO", "zone grouping complete", map[string]interface{}{
		"zone": zg.label, "routes": len(routes), "deferred": len(deferred),
	})
	if len(deferred) > 0 {
		routes = r.recoverDeferred(ctx, zg, deferred, routes)
	}
	return routes, nil
}

// recoverDeferred hands a problematic zone's deferred employees to the
// multi-vehicle solver when the profile allows dropping visits; otherwise
// they go straight to the unrouted pool.
func (r *run) recoverDeferred(ctx context.Context, zg zoneGroup, deferred []*employee.Employee, routes []*route.Route) []*route.Route {
	if !r.profile.AllowDroppingVisitsForProblematicZones || len(deferred) <= zg.target {
		r.pool.addAll(deferred)
		return routes
	}
	r.logger.Log("INFO", "zone solve fallback engaged", map[string]interface{}{
		"zone": zg.label, "deferred": len(deferred),
	})

	table, err := r.tableFor(ctx, deferred)
	if err != nil {
		r.pool.addAll(deferred)
		return routes
	}
	sol, err := r.runSolver(ctx, solveModeZone, r.newZoneProblem(table, len(deferred), zg.target, len(deferred)))
	if err != nil {
		r.pool.addAll(deferred)
		return routes
	}

	placed := make(map[string]bool, len(deferred))
	for _, nodes := range sol.Routes {
		group := orderFromNodes(nodes, deferred)
		if len(group) == 0 {
			continue
		}
		for _, e := range group {
			placed[e.EmpCode] = true
		}
		rt, leftover, err := r.assembleRoute(ctx, group)
		r.pool.addAll(leftover)
		if err == nil && rt != nil {
			routes = append(routes, rt)
		}
	}
	for _, e := range deferred {
		if !placed[e.EmpCode] {
			r.pool.add(e)
		}
	}
	return routes
}
