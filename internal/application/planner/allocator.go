package planner

import (
	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/route"
	"github.com/transitops/shuttleplan-go/internal/domain/shared"
	"github.com/transitops/shuttleplan-go/pkg/utils"
)

// Special-needs routes carry at most two riders, one when a guard rides
// along.
const specialNeedsGroupCap = 2

// assignVehicle seats an ordered group in the smallest vehicle that fits,
// falling back to the medium tier once the fleet is exhausted, and trims
// from the far end until the group honors the seat count. Trimmed
// employees are returned for requeueing.
func (r *run) assignVehicle(rt *route.Route, group []*employee.Employee) ([]*employee.Employee, error) {
	rt.Reorder(group)
	rt.IsSpecialNeedsRoute = allSpecialNeeds(group)

	required := len(group)
	if r.preliminaryGuard(rt) {
		required++
	}

	class, ok := r.inventory.PickSmallest(required)
	if !ok {
		rt.AfterFleetExhaustion = true
		class, ok = r.inventory.TakeMedium()
		if !ok {
			rt.Errored = true
			return nil, shared.NewCapacityError(required)
		}
	}
	rt.AssignedVehicleType = class.Type
	rt.VehicleCapacity = class.Capacity

	return r.enforceCapacity(rt), nil
}

// preliminaryGuard reports whether the current stop order would require a
// guard seat.
func (r *run) preliminaryGuard(rt *route.Route) bool {
	if !r.guardActive {
		return false
	}
	crit := rt.CriticalSeat()
	return crit != nil && crit.Gender == employee.Female
}

// passengerCap is how many employees the assigned vehicle can carry beside
// the given guard requirement.
func (r *run) passengerCap(rt *route.Route, guard bool) int {
	seats := rt.VehicleCapacity
	if guard {
		seats--
	}
	if rt.IsSpecialNeedsRoute {
		special := specialNeedsGroupCap
		if guard {
			special = 1
		}
		seats = utils.Min(seats, special)
	}
	return seats
}

// enforceCapacity trims the far end until occupancy plus guard fits the
// vehicle, re-deriving the guard requirement after every trim since the
// critical seat moves. Iterations are bounded in case the guard flag flaps
// as seats shift.
func (r *run) enforceCapacity(rt *route.Route) []*employee.Employee {
	var trimmed []*employee.Employee
	guard := r.preliminaryGuard(rt)
	for attempts := len(rt.Employees) + 3; attempts > 0; attempts-- {
		if len(rt.Employees) <= r.passengerCap(rt, guard) {
			break
		}
		e := rt.TrimFarEnd()
		if e == nil {
			break
		}
		trimmed = append(trimmed, e)
		guard = r.preliminaryGuard(rt)
	}
	rt.GuardNeeded = guard
	return trimmed
}

func allSpecialNeeds(group []*employee.Employee) bool {
	if len(group) == 0 {
		return false
	}
	for _, e := range group {
		if !e.SpecialNeeds() {
			return false
		}
	}
	return true
}
