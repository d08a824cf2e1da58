package planner

import (
	"time"

	"github.com/transitops/shuttleplan-go/internal/domain/route"
	"github.com/transitops/shuttleplan-go/pkg/utils"
)

// synthesizeETAs stamps a pickup or dropoff instant on every stop of a
// finished route. Pickup walks the legs backward from the facility arrival
// target (shift minus reporting margin); dropoff walks forward from the
// shift end. Leg durations take the traffic multiplier, capped at 1.40x.
func (r *run) synthesizeETAs(rt *route.Route) {
	if len(rt.Employees) == 0 || len(rt.Details.Legs) != len(rt.Employees) {
		return
	}
	mult := utils.MinFloat(1+r.buffer, 1+r.profile.Tunables.EtaBufferCap)
	service := secondsToDuration(r.serviceTime)
	legs := rt.Details.Legs

	if rt.TripType.IsPickup() {
		t := r.shiftAt.Add(-secondsToDuration(r.reportingTime))
		for i := len(rt.Employees) - 1; i >= 0; i-- {
			t = t.Add(-secondsToDuration(legs[i].DurationSeconds * mult))
			t = t.Add(-service)
			rt.Employees[i].PickupTime = t
		}
		return
	}

	t := r.shiftAt
	for i := range rt.Employees {
		t = t.Add(secondsToDuration(legs[i].DurationSeconds * mult))
		t = t.Add(service)
		rt.Employees[i].DropoffTime = t
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
