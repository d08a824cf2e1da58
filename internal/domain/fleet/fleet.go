// Package fleet models the vehicle classes available for one planning
// request and the mutable per-request counters the allocator draws from.
package fleet

import "sort"

// MediumType is the vehicle class used as the fallback once the fleet is
// exhausted.
const MediumType = "m"

// VehicleClass is one fleet entry from the profile.
type VehicleClass struct {
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
	Count    int    `json:"count"`
}

// Inventory tracks remaining vehicles per class within a single request.
// It is mutated only by the fleet allocator; the orchestrator never shares
// it across requests.
type Inventory struct {
	classes   []VehicleClass
	remaining map[string]int
}

// NewInventory builds an inventory with classes sorted ascending by
// capacity. Duplicate types accumulate their counts.
func NewInventory(classes []VehicleClass) *Inventory {
	inv := &Inventory{remaining: make(map[string]int, len(classes))}
	for _, c := range classes {
		if _, seen := inv.remaining[c.Type]; !seen {
			inv.classes = append(inv.classes, c)
		}
		inv.remaining[c.Type] += c.Count
	}
	sort.SliceStable(inv.classes, func(i, j int) bool {
		return inv.classes[i].Capacity < inv.classes[j].Capacity
	})
	return inv
}

// PickSmallest takes the first class, ascending by capacity, that can seat
// the required occupancy and still has vehicles left. The chosen class's
// counter is decremented.
func (inv *Inventory) PickSmallest(required int) (VehicleClass, bool) {
	for _, c := range inv.classes {
		if c.Capacity >= required && inv.remaining[c.Type] > 0 {
			inv.remaining[c.Type]--
			return c, true
		}
	}
	return VehicleClass{}, false
}

// TakeMedium returns the medium-tier class regardless of its capacity or
// remaining count; this is the fleet-exhaustion fallback. The counter is
// decremented only while positive.
func (inv *Inventory) TakeMedium() (VehicleClass, bool) {
	for _, c := range inv.classes {
		if c.Type == MediumType {
			if inv.remaining[c.Type] > 0 {
				inv.remaining[c.Type]--
			}
			return c, true
		}
	}
	return VehicleClass{}, false
}

// Remaining reports how many vehicles of the given type are left.
func (inv *Inventory) Remaining(vehicleType string) int {
	return inv.remaining[vehicleType]
}

// Classes returns the classes ascending by capacity.
func (inv *Inventory) Classes() []VehicleClass {
	return inv.classes
}
