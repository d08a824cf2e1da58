// Package route models a shuttle route being formed: an ordered employee
// sequence plus the vehicle, guard and validation state the pipeline
// attaches on the way to commit.
package route

import (
	"time"

	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/geo"
)

// RoutedEmployee wraps an employee with its in-route position and the
// time computed for it. The base employee record is never mutated.
type RoutedEmployee struct {
	Employee    *employee.Employee
	Order       int
	PickupTime  time.Time
	DropoffTime time.Time
}

// SwappedPairInfo records a completed guard-avoidance swap.
type SwappedPairInfo struct {
	FemaleEmpCode  string
	MaleEmpCode    string
	RoadDistanceKm float64
}

// Route is a shuttle route under construction or committed.
type Route struct {
	UniqueKey string
	Zone      string
	TripType  TripType

	Employees []RoutedEmployee

	AssignedVehicleType  string
	VehicleCapacity      int
	AfterFleetExhaustion bool

	GuardNeeded         bool
	IsSpecialNeedsRoute bool
	Swapped             bool
	DurationExceeded    bool
	Errored             bool

	Details     Details
	SwappedPair *SwappedPairInfo

	// FarthestRoadKm is the road distance from the facility to the route's
	// farthest employee, set during validation and surfaced in the response.
	FarthestRoadKm float64
}

// New creates a route shell for the given zone and direction.
func New(uniqueKey, zone string, trip TripType) *Route {
	return &Route{UniqueKey: uniqueKey, Zone: zone, TripType: trip}
}

// Append adds an employee at the tail of the stop sequence.
func (r *Route) Append(e *employee.Employee) {
	r.Employees = append(r.Employees, RoutedEmployee{Employee: e})
}

// CriticalSeatIndex is the stop position left alone with the driver: the
// first stop for pickup, the last for dropoff.
func (r *Route) CriticalSeatIndex() int {
	if r.TripType.IsPickup() {
		return 0
	}
	return len(r.Employees) - 1
}

// CriticalSeat returns the employee at the critical seat, or nil for an
// empty route.
func (r *Route) CriticalSeat() *employee.Employee {
	if len(r.Employees) == 0 {
		return nil
	}
	return r.Employees[r.CriticalSeatIndex()].Employee
}

// TrimFarEnd removes and returns the employee at the trimming end used by
// capacity enforcement: the head for dropoff, the tail for pickup.
func (r *Route) TrimFarEnd() *employee.Employee {
	if len(r.Employees) == 0 {
		return nil
	}
	if r.TripType.IsPickup() {
		e := r.Employees[len(r.Employees)-1].Employee
		r.Employees = r.Employees[:len(r.Employees)-1]
		return e
	}
	e := r.Employees[0].Employee
	r.Employees = r.Employees[1:]
	return e
}

// Reorder rearranges the stop sequence to the given employee order. The
// slice must be a permutation of the current employees.
func (r *Route) Reorder(ordered []*employee.Employee) {
	seq := make([]RoutedEmployee, 0, len(ordered))
	for _, e := range ordered {
		seq = append(seq, RoutedEmployee{Employee: e})
	}
	r.Employees = seq
}

// Renumber assigns 1-based stop orders following the current sequence.
func (r *Route) Renumber() {
	for i := range r.Employees {
		r.Employees[i].Order = i + 1
	}
}

// EmployeeRefs returns the employees in stop order.
func (r *Route) EmployeeRefs() []*employee.Employee {
	out := make([]*employee.Employee, len(r.Employees))
	for i := range r.Employees {
		out[i] = r.Employees[i].Employee
	}
	return out
}

// EmpCodes returns the employee codes in stop order.
func (r *Route) EmpCodes() []string {
	out := make([]string, len(r.Employees))
	for i := range r.Employees {
		out[i] = r.Employees[i].Employee.EmpCode
	}
	return out
}

// Occupancy is the passenger count, excluding any guard.
func (r *Route) Occupancy() int {
	return len(r.Employees)
}

// Points returns the driven coordinate sequence for this route: employees
// then facility for pickup, facility then employees for dropoff.
func (r *Route) Points(facility geo.Point) []geo.Point {
	return PointsFor(r.TripType, facility, r.EmployeeRefs())
}

// PointsFor builds the driven coordinate sequence for an employee list
// that is not yet wrapped in a route.
func PointsFor(trip TripType, facility geo.Point, emps []*employee.Employee) []geo.Point {
	pts := make([]geo.Point, 0, len(emps)+1)
	if !trip.IsPickup() {
		pts = append(pts, facility)
	}
	for _, e := range emps {
		pts = append(pts, e.Location)
	}
	if trip.IsPickup() {
		pts = append(pts, facility)
	}
	return pts
}
