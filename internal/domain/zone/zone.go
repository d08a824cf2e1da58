// Package zone partitions employees into named polygon zones. Employees
// that match no polygon land in the synthetic DEFAULT_ZONE; employees
// without coordinates are set aside and surface as unrouted.
package zone

import (
	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/geo"
)

// DefaultZone is the synthetic zone for employees outside every polygon.
const DefaultZone = "DEFAULT_ZONE"

// Zone is a named polygon read from the zone file or the request.
type Zone struct {
	Name    string
	Polygon geo.Polygon
}

// Assignment is the result of partitioning employees into zones. Iteration
// order is deterministic: zones in input order, DEFAULT_ZONE last, and
// employees in input order within each zone.
type Assignment struct {
	order   []string
	byZone  map[string][]*employee.Employee
	skipped []*employee.Employee
}

// Assign partitions employees by polygon containment. The first matching
// zone wins, in zone input order. The employees' Zone field is set as a
// derived field.
func Assign(employees []*employee.Employee, zones []Zone) *Assignment {
	a := &Assignment{byZone: make(map[string][]*employee.Employee)}
	for _, e := range employees {
		if !e.HasCoords {
			a.skipped = append(a.skipped, e)
			continue
		}
		name := DefaultZone
		for _, z := range zones {
			if z.Polygon.Contains(e.Location) {
				name = z.Name
				break
			}
		}
		e.Zone = name
		if _, seen := a.byZone[name]; !seen {
			a.order = append(a.order, name)
		}
		a.byZone[name] = append(a.byZone[name], e)
	}
	a.sortOrder(zones)
	return a
}

// sortOrder rewrites the iteration order as: zones in their input order
// (only those that received employees), then DEFAULT_ZONE.
func (a *Assignment) sortOrder(zones []Zone) {
	ordered := make([]string, 0, len(a.order))
	seen := make(map[string]bool, len(a.order))
	for _, z := range zones {
		if _, ok := a.byZone[z.Name]; ok && !seen[z.Name] {
			seen[z.Name] = true
			ordered = append(ordered, z.Name)
		}
	}
	if _, ok := a.byZone[DefaultZone]; ok && !seen[DefaultZone] {
		ordered = append(ordered, DefaultZone)
	}
	a.order = ordered
}

// Zones returns the populated zone names in deterministic order.
func (a *Assignment) Zones() []string {
	return a.order
}

// Employees returns the employees assigned to the named zone.
func (a *Assignment) Employees(name string) []*employee.Employee {
	return a.byZone[name]
}

// Skipped returns the employees dropped for missing coordinates.
func (a *Assignment) Skipped() []*employee.Employee {
	return a.skipped
}
