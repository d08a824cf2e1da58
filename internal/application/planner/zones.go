package planner

import (
	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/zone"
)

// zoneGroup is one planning unit: a single zone, or a clubbed component of
// the pairing matrix labeled by its first member zone.
type zoneGroup struct {
	label     string
	employees []*employee.Employee
	target    int
}

// buildZoneGroups turns a zone assignment into planning units. With zone
// routing disabled everything becomes one DEFAULT_ZONE unit. With clubbing
// enabled, zones connected through the pairing matrix merge into one unit;
// the member zones keep their own names on the routes they produce.
func (r *run) buildZoneGroups(assignment *zone.Assignment) []zoneGroup {
	names := assignment.Zones()

	if !r.profile.ZoneRoutingEnabled() {
		var emps []*employee.Employee
		for _, name := range names {
			emps = append(emps, assignment.Employees(name)...)
		}
		if len(emps) == 0 {
			return nil
		}
		return []zoneGroup{{
			label:     zone.DefaultZone,
			employees: emps,
			target:    r.profile.ZoneTargetSize(zone.DefaultZone),
		}}
	}

	if !r.profile.ZoneClubbing || len(r.profile.ZonePairingMatrix) == 0 {
		groups := make([]zoneGroup, 0, len(names))
		for _, name := range names {
			groups = append(groups, zoneGroup{
				label:     name,
				employees: assignment.Employees(name),
				target:    r.profile.ZoneTargetSize(name),
			})
		}
		return groups
	}

	visited := make(map[string]bool, len(names))
	var groups []zoneGroup
	for _, name := range names {
		if visited[name] {
			continue
		}
		component := clubComponent(name, names, r.profile.ZonePairingMatrix, visited)
		var emps []*employee.Employee
		for _, member := range component {
			emps = append(emps, assignment.Employees(member)...)
		}
		groups = append(groups, zoneGroup{
			label:     name,
			employees: emps,
			target:    r.profile.ZoneTargetSize(name),
		})
	}
	return groups
}

// clubComponent walks the pairing matrix breadth-first from start and
// collects the populated zones connected to it, treating pairings as
// undirected. Candidates are scanned in assignment order so the component
// order is deterministic.
func clubComponent(start string, names []string, matrix map[string][]string, visited map[string]bool) []string {
	visited[start] = true
	queue := []string{start}
	var component []string
	for len(queue) > 0 {
		z := queue[0]
		queue = queue[1:]
		component = append(component, z)
		for _, cand := range names {
			if visited[cand] || !zonesPaired(matrix, z, cand) {
				continue
			}
			visited[cand] = true
			queue = append(queue, cand)
		}
	}
	return component
}

func zonesPaired(matrix map[string][]string, a, b string) bool {
	for _, p := range matrix[a] {
		if p == b {
			return true
		}
	}
	for _, p := range matrix[b] {
		if p == a {
			return true
		}
	}
	return false
}
