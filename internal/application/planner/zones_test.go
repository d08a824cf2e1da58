package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/geo"
	"github.com/transitops/shuttleplan-go/internal/domain/zone"
	"github.com/transitops/shuttleplan-go/test/helpers"
)

func sq(lat, lng, side float64) geo.Polygon {
	return geo.Polygon{
		{Lat: lat, Lng: lng},
		{Lat: lat, Lng: lng + side},
		{Lat: lat + side, Lng: lng + side},
		{Lat: lat + side, Lng: lng},
	}
}

// Polygons around the test facility: 10 km north lands in NORTH, 10 km
// south in SOUTH, 15 km east in EAST.
func testZones() []zone.Zone {
	return []zone.Zone{
		{Name: "NORTH", Polygon: sq(13.0, 77.5, 0.2)},
		{Name: "SOUTH", Polygon: sq(12.7, 77.5, 0.2)},
		{Name: "EAST", Polygon: sq(12.9, 77.7, 0.2)},
	}
}

func TestBuildZoneGroupsOnePerZone(t *testing.T) {
	r := newTestRun(helpers.NewMockRoadService(), helpers.NewMockSolver(), nil)
	n1 := testEmp("N1", 10, 0, employee.Male)
	n2 := testEmp("N2", 9, 0, employee.Male)
	s1 := testEmp("S1", -10, 0, employee.Male)
	assignment := zone.Assign([]*employee.Employee{n1, s1, n2}, testZones())

	groups := r.buildZoneGroups(assignment)

	require.Len(t, groups, 2)
	assert.Equal(t, "NORTH", groups[0].label)
	assert.Equal(t, []string{"N1", "N2"}, codes(groups[0].employees))
	assert.Equal(t, "SOUTH", groups[1].label)
	assert.Equal(t, []string{"S1"}, codes(groups[1].employees))
	assert.Equal(t, "NORTH", n1.Zone)
}

func TestBuildZoneGroupsTargetSizes(t *testing.T) {
	p := testProfile()
	p.LargeCapacityZones = []string{"NORTH"}
	p.SmallCapacityZones = []string{"SOUTH"}
	r := newTestRun(helpers.NewMockRoadService(), helpers.NewMockSolver(), p)
	assignment := zone.Assign([]*employee.Employee{
		testEmp("N1", 10, 0, employee.Male),
		testEmp("S1", -10, 0, employee.Male),
	}, testZones())

	groups := r.buildZoneGroups(assignment)

	require.Len(t, groups, 2)
	assert.Equal(t, 12, groups[0].target)
	assert.Equal(t, 4, groups[1].target)
}

func TestBuildZoneGroupsDisabledRouting(t *testing.T) {
	p := testProfile()
	off := false
	p.ZoneBasedRouting = &off
	r := newTestRun(helpers.NewMockRoadService(), helpers.NewMockSolver(), p)
	assignment := zone.Assign([]*employee.Employee{
		testEmp("N1", 10, 0, employee.Male),
		testEmp("S1", -10, 0, employee.Male),
	}, testZones())

	groups := r.buildZoneGroups(assignment)

	require.Len(t, groups, 1, "disabled zone routing plans everything as one unit")
	assert.Equal(t, zone.DefaultZone, groups[0].label)
	assert.Len(t, groups[0].employees, 2)
	assert.Equal(t, 6, groups[0].target)
}

func TestBuildZoneGroupsClubsPairedZones(t *testing.T) {
	p := testProfile()
	p.ZoneClubbing = true
	p.ZonePairingMatrix = map[string][]string{"NORTH": {"SOUTH"}}
	r := newTestRun(helpers.NewMockRoadService(), helpers.NewMockSolver(), p)
	assignment := zone.Assign([]*employee.Employee{
		testEmp("N1", 10, 0, employee.Male),
		testEmp("S1", -10, 0, employee.Male),
		testEmp("E1", 0, 15, employee.Male),
	}, testZones())

	groups := r.buildZoneGroups(assignment)

	require.Len(t, groups, 2)
	assert.Equal(t, "NORTH", groups[0].label)
	assert.ElementsMatch(t, []string{"N1", "S1"}, codes(groups[0].employees))
	assert.Equal(t, "EAST", groups[1].label, "unpaired zones stay separate")
	assert.Equal(t, []string{"E1"}, codes(groups[1].employees))
}

func TestBuildZoneGroupsClubbingIsUndirected(t *testing.T) {
	p := testProfile()
	p.ZoneClubbing = true
	// SOUTH lists NORTH; the pairing must club them regardless of which
	// side declares it.
	p.ZonePairingMatrix = map[string][]string{"SOUTH": {"NORTH"}}
	r := newTestRun(helpers.NewMockRoadService(), helpers.NewMockSolver(), p)
	assignment := zone.Assign([]*employee.Employee{
		testEmp("N1", 10, 0, employee.Male),
		testEmp("S1", -10, 0, employee.Male),
	}, testZones())

	groups := r.buildZoneGroups(assignment)

	require.Len(t, groups, 1)
	assert.Equal(t, "NORTH", groups[0].label)
	assert.Len(t, groups[0].employees, 2)
}

func TestZonesPaired(t *testing.T) {
	matrix := map[string][]string{"A": {"B"}}

	assert.True(t, zonesPaired(matrix, "A", "B"))
	assert.True(t, zonesPaired(matrix, "B", "A"))
	assert.False(t, zonesPaired(matrix, "A", "C"))
}
