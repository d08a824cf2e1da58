package zone_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/geo"
	"github.com/transitops/shuttleplan-go/internal/domain/zone"
)

func square(lat, lng, side float64) geo.Polygon {
	return geo.Polygon{
		{Lat: lat, Lng: lng},
		{Lat: lat, Lng: lng + side},
		{Lat: lat + side, Lng: lng + side},
		{Lat: lat + side, Lng: lng},
	}
}

func located(code string, lat, lng float64) *employee.Employee {
	return &employee.Employee{EmpCode: code, Location: geo.Point{Lat: lat, Lng: lng}, HasCoords: true}
}

func TestAssignFirstMatchWins(t *testing.T) {
	// Overlapping squares; NORTH is listed first so it claims the overlap.
	zones := []zone.Zone{
		{Name: "NORTH", Polygon: square(0, 0, 2)},
		{Name: "WIDE", Polygon: square(0, 0, 4)},
	}
	inOverlap := located("E1", 1, 1)
	inWideOnly := located("E2", 3, 3)

	a := zone.Assign([]*employee.Employee{inOverlap, inWideOnly}, zones)

	assert.Equal(t, []string{"NORTH", "WIDE"}, a.Zones())
	require.Len(t, a.Employees("NORTH"), 1)
	assert.Equal(t, "E1", a.Employees("NORTH")[0].EmpCode)
	assert.Equal(t, "NORTH", inOverlap.Zone)
	require.Len(t, a.Employees("WIDE"), 1)
	assert.Equal(t, "E2", a.Employees("WIDE")[0].EmpCode)
}

func TestAssignDefaultZone(t *testing.T) {
	zones := []zone.Zone{{Name: "NORTH", Polygon: square(0, 0, 2)}}
	outside := located("E1", 10, 10)

	a := zone.Assign([]*employee.Employee{outside}, zones)

	assert.Equal(t, []string{zone.DefaultZone}, a.Zones())
	assert.Equal(t, zone.DefaultZone, outside.Zone)
}

func TestAssignDefaultZoneOrderedLast(t *testing.T) {
	zones := []zone.Zone{{Name: "NORTH", Polygon: square(0, 0, 2)}}
	a := zone.Assign([]*employee.Employee{
		located("E1", 10, 10),
		located("E2", 1, 1),
	}, zones)

	assert.Equal(t, []string{"NORTH", zone.DefaultZone}, a.Zones())
}

func TestAssignSkipsMissingCoordinates(t *testing.T) {
	noCoords := &employee.Employee{EmpCode: "E1"}
	a := zone.Assign([]*employee.Employee{noCoords, located("E2", 1, 1)}, nil)

	require.Len(t, a.Skipped(), 1)
	assert.Equal(t, "E1", a.Skipped()[0].EmpCode)
	assert.Equal(t, []string{zone.DefaultZone}, a.Zones())
}

func TestAssignNoZonesEverythingDefault(t *testing.T) {
	a := zone.Assign([]*employee.Employee{located("E1", 1, 1)}, nil)
	assert.Equal(t, []string{zone.DefaultZone}, a.Zones())
	assert.Len(t, a.Employees(zone.DefaultZone), 1)
}
