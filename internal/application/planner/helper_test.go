package planner

import (
	"context"
	"math"
	"time"

	"github.com/transitops/shuttleplan-go/internal/application/common"
	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/fleet"
	"github.com/transitops/shuttleplan-go/internal/domain/geo"
	"github.com/transitops/shuttleplan-go/internal/domain/profile"
	"github.com/transitops/shuttleplan-go/internal/domain/roadnet"
	"github.com/transitops/shuttleplan-go/internal/domain/route"
	"github.com/transitops/shuttleplan-go/internal/domain/solver"
	"github.com/transitops/shuttleplan-go/internal/domain/zone"
)

// testFacility anchors the synthetic geometry for the pipeline tests.
var testFacility = geo.Point{Lat: 12.9716, Lng: 77.5946}

// Kilometers per degree of latitude on the haversine sphere (2*pi*6371/360),
// used to place employees at exact straight-line distances.
const kmPerDegLat = 111.19492664455873

// testEmp places an employee at the given offsets from the facility, with
// the facility distance derived the same way ingestion does it.
func testEmp(code string, northKm, eastKm float64, gender employee.Gender) *employee.Employee {
	loc := geo.Point{
		Lat: testFacility.Lat + northKm/kmPerDegLat,
		Lng: testFacility.Lng + eastKm/(kmPerDegLat*math.Cos(testFacility.Lat*math.Pi/180)),
	}
	return &employee.Employee{
		EmpCode:          code,
		Location:         loc,
		HasCoords:        true,
		Gender:           gender,
		Zone:             zone.DefaultZone,
		DistToFacilityKm: geo.HaversineKm(loc, testFacility),
	}
}

func medicalEmp(code string, northKm, eastKm float64, gender employee.Gender) *employee.Employee {
	e := testEmp(code, northKm, eastKm, gender)
	e.IsMedical = true
	return e
}

func testProfile() *profile.Profile {
	p := &profile.Profile{
		Name: "bangalore",
		Fleet: []fleet.VehicleClass{
			{Type: "s", Capacity: 4, Count: 10},
			{Type: "m", Capacity: 6, Count: 10},
			{Type: "l", Capacity: 12, Count: 5},
		},
		RouteDeviationRules: map[string][]profile.DeviationRule{
			"DEFAULT": {
				{MinDistKm: 0, MaxDistKm: 10, MaxTotalOneWayKm: 20},
				{MinDistKm: 10, MaxDistKm: 20, MaxTotalOneWayKm: 40},
				{MinDistKm: 20, MaxDistKm: 35, MaxTotalOneWayKm: 70},
			},
		},
	}
	p.SetDefaults()
	return p
}

// newTestRun builds a per-request pipeline state around the given mocks:
// pickup trip, 09:00 shift, 0.4 traffic buffer, 180 s boarding time, guard
// off. Tests flip individual fields as needed.
func newTestRun(road roadnet.Service, vrp solver.Client, p *profile.Profile) *run {
	if p == nil {
		p = testProfile()
	}
	return &run{
		svc:         NewService(road, vrp, nil, Options{}, nil),
		req:         &PlanRequest{UUID: "test-run", Date: "2026-03-02", ShiftTime: "0900"},
		logger:      common.LoggerFromContext(context.Background()),
		profile:     p,
		trip:        route.TripPickup,
		facility:    testFacility,
		city:        p.Name,
		shiftAt:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		buffer:      0.4,
		serviceTime: 180,
		inventory:   fleet.NewInventory(p.Fleet),
		pool:        newUnroutedPool(),
	}
}

// testRoute wraps employees in a route shell with the run's trip direction.
func testRoute(r *run, emps ...*employee.Employee) *route.Route {
	rt := route.New("rt-test", zone.DefaultZone, r.trip)
	rt.Reorder(emps)
	return rt
}

func codes(emps []*employee.Employee) []string {
	out := make([]string, len(emps))
	for i, e := range emps {
		out[i] = e.EmpCode
	}
	return out
}
