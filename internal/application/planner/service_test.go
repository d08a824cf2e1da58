package planner_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitops/shuttleplan-go/internal/application/planner"
	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/fleet"
	"github.com/transitops/shuttleplan-go/internal/domain/geo"
	"github.com/transitops/shuttleplan-go/internal/domain/profile"
	"github.com/transitops/shuttleplan-go/internal/domain/route"
	"github.com/transitops/shuttleplan-go/internal/domain/shared"
	"github.com/transitops/shuttleplan-go/internal/domain/zone"
	"github.com/transitops/shuttleplan-go/test/helpers"
)

var facilityPoint = geo.Point{Lat: 12.9716, Lng: 77.5946}

// Kilometers per degree of latitude on the mock's sphere, so offsets in km
// land at exact haversine distances.
const kmPerDegLat = 111.19492664455873

func empInput(code string, northKm, eastKm float64, gender employee.Gender) planner.EmployeeInput {
	lat := facilityPoint.Lat + northKm/kmPerDegLat
	lng := facilityPoint.Lng + eastKm/(kmPerDegLat*math.Cos(facilityPoint.Lat*math.Pi/180))
	return planner.EmployeeInput{EmpCode: code, GeoX: &lng, GeoY: &lat, Gender: gender}
}

func medicalInput(code string, northKm float64) planner.EmployeeInput {
	in := empInput(code, northKm, 0, employee.Female)
	in.IsMedical = true
	return in
}

func baseProfile() *profile.Profile {
	return &profile.Profile{
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
}

func baseRequest(emps ...planner.EmployeeInput) *planner.PlanRequest {
	return &planner.PlanRequest{
		UUID:      "req-1",
		Date:      "2026-03-02",
		ShiftTime: "0900",
		TripType:  route.TripPickup,
		Employees: emps,
		Facility:  &planner.FacilityInput{GeoX: facilityPoint.Lng, GeoY: facilityPoint.Lat},
		Profile:   baseProfile(),
	}
}

func newPlanner(road *helpers.MockRoadService, vrp *helpers.MockSolver) *planner.Service {
	return planner.NewService(road, vrp, nil, planner.Options{}, nil)
}

type stubZoneSource struct {
	zones []zone.Zone
	err   error
}

func (s stubZoneSource) Zones(city string, inline []byte) ([]zone.Zone, error) {
	return s.zones, s.err
}

type planOutcome struct {
	tripType string
	routes   int
	routed   int
	unrouted int
}

type captureRecorder struct {
	requests  [][2]string
	outcomes  []planOutcome
	solverOps []string
}

func (c *captureRecorder) RecordPlanRequest(tripType, status string, seconds float64) {
	c.requests = append(c.requests, [2]string{tripType, status})
}

func (c *captureRecorder) RecordPlanOutcome(tripType string, routes, routed, unrouted int) {
	c.outcomes = append(c.outcomes, planOutcome{tripType, routes, routed, unrouted})
}

func (c *captureRecorder) RecordSolverRun(mode string, succeeded bool, seconds float64) {
	c.solverOps = append(c.solverOps, mode)
}

func routedCodes(resp *planner.PlanResponse) []string {
	var out []string
	for _, rt := range resp.Routes {
		for _, e := range rt.Employees {
			out = append(out, e.EmpCode)
		}
	}
	return out
}

func unroutedCodes(resp *planner.PlanResponse) []string {
	out := make([]string, 0, len(resp.UnroutedEmployees))
	for _, e := range resp.UnroutedEmployees {
		out = append(out, e.EmpCode)
	}
	return out
}

func TestPlanSingleEmployeePickup(t *testing.T) {
	svc := newPlanner(helpers.NewMockRoadService(), helpers.NewMockSolver())
	req := baseRequest(empInput("E1", 5, 0, employee.Male))
	req.ReportingTime = 600

	resp, err := svc.Plan(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "req-1", resp.UUID)
	assert.Equal(t, "2026-03-02", resp.Date)
	assert.Equal(t, "0900", resp.Shift)
	assert.Equal(t, "P", resp.TripType)
	assert.Equal(t, 1, resp.TotalEmployees)
	assert.Equal(t, 1, resp.TotalRoutedEmployees)
	assert.Equal(t, 1, resp.TotalRoutes)
	assert.Equal(t, 1.0, resp.AverageOccupancy)
	assert.Empty(t, resp.UnroutedEmployees)
	assert.InDelta(t, 6.5, resp.OverallRouteDetails.TotalDistance, 1e-6)
	assert.InDelta(t, 1040, resp.OverallRouteDetails.TotalDuration, 1e-6)

	require.Len(t, resp.Routes, 1)
	rt := resp.Routes[0]
	assert.Equal(t, 1, rt.RouteNumber)
	assert.Equal(t, zone.DefaultZone, rt.Zone)
	assert.Equal(t, "s", rt.VehicleType)
	assert.Equal(t, 4, rt.VehicleCapacity)
	assert.Equal(t, 1, rt.Occupancy)
	assert.False(t, rt.Guard)
	assert.False(t, rt.Swapped)
	assert.False(t, rt.DurationExceeded)
	assert.NotEmpty(t, rt.UniqueKey)
	assert.NotEmpty(t, rt.EncodedPolyline)
	assert.InDelta(t, 6.5, rt.Distance, 1e-6)
	assert.InDelta(t, 1040, rt.Duration, 1e-6)
	assert.InDelta(t, 6.5, rt.FarthestEmployeeDistance, 1e-6)

	require.Len(t, rt.Employees, 1)
	stop := rt.Employees[0]
	assert.Equal(t, "E1", stop.EmpCode)
	assert.Equal(t, 1, stop.Order)
	// 08:50 facility target, minus one 650 s leg at the 1.40x cap and the
	// 180 s boarding stop: picked up 08:31:50.
	assert.Equal(t, "0831", stop.ETA)
}

func TestPlanDropoffETA(t *testing.T) {
	svc := newPlanner(helpers.NewMockRoadService(), helpers.NewMockSolver())
	req := baseRequest(empInput("E1", 5, 0, employee.Male))
	req.TripType = route.TripDropoff
	req.ShiftTime = "1800"

	resp, err := svc.Plan(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "D", resp.TripType)
	require.Len(t, resp.Routes, 1)
	require.Len(t, resp.Routes[0].Employees, 1)
	// 18:00 shift end plus one 650 s leg at the 1.40x cap and the 180 s
	// stop: dropped 18:18:10.
	assert.Equal(t, "1818", resp.Routes[0].Employees[0].ETA)
}

func TestPlanGroupsMedicalRidersInPairs(t *testing.T) {
	svc := newPlanner(helpers.NewMockRoadService(), helpers.NewMockSolver())
	req := baseRequest(
		medicalInput("M1", 10),
		medicalInput("M2", 9.8),
		medicalInput("M3", 9.6),
		medicalInput("M4", 9.4),
		medicalInput("M5", 9.2),
		medicalInput("M6", 9.0),
	)

	resp, err := svc.Plan(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalRoutes, "special-needs routes cap at two riders")
	assert.Equal(t, 6, resp.TotalRoutedEmployees)
	assert.Equal(t, 2.0, resp.AverageOccupancy)
	for _, rt := range resp.Routes {
		assert.Equal(t, 2, rt.Occupancy)
		assert.True(t, rt.IsSpecialNeedsRoute)
		assert.True(t, rt.IsMedicalRoute)
		assert.False(t, rt.Guard)
	}
	assert.ElementsMatch(t, []string{"M1", "M2", "M3", "M4", "M5", "M6"}, routedCodes(resp))
}

func TestPlanGuardSwapMovesMaleToCriticalSeat(t *testing.T) {
	svc := newPlanner(helpers.NewMockRoadService(), helpers.NewMockSolver())
	req := baseRequest(
		empInput("F1", 10, 0, employee.Female),
		empInput("M1", 9.4, 0, employee.Male),
		empInput("M2", 8.8, 0, employee.Male),
	)
	req.Guard = true

	resp, err := svc.Plan(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, resp.Routes, 1)
	rt := resp.Routes[0]
	assert.True(t, rt.Swapped)
	assert.False(t, rt.Guard, "the swapped male occupies the critical seat")
	require.NotNil(t, rt.SwappedPairInfo)
	assert.Equal(t, "F1", rt.SwappedPairInfo.FemaleEmpCode)
	assert.Equal(t, "M1", rt.SwappedPairInfo.MaleEmpCode)
	assert.InDelta(t, 0.78, rt.SwappedPairInfo.RoadDistanceKm, 1e-9)
	require.NotEmpty(t, rt.Employees)
	assert.Equal(t, "M1", rt.Employees[0].EmpCode)
	assert.Equal(t, 1, resp.TotalSwappedRoutes)
	assert.Equal(t, 0, resp.TotalGuardedRoutes)
}

func TestPlanGuardKeptWhenNoSwapCandidate(t *testing.T) {
	svc := newPlanner(helpers.NewMockRoadService(), helpers.NewMockSolver())
	req := baseRequest(
		empInput("F1", 10, 0, employee.Female),
		empInput("M1", 7.6, 0, employee.Male),
		empInput("M2", 7.2, 0, employee.Male),
	)
	req.Guard = true

	resp, err := svc.Plan(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, resp.Routes, 1)
	rt := resp.Routes[0]
	assert.False(t, rt.Swapped, "nearest male is 3.12 road km out, beyond swap range")
	assert.True(t, rt.Guard)
	assert.Equal(t, "F1", rt.Employees[0].EmpCode)
	assert.Equal(t, 0, resp.TotalSwappedRoutes)
	assert.Equal(t, 1, resp.TotalGuardedRoutes)
}

func TestPlanGuardWindowGatesDayShifts(t *testing.T) {
	window := map[string]profile.GuardWindow{
		"DEFAULT_PICKUP": {Start: "2000", End: "0700"},
	}

	road := helpers.NewMockRoadService()
	svc := newPlanner(road, helpers.NewMockSolver())
	req := baseRequest(empInput("F1", 10, 0, employee.Female))
	req.Guard = true
	req.Profile.NightShiftGuardTimings = window

	resp, err := svc.Plan(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, resp.Routes, 1)
	assert.False(t, resp.Routes[0].Guard, "a 0900 shift is outside the night window")
	assert.Equal(t, 0, resp.TotalGuardedRoutes)
	assert.Empty(t, road.TableCalls(), "no swap probe when the guard flag is inactive")

	// The same request during the night window concedes the guard seat.
	svc = newPlanner(helpers.NewMockRoadService(), helpers.NewMockSolver())
	req = baseRequest(empInput("F1", 10, 0, employee.Female))
	req.Guard = true
	req.Profile.NightShiftGuardTimings = window
	req.ShiftTime = "2130"

	resp, err = svc.Plan(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, resp.Routes, 1)
	assert.True(t, resp.Routes[0].Guard)
	assert.Equal(t, 1, resp.TotalGuardedRoutes)
}

func TestPlanLeavesImpossiblyFarEmployeeUnrouted(t *testing.T) {
	svc := newPlanner(helpers.NewMockRoadService(), helpers.NewMockSolver())
	req := baseRequest(
		empInput("E1", 5, 0, employee.Male),
		empInput("O1", 60, 0, employee.Male),
	)

	resp, err := svc.Plan(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalEmployees)
	assert.Equal(t, 1, resp.TotalRoutedEmployees)
	assert.Equal(t, []string{"E1"}, routedCodes(resp))
	assert.Equal(t, []string{"O1"}, unroutedCodes(resp))
}

func TestPlanLeavesMissingCoordinatesUnrouted(t *testing.T) {
	svc := newPlanner(helpers.NewMockRoadService(), helpers.NewMockSolver())
	req := baseRequest(
		empInput("E1", 5, 0, employee.Male),
		planner.EmployeeInput{EmpCode: "N1"},
	)

	resp, err := svc.Plan(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, []string{"E1"}, routedCodes(resp))
	assert.Equal(t, []string{"N1"}, unroutedCodes(resp))
}

func TestPlanCountsDuplicateEmployeeOnce(t *testing.T) {
	svc := newPlanner(helpers.NewMockRoadService(), helpers.NewMockSolver())
	first := empInput("E1", 5, 0, employee.Male)
	req := baseRequest(first, empInput("E1", 8, 0, employee.Male))

	resp, err := svc.Plan(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalEmployees)
	assert.Equal(t, 1, resp.TotalRoutedEmployees)
	assert.Empty(t, resp.UnroutedEmployees)
	require.Len(t, resp.Routes, 1)
	require.Len(t, resp.Routes[0].Employees, 1)
	assert.InDelta(t, *first.GeoY, resp.Routes[0].Employees[0].GeoY, 1e-12,
		"the first occurrence of a duplicated code wins")
}

func TestPlanValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*planner.PlanRequest)
		unrouted int
	}{
		{"missing date", func(r *planner.PlanRequest) { r.Date = "" }, 1},
		{"unknown trip type", func(r *planner.PlanRequest) { r.TripType = "SHUTTLE" }, 1},
		{"no employees", func(r *planner.PlanRequest) { r.Employees = nil }, 0},
		{"zero facility", func(r *planner.PlanRequest) { r.Facility = &planner.FacilityInput{} }, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newPlanner(helpers.NewMockRoadService(), helpers.NewMockSolver())
			req := baseRequest(empInput("E1", 5, 0, employee.Male))
			tt.mutate(req)

			resp, err := svc.Plan(context.Background(), req)

			var verr *shared.ValidationError
			require.True(t, errors.As(err, &verr), "want validation error, got %v", err)
			require.NotNil(t, resp, "failures still return the envelope")
			assert.Equal(t, "req-1", resp.UUID)
			assert.Equal(t, 0, resp.TotalRoutes)
			assert.Empty(t, resp.Routes)
			assert.Len(t, resp.UnroutedEmployees, tt.unrouted)
		})
	}
}

func TestPlanProbeFailureFailsClosed(t *testing.T) {
	road := helpers.NewMockRoadService()
	road.ProbeErr = shared.NewRoadServiceError("probe", "bangalore", "connection refused", nil)
	vrp := helpers.NewMockSolver()
	rec := &captureRecorder{}
	svc := planner.NewService(road, vrp, nil, planner.Options{}, rec)
	req := baseRequest(
		empInput("E1", 5, 0, employee.Male),
		empInput("E2", 6, 0, employee.Male),
	)

	resp, err := svc.Plan(context.Background(), req)

	var rerr *shared.RoadServiceError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 0, resp.TotalRoutes)
	assert.Equal(t, []string{"E1", "E2"}, unroutedCodes(resp))
	assert.Empty(t, vrp.Problems())
	require.Len(t, rec.requests, 1)
	assert.Equal(t, [2]string{"PICKUP", "error"}, rec.requests[0])
}

func TestPlanZoneSourceErrorIsBadInput(t *testing.T) {
	road := helpers.NewMockRoadService()
	svc := planner.NewService(road, helpers.NewMockSolver(),
		stubZoneSource{err: errors.New("malformed feature collection")},
		planner.Options{}, nil)
	req := baseRequest(empInput("E1", 5, 0, employee.Male))

	resp, err := svc.Plan(context.Background(), req)

	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "zones", verr.Field)
	assert.Equal(t, []string{"E1"}, unroutedCodes(resp))
}

func TestPlanSplitsRoutesByZone(t *testing.T) {
	square := func(lat, lng, side float64) geo.Polygon {
		return geo.Polygon{
			{Lat: lat, Lng: lng},
			{Lat: lat, Lng: lng + side},
			{Lat: lat + side, Lng: lng + side},
			{Lat: lat + side, Lng: lng},
		}
	}
	src := stubZoneSource{zones: []zone.Zone{
		{Name: "NORTH", Polygon: square(13.0, 77.5, 0.2)},
		{Name: "SOUTH", Polygon: square(12.7, 77.5, 0.2)},
	}}
	svc := planner.NewService(helpers.NewMockRoadService(), helpers.NewMockSolver(), src, planner.Options{}, nil)
	req := baseRequest(
		empInput("N1", 10, 0, employee.Male),
		empInput("N2", 9, 0, employee.Male),
		empInput("S1", -10, 0, employee.Male),
	)

	resp, err := svc.Plan(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, resp.Routes, 2, "zones never mix on one route")
	assert.Equal(t, "NORTH", resp.Routes[0].Zone)
	assert.Equal(t, 2, resp.Routes[0].Occupancy)
	assert.Equal(t, "SOUTH", resp.Routes[1].Zone)
	assert.Equal(t, 1, resp.Routes[1].Occupancy)
	assert.Empty(t, resp.UnroutedEmployees)
}

func TestPlanRecoversToleratedDeviationOnly(t *testing.T) {
	svc := newPlanner(helpers.NewMockRoadService(), helpers.NewMockSolver())
	req := baseRequest(
		// 20.5 road km: past the 20 km strict limit, within the 21 km
		// tolerant limit the recovery pass grants.
		empInput("E1", 15.769230769, 0, employee.Male),
		// 22.0 road km: past even the tolerant limit.
		empInput("E2", 16.923076923, 0, employee.Male),
	)
	req.Profile.RouteDeviationRules = map[string][]profile.DeviationRule{
		"DEFAULT": {{MinDistKm: 0, MaxDistKm: 30, MaxTotalOneWayKm: 20}},
	}

	resp, err := svc.Plan(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, resp.Routes, 1)
	assert.Equal(t, []string{"E1"}, routedCodes(resp))
	assert.Equal(t, []string{"E2"}, unroutedCodes(resp))
	assert.InDelta(t, 20.5, resp.Routes[0].Distance, 1e-6)
}

func TestPlanPartitionsEveryEmployee(t *testing.T) {
	svc := newPlanner(helpers.NewMockRoadService(), helpers.NewMockSolver())
	req := baseRequest(
		empInput("E1", 5, 0, employee.Male),
		empInput("E2", 5.5, 0, employee.Male),
		empInput("O1", 60, 0, employee.Male),
		planner.EmployeeInput{EmpCode: "N1"},
		empInput("E1", 8, 0, employee.Male), // duplicate
	)

	resp, err := svc.Plan(context.Background(), req)

	require.NoError(t, err)
	routed := routedCodes(resp)
	unrouted := unroutedCodes(resp)
	assert.Equal(t, 4, resp.TotalEmployees)
	assert.Equal(t, len(routed), resp.TotalRoutedEmployees)
	assert.ElementsMatch(t, []string{"E1", "E2", "O1", "N1"}, append(append([]string{}, routed...), unrouted...),
		"every distinct employee is exactly one of routed or unrouted")
}

func TestPlanIsDeterministic(t *testing.T) {
	build := func() (*planner.Service, *planner.PlanRequest) {
		req := baseRequest(
			empInput("F1", 10, 0, employee.Female),
			empInput("M1", 9.4, 0, employee.Male),
			empInput("M2", 8.8, 0, employee.Male),
			empInput("E4", 25, 0, employee.Male),
		)
		req.Guard = true
		req.ReportingTime = 600
		return newPlanner(helpers.NewMockRoadService(), helpers.NewMockSolver()), req
	}

	svc1, req1 := build()
	resp1, err1 := svc1.Plan(context.Background(), req1)
	require.NoError(t, err1)

	svc2, req2 := build()
	resp2, err2 := svc2.Plan(context.Background(), req2)
	require.NoError(t, err2)

	require.NotEmpty(t, resp1.Routes)
	assert.NotEmpty(t, resp1.Routes[0].UniqueKey)
	assert.Equal(t, resp1, resp2, "replaying a request reproduces the plan byte for byte")
}

func TestPlanStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newPlanner(helpers.NewMockRoadService(), helpers.NewMockSolver())
	req := baseRequest(empInput("E1", 5, 0, employee.Male))

	resp, err := svc.Plan(ctx, req)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, resp.TotalRoutes)
	assert.Equal(t, []string{"E1"}, unroutedCodes(resp))
}

func TestPlanRecordsTelemetry(t *testing.T) {
	rec := &captureRecorder{}
	svc := planner.NewService(helpers.NewMockRoadService(), helpers.NewMockSolver(), nil, planner.Options{}, rec)
	req := baseRequest(
		empInput("E1", 5, 0, employee.Male),
		empInput("E2", 5.4, 0, employee.Male),
	)

	_, err := svc.Plan(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, rec.requests, 1)
	assert.Equal(t, [2]string{"PICKUP", "ok"}, rec.requests[0])
	require.Len(t, rec.outcomes, 1)
	assert.Equal(t, planOutcome{tripType: "PICKUP", routes: 1, routed: 2, unrouted: 0}, rec.outcomes[0])
	assert.Equal(t, []string{"polish"}, rec.solverOps)
}
