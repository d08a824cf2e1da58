package planner

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/profile"
	"github.com/transitops/shuttleplan-go/internal/domain/route"
	"github.com/transitops/shuttleplan-go/internal/domain/shared"
)

func validRequest() *PlanRequest {
	lat := testFacility.Lat + 5/kmPerDegLat
	lng := testFacility.Lng
	return &PlanRequest{
		UUID:      "req-test",
		Date:      "2026-03-02",
		ShiftTime: "0900",
		TripType:  route.TripPickup,
		Employees: []EmployeeInput{
			{EmpCode: "E1", GeoX: &lng, GeoY: &lat, Gender: employee.Male},
		},
		Facility: &FacilityInput{GeoX: testFacility.Lng, GeoY: testFacility.Lat},
		Profile:  testProfile(),
	}
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	assert.NoError(t, validRequest().Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PlanRequest)
		field  string
	}{
		{"missing date", func(r *PlanRequest) { r.Date = "" }, "PlanRequest.Date"},
		{"malformed date", func(r *PlanRequest) { r.Date = "02-03-2026" }, "PlanRequest.Date"},
		{"missing shift time", func(r *PlanRequest) { r.ShiftTime = "" }, "PlanRequest.ShiftTime"},
		{"shift time out of range", func(r *PlanRequest) { r.ShiftTime = "2500" }, "shiftTime"},
		{"unknown trip type", func(r *PlanRequest) { r.TripType = "SHUTTLE" }, "tripType"},
		{"no employees", func(r *PlanRequest) { r.Employees = nil }, "PlanRequest.Employees"},
		{"employee without code", func(r *PlanRequest) { r.Employees[0].EmpCode = "" }, "PlanRequest.Employees[0].EmpCode"},
		{"unknown gender", func(r *PlanRequest) { r.Employees[0].Gender = "Q" }, "PlanRequest.Employees[0].Gender"},
		{"missing facility", func(r *PlanRequest) { r.Facility = nil }, "PlanRequest.Facility"},
		{"zero facility coordinates", func(r *PlanRequest) { r.Facility = &FacilityInput{} }, "facility"},
		{"missing profile", func(r *PlanRequest) { r.Profile = nil }, "PlanRequest.Profile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := req.Validate()

			var verr *shared.ValidationError
			require.True(t, errors.As(err, &verr), "want validation error, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	req := validRequest()
	req.UUID = ""
	req.PickupTimePerEmployee = 0
	req.Profile = &profile.Profile{Name: "bangalore"}

	req.applyDefaults()

	assert.NotEmpty(t, req.UUID)
	assert.Equal(t, 180.0, req.PickupTimePerEmployee)
	assert.Equal(t, 7200.0, req.Profile.MaxDurationSeconds)
	assert.Equal(t, 3, req.Profile.Tunables.MaxUnroutedAttempts)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	req := validRequest()
	req.PickupTimePerEmployee = 240

	req.applyDefaults()

	assert.Equal(t, "req-test", req.UUID)
	assert.Equal(t, 240.0, req.PickupTimePerEmployee)
}

func TestShiftInstant(t *testing.T) {
	req := validRequest()
	req.ShiftTime = "0930"

	at, err := req.shiftInstant()

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC), at)
}

func TestBuildEmployeesDedupesAndDerives(t *testing.T) {
	req := validRequest()
	lat2 := testFacility.Lat + 8/kmPerDegLat
	lng := testFacility.Lng
	req.Employees = append(req.Employees,
		EmployeeInput{EmpCode: "E1", GeoX: &lng, GeoY: &lat2}, // duplicate code, different spot
		EmployeeInput{EmpCode: "E2"},
	)

	emps := req.buildEmployees(testFacility)

	require.Len(t, emps, 2, "duplicate empCode collapses to its first occurrence")
	assert.Equal(t, "E1", emps[0].EmpCode)
	assert.True(t, emps[0].HasCoords)
	assert.InDelta(t, 5.0, emps[0].DistToFacilityKm, 1e-9)
	assert.Equal(t, "E2", emps[1].EmpCode)
	assert.False(t, emps[1].HasCoords)
	assert.Zero(t, emps[1].DistToFacilityKm)
}
