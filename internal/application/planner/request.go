package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/geo"
	"github.com/transitops/shuttleplan-go/internal/domain/profile"
	"github.com/transitops/shuttleplan-go/internal/domain/route"
	"github.com/transitops/shuttleplan-go/internal/domain/shared"
	"github.com/transitops/shuttleplan-go/pkg/utils"
)

// Default per-stop boarding time when the request leaves it unset.
const defaultServiceTimeSeconds = 180

// EmployeeInput is one rider in a plan request. geoX is longitude, geoY is
// latitude; either may be absent, which makes the employee unroutable and
// sends them straight to unroutedEmployees.
type EmployeeInput struct {
	EmpCode   string          `json:"empCode" validate:"required"`
	GeoX      *float64        `json:"geoX,omitempty"`
	GeoY      *float64        `json:"geoY,omitempty"`
	Gender    employee.Gender `json:"gender" validate:"omitempty,oneof=M F"`
	IsMedical bool            `json:"isMedical"`
	IsPWD     bool            `json:"isPWD"`
	IsNMT     bool            `json:"isNMT"`
	IsOOB     bool            `json:"isOOB"`
}

// FacilityInput anchors the trip. Same axis convention as EmployeeInput.
type FacilityInput struct {
	GeoX float64 `json:"geoX"`
	GeoY float64 `json:"geoY"`
}

// PlanRequest is the JSON document accepted by Plan.
type PlanRequest struct {
	UUID      string           `json:"uuid"`
	Date      string           `json:"date" validate:"required,datetime=2006-01-02"`
	ShiftTime string           `json:"shiftTime" validate:"required"`
	TripType  route.TripType   `json:"tripType" validate:"required"`
	Employees []EmployeeInput  `json:"employees" validate:"required,min=1,dive"`
	Facility  *FacilityInput   `json:"facility" validate:"required"`
	Profile   *profile.Profile `json:"profile" validate:"required"`

	// Zones optionally carries an inline GeoJSON FeatureCollection that
	// takes precedence over the city's configured zone file.
	Zones json.RawMessage `json:"zones,omitempty"`

	Guard                 bool    `json:"guard"`
	PickupTimePerEmployee float64 `json:"pickupTimePerEmployee"`
	ReportingTime         float64 `json:"reportingTime"`
}

var requestValidator = validator.New()

// Validate checks the request shape; the first violation is reported as a
// field-tagged validation error.
func (req *PlanRequest) Validate() error {
	if err := requestValidator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			v := verrs[0]
			return shared.NewValidationError(v.Namespace(), fmt.Sprintf("failed %q validation", v.Tag()))
		}
		return shared.NewValidationError("request", err.Error())
	}
	if !req.TripType.Valid() {
		return shared.NewValidationError("tripType", fmt.Sprintf("unsupported trip type %q", req.TripType))
	}
	if _, err := utils.ParseHHMM(req.ShiftTime); err != nil {
		return shared.NewValidationError("shiftTime", err.Error())
	}
	if req.Facility.GeoX == 0 && req.Facility.GeoY == 0 {
		return shared.NewValidationError("facility", "missing coordinates")
	}
	return nil
}

// applyDefaults fills optional request fields and normalizes the profile.
func (req *PlanRequest) applyDefaults() {
	if req.UUID == "" {
		req.UUID = uuid.NewString()
	}
	if req.PickupTimePerEmployee == 0 {
		req.PickupTimePerEmployee = defaultServiceTimeSeconds
	}
	req.Profile.SetDefaults()
}

// shiftInstant resolves the request date and HHMM shift time into one
// instant.
func (req *PlanRequest) shiftInstant() (time.Time, error) {
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return time.Time{}, shared.NewValidationError("date", err.Error())
	}
	offset, err := utils.ParseHHMM(req.ShiftTime)
	if err != nil {
		return time.Time{}, shared.NewValidationError("shiftTime", err.Error())
	}
	return utils.AtClock(day, offset), nil
}

// buildEmployees converts the inputs to domain employees, deduplicating by
// empCode (first occurrence wins) and deriving facility distances for
// everyone with coordinates.
func (req *PlanRequest) buildEmployees(facility geo.Point) []*employee.Employee {
	out := make([]*employee.Employee, 0, len(req.Employees))
	seen := make(map[string]bool, len(req.Employees))
	for _, in := range req.Employees {
		if seen[in.EmpCode] {
			continue
		}
		seen[in.EmpCode] = true

		e := &employee.Employee{
			EmpCode:   in.EmpCode,
			Gender:    in.Gender,
			IsMedical: in.IsMedical,
			IsPWD:     in.IsPWD,
			IsNMT:     in.IsNMT,
			IsOOB:     in.IsOOB,
		}
		if in.GeoX != nil && in.GeoY != nil {
			e.Location = geo.Point{Lat: *in.GeoY, Lng: *in.GeoX}
			e.HasCoords = true
			e.DistToFacilityKm = geo.HaversineKm(e.Location, facility)
		}
		out = append(out, e)
	}
	return out
}
