package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/transitops/shuttleplan-go/internal/adapters/zonefile"
	"github.com/transitops/shuttleplan-go/internal/application/planner"
	"github.com/transitops/shuttleplan-go/internal/domain/employee"
	"github.com/transitops/shuttleplan-go/internal/domain/fleet"
	"github.com/transitops/shuttleplan-go/internal/domain/geo"
	"github.com/transitops/shuttleplan-go/internal/domain/profile"
	"github.com/transitops/shuttleplan-go/internal/domain/route"
	"github.com/transitops/shuttleplan-go/internal/domain/shared"
	"github.com/transitops/shuttleplan-go/test/helpers"
)

const kmPerDegLat = 111.19492664455873

type planningContext struct {
	road *helpers.MockRoadService
	vrp  *helpers.MockSolver

	facility     geo.Point
	fleet        []fleet.VehicleClass
	rules        []profile.DeviationRule
	guardTimings map[string]profile.GuardWindow
	employees    []planner.EmployeeInput
	inlineZones  json.RawMessage
	guard        bool

	response *planner.PlanResponse
	planErr  error
}

func (c *planningContext) reset() {
	c.road = helpers.NewMockRoadService()
	c.vrp = helpers.NewMockSolver()
	c.facility = geo.Point{}
	c.fleet = nil
	c.rules = nil
	c.guardTimings = nil
	c.employees = nil
	c.inlineZones = nil
	c.guard = false
	c.response = nil
	c.planErr = nil
}

// Given steps

func (c *planningContext) aFacilityAtCoordinates(lat, lng float64) error {
	c.facility = geo.Point{Lat: lat, Lng: lng}
	return nil
}

func (c *planningContext) aFleetOfVehicles(count int, vehicleType string, capacity int) error {
	c.fleet = append(c.fleet, fleet.VehicleClass{Type: vehicleType, Capacity: capacity, Count: count})
	return nil
}

func (c *planningContext) aDeviationBand(minKm, maxKm, totalKm float64) error {
	c.rules = append(c.rules, profile.DeviationRule{
		MinDistKm:        minKm,
		MaxDistKm:        maxKm,
		MaxTotalOneWayKm: totalKm,
	})
	return nil
}

func (c *planningContext) addEmployee(code string, northKm float64, gender employee.Gender, medical bool) {
	lat := c.facility.Lat + northKm/kmPerDegLat
	lng := c.facility.Lng
	c.employees = append(c.employees, planner.EmployeeInput{
		EmpCode:   code,
		GeoX:      &lng,
		GeoY:      &lat,
		Gender:    gender,
		IsMedical: medical,
	})
}

func (c *planningContext) anEmployeeOfTheFacility(gender, code string, km float64, direction string) error {
	offset := km
	if direction == "south" {
		offset = -km
	}
	var g employee.Gender
	switch strings.TrimSpace(gender) {
	case "female":
		g = employee.Female
	case "male":
		g = employee.Male
	}
	c.addEmployee(code, offset, g, false)
	return nil
}

func (c *planningContext) aMedicalEmployee(code string, km float64) error {
	c.addEmployee(code, km, "", true)
	return nil
}

func (c *planningContext) anEmployeeWithNoCoordinates(code string) error {
	c.employees = append(c.employees, planner.EmployeeInput{EmpCode: code})
	return nil
}

func (c *planningContext) guardEscortIsRequested() error {
	c.guard = true
	return nil
}

func (c *planningContext) profileGuardsTripsBetween(tripType, start, end string) error {
	if c.guardTimings == nil {
		c.guardTimings = make(map[string]profile.GuardWindow)
	}
	c.guardTimings["DEFAULT_"+tripType] = profile.GuardWindow{Start: start, End: end}
	return nil
}

func (c *planningContext) theRequestCarriesInlineZones(doc *godog.DocString) error {
	c.inlineZones = json.RawMessage(doc.Content)
	return nil
}

// When steps

func (c *planningContext) iPlanATrip(tripType, shift, date string) error {
	req := &planner.PlanRequest{
		UUID:      "bdd-req",
		Date:      date,
		ShiftTime: shift,
		TripType:  route.TripType(tripType),
		Employees: c.employees,
		Facility:  &planner.FacilityInput{GeoX: c.facility.Lng, GeoY: c.facility.Lat},
		Profile: &profile.Profile{
			Name:         "bangalore",
			FacilityType: "DEFAULT",
			Fleet:        c.fleet,
			RouteDeviationRules: map[string][]profile.DeviationRule{
				"DEFAULT": c.rules,
			},
			NightShiftGuardTimings: c.guardTimings,
		},
		Zones: c.inlineZones,
		Guard: c.guard,
	}

	svc := planner.NewService(c.road, c.vrp, zonefile.NewSource(nil), planner.Options{}, nil)
	c.response, c.planErr = svc.Plan(context.Background(), req)
	return nil
}

// Then steps

func (c *planningContext) planningShouldSucceed() error {
	if c.planErr != nil {
		return fmt.Errorf("expected success, got error: %v", c.planErr)
	}
	if c.response == nil {
		return fmt.Errorf("no response produced")
	}
	return nil
}

func (c *planningContext) planningShouldFailOnField(field string) error {
	if c.planErr == nil {
		return fmt.Errorf("expected a validation failure, planning succeeded")
	}
	var vErr *shared.ValidationError
	if !errors.As(c.planErr, &vErr) {
		return fmt.Errorf("expected a validation error, got %v", c.planErr)
	}
	if vErr.Field != field {
		return fmt.Errorf("expected failure on field %q, got %q", field, vErr.Field)
	}
	return nil
}

func (c *planningContext) theResponseShouldContainRoutes(n int) error {
	if c.response == nil {
		return fmt.Errorf("no response produced")
	}
	if len(c.response.Routes) != n {
		return fmt.Errorf("expected %d routes, got %d", n, len(c.response.Routes))
	}
	return nil
}

func (c *planningContext) routeAt(n int) (*planner.RouteView, error) {
	if c.response == nil {
		return nil, fmt.Errorf("no response produced")
	}
	if n < 1 || n > len(c.response.Routes) {
		return nil, fmt.Errorf("route %d does not exist (%d routes)", n, len(c.response.Routes))
	}
	return &c.response.Routes[n-1], nil
}

func (c *planningContext) routeShouldCarryExactly(n int, list string) error {
	rt, err := c.routeAt(n)
	if err != nil {
		return err
	}
	want := splitCodes(list)
	got := make([]string, 0, len(rt.Employees))
	for _, e := range rt.Employees {
		got = append(got, e.EmpCode)
	}
	if len(got) != len(want) {
		return fmt.Errorf("route %d carries %v, expected %v", n, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("route %d carries %v, expected %v", n, got, want)
		}
	}
	return nil
}

func (c *planningContext) routeShouldUseVehicle(n int, vehicleType string) error {
	rt, err := c.routeAt(n)
	if err != nil {
		return err
	}
	if rt.VehicleType != vehicleType {
		return fmt.Errorf("route %d uses %q, expected %q", n, rt.VehicleType, vehicleType)
	}
	return nil
}

func (c *planningContext) routeShouldBeInZone(n int, zoneName string) error {
	rt, err := c.routeAt(n)
	if err != nil {
		return err
	}
	if rt.Zone != zoneName {
		return fmt.Errorf("route %d is in zone %q, expected %q", n, rt.Zone, zoneName)
	}
	return nil
}

func (c *planningContext) routeShouldHaveGuard(n int) error {
	rt, err := c.routeAt(n)
	if err != nil {
		return err
	}
	if !rt.Guard {
		return fmt.Errorf("route %d has no guard seat", n)
	}
	return nil
}

func (c *planningContext) routeShouldNotHaveGuard(n int) error {
	rt, err := c.routeAt(n)
	if err != nil {
		return err
	}
	if rt.Guard {
		return fmt.Errorf("route %d unexpectedly reserves a guard seat", n)
	}
	return nil
}

func (c *planningContext) routeShouldRecordSwap(n int, male, female string) error {
	rt, err := c.routeAt(n)
	if err != nil {
		return err
	}
	if !rt.Swapped {
		return fmt.Errorf("route %d records no swap", n)
	}
	if rt.SwappedPairInfo == nil {
		return fmt.Errorf("route %d is swapped but has no pair info", n)
	}
	if rt.SwappedPairInfo.MaleEmpCode != male || rt.SwappedPairInfo.FemaleEmpCode != female {
		return fmt.Errorf("route %d swapped %s for %s, expected %s for %s",
			n, rt.SwappedPairInfo.MaleEmpCode, rt.SwappedPairInfo.FemaleEmpCode, male, female)
	}
	return nil
}

func (c *planningContext) routeShouldBeMedical(n int) error {
	rt, err := c.routeAt(n)
	if err != nil {
		return err
	}
	if !rt.IsMedicalRoute || !rt.IsSpecialNeedsRoute {
		return fmt.Errorf("route %d is not flagged as a medical route", n)
	}
	return nil
}

func (c *planningContext) employeeShouldBeUnrouted(code string) error {
	if c.response == nil {
		return fmt.Errorf("no response produced")
	}
	for _, e := range c.response.UnroutedEmployees {
		if e.EmpCode == code {
			return nil
		}
	}
	return fmt.Errorf("employee %q is not in the unrouted list", code)
}

func (c *planningContext) noEmployeesShouldBeUnrouted() error {
	if c.response == nil {
		return fmt.Errorf("no response produced")
	}
	if len(c.response.UnroutedEmployees) != 0 {
		codes := make([]string, 0, len(c.response.UnroutedEmployees))
		for _, e := range c.response.UnroutedEmployees {
			codes = append(codes, e.EmpCode)
		}
		return fmt.Errorf("unexpected unrouted employees: %v", codes)
	}
	return nil
}

func (c *planningContext) responseShouldCountEmployees(total int) error {
	if c.response == nil {
		return fmt.Errorf("no response produced")
	}
	if c.response.TotalEmployees != total {
		return fmt.Errorf("response counts %d employees, expected %d", c.response.TotalEmployees, total)
	}
	return nil
}

func (c *planningContext) employeeShouldHaveETA(code, eta string) error {
	if c.response == nil {
		return fmt.Errorf("no response produced")
	}
	for _, rt := range c.response.Routes {
		for _, e := range rt.Employees {
			if e.EmpCode == code {
				if e.ETA != eta {
					return fmt.Errorf("employee %q has ETA %q, expected %q", code, e.ETA, eta)
				}
				return nil
			}
		}
	}
	return fmt.Errorf("employee %q is not on any route", code)
}

func (c *planningContext) everyEmployeeShouldAppearExactlyOnce() error {
	if c.response == nil {
		return fmt.Errorf("no response produced")
	}

	seen := make(map[string]int)
	for _, rt := range c.response.Routes {
		for _, e := range rt.Employees {
			seen[e.EmpCode]++
		}
	}
	for _, e := range c.response.UnroutedEmployees {
		seen[e.EmpCode]++
	}

	distinct := make(map[string]bool)
	for _, in := range c.employees {
		distinct[in.EmpCode] = true
	}

	for code := range distinct {
		switch seen[code] {
		case 0:
			return fmt.Errorf("employee %q is missing from the response", code)
		case 1:
		default:
			return fmt.Errorf("employee %q appears %d times", code, seen[code])
		}
	}
	for code := range seen {
		if !distinct[code] {
			return fmt.Errorf("response invented employee %q", code)
		}
	}
	return nil
}

func splitCodes(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// InitializePlanningScenario registers the planning pipeline steps.
func InitializePlanningScenario(sc *godog.ScenarioContext) {
	c := &planningContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		c.reset()
		return ctx, nil
	})

	// Given steps
	sc.Step(`^a facility at coordinates ([0-9.+-]+), ([0-9.+-]+)$`, c.aFacilityAtCoordinates)
	sc.Step(`^a fleet of (\d+) "([^"]*)" vehicles with capacity (\d+)$`, c.aFleetOfVehicles)
	sc.Step(`^employees between ([0-9.]+) and ([0-9.]+) km from the facility may ride ([0-9.]+) km in total$`, c.aDeviationBand)
	sc.Step(`^an? (female |male )?employee "([^"]*)" ([0-9.]+) km (north|south) of the facility$`, c.anEmployeeOfTheFacility)
	sc.Step(`^a medical employee "([^"]*)" ([0-9.]+) km north of the facility$`, c.aMedicalEmployee)
	sc.Step(`^an employee "([^"]*)" with no coordinates$`, c.anEmployeeWithNoCoordinates)
	sc.Step(`^guard escort is requested$`, c.guardEscortIsRequested)
	sc.Step(`^the profile guards "([^"]*)" trips between "([^"]*)" and "([^"]*)"$`, c.profileGuardsTripsBetween)
	sc.Step(`^the request carries inline zones:$`, c.theRequestCarriesInlineZones)

	// When steps
	sc.Step(`^I plan a "([^"]*)" trip for shift "([^"]*)" on "([^"]*)"$`, c.iPlanATrip)

	// Then steps
	sc.Step(`^planning should succeed$`, c.planningShouldSucceed)
	sc.Step(`^planning should fail on field "([^"]*)"$`, c.planningShouldFailOnField)
	sc.Step(`^the response should contain (\d+) routes?$`, c.theResponseShouldContainRoutes)
	sc.Step(`^route (\d+) should carry exactly "([^"]*)"$`, c.routeShouldCarryExactly)
	sc.Step(`^route (\d+) should use a "([^"]*)" vehicle$`, c.routeShouldUseVehicle)
	sc.Step(`^route (\d+) should be in zone "([^"]*)"$`, c.routeShouldBeInZone)
	sc.Step(`^route (\d+) should have a guard seat reserved$`, c.routeShouldHaveGuard)
	sc.Step(`^route (\d+) should not have a guard seat$`, c.routeShouldNotHaveGuard)
	sc.Step(`^route (\d+) should record a guard swap of "([^"]*)" into the critical seat for "([^"]*)"$`, c.routeShouldRecordSwap)
	sc.Step(`^route (\d+) should be flagged as a medical route$`, c.routeShouldBeMedical)
	sc.Step(`^employee "([^"]*)" should be unrouted$`, c.employeeShouldBeUnrouted)
	sc.Step(`^no employees should be unrouted$`, c.noEmployeesShouldBeUnrouted)
	sc.Step(`^the response should count (\d+) employees in total$`, c.responseShouldCountEmployees)
	sc.Step(`^employee "([^"]*)" should have ETA "([^"]*)"$`, c.employeeShouldHaveETA)
	sc.Step(`^every employee should appear exactly once across routes and unrouted$`, c.everyEmployeeShouldAppearExactlyOnce)
}
