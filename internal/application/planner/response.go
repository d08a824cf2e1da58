package planner

import (
	"github.com/transitops/shuttleplan-go/internal/domain/route"
	"github.com/transitops/shuttleplan-go/pkg/utils"
)

// RouteDetailsView sums driven distance (km) and buffered duration (s)
// across all routes.
type RouteDetailsView struct {
	TotalDistance float64 `json:"totalDistance"`
	TotalDuration float64 `json:"totalDuration"`
}

// SwappedPairView reports a completed guard-avoidance swap.
type SwappedPairView struct {
	FemaleEmpCode  string  `json:"femaleEmpCode"`
	MaleEmpCode    string  `json:"maleEmpCode"`
	RoadDistanceKm float64 `json:"roadDistanceKm"`
}

// RoutedEmployeeView is one stop of a response route. ETA is wall-clock
// HHMM: the pickup time for pickup trips, the dropoff time otherwise.
type RoutedEmployeeView struct {
	EmpCode   string  `json:"empCode"`
	Gender    string  `json:"gender"`
	IsMedical bool    `json:"isMedical"`
	IsPWD     bool    `json:"isPWD"`
	IsNMT     bool    `json:"isNMT"`
	IsOOB     bool    `json:"isOOB"`
	ETA       string  `json:"eta"`
	Order     int     `json:"order"`
	GeoX      float64 `json:"geoX"`
	GeoY      float64 `json:"geoY"`
}

// RouteView is one committed route on the wire. Distances are km, durations
// buffered seconds.
type RouteView struct {
	RouteNumber              int                  `json:"routeNumber"`
	Zone                     string               `json:"zone"`
	VehicleCapacity          int                  `json:"vehicleCapacity"`
	VehicleType              string               `json:"vehicleType"`
	Guard                    bool                 `json:"guard"`
	Swapped                  bool                 `json:"swapped"`
	SwappedPairInfo          *SwappedPairView     `json:"swappedPairInfo,omitempty"`
	DurationExceeded         bool                 `json:"durationExceeded"`
	UniqueKey                string               `json:"uniqueKey"`
	IsSpecialNeedsRoute      bool                 `json:"isSpecialNeedsRoute"`
	AfterFleetExhaustion     bool                 `json:"afterFleetExhaustion"`
	Distance                 float64              `json:"distance"`
	Duration                 float64              `json:"duration"`
	Occupancy                int                  `json:"occupancy"`
	FarthestEmployeeDistance float64              `json:"farthestEmployeeDistance"`
	IsMedicalRoute           bool                 `json:"isMedicalRoute"`
	IsPWDRoute               bool                 `json:"isPWDRoute"`
	IsNMTRoute               bool                 `json:"isNMTRoute"`
	IsOOBRoute               bool                 `json:"isOOBRoute"`
	EncodedPolyline          string               `json:"encodedPolyline"`
	Employees                []RoutedEmployeeView `json:"employees"`
}

// PlanResponse is the envelope returned for every plan request, including
// failed ones (with zero statistics and everyone unrouted).
type PlanResponse struct {
	UUID                 string           `json:"uuid"`
	Date                 string           `json:"date"`
	Shift                string           `json:"shift"`
	TripType             string           `json:"tripType"`
	TotalEmployees       int              `json:"totalEmployees"`
	TotalRoutedEmployees int              `json:"totalRoutedEmployees"`
	TotalRoutes          int              `json:"totalRoutes"`
	TotalGuardedRoutes   int              `json:"totalGuardedRoutes"`
	AverageOccupancy     float64          `json:"averageOccupancy"`
	OverallRouteDetails  RouteDetailsView `json:"overallRouteDetails"`
	TotalSwappedRoutes   int              `json:"totalSwappedRoutes"`
	Routes               []RouteView      `json:"routes"`
	UnroutedEmployees    []EmployeeInput  `json:"unroutedEmployees"`
}

// buildResponse assembles the envelope from the committed routes and the
// input diff: every distinct input employee not on a route is unrouted.
func (r *run) buildResponse() *PlanResponse {
	resp := &PlanResponse{
		UUID:              r.req.UUID,
		Date:              r.req.Date,
		Shift:             r.req.ShiftTime,
		TripType:          r.trip.ShortCode(),
		Routes:            []RouteView{},
		UnroutedEmployees: []EmployeeInput{},
	}

	routed := make(map[string]bool)
	var totalMeters, totalSeconds float64
	for i, rt := range r.routes {
		resp.Routes = append(resp.Routes, routeView(rt, i+1))
		totalMeters += rt.Details.TotalDistanceMeters
		totalSeconds += rt.Details.TotalDurationSeconds
		if rt.GuardNeeded {
			resp.TotalGuardedRoutes++
		}
		if rt.Swapped {
			resp.TotalSwappedRoutes++
		}
		resp.TotalRoutedEmployees += rt.Occupancy()
		for _, code := range rt.EmpCodes() {
			routed[code] = true
		}
	}
	resp.TotalRoutes = len(r.routes)
	if resp.TotalRoutes > 0 {
		resp.AverageOccupancy = utils.Round2(float64(resp.TotalRoutedEmployees) / float64(resp.TotalRoutes))
	}
	resp.OverallRouteDetails = RouteDetailsView{
		TotalDistance: utils.Round2(totalMeters / 1000.0),
		TotalDuration: utils.Round2(totalSeconds),
	}

	seen := make(map[string]bool, len(r.req.Employees))
	for _, in := range r.req.Employees {
		if seen[in.EmpCode] {
			continue
		}
		seen[in.EmpCode] = true
		resp.TotalEmployees++
		if !routed[in.EmpCode] {
			resp.UnroutedEmployees = append(resp.UnroutedEmployees, in)
		}
	}
	return resp
}

func routeView(rt *route.Route, number int) RouteView {
	view := RouteView{
		RouteNumber:              number,
		Zone:                     rt.Zone,
		VehicleCapacity:          rt.VehicleCapacity,
		VehicleType:              rt.AssignedVehicleType,
		Guard:                    rt.GuardNeeded,
		Swapped:                  rt.Swapped,
		DurationExceeded:         rt.DurationExceeded,
		UniqueKey:                rt.UniqueKey,
		IsSpecialNeedsRoute:      rt.IsSpecialNeedsRoute,
		AfterFleetExhaustion:     rt.AfterFleetExhaustion,
		Distance:                 utils.Round2(rt.Details.TotalKm()),
		Duration:                 utils.Round2(rt.Details.TotalDurationSeconds),
		Occupancy:                rt.Occupancy(),
		FarthestEmployeeDistance: utils.Round2(rt.FarthestRoadKm),
		EncodedPolyline:          rt.Details.EncodedPolyline,
	}
	if rt.SwappedPair != nil {
		view.SwappedPairInfo = &SwappedPairView{
			FemaleEmpCode:  rt.SwappedPair.FemaleEmpCode,
			MaleEmpCode:    rt.SwappedPair.MaleEmpCode,
			RoadDistanceKm: rt.SwappedPair.RoadDistanceKm,
		}
	}

	isPickup := rt.TripType.IsPickup()
	for _, re := range rt.Employees {
		e := re.Employee
		view.IsMedicalRoute = view.IsMedicalRoute || e.IsMedical
		view.IsPWDRoute = view.IsPWDRoute || e.IsPWD
		view.IsNMTRoute = view.IsNMTRoute || e.IsNMT
		view.IsOOBRoute = view.IsOOBRoute || e.IsOOB

		eta := re.DropoffTime
		if isPickup {
			eta = re.PickupTime
		}
		etaStr := ""
		if !eta.IsZero() {
			etaStr = utils.FormatHHMM(eta)
		}
		view.Employees = append(view.Employees, RoutedEmployeeView{
			EmpCode:   e.EmpCode,
			Gender:    string(e.Gender),
			IsMedical: e.IsMedical,
			IsPWD:     e.IsPWD,
			IsNMT:     e.IsNMT,
			IsOOB:     e.IsOOB,
			ETA:       etaStr,
			Order:     re.Order,
			GeoX:      e.Location.Lng,
			GeoY:      e.Location.Lat,
		})
	}
	return view
}

// emptyEnvelope is the top-level failure response: zero statistics, every
// input employee listed as unrouted.
func emptyEnvelope(req *PlanRequest) *PlanResponse {
	resp := &PlanResponse{
		UUID:              req.UUID,
		Date:              req.Date,
		Shift:             req.ShiftTime,
		Routes:            []RouteView{},
		UnroutedEmployees: []EmployeeInput{},
	}
	if req.TripType.Valid() {
		resp.TripType = req.TripType.ShortCode()
	}
	seen := make(map[string]bool, len(req.Employees))
	for _, in := range req.Employees {
		if seen[in.EmpCode] {
			continue
		}
		seen[in.EmpCode] = true
		resp.TotalEmployees++
		resp.UnroutedEmployees = append(resp.UnroutedEmployees, in)
	}
	return resp
}
