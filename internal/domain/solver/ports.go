// Package solver defines the port to the external VRP solver subprocess
// and the JSON problem/solution wire shapes it speaks.
package solver

import "context"

// Problem is the JSON document written to the solver's stdin. Matrix index
// 0 is always the depot (facility); customers are 1..N in the order of the
// input point map.
type Problem struct {
	DistanceMatrix [][]float64 `json:"distance_matrix"`
	DurationMatrix [][]float64 `json:"duration_matrix"`

	NumVehicles       int   `json:"num_vehicles"`
	VehicleCapacities []int `json:"vehicle_capacities"`
	Demands           []int `json:"demands"`
	DepotIndex        int   `json:"depot_index"`

	MaxRouteDuration float64   `json:"max_route_duration"`
	ServiceTimes     []float64 `json:"service_times"`

	AllowDroppingVisits bool    `json:"allow_dropping_visits"`
	DropVisitPenalty    float64 `json:"drop_visit_penalty"`

	FacilityCoords         []float64 `json:"facility_coords"` // [lat, lng]
	TripType               string    `json:"trip_type"`
	DirectionPenaltyWeight float64   `json:"direction_penalty_weight"`

	// Exactly one may be set: a matrix index the solver must keep at the
	// route start (pickup) or end (dropoff).
	FixedStartNodeIndexInMatrix *int `json:"fixed_start_node_index_in_matrix,omitempty"`
	FixedEndNodeIndexInMatrix   *int `json:"fixed_end_node_index_in_matrix,omitempty"`
}

// Solution is the last well-formed JSON object the solver prints on
// stdout. Node indices refer back to the problem matrices.
type Solution struct {
	Routes             [][]int `json:"routes"`
	DroppedNodeIndices []int   `json:"dropped_node_indices"`
	Error              string  `json:"error,omitempty"`
}

// Client runs one solver invocation per call. A failed invocation is
// reported as a shared.SolverError; callers treat every node in the
// problem as dropped.
type Client interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}
