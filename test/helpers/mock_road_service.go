package helpers

import (
	"context"
	"sync"

	"github.com/transitops/shuttleplan-go/internal/domain/geo"
	"github.com/transitops/shuttleplan-go/internal/domain/roadnet"
	"github.com/transitops/shuttleplan-go/internal/domain/shared"
)

// MockRoadService is a test double for roadnet.Service. By default it
// synthesizes deterministic answers from haversine geometry: road distance
// is haversine times RoadFactor, duration is distance divided by SpeedMps.
// Tests can override individual calls with RouteFunc/TableFunc or inject
// errors for every call.
type MockRoadService struct {
	mu sync.Mutex

	// RoadFactor scales haversine distance into road distance (default 1.3).
	RoadFactor float64
	// SpeedMps converts road meters into seconds (default 10 m/s).
	SpeedMps float64

	// Custom function handlers; when set they take over the call entirely.
	RouteFunc func(ctx context.Context, req roadnet.RouteRequest) (*roadnet.RouteResult, error)
	TableFunc func(ctx context.Context, req roadnet.TableRequest) (*roadnet.TableResult, error)

	// Error injection.
	RouteErr error
	TableErr error
	ProbeErr error

	// FailRouteAfter fails every Route call once the call count exceeds the
	// threshold (0 disables).
	FailRouteAfter int

	// Call tracking.
	routeCalls []roadnet.RouteRequest
	tableCalls []roadnet.TableRequest
	probeCalls int
}

// NewMockRoadService creates a mock with the default synthetic geometry.
func NewMockRoadService() *MockRoadService {
	return &MockRoadService{RoadFactor: 1.3, SpeedMps: 10}
}

// Route synthesizes a driven route visiting the request points in order.
func (m *MockRoadService) Route(ctx context.Context, req roadnet.RouteRequest) (*roadnet.RouteResult, error) {
	m.mu.Lock()
	m.routeCalls = append(m.routeCalls, req)
	calls := len(m.routeCalls)
	routeFunc := m.RouteFunc
	routeErr := m.RouteErr
	failAfter := m.FailRouteAfter
	m.mu.Unlock()

	if routeFunc != nil {
		return routeFunc(ctx, req)
	}
	if routeErr != nil {
		return nil, routeErr
	}
	if failAfter > 0 && calls > failAfter {
		return nil, shared.NewRoadServiceError("route", req.City, "injected failure", nil)
	}
	if len(req.Points) < 2 {
		return nil, shared.NewRoadServiceError("route", req.City, "need at least two points", nil)
	}

	legs := make([]roadnet.Leg, 0, len(req.Points)-1)
	var distance, duration float64
	for i := 0; i+1 < len(req.Points); i++ {
		meters := geo.HaversineKm(req.Points[i], req.Points[i+1]) * 1000 * m.RoadFactor
		seconds := meters / m.SpeedMps
		legs = append(legs, roadnet.Leg{DistanceMeters: meters, DurationSeconds: seconds})
		distance += meters
		duration += seconds
	}

	return &roadnet.RouteResult{
		DistanceMeters:     distance,
		RawDurationSeconds: duration,
		DurationSeconds:    duration * (1 + req.TrafficBuffer),
		Legs:               legs,
		EncodedPolyline:    geo.EncodePolyline(req.Points),
		Geometry:           req.Points,
	}, nil
}

// Table synthesizes distance and duration matrices over the request points.
func (m *MockRoadService) Table(ctx context.Context, req roadnet.TableRequest) (*roadnet.TableResult, error) {
	m.mu.Lock()
	m.tableCalls = append(m.tableCalls, req)
	tableFunc := m.TableFunc
	tableErr := m.TableErr
	m.mu.Unlock()

	if tableFunc != nil {
		return tableFunc(ctx, req)
	}
	if tableErr != nil {
		return nil, tableErr
	}

	sources := req.Sources
	if len(sources) == 0 {
		sources = allIndices(len(req.Points))
	}
	destinations := req.Destinations
	if len(destinations) == 0 {
		destinations = allIndices(len(req.Points))
	}

	distances := make([][]float64, len(sources))
	durations := make([][]float64, len(sources))
	for i, src := range sources {
		distances[i] = make([]float64, len(destinations))
		durations[i] = make([]float64, len(destinations))
		for j, dst := range destinations {
			meters := geo.HaversineKm(req.Points[src], req.Points[dst]) * 1000 * m.RoadFactor
			distances[i][j] = meters
			durations[i][j] = meters / m.SpeedMps
		}
	}
	return &roadnet.TableResult{DistancesMeters: distances, DurationsSeconds: durations}, nil
}

// Probe reports the injected probe error, if any.
func (m *MockRoadService) Probe(ctx context.Context, city string, at geo.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probeCalls++
	return m.ProbeErr
}

// RouteCalls returns a copy of every Route request seen so far.
func (m *MockRoadService) RouteCalls() []roadnet.RouteRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]roadnet.RouteRequest, len(m.routeCalls))
	copy(out, m.routeCalls)
	return out
}

// TableCalls returns a copy of every Table request seen so far.
func (m *MockRoadService) TableCalls() []roadnet.TableRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]roadnet.TableRequest, len(m.tableCalls))
	copy(out, m.tableCalls)
	return out
}

// ProbeCalls reports how many times Probe was invoked.
func (m *MockRoadService) ProbeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probeCalls
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
