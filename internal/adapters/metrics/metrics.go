// Package metrics exposes Prometheus collectors for the planning
// pipeline, the road service and the solver subprocess.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace for all metrics
	namespace = "shuttleplan"
	// Subsystem for planner metrics
	subsystem = "planner"
)

// Collector holds every metric the pipeline records.
type Collector struct {
	planRequestsTotal *prometheus.CounterVec
	planDuration      *prometheus.HistogramVec

	routesCommittedTotal   *prometheus.CounterVec
	employeesRoutedTotal   *prometheus.CounterVec
	employeesUnroutedTotal *prometheus.CounterVec

	roadRequestsTotal   *prometheus.CounterVec
	roadRequestDuration *prometheus.HistogramVec

	solverRunsTotal   *prometheus.CounterVec
	solverRunDuration *prometheus.HistogramVec
}

// NewCollector creates the pipeline metrics collector.
func NewCollector() *Collector {
	return &Collector{
		planRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plan_requests_total",
				Help:      "Total number of plan requests by trip type and outcome",
			},
			[]string{"trip_type", "status"},
		),

		planDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plan_duration_seconds",
				Help:      "Plan request duration distribution",
				Buckets:   []float64{0.1, 0.5, 1.0, 5.0, 15.0, 30.0, 60.0, 120.0, 300.0},
			},
			[]string{"trip_type"},
		),

		routesCommittedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "routes_committed_total",
				Help:      "Total number of routes committed to responses",
			},
			[]string{"trip_type"},
		),

		employeesRoutedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "employees_routed_total",
				Help:      "Total number of employees placed on committed routes",
			},
			[]string{"trip_type"},
		),

		employeesUnroutedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "employees_unrouted_total",
				Help:      "Total number of employees left unrouted in responses",
			},
			[]string{"trip_type"},
		),

		roadRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "road_requests_total",
				Help:      "Total number of road service calls by operation and outcome",
			},
			[]string{"op", "status"},
		),

		roadRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "road_request_duration_seconds",
				Help:      "Road service call duration distribution",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"op"},
		),

		solverRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solver_runs_total",
				Help:      "Total number of solver invocations by mode and outcome",
			},
			[]string{"mode", "status"},
		),

		solverRunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solver_run_duration_seconds",
				Help:      "Solver invocation duration distribution",
				Buckets:   []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 120.0},
			},
			[]string{"mode"},
		),
	}
}

// Register registers all pipeline metrics with the given registry.
func (c *Collector) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		c.planRequestsTotal,
		c.planDuration,
		c.routesCommittedTotal,
		c.employeesRoutedTotal,
		c.employeesUnroutedTotal,
		c.roadRequestsTotal,
		c.roadRequestDuration,
		c.solverRunsTotal,
		c.solverRunDuration,
	}

	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// RecordPlanRequest records a completed plan request.
func (c *Collector) RecordPlanRequest(tripType, status string, seconds float64) {
	c.planRequestsTotal.WithLabelValues(tripType, status).Inc()
	c.planDuration.WithLabelValues(tripType).Observe(seconds)
}

// RecordPlanOutcome records the route and employee counts of a response.
func (c *Collector) RecordPlanOutcome(tripType string, routes, routed, unrouted int) {
	c.routesCommittedTotal.WithLabelValues(tripType).Add(float64(routes))
	c.employeesRoutedTotal.WithLabelValues(tripType).Add(float64(routed))
	c.employeesUnroutedTotal.WithLabelValues(tripType).Add(float64(unrouted))
}

// RecordRoadCall records a road service call completion.
func (c *Collector) RecordRoadCall(op, status string, seconds float64) {
	c.roadRequestsTotal.WithLabelValues(op, status).Inc()
	c.roadRequestDuration.WithLabelValues(op).Observe(seconds)
}

// RecordSolverRun records a solver invocation completion.
func (c *Collector) RecordSolverRun(mode string, succeeded bool, seconds float64) {
	status := "ok"
	if !succeeded {
		status = "error"
	}
	c.solverRunsTotal.WithLabelValues(mode, status).Inc()
	c.solverRunDuration.WithLabelValues(mode).Observe(seconds)
}
