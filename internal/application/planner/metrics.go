package planner

// Recorder receives pipeline telemetry. The metrics adapter implements it;
// tests and metric-less deployments fall back to the no-op.
type Recorder interface {
	// RecordPlanRequest observes one Plan call with its outcome and latency.
	RecordPlanRequest(tripType, status string, seconds float64)
	// RecordPlanOutcome observes the route and employee counts of a
	// completed plan.
	RecordPlanOutcome(tripType string, routes, routed, unrouted int)
	// RecordSolverRun observes one solver subprocess invocation.
	RecordSolverRun(mode string, succeeded bool, seconds float64)
}

type noopRecorder struct{}

func (noopRecorder) RecordPlanRequest(string, string, float64) {}
func (noopRecorder) RecordPlanOutcome(string, int, int, int)   {}
func (noopRecorder) RecordSolverRun(string, bool, float64)     {}
