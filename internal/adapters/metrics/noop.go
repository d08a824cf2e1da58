package metrics

// Noop discards every observation. It stands in when metrics are disabled.
type Noop struct{}

func (Noop) RecordPlanRequest(tripType, status string, seconds float64)      {}
func (Noop) RecordPlanOutcome(tripType string, routes, routed, unrouted int) {}
func (Noop) RecordRoadCall(op, status string, seconds float64)               {}
func (Noop) RecordSolverRun(mode string, succeeded bool, seconds float64)    {}
