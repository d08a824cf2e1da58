package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordsPlanRequests(t *testing.T) {
	c := NewCollector()

	c.RecordPlanRequest("PICKUP", "ok", 1.2)
	c.RecordPlanRequest("PICKUP", "ok", 0.4)
	c.RecordPlanRequest("DROPOFF", "error", 0.1)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.planRequestsTotal.WithLabelValues("PICKUP", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.planRequestsTotal.WithLabelValues("DROPOFF", "error")))
}

func TestCollectorRecordsPlanOutcome(t *testing.T) {
	c := NewCollector()

	c.RecordPlanOutcome("PICKUP", 3, 10, 2)
	c.RecordPlanOutcome("PICKUP", 1, 4, 0)

	assert.Equal(t, 4.0, testutil.ToFloat64(c.routesCommittedTotal.WithLabelValues("PICKUP")))
	assert.Equal(t, 14.0, testutil.ToFloat64(c.employeesRoutedTotal.WithLabelValues("PICKUP")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.employeesUnroutedTotal.WithLabelValues("PICKUP")))
}

func TestCollectorSplitsSolverRunsByStatus(t *testing.T) {
	c := NewCollector()

	c.RecordSolverRun("polish", true, 0.8)
	c.RecordSolverRun("polish", false, 2.0)
	c.RecordSolverRun("reopt", true, 0.3)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.solverRunsTotal.WithLabelValues("polish", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.solverRunsTotal.WithLabelValues("polish", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.solverRunsTotal.WithLabelValues("reopt", "ok")))
}

func TestNewRegistryExposesPipelineMetrics(t *testing.T) {
	registry, collector, err := NewRegistry()
	require.NoError(t, err)

	collector.RecordRoadCall("table", "ok", 0.05)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["shuttleplan_planner_road_requests_total"])
	assert.True(t, names["go_goroutines"])
}
