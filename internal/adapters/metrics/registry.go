package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewRegistry creates a dedicated Prometheus registry carrying the standard
// process and Go runtime collectors plus the pipeline collector.
func NewRegistry() (*prometheus.Registry, *Collector, error) {
	registry := prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	collector := NewCollector()
	if err := collector.Register(registry); err != nil {
		return nil, nil, err
	}
	return registry, collector, nil
}
