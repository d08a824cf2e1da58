package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/transitops/shuttleplan-go/internal/adapters/metrics"
	"github.com/transitops/shuttleplan-go/internal/adapters/ortools"
	"github.com/transitops/shuttleplan-go/internal/adapters/osrm"
	"github.com/transitops/shuttleplan-go/internal/adapters/zonefile"
	"github.com/transitops/shuttleplan-go/internal/application/common"
	"github.com/transitops/shuttleplan-go/internal/application/planner"
	"github.com/transitops/shuttleplan-go/internal/infrastructure/config"
)

// container holds the wired application dependencies for one command run.
type container struct {
	Config   *config.Config
	Logger   common.PipelineLogger
	Planner  *planner.Service
	Registry *prometheus.Registry
}

// buildContainer loads configuration and wires the planning service with
// its adapters.
func buildContainer(configPath string) (*container, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger := common.NewLogger(level, cfg.Logging.Format)

	var (
		registry  *prometheus.Registry
		collector *metrics.Collector
	)
	if cfg.Metrics.Enabled {
		registry, collector, err = metrics.NewRegistry()
		if err != nil {
			return nil, fmt.Errorf("failed to build metrics registry: %w", err)
		}
	}

	road, err := osrm.NewClient(osrm.Options{
		DefaultURL:           cfg.RoadService.URL,
		CityURLs:             cfg.RoadService.CityURLs,
		RouteTimeout:         cfg.RoadService.Timeout.Route,
		TableBaseTimeout:     cfg.RoadService.Timeout.TableBase,
		TablePerPointTimeout: cfg.RoadService.Timeout.TablePerPoint,
		RateLimit:            cfg.RoadService.RateLimit.Requests,
		RateBurst:            cfg.RoadService.RateLimit.Burst,
		MaxRetries:           cfg.RoadService.Retry.MaxAttempts,
		BackoffBase:          cfg.RoadService.Retry.BackoffBase,
		CacheSize:            cfg.RoadService.CacheSize,
		BreakerMaxFailures:   cfg.RoadService.Breaker.MaxFailures,
		BreakerResetTimeout:  cfg.RoadService.Breaker.ResetTimeout,
		Metrics:              roadRecorder(collector),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build road service client: %w", err)
	}

	vrp, err := ortools.NewClient(ortools.Options{
		Binary:   cfg.Solver.Binary,
		Args:     cfg.Solver.Args,
		Timeout:  cfg.Solver.Timeout,
		PoolSize: cfg.Solver.PoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build solver client: %w", err)
	}

	zones := zonefile.NewSource(cfg.Zones.Files)

	svc := planner.NewService(road, vrp, zones, planner.Options{
		DeviationBypass: cfg.Planner.DeviationBypass,
		FarthestFanout:  cfg.Planner.FarthestFanout,
	}, planRecorder(collector))

	return &container{
		Config:   cfg,
		Logger:   logger,
		Planner:  svc,
		Registry: registry,
	}, nil
}

// planRecorder avoids handing the planner an interface wrapping a nil
// collector when metrics are disabled.
func planRecorder(c *metrics.Collector) planner.Recorder {
	if c == nil {
		return nil
	}
	return c
}

func roadRecorder(c *metrics.Collector) osrm.MetricsRecorder {
	if c == nil {
		return nil
	}
	return c
}
