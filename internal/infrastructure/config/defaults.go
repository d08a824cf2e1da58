package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 180 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	// Road service defaults
	if cfg.RoadService.URL == "" {
		cfg.RoadService.URL = "http://localhost:5000"
	}
	if cfg.RoadService.Timeout.Route == 0 {
		cfg.RoadService.Timeout.Route = 30 * time.Second
	}
	if cfg.RoadService.Timeout.TableBase == 0 {
		cfg.RoadService.Timeout.TableBase = 8 * time.Second
	}
	if cfg.RoadService.Timeout.TablePerPoint == 0 {
		cfg.RoadService.Timeout.TablePerPoint = 150 * time.Millisecond
	}
	if cfg.RoadService.RateLimit.Requests == 0 {
		cfg.RoadService.RateLimit.Requests = 10
	}
	if cfg.RoadService.RateLimit.Burst == 0 {
		cfg.RoadService.RateLimit.Burst = 10
	}
	if cfg.RoadService.Retry.MaxAttempts == 0 {
		cfg.RoadService.Retry.MaxAttempts = 2
	}
	if cfg.RoadService.Retry.BackoffBase == 0 {
		cfg.RoadService.Retry.BackoffBase = 500 * time.Millisecond
	}
	if cfg.RoadService.CacheSize == 0 {
		cfg.RoadService.CacheSize = 512
	}
	if cfg.RoadService.Breaker.MaxFailures == 0 {
		cfg.RoadService.Breaker.MaxFailures = 5
	}
	if cfg.RoadService.Breaker.ResetTimeout == 0 {
		cfg.RoadService.Breaker.ResetTimeout = 30 * time.Second
	}

	// Solver defaults
	if cfg.Solver.Binary == "" {
		cfg.Solver.Binary = "vrp-solver"
	}
	if cfg.Solver.Timeout == 0 {
		cfg.Solver.Timeout = 120 * time.Second
	}
	if cfg.Solver.PoolSize == 0 {
		cfg.Solver.PoolSize = 4
	}

	// Planner defaults
	if cfg.Planner.FarthestFanout == 0 {
		cfg.Planner.FarthestFanout = 4
	}

	// Metrics defaults
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
