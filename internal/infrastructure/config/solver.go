package config

import "time"

// SolverConfig holds the VRP solver subprocess configuration
type SolverConfig struct {
	// Path to the solver binary
	Binary string `mapstructure:"binary" validate:"required"`

	// Extra arguments passed to every invocation
	Args []string `mapstructure:"args"`

	// Wall-clock limit per solve
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`

	// Maximum concurrent solver subprocesses
	PoolSize int `mapstructure:"pool_size" validate:"min=1"`
}
