package config

// PlannerConfig holds pipeline toggles that are not part of request profiles
type PlannerConfig struct {
	// DeviationBypass short-circuits every deviation check to pass.
	// Useful for staging environments with sparse road coverage.
	DeviationBypass bool `mapstructure:"deviation_bypass"`

	// FarthestFanout bounds the parallel per-employee road lookups
	// during deviation checks
	FarthestFanout int `mapstructure:"farthest_fanout" validate:"min=1"`
}
