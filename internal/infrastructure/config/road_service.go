package config

import "time"

// RoadServiceConfig holds the OSRM road backend configuration
type RoadServiceConfig struct {
	// Base URL of the default OSRM backend
	URL string `mapstructure:"url" validate:"required,url"`

	// Per-city backend overrides (lowercase city name -> base URL)
	CityURLs map[string]string `mapstructure:"city_urls"`

	// Timeout settings for road service calls
	Timeout RoadTimeoutConfig `mapstructure:"timeout"`

	// Rate limiting settings
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Retry configuration for transient failures
	Retry RetryConfig `mapstructure:"retry"`

	// LRU cache entries kept per result kind (routes, tables)
	CacheSize int `mapstructure:"cache_size" validate:"min=1"`

	// Circuit breaker settings
	Breaker BreakerConfig `mapstructure:"breaker"`
}

// RoadTimeoutConfig holds per-operation timeouts for the road backend
type RoadTimeoutConfig struct {
	// Timeout for single route calls
	Route time.Duration `mapstructure:"route" validate:"required"`

	// Base timeout for distance matrix calls
	TableBase time.Duration `mapstructure:"table_base" validate:"required"`

	// Extra matrix timeout granted per coordinate
	TablePerPoint time.Duration `mapstructure:"table_per_point"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Maximum requests per second against the backend
	Requests float64 `mapstructure:"requests" validate:"min=1"`

	// Burst size for the token bucket
	Burst int `mapstructure:"burst" validate:"min=1"`
}

// RetryConfig holds retry configuration for failed requests
type RetryConfig struct {
	// Maximum retry attempts after the initial call
	MaxAttempts int `mapstructure:"max_attempts" validate:"min=0"`

	// Base duration for exponential backoff between attempts
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

// BreakerConfig holds circuit breaker configuration
type BreakerConfig struct {
	// Consecutive failures before the breaker opens
	MaxFailures int `mapstructure:"max_failures" validate:"min=1"`

	// How long the breaker stays open before allowing a trial call
	ResetTimeout time.Duration `mapstructure:"reset_timeout" validate:"required"`
}
