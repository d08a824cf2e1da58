package config

import (
	"fmt"
	"time"
)

// ServerConfig holds the HTTP API server configuration
type ServerConfig struct {
	// Host interface to bind (default: 0.0.0.0)
	Host string `mapstructure:"host"`

	// Port for the HTTP API server
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`

	// Maximum duration for reading the entire request
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"required"`

	// Maximum duration before timing out writes of the response.
	// Plan requests can sit behind long solver runs, so this must
	// comfortably exceed the solver timeout.
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"required"`

	// Grace period for in-flight requests during shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}

// Address returns the host:port string the server listens on
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
