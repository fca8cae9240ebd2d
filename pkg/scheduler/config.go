// Package scheduler enqueues screen refresh tasks on each screen's configured
// cadence, once per tenant. Last-run timestamps live in Redis so restarts do
// not trigger a refresh storm.
package scheduler

import (
	"errors"
	"time"
)

// Define static errors
var (
	// ErrInvalidConcurrency is returned when concurrency is not positive
	ErrInvalidConcurrency = errors.New("concurrency must be positive")
)

// Config defines scheduler configuration
type Config struct {
	Enabled         bool          `yaml:"enabled" default:"true"`
	Concurrency     int           `yaml:"concurrency" default:"4"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"10s"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return ErrInvalidConcurrency
	}

	if c.Concurrency == 0 {
		c.Concurrency = 4
	}

	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}

	return nil
}
