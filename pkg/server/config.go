// Package server wires all services together and owns the process lifecycle
package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/nexadash/dcx/pkg/api"
	"github.com/nexadash/dcx/pkg/catalog"
	"github.com/nexadash/dcx/pkg/redis"
	"github.com/nexadash/dcx/pkg/refresher"
	"github.com/nexadash/dcx/pkg/scheduler"
	"github.com/nexadash/dcx/pkg/warehouse"
)

// Define static errors
var (
	ErrRedisConfigRequired     = errors.New("redis configuration is required")
	ErrWarehouseConfigRequired = errors.New("warehouse configuration is required")
)

// Config holds the full service configuration
type Config struct {
	// LoggingLevel is the logging level to use.
	LoggingLevel string `yaml:"logging" default:"info"`
	// MetricsAddr is the address to listen on for metrics.
	MetricsAddr string `yaml:"metricsAddr" default:":9090"`
	// PProfAddr is the address to listen on for pprof.
	PProfAddr *string `yaml:"pprofAddr"`
	// ShutdownTimeout is the timeout for shutting down the server.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"10s"`

	Redis     *redis.Config     `yaml:"redis"`
	Catalog   *catalog.Config   `yaml:"catalog"`
	Warehouse *warehouse.Config `yaml:"warehouse"`
	Refresher *refresher.Config `yaml:"refresher"`
	Scheduler *scheduler.Config `yaml:"scheduler"`
	API       *api.Config       `yaml:"api"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Redis == nil {
		return ErrRedisConfigRequired
	}

	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("invalid redis configuration: %w", err)
	}

	if c.Warehouse == nil {
		return ErrWarehouseConfigRequired
	}

	if c.Catalog == nil {
		c.Catalog = &catalog.Config{}
	}

	if c.Refresher == nil {
		c.Refresher = &refresher.Config{}
	}

	if c.Scheduler == nil {
		c.Scheduler = &scheduler.Config{Enabled: true, Concurrency: 4}
	}

	if c.API == nil {
		c.API = &api.Config{Enabled: true, Addr: ":8080"}
	}

	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("invalid api configuration: %w", err)
	}

	return nil
}
