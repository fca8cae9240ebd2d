// Package redis provides shared Redis client configuration for the screen
// cache, the schedule tracker and the Asynq queue.
package redis

import (
	"errors"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Define static errors
var (
	// ErrURLRequired is returned when no Redis URL is configured
	ErrURLRequired = errors.New("redis url is required")
)

// Config holds Redis client configuration
type Config struct {
	URL string `yaml:"url" default:"redis://localhost:6379/0"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrURLRequired
	}

	_, err := redis.ParseURL(c.URL)

	return err
}

// Options parses the configured URL into client options
func (c *Config) Options() (*redis.Options, error) {
	return redis.ParseURL(c.URL)
}

// NewAsynqRedisOptions converts Redis client options to Asynq client options
// so both share one connection configuration
func NewAsynqRedisOptions(opt *redis.Options) *asynq.RedisClientOpt {
	return &asynq.RedisClientOpt{
		Network:      opt.Network,
		Addr:         opt.Addr,
		Username:     opt.Username,
		Password:     opt.Password,
		DB:           opt.DB,
		DialTimeout:  opt.DialTimeout,
		ReadTimeout:  opt.ReadTimeout,
		WriteTimeout: opt.WriteTimeout,
		PoolSize:     opt.PoolSize,
		TLSConfig:    opt.TLSConfig,
	}
}
