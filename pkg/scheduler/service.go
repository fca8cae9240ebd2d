package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nexadash/dcx/pkg/refresher"
	"github.com/nexadash/dcx/pkg/tasks"
)

// Service drives the background refresh schedule
type Service interface {
	// Start launches the ticker loop in the background
	Start(ctx context.Context) error
	// Stop gracefully shuts the ticker down
	Stop() error
}

type service struct {
	log    logrus.FieldLogger
	config *Config
	ticker *ticker

	done chan struct{}
	wg   sync.WaitGroup
}

// NewService creates a scheduler over the screen registry. Every screen gets
// one scheduled refresh per tenant; an empty tenant list schedules the
// defaults-only tenant.
func NewService(log logrus.FieldLogger, cfg *Config, redisClient *redis.Client, queue *tasks.Queue, screens map[string]*refresher.ScreenConfig, tenants []string) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	l := log.WithField("service", "scheduler")

	if len(tenants) == 0 {
		tenants = []string{""}
	}

	refreshes, err := buildRefreshTable(screens, tenants)
	if err != nil {
		return nil, err
	}

	return &service{
		log:    l,
		config: cfg,
		ticker: newTicker(l, newScheduleTracker(l, redisClient), queue, refreshes),
		done:   make(chan struct{}),
	}, nil
}

func (s *service) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("Scheduler disabled, not starting")
		return nil
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		if err := s.ticker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.WithError(err).Error("Ticker stopped unexpectedly")
		}
	}()

	return nil
}

func (s *service) Stop() error {
	if !s.config.Enabled {
		return nil
	}

	s.log.Info("Stopping scheduler")
	s.ticker.Stop()
	s.wg.Wait()

	return nil
}

// buildRefreshTable expands the screen registry into one scheduled refresh per
// (screen, tenant) pair, sorted for deterministic ticking order.
func buildRefreshTable(screens map[string]*refresher.ScreenConfig, tenants []string) ([]scheduledRefresh, error) {
	refreshes := make([]scheduledRefresh, 0, len(screens)*len(tenants))

	for screenID, screen := range screens {
		interval, err := parseScheduleInterval(screen.Refresh)
		if err != nil {
			return nil, fmt.Errorf("screen %s: %w", screenID, err)
		}

		for _, tenant := range tenants {
			refreshes = append(refreshes, scheduledRefresh{
				ID:       fmt.Sprintf("%s:%s", screenID, tenant),
				Screen:   screenID,
				Tenant:   tenant,
				Schedule: screen.Refresh,
				Interval: interval,
			})
		}
	}

	sort.Slice(refreshes, func(i, j int) bool {
		return refreshes[i].ID < refreshes[j].ID
	})

	return refreshes, nil
}

// Verify interface compliance at compile time
var _ Service = (*service)(nil)
