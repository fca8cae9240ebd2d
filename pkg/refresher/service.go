package refresher

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nexadash/dcx/pkg/catalog"
	"github.com/nexadash/dcx/pkg/datacontext"
	"github.com/nexadash/dcx/pkg/observability"
	"github.com/nexadash/dcx/pkg/querybuilder"
	"github.com/nexadash/dcx/pkg/warehouse"
)

// GetOptions controls cache behavior for a read
type GetOptions struct {
	UseCache   bool
	AllowStale bool
}

// Screen read sources
const (
	SourceFresh = "fresh"
	SourceStale = "stale"
	SourceSeed  = "seed"
)

// ScreenResult is a read snapshot of one screen
type ScreenResult struct {
	Data   datacontext.Context `json:"data"`
	Source string              `json:"source"`
	Ts     int64               `json:"ts,omitempty"`
}

// Service reads and refreshes screen data contexts
type Service interface {
	// GetScreen returns the cached context for a screen, or a zero-valued seed
	// on a miss. It never queries the warehouse.
	GetScreen(ctx context.Context, tenantID, screenID string, opts GetOptions) (*ScreenResult, error)
	// RefreshScreen resolves the screen's full roadmap against the warehouse
	// and commits the result to the cache
	RefreshScreen(ctx context.Context, tenantID, screenID string, filters querybuilder.FilterContext) (datacontext.Context, error)
	// InvalidateScreen drops cached entries for a screen across all tenants,
	// or the whole cache when screenID is empty
	InvalidateScreen(ctx context.Context, screenID string) error
	// Screens exposes the screen registry for scheduling
	Screens() map[string]*ScreenConfig
}

type service struct {
	log      logrus.FieldLogger
	config   *Config
	catalog  catalog.Service
	executor warehouse.Executor
	cache    *Cache
	base     datacontext.Context
}

// NewService creates a screen refresher service
func NewService(log logrus.FieldLogger, cfg *Config, cat catalog.Service, exec warehouse.Executor, redisClient *redis.Client) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &service{
		log:      log.WithField("service", "refresher"),
		config:   cfg,
		catalog:  cat,
		executor: exec,
		cache:    NewCache(redisClient),
		base:     datacontext.NewBaseTemplate(),
	}, nil
}

func (s *service) Screens() map[string]*ScreenConfig {
	return s.config.Screens
}

func (s *service) GetScreen(ctx context.Context, tenantID, screenID string, opts GetOptions) (*ScreenResult, error) {
	cfg, ok := s.config.Screens[screenID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScreen, screenID)
	}

	if opts.UseCache {
		cat, err := s.catalog.GetContext(tenantID)
		if err != nil {
			return nil, err
		}

		entry, err := s.cache.Get(ctx, s.cache.Key(cat.Fingerprint(), screenID))
		if err != nil {
			// A cache outage degrades to the seed, it never fails the read
			s.log.WithError(err).WithField("screen", screenID).Warn("Cache read failed")
			entry = nil
		}

		if entry != nil {
			age := entry.Age(time.Now())

			if age <= cfg.TTL {
				observability.CacheHits.WithLabelValues(screenID, SourceFresh).Inc()

				return &ScreenResult{Data: entry.Data, Source: SourceFresh, Ts: entry.Ts}, nil
			}

			if opts.AllowStale {
				observability.CacheHits.WithLabelValues(screenID, SourceStale).Inc()

				return &ScreenResult{Data: entry.Data, Source: SourceStale, Ts: entry.Ts}, nil
			}
		}
	}

	observability.CacheMisses.WithLabelValues(screenID).Inc()

	seed := datacontext.SliceSections(datacontext.Clone(s.base), cfg.Sections())

	return &ScreenResult{Data: seed, Source: SourceSeed}, nil
}

func (s *service) RefreshScreen(ctx context.Context, tenantID, screenID string, filters querybuilder.FilterContext) (datacontext.Context, error) {
	cfg, ok := s.config.Screens[screenID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScreen, screenID)
	}

	start := time.Now()

	cat, err := s.catalog.GetContext(tenantID)
	if err != nil {
		observability.ScreenRefreshes.WithLabelValues(screenID, "error").Inc()

		return nil, fmt.Errorf("failed to load catalog for tenant %s: %w", tenantID, err)
	}

	if filters.Year == 0 {
		filters.Year = time.Now().Year()
	}

	data := datacontext.SliceSections(datacontext.Clone(s.base), cfg.Sections())

	sess := &refreshSession{
		log: s.log.WithFields(logrus.Fields{
			"tenant": tenantID,
			"screen": screenID,
		}),
		executor: s.executor,
		builder:  querybuilder.NewBuilder(s.log, cat),
		cat:      cat,
		tenantID: tenantID,
		filters:  filters,
		memo:     make(map[string]float64),
	}

	for _, uiKey := range sortedKeys(cfg.KPIRoadmap) {
		path, ok := cfg.InjectPaths[uiKey]
		if !ok {
			sess.log.WithField("key", uiKey).Warn("KPI has no inject path, skipping")
			continue
		}

		datacontext.SetPath(data, path, sess.resolveKPI(ctx, cfg.KPIRoadmap[uiKey]))
	}

	for _, chartKey := range sortedKeys(cfg.ChartRoadmap) {
		path, ok := cfg.InjectPaths[chartKey]
		if !ok {
			sess.log.WithField("key", chartKey).Warn("Chart has no inject path, skipping")
			continue
		}

		series := cfg.ChartRoadmap[chartKey]
		names := sortedKeys(series)
		payload := datacontext.ZeroSeries(names)

		for _, name := range names {
			payload[name] = sess.resolveSeries(ctx, series[name])
		}

		datacontext.SetPath(data, path, payload)
	}

	for _, key := range sortedKeys(cfg.CategoricalRoadmap) {
		path, ok := cfg.InjectPaths[key]
		if !ok {
			sess.log.WithField("key", key).Warn("Categorical has no inject path, skipping")
			continue
		}

		datacontext.SetPath(data, path, sess.resolveCategorical(ctx, cfg.CategoricalRoadmap[key]))
	}

	entry := &CacheEntry{Data: data, Ts: time.Now().Unix()}
	if err := s.cache.Set(ctx, s.cache.Key(cat.Fingerprint(), screenID), entry); err != nil {
		// The refreshed context is still good, hand it back uncached
		sess.log.WithError(err).Error("Failed to commit screen to cache")
	}

	observability.ScreenRefreshes.WithLabelValues(screenID, "success").Inc()
	observability.ScreenRefreshDuration.WithLabelValues(screenID).Observe(time.Since(start).Seconds())

	sess.log.WithField("duration", time.Since(start)).Debug("Screen refreshed")

	return data, nil
}

func (s *service) InvalidateScreen(ctx context.Context, screenID string) error {
	if screenID != "" {
		if _, ok := s.config.Screens[screenID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownScreen, screenID)
		}
	}

	return s.cache.Clear(ctx, screenID)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
