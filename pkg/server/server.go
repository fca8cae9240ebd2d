package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"time"

	//nolint:gosec // only exposed if pprofAddr config is set
	_ "net/http/pprof"

	r "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nexadash/dcx/pkg/api"
	"github.com/nexadash/dcx/pkg/catalog"
	"github.com/nexadash/dcx/pkg/observability"
	"github.com/nexadash/dcx/pkg/redis"
	"github.com/nexadash/dcx/pkg/refresher"
	"github.com/nexadash/dcx/pkg/scheduler"
	"github.com/nexadash/dcx/pkg/tasks"
	"github.com/nexadash/dcx/pkg/warehouse"
)

// Server composes all services behind one lifecycle
type Server struct {
	log    logrus.FieldLogger
	config *Config

	redis *r.Client

	catalog   catalog.Service
	executor  warehouse.Executor
	refresher refresher.Service
	queue     *tasks.Queue
	worker    *tasks.Worker
	scheduler scheduler.Service
	api       api.Service

	pprofServer *http.Server
}

// NewServer builds the full service graph from configuration
func NewServer(_ context.Context, log logrus.FieldLogger, config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	redisOpt, err := config.Redis.Options()
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	redisClient := r.NewClient(redisOpt)
	asynqOpt := redis.NewAsynqRedisOptions(redisOpt)

	catalogService, err := catalog.NewService(log, config.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog service: %w", err)
	}

	executor, err := warehouse.NewExecutor(log, config.Warehouse)
	if err != nil {
		return nil, fmt.Errorf("failed to create warehouse executor: %w", err)
	}

	refresherService, err := refresher.NewService(log, config.Refresher, catalogService, executor, redisClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresher service: %w", err)
	}

	queue := tasks.NewQueue(log, asynqOpt)
	worker := tasks.NewWorker(log, asynqOpt, tasks.NewHandler(log, refresherService), config.Scheduler.Concurrency)

	schedulerService, err := scheduler.NewService(log, config.Scheduler, redisClient, queue, refresherService.Screens(), tenantIDs(config.Warehouse))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler service: %w", err)
	}

	apiService := api.NewService(config.API, refresherService, executor, catalogService, queue, log)

	return &Server{
		log:       log,
		config:    config,
		redis:     redisClient,
		catalog:   catalogService,
		executor:  executor,
		refresher: refresherService,
		queue:     queue,
		worker:    worker,
		scheduler: schedulerService,
		api:       apiService,
	}, nil
}

// Start runs all components until the context is canceled or a signal arrives
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer func() {
			if recovered := recover(); recovered != nil {
				s.log.WithField("panic", recovered).Error("Panic in metrics server goroutine")
			}
		}()

		observability.StartMetricsServer(s.config.MetricsAddr)
		<-ctx.Done()

		return nil
	})

	if s.config.PProfAddr != nil {
		g.Go(func() error {
			if err := s.startPProf(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			<-ctx.Done()

			return nil
		})
	}

	if err := s.worker.Start(); err != nil {
		return fmt.Errorf("failed to start refresh worker: %w", err)
	}

	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	if err := s.api.Start(ctx); err != nil {
		return fmt.Errorf("failed to start api: %w", err)
	}

	g.Go(func() error {
		<-ctx.Done()

		// Use a fresh context for cleanup since the current one is canceled
		return s.stop(context.Background())
	})

	s.log.Info("Server started")

	return g.Wait()
}

func (s *Server) stop(ctx context.Context) error {
	cleanupCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.log.Info("Starting graceful shutdown...")

	if err := s.api.Stop(); err != nil {
		s.log.WithError(err).Error("failed to stop api")
	}

	if err := s.scheduler.Stop(); err != nil {
		s.log.WithError(err).Error("failed to stop scheduler")
	}

	s.worker.Stop()

	if err := s.queue.Close(); err != nil {
		s.log.WithError(err).Error("failed to close task queue")
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.WithError(err).Error("failed to close redis")
		}
	}

	if s.pprofServer != nil {
		if err := s.pprofServer.Shutdown(cleanupCtx); err != nil {
			s.log.WithError(err).Error("failed to shutdown pprof server")
		}
	}

	if err := observability.StopMetricsServer(cleanupCtx); err != nil {
		s.log.WithError(err).Error("failed to stop metrics server")
	}

	s.log.Info("Server stopped gracefully")

	return nil
}

func (s *Server) startPProf() error {
	s.log.WithField("addr", *s.config.PProfAddr).Info("Starting pprof server")

	s.pprofServer = &http.Server{
		Addr:              *s.config.PProfAddr,
		ReadHeaderTimeout: 120 * time.Second,
	}

	return s.pprofServer.ListenAndServe()
}

// tenantIDs lists the configured tenants in stable order for scheduling
func tenantIDs(cfg *warehouse.Config) []string {
	ids := make([]string, 0, len(cfg.Tenants))
	for id := range cfg.Tenants {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
