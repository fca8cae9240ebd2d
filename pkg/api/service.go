package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/sirupsen/logrus"

	"github.com/nexadash/dcx/pkg/api/handlers"
	"github.com/nexadash/dcx/pkg/catalog"
	"github.com/nexadash/dcx/pkg/refresher"
	"github.com/nexadash/dcx/pkg/tasks"
	"github.com/nexadash/dcx/pkg/warehouse"
)

// Service defines the API service interface
type Service interface {
	Start(ctx context.Context) error
	Stop() error
}

type service struct {
	app    *fiber.App
	server *http.Server
	config *Config

	refresher refresher.Service
	executor  warehouse.Executor
	catalog   catalog.Service
	queue     *tasks.Queue

	log logrus.FieldLogger
}

// NewService creates the REST API service
func NewService(cfg *Config, ref refresher.Service, exec warehouse.Executor, cat catalog.Service, queue *tasks.Queue, log logrus.FieldLogger) Service {
	return &service{
		config:    cfg,
		refresher: ref,
		executor:  exec,
		catalog:   cat,
		queue:     queue,
		log:       log.WithField("service", "api"),
	}
}

// Start initializes and starts the API server
func (s *service) Start(_ context.Context) error {
	if !s.config.Enabled {
		s.log.Info("API service is disabled")
		return nil
	}

	s.app = fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		AppName:      "DCX API",
	})

	setupMiddleware(s.app)

	server := handlers.NewServer(s.refresher, s.executor, s.catalog, s.queue, s.log)

	apiV1 := s.app.Group("/api/v1")
	server.Register(apiV1)

	s.app.Get("/healthz", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})

	s.server = &http.Server{
		Addr:              s.config.Addr,
		Handler:           adaptor.FiberApp(s.app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.log.WithField("addr", s.config.Addr).Info("Starting API server")

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Server failed to start")
		}
	}()

	return nil
}

// Stop gracefully shuts down the API server
func (s *service) Stop() error {
	if s.server == nil {
		return nil
	}

	s.log.Info("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
