// Package handlers implements the request handlers for the screen data API.
package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/nexadash/dcx/pkg/catalog"
	"github.com/nexadash/dcx/pkg/refresher"
	"github.com/nexadash/dcx/pkg/tasks"
	"github.com/nexadash/dcx/pkg/warehouse"
)

// Server holds the services the API exposes
type Server struct {
	refresher refresher.Service
	executor  warehouse.Executor
	catalog   catalog.Service
	queue     *tasks.Queue
	log       logrus.FieldLogger
}

// NewServer creates a new API server instance
func NewServer(ref refresher.Service, exec warehouse.Executor, cat catalog.Service, queue *tasks.Queue, log logrus.FieldLogger) *Server {
	return &Server{
		refresher: ref,
		executor:  exec,
		catalog:   cat,
		queue:     queue,
		log:       log.WithField("component", "api.handlers"),
	}
}

// Register wires all routes into the v1 router
func (s *Server) Register(router fiber.Router) {
	router.Get("/screens", s.ListScreens)
	router.Get("/screens/:screen", s.GetScreen)
	router.Post("/screens/:screen/refresh", s.RefreshScreen)
	router.Delete("/screens/:screen/cache", s.InvalidateScreen)

	router.Get("/tenants/:tenant/status", s.GetTenantStatus)
	router.Post("/tenants/:tenant/reset", s.ResetTenant)
	router.Post("/tenants/:tenant/validate", s.ValidateTenant)

	router.Post("/catalog/invalidate", s.InvalidateCatalog)
}
