package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// GetTenantStatus reports breaker health for one tenant database
func (s *Server) GetTenantStatus(c fiber.Ctx) error {
	tenantID := c.Params("tenant")

	doc := s.executor.Status(tenantID)

	return c.JSON(fiber.Map{
		"tenant": tenantID,
		"health": doc,
	})
}

// ResetTenant clears the failure state for a tenant so the next query goes
// straight to the database
func (s *Server) ResetTenant(c fiber.Ctx) error {
	tenantID := c.Params("tenant")

	s.executor.Reset(tenantID)

	return c.JSON(fiber.Map{"tenant": tenantID, "status": "reset"})
}

// ValidateTenant opens a fresh connection to the tenant database and probes
// it. Validation never touches breaker state.
func (s *Server) ValidateTenant(c fiber.Ctx) error {
	tenantID := c.Params("tenant")

	if err := s.executor.Validate(c.Context(), tenantID); err != nil {
		s.log.WithError(err).WithField("tenant", tenantID).Warn("Tenant validation failed")
		return ErrTenantUnreachable
	}

	return c.JSON(fiber.Map{"tenant": tenantID, "status": "ok"})
}

// InvalidateCatalog drops memoized catalogs so the next read reloads metadata
// from disk. A tenant query param scopes the invalidation.
func (s *Server) InvalidateCatalog(c fiber.Ctx) error {
	tenantID := c.Query("tenant")

	s.catalog.Invalidate(tenantID)

	return c.JSON(fiber.Map{"tenant": tenantID, "status": "invalidated"})
}
