package handlers

import "github.com/gofiber/fiber/v3"

// ErrScreenNotFound is returned when a screen id is not registered
var ErrScreenNotFound = fiber.NewError(fiber.StatusNotFound, "screen not found")

// ErrTenantUnreachable is returned when a tenant database fails validation
var ErrTenantUnreachable = fiber.NewError(fiber.StatusServiceUnavailable, "tenant database unreachable")
