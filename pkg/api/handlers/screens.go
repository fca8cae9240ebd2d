package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/nexadash/dcx/pkg/querybuilder"
	"github.com/nexadash/dcx/pkg/refresher"
	"github.com/nexadash/dcx/pkg/tasks"
)

// ScreenSummary describes one registered screen
type ScreenSummary struct {
	ID       string   `json:"id"`
	Sections []string `json:"sections"`
	TTL      string   `json:"ttl"`
	Refresh  string   `json:"refresh"`
}

// RefreshRequest is the optional body for a refresh trigger
type RefreshRequest struct {
	Year   int                    `json:"year,omitempty"`
	Month  string                 `json:"month,omitempty"`
	Period string                 `json:"period,omitempty"`
	Extra  map[string]interface{} `json:"extra_filters,omitempty"`
	Sync   bool                   `json:"sync,omitempty"`
}

// ListScreens returns the screen registry
func (s *Server) ListScreens(c fiber.Ctx) error {
	screens := s.refresher.Screens()

	out := make([]ScreenSummary, 0, len(screens))
	for id, screen := range screens {
		out = append(out, ScreenSummary{
			ID:       id,
			Sections: screen.Sections(),
			TTL:      screen.TTL.String(),
			Refresh:  screen.Refresh,
		})
	}

	return c.JSON(fiber.Map{"screens": out})
}

// GetScreen returns the current data context for a screen. Reads are served
// from cache or the zero-valued seed; they never hit the warehouse.
func (s *Server) GetScreen(c fiber.Ctx) error {
	screenID := c.Params("screen")
	tenantID := c.Query("tenant")

	opts := refresher.GetOptions{
		UseCache:   queryBool(c, "use_cache", true),
		AllowStale: queryBool(c, "allow_stale", true),
	}

	result, err := s.refresher.GetScreen(c.Context(), tenantID, screenID, opts)
	if err != nil {
		if errors.Is(err, refresher.ErrUnknownScreen) {
			return ErrScreenNotFound
		}

		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"screen": screenID,
		"tenant": tenantID,
		"source": result.Source,
		"ts":     result.Ts,
		"data":   result.Data,
	})
}

// RefreshScreen triggers a refresh. By default the refresh is enqueued to the
// background worker; sync=true resolves it inline and returns the fresh data.
func (s *Server) RefreshScreen(c fiber.Ctx) error {
	screenID := c.Params("screen")
	tenantID := c.Query("tenant")

	if _, ok := s.refresher.Screens()[screenID]; !ok {
		return ErrScreenNotFound
	}

	var req RefreshRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid refresh request body")
		}
	}

	if req.Sync {
		data, err := s.refresher.RefreshScreen(c.Context(), tenantID, screenID, querybuilder.FilterContext{
			Year:   req.Year,
			Month:  req.Month,
			Period: req.Period,
			Extra:  req.Extra,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		return c.JSON(fiber.Map{
			"screen": screenID,
			"tenant": tenantID,
			"data":   data,
		})
	}

	err := s.queue.Enqueue(c.Context(), tasks.RefreshPayload{
		Screen: screenID,
		Tenant: tenantID,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"screen": screenID,
		"tenant": tenantID,
		"status": "enqueued",
	})
}

// InvalidateScreen drops cached entries for a screen across all tenants
func (s *Server) InvalidateScreen(c fiber.Ctx) error {
	screenID := c.Params("screen")

	if err := s.refresher.InvalidateScreen(c.Context(), screenID); err != nil {
		if errors.Is(err, refresher.ErrUnknownScreen) {
			return ErrScreenNotFound
		}

		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{"screen": screenID, "status": "invalidated"})
}

// queryBool parses a boolean query parameter with a default
func queryBool(c fiber.Ctx, key string, def bool) bool {
	raw := c.Query(key)
	if raw == "" {
		return def
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}

	return v
}
