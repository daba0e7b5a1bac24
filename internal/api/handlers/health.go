// Package handlers implements HTTP handlers for the vehicle-valuator API.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gavincooper/vehicle-valuator/internal/store"
)

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	store store.Store
}

// NewHealthHandler creates a new HealthHandler. The store may be nil when
// persistence is disabled; readiness then only reflects the process.
func NewHealthHandler(s store.Store) *HealthHandler {
	return &HealthHandler{store: s}
}

// Healthz returns 200 if the process is running. The healthz and readyz
// gauges are maintained by the metrics middleware, not here.
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz returns 200 if the database is reachable, 503 otherwise.
func (h *HealthHandler) Readyz(c echo.Context) error {
	if h.store != nil {
		if err := h.store.Ping(c.Request().Context()); err != nil {
			return c.JSON(
				http.StatusServiceUnavailable,
				StatusResponse{Status: "unavailable"},
			)
		}
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ready"})
}
