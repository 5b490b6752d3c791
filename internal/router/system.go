package router

import (
	"github.com/labstack/echo/v4"

	"github.com/voltride/voltride/internal/handler"
)

// registerSystemRoutes registers endpoints that are not part of
// business logic: health, docs UI, and the static assets the docs UI
// loads.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)

	r.Static("/static", "static")

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
