// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/voltride/voltride/internal/handler"
	"github.com/voltride/voltride/internal/middleware"
)

// Setup builds the Echo instance with the full middleware chain and all
// route groups registered.
//
// Middleware order matters: the request ID must exist before the
// context enhancer builds the request logger, and the New Relic
// transaction must exist before the tracing enhancer decorates it.
func Setup(m *middleware.Middlewares, h *handler.Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = m.Global.GlobalErrorHandler

	e.Use(
		m.Global.Recover(),
		m.Global.Secure(),
		m.Global.CORS(),
		middleware.RequestID(),
		m.Tracing.NewRelicMiddleware(),
		m.Tracing.EnhanceTracing(),
		m.ContextEnhancer.EnhanceContext(),
		m.Global.RequestLogger(),
	)

	registerSystemRoutes(e, h)
	registerPaymentRoutes(e, h, m)
	registerContractRoutes(e, h, m)

	return e
}
