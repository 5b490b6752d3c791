package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/voltride/voltride/internal/handler"
	"github.com/voltride/voltride/internal/middleware"
)

// registerPaymentRoutes registers the payment endpoints.
//
// The two gateway callbacks are public: the gateway has no bearer
// token, it authenticates with the HMAC signature carried in its own
// parameters.
func registerPaymentRoutes(r *echo.Echo, h *handler.Handlers, m *middleware.Middlewares) {
	payments := r.Group("/api/payments")

	payments.POST("",
		handler.Handle(h.Payment.Handler, h.Payment.Create, http.StatusCreated),
		m.Auth.RequireAuth,
	)

	payments.GET("/vnpay/return", h.Payment.Return)
	payments.POST("/vnpay/ipn", h.Payment.Notify)
}
