package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/voltride/voltride/internal/handler"
	"github.com/voltride/voltride/internal/middleware"
)

// registerContractRoutes registers the contract-signing endpoints. Both
// require an authenticated rider; the emailed code is the second
// factor, not the first.
func registerContractRoutes(r *echo.Echo, h *handler.Handlers, m *middleware.Middlewares) {
	contracts := r.Group("/api/contracts", m.Auth.RequireAuth)

	contracts.POST("/:id/otp",
		handler.Handle(h.Contract.Handler, h.Contract.IssueOtp, http.StatusAccepted),
		m.RateLimit.LimitByIP("contract_otp_issue", 1, 3),
	)

	contracts.POST("/:id/otp/verify",
		handler.Handle(h.Contract.Handler, h.Contract.VerifyOtp, http.StatusOK),
		m.RateLimit.LimitByIP("contract_otp_verify", 2, 5),
	)
}
