package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/voltride/voltride/internal/middleware"
	"github.com/voltride/voltride/internal/server"
	"github.com/voltride/voltride/internal/service"
)

// PaymentHandler exposes the payment endpoints: creating a gateway
// payment and receiving the gateway's two callbacks.
type PaymentHandler struct {
	Handler
	payments *service.PaymentService
}

func NewPaymentHandler(s *server.Server, payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		Handler:  NewHandler(s),
		payments: payments,
	}
}

// CreatePaymentRequest is the payload for starting a payment.
type CreatePaymentRequest struct {
	AmountMinorUnits int64  `json:"amount_minor_units" validate:"required,gt=0"`
	Description      string `json:"description" validate:"required,max=255"`
	ExternalRef      string `json:"external_ref" validate:"omitempty,max=64"`
	Locale           string `json:"locale" validate:"omitempty,oneof=vn en"`
	ReceiptEmail     string `json:"receipt_email" validate:"omitempty,email"`
}

func (r *CreatePaymentRequest) Validate() error {
	return validate.Struct(r)
}

// Create builds the signed redirect URL and records the pending order.
func (h *PaymentHandler) Create(c echo.Context, req *CreatePaymentRequest) (*service.PaymentCreated, error) {
	return h.payments.CreatePayment(c.Request().Context(), service.CreatePaymentInput{
		AmountMinorUnits: req.AmountMinorUnits,
		Description:      req.Description,
		ExternalRef:      req.ExternalRef,
		Locale:           req.Locale,
		ClientIP:         c.RealIP(),
		ReceiptEmail:     req.ReceiptEmail,
	})
}

// Return handles the browser redirect back from the gateway. It renders
// a verdict for display and never mutates state; the customer may never
// arrive here at all.
func (h *PaymentHandler) Return(c echo.Context) error {
	result := h.payments.ValidateReturn(c.QueryParams())

	return c.JSON(http.StatusOK, map[string]interface{}{
		"signature_valid": result.SignatureValid,
		"response_code":   result.ResponseCode,
		"txn_ref":         result.TxnRef,
		"success":         result.Success(),
	})
}

// Notify handles the gateway's server-to-server notification (IPN).
// Every classified outcome is acknowledged with HTTP 200 and an RspCode
// body; an error return means transient infrastructure failure, which
// the error funnel turns into a 5xx so the gateway retries.
func (h *PaymentHandler) Notify(c echo.Context) error {
	values, err := c.FormParams()
	if err != nil {
		logger := middleware.GetLogger(c)
		logger.Warn().Err(err).Msg("malformed notification body")
		return c.JSON(http.StatusOK, service.NotificationAck{RspCode: "99", Message: "Unknown error"})
	}

	ack, err := h.payments.HandleNotification(c.Request().Context(), values)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ack)
}
