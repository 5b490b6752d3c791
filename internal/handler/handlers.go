package handler

import (
	"github.com/voltride/voltride/internal/server"
	"github.com/voltride/voltride/internal/service"
)

// Handlers is a container that groups all HTTP handlers so router setup
// passes one object around instead of many.
type Handlers struct {
	Health   *HealthHandler
	OpenAPI  *OpenAPIHandler
	Payment  *PaymentHandler
	Contract *ContractHandler
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(s),
		OpenAPI:  NewOpenAPIHandler(s),
		Payment:  NewPaymentHandler(s, services.Payment),
		Contract: NewContractHandler(s, services.Contract),
	}
}
