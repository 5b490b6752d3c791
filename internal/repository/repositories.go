package repository

import (
	"github.com/voltride/voltride/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	PaymentOrders *PaymentOrderRepository
	Contracts     *ContractRepository
}

// NewRepositories constructs the repository container on top of the
// shared connection pool.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		PaymentOrders: NewPaymentOrderRepository(s),
		Contracts:     NewContractRepository(s),
	}
}
