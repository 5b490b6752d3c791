package service

import (
	"github.com/voltride/voltride/internal/lib/job"
	"github.com/voltride/voltride/internal/repository"
	"github.com/voltride/voltride/internal/server"
)

type Services struct {
	Auth     *AuthService
	Payment  *PaymentService
	Contract *ContractService
	Job      *job.JobService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	authService := NewAuthService(s)

	paymentService, err := NewPaymentService(s, repos)
	if err != nil {
		return nil, err
	}

	contractService := NewContractService(s, repos)

	return &Services{
		Auth:     authService,
		Payment:  paymentService,
		Contract: contractService,
		Job:      s.Job,
	}, nil
}
