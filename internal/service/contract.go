package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/voltride/voltride/internal/errs"
	"github.com/voltride/voltride/internal/lib/job"
	"github.com/voltride/voltride/internal/lib/otp"
	"github.com/voltride/voltride/internal/lib/utils"
	"github.com/voltride/voltride/internal/repository"
	"github.com/voltride/voltride/internal/server"
)

// contractStore is the slice of the repository this service needs.
type contractStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*repository.Contract, error)
	SetSignerEmail(ctx context.Context, id uuid.UUID, email string) error
	MarkSigned(ctx context.Context, id uuid.UUID) (bool, error)
}

// ContractService runs the contract-signing verification flow: issue a
// code to the signer's email, then confirm the signature when the code
// comes back.
type ContractService struct {
	server    *server.Server
	contracts contractStore
	codes     *otp.Manager
	jobs      taskEnqueuer
}

// NewContractService backs the challenge store with Redis so codes
// survive restarts and are shared across instances. Manager defaults:
// 6 digits, 5 minute TTL, 3 attempts.
func NewContractService(s *server.Server, repos *repository.Repositories) *ContractService {
	manager := otp.NewManager(otp.NewRedisStore(s.Redis), s.Logger, otp.Options{})

	return &ContractService{
		server:    s,
		contracts: repos.Contracts,
		codes:     manager,
		jobs:      s.Job.Client,
	}
}

// RequestSignature issues a signing code for the contract and enqueues
// its delivery to the given email. The code exists only in the store,
// the queue payload, and the email; it is never returned to the caller.
func (cs *ContractService) RequestSignature(ctx context.Context, contractID uuid.UUID, email string) error {
	contract, err := cs.contracts.FindByID(ctx, contractID)
	if err != nil {
		return err
	}
	if contract.Status == repository.ContractSigned {
		return errs.NewConflictError("Contract is already signed", true)
	}

	code, err := cs.codes.Issue(ctx, contractID.String())
	if err != nil {
		return err
	}

	if err := cs.contracts.SetSignerEmail(ctx, contractID, email); err != nil {
		return err
	}

	task, err := job.NewContractOtpTask(email, contract.BookingRef, code)
	if err != nil {
		return err
	}
	if _, err := cs.jobs.Enqueue(task); err != nil {
		return err
	}

	cs.server.Logger.Info().
		Str("contract_id", contractID.String()).
		Str("email", utils.MaskEmail(email)).
		Msg("signing code issued")

	return nil
}

// ConfirmSignature verifies the code and, on success, flips the
// contract to SIGNED. The boolean collapses all failure outcomes; the
// distinct outcome is logged for abuse detection, never sent to the
// client.
func (cs *ContractService) ConfirmSignature(ctx context.Context, contractID uuid.UUID, code string) (bool, error) {
	contract, err := cs.contracts.FindByID(ctx, contractID)
	if err != nil {
		return false, err
	}
	if contract.Status == repository.ContractSigned {
		return false, errs.NewConflictError("Contract is already signed", true)
	}

	outcome := cs.codes.Verify(ctx, contractID.String(), code)

	cs.server.Logger.Info().
		Str("contract_id", contractID.String()).
		Str("outcome", outcome.String()).
		Msg("signing code verification")

	if outcome == otp.OutcomeLocked {
		cs.recordLockout(contractID)
	}

	if !outcome.OK() {
		return false, nil
	}

	signed, err := cs.contracts.MarkSigned(ctx, contractID)
	if err != nil {
		return false, err
	}
	if !signed {
		// Lost a race with a concurrent confirmation.
		return false, nil
	}

	cs.server.Logger.Info().
		Str("contract_id", contractID.String()).
		Msg("contract signed")

	return true, nil
}

func (cs *ContractService) recordLockout(contractID uuid.UUID) {
	if cs.server.LoggerService != nil && cs.server.LoggerService.GetApplication() != nil {
		cs.server.LoggerService.GetApplication().RecordCustomEvent("OtpLockout", map[string]interface{}{
			"contract_id": contractID.String(),
		})
	}
}
