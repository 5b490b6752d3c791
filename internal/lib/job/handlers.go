package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/voltride/voltride/internal/config"
	"github.com/voltride/voltride/internal/lib/email"
	"github.com/voltride/voltride/internal/lib/utils"
)

// emailClient is shared by all task handlers. InitHandlers must run
// before the worker server starts.
var emailClient *email.Client

// InitHandlers initializes dependencies required by job handlers.
func (j *JobService) InitHandlers(config *config.Config, logger *zerolog.Logger) {
	emailClient = email.NewClient(config, logger)
}

// handleContractOtpTask delivers a contract-signing code. The code
// itself never appears in logs, only the masked recipient.
func (j *JobService) handleContractOtpTask(ctx context.Context, t *asynq.Task) error {
	var p ContractOtpPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal contract otp payload: %w", err)
	}

	j.logger.Info().
		Str("type", "contract_otp").
		Str("to", utils.MaskEmail(p.To)).
		Str("booking_ref", p.BookingRef).
		Msg("Processing contract otp email task")

	if err := emailClient.SendContractOtpEmail(p.To, p.BookingRef, p.Code); err != nil {
		j.logger.Error().
			Str("type", "contract_otp").
			Str("to", utils.MaskEmail(p.To)).
			Err(err).
			Msg("Failed to send contract otp email")
		return err
	}

	j.logger.Info().
		Str("type", "contract_otp").
		Str("to", utils.MaskEmail(p.To)).
		Msg("Successfully sent contract otp email")

	return nil
}

// handlePaymentReceiptTask delivers a payment receipt.
func (j *JobService) handlePaymentReceiptTask(ctx context.Context, t *asynq.Task) error {
	var p PaymentReceiptPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal payment receipt payload: %w", err)
	}

	j.logger.Info().
		Str("type", "payment_receipt").
		Str("to", utils.MaskEmail(p.To)).
		Str("txn_ref", p.TxnRef).
		Msg("Processing payment receipt email task")

	if err := emailClient.SendPaymentReceiptEmail(p.To, p.TxnRef, p.Amount); err != nil {
		j.logger.Error().
			Str("type", "payment_receipt").
			Str("to", utils.MaskEmail(p.To)).
			Str("txn_ref", p.TxnRef).
			Err(err).
			Msg("Failed to send payment receipt email")
		return err
	}

	j.logger.Info().
		Str("type", "payment_receipt").
		Str("to", utils.MaskEmail(p.To)).
		Str("txn_ref", p.TxnRef).
		Msg("Successfully sent payment receipt email")

	return nil
}
