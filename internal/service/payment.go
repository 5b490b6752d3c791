package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/hibiken/asynq"

	"github.com/voltride/voltride/internal/lib/idempotency"
	"github.com/voltride/voltride/internal/lib/job"
	"github.com/voltride/voltride/internal/lib/vnpay"
	"github.com/voltride/voltride/internal/repository"
	"github.com/voltride/voltride/internal/server"
)

// Gateway acknowledgment codes for the server-to-server notification.
// The gateway retries until it receives RspCode 00 or 02, so these are
// part of the wire contract, not presentation.
const (
	rspConfirmed     = "00"
	rspUnknownRef    = "01"
	rspDuplicate     = "02"
	rspInvalidAmount = "04"
	rspBadChecksum   = "97"
)

// paymentOrderStore is the slice of the repository this service needs.
type paymentOrderStore interface {
	Create(ctx context.Context, order *repository.PaymentOrder) error
	FindByRef(ctx context.Context, txnRef string) (*repository.PaymentOrder, error)
	Finalize(ctx context.Context, txnRef string, status repository.PaymentOrderStatus, responseCode string) (bool, error)
}

// taskEnqueuer is satisfied by asynq.Client.
type taskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// PaymentService owns the gateway integration: building redirect URLs,
// validating callbacks, and confirming orders exactly once.
type PaymentService struct {
	server  *server.Server
	orders  paymentOrderStore
	gateway *vnpay.Client
	gate    *idempotency.Gate
	jobs    taskEnqueuer
}

// NewPaymentService wires the gateway client from config and backs the
// idempotency gate with the database, so confirmations stay
// exactly-once across restarts and multiple instances.
func NewPaymentService(s *server.Server, repos *repository.Repositories) (*PaymentService, error) {
	gateway, err := vnpay.NewClient(vnpay.Config{
		TmnCode:    s.Config.Payment.TmnCode,
		HashSecret: s.Config.Payment.HashSecret,
		PayURL:     s.Config.Payment.PayURL,
		ReturnURL:  s.Config.Payment.ReturnURL,
	}, s.Logger)
	if err != nil {
		return nil, err
	}

	gate := idempotency.NewGate(idempotency.NewPostgresStore(s.DB.Pool), s.Logger)

	return &PaymentService{
		server:  s,
		orders:  repos.PaymentOrders,
		gateway: gateway,
		gate:    gate,
		jobs:    s.Job.Client,
	}, nil
}

// CreatePaymentInput is the validated payload for a new payment.
type CreatePaymentInput struct {
	AmountMinorUnits int64
	Description      string
	ExternalRef      string
	Locale           string
	ClientIP         string
	ReceiptEmail     string
}

// PaymentCreated is returned to the client, which redirects the
// customer to PayURL.
type PaymentCreated struct {
	PayURL    string    `json:"pay_url"`
	TxnRef    string    `json:"txn_ref"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreatePayment builds the signed redirect URL and persists the order
// as PENDING. The gateway learns about the order only when the
// customer's browser follows the URL.
func (ps *PaymentService) CreatePayment(ctx context.Context, input CreatePaymentInput) (*PaymentCreated, error) {
	built, err := ps.gateway.BuildPaymentURL(vnpay.PaymentRequest{
		AmountMinorUnits: input.AmountMinorUnits,
		OrderInfo:        input.Description,
		TxnRef:           input.ExternalRef,
		ClientIP:         input.ClientIP,
		Locale:           input.Locale,
	})
	if err != nil {
		return nil, err
	}

	order := &repository.PaymentOrder{
		TxnRef:       built.TxnRef,
		AmountMinor:  input.AmountMinorUnits,
		OrderInfo:    input.Description,
		Locale:       input.Locale,
		ClientIP:     input.ClientIP,
		ReceiptEmail: input.ReceiptEmail,
		Status:       repository.PaymentOrderPending,
		CreatedAt:    built.Created,
		ExpiresAt:    built.Expires,
	}
	if err := ps.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	return &PaymentCreated{
		PayURL:    built.PayURL,
		TxnRef:    built.TxnRef,
		ExpiresAt: built.Expires,
	}, nil
}

// ValidateReturn verifies the browser return redirect. Display only:
// the customer can close the tab before ever being redirected back, so
// no state changes here. The notification path is the source of truth.
func (ps *PaymentService) ValidateReturn(values url.Values) vnpay.CallbackResult {
	result := ps.gateway.ValidateCallback(values)
	if !result.SignatureValid {
		ps.recordSignatureFailure("return")
	}
	return result
}

// NotificationAck is the acknowledgment body the gateway expects.
type NotificationAck struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// HandleNotification processes the server-to-server payment
// notification (IPN).
//
// Expected negative outcomes (bad checksum, unknown reference, amount
// mismatch, duplicate) are acknowledged with their RspCode over HTTP
// 200 so the gateway stops retrying. Only transient infrastructure
// failures return an error, which surfaces as a 5xx and triggers a
// gateway retry.
func (ps *PaymentService) HandleNotification(ctx context.Context, values url.Values) (*NotificationAck, error) {
	logger := ps.server.Logger

	result := ps.gateway.ValidateCallback(values)
	if !result.SignatureValid {
		ps.recordSignatureFailure("ipn")
		return &NotificationAck{RspCode: rspBadChecksum, Message: "Invalid Checksum"}, nil
	}

	order, err := ps.orders.FindByRef(ctx, result.TxnRef)
	if err != nil {
		return nil, err
	}
	if order == nil {
		// Authentically signed but unknown to us. Acknowledged so the
		// gateway stops retrying, logged because it should never happen.
		logger.Warn().
			Str("txn_ref", result.TxnRef).
			Str("response_code", result.ResponseCode).
			Msg("signed notification for unknown order")
		return &NotificationAck{RspCode: rspUnknownRef, Message: "Order not found"}, nil
	}

	if result.AmountMinor != order.AmountMinor {
		logger.Warn().
			Str("txn_ref", result.TxnRef).
			Int64("notified_amount", result.AmountMinor).
			Int64("order_amount", order.AmountMinor).
			Msg("notification amount does not match order")
		return &NotificationAck{RspCode: rspInvalidAmount, Message: "Invalid Amount"}, nil
	}

	outcome, err := ps.gate.ApplyOnce(ctx, result.TxnRef, func(ctx context.Context) error {
		return ps.finalizeOrder(ctx, order, result)
	})
	if err != nil {
		return nil, err
	}

	if outcome == idempotency.AlreadyApplied {
		return &NotificationAck{RspCode: rspDuplicate, Message: "Order already confirmed"}, nil
	}

	return &NotificationAck{RspCode: rspConfirmed, Message: "Confirm Success"}, nil
}

// finalizeOrder runs inside the idempotency gate: records the terminal
// status and, on success, enqueues the receipt email.
func (ps *PaymentService) finalizeOrder(ctx context.Context, order *repository.PaymentOrder, result vnpay.CallbackResult) error {
	status := repository.PaymentOrderFailed
	if result.Success() {
		status = repository.PaymentOrderPaid
	}

	transitioned, err := ps.orders.Finalize(ctx, order.TxnRef, status, result.ResponseCode)
	if err != nil {
		return err
	}
	if !transitioned {
		// The gate reserved the reference but the row already left
		// PENDING, e.g. a prior deployment confirmed it before the
		// idempotency table existed. Nothing left to do.
		ps.server.Logger.Warn().
			Str("txn_ref", order.TxnRef).
			Msg("order already finalized outside the gate")
		return nil
	}

	ps.server.Logger.Info().
		Str("txn_ref", order.TxnRef).
		Str("status", string(status)).
		Str("response_code", result.ResponseCode).
		Msg("payment order finalized")

	if status == repository.PaymentOrderPaid && order.ReceiptEmail != "" {
		amount := fmt.Sprintf("%d VND", order.AmountMinor)
		task, err := job.NewPaymentReceiptTask(order.ReceiptEmail, order.TxnRef, amount)
		if err != nil {
			ps.server.Logger.Error().Err(err).
				Str("txn_ref", order.TxnRef).
				Msg("failed to build receipt email task")
			return nil
		}
		if _, err := ps.jobs.Enqueue(task); err != nil {
			// The payment is confirmed either way; the receipt is best
			// effort and must not make the gateway retry.
			ps.server.Logger.Error().Err(err).
				Str("txn_ref", order.TxnRef).
				Msg("failed to enqueue receipt email task")
		}
	}

	return nil
}

func (ps *PaymentService) recordSignatureFailure(source string) {
	if ps.server.LoggerService != nil && ps.server.LoggerService.GetApplication() != nil {
		ps.server.LoggerService.GetApplication().RecordCustomEvent("PaymentSignatureInvalid", map[string]interface{}{
			"source": source,
		})
	}
}
