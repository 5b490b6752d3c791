package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskContractOtp delivers a contract-signing verification code.
	TaskContractOtp = "email:contract_otp"

	// TaskPaymentReceipt delivers a receipt for a confirmed payment.
	TaskPaymentReceipt = "email:payment_receipt"
)

// ContractOtpPayload is the JSON payload for the signing-code task.
// It carries the code through Redis, so the queue shares the same
// trust domain as the OTP store itself.
type ContractOtpPayload struct {
	To         string `json:"to"`
	BookingRef string `json:"booking_ref"`
	Code       string `json:"code"`
}

// PaymentReceiptPayload is the JSON payload for the receipt task.
type PaymentReceiptPayload struct {
	To     string `json:"to"`
	TxnRef string `json:"txn_ref"`
	Amount string `json:"amount"`
}

// NewContractOtpTask builds the signing-code delivery task. It goes on
// the critical queue: the code expires in minutes, so delayed delivery
// makes it useless.
func NewContractOtpTask(to, bookingRef, code string) (*asynq.Task, error) {
	payload, err := json.Marshal(ContractOtpPayload{
		To:         to,
		BookingRef: bookingRef,
		Code:       code,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskContractOtp,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("critical"),
		asynq.Timeout(30*time.Second),
	), nil
}

// NewPaymentReceiptTask builds the receipt delivery task.
func NewPaymentReceiptTask(to, txnRef, amount string) (*asynq.Task, error) {
	payload, err := json.Marshal(PaymentReceiptPayload{
		To:     to,
		TxnRef: txnRef,
		Amount: amount,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskPaymentReceipt,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}
