package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/voltride/voltride/internal/server"
)

// PaymentOrderStatus is a closed set; anything else coming out of the
// database or off the wire is rejected at the boundary.
type PaymentOrderStatus string

const (
	PaymentOrderPending PaymentOrderStatus = "PENDING"
	PaymentOrderPaid    PaymentOrderStatus = "PAID"
	PaymentOrderFailed  PaymentOrderStatus = "FAILED"
)

// Valid reports whether the status is one of the known values.
func (s PaymentOrderStatus) Valid() bool {
	switch s {
	case PaymentOrderPending, PaymentOrderPaid, PaymentOrderFailed:
		return true
	}
	return false
}

// PaymentOrder is a single gateway payment attempt. TxnRef is the
// merchant transaction reference sent to the gateway and echoed back in
// both callbacks.
type PaymentOrder struct {
	TxnRef              string             `json:"txn_ref"`
	AmountMinor         int64              `json:"amount_minor"`
	OrderInfo           string             `json:"order_info"`
	Locale              string             `json:"locale"`
	ClientIP            string             `json:"client_ip"`
	ReceiptEmail        string             `json:"receipt_email,omitempty"`
	Status              PaymentOrderStatus `json:"status"`
	GatewayResponseCode *string            `json:"gateway_response_code,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	ExpiresAt           time.Time          `json:"expires_at"`
	PaidAt              *time.Time         `json:"paid_at,omitempty"`
}

// PaymentOrderRepository persists payment orders.
type PaymentOrderRepository struct {
	server *server.Server
}

func NewPaymentOrderRepository(s *server.Server) *PaymentOrderRepository {
	return &PaymentOrderRepository{server: s}
}

// Create inserts a new PENDING order.
func (r *PaymentOrderRepository) Create(ctx context.Context, order *PaymentOrder) error {
	_, err := r.server.DB.Pool.Exec(ctx, `
		INSERT INTO payment_orders
			(txn_ref, amount_minor, order_info, locale, client_ip, receipt_email, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		order.TxnRef,
		order.AmountMinor,
		order.OrderInfo,
		order.Locale,
		order.ClientIP,
		order.ReceiptEmail,
		PaymentOrderPending,
		order.CreatedAt,
		order.ExpiresAt,
	)
	return err
}

// FindByRef returns the order for a transaction reference, or nil when
// no such order exists. An unknown reference on the notification path
// is an expected outcome, not an error.
func (r *PaymentOrderRepository) FindByRef(ctx context.Context, txnRef string) (*PaymentOrder, error) {
	var order PaymentOrder
	err := r.server.DB.Pool.QueryRow(ctx, `
		SELECT txn_ref, amount_minor, order_info, locale, client_ip, receipt_email,
		       status, gateway_response_code, created_at, expires_at, paid_at
		FROM payment_orders
		WHERE txn_ref = $1`,
		txnRef,
	).Scan(
		&order.TxnRef,
		&order.AmountMinor,
		&order.OrderInfo,
		&order.Locale,
		&order.ClientIP,
		&order.ReceiptEmail,
		&order.Status,
		&order.GatewayResponseCode,
		&order.CreatedAt,
		&order.ExpiresAt,
		&order.PaidAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !order.Status.Valid() {
		return nil, errors.New("payment order has unknown status: " + string(order.Status))
	}

	return &order, nil
}

// Finalize moves an order from PENDING to a terminal status. The WHERE
// clause makes the transition conditional, so the database backstops
// the idempotency gate: a second finalize attempt affects zero rows and
// returns false.
func (r *PaymentOrderRepository) Finalize(ctx context.Context, txnRef string, status PaymentOrderStatus, responseCode string) (bool, error) {
	if status != PaymentOrderPaid && status != PaymentOrderFailed {
		return false, errors.New("finalize requires a terminal status")
	}

	tag, err := r.server.DB.Pool.Exec(ctx, `
		UPDATE payment_orders
		SET status = $2,
		    gateway_response_code = $3,
		    paid_at = CASE WHEN $2 = 'PAID' THEN now() ELSE NULL END
		WHERE txn_ref = $1 AND status = 'PENDING'`,
		txnRef,
		status,
		responseCode,
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}
