package vnpay

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// PaymentRequest describes one payment attempt to be sent to the gateway.
type PaymentRequest struct {
	// AmountMinorUnits is the amount in the currency's minor unit (VND has
	// no subunit, so this is whole dong). Must be positive. The gateway's
	// x100 scaling is applied by the builder, never by the caller.
	AmountMinorUnits int64

	// OrderInfo is the human-readable order description.
	OrderInfo string

	// TxnRef is the merchant transaction reference. Optional; when empty a
	// globally unique reference is generated.
	TxnRef string

	// ClientIP is the customer's network address as seen by this server.
	ClientIP string

	// Locale selects the gateway page language. Optional; defaults to "vn".
	Locale string
}

// PaymentOrder is the immutable record of a built payment attempt. The
// caller persists it; only the notification path may later transition its
// state, and only through the idempotency gate.
type PaymentOrder struct {
	TxnRef    string
	PayURL    string
	CreatedAt string // gateway-format timestamp, as signed
	ExpiresAt string // gateway-format timestamp, as signed

	// Created and Expires are the same instants as proper time values,
	// for persistence.
	Created time.Time
	Expires time.Time
}

// BuildPaymentURL assembles the signed redirect URL for a payment attempt.
//
// There is no network interaction here: the gateway learns about the order
// when the customer's browser follows the returned URL. The signature is
// computed over the canonical encoding and appended afterwards, so it is
// never part of its own input.
func (c *Client) BuildPaymentURL(req PaymentRequest) (*PaymentOrder, error) {
	if req.AmountMinorUnits <= 0 {
		return nil, errors.Errorf("vnpay: amount must be positive, got %d", req.AmountMinorUnits)
	}

	txnRef := req.TxnRef
	if txnRef == "" {
		txnRef = newTxnRef()
	}

	locale := req.Locale
	if locale == "" {
		locale = defaultLocale
	}

	created := c.now().In(c.loc)
	expires := created.Add(expiryWindow)

	params := Params{
		"vnp_Version":    version,
		"vnp_Command":    commandPay,
		"vnp_TmnCode":    c.cfg.TmnCode,
		ParamAmount:      strconv.FormatInt(req.AmountMinorUnits*amountScale, 10),
		"vnp_CurrCode":   currencyCode,
		ParamTxnRef:      txnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  orderTypeTag,
		"vnp_Locale":     locale,
		"vnp_ReturnUrl":  c.cfg.ReturnURL,
		"vnp_CreateDate": created.Format(dateFormat),
		"vnp_ExpireDate": expires.Format(dateFormat),
		"vnp_IpAddr":     req.ClientIP,
		"vnp_BankCode":   bankCodeHint,
	}

	// The canonical encoding doubles as the literal query string. Using
	// anything else here would make the gateway verify different bytes
	// than we signed.
	query := params.Encode()
	digest := Sign(c.cfg.HashSecret, query)

	c.logger.Debug().
		Str("txn_ref", txnRef).
		Int64("amount_minor", req.AmountMinorUnits).
		Msg("built payment URL")

	return &PaymentOrder{
		TxnRef:    txnRef,
		PayURL:    c.cfg.PayURL + "?" + query + "&" + ParamSecureHash + "=" + digest,
		CreatedAt: params["vnp_CreateDate"],
		ExpiresAt: params["vnp_ExpireDate"],
		Created:   created,
		Expires:   expires,
	}, nil
}
