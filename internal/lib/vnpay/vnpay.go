// Package vnpay integrates with the VNPay redirect payment gateway.
//
// The gateway contract is string-based: a set of vnp_* parameters is
// serialized into a canonical query string, signed with HMAC-SHA512 using
// the merchant's shared secret, and the signature is appended as one more
// query parameter. Inbound callbacks (the browser return redirect and the
// server-to-server IPN) carry the same parameter shape and are verified by
// re-running the exact same encoding and signing steps.
//
// The canonical encoding is a wire-compatibility constraint, not a style
// choice: the bytes that get signed must be byte-identical to the query
// string the gateway sees, on both the outbound and inbound paths.
package vnpay

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Gateway protocol constants. These values are fixed by VNPay's API
// contract and must not be made configurable.
const (
	version       = "2.1.0"
	commandPay    = "pay"
	currencyCode  = "VND"
	orderTypeTag  = "other"
	defaultLocale = "vn"

	// amountScale is the gateway's minor-unit multiplier: vnp_Amount
	// carries the amount multiplied by 100.
	amountScale = 100

	// expiryWindow is how long a payment URL stays valid.
	expiryWindow = 15 * time.Minute

	// dateFormat is yyyyMMddHHmmss in the gateway's timezone.
	dateFormat   = "20060102150405"
	gatewayTZ    = "Asia/Ho_Chi_Minh"
	bankCodeHint = "VNPAYQR"
)

// Callback parameter names.
const (
	ParamSecureHash     = "vnp_SecureHash"
	paramSecureHashType = "vnp_SecureHashType"
	ParamResponseCode   = "vnp_ResponseCode"
	ParamTxnRef         = "vnp_TxnRef"
	ParamAmount         = "vnp_Amount"
)

// ResponseCodeSuccess is the gateway response code for a successful payment.
// Any other code on an authentically signed callback means the payment
// failed or was cancelled.
const ResponseCodeSuccess = "00"

// ErrMissingConfig marks a fatal configuration error: the client cannot be
// constructed, and no payment URL can ever be built. Raised at startup,
// before any request is served.
var ErrMissingConfig = errors.New("vnpay: missing required configuration")

// Config holds the merchant credentials and endpoints assigned by VNPay.
type Config struct {
	// TmnCode is the merchant terminal code.
	TmnCode string

	// HashSecret is the shared HMAC secret. Never logged.
	HashSecret string

	// PayURL is the gateway's hosted payment page base URL.
	PayURL string

	// ReturnURL is where the gateway redirects the customer's browser
	// after the payment attempt.
	ReturnURL string
}

// Client builds signed payment URLs and verifies signed callbacks.
//
// A Client is immutable after construction and safe for concurrent use.
type Client struct {
	cfg    Config
	loc    *time.Location
	logger *zerolog.Logger

	// now is injectable so tests can pin vnp_CreateDate/vnp_ExpireDate.
	now func() time.Time
}

// NewClient validates the merchant configuration and returns a Client.
//
// Missing credentials are a hard error: callers are expected to fail
// process startup rather than limp along unable to sign anything.
func NewClient(cfg Config, logger *zerolog.Logger) (*Client, error) {
	for _, f := range []struct {
		name, value string
	}{
		{"tmn_code", cfg.TmnCode},
		{"hash_secret", cfg.HashSecret},
		{"pay_url", cfg.PayURL},
		{"return_url", cfg.ReturnURL},
	} {
		if f.value == "" {
			return nil, errors.Wrap(ErrMissingConfig, f.name)
		}
	}

	loc, err := time.LoadLocation(gatewayTZ)
	if err != nil {
		return nil, fmt.Errorf("loading gateway timezone: %w", err)
	}

	return &Client{
		cfg:    cfg,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}, nil
}

// newTxnRef generates a globally unique external reference for payment
// attempts where the caller did not supply one.
func newTxnRef() string {
	return uuid.New().String()
}
