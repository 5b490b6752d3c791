package vnpay

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	logger := zerolog.Nop()
	c, err := NewClient(Config{
		TmnCode:    "DEMO01",
		HashSecret: "test-hash-secret",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "https://voltride.example/api/payments/vnpay/return",
	}, &logger)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_MissingConfig(t *testing.T) {
	logger := zerolog.Nop()
	cases := map[string]Config{
		"tmn code":    {HashSecret: "s", PayURL: "p", ReturnURL: "r"},
		"hash secret": {TmnCode: "t", PayURL: "p", ReturnURL: "r"},
		"pay url":     {TmnCode: "t", HashSecret: "s", ReturnURL: "r"},
		"return url":  {TmnCode: "t", HashSecret: "s", PayURL: "p"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewClient(cfg, &logger)
			if !errors.Is(err, ErrMissingConfig) {
				t.Errorf("NewClient() error = %v, want ErrMissingConfig", err)
			}
		})
	}
}

func TestBuildPaymentURL_Scenario(t *testing.T) {
	c := testClient(t)
	c.now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	}

	order, err := c.BuildPaymentURL(PaymentRequest{
		AmountMinorUnits: 150000,
		OrderInfo:        "Booking #42",
		ClientIP:         "203.0.113.7",
	})
	if err != nil {
		t.Fatalf("BuildPaymentURL: %v", err)
	}

	if order.TxnRef == "" {
		t.Error("expected auto-generated transaction reference")
	}
	if !strings.Contains(order.PayURL, "vnp_Amount=15000000") {
		t.Errorf("URL missing scaled amount: %s", order.PayURL)
	}

	u, err := url.Parse(order.PayURL)
	if err != nil {
		t.Fatalf("parsing pay URL: %v", err)
	}
	values := u.Query()

	if got := values.Get(ParamSecureHash); len(got) != 128 {
		t.Errorf("signature parameter length = %d, want 128", len(got))
	}
	if got := values.Get("vnp_Locale"); got != "vn" {
		t.Errorf("vnp_Locale = %q, want default %q", got, "vn")
	}
	if got := values.Get("vnp_CreateDate"); got != "20240315170000" {
		t.Errorf("vnp_CreateDate = %q, want gateway-local %q", got, "20240315170000")
	}
	if got := values.Get("vnp_ExpireDate"); got != "20240315171500" {
		t.Errorf("vnp_ExpireDate = %q, want create+15m %q", got, "20240315171500")
	}
}

func TestBuildPaymentURL_SignatureCoversQueryString(t *testing.T) {
	c := testClient(t)

	order, err := c.BuildPaymentURL(PaymentRequest{
		AmountMinorUnits: 42000,
		OrderInfo:        "Booking #7",
		TxnRef:           "ref-7",
		ClientIP:         "198.51.100.2",
	})
	if err != nil {
		t.Fatalf("BuildPaymentURL: %v", err)
	}

	// The signed material must be exactly the query string before the
	// signature parameter. Re-verify it the way the gateway will.
	rest, sigPart, found := strings.Cut(order.PayURL, "&"+ParamSecureHash+"=")
	if !found {
		t.Fatalf("URL missing signature parameter: %s", order.PayURL)
	}
	_, query, _ := strings.Cut(rest, "?")
	if !VerifySignature("test-hash-secret", query, sigPart) {
		t.Error("signature does not verify against the literal query string")
	}
}

func TestBuildPaymentURL_PreservesCallerReference(t *testing.T) {
	c := testClient(t)
	order, err := c.BuildPaymentURL(PaymentRequest{
		AmountMinorUnits: 1000,
		OrderInfo:        "Booking #9",
		TxnRef:           "caller-ref",
		ClientIP:         "192.0.2.1",
	})
	if err != nil {
		t.Fatalf("BuildPaymentURL: %v", err)
	}
	if order.TxnRef != "caller-ref" {
		t.Errorf("TxnRef = %q, want caller-supplied reference", order.TxnRef)
	}
}

func TestBuildPaymentURL_RejectsNonPositiveAmount(t *testing.T) {
	c := testClient(t)
	for _, amount := range []int64{0, -1, -150000} {
		if _, err := c.BuildPaymentURL(PaymentRequest{AmountMinorUnits: amount}); err == nil {
			t.Errorf("BuildPaymentURL accepted amount %d", amount)
		}
	}
}
