package sqlerr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/voltride/voltride/internal/errs"
)

func TestMapCode(t *testing.T) {
	cases := []struct {
		dbCode string
		want   Code
	}{
		{"23505", UniqueViolation},
		{"23503", ForeignKeyViolation},
		{"23502", NotNullViolation},
		{"23514", CheckViolation},
		{"08006", ConnectionFailure},
		{"42601", Other},
	}

	for _, tc := range cases {
		if got := MapCode(tc.dbCode); got != tc.want {
			t.Errorf("MapCode(%q) = %v, want %v", tc.dbCode, got, tc.want)
		}
	}
}

func TestGenerateErrorCode(t *testing.T) {
	cases := []struct {
		table string
		code  Code
		want  string
	}{
		{"payment_orders", UniqueViolation, "PAYMENT_ORDER_ALREADY_EXISTS"},
		{"contracts", ForeignKeyViolation, "CONTRACT_NOT_FOUND"},
		{"contracts", NotNullViolation, "CONTRACT_REQUIRED"},
		{"", CheckViolation, "RECORD_INVALID"},
	}

	for _, tc := range cases {
		if got := generateErrorCode(tc.table, tc.code); got != tc.want {
			t.Errorf("generateErrorCode(%q, %v) = %q, want %q", tc.table, tc.code, got, tc.want)
		}
	}
}

func TestExtractColumnForUniqueViolation(t *testing.T) {
	cases := []struct {
		constraint string
		want       string
	}{
		{"unique_payment_orders_txn_ref", "ref"},
		{"payment_orders_txn_ref_key", "ref"},
		{"contracts_booking_ref_ukey", "ref"},
		{"", ""},
		{"pkey", ""},
	}

	for _, tc := range cases {
		if got := extractColumnForUniqueViolation(tc.constraint); got != tc.want {
			t.Errorf("extractColumnForUniqueViolation(%q) = %q, want %q", tc.constraint, got, tc.want)
		}
	}
}

func TestHandleErrorUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		Severity:       "ERROR",
		Message:        "duplicate key value violates unique constraint",
		TableName:      "payment_orders",
		ConstraintName: "payment_orders_pkey",
	}

	err := HandleError(pgErr)

	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("HandleError returned %T, want *errs.HTTPError", err)
	}
	if httpErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", httpErr.Status)
	}
	if httpErr.Code != "PAYMENT_ORDER_ALREADY_EXISTS" {
		t.Errorf("code = %q, want PAYMENT_ORDER_ALREADY_EXISTS", httpErr.Code)
	}
}

func TestHandleErrorConnectionFailure(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:     "08006",
		Severity: "FATAL",
		Message:  "connection failure",
	}

	err := HandleError(pgErr)

	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("HandleError returned %T, want *errs.HTTPError", err)
	}
	if httpErr.Status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", httpErr.Status)
	}
}

func TestHandleErrorNoRows(t *testing.T) {
	err := HandleError(pgx.ErrNoRows)

	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("HandleError returned %T, want *errs.HTTPError", err)
	}
	if httpErr.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", httpErr.Status)
	}
}

func TestHandleErrorPassesThroughHTTPError(t *testing.T) {
	original := errs.NewConflictError("Contract is already signed", true)

	err := HandleError(original)

	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("HandleError returned %T, want *errs.HTTPError", err)
	}
	if httpErr != original {
		t.Error("existing HTTPError must pass through unchanged")
	}
}

func TestHandleErrorUnknown(t *testing.T) {
	err := HandleError(errors.New("boom"))

	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("HandleError returned %T, want *errs.HTTPError", err)
	}
	if httpErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", httpErr.Status)
	}
}
