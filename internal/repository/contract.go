package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/voltride/voltride/internal/server"
)

// ContractStatus is a closed set; unknown values are rejected at the
// boundary.
type ContractStatus string

const (
	ContractPending ContractStatus = "PENDING"
	ContractSigned  ContractStatus = "SIGNED"
)

// Valid reports whether the status is one of the known values.
func (s ContractStatus) Valid() bool {
	switch s {
	case ContractPending, ContractSigned:
		return true
	}
	return false
}

// Contract is a rental agreement awaiting the renter's signature
// confirmation.
type Contract struct {
	ID          uuid.UUID      `json:"id"`
	BookingRef  string         `json:"booking_ref"`
	SignerEmail string         `json:"signer_email"`
	Status      ContractStatus `json:"status"`
	SignedAt    *time.Time     `json:"signed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ContractRepository persists rental contracts.
type ContractRepository struct {
	server *server.Server
}

func NewContractRepository(s *server.Server) *ContractRepository {
	return &ContractRepository{server: s}
}

// FindByID returns the contract or the driver's no-rows error, which
// the error funnel maps to a 404.
func (r *ContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*Contract, error) {
	var contract Contract
	err := r.server.DB.Pool.QueryRow(ctx, `
		SELECT id, booking_ref, signer_email, status, signed_at, created_at
		FROM contracts
		WHERE id = $1`,
		id,
	).Scan(
		&contract.ID,
		&contract.BookingRef,
		&contract.SignerEmail,
		&contract.Status,
		&contract.SignedAt,
		&contract.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if !contract.Status.Valid() {
		return nil, errors.New("contract has unknown status: " + string(contract.Status))
	}

	return &contract, nil
}

// SetSignerEmail records the address a signature code was sent to.
func (r *ContractRepository) SetSignerEmail(ctx context.Context, id uuid.UUID, email string) error {
	_, err := r.server.DB.Pool.Exec(ctx, `
		UPDATE contracts
		SET signer_email = $2
		WHERE id = $1`,
		id,
		email,
	)
	return err
}

// MarkSigned flips a contract from PENDING to SIGNED. Returns false if
// the contract was not in PENDING, so a replayed confirmation cannot
// sign twice.
func (r *ContractRepository) MarkSigned(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.server.DB.Pool.Exec(ctx, `
		UPDATE contracts
		SET status = 'SIGNED',
		    signed_at = now()
		WHERE id = $1 AND status = 'PENDING'`,
		id,
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}
