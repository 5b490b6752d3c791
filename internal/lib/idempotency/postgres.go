package idempotency

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// PostgresStore implements Store on the idempotency_records table, using
// the primary-key constraint for atomic insert-if-absent. This is the
// durable option for multi-instance deployments: the database enforces the
// at-most-once guarantee even across restarts and Redis flushes.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps the shared connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) PutIfAbsent(ctx context.Context, externalRef string, state State) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO idempotency_records (external_ref, state)
		 VALUES ($1, $2)
		 ON CONFLICT (external_ref) DO NOTHING`,
		externalRef, string(state),
	)
	if err != nil {
		return false, errors.Wrap(err, "idempotency insert")
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Get(ctx context.Context, externalRef string) (State, bool, error) {
	var state string
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM idempotency_records WHERE external_ref = $1`,
		externalRef,
	).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "idempotency select")
	}
	return State(state), true, nil
}

func (s *PostgresStore) Delete(ctx context.Context, externalRef string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM idempotency_records WHERE external_ref = $1`,
		externalRef,
	); err != nil {
		return errors.Wrap(err, "idempotency delete")
	}
	return nil
}
