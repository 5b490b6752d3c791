// Package idempotency guards state transitions keyed by an external
// transaction reference so they happen at most once.
//
// Payment gateways resend their notification callback until they receive an
// acknowledgment, and they make no ordering or dedup promises. The Gate
// reserves a reference with an atomic insert-if-absent before running the
// side effect; a reference that is already reserved short-circuits to
// "already applied", which the caller still acknowledges as success so the
// gateway stops retrying.
package idempotency

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// State is the terminal state recorded for a reference.
type State string

const (
	// StateApplied means the side effect ran for this reference.
	StateApplied State = "applied"

	// StateRejected means the reference was seen and deliberately not
	// applied (e.g. an authentic failure notification).
	StateRejected State = "rejected"
)

// Result reports what ApplyOnce did.
type Result int

const (
	// Applied: the action ran during this call.
	Applied Result = iota

	// AlreadyApplied: a prior call owns this reference; the action was
	// skipped. This is a normal outcome, not an error.
	AlreadyApplied
)

// Store provides atomic check-and-set semantics over reference records.
//
// PutIfAbsent must be atomic across the full reference space: of any number
// of concurrent calls with the same reference, exactly one may observe
// inserted == true. Errors from the store are transient infrastructure
// failures and must be surfaced, never mapped to either Result; guessing
// here risks a missed or doubled charge.
type Store interface {
	PutIfAbsent(ctx context.Context, externalRef string, state State) (inserted bool, err error)
	Get(ctx context.Context, externalRef string) (State, bool, error)
	Delete(ctx context.Context, externalRef string) error
}

// Gate applies side effects at most once per external reference.
type Gate struct {
	store  Store
	logger *zerolog.Logger
}

// NewGate wraps a store. The store is created once at process start and
// shared; for multi-instance deployments it must be backed by shared
// durable storage (Redis, or the database unique index).
func NewGate(store Store, logger *zerolog.Logger) *Gate {
	return &Gate{store: store, logger: logger}
}

// ApplyOnce runs action at most once for externalRef.
//
// The reference is reserved before the action runs. If the action fails,
// the reservation is released so the gateway's retry can try again;
// releasing can itself fail, in which case the error is logged and the
// action error still propagates.
func (g *Gate) ApplyOnce(ctx context.Context, externalRef string, action func(ctx context.Context) error) (Result, error) {
	inserted, err := g.store.PutIfAbsent(ctx, externalRef, StateApplied)
	if err != nil {
		return 0, errors.Wrap(err, "reserving idempotency record")
	}
	if !inserted {
		g.logger.Info().Str("external_ref", externalRef).Msg("duplicate notification, side effect skipped")
		return AlreadyApplied, nil
	}

	if err := action(ctx); err != nil {
		if delErr := g.store.Delete(ctx, externalRef); delErr != nil {
			g.logger.Error().Err(delErr).
				Str("external_ref", externalRef).
				Msg("failed to release idempotency reservation after action failure")
		}
		return 0, err
	}

	return Applied, nil
}
