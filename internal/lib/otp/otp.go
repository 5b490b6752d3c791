// Package otp implements the one-time-passcode protocol that gates contract
// signing.
//
// Each subject (a contract identifier) has at most one active challenge: a
// short-lived numeric code with an attempt counter. A challenge moves
// through ISSUED to exactly one of CONSUMED, EXPIRED or LOCKED, and is
// removed from the store on any of those transitions. Codes are single-use
// and generated from a cryptographically secure random source.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Protocol defaults.
const (
	DefaultDigits      = 6
	DefaultTTL         = 5 * time.Minute
	DefaultMaxAttempts = 3
)

// Challenge is the stored state of one issued code.
type Challenge struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

// Outcome classifies one verification attempt. The HTTP boundary collapses
// it to pass/fail; the distinct values exist so abuse patterns (lockouts,
// probing against expired challenges) stay visible in logs.
type Outcome int

const (
	// OutcomeConsumed: the code matched and the challenge was destroyed.
	OutcomeConsumed Outcome = iota

	// OutcomeNoChallenge: nothing issued for this subject.
	OutcomeNoChallenge

	// OutcomeExpired: the challenge outlived its TTL and was removed.
	OutcomeExpired

	// OutcomeWrongCode: mismatch, attempts remain.
	OutcomeWrongCode

	// OutcomeLocked: mismatch exhausted the attempt ceiling; the challenge
	// was removed and the subject must request a fresh code.
	OutcomeLocked
)

// OK reports whether the attempt succeeded.
func (o Outcome) OK() bool { return o == OutcomeConsumed }

func (o Outcome) String() string {
	switch o {
	case OutcomeConsumed:
		return "consumed"
	case OutcomeNoChallenge:
		return "no_challenge"
	case OutcomeExpired:
		return "expired"
	case OutcomeWrongCode:
		return "wrong_code"
	case OutcomeLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Options tunes the challenge protocol. Zero values fall back to the
// defaults above.
type Options struct {
	Digits      int
	TTL         time.Duration
	MaxAttempts int
}

// Manager issues and verifies challenges against a Store.
//
// The store itself only needs plain get/put/delete semantics; the Manager
// serializes the read-modify-write of Verify per subject with a keyed lock,
// so two concurrent correct guesses cannot both consume one code. The lock
// is process-local; a multi-instance deployment must route verification for
// a given subject to one instance or move the check-and-act into the store.
type Manager struct {
	store  Store
	logger *zerolog.Logger
	opts   Options

	// now is injectable so expiry tests do not sleep.
	now func() time.Time

	mu    sync.Mutex
	locks map[string]*subjectLock
}

type subjectLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager constructs a Manager over the given store. The store is owned
// by the caller, created once at process start, and never implicitly reset.
func NewManager(store Store, logger *zerolog.Logger, opts Options) *Manager {
	if opts.Digits <= 0 {
		opts.Digits = DefaultDigits
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Manager{
		store:  store,
		logger: logger,
		opts:   opts,
		now:    time.Now,
		locks:  make(map[string]*subjectLock),
	}
}

// lockSubject acquires the per-subject mutex and returns its release func.
// Lock entries are reference-counted so the map does not grow with every
// subject ever seen.
func (m *Manager) lockSubject(subjectID string) func() {
	m.mu.Lock()
	l, ok := m.locks[subjectID]
	if !ok {
		l = &subjectLock{}
		m.locks[subjectID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, subjectID)
		}
		m.mu.Unlock()
	}
}

// Issue generates a fresh code for the subject, replacing any prior
// challenge even if it was never consumed.
//
// Delivery of the code (email) is the caller's concern and must not gate
// issuance: the challenge is stored before any delivery is attempted.
func (m *Manager) Issue(ctx context.Context, subjectID string) (string, error) {
	code, err := generateCode(m.opts.Digits)
	if err != nil {
		return "", errors.Wrap(err, "generating otp code")
	}

	release := m.lockSubject(subjectID)
	defer release()

	challenge := Challenge{
		Code:      code,
		ExpiresAt: m.now().Add(m.opts.TTL),
	}
	if err := m.store.Put(ctx, subjectID, challenge); err != nil {
		return "", errors.Wrap(err, "storing otp challenge")
	}

	m.logger.Info().
		Str("subject_id", subjectID).
		Time("expires_at", challenge.ExpiresAt).
		Msg("otp challenge issued")

	return code, nil
}

// Verify checks candidate against the subject's active challenge.
//
// Internal faults (store unavailable) fail closed: the attempt is rejected
// and the fault is logged, but no error crosses this boundary.
func (m *Manager) Verify(ctx context.Context, subjectID, candidate string) Outcome {
	release := m.lockSubject(subjectID)
	defer release()

	outcome := m.verifyLocked(ctx, subjectID, candidate)

	event := m.logger.Info()
	if outcome == OutcomeLocked {
		event = m.logger.Warn()
	}
	event.
		Str("subject_id", subjectID).
		Str("outcome", outcome.String()).
		Msg("otp verification attempt")

	return outcome
}

func (m *Manager) verifyLocked(ctx context.Context, subjectID, candidate string) Outcome {
	challenge, err := m.store.Get(ctx, subjectID)
	if err != nil {
		m.logger.Error().Err(err).Str("subject_id", subjectID).Msg("otp store read failed")
		return OutcomeNoChallenge
	}
	if challenge == nil {
		return OutcomeNoChallenge
	}

	if m.now().After(challenge.ExpiresAt) {
		m.deleteChallenge(ctx, subjectID)
		return OutcomeExpired
	}

	if subtle.ConstantTimeCompare([]byte(candidate), []byte(challenge.Code)) == 1 {
		m.deleteChallenge(ctx, subjectID)
		return OutcomeConsumed
	}

	challenge.Attempts++
	if challenge.Attempts >= m.opts.MaxAttempts {
		m.deleteChallenge(ctx, subjectID)
		return OutcomeLocked
	}

	if err := m.store.Put(ctx, subjectID, *challenge); err != nil {
		// Fail closed: rather than lose the attempt increment, burn the
		// challenge. The subject can re-issue.
		m.logger.Error().Err(err).Str("subject_id", subjectID).Msg("otp store write failed")
		m.deleteChallenge(ctx, subjectID)
	}
	return OutcomeWrongCode
}

func (m *Manager) deleteChallenge(ctx context.Context, subjectID string) {
	if err := m.store.Delete(ctx, subjectID); err != nil {
		m.logger.Error().Err(err).Str("subject_id", subjectID).Msg("otp store delete failed")
	}
}

// generateCode produces a fixed-length numeric code from crypto/rand.
func generateCode(digits int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
