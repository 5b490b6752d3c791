package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/voltride/voltride/internal/errs"
	"github.com/voltride/voltride/internal/lib/otp"
	"github.com/voltride/voltride/internal/repository"
	"github.com/voltride/voltride/internal/server"
)

type fakeContractStore struct {
	contracts map[uuid.UUID]*repository.Contract
	emails    map[uuid.UUID]string
}

func newFakeContractStore() *fakeContractStore {
	return &fakeContractStore{
		contracts: make(map[uuid.UUID]*repository.Contract),
		emails:    make(map[uuid.UUID]string),
	}
}

func (s *fakeContractStore) FindByID(ctx context.Context, id uuid.UUID) (*repository.Contract, error) {
	contract, ok := s.contracts[id]
	if !ok {
		return nil, errs.NewNotFoundError("Contract not found", false, nil)
	}
	return contract, nil
}

func (s *fakeContractStore) SetSignerEmail(ctx context.Context, id uuid.UUID, email string) error {
	s.emails[id] = email
	return nil
}

func (s *fakeContractStore) MarkSigned(ctx context.Context, id uuid.UUID) (bool, error) {
	contract, ok := s.contracts[id]
	if !ok || contract.Status != repository.ContractPending {
		return false, nil
	}
	contract.Status = repository.ContractSigned
	now := time.Now()
	contract.SignedAt = &now
	return true, nil
}

func newTestContractService(store *fakeContractStore, jobs *fakeEnqueuer) *ContractService {
	logger := zerolog.Nop()
	return &ContractService{
		server:    &server.Server{Logger: &logger},
		contracts: store,
		codes:     otp.NewManager(otp.NewMemoryStore(), &logger, otp.Options{}),
		jobs:      jobs,
	}
}

func pendingContract(id uuid.UUID) *repository.Contract {
	return &repository.Contract{
		ID:         id,
		BookingRef: "VR-2024-001",
		Status:     repository.ContractPending,
		CreatedAt:  time.Now(),
	}
}

func TestRequestSignatureIssuesAndEnqueues(t *testing.T) {
	store := newFakeContractStore()
	id := uuid.New()
	store.contracts[id] = pendingContract(id)
	jobs := &fakeEnqueuer{}
	cs := newTestContractService(store, jobs)

	if err := cs.RequestSignature(context.Background(), id, "rider@example.com"); err != nil {
		t.Fatalf("RequestSignature: %v", err)
	}

	if len(jobs.tasks) != 1 {
		t.Fatalf("enqueued %d tasks, want 1", len(jobs.tasks))
	}
	if store.emails[id] != "rider@example.com" {
		t.Errorf("signer email = %q, want recorded", store.emails[id])
	}
}

func TestRequestSignatureRejectsSignedContract(t *testing.T) {
	store := newFakeContractStore()
	id := uuid.New()
	contract := pendingContract(id)
	contract.Status = repository.ContractSigned
	store.contracts[id] = contract
	cs := newTestContractService(store, &fakeEnqueuer{})

	err := cs.RequestSignature(context.Background(), id, "rider@example.com")
	if err == nil {
		t.Fatal("expected error for an already signed contract")
	}
}

func TestConfirmSignatureSignsWithCorrectCode(t *testing.T) {
	store := newFakeContractStore()
	id := uuid.New()
	store.contracts[id] = pendingContract(id)
	cs := newTestContractService(store, &fakeEnqueuer{})

	code, err := cs.codes.Issue(context.Background(), id.String())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	signed, err := cs.ConfirmSignature(context.Background(), id, code)
	if err != nil {
		t.Fatalf("ConfirmSignature: %v", err)
	}
	if !signed {
		t.Fatal("expected the contract to be signed")
	}
	if store.contracts[id].Status != repository.ContractSigned {
		t.Errorf("contract status = %q, want SIGNED", store.contracts[id].Status)
	}

	// A replay with the same code cannot sign again.
	signed, err = cs.ConfirmSignature(context.Background(), id, code)
	if err == nil && signed {
		t.Error("replayed confirmation must not sign")
	}
}

func TestConfirmSignatureWrongCode(t *testing.T) {
	store := newFakeContractStore()
	id := uuid.New()
	store.contracts[id] = pendingContract(id)
	cs := newTestContractService(store, &fakeEnqueuer{})

	code, err := cs.codes.Issue(context.Background(), id.String())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	signed, err := cs.ConfirmSignature(context.Background(), id, wrong)
	if err != nil {
		t.Fatalf("ConfirmSignature: %v", err)
	}
	if signed {
		t.Fatal("wrong code must not sign")
	}
	if store.contracts[id].Status != repository.ContractPending {
		t.Errorf("contract status = %q, want PENDING", store.contracts[id].Status)
	}
}

func TestConfirmSignatureWithoutChallenge(t *testing.T) {
	store := newFakeContractStore()
	id := uuid.New()
	store.contracts[id] = pendingContract(id)
	cs := newTestContractService(store, &fakeEnqueuer{})

	signed, err := cs.ConfirmSignature(context.Background(), id, "123456")
	if err != nil {
		t.Fatalf("ConfirmSignature: %v", err)
	}
	if signed {
		t.Fatal("confirmation without an issued code must fail")
	}
}
