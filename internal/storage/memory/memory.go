// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while allowing a
// real database to be plugged in via the same interfaces.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpdiniz/bank/internal/bank"
	"github.com/jpdiniz/bank/internal/errs"
)

// Store is an in-memory implementation of the repository and writer
// interfaces used by the services. It is guarded by an RWMutex for concurrent
// reads and writes; a movement (balance write + transaction append) happens
// inside one critical section.
type Store struct {
	mu             sync.RWMutex
	customers      map[uuid.UUID]bank.Customer
	customersByDoc map[string]uuid.UUID
	accounts       map[uuid.UUID]bank.Account
	txs            map[uuid.UUID]bank.Transaction
	// txOrder keeps ledger order: seq is assigned from it, so append order
	// and seq order agree. Explicitly-stamped timestamps may disagree with
	// append order, so period queries never assume it is time-sorted.
	txOrder     []uuid.UUID
	txByAccount map[uuid.UUID][]uuid.UUID
	// Idempotency: accountID -> key -> transactionID
	movementIdem map[uuid.UUID]map[string]uuid.UUID
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		customers:      make(map[uuid.UUID]bank.Customer),
		customersByDoc: make(map[string]uuid.UUID),
		accounts:       make(map[uuid.UUID]bank.Account),
		txs:            make(map[uuid.UUID]bank.Transaction),
		txByAccount:    make(map[uuid.UUID][]uuid.UUID),
		movementIdem:   make(map[uuid.UUID]map[string]uuid.UUID),
	}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedCustomer(c bank.Customer) {
	s.mu.Lock()
	s.customers[c.ID] = c
	s.customersByDoc[c.DocumentID] = c.ID
	s.mu.Unlock()
}

func (s *Store) SeedAccount(a bank.Account) {
	s.mu.Lock()
	s.accounts[a.ID] = a
	s.mu.Unlock()
}

// --- Customer reads/writes ---

func (s *Store) GetCustomer(_ context.Context, customerID uuid.UUID) (bank.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[customerID]
	if !ok {
		return bank.Customer{}, errs.ErrNotFound
	}
	return c, nil
}

func (s *Store) CustomerByDocument(_ context.Context, documentID string) (bank.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.customersByDoc[documentID]
	if !ok {
		return bank.Customer{}, errs.ErrNotFound
	}
	return s.customers[id], nil
}

func (s *Store) CreateCustomer(_ context.Context, c bank.Customer) (bank.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.customersByDoc[c.DocumentID]; exists {
		return bank.Customer{}, errs.ErrConflict
	}
	s.customers[c.ID] = c
	s.customersByDoc[c.DocumentID] = c.ID
	return c, nil
}

// --- Account reads/writes ---

func (s *Store) GetAccount(_ context.Context, accountID uuid.UUID) (bank.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return bank.Account{}, errs.ErrNotFound
	}
	return a, nil
}

func (s *Store) CreateAccount(_ context.Context, a bank.Account) (bank.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return a, nil
}

// CreateAccountWithCustomer persists both records in one critical section.
func (s *Store) CreateAccountWithCustomer(_ context.Context, c bank.Customer, a bank.Account) (bank.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.customersByDoc[c.DocumentID]; exists {
		return bank.Account{}, errs.ErrConflict
	}
	s.customers[c.ID] = c
	s.customersByDoc[c.DocumentID] = c.ID
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) SetAccountActive(_ context.Context, accountID uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return errs.ErrNotFound
	}
	a.Active = active
	s.accounts[accountID] = a
	return nil
}

// --- Ledger reads/writes ---

func (s *Store) AppendTransaction(_ context.Context, t bank.Transaction) (bank.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(t), nil
}

// appendLocked assigns the next seq and indexes the transaction.
// Caller must hold s.mu (write lock).
func (s *Store) appendLocked(t bank.Transaction) bank.Transaction {
	t.Seq = int64(len(s.txOrder)) + 1
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	s.txs[t.ID] = t
	s.txOrder = append(s.txOrder, t.ID)
	s.txByAccount[t.AccountID] = append(s.txByAccount[t.AccountID], t.ID)
	return t
}

func (s *Store) TransactionsByAccount(_ context.Context, accountID uuid.UUID) ([]bank.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.txByAccount[accountID]
	out := make([]bank.Transaction, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.txs[id])
	}
	return out, nil
}

func (s *Store) TransactionsByPeriod(_ context.Context, start, end time.Time) ([]bank.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]bank.Transaction, 0)
	for _, id := range s.txOrder {
		t := s.txs[id]
		if t.CreatedAt.Before(start) || t.CreatedAt.After(end) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (s *Store) WithdrawalsSince(_ context.Context, accountID uuid.UUID, cutoff time.Time) ([]bank.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]bank.Transaction, 0)
	for _, id := range s.txByAccount[accountID] {
		t := s.txs[id]
		if t.Operation == bank.OperationWithdraw && !t.CreatedAt.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ApplyMovement writes the new balance and appends the transaction as one
// atomic unit. The account's version must match the stored one; a mismatch
// fails with errs.ErrConflict and leaves both untouched.
func (s *Store) ApplyMovement(_ context.Context, a bank.Account, t bank.Transaction) (bank.Account, bank.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.accounts[a.ID]
	if !ok {
		return bank.Account{}, bank.Transaction{}, errs.ErrNotFound
	}
	if cur.Version != a.Version {
		return bank.Account{}, bank.Transaction{}, errs.ErrConflict
	}
	// Only the balance and version move here; flags stay whatever they
	// currently are (a concurrent deactivate must not be undone).
	cur.Balance = a.Balance
	cur.Version++
	s.accounts[a.ID] = cur
	saved := s.appendLocked(t)
	return cur, saved, nil
}

// --- Idempotency ---

func (s *Store) MovementByIdempotencyKey(_ context.Context, accountID uuid.UUID, key string) (bank.Transaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.movementIdem[accountID]; ok {
		if txID, ok2 := m[key]; ok2 {
			if t, ok3 := s.txs[txID]; ok3 {
				return t, true, nil
			}
		}
	}
	return bank.Transaction{}, false, nil
}

func (s *Store) SaveMovementIdempotencyKey(_ context.Context, accountID uuid.UUID, key string, transactionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movementIdem[accountID]
	if !ok {
		m = make(map[string]uuid.UUID)
		s.movementIdem[accountID] = m
	}
	// Only set if absent to preserve idempotency.
	if _, exists := m[key]; !exists {
		m[key] = transactionID
	}
	return nil
}
