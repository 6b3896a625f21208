// Package teller implements the account operations engine. It composes the
// account registry and the transaction ledger under a per-account mutation
// guarantee: for any single account the read-compute-write-append sequence is
// serialized against every other mutating operation on that account.
package teller

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/jpdiniz/bank/internal/bank"
	"github.com/jpdiniz/bank/internal/errs"
)

// Repo defines the read operations needed by the engine.
type Repo interface {
	GetAccount(ctx context.Context, accountID uuid.UUID) (bank.Account, error)
	// WithdrawalsSince returns the account's withdraw transactions created at
	// or after cutoff. Only consulted when daily-limit enforcement is on.
	WithdrawalsSince(ctx context.Context, accountID uuid.UUID, cutoff time.Time) ([]bank.Transaction, error)
}

// Writer defines the write operations needed by the engine.
type Writer interface {
	// ApplyMovement persists the balance write and the transaction append as
	// one atomic unit: either both become visible or neither does. It must
	// fail with errs.ErrConflict when the account version no longer matches.
	ApplyMovement(ctx context.Context, a bank.Account, t bank.Transaction) (bank.Account, bank.Transaction, error)
}

// IdempotencyStore resolves and records movement idempotency keys.
type IdempotencyStore interface {
	MovementByIdempotencyKey(ctx context.Context, accountID uuid.UUID, key string) (bank.Transaction, bool, error)
	SaveMovementIdempotencyKey(ctx context.Context, accountID uuid.UUID, key string, transactionID uuid.UUID) error
}

// Policy toggles the hardened preconditions. All default to false, preserving
// the permissive contract: withdrawals may drive the balance negative, the
// daily withdrawal limit is declared but unchecked and inactive accounts still
// accept movements.
type Policy struct {
	EnforceSufficientFunds bool
	EnforceDailyLimit      bool
	RejectInactive         bool
}

// Service applies deposits and withdrawals.
type Service interface {
	Deposit(ctx context.Context, accountID uuid.UUID, amount money.Amount) (bank.Account, bank.Transaction, error)
	Withdraw(ctx context.Context, accountID uuid.UUID, amount money.Amount) (bank.Account, bank.Transaction, error)
	// DepositWithKey and WithdrawWithKey additionally honor an idempotency
	// key: a replay returns the previously appended transaction and
	// replayed=true without touching the balance. An empty key behaves like
	// the plain calls.
	DepositWithKey(ctx context.Context, accountID uuid.UUID, amount money.Amount, key string) (bank.Account, bank.Transaction, bool, error)
	WithdrawWithKey(ctx context.Context, accountID uuid.UUID, amount money.Amount, key string) (bank.Account, bank.Transaction, bool, error)
}

type service struct {
	repo   Repo
	writer Writer
	idem   IdempotencyStore
	policy Policy
	locks  *accountLocks
}

func New(repo Repo, writer Writer, idem IdempotencyStore, policy Policy) Service {
	return &service{repo: repo, writer: writer, idem: idem, policy: policy, locks: newAccountLocks()}
}

// maxConflictRetries bounds re-reads after a version conflict before the
// conflict is surfaced to the caller.
const maxConflictRetries = 3

func (s *service) Deposit(ctx context.Context, accountID uuid.UUID, amount money.Amount) (bank.Account, bank.Transaction, error) {
	acc, t, _, err := s.move(ctx, accountID, amount, bank.OperationDeposit, "")
	return acc, t, err
}

func (s *service) Withdraw(ctx context.Context, accountID uuid.UUID, amount money.Amount) (bank.Account, bank.Transaction, error) {
	acc, t, _, err := s.move(ctx, accountID, amount, bank.OperationWithdraw, "")
	return acc, t, err
}

func (s *service) DepositWithKey(ctx context.Context, accountID uuid.UUID, amount money.Amount, key string) (bank.Account, bank.Transaction, bool, error) {
	return s.move(ctx, accountID, amount, bank.OperationDeposit, key)
}

func (s *service) WithdrawWithKey(ctx context.Context, accountID uuid.UUID, amount money.Amount, key string) (bank.Account, bank.Transaction, bool, error) {
	return s.move(ctx, accountID, amount, bank.OperationWithdraw, key)
}

func (s *service) move(ctx context.Context, accountID uuid.UUID, amount money.Amount, op bank.Operation, key string) (bank.Account, bank.Transaction, bool, error) {
	// Fail fast: all validation happens before any mutation is attempted.
	if bank.Minor(amount) <= 0 {
		return bank.Account{}, bank.Transaction{}, false, errs.Invalid("amount", "must be greater than zero")
	}

	unlock := s.locks.lock(accountID)
	defer unlock()

	// The key must be resolved while the account lock is held: two concurrent
	// requests with the same key would otherwise both miss the lookup and both
	// apply the movement.
	useKey := key != "" && s.idem != nil
	if useKey {
		prev, ok, err := s.idem.MovementByIdempotencyKey(ctx, accountID, key)
		if err != nil {
			return bank.Account{}, bank.Transaction{}, false, err
		}
		if ok {
			acc, err := s.repo.GetAccount(ctx, accountID)
			if err != nil {
				return bank.Account{}, bank.Transaction{}, false, err
			}
			return acc, prev, true, nil
		}
	}

	acc, saved, err := s.applyLocked(ctx, accountID, amount, op)
	if err != nil {
		return bank.Account{}, bank.Transaction{}, false, err
	}
	if useKey {
		// The movement is already applied; a failed reservation must not
		// surface as an error or a client retry would apply it again.
		_ = s.idem.SaveMovementIdempotencyKey(ctx, accountID, key, saved.ID)
	}
	return acc, saved, false, nil
}

// applyLocked runs the read-compute-write-append sequence. Caller must hold
// the account's lock.
func (s *service) applyLocked(ctx context.Context, accountID uuid.UUID, amount money.Amount, op bank.Operation) (bank.Account, bank.Transaction, error) {
	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		acc, err := s.repo.GetAccount(ctx, accountID)
		if err != nil {
			return bank.Account{}, bank.Transaction{}, err
		}
		if err := s.checkPolicy(ctx, acc, amount, op); err != nil {
			return bank.Account{}, bank.Transaction{}, err
		}

		switch op {
		case bank.OperationDeposit:
			acc.Balance, err = acc.Balance.Add(amount)
		case bank.OperationWithdraw:
			acc.Balance, err = acc.Balance.Sub(amount)
		}
		if err != nil {
			return bank.Account{}, bank.Transaction{}, err
		}

		// created_at is stamped by the store inside its critical section so
		// that append order and timestamp order agree.
		t := bank.Transaction{
			ID:        uuid.New(),
			AccountID: accountID,
			Amount:    amount,
			Operation: op,
		}
		updated, saved, err := s.writer.ApplyMovement(ctx, acc, t)
		if err == nil {
			movementsTotal.WithLabelValues(string(op)).Inc()
			return updated, saved, nil
		}
		if !errors.Is(err, errs.ErrConflict) {
			return bank.Account{}, bank.Transaction{}, err
		}
		lastErr = err
	}
	return bank.Account{}, bank.Transaction{}, lastErr
}

func (s *service) checkPolicy(ctx context.Context, acc bank.Account, amount money.Amount, op bank.Operation) error {
	if s.policy.RejectInactive && !acc.Active {
		return errs.ErrAccountInactive
	}
	if op != bank.OperationWithdraw {
		return nil
	}
	if s.policy.EnforceSufficientFunds && bank.Minor(acc.Balance) < bank.Minor(amount) {
		return errs.ErrInsufficientFunds
	}
	if s.policy.EnforceDailyLimit {
		cutoff := time.Now().UTC().Add(-24 * time.Hour)
		withdrawn, err := s.repo.WithdrawalsSince(ctx, acc.ID, cutoff)
		if err != nil {
			return err
		}
		var total int64
		for _, t := range withdrawn {
			total += bank.Minor(t.Amount)
		}
		if total+bank.Minor(amount) > bank.Minor(acc.DailyWithdrawalLimit) {
			return errs.ErrLimitExceeded
		}
	}
	return nil
}
