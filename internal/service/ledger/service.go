// Package ledger implements the transaction ledger: immutable records are
// appended and answered back by account or by time range.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/jpdiniz/bank/internal/bank"
	"github.com/jpdiniz/bank/internal/errs"
)

// Repo defines the read operations needed by the service.
type Repo interface {
	GetAccount(ctx context.Context, accountID uuid.UUID) (bank.Account, error)
	// TransactionsByAccount returns the account's transactions oldest-first.
	TransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]bank.Transaction, error)
	// TransactionsByPeriod returns transactions with created_at in
	// [start, end] across all accounts, ordered by (created_at, seq).
	TransactionsByPeriod(ctx context.Context, start, end time.Time) ([]bank.Transaction, error)
}

// Writer defines the write operations needed by the service.
type Writer interface {
	AppendTransaction(ctx context.Context, t bank.Transaction) (bank.Transaction, error)
}

// Service exposes appends and historical queries over the ledger. Every call
// returns a fresh snapshot; no cursor state is retained.
type Service interface {
	Record(ctx context.Context, accountID uuid.UUID, amount money.Amount, op bank.Operation) (bank.Transaction, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]bank.Transaction, error)
	ListByPeriod(ctx context.Context, start, end time.Time) ([]bank.Transaction, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

func (s *service) Record(ctx context.Context, accountID uuid.UUID, amount money.Amount, op bank.Operation) (bank.Transaction, error) {
	v := &errs.Validation{}
	if bank.Minor(amount) <= 0 {
		v.Add("amount", "must be greater than zero")
	}
	if !op.Valid() {
		v.Add("operation", "must be one of deposit, withdraw")
	}
	if err := v.Err(); err != nil {
		return bank.Transaction{}, err
	}
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return bank.Transaction{}, err
	}
	// created_at is stamped by the store at append time.
	t := bank.Transaction{
		ID:        uuid.New(),
		AccountID: accountID,
		Amount:    amount,
		Operation: op,
	}
	return s.writer.AppendTransaction(ctx, t)
}

func (s *service) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]bank.Transaction, error) {
	return s.repo.TransactionsByAccount(ctx, accountID)
}

func (s *service) ListByPeriod(ctx context.Context, start, end time.Time) ([]bank.Transaction, error) {
	if start.After(end) {
		return nil, errs.Invalid("period", "start_date must not be after end_date")
	}
	return s.repo.TransactionsByPeriod(ctx, start, end)
}
