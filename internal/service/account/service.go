// Package account implements the account registry: accounts are bound to a
// customer at creation, open with a zero balance and stay active until
// deactivated.
package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/jpdiniz/bank/internal/bank"
	"github.com/jpdiniz/bank/internal/errs"
	"github.com/jpdiniz/bank/internal/service/customer"
)

// Repo defines the read operations needed by the service.
type Repo interface {
	GetAccount(ctx context.Context, accountID uuid.UUID) (bank.Account, error)
	GetCustomer(ctx context.Context, customerID uuid.UUID) (bank.Customer, error)
}

// Writer defines the write operations needed by the service.
type Writer interface {
	CreateAccount(ctx context.Context, a bank.Account) (bank.Account, error)
	// CreateAccountWithCustomer persists the customer and the account as one
	// unit: either both become visible or neither does.
	CreateAccountWithCustomer(ctx context.Context, c bank.Customer, a bank.Account) (bank.Account, error)
	SetAccountActive(ctx context.Context, accountID uuid.UUID, active bool) error
}

// Options hold per-instance defaults applied to new accounts.
type Options struct {
	Currency             string
	DailyWithdrawalLimit money.Amount
}

// CreateInput accepts either an existing customer reference or an inline
// customer payload, mirroring the creation request shape. Exactly one of the
// two must be set.
type CreateInput struct {
	Type       bank.AccountType
	CustomerID uuid.UUID
	Customer   *customer.CreateInput
}

// Service exposes registry operations over accounts.
type Service interface {
	Create(ctx context.Context, in CreateInput) (bank.Account, error)
	Get(ctx context.Context, accountID uuid.UUID) (bank.Account, error)
	// Deactivate sets active=false. Idempotent: deactivating an already
	// inactive account succeeds silently.
	Deactivate(ctx context.Context, accountID uuid.UUID) error
}

type service struct {
	repo      Repo
	writer    Writer
	customers customer.Service
	opts      Options
}

func New(repo Repo, writer Writer, customers customer.Service, opts Options) Service {
	return &service{repo: repo, writer: writer, customers: customers, opts: opts}
}

func (s *service) Create(ctx context.Context, in CreateInput) (bank.Account, error) {
	v := &errs.Validation{}
	if !in.Type.Valid() {
		v.Add("type", "must be one of checking, savings")
	}
	hasInline := in.Customer != nil
	hasRef := in.CustomerID != uuid.Nil
	if hasInline == hasRef {
		v.Add("customer", "exactly one of customer or customer_id is required")
	}
	if err := v.Err(); err != nil {
		return bank.Account{}, err
	}

	acc := bank.Account{
		ID:                   uuid.New(),
		Type:                 in.Type,
		Balance:              bank.Zero(s.opts.Currency),
		DailyWithdrawalLimit: s.opts.DailyWithdrawalLimit,
		Active:               true,
		CreatedAt:            time.Now().UTC(),
	}

	if hasInline {
		c, err := s.customers.Prepare(ctx, *in.Customer)
		if err != nil {
			var verr *errs.Validation
			if errors.As(err, &verr) {
				return bank.Account{}, (&errs.Validation{}).AddPrefixed("customer", verr).Err()
			}
			return bank.Account{}, err
		}
		acc.CustomerID = c.ID
		return s.writer.CreateAccountWithCustomer(ctx, c, acc)
	}

	if _, err := s.repo.GetCustomer(ctx, in.CustomerID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return bank.Account{}, errs.Invalid("customer_id", "unknown customer")
		}
		return bank.Account{}, err
	}
	acc.CustomerID = in.CustomerID
	return s.writer.CreateAccount(ctx, acc)
}

func (s *service) Get(ctx context.Context, accountID uuid.UUID) (bank.Account, error) {
	if accountID == uuid.Nil {
		return bank.Account{}, errs.ErrNotFound
	}
	return s.repo.GetAccount(ctx, accountID)
}

func (s *service) Deactivate(ctx context.Context, accountID uuid.UUID) error {
	acc, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if !acc.Active {
		return nil
	}
	return s.writer.SetAccountActive(ctx, accountID, false)
}
