package postgres

// Package postgres provides a pgx-backed storage implementation that
// satisfies the repository and writer interfaces used by the services.
//
// It is intentionally small and explicit. Migrations that create the expected
// schema live under db/migrations. This package focuses on mapping between
// the domain entities and SQL rows and running the necessary statements and
// transactions.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jpdiniz/bank/internal/bank"
	"github.com/jpdiniz/bank/internal/errs"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
// Amounts are stored as minor units (bigint); the currency is fixed per
// deployment and supplied at Open.
type Store struct {
	pool     *pgxpool.Pool
	currency string
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn, currency string) (*Store, error) {
	if _, err := money.NewAmountFromMinorUnits(currency, 0); err != nil {
		return nil, fmt.Errorf("postgres.Open: unknown currency %q: %w", currency, err)
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, currency: currency}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// storeErr normalizes driver failures: no-rows maps to the domain not-found,
// everything else is reported as retryable unavailability. Writes run inside
// transactions, so an unavailability never leaves a partial mutation visible.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	return fmt.Errorf("%s: %w: %s", op, errs.ErrUnavailable, err)
}

func (s *Store) amount(minor int64) money.Amount {
	return bank.MustAmount(s.currency, minor)
}

// --- Customers ---

const customerColumns = `id, name, document_id, birth_date, created_at`

func (s *Store) scanCustomer(row pgx.Row) (bank.Customer, error) {
	var c bank.Customer
	err := row.Scan(&c.ID, &c.Name, &c.DocumentID, &c.BirthDate, &c.CreatedAt)
	return c, err
}

func (s *Store) GetCustomer(ctx context.Context, customerID uuid.UUID) (bank.Customer, error) {
	row := s.pool.QueryRow(ctx, `select `+customerColumns+` from customers where id = $1`, customerID)
	c, err := s.scanCustomer(row)
	if err != nil {
		return bank.Customer{}, storeErr("GetCustomer", err)
	}
	return c, nil
}

func (s *Store) CustomerByDocument(ctx context.Context, documentID string) (bank.Customer, error) {
	row := s.pool.QueryRow(ctx, `select `+customerColumns+` from customers where document_id = $1`, documentID)
	c, err := s.scanCustomer(row)
	if err != nil {
		return bank.Customer{}, storeErr("CustomerByDocument", err)
	}
	return c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c bank.Customer) (bank.Customer, error) {
	_, err := s.pool.Exec(ctx, `
		insert into customers (id, name, document_id, birth_date, created_at)
		values ($1, $2, $3, $4, $5)
	`, c.ID, c.Name, c.DocumentID, c.BirthDate, c.CreatedAt)
	if err != nil {
		return bank.Customer{}, storeErr("CreateCustomer", err)
	}
	return c, nil
}

// --- Accounts ---

const accountColumns = `id, customer_id, type, balance_minor, daily_limit_minor, active, version, created_at`

func (s *Store) scanAccount(row pgx.Row) (bank.Account, error) {
	var a bank.Account
	var balance, limit int64
	if err := row.Scan(&a.ID, &a.CustomerID, &a.Type, &balance, &limit, &a.Active, &a.Version, &a.CreatedAt); err != nil {
		return bank.Account{}, err
	}
	a.Balance = s.amount(balance)
	a.DailyWithdrawalLimit = s.amount(limit)
	return a, nil
}

func (s *Store) GetAccount(ctx context.Context, accountID uuid.UUID) (bank.Account, error) {
	row := s.pool.QueryRow(ctx, `select `+accountColumns+` from accounts where id = $1`, accountID)
	a, err := s.scanAccount(row)
	if err != nil {
		return bank.Account{}, storeErr("GetAccount", err)
	}
	return a, nil
}

func insertAccount(ctx context.Context, tx pgx.Tx, a bank.Account) error {
	_, err := tx.Exec(ctx, `
		insert into accounts (id, customer_id, type, balance_minor, daily_limit_minor, active, version, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.CustomerID, a.Type, bank.Minor(a.Balance), bank.Minor(a.DailyWithdrawalLimit), a.Active, a.Version, a.CreatedAt)
	return err
}

func (s *Store) CreateAccount(ctx context.Context, a bank.Account) (bank.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return bank.Account{}, storeErr("CreateAccount: begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := insertAccount(ctx, tx, a); err != nil {
		return bank.Account{}, storeErr("CreateAccount", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return bank.Account{}, storeErr("CreateAccount: commit", err)
	}
	return a, nil
}

// CreateAccountWithCustomer persists both records in one transaction.
func (s *Store) CreateAccountWithCustomer(ctx context.Context, c bank.Customer, a bank.Account) (bank.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return bank.Account{}, storeErr("CreateAccountWithCustomer: begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `
		insert into customers (id, name, document_id, birth_date, created_at)
		values ($1, $2, $3, $4, $5)
	`, c.ID, c.Name, c.DocumentID, c.BirthDate, c.CreatedAt); err != nil {
		return bank.Account{}, storeErr("CreateAccountWithCustomer: customer", err)
	}
	if err := insertAccount(ctx, tx, a); err != nil {
		return bank.Account{}, storeErr("CreateAccountWithCustomer: account", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return bank.Account{}, storeErr("CreateAccountWithCustomer: commit", err)
	}
	return a, nil
}

func (s *Store) SetAccountActive(ctx context.Context, accountID uuid.UUID, active bool) error {
	tag, err := s.pool.Exec(ctx, `update accounts set active = $2 where id = $1`, accountID, active)
	if err != nil {
		return storeErr("SetAccountActive", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Transactions ---

const transactionColumns = `id, seq, account_id, amount_minor, operation, created_at`

func (s *Store) scanTransaction(row pgx.Row) (bank.Transaction, error) {
	var t bank.Transaction
	var minor int64
	if err := row.Scan(&t.ID, &t.Seq, &t.AccountID, &minor, &t.Operation, &t.CreatedAt); err != nil {
		return bank.Transaction{}, err
	}
	t.Amount = s.amount(minor)
	return t, nil
}

func (s *Store) AppendTransaction(ctx context.Context, t bank.Transaction) (bank.Transaction, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	row := s.pool.QueryRow(ctx, `
		insert into transactions (id, account_id, amount_minor, operation, created_at)
		values ($1, $2, $3, $4, $5)
		returning seq
	`, t.ID, t.AccountID, bank.Minor(t.Amount), t.Operation, t.CreatedAt)
	if err := row.Scan(&t.Seq); err != nil {
		return bank.Transaction{}, storeErr("AppendTransaction", err)
	}
	return t, nil
}

func (s *Store) collectTransactions(rows pgx.Rows) ([]bank.Transaction, error) {
	defer rows.Close()
	out := make([]bank.Transaction, 0)
	for rows.Next() {
		t, err := s.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) TransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]bank.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		select `+transactionColumns+` from transactions
		where account_id = $1
		order by seq
	`, accountID)
	if err != nil {
		return nil, storeErr("TransactionsByAccount", err)
	}
	out, err := s.collectTransactions(rows)
	if err != nil {
		return nil, storeErr("TransactionsByAccount", err)
	}
	return out, nil
}

func (s *Store) TransactionsByPeriod(ctx context.Context, start, end time.Time) ([]bank.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		select `+transactionColumns+` from transactions
		where created_at >= $1 and created_at <= $2
		order by created_at, seq
	`, start, end)
	if err != nil {
		return nil, storeErr("TransactionsByPeriod", err)
	}
	out, err := s.collectTransactions(rows)
	if err != nil {
		return nil, storeErr("TransactionsByPeriod", err)
	}
	return out, nil
}

func (s *Store) WithdrawalsSince(ctx context.Context, accountID uuid.UUID, cutoff time.Time) ([]bank.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		select `+transactionColumns+` from transactions
		where account_id = $1 and operation = $2 and created_at >= $3
		order by seq
	`, accountID, bank.OperationWithdraw, cutoff)
	if err != nil {
		return nil, storeErr("WithdrawalsSince", err)
	}
	out, err := s.collectTransactions(rows)
	if err != nil {
		return nil, storeErr("WithdrawalsSince", err)
	}
	return out, nil
}

// ApplyMovement writes the balance and appends the transaction in one SQL
// transaction. The balance update is guarded by the account's version: zero
// rows affected means either the account vanished (not found) or a concurrent
// writer got there first (conflict).
func (s *Store) ApplyMovement(ctx context.Context, a bank.Account, t bank.Transaction) (bank.Account, bank.Transaction, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return bank.Account{}, bank.Transaction{}, storeErr("ApplyMovement: begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		update accounts set balance_minor = $1, version = version + 1
		where id = $2 and version = $3
	`, bank.Minor(a.Balance), a.ID, a.Version)
	if err != nil {
		return bank.Account{}, bank.Transaction{}, storeErr("ApplyMovement: balance", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `select exists(select 1 from accounts where id = $1)`, a.ID).Scan(&exists); err != nil {
			return bank.Account{}, bank.Transaction{}, storeErr("ApplyMovement: exists", err)
		}
		if !exists {
			return bank.Account{}, bank.Transaction{}, errs.ErrNotFound
		}
		return bank.Account{}, bank.Transaction{}, errs.ErrConflict
	}

	if err := tx.QueryRow(ctx, `
		insert into transactions (id, account_id, amount_minor, operation, created_at)
		values ($1, $2, $3, $4, $5)
		returning seq
	`, t.ID, t.AccountID, bank.Minor(t.Amount), t.Operation, t.CreatedAt).Scan(&t.Seq); err != nil {
		return bank.Account{}, bank.Transaction{}, storeErr("ApplyMovement: append", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return bank.Account{}, bank.Transaction{}, storeErr("ApplyMovement: commit", err)
	}
	a.Version++
	return a, t, nil
}

// --- Idempotency ---

func (s *Store) MovementByIdempotencyKey(ctx context.Context, accountID uuid.UUID, key string) (bank.Transaction, bool, error) {
	row := s.pool.QueryRow(ctx, `
		select t.id, t.seq, t.account_id, t.amount_minor, t.operation, t.created_at
		from movement_idempotency mi
		join transactions t on t.id = mi.transaction_id
		where mi.account_id = $1 and mi.idem_key = $2
	`, accountID, key)
	t, err := s.scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return bank.Transaction{}, false, nil
	}
	if err != nil {
		return bank.Transaction{}, false, storeErr("MovementByIdempotencyKey", err)
	}
	return t, true, nil
}

func (s *Store) SaveMovementIdempotencyKey(ctx context.Context, accountID uuid.UUID, key string, transactionID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		insert into movement_idempotency (account_id, idem_key, transaction_id)
		values ($1, $2, $3)
		on conflict (account_id, idem_key) do nothing
	`, accountID, key, transactionID)
	if err != nil {
		return storeErr("SaveMovementIdempotencyKey", err)
	}
	return nil
}
