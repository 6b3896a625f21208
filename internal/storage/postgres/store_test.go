package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jpdiniz/bank/internal/bank"
	"github.com/jpdiniz/bank/internal/errs"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T, dsn string) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn, "BRL")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func applyInitSQL(t *testing.T, dsn string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s := mustOpen(t, dsn)
	defer s.Close()
	// Resolve the init SQL path relative to this test file so CWD doesn't matter
	_, thisFile, _, _ := runtime.Caller(0)
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "../../../"))
	path := filepath.Join(repoRoot, "db", "migrations", "0001_init.sql")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read init sql: %v", err)
	}
	if _, err := s.pool.Exec(ctx, string(b)); err != nil {
		t.Fatalf("apply init sql: %v", err)
	}
}

func truncateAll(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.pool.Exec(ctx, `truncate movement_idempotency, transactions, accounts, customers`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func seedAccount(t *testing.T, s *Store) bank.Account {
	t.Helper()
	ctx := context.Background()
	c := bank.Customer{
		ID:         uuid.New(),
		Name:       "Ana",
		DocumentID: uuid.NewString(),
		BirthDate:  time.Date(1990, 3, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt:  time.Now().UTC(),
	}
	a := bank.Account{
		ID:                   uuid.New(),
		CustomerID:           c.ID,
		Type:                 bank.AccountTypeChecking,
		Balance:              bank.Zero("BRL"),
		DailyWithdrawalLimit: bank.MustAmount("BRL", 50000),
		Active:               true,
		CreatedAt:            time.Now().UTC(),
	}
	if _, err := s.CreateAccountWithCustomer(ctx, c, a); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

func TestStore_CustomerRoundTrip(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	s := mustOpen(t, dsn)
	defer s.Close()
	truncateAll(t, s)
	ctx := context.Background()

	c := bank.Customer{
		ID:         uuid.New(),
		Name:       "Ana",
		DocumentID: "12345678900",
		BirthDate:  time.Date(1990, 3, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.CreateCustomer(ctx, c); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	got, err := s.GetCustomer(ctx, c.ID)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if got.Name != "Ana" || got.DocumentID != "12345678900" {
		t.Fatalf("unexpected customer: %+v", got)
	}
	byDoc, err := s.CustomerByDocument(ctx, "12345678900")
	if err != nil {
		t.Fatalf("by document: %v", err)
	}
	if byDoc.ID != c.ID {
		t.Fatalf("expected %s, got %s", c.ID, byDoc.ID)
	}
	if _, err := s.GetCustomer(ctx, uuid.New()); err != errs.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_AccountRoundTrip(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	s := mustOpen(t, dsn)
	defer s.Close()
	truncateAll(t, s)
	ctx := context.Background()

	a := seedAccount(t, s)
	got, err := s.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if bank.Minor(got.Balance) != 0 || !got.Active || got.Version != 0 {
		t.Fatalf("unexpected account: %+v", got)
	}

	if err := s.SetAccountActive(ctx, a.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	got, err = s.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.Active {
		t.Fatal("expected inactive account")
	}
	if err := s.SetAccountActive(ctx, uuid.New(), false); err != errs.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ApplyMovement(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	s := mustOpen(t, dsn)
	defer s.Close()
	truncateAll(t, s)
	ctx := context.Background()

	a := seedAccount(t, s)
	a.Balance = bank.MustAmount("BRL", 10000)
	tx := bank.Transaction{
		ID:        uuid.New(),
		AccountID: a.ID,
		Amount:    bank.MustAmount("BRL", 10000),
		Operation: bank.OperationDeposit,
		CreatedAt: time.Now().UTC(),
	}
	updated, saved, err := s.ApplyMovement(ctx, a, tx)
	if err != nil {
		t.Fatalf("apply movement: %v", err)
	}
	if updated.Version != 1 {
		t.Fatalf("expected version 1, got %d", updated.Version)
	}
	if saved.Seq == 0 {
		t.Fatal("expected seq to be assigned")
	}

	// The caller's copy is stale now: same write again must conflict.
	stale := a
	stale.Balance = bank.MustAmount("BRL", 20000)
	tx.ID = uuid.New()
	if _, _, err := s.ApplyMovement(ctx, stale, tx); err != errs.ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := s.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if bank.Minor(got.Balance) != 10000 {
		t.Fatalf("expected balance 10000, got %d", bank.Minor(got.Balance))
	}
	txs, err := s.TransactionsByAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}

	missing := bank.Account{ID: uuid.New(), Balance: bank.Zero("BRL")}
	tx.ID = uuid.New()
	tx.AccountID = missing.ID
	if _, _, err := s.ApplyMovement(ctx, missing, tx); err != errs.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_TransactionQueries(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	s := mustOpen(t, dsn)
	defer s.Close()
	truncateAll(t, s)
	ctx := context.Background()

	a := seedAccount(t, s)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ops := []bank.Operation{bank.OperationDeposit, bank.OperationWithdraw, bank.OperationWithdraw}
	for i, op := range ops {
		tx := bank.Transaction{
			ID:        uuid.New(),
			AccountID: a.ID,
			Amount:    bank.MustAmount("BRL", int64(100*(i+1))),
			Operation: op,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if _, err := s.AppendTransaction(ctx, tx); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	txs, err := s.TransactionsByAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("by account: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].Seq <= txs[i-1].Seq {
			t.Fatalf("seq not increasing: %d then %d", txs[i-1].Seq, txs[i].Seq)
		}
	}

	// Inclusive range over the first two records.
	period, err := s.TransactionsByPeriod(ctx, base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("by period: %v", err)
	}
	if len(period) != 2 {
		t.Fatalf("expected 2 transactions in period, got %d", len(period))
	}

	withdrawn, err := s.WithdrawalsSince(ctx, a.ID, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("withdrawals: %v", err)
	}
	if len(withdrawn) != 1 {
		t.Fatalf("expected 1 withdrawal, got %d", len(withdrawn))
	}
}

func TestStore_IdempotencyKeys(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	s := mustOpen(t, dsn)
	defer s.Close()
	truncateAll(t, s)
	ctx := context.Background()

	a := seedAccount(t, s)
	tx := bank.Transaction{
		ID:        uuid.New(),
		AccountID: a.ID,
		Amount:    bank.MustAmount("BRL", 100),
		Operation: bank.OperationDeposit,
		CreatedAt: time.Now().UTC(),
	}
	saved, err := s.AppendTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, ok, err := s.MovementByIdempotencyKey(ctx, a.ID, "k"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := s.SaveMovementIdempotencyKey(ctx, a.ID, "k", saved.ID); err != nil {
		t.Fatalf("save key: %v", err)
	}
	// Saving again is a no-op.
	if err := s.SaveMovementIdempotencyKey(ctx, a.ID, "k", uuid.New()); err != nil {
		t.Fatalf("save key again: %v", err)
	}
	got, ok, err := s.MovementByIdempotencyKey(ctx, a.ID, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.ID != saved.ID {
		t.Fatalf("expected %s, got %s", saved.ID, got.ID)
	}
}
