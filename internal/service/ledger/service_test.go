package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpdiniz/bank/internal/bank"
	"github.com/jpdiniz/bank/internal/errs"
	"github.com/jpdiniz/bank/internal/storage/memory"
)

func newService() (Service, *memory.Store, bank.Account) {
	store := memory.New()
	acc := bank.Account{
		ID:        uuid.New(),
		Type:      bank.AccountTypeChecking,
		Balance:   bank.Zero("BRL"),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	store.SeedAccount(acc)
	return New(store, store), store, acc
}

func TestRecord(t *testing.T) {
	svc, _, acc := newService()

	tx, err := svc.Record(context.Background(), acc.ID, bank.MustAmount("BRL", 10000), bank.OperationDeposit)
	require.NoError(t, err)
	assert.NotZero(t, tx.ID)
	assert.Equal(t, int64(1), tx.Seq)
	assert.Equal(t, acc.ID, tx.AccountID)
	assert.Equal(t, int64(10000), bank.Minor(tx.Amount))
}

func TestRecord_RejectsNonPositiveAmount(t *testing.T) {
	svc, _, acc := newService()

	for _, minor := range []int64{0, -500} {
		_, err := svc.Record(context.Background(), acc.ID, bank.MustAmount("BRL", minor), bank.OperationDeposit)
		var verr *errs.Validation
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "amount", verr.Fields[0].Field)
		assert.Equal(t, "must be greater than zero", verr.Fields[0].Message)
	}
}

func TestRecord_RejectsUnknownOperation(t *testing.T) {
	svc, _, acc := newService()

	_, err := svc.Record(context.Background(), acc.ID, bank.MustAmount("BRL", 100), bank.Operation("transfer"))
	var verr *errs.Validation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "operation", verr.Fields[0].Field)
}

func TestRecord_UnknownAccount(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Record(context.Background(), uuid.New(), bank.MustAmount("BRL", 100), bank.OperationDeposit)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestListByAccount_OldestFirst(t *testing.T) {
	svc, _, acc := newService()

	first, err := svc.Record(context.Background(), acc.ID, bank.MustAmount("BRL", 10000), bank.OperationDeposit)
	require.NoError(t, err)
	second, err := svc.Record(context.Background(), acc.ID, bank.MustAmount("BRL", 3000), bank.OperationWithdraw)
	require.NoError(t, err)

	txs, err := svc.ListByAccount(context.Background(), acc.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, first.ID, txs[0].ID)
	assert.Equal(t, second.ID, txs[1].ID)
	assert.Less(t, txs[0].Seq, txs[1].Seq)
}

func TestListByAccount_EmptyForUnknownAccount(t *testing.T) {
	svc, _, _ := newService()

	txs, err := svc.ListByAccount(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestListByPeriod_InclusiveBounds(t *testing.T) {
	svc, store, acc := newService()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		tx := bank.Transaction{
			ID:        uuid.New(),
			AccountID: acc.ID,
			Amount:    bank.MustAmount("BRL", 100),
			Operation: bank.OperationDeposit,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		saved, err := store.AppendTransaction(context.Background(), tx)
		require.NoError(t, err)
		ids = append(ids, saved.ID)
	}

	// Bounds land exactly on the first and second records.
	txs, err := svc.ListByPeriod(context.Background(), base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, ids[0], txs[0].ID)
	assert.Equal(t, ids[1], txs[1].ID)

	txs, err = svc.ListByPeriod(context.Background(), base.Add(3*time.Hour), base.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestListByPeriod_StartAfterEnd(t *testing.T) {
	svc, _, _ := newService()

	now := time.Now()
	_, err := svc.ListByPeriod(context.Background(), now, now.Add(-time.Hour))
	var verr *errs.Validation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "period", verr.Fields[0].Field)
}
