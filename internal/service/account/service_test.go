package account

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpdiniz/bank/internal/bank"
	"github.com/jpdiniz/bank/internal/errs"
	"github.com/jpdiniz/bank/internal/service/customer"
	"github.com/jpdiniz/bank/internal/storage/memory"
)

func newService() (Service, *memory.Store) {
	store := memory.New()
	customers := customer.New(store, store)
	opts := Options{Currency: "BRL", DailyWithdrawalLimit: bank.MustAmount("BRL", 50000)}
	return New(store, store, customers, opts), store
}

func anaInput() *customer.CreateInput {
	return &customer.CreateInput{Name: "Ana", DocumentID: "12345678900", BirthDate: "1990-03-15"}
}

func TestCreate_InlineCustomer(t *testing.T) {
	svc, store := newService()

	acc, err := svc.Create(context.Background(), CreateInput{
		Type:     bank.AccountTypeSavings,
		Customer: anaInput(),
	})
	require.NoError(t, err)
	assert.Equal(t, bank.AccountTypeSavings, acc.Type)
	assert.True(t, acc.Active)
	assert.Equal(t, int64(0), bank.Minor(acc.Balance))
	assert.Equal(t, int64(50000), bank.Minor(acc.DailyWithdrawalLimit))

	c, err := store.GetCustomer(context.Background(), acc.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.Name)

	got, err := svc.Get(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
}

func TestCreate_ExistingCustomer(t *testing.T) {
	svc, store := newService()

	c := bank.Customer{ID: uuid.New(), Name: "Ana", DocumentID: "12345678900"}
	store.SeedCustomer(c)

	acc, err := svc.Create(context.Background(), CreateInput{
		Type:       bank.AccountTypeChecking,
		CustomerID: c.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, c.ID, acc.CustomerID)
}

func TestCreate_UnknownCustomerRef(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Create(context.Background(), CreateInput{
		Type:       bank.AccountTypeChecking,
		CustomerID: uuid.New(),
	})
	var verr *errs.Validation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "customer_id", verr.Fields[0].Field)
}

func TestCreate_InvalidTypeAndMissingCustomer(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Create(context.Background(), CreateInput{Type: "gold"})
	var verr *errs.Validation
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "type", verr.Fields[0].Field)
	assert.Equal(t, "customer", verr.Fields[1].Field)
}

func TestCreate_InlineCustomerViolationsArePrefixed(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Create(context.Background(), CreateInput{
		Type:     bank.AccountTypeChecking,
		Customer: &customer.CreateInput{BirthDate: "soon"},
	})
	var verr *errs.Validation
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 3)
	for _, f := range verr.Fields {
		assert.Contains(t, []string{"customer.name", "customer.document_id", "customer.birth_date"}, f.Field)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = svc.Get(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeactivate_Idempotent(t *testing.T) {
	svc, store := newService()

	acc, err := svc.Create(context.Background(), CreateInput{
		Type:     bank.AccountTypeChecking,
		Customer: anaInput(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), acc.ID))
	require.NoError(t, svc.Deactivate(context.Background(), acc.ID))

	got, err := store.GetAccount(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestDeactivate_NotFound(t *testing.T) {
	svc, _ := newService()
	assert.ErrorIs(t, svc.Deactivate(context.Background(), uuid.New()), errs.ErrNotFound)
}
