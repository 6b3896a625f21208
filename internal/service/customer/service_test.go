package customer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpdiniz/bank/internal/errs"
	"github.com/jpdiniz/bank/internal/storage/memory"
)

func newService() (Service, *memory.Store) {
	store := memory.New()
	return New(store, store), store
}

func TestCreate(t *testing.T) {
	svc, store := newService()

	c, err := svc.Create(context.Background(), CreateInput{
		Name:       "Ana",
		DocumentID: "12345678900",
		BirthDate:  "1990-03-15",
	})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, "Ana", c.Name)
	assert.Equal(t, "12345678900", c.DocumentID)
	assert.Equal(t, "1990-03-15", c.BirthDate.Format(BirthDateLayout))

	got, err := store.GetCustomer(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

func TestCreate_CollectsAllViolations(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Create(context.Background(), CreateInput{BirthDate: "soon"})
	require.Error(t, err)

	var verr *errs.Validation
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 3)

	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "document_id")
	assert.Contains(t, fields, "birth_date")
	assert.ErrorIs(t, err, errs.ErrInvalid)
}

func TestCreate_FutureBirthDate(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Create(context.Background(), CreateInput{
		Name:       "Ana",
		DocumentID: "12345678900",
		BirthDate:  "2999-01-01",
	})
	var verr *errs.Validation
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "birth_date", verr.Fields[0].Field)
}

func TestCreate_DuplicateDocument(t *testing.T) {
	svc, _ := newService()

	in := CreateInput{Name: "Ana", DocumentID: "12345678900", BirthDate: "1990-03-15"}
	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	in.Name = "Bia"
	_, err = svc.Create(context.Background(), in)
	var verr *errs.Validation
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "document_id", verr.Fields[0].Field)
}
