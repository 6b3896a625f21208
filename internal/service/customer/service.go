// Package customer implements the customer registry: identity records are
// validated field by field and are immutable once created.
package customer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jpdiniz/bank/internal/bank"
	"github.com/jpdiniz/bank/internal/errs"
)

// BirthDateLayout is the accepted wire format for birth dates.
const BirthDateLayout = "2006-01-02"

// Repo defines the read operations needed by the service.
type Repo interface {
	CustomerByDocument(ctx context.Context, documentID string) (bank.Customer, error)
}

// Writer defines the write operations needed by the service.
type Writer interface {
	CreateCustomer(ctx context.Context, c bank.Customer) (bank.Customer, error)
}

// CreateInput is the raw creation payload. BirthDate is kept as a string so
// that parse failures surface as field-level validation errors.
type CreateInput struct {
	Name       string
	DocumentID string
	BirthDate  string
}

// Service validates and creates customers.
type Service interface {
	Create(ctx context.Context, in CreateInput) (bank.Customer, error)
	// Prepare validates in and returns the unsaved record, letting callers
	// persist it atomically with other writes (account creation couples both).
	Prepare(ctx context.Context, in CreateInput) (bank.Customer, error)
}

type service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

func (s *service) Create(ctx context.Context, in CreateInput) (bank.Customer, error) {
	c, err := s.Prepare(ctx, in)
	if err != nil {
		return bank.Customer{}, err
	}
	return s.writer.CreateCustomer(ctx, c)
}

func (s *service) Prepare(ctx context.Context, in CreateInput) (bank.Customer, error) {
	v := &errs.Validation{}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		v.Add("name", "is required")
	}
	doc := strings.TrimSpace(in.DocumentID)
	if doc == "" {
		v.Add("document_id", "is required")
	}
	var birth time.Time
	switch {
	case strings.TrimSpace(in.BirthDate) == "":
		v.Add("birth_date", "is required")
	default:
		t, err := time.Parse(BirthDateLayout, strings.TrimSpace(in.BirthDate))
		switch {
		case err != nil:
			v.Add("birth_date", "must be a date in YYYY-MM-DD format")
		case !t.Before(time.Now()):
			v.Add("birth_date", "must be in the past")
		default:
			birth = t
		}
	}
	if err := v.Err(); err != nil {
		return bank.Customer{}, err
	}

	// Shape checks passed; now enforce document_id uniqueness.
	_, err := s.repo.CustomerByDocument(ctx, doc)
	switch {
	case err == nil:
		return bank.Customer{}, errs.Invalid("document_id", "already registered")
	case !errors.Is(err, errs.ErrNotFound):
		return bank.Customer{}, err
	}

	return bank.Customer{
		ID:         uuid.New(),
		Name:       name,
		DocumentID: doc,
		BirthDate:  birth,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
