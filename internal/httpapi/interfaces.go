package httpapi

import (
	"context"

	"github.com/jpdiniz/bank/internal/service/account"
	"github.com/jpdiniz/bank/internal/service/customer"
	ledgersvc "github.com/jpdiniz/bank/internal/service/ledger"
	"github.com/jpdiniz/bank/internal/service/teller"
)

// Store is the full persistence surface the API needs. Both storage backends
// satisfy it.
type Store interface {
	customer.Repo
	customer.Writer
	account.Repo
	account.Writer
	ledgersvc.Repo
	ledgersvc.Writer
	teller.Repo
	teller.Writer
	teller.IdempotencyStore
}

// ReadyChecker is optionally implemented by stores to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}
