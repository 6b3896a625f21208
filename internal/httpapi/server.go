// Package httpapi wires the HTTP surface of the bank service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/govalues/money"

	"github.com/jpdiniz/bank/internal/service/account"
	"github.com/jpdiniz/bank/internal/service/customer"
	ledgersvc "github.com/jpdiniz/bank/internal/service/ledger"
	"github.com/jpdiniz/bank/internal/service/teller"
)

// Options carry per-deployment defaults and policy toggles.
type Options struct {
	Currency             string
	DailyWithdrawalLimit money.Amount
	Policy               teller.Policy
}

// Server wires handlers and middleware using Chi.
// It composes read and write dependencies through the services.
type Server struct {
	accounts account.Service
	teller   teller.Service
	ledger   ledgersvc.Service
	store    Store
	opts     Options
	log      *slog.Logger
	rt       *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by basic request/response logging and panic recovery.
func New(store Store, logger *slog.Logger, opts Options) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	customers := customer.New(store, store)
	s := &Server{
		accounts: account.New(store, store, customers, account.Options{
			Currency:             opts.Currency,
			DailyWithdrawalLimit: opts.DailyWithdrawalLimit,
		}),
		teller: teller.New(store, store, store, opts.Policy),
		ledger: ledgersvc.New(store, store),
		store:  store,
		opts:   opts,
		log:    logger,
		rt:     r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route
// middleware.
func (s *Server) routes() {
	// Accounts
	s.rt.With(s.parseCreateAccount()).Post("/v1/accounts", s.postAccount)
	s.rt.Get("/v1/accounts/{id}", s.getAccount)
	s.rt.Post("/v1/accounts/{id}/block", s.blockAccount)
	// Movements
	s.rt.With(s.parseMovement()).Post("/v1/accounts/{id}/deposit", s.deposit)
	s.rt.With(s.parseMovement()).Post("/v1/accounts/{id}/withdraw", s.withdraw)
	// Transactions. The per-account route keeps the legacy overload: with
	// both dates present it answers the period query instead.
	s.rt.Get("/v1/accounts/{id}/transactions", s.listAccountTransactions)
	s.rt.Get("/v1/transactions", s.listTransactionsByPeriod)
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}
