package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/jpdiniz/bank/internal/bank"
	"github.com/jpdiniz/bank/internal/config"
	"github.com/jpdiniz/bank/internal/httpapi"
	"github.com/jpdiniz/bank/internal/service/teller"
	"github.com/jpdiniz/bank/internal/storage/memory"
	pgstore "github.com/jpdiniz/bank/internal/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logger := buildLogger(cfg)
	slog.SetDefault(logger)

	limit, err := bank.ParseAmount(cfg.Currency, cfg.DailyWithdrawalLimit)
	if err != nil {
		logger.Error("invalid DAILY_WITHDRAWAL_LIMIT", "err", err)
		os.Exit(1)
	}
	opts := httpapi.Options{
		Currency:             cfg.Currency,
		DailyWithdrawalLimit: limit,
		Policy: teller.Policy{
			EnforceSufficientFunds: cfg.EnforceSufficientFunds,
			EnforceDailyLimit:      cfg.EnforceDailyLimit,
			RejectInactive:         cfg.RejectInactive,
		},
	}

	var store httpapi.Store
	var closeFn func()

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		pg, err := pgstore.Open(ctx, dsn, cfg.Currency)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = pg.Close
		store = pg
		logger.Info("storage backend: postgres")
	} else {
		mem := memory.New()
		if cfg.DevSeed {
			seedDev(mem, cfg.Currency, limit, logger)
		}
		store = mem
		logger.Info("storage backend: memory")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.New(store, logger, opts).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bank service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

// seedDev inserts a customer with one checking account for quick local
// testing and logs the ids.
func seedDev(mem *memory.Store, currency string, limit money.Amount, logger *slog.Logger) {
	c := bank.Customer{
		ID:         uuid.New(),
		Name:       "Dev Customer",
		DocumentID: "00000000000",
		BirthDate:  time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:  time.Now().UTC(),
	}
	a := bank.Account{
		ID:                   uuid.New(),
		CustomerID:           c.ID,
		Type:                 bank.AccountTypeChecking,
		Balance:              bank.Zero(currency),
		DailyWithdrawalLimit: limit,
		Active:               true,
		CreatedAt:            time.Now().UTC(),
	}
	mem.SeedCustomer(c)
	mem.SeedAccount(a)
	logger.Info("DEV seed (memory)", "customer_id", c.ID.String(), "account_id", a.ID.String())
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}
	if strings.ToLower(cfg.LogFormat) == "text" || cfg.AppEnv == "development" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
