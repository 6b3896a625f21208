// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

// Config carries everything the process needs at startup. Policy toggles
// default to off, which preserves the permissive deposit/withdraw contract
// (withdrawals may drive the balance negative and the daily limit is
// declared but not checked).
type Config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	Currency             string `env:"CURRENCY" envDefault:"BRL"`
	DailyWithdrawalLimit string `env:"DAILY_WITHDRAWAL_LIMIT" envDefault:"500.00"`

	EnforceSufficientFunds bool `env:"ENFORCE_SUFFICIENT_FUNDS" envDefault:"false"`
	EnforceDailyLimit      bool `env:"ENFORCE_DAILY_LIMIT" envDefault:"false"`
	RejectInactive         bool `env:"REJECT_INACTIVE" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	AppEnv    string `env:"APP_ENV" envDefault:"production"`
	DevSeed   bool   `env:"DEV_SEED" envDefault:"false"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
