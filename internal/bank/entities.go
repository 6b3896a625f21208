// Package bank defines the core entities of the account ledger: customers,
// the accounts they hold and the append-only transaction log that records
// every balance movement.
package bank

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/govalues/money"
)

// AccountType enumerates the supported account products.
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
)

// Valid reports whether t is a recognized account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings:
		return true
	}
	return false
}

// Operation enumerates the direction of a monetary movement. Stored transaction
// amounts are always non-negative; the operation carries the sign of effect.
type Operation string

const (
	OperationDeposit  Operation = "deposit"
	OperationWithdraw Operation = "withdraw"
)

// Valid reports whether o is a recognized operation.
func (o Operation) Valid() bool {
	switch o {
	case OperationDeposit, OperationWithdraw:
		return true
	}
	return false
}

// Customer is the identity record that owns accounts. It is immutable after
// creation.
type Customer struct {
	ID         uuid.UUID
	Name       string
	DocumentID string
	BirthDate  time.Time
	CreatedAt  time.Time
}

// Account tracks the running balance for a customer. Balance is always the sum
// of the signed amounts of the account's transactions, kept at two decimal
// places.
type Account struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Type       AccountType
	Balance    money.Amount
	// DailyWithdrawalLimit caps cumulative withdrawals over a rolling 24h
	// window when limit enforcement is switched on.
	DailyWithdrawalLimit money.Amount
	Active               bool
	// Version increments on every balance write and backs the stores'
	// compare-and-swap update.
	Version   int64
	CreatedAt time.Time
}

// Transaction is one immutable entry of the audit trail. Entries are never
// mutated or deleted once appended.
type Transaction struct {
	ID uuid.UUID
	// Seq is assigned by the store at append time and totally orders the
	// ledger.
	Seq       int64
	AccountID uuid.UUID
	Amount    money.Amount
	Operation Operation
	CreatedAt time.Time
}

// SignedMinor returns the movement in minor units with the operation's sign
// applied: positive for deposits, negative for withdrawals.
func (t Transaction) SignedMinor() int64 {
	units, _ := t.Amount.MinorUnits()
	if t.Operation == OperationWithdraw {
		return -units
	}
	return units
}

// ErrAmountScale is returned by ParseAmount for values with more than two
// fractional digits.
var ErrAmountScale = errors.New("amount has more than two decimal places")

// ParseAmount parses a decimal string into an amount of the given currency.
// The value may carry at most two fractional digits.
func ParseAmount(curr, s string) (money.Amount, error) {
	d, err := decimal.Parse(s)
	if err != nil {
		return money.Amount{}, err
	}
	if d.MinScale() > 2 {
		return money.Amount{}, ErrAmountScale
	}
	whole, frac, ok := d.Round(2).Int64(2)
	if !ok {
		return money.Amount{}, errors.New("amount out of range")
	}
	return money.NewAmountFromMinorUnits(curr, whole*100+frac)
}

// MustAmount builds an amount from minor units and panics on an unknown
// currency. Intended for wiring and tests.
func MustAmount(curr string, units int64) money.Amount {
	a, err := money.NewAmountFromMinorUnits(curr, units)
	if err != nil {
		panic(err)
	}
	return a
}

// Zero returns the zero amount for a currency.
func Zero(curr string) money.Amount {
	return MustAmount(curr, 0)
}

// Minor returns a's minor units, e.g. 10050 for 100.50.
func Minor(a money.Amount) int64 {
	units, _ := a.MinorUnits()
	return units
}

// FormatMinor renders minor units as a two-decimal string, e.g. "100.50".
func FormatMinor(units int64) string {
	return decimal.MustNew(units, 2).String()
}
