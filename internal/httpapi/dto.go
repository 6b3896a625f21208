package httpapi

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jpdiniz/bank/internal/bank"
	"github.com/jpdiniz/bank/internal/service/customer"
)

type customerPayload struct {
	Name       string `json:"name"`
	DocumentID string `json:"document_id"`
	BirthDate  string `json:"birth_date"`
}

// createAccountRequest carries either an inline customer payload (created
// atomically with the account, the classic behavior) or a reference to an
// existing customer.
type createAccountRequest struct {
	Type       string           `json:"type"`
	CustomerID uuid.UUID        `json:"customer_id,omitempty"`
	Customer   *customerPayload `json:"customer,omitempty"`
}

// amountField accepts a JSON string or a bare number and keeps the raw text
// so the amount is parsed as a fixed-point decimal, never a float.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	*a = amountField(bytes.TrimSpace(b))
	return nil
}

type movementRequest struct {
	Amount amountField `json:"amount"`
}

type customerResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	DocumentID string    `json:"document_id"`
	BirthDate  string    `json:"birth_date"`
}

type accountResponse struct {
	ID                   uuid.UUID        `json:"id"`
	Customer             customerResponse `json:"customer"`
	Type                 bank.AccountType `json:"type"`
	Balance              string           `json:"balance"`
	BalanceMinor         int64            `json:"balance_minor"`
	DailyWithdrawalLimit string           `json:"daily_withdrawal_limit"`
	Active               bool             `json:"active"`
	CreatedAt            time.Time        `json:"created_at"`
}

type transactionResponse struct {
	ID          uuid.UUID      `json:"id"`
	Seq         int64          `json:"seq"`
	AccountID   uuid.UUID      `json:"account"`
	Amount      string         `json:"amount"`
	AmountMinor int64          `json:"amount_minor"`
	Operation   bank.Operation `json:"operation"`
	CreatedAt   time.Time      `json:"created_at"`
}

// movementResponse echoes the created transaction together with the balance
// it produced.
type movementResponse struct {
	Transaction  transactionResponse `json:"transaction"`
	Balance      string              `json:"balance"`
	BalanceMinor int64               `json:"balance_minor"`
}

func toCustomerResponse(c bank.Customer) customerResponse {
	return customerResponse{
		ID:         c.ID,
		Name:       c.Name,
		DocumentID: c.DocumentID,
		BirthDate:  c.BirthDate.Format(customer.BirthDateLayout),
	}
}

func toAccountResponse(a bank.Account, c bank.Customer) accountResponse {
	return accountResponse{
		ID:                   a.ID,
		Customer:             toCustomerResponse(c),
		Type:                 a.Type,
		Balance:              bank.FormatMinor(bank.Minor(a.Balance)),
		BalanceMinor:         bank.Minor(a.Balance),
		DailyWithdrawalLimit: bank.FormatMinor(bank.Minor(a.DailyWithdrawalLimit)),
		Active:               a.Active,
		CreatedAt:            a.CreatedAt,
	}
}

func toTransactionResponse(t bank.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Seq:         t.Seq,
		AccountID:   t.AccountID,
		Amount:      bank.FormatMinor(bank.Minor(t.Amount)),
		AmountMinor: bank.Minor(t.Amount),
		Operation:   t.Operation,
		CreatedAt:   t.CreatedAt,
	}
}
