// Movement handlers: deposit and withdraw.
package httpapi

import (
	"net/http"

	"github.com/jpdiniz/bank/internal/bank"
)

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	s.movement(w, r, bank.OperationDeposit)
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	s.movement(w, r, bank.OperationWithdraw)
}

func (s *Server) movement(w http.ResponseWriter, r *http.Request, op bank.Operation) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	amt, ok := movementAmount(r)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "parsed amount missing", "internal_error")
		return
	}
	// Optional: replaying the same Idempotency-Key returns the original
	// transaction instead of moving the balance again.
	key := r.Header.Get("Idempotency-Key")

	var (
		acc      bank.Account
		t        bank.Transaction
		replayed bool
		err      error
	)
	switch op {
	case bank.OperationDeposit:
		acc, t, replayed, err = s.teller.DepositWithKey(r.Context(), id, amt, key)
	case bank.OperationWithdraw:
		acc, t, replayed, err = s.teller.WithdrawWithKey(r.Context(), id, amt, key)
	}
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	toJSON(w, status, movementResponse{
		Transaction:  toTransactionResponse(t),
		Balance:      bank.FormatMinor(bank.Minor(acc.Balance)),
		BalanceMinor: bank.Minor(acc.Balance),
	})
}
