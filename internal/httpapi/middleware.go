package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/govalues/money"

	"github.com/jpdiniz/bank/internal/bank"
	"github.com/jpdiniz/bank/internal/errs"
	"github.com/jpdiniz/bank/internal/service/account"
	"github.com/jpdiniz/bank/internal/service/customer"
)

type ctxKey string

const (
	ctxKeyCreateAccount ctxKey = "parsedCreateAccount"
	ctxKeyMovement      ctxKey = "parsedMovement"
)

// parseCreateAccount decodes and shapes the POST /accounts body and stores
// the service input in the request context. Business validation stays in the
// account service, which aggregates field errors.
func (s *Server) parseCreateAccount() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req createAccountRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			in := account.CreateInput{
				Type:       bank.AccountType(strings.ToLower(strings.TrimSpace(req.Type))),
				CustomerID: req.CustomerID,
			}
			if req.Customer != nil {
				in.Customer = &customer.CreateInput{
					Name:       req.Customer.Name,
					DocumentID: req.Customer.DocumentID,
					BirthDate:  req.Customer.BirthDate,
				}
			}
			ctx := context.WithValue(r.Context(), ctxKeyCreateAccount, in)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseMovement decodes the deposit/withdraw body and parses the amount as a
// fixed-point decimal in the configured currency. Positivity is enforced by
// the teller so the exact contract lives in one place.
func (s *Server) parseMovement() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req movementRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			raw := strings.TrimSpace(string(req.Amount))
			if raw == "" || raw == "null" {
				writeDomainErr(w, errs.Invalid("amount", "is required"))
				return
			}
			amt, err := bank.ParseAmount(s.opts.Currency, raw)
			if err != nil {
				if errors.Is(err, bank.ErrAmountScale) {
					writeDomainErr(w, errs.Invalid("amount", "must have at most two decimal places"))
					return
				}
				writeDomainErr(w, errs.Invalid("amount", "must be a decimal number"))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyMovement, amt)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// movementAmount pulls the parsed amount back out of the context.
func movementAmount(r *http.Request) (money.Amount, bool) {
	amt, ok := r.Context().Value(ctxKeyMovement).(money.Amount)
	return amt, ok
}
