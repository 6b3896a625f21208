// Transaction query handlers.
package httpapi

import (
	"net/http"
	"time"

	"github.com/jpdiniz/bank/internal/bank"
	"github.com/jpdiniz/bank/internal/errs"
)

const dateOnlyLayout = "2006-01-02"

// listAccountTransactions handles GET /v1/accounts/{id}/transactions.
// Without date params it returns the account's history oldest-first. With
// both dates present it keeps the legacy overload and answers the
// all-accounts period query instead.
func (s *Server) listAccountTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	startRaw, endRaw := q.Get("start_date"), q.Get("end_date")

	switch {
	case startRaw == "" && endRaw == "":
		txs, err := s.ledger.ListByAccount(r.Context(), id)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeTransactions(w, txs)
	case startRaw != "" && endRaw != "":
		s.periodQuery(w, r, startRaw, endRaw)
	default:
		badRequest(w, "start_date and end_date must be provided together")
	}
}

// listTransactionsByPeriod handles GET /v1/transactions, the explicit
// all-accounts period query.
func (s *Server) listTransactionsByPeriod(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.periodQuery(w, r, q.Get("start_date"), q.Get("end_date"))
}

func (s *Server) periodQuery(w http.ResponseWriter, r *http.Request, startRaw, endRaw string) {
	v := &errs.Validation{}
	start, err := parseBound(startRaw, false)
	if err != nil {
		v.Add("start_date", "must be a date (YYYY-MM-DD) or RFC3339 timestamp")
	}
	end, err := parseBound(endRaw, true)
	if err != nil {
		v.Add("end_date", "must be a date (YYYY-MM-DD) or RFC3339 timestamp")
	}
	if err := v.Err(); err != nil {
		writeDomainErr(w, err)
		return
	}
	txs, err := s.ledger.ListByPeriod(r.Context(), start, end)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeTransactions(w, txs)
}

// parseBound accepts RFC3339 or a bare date. A date-only end bound is
// inclusive through the end of that day.
func parseBound(raw string, end bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errs.ErrInvalid
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateOnlyLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t.UTC(), nil
}

func writeTransactions(w http.ResponseWriter, txs []bank.Transaction) {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	toJSON(w, http.StatusOK, out)
}
