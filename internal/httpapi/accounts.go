// Account handlers: create, read, deactivate.
package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jpdiniz/bank/internal/service/account"
)

func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(ctxKeyCreateAccount)
	in, ok := v.(account.CreateInput)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "parsed request missing", "internal_error")
		return
	}
	acc, err := s.accounts.Create(r.Context(), in)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	c, err := s.store.GetCustomer(r.Context(), acc.CustomerID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toAccountResponse(acc, c))
}

// getAccount handles GET /v1/accounts/{id}.
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	acc, err := s.accounts.Get(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	c, err := s.store.GetCustomer(r.Context(), acc.CustomerID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(acc, c))
}

// blockAccount deactivates the account. Blocking an already inactive account
// succeeds silently.
func (s *Server) blockAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	if err := s.accounts.Deactivate(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// accountID parses the {id} route param, answering 400 on garbage.
func accountID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid account id")
		return uuid.Nil, false
	}
	return id, true
}
