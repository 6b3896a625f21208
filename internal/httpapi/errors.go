package httpapi

import (
	"errors"
	"net/http"

	"github.com/jpdiniz/bank/internal/errs"
)

// errorResponse is the standard error payload for the API. Fields carries
// per-field detail for validation failures.
type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields []errs.FieldError `json:"fields,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }
func notFound(w http.ResponseWriter)               { writeErr(w, http.StatusNotFound, "not_found", "not_found") }

// writeDomainErr maps service errors onto the four error kinds the API
// reports: validation (with field detail), not found, conflict and
// unavailability. Anything else is an internal error.
func writeDomainErr(w http.ResponseWriter, err error) {
	var verr *errs.Validation
	switch {
	case errors.As(err, &verr):
		toJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  verr.Error(),
			Code:   "validation_error",
			Fields: verr.Fields,
		})
	case errors.Is(err, errs.ErrInsufficientFunds):
		writeErr(w, http.StatusUnprocessableEntity, "insufficient funds", "insufficient_funds")
	case errors.Is(err, errs.ErrLimitExceeded):
		writeErr(w, http.StatusUnprocessableEntity, "daily withdrawal limit exceeded", "limit_exceeded")
	case errors.Is(err, errs.ErrAccountInactive):
		writeErr(w, http.StatusUnprocessableEntity, "account is inactive", "account_inactive")
	case errors.Is(err, errs.ErrInvalid):
		writeErr(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
	case errors.Is(err, errs.ErrNotFound):
		notFound(w)
	case errors.Is(err, errs.ErrConflict):
		writeErr(w, http.StatusConflict, "concurrent update conflict, retry the operation", "conflict")
	case errors.Is(err, errs.ErrUnavailable):
		writeErr(w, http.StatusServiceUnavailable, "storage temporarily unavailable", "store_unavailable")
	default:
		writeErr(w, http.StatusInternalServerError, "internal error", "internal_error")
	}
}
