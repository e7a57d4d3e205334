package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goliatone/go-ticketing/internal/auth"
	"github.com/goliatone/go-ticketing/internal/events"
	"github.com/goliatone/go-ticketing/internal/ledger"
	"github.com/goliatone/go-ticketing/pkg/domain"
)

// envelope is the uniform response body every endpoint returns.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Status: "success", Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Status: "success", Message: message})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Status: "error", Message: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeDomainError maps service errors onto HTTP status codes. Unrecognized
// errors surface as a generic 500 so internals never leak to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrSoldOut):
		writeError(w, http.StatusConflict, "ticket is sold out")
	case errors.Is(err, domain.ErrAlreadyScanned):
		writeError(w, http.StatusConflict, "ticket already scanned")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "concurrent update, retry the request")
	case errors.Is(err, domain.ErrDuplicate):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "not allowed")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, domain.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, auth.ErrMissingEmail),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrInvalidCapacity),
		errors.Is(err, ledger.ErrMissingType),
		errors.Is(err, events.ErrMissingName),
		errors.Is(err, events.ErrMissingOwner):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
