package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/just-ease/justease-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps login and refresh responses.
type AuthEnvelope struct {
	Message      string          `json:"message,omitempty"`
	AccessToken  string          `json:"token,omitempty"`
	RefreshToken string          `json:"refresh,omitempty"`
	User         *domain.Summary `json:"user,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// SessionEnvelope wraps current-session responses.
type SessionEnvelope struct {
	Session *domain.Session `json:"session,omitempty"`
	User    *domain.Summary `json:"user,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain error kinds to HTTP statuses. Each kind keeps its
// own message so clients can render a specific failure reason.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountExists):
		writeError(w, http.StatusConflict, domain.ErrAccountExists.Error())
	case errors.Is(err, domain.ErrNoOTPFound):
		writeError(w, http.StatusBadRequest, domain.ErrNoOTPFound.Error())
	case errors.Is(err, domain.ErrOTPExpired):
		writeError(w, http.StatusBadRequest, domain.ErrOTPExpired.Error())
	case errors.Is(err, domain.ErrOTPMismatch):
		writeError(w, http.StatusBadRequest, domain.ErrOTPMismatch.Error())
	case errors.Is(err, domain.ErrDeliveryFailed):
		writeError(w, http.StatusBadGateway, domain.ErrDeliveryFailed.Error())
	case errors.Is(err, domain.ErrNoSuchUser):
		writeError(w, http.StatusUnauthorized, domain.ErrNoSuchUser.Error())
	case errors.Is(err, domain.ErrEmailNotVerified):
		writeError(w, http.StatusUnauthorized, domain.ErrEmailNotVerified.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error())
	case errors.Is(err, domain.ErrUnrecognizedRole):
		writeError(w, http.StatusUnauthorized, domain.ErrUnrecognizedRole.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func summaryOf(u *domain.User) *domain.Summary {
	if u == nil {
		return nil
	}
	s := u.Summary()
	return &s
}
