package handler

import (
	"encoding/json"
	"net/http"

	"github.com/just-ease/justease-api/internal/application/user"
	"github.com/just-ease/justease-api/internal/domain"
	"github.com/just-ease/justease-api/internal/pkg/validate"
)

// UserHandler handles account creation.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	u, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message string          `json:"message"`
		User    *domain.Summary `json:"user"`
	}{
		Message: "User created successfully.",
		User:    summaryOf(u),
	})
}
