package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/just-ease/justease-api/internal/application/caseintake"
	"github.com/just-ease/justease-api/internal/domain"
	"github.com/just-ease/justease-api/internal/pkg/validate"
	"github.com/just-ease/justease-api/internal/transport/http/middleware"
)

// CaseHandler handles case filing and lookup.
type CaseHandler struct {
	svc caseintake.Service
}

func NewCaseHandler(svc caseintake.Service) *CaseHandler {
	return &CaseHandler{svc: svc}
}

func (h *CaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	var req domain.CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	c, err := h.svc.Create(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message string       `json:"message"`
		Case    *domain.Case `json:"case"`
	}{
		Message: "Case filed successfully.",
		Case:    c,
	})
}

func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	cases, err := h.svc.ListOwn(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Cases []domain.Case `json:"cases"`
	}{Cases: cases})
}

func (h *CaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	caseID := chi.URLParam(r, "id")
	c, err := h.svc.Get(r.Context(), caseID, claims.UserID, claims.Role)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Case *domain.Case `json:"case"`
	}{Case: c})
}

// Explore lists pending cases. The router restricts it to lawyers.
func (h *CaseHandler) Explore(w http.ResponseWriter, r *http.Request) {
	cases, err := h.svc.Explore(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Cases []domain.Case `json:"cases"`
	}{Cases: cases})
}
