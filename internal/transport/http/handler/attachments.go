package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/just-ease/justease-api/internal/application/attachment"
	"github.com/just-ease/justease-api/internal/domain"
	"github.com/just-ease/justease-api/internal/transport/http/middleware"
)

// 25 MiB cap per upload.
const maxUploadBytes = 25 << 20

// AttachmentHandler handles case evidence upload and download.
type AttachmentHandler struct {
	svc attachment.Service
}

func NewAttachmentHandler(svc attachment.Service) *AttachmentHandler {
	return &AttachmentHandler{svc: svc}
}

func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	caseID := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	a, err := h.svc.Upload(r.Context(), attachment.UploadInput{
		CaseID:      caseID,
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		UploaderID:  claims.UserID,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message    string             `json:"message"`
		Attachment *domain.Attachment `json:"attachment"`
	}{
		Message:    "Attachment uploaded successfully.",
		Attachment: a,
	})
}

func (h *AttachmentHandler) ListByCase(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	caseID := chi.URLParam(r, "id")
	attachments, err := h.svc.ListByCase(r.Context(), caseID, claims.UserID, claims.Role)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Attachments []domain.Attachment `json:"attachments"`
	}{Attachments: attachments})
}

func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	attachmentID := chi.URLParam(r, "id")
	rc, a, err := h.svc.Download(r.Context(), attachmentID, claims.UserID, claims.Role)
	if err != nil {
		httpError(w, err)
		return
	}
	defer rc.Close()

	if a.Type != "" {
		w.Header().Set("Content-Type", a.Type)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
	if a.Size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", a.Size))
	}
	_, _ = io.Copy(w, rc)
}
