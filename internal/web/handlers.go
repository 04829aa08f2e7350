package web

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mailprobe/mailprobe/internal/domain"
	"github.com/mailprobe/mailprobe/internal/ingestion"
)

type uploadPayload struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	EmailColumn string `json:"emailColumn"`
}

func (h *Handler) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload uploadPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Filename) == "" {
		http.Error(w, "filename is required", http.StatusBadRequest)
		return
	}

	content, err := base64.StdEncoding.DecodeString(payload.Content)
	if err != nil {
		http.Error(w, fmt.Sprintf("content must be base64 encoded: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.ingestion.Ingest(r.Context(), ingestion.Request{
		Filename:    payload.Filename,
		EmailColumn: payload.EmailColumn,
		Data:        bytes.NewReader(content),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleListUploads(w http.ResponseWriter, r *http.Request) {
	uploads, err := h.report.ListUploads(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploads)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	uploadID, ok := parseUploadID(w, r)
	if !ok {
		return
	}

	message, err := h.validation.Start(r.Context(), uploadID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"message": message})
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	uploadID, ok := parseUploadID(w, r)
	if !ok {
		return
	}

	results, err := h.report.GetResults(r.Context(), uploadID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	uploadID, ok := parseUploadID(w, r)
	if !ok {
		return
	}

	download, err := h.report.DownloadCSV(r.Context(), uploadID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, download)
}

func parseUploadID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "uploadID")
	uploadID, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: invalid upload id %q", domain.ErrNotFound, raw))
		return uuid.Nil, false
	}
	return uploadID, true
}
