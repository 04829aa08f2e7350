package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mailprobe/mailprobe/internal/domain"
	"github.com/mailprobe/mailprobe/internal/logging"
)

// errorResponse is the JSON body for failed requests.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError maps domain sentinel errors onto HTTP status codes and logs
// the technical error with the request ID for correlation.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classifyError(err)

	logger := logging.FromContext(r.Context())
	logger.Error("request error",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"code", code,
		"error", err.Error(),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: err.Error(),
		Code:  code,
	})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMalformedInput):
		return http.StatusBadRequest, "MALFORMED_INPUT"
	case errors.Is(err, domain.ErrColumnNotFound):
		return http.StatusBadRequest, "COLUMN_NOT_FOUND"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrAlreadyProcessing):
		return http.StatusConflict, "ALREADY_PROCESSING"
	case errors.Is(err, domain.ErrAlreadyCompleted):
		return http.StatusConflict, "ALREADY_COMPLETED"
	case errors.Is(err, domain.ErrUnrecoverableState):
		return http.StatusConflict, "UNRECOVERABLE_STATE"
	case errors.Is(err, domain.ErrNoRecords):
		return http.StatusConflict, "NO_RECORDS"
	case errors.Is(err, domain.ErrUploadStatusConflict):
		return http.StatusConflict, "STATUS_CONFLICT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
