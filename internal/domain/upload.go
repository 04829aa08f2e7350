package domain

import (
	"time"

	"github.com/google/uuid"
)

// UploadStatus captures lifecycle state for an uploaded contact file.
type UploadStatus string

const (
	UploadStatusUploaded   UploadStatus = "uploaded"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)

// Upload represents one submitted contact file and its processing lifecycle.
type Upload struct {
	ID               uuid.UUID    `json:"id"`
	Filename         string       `json:"filename"`
	OriginalFilename string       `json:"original_filename"`
	FileSize         int64        `json:"file_size"`
	TotalRows        int          `json:"total_rows"`
	EmailColumn      *string      `json:"email_column,omitempty"`
	Status           UploadStatus `json:"status"`
	CreatedAt        time.Time    `json:"created_at"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
}

// NewUpload creates an upload in its initial state.
func NewUpload(filename, originalFilename string, fileSize int64, totalRows int, emailColumn string) Upload {
	upload := Upload{
		ID:               uuid.New(),
		Filename:         filename,
		OriginalFilename: originalFilename,
		FileSize:         fileSize,
		TotalRows:        totalRows,
		Status:           UploadStatusUploaded,
		CreatedAt:        time.Now(),
	}
	if emailColumn != "" {
		upload.EmailColumn = &emailColumn
	}
	return upload
}

// IsTerminal reports whether no further status transitions are allowed.
func (s UploadStatus) IsTerminal() bool {
	return s == UploadStatusCompleted || s == UploadStatusFailed
}

// ValidationSummary aggregates per-record verdicts for one upload.
type ValidationSummary struct {
	Total      int `json:"total"`
	Validated  int `json:"validated"`
	OK         int `json:"ok"`
	Invalid    int `json:"invalid"`
	Disposable int `json:"disposable"`
	CatchAll   int `json:"catch_all"`
	Unknown    int `json:"unknown"`
	Error      int `json:"error"`
	Duplicate  int `json:"duplicate"`
}

// Add counts one verdict into the summary.
func (s *ValidationSummary) Add(status ValidationStatus) {
	s.Validated++
	switch status {
	case ValidationStatusOK:
		s.OK++
	case ValidationStatusInvalid:
		s.Invalid++
	case ValidationStatusDisposable:
		s.Disposable++
	case ValidationStatusCatchAll:
		s.CatchAll++
	case ValidationStatusUnknown:
		s.Unknown++
	case ValidationStatusError:
		s.Error++
	case ValidationStatusDuplicate:
		s.Duplicate++
	}
}
