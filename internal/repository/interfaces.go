package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mailprobe/mailprobe/internal/domain"

	"github.com/google/uuid"
)

// UploadRepository defines persistence for upload lifecycle state.
type UploadRepository interface {
	Create(ctx context.Context, upload domain.Upload) (domain.Upload, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Upload, error)
	List(ctx context.Context) ([]domain.Upload, error)

	// Delete removes an upload; email records cascade at the storage layer.
	Delete(ctx context.Context, id uuid.UUID) error

	// MarkProcessing performs the uploaded→processing transition as one
	// check-and-set. A zero-row match returns domain.ErrUploadStatusConflict.
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, completedAt time.Time) error
}

// EmailRecordRepository defines persistence for per-row email records.
type EmailRecordRepository interface {
	// CreateBatch bulk-inserts the records of one upload.
	CreateBatch(ctx context.Context, records []domain.EmailRecord) (int, error)

	// ListByUpload returns all records ordered by row number ascending.
	ListByUpload(ctx context.Context, uploadID uuid.UUID) ([]domain.EmailRecord, error)

	// ListUnvalidated returns records lacking a verdict, ordered by row number.
	ListUnvalidated(ctx context.Context, uploadID uuid.UUID) ([]domain.EmailRecord, error)

	CountByUpload(ctx context.Context, uploadID uuid.UUID) (int64, error)

	// SetValidation writes verdict, raw payload, and timestamp in one update.
	SetValidation(ctx context.Context, id uuid.UUID, status domain.ValidationStatus, result json.RawMessage, validatedAt time.Time) error

	// Summarize aggregates verdict counts for one upload.
	Summarize(ctx context.Context, uploadID uuid.UUID) (domain.ValidationSummary, error)
}
