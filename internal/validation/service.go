// Package validation drives uploads through the
// uploaded → processing → completed | failed state machine.
package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mailprobe/mailprobe/internal/domain"
	"github.com/mailprobe/mailprobe/internal/repository"
	"github.com/mailprobe/mailprobe/internal/verifier"

	"github.com/google/uuid"
)

// Service orchestrates email validation for uploads.
type Service struct {
	uploads  repository.UploadRepository
	records  repository.EmailRecordRepository
	verifier verifier.Verifier
	logger   *slog.Logger
	now      func() time.Time

	workers sync.WaitGroup
}

// NewService creates a new validation orchestrator.
func NewService(
	uploads repository.UploadRepository,
	records repository.EmailRecordRepository,
	v verifier.Verifier,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		uploads:  uploads,
		records:  records,
		verifier: v,
		logger:   logger,
		now:      time.Now,
	}
}

// Start transitions the upload to processing and schedules the per-row work
// out of band. The transition is a storage-level check-and-set, so only one
// concurrent caller can observe the uploaded state and flip it.
func (s *Service) Start(ctx context.Context, uploadID uuid.UUID) (string, error) {
	if _, err := s.uploads.GetByID(ctx, uploadID); err != nil {
		return "", err
	}

	if err := s.uploads.MarkProcessing(ctx, uploadID); err != nil {
		if errors.Is(err, domain.ErrUploadStatusConflict) {
			return "", s.refineConflict(ctx, uploadID)
		}
		return "", err
	}

	// Past this point the upload is processing and no worker exists yet, so
	// any error must drive it to failed or later Start calls would see
	// ErrAlreadyProcessing forever.
	count, err := s.records.CountByUpload(ctx, uploadID)
	if err != nil {
		s.failUpload(ctx, uploadID, err)
		return "", fmt.Errorf("count email records: %w", err)
	}
	if count == 0 {
		if err := s.uploads.MarkCompleted(ctx, uploadID, s.now()); err != nil {
			s.failUpload(ctx, uploadID, err)
			return "", err
		}
		return "No email records to validate", nil
	}

	s.launchWorker(uploadID)
	return fmt.Sprintf("Validation started for %d email records", count), nil
}

// refineConflict maps a failed check-and-set onto the state-machine error the
// caller expects by re-reading the row.
func (s *Service) refineConflict(ctx context.Context, uploadID uuid.UUID) error {
	upload, err := s.uploads.GetByID(ctx, uploadID)
	if err != nil {
		return err
	}
	switch upload.Status {
	case domain.UploadStatusProcessing:
		return domain.ErrAlreadyProcessing
	case domain.UploadStatusCompleted:
		return domain.ErrAlreadyCompleted
	case domain.UploadStatusFailed:
		return domain.ErrUnrecoverableState
	default:
		return domain.ErrUploadStatusConflict
	}
}

// launchWorker runs the row-validation phase as one deferred unit of work.
// There is no cancellation: once processing starts it runs to completion or
// failure, detached from the triggering request's context.
func (s *Service) launchWorker(uploadID uuid.UUID) {
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		ctx := context.Background()
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic while validating upload", "upload_id", uploadID, "panic", rec)
				s.failUpload(ctx, uploadID, fmt.Errorf("panic: %v", rec))
			}
		}()
		if err := s.run(ctx, uploadID); err != nil {
			s.failUpload(ctx, uploadID, err)
		}
	}()
}

func (s *Service) run(ctx context.Context, uploadID uuid.UUID) error {
	pending, err := s.records.ListUnvalidated(ctx, uploadID)
	if err != nil {
		return fmt.Errorf("list unvalidated records: %w", err)
	}

	for _, record := range pending {
		result, verifyErr := s.verifier.Verify(ctx, record.Email)
		if verifyErr != nil {
			return fmt.Errorf("verify row %d: %w", record.RowNumber, verifyErr)
		}
		if setErr := s.records.SetValidation(ctx, record.ID, result.Status, result.Payload, s.now()); setErr != nil {
			return fmt.Errorf("store verdict for row %d: %w", record.RowNumber, setErr)
		}
	}

	if err := s.uploads.MarkCompleted(ctx, uploadID, s.now()); err != nil {
		return fmt.Errorf("mark upload completed: %w", err)
	}

	summary, err := s.records.Summarize(ctx, uploadID)
	if err != nil {
		s.logger.Warn("summarize completed upload", "upload_id", uploadID, "error", err)
		return nil
	}
	s.logger.Info("upload validated",
		"upload_id", uploadID,
		"validated", summary.Validated,
		"ok", summary.OK,
		"invalid", summary.Invalid,
		"disposable", summary.Disposable,
		"catch_all", summary.CatchAll,
	)
	return nil
}

// failUpload converts a background failure into the terminal failed status.
// The triggering request has already returned, so the error is logged here
// rather than surfaced to any caller.
func (s *Service) failUpload(ctx context.Context, uploadID uuid.UUID, cause error) {
	s.logger.Error("upload validation failed", "upload_id", uploadID, "error", cause)
	if err := s.uploads.MarkFailed(ctx, uploadID, s.now()); err != nil {
		s.logger.Error("mark upload failed", "upload_id", uploadID, "error", err)
	}
}

// WaitForWorkers blocks until all in-flight validation workers finish.
func (s *Service) WaitForWorkers() {
	s.workers.Wait()
}
