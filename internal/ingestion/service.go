// Package ingestion turns uploaded contact files into persisted uploads and
// email records.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mailprobe/mailprobe/internal/csvcodec"
	"github.com/mailprobe/mailprobe/internal/domain"
	"github.com/mailprobe/mailprobe/internal/repository"

	"github.com/google/uuid"
)

// Service ingests contact files into the relational store.
type Service struct {
	uploads repository.UploadRepository
	records repository.EmailRecordRepository
	logger  *slog.Logger
}

// NewService creates a new ingestion service.
func NewService(uploads repository.UploadRepository, records repository.EmailRecordRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		uploads: uploads,
		records: records,
		logger:  logger,
	}
}

// Request describes one uploaded file.
type Request struct {
	Filename    string
	EmailColumn string
	Data        io.Reader
}

// Result reports what ingestion detected and persisted.
type Result struct {
	UploadID        uuid.UUID `json:"upload_id"`
	Filename        string    `json:"filename"`
	TotalRows       int       `json:"total_rows"`
	EmailColumn     string    `json:"email_column"`
	DetectedColumns []string  `json:"detected_columns"`
}

// Ingest decodes the file, resolves the email column, and persists the upload
// together with one email record per non-blank data row.
func (s *Service) Ingest(ctx context.Context, req Request) (Result, error) {
	if req.Data == nil {
		return Result{}, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return Result{}, fmt.Errorf("read upload: %w", err)
	}
	if len(payload) == 0 {
		return Result{}, fmt.Errorf("%w: file is empty", domain.ErrMalformedInput)
	}

	table, err := csvcodec.DecodeFile(req.Filename, payload)
	if err != nil {
		return Result{}, err
	}

	emailColumn, emailIdx, err := ResolveEmailColumn(table.Headers, strings.TrimSpace(req.EmailColumn))
	if err != nil {
		return Result{}, err
	}

	otherHeaders := make([]string, 0, len(table.Headers)-1)
	for idx, header := range table.Headers {
		if idx != emailIdx {
			otherHeaders = append(otherHeaders, header)
		}
	}

	upload := domain.NewUpload(
		storedFilename(req.Filename),
		req.Filename,
		int64(len(payload)),
		len(table.Rows),
		emailColumn,
	)

	records := make([]domain.EmailRecord, 0, len(table.Rows))
	for rowIdx, row := range table.Rows {
		otherValues := make([]string, 0, len(otherHeaders))
		for colIdx, value := range row {
			if colIdx != emailIdx {
				otherValues = append(otherValues, value)
			}
		}

		additionalData, marshalErr := domain.MarshalColumns(otherHeaders, otherValues)
		if marshalErr != nil {
			return Result{}, fmt.Errorf("serialize row %d: %w", rowIdx+1, marshalErr)
		}

		email := strings.TrimSpace(row[emailIdx])
		records = append(records, domain.NewEmailRecord(upload.ID, rowIdx+1, email, additionalData))
	}

	persisted, err := s.uploads.Create(ctx, upload)
	if err != nil {
		return Result{}, fmt.Errorf("persist upload: %w", err)
	}

	if _, err := s.records.CreateBatch(ctx, records); err != nil {
		// Best effort: avoid leaving an upload without its records.
		if deleteErr := s.uploads.Delete(ctx, persisted.ID); deleteErr != nil {
			s.logger.Error("cleanup after failed record insert",
				"upload_id", persisted.ID, "error", deleteErr)
		}
		return Result{}, fmt.Errorf("persist email records: %w", err)
	}

	s.logger.Info("upload ingested",
		"upload_id", persisted.ID,
		"filename", req.Filename,
		"rows", len(records),
		"email_column", emailColumn,
	)

	return Result{
		UploadID:        persisted.ID,
		Filename:        req.Filename,
		TotalRows:       len(records),
		EmailColumn:     emailColumn,
		DetectedColumns: append([]string(nil), table.Headers...),
	}, nil
}

func storedFilename(original string) string {
	base := strings.TrimSpace(original)
	if base == "" {
		base = "upload.csv"
	}
	return fmt.Sprintf("%s_%s", uuid.New().String(), base)
}
