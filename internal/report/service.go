// Package report aggregates validation outcomes and reconstitutes the
// enriched CSV for download.
package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mailprobe/mailprobe/internal/csvcodec"
	"github.com/mailprobe/mailprobe/internal/domain"
	"github.com/mailprobe/mailprobe/internal/repository"

	"github.com/google/uuid"
)

// DownloadMimeType is the fixed content type for enriched CSV downloads.
const DownloadMimeType = "text/csv"

var enrichmentColumns = []string{"validation_status", "validation_result", "validated_at"}

// Service reads validation results back out of the store.
type Service struct {
	uploads repository.UploadRepository
	records repository.EmailRecordRepository
	now     func() time.Time
}

// NewService creates a new results reporter.
func NewService(uploads repository.UploadRepository, records repository.EmailRecordRepository) *Service {
	return &Service{
		uploads: uploads,
		records: records,
		now:     time.Now,
	}
}

// ListUploads returns all uploads ordered by creation time descending.
func (s *Service) ListUploads(ctx context.Context) ([]domain.Upload, error) {
	return s.uploads.List(ctx)
}

// Results bundles an upload with its records and aggregated counts.
type Results struct {
	Upload  domain.Upload            `json:"upload"`
	Records []domain.EmailRecord     `json:"records"`
	Summary domain.ValidationSummary `json:"summary"`
}

// GetResults returns the upload, all its email records, and summary counts.
func (s *Service) GetResults(ctx context.Context, uploadID uuid.UUID) (Results, error) {
	upload, err := s.uploads.GetByID(ctx, uploadID)
	if err != nil {
		return Results{}, err
	}

	records, err := s.records.ListByUpload(ctx, uploadID)
	if err != nil {
		return Results{}, err
	}

	summary := domain.ValidationSummary{Total: len(records)}
	for _, record := range records {
		if record.ValidationStatus != nil {
			summary.Add(*record.ValidationStatus)
		}
	}

	return Results{
		Upload:  upload,
		Records: records,
		Summary: summary,
	}, nil
}

// Download carries a generated CSV ready for transfer.
type Download struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	MimeType string `json:"mime_type"`
}

// DownloadCSV rebuilds the original columns from the stored rows, appends the
// validation outcome columns, and returns the result base64-encoded. Rows are
// emitted in row-number order.
func (s *Service) DownloadCSV(ctx context.Context, uploadID uuid.UUID) (Download, error) {
	upload, err := s.uploads.GetByID(ctx, uploadID)
	if err != nil {
		return Download{}, err
	}

	records, err := s.records.ListByUpload(ctx, uploadID)
	if err != nil {
		return Download{}, err
	}
	if len(records) == 0 {
		return Download{}, fmt.Errorf("%w: %s", domain.ErrNoRecords, uploadID)
	}

	emailColumn := "email"
	if upload.EmailColumn != nil && *upload.EmailColumn != "" {
		emailColumn = *upload.EmailColumn
	}

	originalColumns := records[0].AdditionalColumnNames()
	if !containsColumn(originalColumns, emailColumn) {
		originalColumns = append(originalColumns, emailColumn)
	}

	headers := append(append([]string{}, originalColumns...), enrichmentColumns...)
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		additional := record.AdditionalColumns()
		row := make([]string, 0, len(headers))
		for _, column := range originalColumns {
			if column == emailColumn {
				row = append(row, record.Email)
				continue
			}
			row = append(row, additional[column])
		}

		status := ""
		if record.ValidationStatus != nil {
			status = string(*record.ValidationStatus)
		}
		validatedAt := ""
		if record.ValidatedAt != nil {
			validatedAt = record.ValidatedAt.UTC().Format(time.RFC3339)
		}
		row = append(row, status, string(record.ValidationResult), validatedAt)
		rows = append(rows, row)
	}

	encoded, err := csvcodec.Encode(headers, rows)
	if err != nil {
		return Download{}, fmt.Errorf("encode enriched csv: %w", err)
	}

	return Download{
		Filename: s.downloadFilename(upload.OriginalFilename),
		Content:  base64.StdEncoding.EncodeToString(encoded),
		MimeType: DownloadMimeType,
	}, nil
}

func (s *Service) downloadFilename(original string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	if base == "" || base == "." {
		base = "upload"
	}
	return fmt.Sprintf("%s_validated_%s.csv", base, s.now().Format("20060102_150405"))
}

func containsColumn(columns []string, name string) bool {
	for _, column := range columns {
		if column == name {
			return true
		}
	}
	return false
}
