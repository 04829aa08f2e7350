package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mailprobe/mailprobe/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type emailRecordRepository struct {
	pool *pgxpool.Pool
}

// NewEmailRecordRepository wires a repository backed by pgxpool.
func NewEmailRecordRepository(pool *pgxpool.Pool) EmailRecordRepository {
	return &emailRecordRepository{pool: pool}
}

func (r *emailRecordRepository) CreateBatch(ctx context.Context, records []domain.EmailRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(records))
	for i, record := range records {
		var additionalData any
		if len(record.AdditionalData) > 0 {
			additionalData = []byte(record.AdditionalData)
		}
		rows[i] = []any{
			record.ID,
			record.UploadID,
			record.RowNumber,
			record.Email,
			additionalData,
			record.CreatedAt,
		}
	}

	copied, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"email_records"},
		[]string{"id", "upload_id", "row_number", "email", "additional_data", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk insert email records: %w", err)
	}

	return int(copied), nil
}

func (r *emailRecordRepository) ListByUpload(ctx context.Context, uploadID uuid.UUID) ([]domain.EmailRecord, error) {
	return r.list(ctx, uploadID, false)
}

func (r *emailRecordRepository) ListUnvalidated(ctx context.Context, uploadID uuid.UUID) ([]domain.EmailRecord, error) {
	return r.list(ctx, uploadID, true)
}

func (r *emailRecordRepository) list(ctx context.Context, uploadID uuid.UUID, unvalidatedOnly bool) ([]domain.EmailRecord, error) {
	query := `SELECT id, upload_id, row_number, email, validation_status, validation_result, additional_data, validated_at, created_at
		 FROM email_records
		 WHERE upload_id = $1`
	if unvalidatedOnly {
		query += ` AND validation_status IS NULL`
	}
	query += ` ORDER BY row_number ASC`

	rows, err := r.pool.Query(ctx, query, uploadID)
	if err != nil {
		return nil, fmt.Errorf("list email records: %w", err)
	}
	defer rows.Close()

	records := []domain.EmailRecord{}
	for rows.Next() {
		record, scanErr := scanEmailRecord(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan email record: %w", scanErr)
		}
		records = append(records, record)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate email records: %w", rowsErr)
	}

	return records, nil
}

func (r *emailRecordRepository) CountByUpload(ctx context.Context, uploadID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM email_records WHERE upload_id = $1`,
		uploadID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count email records: %w", err)
	}
	return count, nil
}

func (r *emailRecordRepository) SetValidation(ctx context.Context, id uuid.UUID, status domain.ValidationStatus, result json.RawMessage, validatedAt time.Time) error {
	var payload any
	if len(result) > 0 {
		payload = []byte(result)
	}

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE email_records
		 SET validation_status = $1, validation_result = $2, validated_at = $3
		 WHERE id = $4`,
		string(status),
		payload,
		validatedAt,
		id,
	)
	if err != nil {
		return fmt.Errorf("set validation result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: email record %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *emailRecordRepository) Summarize(ctx context.Context, uploadID uuid.UUID) (domain.ValidationSummary, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT validation_status, COUNT(*)
		 FROM email_records
		 WHERE upload_id = $1
		 GROUP BY validation_status`,
		uploadID,
	)
	if err != nil {
		return domain.ValidationSummary{}, fmt.Errorf("summarize email records: %w", err)
	}
	defer rows.Close()

	summary := domain.ValidationSummary{}
	for rows.Next() {
		var (
			status pgtype.Text
			count  int64
		)
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return domain.ValidationSummary{}, fmt.Errorf("scan summary row: %w", scanErr)
		}
		summary.Total += int(count)
		if !status.Valid {
			continue
		}
		summary.Validated += int(count)
		switch domain.ValidationStatus(status.String) {
		case domain.ValidationStatusOK:
			summary.OK += int(count)
		case domain.ValidationStatusInvalid:
			summary.Invalid += int(count)
		case domain.ValidationStatusDisposable:
			summary.Disposable += int(count)
		case domain.ValidationStatusCatchAll:
			summary.CatchAll += int(count)
		case domain.ValidationStatusUnknown:
			summary.Unknown += int(count)
		case domain.ValidationStatusError:
			summary.Error += int(count)
		case domain.ValidationStatusDuplicate:
			summary.Duplicate += int(count)
		}
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return domain.ValidationSummary{}, fmt.Errorf("iterate summary rows: %w", rowsErr)
	}

	return summary, nil
}

func scanEmailRecord(row pgx.Row) (domain.EmailRecord, error) {
	var (
		record           domain.EmailRecord
		validationStatus pgtype.Text
		validationResult []byte
		additionalData   []byte
		validatedAt      pgtype.Timestamptz
	)
	if err := row.Scan(
		&record.ID,
		&record.UploadID,
		&record.RowNumber,
		&record.Email,
		&validationStatus,
		&validationResult,
		&additionalData,
		&validatedAt,
		&record.CreatedAt,
	); err != nil {
		return domain.EmailRecord{}, err
	}

	if validationStatus.Valid {
		status := domain.ValidationStatus(validationStatus.String)
		record.ValidationStatus = &status
	}
	if len(validationResult) > 0 {
		record.ValidationResult = json.RawMessage(validationResult)
	}
	if len(additionalData) > 0 {
		record.AdditionalData = json.RawMessage(additionalData)
	}
	if validatedAt.Valid {
		value := validatedAt.Time
		record.ValidatedAt = &value
	}

	return record, nil
}
