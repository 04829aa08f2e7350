package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mailprobe/mailprobe/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type uploadRepository struct {
	pool *pgxpool.Pool
}

// NewUploadRepository wires a repository backed by pgxpool.
func NewUploadRepository(pool *pgxpool.Pool) UploadRepository {
	return &uploadRepository{pool: pool}
}

func (r *uploadRepository) Create(ctx context.Context, upload domain.Upload) (domain.Upload, error) {
	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}

	emailColumn := pgtype.Text{}
	if upload.EmailColumn != nil && *upload.EmailColumn != "" {
		emailColumn = pgtype.Text{String: *upload.EmailColumn, Valid: true}
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO uploads (id, filename, original_filename, file_size, total_rows, email_column, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		upload.ID,
		upload.Filename,
		upload.OriginalFilename,
		upload.FileSize,
		upload.TotalRows,
		emailColumn,
		string(upload.Status),
		upload.CreatedAt,
	)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("insert upload: %w", err)
	}

	return r.GetByID(ctx, upload.ID)
}

func (r *uploadRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Upload, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, filename, original_filename, file_size, total_rows, email_column, status, created_at, completed_at
		 FROM uploads
		 WHERE id = $1`,
		id,
	)

	upload, err := scanUpload(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Upload{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return domain.Upload{}, fmt.Errorf("get upload: %w", err)
	}
	return upload, nil
}

func (r *uploadRepository) List(ctx context.Context) ([]domain.Upload, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, filename, original_filename, file_size, total_rows, email_column, status, created_at, completed_at
		 FROM uploads
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	uploads := []domain.Upload{}
	for rows.Next() {
		upload, scanErr := scanUpload(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan upload: %w", scanErr)
		}
		uploads = append(uploads, upload)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate uploads: %w", rowsErr)
	}

	return uploads, nil
}

func (r *uploadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM uploads WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

func (r *uploadRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE uploads SET status = $1 WHERE id = $2 AND status = $3`,
		string(domain.UploadStatusProcessing),
		id,
		string(domain.UploadStatusUploaded),
	)
	if err != nil {
		return fmt.Errorf("mark upload processing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUploadStatusConflict
	}
	return nil
}

func (r *uploadRepository) MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	return r.finish(ctx, id, domain.UploadStatusCompleted, completedAt)
}

func (r *uploadRepository) MarkFailed(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	return r.finish(ctx, id, domain.UploadStatusFailed, completedAt)
}

func (r *uploadRepository) finish(ctx context.Context, id uuid.UUID, status domain.UploadStatus, completedAt time.Time) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE uploads SET status = $1, completed_at = $2 WHERE id = $3`,
		string(status),
		completedAt,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark upload %s: %w", status, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return nil
}

func scanUpload(row pgx.Row) (domain.Upload, error) {
	var (
		upload      domain.Upload
		emailColumn pgtype.Text
		status      string
		completedAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&upload.ID,
		&upload.Filename,
		&upload.OriginalFilename,
		&upload.FileSize,
		&upload.TotalRows,
		&emailColumn,
		&status,
		&upload.CreatedAt,
		&completedAt,
	); err != nil {
		return domain.Upload{}, err
	}

	if emailColumn.Valid {
		value := emailColumn.String
		upload.EmailColumn = &value
	}
	upload.Status = domain.UploadStatus(status)
	if completedAt.Valid {
		value := completedAt.Time
		upload.CompletedAt = &value
	}

	return upload, nil
}
