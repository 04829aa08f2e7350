package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mailprobe/mailprobe/internal/domain"
	"github.com/mailprobe/mailprobe/internal/repository"
)

type stubUploadRepo struct {
	uploads map[uuid.UUID]domain.Upload
	deleted []uuid.UUID
}

var _ repository.UploadRepository = (*stubUploadRepo)(nil)

func newStubUploadRepo() *stubUploadRepo {
	return &stubUploadRepo{uploads: map[uuid.UUID]domain.Upload{}}
}

func (r *stubUploadRepo) Create(_ context.Context, upload domain.Upload) (domain.Upload, error) {
	r.uploads[upload.ID] = upload
	return upload, nil
}

func (r *stubUploadRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Upload, error) {
	upload, ok := r.uploads[id]
	if !ok {
		return domain.Upload{}, domain.ErrNotFound
	}
	return upload, nil
}

func (r *stubUploadRepo) List(_ context.Context) ([]domain.Upload, error) {
	uploads := make([]domain.Upload, 0, len(r.uploads))
	for _, upload := range r.uploads {
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

func (r *stubUploadRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.uploads, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *stubUploadRepo) MarkProcessing(_ context.Context, id uuid.UUID) error {
	upload, ok := r.uploads[id]
	if !ok || upload.Status != domain.UploadStatusUploaded {
		return domain.ErrUploadStatusConflict
	}
	upload.Status = domain.UploadStatusProcessing
	r.uploads[id] = upload
	return nil
}

func (r *stubUploadRepo) MarkCompleted(_ context.Context, id uuid.UUID, completedAt time.Time) error {
	upload := r.uploads[id]
	upload.Status = domain.UploadStatusCompleted
	upload.CompletedAt = &completedAt
	r.uploads[id] = upload
	return nil
}

func (r *stubUploadRepo) MarkFailed(_ context.Context, id uuid.UUID, completedAt time.Time) error {
	upload := r.uploads[id]
	upload.Status = domain.UploadStatusFailed
	upload.CompletedAt = &completedAt
	r.uploads[id] = upload
	return nil
}

type stubRecordRepo struct {
	records   []domain.EmailRecord
	createErr error
}

var _ repository.EmailRecordRepository = (*stubRecordRepo)(nil)

func (r *stubRecordRepo) CreateBatch(_ context.Context, records []domain.EmailRecord) (int, error) {
	if r.createErr != nil {
		return 0, r.createErr
	}
	r.records = append(r.records, records...)
	return len(records), nil
}

func (r *stubRecordRepo) ListByUpload(_ context.Context, uploadID uuid.UUID) ([]domain.EmailRecord, error) {
	var matched []domain.EmailRecord
	for _, record := range r.records {
		if record.UploadID == uploadID {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func (r *stubRecordRepo) ListUnvalidated(_ context.Context, uploadID uuid.UUID) ([]domain.EmailRecord, error) {
	var matched []domain.EmailRecord
	for _, record := range r.records {
		if record.UploadID == uploadID && record.ValidationStatus == nil {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func (r *stubRecordRepo) CountByUpload(_ context.Context, uploadID uuid.UUID) (int64, error) {
	var count int64
	for _, record := range r.records {
		if record.UploadID == uploadID {
			count++
		}
	}
	return count, nil
}

func (r *stubRecordRepo) SetValidation(_ context.Context, id uuid.UUID, status domain.ValidationStatus, result json.RawMessage, validatedAt time.Time) error {
	for i, record := range r.records {
		if record.ID == id {
			r.records[i].ValidationStatus = &status
			r.records[i].ValidationResult = result
			r.records[i].ValidatedAt = &validatedAt
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *stubRecordRepo) Summarize(_ context.Context, uploadID uuid.UUID) (domain.ValidationSummary, error) {
	var summary domain.ValidationSummary
	for _, record := range r.records {
		if record.UploadID == uploadID && record.ValidationStatus != nil {
			summary.Add(*record.ValidationStatus)
		}
	}
	return summary, nil
}

func TestIngestPersistsUploadAndRecords(t *testing.T) {
	uploads := newStubUploadRepo()
	records := &stubRecordRepo{}
	svc := NewService(uploads, records, nil)

	data := "name,email,age\nAlice, alice@example.com ,30\nBob,bob@example.com,25\n"
	result, err := svc.Ingest(context.Background(), Request{
		Filename: "contacts.csv",
		Data:     strings.NewReader(data),
	})
	if err != nil {
		t.Fatalf("ingest returned error: %v", err)
	}

	if result.TotalRows != 2 {
		t.Fatalf("expected 2 rows, got %d", result.TotalRows)
	}
	if result.EmailColumn != "email" {
		t.Fatalf("expected detected column email, got %q", result.EmailColumn)
	}
	if !reflect.DeepEqual(result.DetectedColumns, []string{"name", "email", "age"}) {
		t.Fatalf("unexpected detected columns: %v", result.DetectedColumns)
	}

	upload, err := uploads.GetByID(context.Background(), result.UploadID)
	if err != nil {
		t.Fatalf("upload not persisted: %v", err)
	}
	if upload.Status != domain.UploadStatusUploaded {
		t.Fatalf("expected status uploaded, got %s", upload.Status)
	}
	if upload.OriginalFilename != "contacts.csv" {
		t.Fatalf("unexpected original filename: %q", upload.OriginalFilename)
	}
	if upload.EmailColumn == nil || *upload.EmailColumn != "email" {
		t.Fatalf("email column not stored on upload: %v", upload.EmailColumn)
	}
	if upload.Filename == upload.OriginalFilename {
		t.Fatal("stored filename should be disambiguated from the original")
	}

	if len(records.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records.records))
	}
	first := records.records[0]
	if first.RowNumber != 1 {
		t.Fatalf("row numbers should start at 1, got %d", first.RowNumber)
	}
	if first.Email != "alice@example.com" {
		t.Fatalf("email not trimmed: %q", first.Email)
	}
	if !reflect.DeepEqual(first.AdditionalColumnNames(), []string{"name", "age"}) {
		t.Fatalf("additional data should hold non-email columns in order, got %v", first.AdditionalColumnNames())
	}
	if columns := first.AdditionalColumns(); columns["age"] != "30" {
		t.Fatalf("additional column value lost: %v", columns)
	}
}

func TestIngestRejectsEmptyFile(t *testing.T) {
	svc := NewService(newStubUploadRepo(), &stubRecordRepo{}, nil)

	_, err := svc.Ingest(context.Background(), Request{
		Filename: "contacts.csv",
		Data:     strings.NewReader(""),
	})
	if !errors.Is(err, domain.ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}

func TestIngestRejectsUnknownColumnHint(t *testing.T) {
	uploads := newStubUploadRepo()
	svc := NewService(uploads, &stubRecordRepo{}, nil)

	_, err := svc.Ingest(context.Background(), Request{
		Filename:    "contacts.csv",
		EmailColumn: "address",
		Data:        strings.NewReader("name,email\nAlice,alice@example.com\n"),
	})
	if !errors.Is(err, domain.ErrColumnNotFound) {
		t.Fatalf("expected ErrColumnNotFound, got %v", err)
	}
	if len(uploads.uploads) != 0 {
		t.Fatal("nothing should be persisted when the hint does not resolve")
	}
}

func TestIngestCleansUpWhenRecordInsertFails(t *testing.T) {
	uploads := newStubUploadRepo()
	records := &stubRecordRepo{createErr: errors.New("copy failed")}
	svc := NewService(uploads, records, nil)

	_, err := svc.Ingest(context.Background(), Request{
		Filename: "contacts.csv",
		Data:     strings.NewReader("name,email\nAlice,alice@example.com\n"),
	})
	if err == nil {
		t.Fatal("expected error when record insert fails")
	}
	if len(uploads.deleted) != 1 {
		t.Fatalf("expected the upload to be deleted, got %d deletions", len(uploads.deleted))
	}
	if len(uploads.uploads) != 0 {
		t.Fatal("upload row should not survive a failed record insert")
	}
}
