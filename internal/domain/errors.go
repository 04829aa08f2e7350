package domain

import "errors"

// Sentinel errors for the upload and validation pipeline. Each layer wraps
// these with context via fmt.Errorf("%w") and the web boundary maps them to
// HTTP status codes.
var (
	// ErrMalformedInput is returned when an uploaded file cannot be decoded
	// into a header row plus at least one data row.
	ErrMalformedInput = errors.New("malformed input")

	// ErrColumnNotFound is returned when an explicit email column hint does
	// not match any detected header.
	ErrColumnNotFound = errors.New("column not found")

	// ErrNotFound is returned when no upload exists for the given identifier.
	ErrNotFound = errors.New("upload not found")

	// ErrAlreadyProcessing guards against starting validation twice.
	ErrAlreadyProcessing = errors.New("upload is already being processed")

	// ErrAlreadyCompleted rejects validation of a completed upload.
	ErrAlreadyCompleted = errors.New("upload has already been validated")

	// ErrUnrecoverableState rejects validation of a failed upload.
	ErrUnrecoverableState = errors.New("upload is in an unrecoverable state")

	// ErrNoRecords is returned when a download or validation has nothing to
	// act on.
	ErrNoRecords = errors.New("upload has no email records")

	// ErrUploadStatusConflict indicates that a status check-and-set matched
	// zero rows. Callers refine it into one of the state-machine errors.
	ErrUploadStatusConflict = errors.New("upload status conflict")
)
