package domain

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ValidationStatus is the classifier's verdict for one email address.
type ValidationStatus string

const (
	ValidationStatusOK         ValidationStatus = "ok"
	ValidationStatusCatchAll   ValidationStatus = "catch_all"
	ValidationStatusUnknown    ValidationStatus = "unknown"
	ValidationStatusError      ValidationStatus = "error"
	ValidationStatusDisposable ValidationStatus = "disposable"
	ValidationStatusInvalid    ValidationStatus = "invalid"
	ValidationStatusDuplicate  ValidationStatus = "duplicate"
)

// AllValidationStatuses lists every verdict the summary reports on.
var AllValidationStatuses = []ValidationStatus{
	ValidationStatusOK,
	ValidationStatusInvalid,
	ValidationStatusDisposable,
	ValidationStatusCatchAll,
	ValidationStatusUnknown,
	ValidationStatusError,
	ValidationStatusDuplicate,
}

// EmailRecord is one data row from an upload, holding an email address and
// its validation outcome. ValidationStatus, ValidationResult and ValidatedAt
// are either all unset (not yet verified) or all set.
type EmailRecord struct {
	ID               uuid.UUID         `json:"id"`
	UploadID         uuid.UUID         `json:"upload_id"`
	RowNumber        int               `json:"row_number"`
	Email            string            `json:"email"`
	ValidationStatus *ValidationStatus `json:"validation_status,omitempty"`
	ValidationResult json.RawMessage   `json:"validation_result,omitempty"`
	AdditionalData   json.RawMessage   `json:"additional_data,omitempty"`
	ValidatedAt      *time.Time        `json:"validated_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// NewEmailRecord creates an unvalidated record for one data row.
func NewEmailRecord(uploadID uuid.UUID, rowNumber int, email string, additionalData json.RawMessage) EmailRecord {
	return EmailRecord{
		ID:             uuid.New(),
		UploadID:       uploadID,
		RowNumber:      rowNumber,
		Email:          email,
		AdditionalData: additionalData,
		CreatedAt:      time.Now(),
	}
}

// AdditionalColumns decodes the non-email column values carried through for
// the CSV round trip. Malformed or missing payloads yield an empty map rather
// than an error so a single bad record cannot abort an export.
func (r EmailRecord) AdditionalColumns() map[string]string {
	if len(r.AdditionalData) == 0 {
		return map[string]string{}
	}
	var columns map[string]string
	if err := json.Unmarshal(r.AdditionalData, &columns); err != nil || columns == nil {
		return map[string]string{}
	}
	return columns
}

// AdditionalColumnNames returns the column names of AdditionalData in document
// order. encoding/json map decoding loses key order, so the names are pulled
// from the token stream instead.
func (r EmailRecord) AdditionalColumnNames() []string {
	if len(r.AdditionalData) == 0 {
		return []string{}
	}
	decoder := json.NewDecoder(bytes.NewReader(r.AdditionalData))
	token, err := decoder.Token()
	if err != nil {
		return []string{}
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return []string{}
	}
	names := []string{}
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return []string{}
		}
		key, ok := keyToken.(string)
		if !ok {
			return []string{}
		}
		names = append(names, key)
		var discard any
		if err := decoder.Decode(&discard); err != nil {
			return []string{}
		}
	}
	return names
}

// MarshalColumns serializes column name/value pairs into a JSON object whose
// keys keep the given order. Values beyond len(values) encode as empty strings.
func MarshalColumns(names []string, values []string) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedName, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value := ""
		if i < len(values) {
			value = values[i]
		}
		encodedValue, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedName)
		buf.WriteByte(':')
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return json.RawMessage(buf.Bytes()), nil
}
