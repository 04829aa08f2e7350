package domain

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestMarshalColumnsPreservesOrder(t *testing.T) {
	payload, err := MarshalColumns(
		[]string{"zeta", "alpha", "mid dle"},
		[]string{"1", "2", "3"},
	)
	if err != nil {
		t.Fatalf("marshal returned error: %v", err)
	}

	record := NewEmailRecord(uuid.New(), 1, "a@b.com", payload)
	if got := record.AdditionalColumnNames(); !reflect.DeepEqual(got, []string{"zeta", "alpha", "mid dle"}) {
		t.Fatalf("column order not preserved: %v", got)
	}
}

func TestMarshalColumnsEscapesValues(t *testing.T) {
	payload, err := MarshalColumns(
		[]string{`quo"te`, "plain"},
		[]string{"line\nbreak", `back\slash`},
	)
	if err != nil {
		t.Fatalf("marshal returned error: %v", err)
	}
	if !json.Valid(payload) {
		t.Fatalf("payload is not valid JSON: %s", payload)
	}

	record := NewEmailRecord(uuid.New(), 1, "a@b.com", payload)
	columns := record.AdditionalColumns()
	if columns[`quo"te`] != "line\nbreak" || columns["plain"] != `back\slash` {
		t.Fatalf("values mangled: %v", columns)
	}
}

func TestMarshalColumnsPadsMissingValues(t *testing.T) {
	payload, err := MarshalColumns([]string{"a", "b"}, []string{"only"})
	if err != nil {
		t.Fatalf("marshal returned error: %v", err)
	}

	record := NewEmailRecord(uuid.New(), 1, "a@b.com", payload)
	if columns := record.AdditionalColumns(); columns["b"] != "" {
		t.Fatalf("missing value should encode as empty string: %v", columns)
	}
}

func TestAdditionalColumnsToleratesBadPayloads(t *testing.T) {
	record := NewEmailRecord(uuid.New(), 1, "a@b.com", json.RawMessage(`not json`))
	if columns := record.AdditionalColumns(); len(columns) != 0 {
		t.Fatalf("expected empty map for bad payload, got %v", columns)
	}
	if names := record.AdditionalColumnNames(); len(names) != 0 {
		t.Fatalf("expected no names for bad payload, got %v", names)
	}

	empty := NewEmailRecord(uuid.New(), 1, "a@b.com", nil)
	if columns := empty.AdditionalColumns(); len(columns) != 0 {
		t.Fatalf("expected empty map for nil payload, got %v", columns)
	}
}

func TestSummaryAdd(t *testing.T) {
	var summary ValidationSummary
	for _, status := range AllValidationStatuses {
		summary.Add(status)
	}
	if summary.Validated != len(AllValidationStatuses) {
		t.Fatalf("expected %d validated, got %d", len(AllValidationStatuses), summary.Validated)
	}
	if summary.OK != 1 || summary.Invalid != 1 || summary.Disposable != 1 ||
		summary.CatchAll != 1 || summary.Unknown != 1 || summary.Error != 1 || summary.Duplicate != 1 {
		t.Fatalf("per-verdict counts wrong: %+v", summary)
	}
}

func TestUploadStatusIsTerminal(t *testing.T) {
	if UploadStatusUploaded.IsTerminal() || UploadStatusProcessing.IsTerminal() {
		t.Fatal("active statuses must not be terminal")
	}
	if !UploadStatusCompleted.IsTerminal() || !UploadStatusFailed.IsTerminal() {
		t.Fatal("completed and failed must be terminal")
	}
}
