// Package csvcodec decodes uploaded contact files into header plus data rows
// and encodes enriched rows back into CSV text.
package csvcodec

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mailprobe/mailprobe/internal/domain"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Table holds a decoded file: one header row and zero-padded data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// DecodeFile dispatches on the file extension. CSV is the primary format;
// XLSX uploads read the first sheet. Anything else is malformed input.
func DecodeFile(filename string, payload []byte) (Table, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv", "":
		return Decode(payload)
	case ".xlsx":
		return decodeExcel(payload)
	default:
		return Table{}, fmt.Errorf("%w: unsupported file extension %s", domain.ErrMalformedInput, ext)
	}
}

// Decode splits a UTF-8 CSV buffer into a header row and data rows, honoring
// RFC 4180 quoting. Rows consisting entirely of empty fields are dropped.
// Fewer than two non-blank rows (header plus at least one data row) is
// malformed input.
func Decode(payload []byte) (Table, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", domain.ErrMalformedInput, err)
	}

	return normalize(records)
}

func decodeExcel(payload []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", domain.ErrMalformedInput, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, fmt.Errorf("%w: workbook has no sheets", domain.ErrMalformedInput)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", domain.ErrMalformedInput, err)
	}

	return normalize(rows)
}

func normalize(records [][]string) (Table, error) {
	filtered := make([][]string, 0, len(records))
	for _, row := range records {
		if isBlankRow(row) {
			continue
		}
		filtered = append(filtered, row)
	}

	if len(filtered) < 2 {
		return Table{}, fmt.Errorf("%w: need a header row and at least one data row", domain.ErrMalformedInput)
	}

	headers := filtered[0]
	rows := filtered[1:]
	for i := range rows {
		rows[i] = padRow(rows[i], len(headers))
	}

	return Table{Headers: headers, Rows: rows}, nil
}

// Encode produces CSV text from a header row and data rows. Fields containing
// commas, quotes, or newlines are quoted with internal quotes doubled; lines
// are joined with \n. Output round-trips through Decode.
func Encode(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(padRow(row, len(headers))); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush rows: %w", err)
	}
	if buf.Len() == 0 {
		return nil, errors.New("no rows encoded")
	}
	return buf.Bytes(), nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
