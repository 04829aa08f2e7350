package ingestion

import (
	"fmt"
	"strings"

	"github.com/mailprobe/mailprobe/internal/domain"
)

// ResolveEmailColumn picks the column holding email addresses. An explicit
// hint must match a header verbatim; otherwise headers are scanned
// case-insensitively for "email", then "mail", before falling back to the
// first column.
func ResolveEmailColumn(headers []string, hint string) (string, int, error) {
	if hint != "" {
		for idx, header := range headers {
			if header == hint {
				return header, idx, nil
			}
		}
		return "", 0, fmt.Errorf("%w: %q is not a detected column", domain.ErrColumnNotFound, hint)
	}

	for _, needle := range []string{"email", "mail"} {
		for idx, header := range headers {
			if strings.Contains(strings.ToLower(header), needle) {
				return header, idx, nil
			}
		}
	}

	return headers[0], 0, nil
}
