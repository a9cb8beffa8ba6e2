// Package export renders extraction results as downloadable artifacts.
package export

import (
	"fmt"
	"io"
	"strings"

	"invoiceocr/internal/domain"
)

// Format is a downloadable artifact format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// baseName is the artifact file name without extension.
const baseName = "invoice_data"

var contentTypes = map[Format]string{
	FormatJSON: "application/json",
	FormatCSV:  "text/csv; charset=utf-8",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ParseFormat parses a format name; the empty string means JSON.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatJSON, nil
	}
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidFormat, s)
	}
	return f, nil
}

// ContentType returns the MIME type of the artifact.
func (f Format) ContentType() string {
	return contentTypes[f]
}

// FileName returns the artifact file name, e.g. invoice_data.json.
func (f Format) FileName() string {
	return baseName + "." + string(f)
}

// Write renders res in format f to w. CSV and XLSX need invoice data; an
// ErrorResult can only be exported as JSON.
func Write(w io.Writer, f Format, res *domain.ExtractionResult) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatCSV:
		return WriteCSV(w, res)
	case FormatXLSX:
		return WriteXLSX(w, res)
	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidFormat, string(f))
	}
}
