package export

import (
	"encoding/csv"
	"io"

	"invoiceocr/internal/domain"
)

// BOM is the UTF-8 byte order mark, written first for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes the invoice header and line items of res as CSV.
func WriteCSV(w io.Writer, res *domain.ExtractionResult) error {
	inv, err := decodeInvoice(res)
	if err != nil {
		return err
	}
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(columns()); err != nil {
		return err
	}
	if err := cw.WriteAll(invoiceRows(inv)); err != nil {
		return err
	}
	return cw.Error()
}
