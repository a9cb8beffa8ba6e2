package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"invoiceocr/internal/domain"
)

const (
	summarySheet   = "Invoice"
	lineItemsSheet = "Line Items"
)

// WriteXLSX writes res as a workbook with an invoice summary sheet and a line
// items sheet.
func WriteXLSX(w io.Writer, res *domain.ExtractionResult) error {
	inv, err := decodeInvoice(res)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	for i, value := range headerValues(inv) {
		row := []interface{}{headerColumns[i], value}
		if err := f.SetSheetRow(summarySheet, cell(1, i+1), &row); err != nil {
			return fmt.Errorf("writing summary row: %w", err)
		}
	}

	if _, err := f.NewSheet(lineItemsSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	header := toRow(lineItemColumns)
	if err := f.SetSheetRow(lineItemsSheet, cell(1, 1), &header); err != nil {
		return fmt.Errorf("writing line item header: %w", err)
	}
	for i, item := range inv.LineItems {
		row := []interface{}{
			i + 1,
			item.Description.String(),
			numberOrEmpty(item.Quantity),
			numberOrEmpty(item.UnitPrice),
			numberOrEmpty(item.Amount),
		}
		if err := f.SetSheetRow(lineItemsSheet, cell(1, i+2), &row); err != nil {
			return fmt.Errorf("writing line item %d: %w", i+1, err)
		}
	}

	return f.Write(w)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

// numberOrEmpty keeps numeric cells numeric so spreadsheets can sum them.
func numberOrEmpty(d *domain.Decimal) interface{} {
	if d == nil || !d.Valid {
		return ""
	}
	return d.Value
}
