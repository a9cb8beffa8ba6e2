package export

import (
	"fmt"
	"strconv"

	"invoiceocr/internal/domain"
)

// headerColumns are the invoice-level columns repeated on every row.
var headerColumns = []string{
	"Invoice Number",
	"Invoice Date",
	"Due Date",
	"Vendor Name",
	"Vendor Email",
	"Vendor Phone",
	"Vendor Address",
	"Subtotal",
	"Tax Amount",
	"Total Amount",
}

// lineItemColumns follow the header columns, one row per line item.
var lineItemColumns = []string{
	"Line",
	"Description",
	"Quantity",
	"Unit Price",
	"Amount",
}

func columns() []string {
	cols := make([]string, 0, len(headerColumns)+len(lineItemColumns))
	cols = append(cols, headerColumns...)
	return append(cols, lineItemColumns...)
}

// decodeInvoice returns the typed invoice held by res.
func decodeInvoice(res *domain.ExtractionResult) (*domain.Invoice, error) {
	if res == nil || res.IsError() {
		return nil, domain.ErrNoInvoiceData
	}
	inv, err := domain.DecodeInvoice(res.Fields())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoInvoiceData, err)
	}
	return inv, nil
}

// invoiceRows flattens inv into one row per line item. An invoice without
// line items yields a single row with empty line item columns.
func invoiceRows(inv *domain.Invoice) [][]string {
	header := headerValues(inv)
	if len(inv.LineItems) == 0 {
		row := append([]string{}, header...)
		return [][]string{append(row, make([]string, len(lineItemColumns))...)}
	}
	rows := make([][]string, 0, len(inv.LineItems))
	for i, item := range inv.LineItems {
		row := append([]string{}, header...)
		row = append(row,
			strconv.Itoa(i+1),
			item.Description.String(),
			item.Quantity.String(),
			item.UnitPrice.String(),
			item.Amount.String(),
		)
		rows = append(rows, row)
	}
	return rows
}

func headerValues(inv *domain.Invoice) []string {
	var email, phone, address string
	if c := inv.VendorContact; c != nil {
		email = c.Email.String()
		phone = c.Phone.String()
		address = c.Address.Joined()
	}
	return []string{
		inv.InvoiceNumber.String(),
		inv.InvoiceDate.String(),
		inv.DueDate.String(),
		inv.VendorName.String(),
		email,
		phone,
		address,
		inv.Subtotal.String(),
		inv.TaxAmount.String(),
		inv.TotalAmount.String(),
	}
}
