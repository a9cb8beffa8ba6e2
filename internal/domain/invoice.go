package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseFailureMessage is the fixed diagnostic carried by an ErrorResult.
const ParseFailureMessage = "Failed to parse response"

// ErrorResult is returned in place of an invoice when the model reply could not
// be decoded as a JSON object.
type ErrorResult struct {
	Error       string `json:"error"`
	RawResponse string `json:"raw_response"`
}

// ExtractionResult holds exactly one of two shapes: the invoice mapping the
// model produced, or an ErrorResult. It marshals to whichever shape it holds.
type ExtractionResult struct {
	Invoice map[string]interface{}
	Failure *ErrorResult
}

// NewInvoiceResult wraps a decoded invoice mapping.
func NewInvoiceResult(fields map[string]interface{}) *ExtractionResult {
	return &ExtractionResult{Invoice: fields}
}

// NewErrorResult wraps an unparseable model reply.
func NewErrorResult(raw string) *ExtractionResult {
	return &ExtractionResult{Failure: &ErrorResult{Error: ParseFailureMessage, RawResponse: raw}}
}

// Fields returns the result as a generic mapping.
func (r *ExtractionResult) Fields() map[string]interface{} {
	if r.Failure != nil {
		return map[string]interface{}{
			"error":        r.Failure.Error,
			"raw_response": r.Failure.RawResponse,
		}
	}
	if r.Invoice == nil {
		return map[string]interface{}{}
	}
	return r.Invoice
}

// IsError reports whether the result carries an "error" key. Callers branch
// on this rather than on which field is set, so a model reply that itself
// contains "error" is treated the same way.
func (r *ExtractionResult) IsError() bool {
	_, ok := r.Fields()["error"]
	return ok
}

// MarshalJSON emits the held shape directly, without a wrapper object.
func (r ExtractionResult) MarshalJSON() ([]byte, error) {
	if r.Failure != nil {
		return json.Marshal(r.Failure)
	}
	if r.Invoice == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Invoice)
}

// UnmarshalJSON decodes either shape; an object with an "error" string and a
// "raw_response" string becomes a Failure.
func (r *ExtractionResult) UnmarshalJSON(data []byte) error {
	fields := map[string]interface{}{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return err
	}
	errMsg, hasErr := fields["error"].(string)
	raw, hasRaw := fields["raw_response"].(string)
	if hasErr && hasRaw && len(fields) == 2 {
		r.Failure = &ErrorResult{Error: errMsg, RawResponse: raw}
		r.Invoice = nil
		return nil
	}
	r.Invoice = fields
	r.Failure = nil
	return nil
}

// Invoice is a typed view over the invoice mapping used by exporters. Any
// field the model left out or set to null stays nil.
type Invoice struct {
	InvoiceNumber *Text          `json:"invoice_number"`
	InvoiceDate   *Text          `json:"invoice_date"`
	DueDate       *Text          `json:"due_date"`
	VendorName    *Text          `json:"vendor_name"`
	VendorContact *VendorContact `json:"vendor_contact"`
	LineItems     []LineItem     `json:"line_items"`
	Subtotal      *Decimal       `json:"subtotal"`
	TaxAmount     *Decimal       `json:"tax_amount"`
	TotalAmount   *Decimal       `json:"total_amount"`
}

// VendorContact holds the vendor's contact details.
type VendorContact struct {
	Email   *Text        `json:"email"`
	Phone   *Text        `json:"phone"`
	Address AddressLines `json:"address"`
}

// LineItem is a single invoice line.
type LineItem struct {
	Description *Text    `json:"description"`
	Quantity    *Decimal `json:"quantity"`
	UnitPrice   *Decimal `json:"unit_price"`
	Amount      *Decimal `json:"amount"`
}

// DecodeInvoice converts an invoice mapping into the typed view. It is lenient
// about numbers sent as strings, strings sent as numbers and addresses sent as
// a single line.
func DecodeInvoice(fields map[string]interface{}) (*Invoice, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshaling invoice fields: %w", err)
	}
	var inv Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("decoding invoice fields: %w", err)
	}
	return &inv, nil
}

// Text is a free-form field such as an invoice number or phone. Models often
// send these as bare numbers (12345) or booleans; the literal is kept as text.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*t = Text(str)
	case strings.HasPrefix(s, "{"), strings.HasPrefix(s, "["):
		return fmt.Errorf("expected a scalar, got %s", s[:1])
	case s != "null":
		*t = Text(s)
	}
	return nil
}

// String returns the text, or "" for a missing field.
func (t *Text) String() string {
	if t == nil {
		return ""
	}
	return string(*t)
}

// Decimal is a monetary or quantity value. It accepts JSON numbers and numeric
// strings, tolerating currency symbols and thousands separators in strings.
type Decimal struct {
	Value float64
	Text  string // numeric text as received, e.g. "3000.00"
	Valid bool
}

func (d *Decimal) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = cleanNumeric(str)
		if s == "" {
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Unreadable values stay invalid instead of failing the whole invoice.
		return nil
	}
	d.Value = v
	d.Text = s
	d.Valid = true
	return nil
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	if d.Text != "" {
		return []byte(d.Text), nil
	}
	return []byte(strconv.FormatFloat(d.Value, 'f', -1, 64)), nil
}

// String formats the value with two decimals.
func (d *Decimal) String() string {
	if d == nil || !d.Valid {
		return ""
	}
	return strconv.FormatFloat(d.Value, 'f', 2, 64)
}

func cleanNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AddressLines is an ordered list of address lines. A single JSON string is
// accepted as a one-line address.
type AddressLines []string

func (a *AddressLines) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = nil
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var line string
		if err := json.Unmarshal(data, &line); err != nil {
			return err
		}
		*a = AddressLines{line}
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*a = lines
	return nil
}

// Joined returns the address lines separated by ", ".
func (a AddressLines) Joined() string {
	return strings.Join(a, ", ")
}
