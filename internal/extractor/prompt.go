package extractor

import "strings"

const fence = "```"

// SystemPrompt instructs the model how to read invoices.
const SystemPrompt = `You are an intelligent document parsing assistant specialized in extracting structured information from invoices and similar documents. 
Extract information precisely as it appears in the source document, maintaining original formatting of alphanumeric values.
For numeric fields, remove any currency symbols and convert to decimal format.
If a field is not found, return null for that field.`

// humanPromptHead precedes the document text; it lists the fields and shows a
// worked example of the expected JSON.
const humanPromptHead = `Extract the following fields from the invoice:
- Invoice number
- Invoice date
- Due date (if available)
- Vendor/Supplier name
- Vendor contact information (email, phone, address)
- Line items (as an array of objects with description, quantity, unit price, and amount)
- Subtotal (before tax)
- Tax amount (if specified)
- Total amount

For each line item, capture:
- Item description
- Quantity
- Unit price (without currency symbols)
- Amount (without currency symbols)

Provide the results as a structured JSON object with appropriate nesting.
For tables or line items, return an array of objects.

Example of expected output format:
` + fence + `json
{
  "invoice_number": "INV-001",
  "invoice_date": "2023-01-15",
  "due_date": "2023-02-15",
  "vendor_name": "ABC Company",
  "vendor_contact": {
    "email": "billing@abccompany.com",
    "phone": "555-123-4567",
    "address": ["123 Business St", "Suite 200", "Metropolis, NY 10001"]
  },
  "line_items": [
    {
      "description": "Web Development Services",
      "quantity": 40,
      "unit_price": 75.00,
      "amount": 3000.00
    },
    {
      "description": "Website Hosting (Annual)",
      "quantity": 1,
      "unit_price": 300.00,
      "amount": 300.00
    }
  ],
  "subtotal": 3300.00,
  "tax_amount": 231.00,
  "total_amount": 3531.00
}
` + fence + `

Text content to process: `

const humanPromptTail = `

Return only a valid JSON dictionary with no additional commentary.
`

// BuildHumanPrompt returns the per-document extraction request.
func BuildHumanPrompt(documentText string) string {
	var b strings.Builder
	b.Grow(len(humanPromptHead) + len(documentText) + len(humanPromptTail))
	b.WriteString(humanPromptHead)
	b.WriteString(documentText)
	b.WriteString(humanPromptTail)
	return b.String()
}
