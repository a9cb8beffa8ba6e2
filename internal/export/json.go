package export

import (
	"bytes"
	"encoding/json"
	"io"

	"invoiceocr/internal/domain"
)

// MarshalJSON renders res pretty-printed with a 2-space indent and no
// trailing newline. HTML characters are not escaped. A nil result renders as
// an empty object.
func MarshalJSON(res *domain.ExtractionResult) ([]byte, error) {
	fields := map[string]interface{}{}
	if res != nil {
		fields = res.Fields()
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fields); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// WriteJSON writes the JSON artifact for res to w.
func WriteJSON(w io.Writer, res *domain.ExtractionResult) error {
	data, err := MarshalJSON(res)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
