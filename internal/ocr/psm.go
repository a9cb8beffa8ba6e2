package ocr

import (
	"fmt"
	"strconv"
	"strings"

	"invoiceocr/internal/domain"
)

// PageSegMode is a Tesseract page segmentation mode.
type PageSegMode int

const (
	PSMOSDOnly      PageSegMode = 0
	PSMAutoOSD      PageSegMode = 1
	PSMAuto         PageSegMode = 3
	PSMSingleColumn PageSegMode = 4
	PSMSingleBlock  PageSegMode = 6
	PSMSparseText   PageSegMode = 11
)

// DefaultPSM finds as much text as possible in no particular order, which
// suits invoices with scattered fields.
const DefaultPSM = PSMSparseText

var supportedModes = []PageSegMode{
	PSMOSDOnly,
	PSMAutoOSD,
	PSMAuto,
	PSMSingleColumn,
	PSMSingleBlock,
	PSMSparseText,
}

var psmDescriptions = map[PageSegMode]string{
	PSMOSDOnly:      "Orientation and script detection only",
	PSMAutoOSD:      "Automatic page segmentation with OSD",
	PSMAuto:         "Fully automatic page segmentation, but no OSD",
	PSMSingleColumn: "Assume a single column of text of variable sizes",
	PSMSingleBlock:  "Assume a single uniform block of text",
	PSMSparseText:   "Sparse text. Find as much text as possible in no particular order",
}

// SupportedModes returns the selectable modes in ascending order.
func SupportedModes() []PageSegMode {
	out := make([]PageSegMode, len(supportedModes))
	copy(out, supportedModes)
	return out
}

// Valid reports whether m is one of the supported modes.
func (m PageSegMode) Valid() bool {
	_, ok := psmDescriptions[m]
	return ok
}

// Description returns a human readable summary of the mode.
func (m PageSegMode) Description() string {
	if d, ok := psmDescriptions[m]; ok {
		return d
	}
	return "Unsupported mode"
}

// Config renders the mode as a Tesseract config string, e.g. "--psm 6".
func (m PageSegMode) Config() string {
	return "--psm " + strconv.Itoa(int(m))
}

// ParsePSM parses a bare mode number such as "11".
func ParsePSM(s string) (PageSegMode, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidPSM, s)
	}
	m := PageSegMode(n)
	if !m.Valid() {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidPSM, n)
	}
	return m, nil
}

// ParseConfig parses a config string of the form "--psm N".
func ParseConfig(cfg string) (PageSegMode, error) {
	fields := strings.Fields(cfg)
	for i, f := range fields {
		if f == "--psm" && i+1 < len(fields) {
			return ParsePSM(fields[i+1])
		}
		if v, ok := strings.CutPrefix(f, "--psm="); ok {
			return ParsePSM(v)
		}
	}
	return 0, fmt.Errorf("%w: no --psm in %q", domain.ErrInvalidPSM, cfg)
}
