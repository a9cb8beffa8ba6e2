//go:build tesslib

package main

// The libtesseract backend links against libtesseract and leptonica through
// cgo, so it is only registered in builds tagged tesslib.
import _ "invoiceocr/internal/ocr/tesslib"
