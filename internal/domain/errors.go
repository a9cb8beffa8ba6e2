package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConversion          = errors.New("pdf conversion failed")
	ErrOCR                 = errors.New("ocr failed")
	ErrLLM                 = errors.New("llm request failed")
	ErrMissingAPIKey       = errors.New("llm api key is not configured")
	ErrNoPages             = errors.New("no pages could be extracted from the document")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrInvalidDPI          = errors.New("invalid dpi")
	ErrInvalidPSM          = errors.New("invalid page segmentation mode")
	ErrInvalidFormat       = errors.New("invalid export format")
	ErrInvalidParameter    = errors.New("invalid request parameter")
	ErrNoInvoiceData       = errors.New("extraction result holds no invoice data")
)

// ConversionError reports a failed PDF rasterization. It matches ErrConversion
// with errors.Is and unwraps to the underlying cause.
type ConversionError struct {
	Op  string
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("pdf conversion: %s: %v", e.Op, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

// NewConversionError creates a ConversionError for the given step.
func NewConversionError(op string, err error) *ConversionError {
	return &ConversionError{Op: op, Err: err}
}

// OCRError reports a failed OCR backend invocation or an undecodable image.
// It matches ErrOCR with errors.Is and unwraps to the underlying cause.
type OCRError struct {
	Backend string
	Op      string
	Err     error
}

func (e *OCRError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("ocr: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ocr (%s): %s: %v", e.Backend, e.Op, e.Err)
}

func (e *OCRError) Unwrap() error { return e.Err }

func (e *OCRError) Is(target error) bool { return target == ErrOCR }

// NewOCRError creates an OCRError for the given backend and step.
func NewOCRError(backend, op string, err error) *OCRError {
	return &OCRError{Backend: backend, Op: op, Err: err}
}
