package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoiceocr/internal/domain"
	"invoiceocr/internal/llm"
	"invoiceocr/internal/logger"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var rateLimited *llm.RateLimitError
	switch {
	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", "language model provider is rate limiting requests; retry later"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, jpg, png, tiff, bmp, webp"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrInvalidDPI):
		return http.StatusBadRequest, "INVALID_DPI", "invalid dpi; allowed: 300, 600"
	case errors.Is(err, domain.ErrInvalidPSM):
		return http.StatusBadRequest, "INVALID_PSM", "invalid psm; allowed: 0, 1, 3, 4, 6, 11"
	case errors.Is(err, domain.ErrInvalidFormat):
		return http.StatusBadRequest, "INVALID_FORMAT", "invalid format; allowed: json, csv, xlsx"
	case errors.Is(err, domain.ErrInvalidParameter):
		return http.StatusBadRequest, "INVALID_PARAMETER", err.Error()
	case errors.Is(err, domain.ErrConversion):
		return http.StatusUnprocessableEntity, "CONVERSION_FAILED", "the pdf could not be converted to images"
	case errors.Is(err, domain.ErrNoPages):
		return http.StatusUnprocessableEntity, "NO_PAGES", "no pages could be extracted from the document"
	case errors.Is(err, domain.ErrNoInvoiceData):
		return http.StatusUnprocessableEntity, "NO_INVOICE_DATA", "the model reply could not be parsed; only json export is available"
	case errors.Is(err, domain.ErrOCR):
		return http.StatusBadGateway, "OCR_FAILED", "text recognition failed"
	case errors.Is(err, domain.ErrLLM):
		return http.StatusBadGateway, "LLM_FAILED", "the language model request failed"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		logger.L().WithField("request_id", requestID).WithError(err).Error("handler: request failed")
	}
	RespondError(c, status, code, msg)
}
