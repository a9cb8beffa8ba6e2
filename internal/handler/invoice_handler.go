package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoiceocr/internal/config"
	"invoiceocr/internal/domain"
	"invoiceocr/internal/export"
	"invoiceocr/internal/ocr"
	"invoiceocr/internal/service"
)

// multipartOverhead is the slack allowed on top of the file size limit for
// form boundaries and the small option fields.
const multipartOverhead = 1 << 20

// InvoiceHandler handles invoice extraction endpoints.
type InvoiceHandler struct {
	pipeline   service.PipelineService
	maxBytes   int64
	defaultDPI int
	defaultPSM ocr.PageSegMode
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(pipeline service.PipelineService, cfg *config.Config) *InvoiceHandler {
	dpi := cfg.Rasterize.DPI
	if dpi == 0 {
		dpi = domain.DefaultDPI
	}
	return &InvoiceHandler{
		pipeline:   pipeline,
		maxBytes:   cfg.Upload.MaxBytes(),
		defaultDPI: dpi,
		defaultPSM: ocr.PageSegMode(cfg.OCR.PSM),
	}
}

// ExtractResponse is the payload of a successful extraction.
type ExtractResponse struct {
	RunID        uuid.UUID                `json:"run_id"`
	FileName     string                   `json:"file_name"`
	Source       domain.SourceKind        `json:"source"`
	PageCount    int                      `json:"page_count"`
	DocumentText string                   `json:"document_text"`
	BlockCount   int                      `json:"block_count"`
	Blocks       []domain.TextBlock       `json:"blocks,omitempty"`
	Result       *domain.ExtractionResult `json:"result"`
	ParseFailed  bool                     `json:"parse_failed"`
	ModelUsed    string                   `json:"model_used,omitempty"`
	TimingsMS    map[string]int64         `json:"timings_ms"`
}

// PSMOption describes one selectable page segmentation mode.
type PSMOption struct {
	Value       int    `json:"value"`
	Description string `json:"description"`
	Config      string `json:"config"`
}

// OptionsResponse lists the choices accepted by the extraction endpoints.
type OptionsResponse struct {
	DPIs       []int       `json:"dpis"`
	DefaultDPI int         `json:"default_dpi"`
	PSMs       []PSMOption `json:"psms"`
	DefaultPSM int         `json:"default_psm"`
	Formats    []string    `json:"formats"`
}

// Extract handles POST /api/v1/invoices/extract
// @Summary Extract invoice data
// @Description Upload a PDF or image invoice; the pages are rasterized, OCR'd and sent to the language model
// @Tags invoices
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Invoice (PDF, JPG, PNG, TIFF, BMP or WEBP)"
// @Param dpi formData int false "Rasterization resolution (300 or 600)"
// @Param psm formData int false "Tesseract page segmentation mode (0, 1, 3, 4, 6, 11)"
// @Param include_blocks formData bool false "Include OCR word blocks in the response"
// @Success 200 {object} Response{data=ExtractResponse}
// @Failure 400 {object} ErrorResponseBody "Missing file or invalid option"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 422 {object} ErrorResponseBody "PDF could not be converted"
// @Failure 502 {object} ErrorResponseBody "OCR or language model failure"
// @Router /invoices/extract [post]
func (h *InvoiceHandler) Extract(c *gin.Context) {
	result, form, ok := h.process(c)
	if !ok {
		return
	}

	resp := ExtractResponse{
		RunID:        result.RunID,
		FileName:     result.FileName,
		Source:       result.Source,
		PageCount:    result.PageCount(),
		DocumentText: result.DocumentText,
		BlockCount:   len(result.Blocks),
		Result:       result.Extraction,
		ParseFailed:  result.Extraction.IsError(),
		ModelUsed:    result.ModelUsed,
		TimingsMS: map[string]int64{
			"rasterize": result.Timings.Rasterize.Milliseconds(),
			"ocr":       result.Timings.OCR.Milliseconds(),
			"extract":   result.Timings.Extract.Milliseconds(),
		},
	}
	if form.includeBlocks {
		resp.Blocks = result.Blocks
	}
	RespondOK(c, resp)
}

// Download handles POST /api/v1/invoices/extract/download
// @Summary Extract invoice data as a file
// @Description Same pipeline as extract; responds with invoice_data.json (or csv / xlsx) as an attachment
// @Tags invoices
// @Accept multipart/form-data
// @Produce application/json
// @Param format query string false "json (default), csv or xlsx"
// @Param file formData file true "Invoice (PDF, JPG, PNG, TIFF, BMP or WEBP)"
// @Param dpi formData int false "Rasterization resolution (300 or 600)"
// @Param psm formData int false "Tesseract page segmentation mode"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponseBody "Missing file or invalid option"
// @Failure 422 {object} ErrorResponseBody "No invoice data to export"
// @Router /invoices/extract/download [post]
func (h *InvoiceHandler) Download(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		HandleError(c, err)
		return
	}

	result, _, ok := h.process(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, result.Extraction); err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// Options handles GET /api/v1/options
// @Summary List extraction options
// @Tags invoices
// @Produce json
// @Success 200 {object} Response{data=OptionsResponse}
// @Router /options [get]
func (h *InvoiceHandler) Options(c *gin.Context) {
	modes := ocr.SupportedModes()
	psms := make([]PSMOption, 0, len(modes))
	for _, m := range modes {
		psms = append(psms, PSMOption{Value: int(m), Description: m.Description(), Config: m.Config()})
	}
	RespondOK(c, OptionsResponse{
		DPIs:       domain.AllowedDPIs,
		DefaultDPI: h.defaultDPI,
		PSMs:       psms,
		DefaultPSM: int(h.defaultPSM),
		Formats:    []string{string(export.FormatJSON), string(export.FormatCSV), string(export.FormatXLSX)},
	})
}

// extractForm holds the option fields of an extraction request.
type extractForm struct {
	options       service.ProcessOptions
	includeBlocks bool
}

// process reads the upload and options, runs the pipeline and writes an error
// response when anything fails.
func (h *InvoiceHandler) process(c *gin.Context) (*domain.PipelineResult, extractForm, bool) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HandleError(c, domain.ErrFileTooLarge)
			return nil, extractForm{}, false
		}
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return nil, extractForm{}, false
	}
	defer func() { _ = file.Close() }()

	form, err := parseExtractForm(c)
	if err != nil {
		HandleError(c, err)
		return nil, form, false
	}

	result, err := h.pipeline.Process(c.Request.Context(), service.DocumentInput{
		FileName: header.Filename,
		Size:     header.Size,
		Content:  file,
		Options:  form.options,
	})
	if err != nil {
		HandleError(c, err)
		return nil, form, false
	}
	return result, form, true
}

func parseExtractForm(c *gin.Context) (extractForm, error) {
	var form extractForm
	if v := c.PostForm("dpi"); v != "" {
		dpi, err := strconv.Atoi(v)
		if err != nil || !domain.IsAllowedDPI(dpi) {
			return form, fmt.Errorf("%w: %q", domain.ErrInvalidDPI, v)
		}
		form.options.DPI = dpi
	}
	if v := c.PostForm("psm"); v != "" {
		psm, err := ocr.ParsePSM(v)
		if err != nil {
			return form, err
		}
		form.options.PSM = &psm
	}
	if v := c.PostForm("include_blocks"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return form, fmt.Errorf("%w: include_blocks must be a boolean", domain.ErrInvalidParameter)
		}
		form.includeBlocks = include
	}
	return form, nil
}
