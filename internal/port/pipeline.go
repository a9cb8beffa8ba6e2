package port

import (
	"context"
	"io"

	"invoiceocr/internal/domain"
)

// RasterizeOptions controls PDF page rendering.
type RasterizeOptions struct {
	DPI       int
	Grayscale bool
	UseVector bool
}

// Rasterizer renders every page of an uploaded PDF to an image, in page order.
// The stream is read from its start and left at its original position.
type Rasterizer interface {
	RasterizeReader(ctx context.Context, pdf io.ReadSeeker, opts RasterizeOptions) ([]domain.PageImage, error)
}

// TextRecognizer runs OCR on a single page image.
type TextRecognizer interface {
	ExtractBlocks(ctx context.Context, src domain.ImageSource) ([]domain.TextBlock, error)
	ExtractFullText(ctx context.Context, src domain.ImageSource) (string, error)
}

// ExtractOutput is the structured result of one extraction call.
type ExtractOutput struct {
	Result    *domain.ExtractionResult
	ModelUsed string
}

// InvoiceExtractor turns document text into structured invoice data.
type InvoiceExtractor interface {
	Extract(ctx context.Context, documentText string) (*ExtractOutput, error)
}
