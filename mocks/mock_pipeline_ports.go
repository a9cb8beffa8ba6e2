package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"invoiceocr/internal/domain"
	"invoiceocr/internal/port"
)

// MockRasterizer is a mock implementation of port.Rasterizer.
type MockRasterizer struct {
	mock.Mock
}

func (m *MockRasterizer) RasterizeReader(ctx context.Context, pdf io.ReadSeeker, opts port.RasterizeOptions) ([]domain.PageImage, error) {
	args := m.Called(ctx, pdf, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PageImage), args.Error(1)
}

// MockTextRecognizer is a mock implementation of port.TextRecognizer.
type MockTextRecognizer struct {
	mock.Mock
}

func (m *MockTextRecognizer) ExtractBlocks(ctx context.Context, src domain.ImageSource) ([]domain.TextBlock, error) {
	args := m.Called(ctx, src)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TextBlock), args.Error(1)
}

func (m *MockTextRecognizer) ExtractFullText(ctx context.Context, src domain.ImageSource) (string, error) {
	args := m.Called(ctx, src)
	return args.String(0), args.Error(1)
}

// MockInvoiceExtractor is a mock implementation of port.InvoiceExtractor.
type MockInvoiceExtractor struct {
	mock.Mock
}

func (m *MockInvoiceExtractor) Extract(ctx context.Context, documentText string) (*port.ExtractOutput, error) {
	args := m.Called(ctx, documentText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ExtractOutput), args.Error(1)
}
