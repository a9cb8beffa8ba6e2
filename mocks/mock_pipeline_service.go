package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"invoiceocr/internal/domain"
	"invoiceocr/internal/service"
)

// MockPipelineService is a mock implementation of service.PipelineService.
type MockPipelineService struct {
	mock.Mock
}

func (m *MockPipelineService) Process(ctx context.Context, input service.DocumentInput) (*domain.PipelineResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PipelineResult), args.Error(1)
}

func (m *MockPipelineService) ProcessPDF(ctx context.Context, pdf io.ReadSeeker, opts service.ProcessOptions) (*domain.PipelineResult, error) {
	args := m.Called(ctx, pdf, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PipelineResult), args.Error(1)
}

func (m *MockPipelineService) ProcessImage(ctx context.Context, img io.Reader, opts service.ProcessOptions) (*domain.PipelineResult, error) {
	args := m.Called(ctx, img, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PipelineResult), args.Error(1)
}

func (m *MockPipelineService) Ready(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
