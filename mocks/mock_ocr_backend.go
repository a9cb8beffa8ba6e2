package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceocr/internal/ocr"
)

// MockOCRBackend is a mock implementation of ocr.Backend.
type MockOCRBackend struct {
	mock.Mock
}

func (m *MockOCRBackend) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockOCRBackend) Data(ctx context.Context, req ocr.Request) ([]ocr.Candidate, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ocr.Candidate), args.Error(1)
}

func (m *MockOCRBackend) Text(ctx context.Context, req ocr.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockOCRBackend) Available(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
