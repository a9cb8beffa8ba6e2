package router_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"invoiceocr/internal/config"
	"invoiceocr/internal/handler"
	"invoiceocr/internal/router"
	"invoiceocr/mocks"
)

func TestSetup_Routes(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Upload: config.UploadConfig{MaxFileSizeMB: 1},
	}
	svc := new(mocks.MockPipelineService)
	log := logrus.New()
	log.SetOutput(io.Discard)

	r := router.Setup(cfg, log, handler.NewInvoiceHandler(svc, cfg), handler.NewHealthHandler(svc))

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/v1/options", http.StatusOK},
		{http.MethodPost, "/api/v1/invoices/extract", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/invoices/extract/download", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(tt.method, tt.path, http.NoBody)
			req.Header.Set("Origin", "http://localhost:3000")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestSetup_SwaggerDoc(t *testing.T) {
	cfg := &config.Config{Upload: config.UploadConfig{MaxFileSizeMB: 1}}
	svc := new(mocks.MockPipelineService)
	log := logrus.New()
	log.SetOutput(io.Discard)
	r := router.Setup(cfg, log, handler.NewInvoiceHandler(svc, cfg), handler.NewHealthHandler(svc))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/invoices/extract/download"`)
	assert.Contains(t, w.Body.String(), `"basePath": "/api/v1"`)
}
