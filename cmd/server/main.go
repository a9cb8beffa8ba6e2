package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"invoiceocr/internal/config"
	"invoiceocr/internal/extractor"
	"invoiceocr/internal/handler"
	"invoiceocr/internal/llm"
	"invoiceocr/internal/logger"
	"invoiceocr/internal/ocr"
	"invoiceocr/internal/rasterize"
	"invoiceocr/internal/router"
	"invoiceocr/internal/service"

	// Register chat model providers and OCR backends.
	_ "invoiceocr/internal/llm/groq"
	_ "invoiceocr/internal/llm/langchain"
	_ "invoiceocr/internal/ocr/tesscmd"
)

const shutdownTimeout = 30 * time.Second

// @title Invoice OCR API
// @version 1.0
// @description Rasterizes invoices, runs Tesseract OCR and extracts structured fields with a language model.
// @BasePath /api/v1
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.Log)
	lg := logger.L()

	// Initialize pipeline components
	ocrBackend, err := ocr.NewBackend(&cfg.OCR)
	if err != nil {
		return fmt.Errorf("failed to initialize OCR backend: %w", err)
	}
	chatModel, err := llm.NewFromConfig(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	ext := extractor.New(chatModel,
		extractor.WithMaxTokens(cfg.LLM.Primary.MaxTokens),
		extractor.WithLogger(lg),
	)
	rasterizer := rasterize.New(&cfg.Rasterize)

	pipelineSvc := service.NewPipelineService(rasterizer, ocrBackend, ext, cfg)
	if err := pipelineSvc.Ready(context.Background()); err != nil {
		lg.WithError(err).Warn("external tools unavailable; /readyz will report unavailable")
	}

	// Initialize handlers
	invoiceH := handler.NewInvoiceHandler(pipelineSvc, cfg)
	healthH := handler.NewHealthHandler(pipelineSvc)

	// Setup router
	r := router.Setup(cfg, lg, invoiceH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		lg.WithFields(logrus.Fields{
			"addr":        cfg.Server.Port,
			"ocr_backend": ocrBackend.Name(),
			"llm":         cfg.LLM.Primary.Provider,
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	lg.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
