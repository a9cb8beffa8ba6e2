// Command extract runs the invoice pipeline on one local file and writes the
// structured result next to it.
// Usage: go run ./cmd/extract [-dpi 300] [-psm 11] [-format json|csv|xlsx] [-out invoice_data.json] FILE
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"invoiceocr/internal/config"
	"invoiceocr/internal/domain"
	"invoiceocr/internal/export"
	"invoiceocr/internal/extractor"
	"invoiceocr/internal/llm"
	"invoiceocr/internal/logger"
	"invoiceocr/internal/ocr"
	"invoiceocr/internal/rasterize"
	"invoiceocr/internal/service"

	_ "invoiceocr/internal/llm/groq"
	_ "invoiceocr/internal/llm/langchain"
	_ "invoiceocr/internal/ocr/tesscmd"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dpi := flag.Int("dpi", 0, "rasterization resolution (300 or 600); 0 uses the configured default")
	psm := flag.String("psm", "", "tesseract page segmentation mode (0, 1, 3, 4, 6, 11)")
	formatName := flag.String("format", "json", "output format: json, csv or xlsx")
	out := flag.String("out", "", "output path; defaults to invoice_data.<format>")
	flag.Parse()

	if flag.NArg() != 1 {
		return fmt.Errorf("usage: extract [flags] FILE")
	}
	path := flag.Arg(0)

	format, err := export.ParseFormat(*formatName)
	if err != nil {
		return err
	}
	opts := service.ProcessOptions{}
	if *dpi != 0 {
		if !domain.IsAllowedDPI(*dpi) {
			return fmt.Errorf("%w: %d", domain.ErrInvalidDPI, *dpi)
		}
		opts.DPI = *dpi
	}
	if *psm != "" {
		mode, err := ocr.ParsePSM(*psm)
		if err != nil {
			return err
		}
		opts.PSM = &mode
	}
	outPath := *out
	if outPath == "" {
		outPath = format.FileName()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.Init(cfg.Log)

	ocrBackend, err := ocr.NewBackend(&cfg.OCR)
	if err != nil {
		return fmt.Errorf("initializing OCR backend: %w", err)
	}
	chatModel, err := llm.NewFromConfig(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("initializing LLM provider: %w", err)
	}
	ext := extractor.New(chatModel,
		extractor.WithMaxTokens(cfg.LLM.Primary.MaxTokens),
		extractor.WithLogger(logger.L()),
	)
	pipeline := service.NewPipelineService(rasterize.New(&cfg.Rasterize), ocrBackend, ext, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	result, err := pipeline.Process(ctx, service.DocumentInput{
		FileName: filepath.Base(path),
		Size:     info.Size(),
		Content:  f,
		Options:  opts,
	})
	if err != nil {
		return fmt.Errorf("processing %s: %w", path, err)
	}
	if result.Extraction.IsError() && format == export.FormatJSON {
		log.Printf("warning: model reply could not be parsed; raw reply kept in %s", outPath)
	}

	dst, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	if err := export.Write(dst, format, result.Extraction); err != nil {
		_ = dst.Close()
		_ = os.Remove(outPath)
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", outPath, err)
	}

	log.Printf("%s: %d page(s), %d OCR blocks -> %s", path, result.PageCount(), len(result.Blocks), outPath)
	return nil
}
