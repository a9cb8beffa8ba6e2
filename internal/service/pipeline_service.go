package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	// Decoders for image uploads beyond the stdlib png/jpeg set.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"invoiceocr/internal/config"
	"invoiceocr/internal/domain"
	"invoiceocr/internal/logger"
	"invoiceocr/internal/ocr"
	"invoiceocr/internal/port"
)

// ProcessOptions are the per-run choices a caller may make. Zero values fall
// back to configuration.
type ProcessOptions struct {
	DPI int
	PSM *ocr.PageSegMode
}

// DocumentInput is the DTO for a single uploaded document.
type DocumentInput struct {
	FileName string
	Size     int64
	Content  io.ReadSeeker
	Options  ProcessOptions
}

// PipelineService defines the document processing contract: rasterize, OCR,
// then structured extraction.
type PipelineService interface {
	Process(ctx context.Context, input DocumentInput) (*domain.PipelineResult, error)
	ProcessPDF(ctx context.Context, pdf io.ReadSeeker, opts ProcessOptions) (*domain.PipelineResult, error)
	ProcessImage(ctx context.Context, img io.Reader, opts ProcessOptions) (*domain.PipelineResult, error)
	Ready(ctx context.Context) error
}

// availabilityChecker is implemented by components that depend on external
// binaries or libraries.
type availabilityChecker interface {
	Available(ctx context.Context) error
}

type pipelineService struct {
	rasterizer port.Rasterizer
	ocrBackend ocr.Backend
	extractor  port.InvoiceExtractor
	ocrCfg     config.OCRConfig
	rasterCfg  config.RasterizeConfig
	maxBytes   int64
	log        *logrus.Logger
}

// NewPipelineService creates a new PipelineService implementation.
func NewPipelineService(
	rasterizer port.Rasterizer,
	ocrBackend ocr.Backend,
	extractor port.InvoiceExtractor,
	cfg *config.Config,
) PipelineService {
	return &pipelineService{
		rasterizer: rasterizer,
		ocrBackend: ocrBackend,
		extractor:  extractor,
		ocrCfg:     cfg.OCR,
		rasterCfg:  cfg.Rasterize,
		maxBytes:   cfg.Upload.MaxBytes(),
		log:        logger.L(),
	}
}

func (s *pipelineService) Process(ctx context.Context, input DocumentInput) (*domain.PipelineResult, error) {
	fileType, err := DetectFileType(input.FileName, input.Size, s.maxBytes, input.Content)
	if err != nil {
		return nil, err
	}

	var result *domain.PipelineResult
	if domain.SourceKindFor(fileType) == domain.SourcePDF {
		result, err = s.ProcessPDF(ctx, input.Content, input.Options)
	} else {
		result, err = s.ProcessImage(ctx, input.Content, input.Options)
	}
	if err != nil {
		return nil, err
	}
	result.FileName = input.FileName
	return result, nil
}

func (s *pipelineService) ProcessPDF(ctx context.Context, pdf io.ReadSeeker, opts ProcessOptions) (*domain.PipelineResult, error) {
	engine, rasterOpts, err := s.resolve(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	pages, err := s.rasterizer.RasterizeReader(ctx, pdf, rasterOpts)
	if err != nil {
		return nil, err
	}
	timings := domain.Timings{Rasterize: time.Since(start)}

	return s.run(ctx, domain.SourcePDF, pages, engine, timings)
}

func (s *pipelineService) ProcessImage(ctx context.Context, img io.Reader, opts ProcessOptions) (*domain.PipelineResult, error) {
	engine, _, err := s.resolve(opts)
	if err != nil {
		return nil, err
	}

	decoded, err := imaging.Decode(img, imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.NewOCRError(engine.Backend(), "decode", err)
	}
	pages := []domain.PageImage{{Number: 1, Image: decoded}}

	return s.run(ctx, domain.SourceImage, pages, engine, domain.Timings{})
}

func (s *pipelineService) Ready(ctx context.Context) error {
	if err := s.ocrBackend.Available(ctx); err != nil {
		return err
	}
	if checker, ok := s.rasterizer.(availabilityChecker); ok {
		if err := checker.Available(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *pipelineService) run(
	ctx context.Context,
	source domain.SourceKind,
	pages []domain.PageImage,
	engine *ocr.Engine,
	timings domain.Timings,
) (*domain.PipelineResult, error) {
	if len(pages) == 0 {
		return nil, domain.ErrNoPages
	}
	runID := uuid.New()
	log := s.log.WithFields(logrus.Fields{
		"run_id": runID.String(),
		"source": string(source),
		"pages":  len(pages),
		"psm":    int(engine.Options().PSM),
	})

	start := time.Now()
	agg, err := NewTextAggregator(engine, s.ocrCfg.Workers).Aggregate(ctx, pages)
	if err != nil {
		log.WithError(err).Error("service.PipelineService: ocr failed")
		return nil, err
	}
	timings.OCR = time.Since(start)

	start = time.Now()
	out, err := s.extractor.Extract(ctx, agg.DocumentText)
	if err != nil {
		log.WithError(err).Error("service.PipelineService: extraction failed")
		return nil, err
	}
	timings.Extract = time.Since(start)

	log.WithFields(logrus.Fields{
		"blocks":       len(agg.Blocks),
		"text_len":     len(agg.DocumentText),
		"parse_failed": out.Result.IsError(),
		"model":        out.ModelUsed,
		"rasterize_ms": timings.Rasterize.Milliseconds(),
		"ocr_ms":       timings.OCR.Milliseconds(),
		"extract_ms":   timings.Extract.Milliseconds(),
	}).Info("service.PipelineService: run completed")

	return &domain.PipelineResult{
		RunID:        runID,
		Source:       source,
		Pages:        pages,
		DocumentText: agg.DocumentText,
		Blocks:       agg.Blocks,
		Extraction:   out.Result,
		ModelUsed:    out.ModelUsed,
		Timings:      timings,
		CompletedAt:  time.Now().UTC(),
	}, nil
}

// resolve builds the OCR engine and rasterization options for one run.
func (s *pipelineService) resolve(opts ProcessOptions) (*ocr.Engine, port.RasterizeOptions, error) {
	dpi := opts.DPI
	if dpi == 0 {
		dpi = s.rasterCfg.DPI
	}
	if dpi == 0 {
		dpi = domain.DefaultDPI
	}
	if dpi < 0 {
		return nil, port.RasterizeOptions{}, fmt.Errorf("%w: %d", domain.ErrInvalidDPI, dpi)
	}

	psm := ocr.PageSegMode(s.ocrCfg.PSM)
	if opts.PSM != nil {
		psm = *opts.PSM
	}
	engine, err := ocr.NewEngine(s.ocrBackend, ocr.Options{
		Language: s.ocrCfg.Language,
		PSM:      psm,
		Enhance:  s.ocrCfg.Enhance,
	})
	if err != nil {
		return nil, port.RasterizeOptions{}, err
	}

	return engine, port.RasterizeOptions{
		DPI:       dpi,
		Grayscale: s.rasterCfg.Grayscale,
		UseVector: s.rasterCfg.UseVector,
	}, nil
}
