//go:build tesslib

// Package tesslib runs OCR in-process through libtesseract (gosseract).
package tesslib

import (
	"context"
	"errors"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"invoiceocr/internal/config"
	"invoiceocr/internal/domain"
	"invoiceocr/internal/ocr"
)

// Name is the registry name of this backend.
const Name = "tesseract-lib"

func init() {
	ocr.RegisterBackend(Name, func(cfg *config.OCRConfig) (ocr.Backend, error) {
		return New(cfg), nil
	})
}

// Backend uses a fresh gosseract client per invocation.
type Backend struct {
	tessdataDir   string
	clientFactory func() *gosseract.Client
}

func New(cfg *config.OCRConfig) *Backend {
	return &Backend{tessdataDir: cfg.TessdataDir, clientFactory: gosseract.NewClient}
}

func (b *Backend) Name() string { return Name }

func (b *Backend) Available(_ context.Context) error {
	if gosseract.Version() == "" {
		return domain.NewOCRError(Name, "version", errors.New("libtesseract did not report a version"))
	}
	return nil
}

func (b *Backend) Data(ctx context.Context, req ocr.Request) ([]ocr.Candidate, error) {
	c, err := b.client(ctx, req)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	boxes, err := c.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, domain.NewOCRError(Name, "bounding boxes", err)
	}
	cands := make([]ocr.Candidate, 0, len(boxes))
	for _, box := range boxes {
		cands = append(cands, ocr.Candidate{
			Text:       box.Word,
			Left:       box.Box.Min.X,
			Top:        box.Box.Min.Y,
			Width:      box.Box.Dx(),
			Height:     box.Box.Dy(),
			Confidence: box.Confidence,
			BlockNum:   box.BlockNum,
			ParNum:     box.ParNum,
			LineNum:    box.LineNum,
			WordNum:    box.WordNum,
		})
	}
	return cands, nil
}

func (b *Backend) Text(ctx context.Context, req ocr.Request) (string, error) {
	c, err := b.client(ctx, req)
	if err != nil {
		return "", err
	}
	defer c.Close()

	text, err := c.Text()
	if err != nil {
		return "", domain.NewOCRError(Name, "text", err)
	}
	return text, nil
}

// client returns a configured client holding the request image. The caller
// must close it.
func (b *Backend) client(ctx context.Context, req ocr.Request) (*gosseract.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewOCRError(Name, "start", err)
	}
	c := b.clientFactory()
	if err := b.configure(c, req); err != nil {
		c.Close()
		return nil, domain.NewOCRError(Name, "configure", err)
	}
	return c, nil
}

func (b *Backend) configure(c *gosseract.Client, req ocr.Request) error {
	if b.tessdataDir != "" {
		if err := c.SetTessdataPrefix(b.tessdataDir); err != nil {
			return fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	lang := req.Language
	if lang == "" {
		lang = ocr.DefaultLanguage
	}
	if err := c.SetLanguage(lang); err != nil {
		return fmt.Errorf("set language: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(req.PSM)); err != nil {
		return fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := c.SetImageFromBytes(req.Image); err != nil {
		return fmt.Errorf("set image: %w", err)
	}
	return nil
}
