// Package ocr turns page images into positioned text blocks and plain text
// using a pluggable Tesseract backend.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"

	"invoiceocr/internal/domain"
)

// DefaultLanguage is the Tesseract language pack used when none is configured.
const DefaultLanguage = "eng"

// Options configures an Engine.
type Options struct {
	Language string
	PSM      PageSegMode
	Enhance  bool
}

// Config renders the backend config string for these options.
func (o Options) Config() string {
	return o.PSM.Config()
}

// Candidate is one raw word-level result as a backend reports it.
type Candidate struct {
	Text       string
	Left       int
	Top        int
	Width      int
	Height     int
	Confidence float64 // 0-100, negative when the backend has no score
	BlockNum   int
	ParNum     int
	LineNum    int
	WordNum    int
}

// Request is a single backend invocation on a PNG encoded image.
type Request struct {
	Image    []byte
	Language string
	PSM      PageSegMode
}

// Backend runs Tesseract in some form.
type Backend interface {
	Name() string
	// Data returns word-level candidates in the backend's reading order.
	Data(ctx context.Context, req Request) ([]Candidate, error)
	// Text returns the backend's full-text rendering of the image.
	Text(ctx context.Context, req Request) (string, error)
	// Available returns an error if the backend cannot run on this host.
	Available(ctx context.Context) error
}

// Engine implements port.TextRecognizer on top of a Backend.
type Engine struct {
	backend Backend
	opts    Options
}

// NewEngine validates opts and returns an Engine. An empty language falls
// back to DefaultLanguage.
func NewEngine(backend Backend, opts Options) (*Engine, error) {
	if backend == nil {
		return nil, errors.New("ocr backend is required")
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if !opts.PSM.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidPSM, opts.PSM)
	}
	return &Engine{backend: backend, opts: opts}, nil
}

// Options returns the engine's effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Backend returns the name of the underlying backend.
func (e *Engine) Backend() string {
	return e.backend.Name()
}

// ExtractBlocks runs word-level OCR on src and returns the usable blocks.
func (e *Engine) ExtractBlocks(ctx context.Context, src domain.ImageSource) ([]domain.TextBlock, error) {
	req, err := e.request(src)
	if err != nil {
		return nil, err
	}
	cands, err := e.backend.Data(ctx, req)
	if err != nil {
		return nil, e.wrap("data", err)
	}
	return FilterCandidates(cands), nil
}

// ExtractFullText runs full-text OCR on src and returns the text unchanged.
func (e *Engine) ExtractFullText(ctx context.Context, src domain.ImageSource) (string, error) {
	req, err := e.request(src)
	if err != nil {
		return "", err
	}
	text, err := e.backend.Text(ctx, req)
	if err != nil {
		return "", e.wrap("text", err)
	}
	return text, nil
}

// FilterCandidates drops candidates without a usable confidence or with blank
// text and converts the rest to TextBlocks, keeping their order.
func FilterCandidates(cands []Candidate) []domain.TextBlock {
	blocks := make([]domain.TextBlock, 0, len(cands))
	for _, c := range cands {
		if c.Confidence < 0 || c.Confidence > 100 {
			continue
		}
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		blocks = append(blocks, domain.TextBlock{
			Text:       c.Text,
			BBox:       domain.NewBBox(c.Left, c.Top, c.Width, c.Height),
			Confidence: c.Confidence / 100,
			BlockNum:   c.BlockNum,
			LineNum:    c.LineNum,
			WordNum:    c.WordNum,
		})
	}
	return blocks
}

func (e *Engine) request(src domain.ImageSource) (Request, error) {
	img, err := load(src)
	if err != nil {
		return Request{}, domain.NewOCRError(e.backend.Name(), "load", err)
	}
	if e.opts.Enhance {
		img = Enhance(img)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return Request{}, domain.NewOCRError(e.backend.Name(), "encode", err)
	}
	return Request{Image: buf.Bytes(), Language: e.opts.Language, PSM: e.opts.PSM}, nil
}

func (e *Engine) wrap(op string, err error) error {
	var ocrErr *domain.OCRError
	if errors.As(err, &ocrErr) {
		return err
	}
	return domain.NewOCRError(e.backend.Name(), op, err)
}

func load(src domain.ImageSource) (image.Image, error) {
	if src.Image != nil {
		return src.Image, nil
	}
	if src.Path == "" {
		return nil, errors.New("empty image source")
	}
	img, err := imaging.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", src.Path, err)
	}
	return img, nil
}

// Enhance prepares a scan for OCR: grayscale, stronger contrast and a light
// sharpen.
func Enhance(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 20)
	return imaging.Sharpen(out, 1.0)
}
