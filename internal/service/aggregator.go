package service

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"invoiceocr/internal/domain"
	"invoiceocr/internal/port"
)

// pageSeparator follows every page's text in the document text.
const pageSeparator = "\n\n"

// TextAggregator runs OCR over the pages of one document and merges the
// results into a single text and block list.
type TextAggregator interface {
	Aggregate(ctx context.Context, pages []domain.PageImage) (*domain.Aggregation, error)
}

type textAggregator struct {
	recognizer port.TextRecognizer
	workers    int
}

// NewTextAggregator creates a TextAggregator. With workers > 1 pages are
// recognized concurrently; results are still merged in page order.
func NewTextAggregator(recognizer port.TextRecognizer, workers int) TextAggregator {
	if workers < 1 {
		workers = 1
	}
	return &textAggregator{recognizer: recognizer, workers: workers}
}

type pageOCR struct {
	text   string
	blocks []domain.TextBlock
}

func (a *textAggregator) Aggregate(ctx context.Context, pages []domain.PageImage) (*domain.Aggregation, error) {
	results := make([]pageOCR, len(pages))

	if a.workers == 1 || len(pages) < 2 {
		for i, page := range pages {
			res, err := a.recognize(ctx, page)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.workers)
		for i, page := range pages {
			g.Go(func() error {
				res, err := a.recognize(gctx, page)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	var text strings.Builder
	blocks := make([]domain.TextBlock, 0)
	for _, res := range results {
		text.WriteString(res.text)
		text.WriteString(pageSeparator)
		blocks = append(blocks, res.blocks...)
	}
	return &domain.Aggregation{DocumentText: text.String(), Blocks: blocks}, nil
}

func (a *textAggregator) recognize(ctx context.Context, page domain.PageImage) (pageOCR, error) {
	src := domain.ImageFromMemory(page.Image)
	blocks, err := a.recognizer.ExtractBlocks(ctx, src)
	if err != nil {
		return pageOCR{}, err
	}
	text, err := a.recognizer.ExtractFullText(ctx, src)
	if err != nil {
		return pageOCR{}, err
	}
	return pageOCR{text: text, blocks: blocks}, nil
}
