package domain

import (
	"image"
	"time"

	"github.com/google/uuid"
)

// BBox is a pixel rectangle (x1, y1, x2, y2) with the origin at the top-left
// corner of the page image. x1 <= x2 and y1 <= y2.
type BBox [4]int

// NewBBox derives a BBox from an OCR (left, top, width, height) box.
func NewBBox(left, top, width, height int) BBox {
	return BBox{left, top, left + width, top + height}
}

// TextBlock is one OCR-detected word with its position and confidence.
type TextBlock struct {
	Text       string  `json:"text"`
	BBox       BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
	BlockNum   int     `json:"block_num"`
	LineNum    int     `json:"line_num"`
	WordNum    int     `json:"word_num"`
}

// PageImage is the raster of a single document page.
type PageImage struct {
	Number int         `json:"number"` // 1-based, in document order
	Image  image.Image `json:"-"`
}

// Width returns the page width in pixels.
func (p PageImage) Width() int {
	if p.Image == nil {
		return 0
	}
	return p.Image.Bounds().Dx()
}

// Height returns the page height in pixels.
func (p PageImage) Height() int {
	if p.Image == nil {
		return 0
	}
	return p.Image.Bounds().Dy()
}

// Aggregation is the document-level OCR output: the page texts joined in page
// order and every page's blocks in page order.
type Aggregation struct {
	DocumentText string      `json:"document_text"`
	Blocks       []TextBlock `json:"blocks"`
}

// Timings records how long each pipeline stage took.
type Timings struct {
	Rasterize time.Duration `json:"rasterize"`
	OCR       time.Duration `json:"ocr"`
	Extract   time.Duration `json:"extract"`
}

// PipelineResult is the outcome of one pipeline run. It is built once and
// handed to presentation code; nothing in it is shared with other runs.
type PipelineResult struct {
	RunID        uuid.UUID         `json:"run_id"`
	Source       SourceKind        `json:"source"`
	FileName     string            `json:"file_name,omitempty"`
	Pages        []PageImage       `json:"-"`
	DocumentText string            `json:"document_text"`
	Blocks       []TextBlock       `json:"blocks"`
	Extraction   *ExtractionResult `json:"extraction"`
	ModelUsed    string            `json:"model_used,omitempty"`
	Timings      Timings           `json:"timings"`
	CompletedAt  time.Time         `json:"completed_at"`
}

// PageCount returns the number of page images the run produced.
func (r *PipelineResult) PageCount() int {
	return len(r.Pages)
}

// ImageSource refers to an OCR input: an in-memory image or a file on disk.
type ImageSource struct {
	Image image.Image
	Path  string
}

// ImageFromMemory wraps an already decoded image.
func ImageFromMemory(img image.Image) ImageSource {
	return ImageSource{Image: img}
}

// ImageFromPath refers to an image file that is decoded when needed.
func ImageFromPath(path string) ImageSource {
	return ImageSource{Path: path}
}
