// Package tesscmd runs OCR through the tesseract command line program.
package tesscmd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"invoiceocr/internal/cmdexec"
	"invoiceocr/internal/config"
	"invoiceocr/internal/domain"
	"invoiceocr/internal/ocr"
)

// Name is the registry name of this backend.
const Name = "tesseract-cli"

const defaultBinary = "tesseract"

func init() {
	ocr.RegisterBackend(Name, func(cfg *config.OCRConfig) (ocr.Backend, error) {
		return New(cfg), nil
	})
}

// Backend invokes the tesseract binary, feeding the image on stdin.
type Backend struct {
	binary      string
	tessdataDir string
	timeout     time.Duration
	runner      cmdexec.Runner
}

// New creates a Backend that runs the configured binary with os/exec.
func New(cfg *config.OCRConfig) *Backend {
	return NewWithRunner(cfg, cmdexec.NewOSRunner())
}

// NewWithRunner creates a Backend with a custom command runner (for testing).
func NewWithRunner(cfg *config.OCRConfig, runner cmdexec.Runner) *Backend {
	binary := cfg.BinaryPath
	if binary == "" {
		binary = defaultBinary
	}
	var timeout time.Duration
	if cfg.TimeoutSecs > 0 {
		timeout = time.Duration(cfg.TimeoutSecs) * time.Second
	}
	return &Backend{
		binary:      binary,
		tessdataDir: cfg.TessdataDir,
		timeout:     timeout,
		runner:      runner,
	}
}

func (b *Backend) Name() string { return Name }

func (b *Backend) Available(_ context.Context) error {
	if _, err := b.runner.LookPath(b.binary); err != nil {
		return domain.NewOCRError(Name, "lookup", err)
	}
	return nil
}

func (b *Backend) Data(ctx context.Context, req ocr.Request) ([]ocr.Candidate, error) {
	out, err := b.run(ctx, req, "tsv")
	if err != nil {
		return nil, err
	}
	cands, err := ParseTSV(out)
	if err != nil {
		return nil, domain.NewOCRError(Name, "parse tsv", err)
	}
	return cands, nil
}

func (b *Backend) Text(ctx context.Context, req ocr.Request) (string, error) {
	out, err := b.run(ctx, req)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (b *Backend) run(ctx context.Context, req ocr.Request, configs ...string) ([]byte, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	out, err := b.runner.Run(ctx, cmdexec.Command{
		Name:  b.binary,
		Args:  b.args(req, configs...),
		Stdin: req.Image,
	})
	if err != nil {
		return nil, domain.NewOCRError(Name, "run", err)
	}
	return out, nil
}

func (b *Backend) args(req ocr.Request, configs ...string) []string {
	args := []string{"stdin", "stdout"}
	if b.tessdataDir != "" {
		args = append(args, "--tessdata-dir", b.tessdataDir)
	}
	lang := req.Language
	if lang == "" {
		lang = ocr.DefaultLanguage
	}
	args = append(args, "-l", lang, "--psm", strconv.Itoa(int(req.PSM)))
	return append(args, configs...)
}

// tsvColumns is the column order of tesseract's tsv output.
var tsvColumns = []string{
	"level", "page_num", "block_num", "par_num", "line_num", "word_num",
	"left", "top", "width", "height", "conf", "text",
}

// ParseTSV parses tesseract tsv output into candidates. Rows for pages,
// blocks, paragraphs and lines are returned too; they carry a confidence of
// -1 and no text.
func ParseTSV(data []byte) ([]ocr.Candidate, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var cands []ocr.Candidate
	header := true
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if header {
			header = false
			if strings.HasPrefix(line, "level\t") {
				continue
			}
		}
		cols := strings.SplitN(line, "\t", len(tsvColumns))
		if len(cols) < len(tsvColumns)-1 {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", lineNo, len(tsvColumns), len(cols))
		}
		c, err := parseRow(cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		cands = append(cands, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return cands, nil
}

func parseRow(cols []string) (ocr.Candidate, error) {
	ints := make([]int, 10)
	for i := 1; i <= 9; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(cols[i]))
		if err != nil {
			return ocr.Candidate{}, fmt.Errorf("column %s: %w", tsvColumns[i], err)
		}
		ints[i] = n
	}
	conf, err := strconv.ParseFloat(strings.TrimSpace(cols[10]), 64)
	if err != nil {
		return ocr.Candidate{}, fmt.Errorf("column conf: %w", err)
	}
	var text string
	if len(cols) > 11 {
		text = cols[11]
	}
	return ocr.Candidate{
		Text:       text,
		BlockNum:   ints[2],
		ParNum:     ints[3],
		LineNum:    ints[4],
		WordNum:    ints[5],
		Left:       ints[6],
		Top:        ints[7],
		Width:      ints[8],
		Height:     ints[9],
		Confidence: conf,
	}, nil
}
