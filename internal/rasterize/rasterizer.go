// Package rasterize renders PDF pages to images with poppler after checking
// the document with pdfcpu.
package rasterize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"

	"invoiceocr/internal/cmdexec"
	"invoiceocr/internal/config"
	"invoiceocr/internal/domain"
	"invoiceocr/internal/logger"
	"invoiceocr/internal/port"
)

const (
	inputName    = "input.pdf"
	outputPrefix = "page"
)

// Rasterizer implements port.Rasterizer using pdftocairo or pdftoppm.
type Rasterizer struct {
	cfg    config.RasterizeConfig
	runner cmdexec.Runner
	log    *logrus.Logger
}

// New creates a Rasterizer that runs poppler with os/exec.
func New(cfg *config.RasterizeConfig) *Rasterizer {
	return NewWithRunner(cfg, cmdexec.NewOSRunner())
}

// NewWithRunner creates a Rasterizer with a custom command runner (for testing).
func NewWithRunner(cfg *config.RasterizeConfig, runner cmdexec.Runner) *Rasterizer {
	c := *cfg
	if c.PdftocairoPath == "" {
		c.PdftocairoPath = "pdftocairo"
	}
	if c.PdftoppmPath == "" {
		c.PdftoppmPath = "pdftoppm"
	}
	return &Rasterizer{cfg: c, runner: runner, log: logger.L()}
}

// DefaultOptions returns the configured rendering options.
func (r *Rasterizer) DefaultOptions() port.RasterizeOptions {
	dpi := r.cfg.DPI
	if dpi <= 0 {
		dpi = domain.DefaultDPI
	}
	return port.RasterizeOptions{DPI: dpi, Grayscale: r.cfg.Grayscale, UseVector: r.cfg.UseVector}
}

// Available checks that the renderer binaries can be found.
func (r *Rasterizer) Available(_ context.Context) error {
	bin := r.binary(r.DefaultOptions())
	if _, err := r.runner.LookPath(bin); err != nil {
		return domain.NewConversionError("lookup", err)
	}
	return nil
}

// RasterizeReader reads the whole PDF from rs and rasterizes it. The stream
// position is restored afterwards so callers can reuse the same upload.
func (r *Rasterizer) RasterizeReader(ctx context.Context, rs io.ReadSeeker, opts port.RasterizeOptions) ([]domain.PageImage, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, domain.NewConversionError("read", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, domain.NewConversionError("read", err)
	}
	data, readErr := io.ReadAll(rs)
	if _, err := rs.Seek(pos, io.SeekStart); err != nil && readErr == nil {
		readErr = err
	}
	if readErr != nil {
		return nil, domain.NewConversionError("read", readErr)
	}
	return r.Rasterize(ctx, data, opts)
}

// Rasterize renders every page of pdf in page order. On any failure it
// returns a *domain.ConversionError and no pages.
func (r *Rasterizer) Rasterize(ctx context.Context, pdf []byte, opts port.RasterizeOptions) ([]domain.PageImage, error) {
	if opts.DPI <= 0 {
		return nil, domain.NewConversionError("options", fmt.Errorf("%w: %d", domain.ErrInvalidDPI, opts.DPI))
	}
	start := time.Now()

	pageCount, err := PageCount(pdf)
	if err != nil {
		return nil, domain.NewConversionError("validate", err)
	}

	dir, err := os.MkdirTemp(r.cfg.TempDir, "rasterize-*")
	if err != nil {
		return nil, domain.NewConversionError("tempdir", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			r.log.WithError(rmErr).WithField("dir", dir).Warn("rasterize.Rasterizer.Rasterize: failed to remove temp dir")
		}
	}()

	input := filepath.Join(dir, inputName)
	if err := os.WriteFile(input, pdf, 0o600); err != nil {
		return nil, domain.NewConversionError("write input", err)
	}

	if r.cfg.TimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.cfg.TimeoutSecs)*time.Second)
		defer cancel()
	}

	cmd := cmdexec.Command{
		Name: r.binary(opts),
		Args: renderArgs(opts, input, filepath.Join(dir, outputPrefix)),
		Dir:  dir,
	}
	if _, err := r.runner.Run(ctx, cmd); err != nil {
		return nil, domain.NewConversionError("render", err)
	}

	files, err := outputFiles(dir)
	if err != nil {
		return nil, domain.NewConversionError("collect", err)
	}
	if len(files) != pageCount {
		return nil, domain.NewConversionError("collect",
			fmt.Errorf("renderer produced %d images for %d pages", len(files), pageCount))
	}

	pages := make([]domain.PageImage, 0, len(files))
	for i, f := range files {
		img, err := imaging.Open(f.path)
		if err != nil {
			return nil, domain.NewConversionError("decode", fmt.Errorf("page %d: %w", f.number, err))
		}
		pages = append(pages, domain.PageImage{Number: i + 1, Image: img})
	}

	r.log.WithFields(logrus.Fields{
		"pages":    len(pages),
		"dpi":      opts.DPI,
		"renderer": filepath.Base(cmd.Name),
		"elapsed":  time.Since(start).String(),
	}).Debug("rasterize.Rasterizer.Rasterize: rendered document")
	return pages, nil
}

func (r *Rasterizer) binary(opts port.RasterizeOptions) string {
	if opts.UseVector {
		return r.cfg.PdftocairoPath
	}
	return r.cfg.PdftoppmPath
}

func renderArgs(opts port.RasterizeOptions, input, prefix string) []string {
	args := []string{"-png", "-r", strconv.Itoa(opts.DPI)}
	if opts.Grayscale {
		args = append(args, "-gray")
	}
	return append(args, input, prefix)
}

// PageCount validates pdf with pdfcpu in relaxed mode and returns its page
// count.
func PageCount(pdf []byte) (int, error) {
	if len(pdf) == 0 {
		return 0, errors.New("empty document")
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	if pdfCtx.PageCount < 1 {
		return 0, errors.New("document has no pages")
	}
	return pdfCtx.PageCount, nil
}

type pageFile struct {
	number int
	path   string
}

// outputFiles lists the rendered page images in dir ordered by page number.
// Poppler zero-pads the number depending on the page count, so the order is
// numeric rather than lexical.
func outputFiles(dir string) ([]pageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []pageFile
	for _, entry := range entries {
		if n, ok := pageNumber(entry.Name()); ok && !entry.IsDir() {
			files = append(files, pageFile{number: n, path: filepath.Join(dir, entry.Name())})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].number < files[j].number })
	return files, nil
}

func pageNumber(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, outputPrefix+"-")
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, ".png")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
