package rasterize_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoiceocr/internal/cmdexec"
	"invoiceocr/internal/config"
	"invoiceocr/internal/domain"
	"invoiceocr/internal/port"
	"invoiceocr/internal/rasterize"
	"invoiceocr/mocks"
)

// minimalPDF builds a structurally valid PDF with n empty pages.
func minimalPDF(n int) []byte {
	var buf bytes.Buffer
	offsets := []int{}
	write := func(obj string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}

	buf.WriteString("%PDF-1.4\n")
	write("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	kids := ""
	for i := 0; i < n; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	write(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids, n))
	for i := 0; i < n; i++ {
		write(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>\nendobj\n", 3+i))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// renderPages returns a Run hook that writes one PNG per page using the
// given file names, each page image as wide as its page number.
func renderPages(t *testing.T, names map[string]int) func(mock.Arguments) {
	return func(args mock.Arguments) {
		cmd := args.Get(1).(cmdexec.Command)
		for name, width := range names {
			img := imaging.New(width, 10, image.White.C)
			require.NoError(t, imaging.Save(img, cmd.Dir+"/"+name))
		}
	}
}

func newRasterizer(t *testing.T, runner cmdexec.Runner) (*rasterize.Rasterizer, string) {
	tmp := t.TempDir()
	cfg := &config.RasterizeConfig{
		PdftocairoPath: "pdftocairo",
		PdftoppmPath:   "pdftoppm",
		DPI:            300,
		UseVector:      true,
		TempDir:        tmp,
	}
	return rasterize.NewWithRunner(cfg, runner), tmp
}

func TestPageCount(t *testing.T) {
	n, err := rasterize.PageCount(minimalPDF(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPageCount_Invalid(t *testing.T) {
	_, err := rasterize.PageCount([]byte("not a pdf at all"))
	assert.Error(t, err)

	_, err = rasterize.PageCount(nil)
	assert.Error(t, err)
}

func TestRasterize_InvalidPDF(t *testing.T) {
	runner := new(mocks.MockRunner)
	r, _ := newRasterizer(t, runner)

	pages, err := r.Rasterize(context.Background(), []byte("%PDF-garbage"), port.RasterizeOptions{DPI: 300})
	assert.Nil(t, pages)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConversion)

	var convErr *domain.ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "validate", convErr.Op)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestRasterize_InvalidDPI(t *testing.T) {
	r, _ := newRasterizer(t, new(mocks.MockRunner))

	_, err := r.Rasterize(context.Background(), minimalPDF(1), port.RasterizeOptions{DPI: 0})
	assert.ErrorIs(t, err, domain.ErrConversion)
	assert.ErrorIs(t, err, domain.ErrInvalidDPI)
}

func TestRasterize_PageOrder(t *testing.T) {
	runner := new(mocks.MockRunner)
	runner.On("Run", mock.Anything, mock.MatchedBy(func(c cmdexec.Command) bool {
		return c.Name == "pdftocairo" && len(c.Args) == 5 && c.Args[0] == "-png" && c.Args[2] == "600"
	})).Run(renderPages(t, map[string]int{
		"page-03.png": 3, "page-01.png": 1, "page-10.png": 10, "page-02.png": 2,
		"page-04.png": 4, "page-05.png": 5, "page-06.png": 6, "page-07.png": 7,
		"page-08.png": 8, "page-09.png": 9, "page-11.png": 11,
	})).Return([]byte{}, nil).Once()

	r, tmp := newRasterizer(t, runner)
	pages, err := r.Rasterize(context.Background(), minimalPDF(11), port.RasterizeOptions{DPI: 600, UseVector: true})
	require.NoError(t, err)
	require.Len(t, pages, 11)
	for i, p := range pages {
		assert.Equal(t, i+1, p.Number)
		assert.Equal(t, i+1, p.Width(), "page %d out of order", i+1)
	}

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp dir must be cleaned up")
	runner.AssertExpectations(t)
}

func TestRasterize_RasterBackendGray(t *testing.T) {
	runner := new(mocks.MockRunner)
	runner.On("Run", mock.Anything, mock.MatchedBy(func(c cmdexec.Command) bool {
		return c.Name == "pdftoppm" && len(c.Args) == 6 && c.Args[3] == "-gray"
	})).Run(renderPages(t, map[string]int{"page-1.png": 5})).Return([]byte{}, nil).Once()

	r, _ := newRasterizer(t, runner)
	pages, err := r.Rasterize(context.Background(), minimalPDF(1), port.RasterizeOptions{DPI: 300, Grayscale: true})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	runner.AssertExpectations(t)
}

func TestRasterize_RendererFailure(t *testing.T) {
	runner := new(mocks.MockRunner)
	runner.On("Run", mock.Anything, mock.Anything).Return(nil, errors.New("pdftocairo failed: exit status 1"))

	r, tmp := newRasterizer(t, runner)
	pages, err := r.Rasterize(context.Background(), minimalPDF(2), port.RasterizeOptions{DPI: 300, UseVector: true})
	assert.Nil(t, pages)
	assert.ErrorIs(t, err, domain.ErrConversion)

	entries, _ := os.ReadDir(tmp)
	assert.Empty(t, entries)
}

func TestRasterize_PageCountMismatch(t *testing.T) {
	runner := new(mocks.MockRunner)
	runner.On("Run", mock.Anything, mock.Anything).
		Run(renderPages(t, map[string]int{"page-1.png": 1})).Return([]byte{}, nil)

	r, _ := newRasterizer(t, runner)
	pages, err := r.Rasterize(context.Background(), minimalPDF(2), port.RasterizeOptions{DPI: 300})
	assert.Nil(t, pages)
	assert.ErrorIs(t, err, domain.ErrConversion)
}

func TestRasterizeReader_RestoresPosition(t *testing.T) {
	runner := new(mocks.MockRunner)
	runner.On("Run", mock.Anything, mock.Anything).
		Run(renderPages(t, map[string]int{"page-1.png": 1})).Return([]byte{}, nil)

	r, _ := newRasterizer(t, runner)
	rs := bytes.NewReader(minimalPDF(1))
	_, err := rs.Seek(4, 0)
	require.NoError(t, err)

	pages, err := r.RasterizeReader(context.Background(), rs, port.RasterizeOptions{DPI: 300})
	require.NoError(t, err)
	assert.Len(t, pages, 1)

	pos, err := rs.Seek(0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)
}

func TestAvailable(t *testing.T) {
	runner := new(mocks.MockRunner)
	runner.On("LookPath", "pdftocairo").Return("", cmdexec.ErrNotFound)

	r, _ := newRasterizer(t, runner)
	assert.ErrorIs(t, r.Available(context.Background()), domain.ErrConversion)
}

func TestRasterize_Poppler(t *testing.T) {
	if _, err := exec.LookPath("pdftocairo"); err != nil {
		t.Skip("pdftocairo not installed")
	}
	r := rasterize.New(&config.RasterizeConfig{TempDir: t.TempDir()})
	pages, err := r.Rasterize(context.Background(), minimalPDF(2), port.RasterizeOptions{DPI: 72, UseVector: true})
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 612, pages[0].Width())
	assert.Equal(t, 792, pages[0].Height())
}
