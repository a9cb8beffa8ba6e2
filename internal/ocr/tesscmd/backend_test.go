package tesscmd_test

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoiceocr/internal/cmdexec"
	"invoiceocr/internal/config"
	"invoiceocr/internal/domain"
	"invoiceocr/internal/ocr"
	"invoiceocr/internal/ocr/tesscmd"
	"invoiceocr/mocks"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t2480\t3508\t-1\t\n" +
	"2\t1\t1\t0\t0\t0\t100\t120\t600\t80\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t100\t120\t250\t40\t96.061234\tINVOICE\n" +
	"5\t1\t1\t1\t1\t2\t380\t120\t200\t40\t91.5\tINV-001\n" +
	"5\t1\t2\t1\t1\t1\t100\t300\t80\t30\t47\tTotal:\n"

func TestParseTSV(t *testing.T) {
	cands, err := tesscmd.ParseTSV([]byte(sampleTSV))
	require.NoError(t, err)
	require.Len(t, cands, 5)

	assert.Equal(t, -1.0, cands[0].Confidence)
	assert.Equal(t, "", cands[0].Text)

	word := cands[2]
	assert.Equal(t, "INVOICE", word.Text)
	assert.Equal(t, 100, word.Left)
	assert.Equal(t, 120, word.Top)
	assert.Equal(t, 250, word.Width)
	assert.Equal(t, 40, word.Height)
	assert.InDelta(t, 96.061234, word.Confidence, 1e-9)
	assert.Equal(t, 1, word.BlockNum)
	assert.Equal(t, 1, word.ParNum)
	assert.Equal(t, 1, word.LineNum)
	assert.Equal(t, 1, word.WordNum)

	assert.Equal(t, 2, cands[4].BlockNum)
	assert.Equal(t, "Total:", cands[4].Text)
}

func TestParseTSV_FilteredThroughEngine(t *testing.T) {
	cands, err := tesscmd.ParseTSV([]byte(sampleTSV))
	require.NoError(t, err)

	blocks := ocr.FilterCandidates(cands)
	require.Len(t, blocks, 3)
	assert.Equal(t, domain.BBox{100, 120, 350, 160}, blocks[0].BBox)
	assert.InDelta(t, 0.47, blocks[2].Confidence, 1e-9)
}

func TestParseTSV_TextWithTabs(t *testing.T) {
	data := "5\t1\t1\t1\t1\t1\t1\t2\t3\t4\t90\ta\tb\n"
	cands, err := tesscmd.ParseTSV([]byte(data))
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "a\tb", cands[0].Text)
}

func TestParseTSV_Malformed(t *testing.T) {
	_, err := tesscmd.ParseTSV([]byte("level\ttext\n5\t1\t1\n"))
	assert.Error(t, err)

	_, err = tesscmd.ParseTSV([]byte("5\t1\t1\t1\t1\t1\tx\t2\t3\t4\t90\tword\n"))
	assert.Error(t, err)
}

func TestParseTSV_Empty(t *testing.T) {
	cands, err := tesscmd.ParseTSV(nil)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestBackend_DataInvocation(t *testing.T) {
	runner := new(mocks.MockRunner)
	runner.On("Run", mock.Anything, mock.MatchedBy(func(c cmdexec.Command) bool {
		return c.Name == "/opt/tesseract" &&
			assert.ObjectsAreEqual([]string{"stdin", "stdout", "--tessdata-dir", "/td", "-l", "deu", "--psm", "6", "tsv"}, c.Args) &&
			string(c.Stdin) == "png-bytes"
	})).Return([]byte(sampleTSV), nil).Once()

	b := tesscmd.NewWithRunner(&config.OCRConfig{BinaryPath: "/opt/tesseract", TessdataDir: "/td"}, runner)
	cands, err := b.Data(context.Background(), ocr.Request{Image: []byte("png-bytes"), Language: "deu", PSM: ocr.PSMSingleBlock})
	require.NoError(t, err)
	assert.Len(t, cands, 5)
	runner.AssertExpectations(t)
}

func TestBackend_TextInvocation(t *testing.T) {
	runner := new(mocks.MockRunner)
	runner.On("Run", mock.Anything, mock.MatchedBy(func(c cmdexec.Command) bool {
		return c.Name == "tesseract" &&
			assert.ObjectsAreEqual([]string{"stdin", "stdout", "-l", "eng", "--psm", "11"}, c.Args)
	})).Return([]byte("INVOICE\nTotal: 10\n"), nil).Once()

	b := tesscmd.NewWithRunner(&config.OCRConfig{}, runner)
	text, err := b.Text(context.Background(), ocr.Request{Image: []byte("x"), PSM: ocr.PSMSparseText})
	require.NoError(t, err)
	assert.Equal(t, "INVOICE\nTotal: 10\n", text)
}

func TestBackend_RunFailure(t *testing.T) {
	runner := new(mocks.MockRunner)
	runner.On("Run", mock.Anything, mock.Anything).Return(nil, errors.New("exit status 1"))

	b := tesscmd.NewWithRunner(&config.OCRConfig{}, runner)
	_, err := b.Data(context.Background(), ocr.Request{Image: []byte("x"), PSM: ocr.PSMAuto})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOCR)
}

func TestBackend_Available(t *testing.T) {
	runner := new(mocks.MockRunner)
	runner.On("LookPath", "missing-tesseract").Return("", cmdexec.ErrNotFound)

	b := tesscmd.NewWithRunner(&config.OCRConfig{BinaryPath: "missing-tesseract"}, runner)
	err := b.Available(context.Background())
	assert.ErrorIs(t, err, domain.ErrOCR)
	assert.ErrorIs(t, err, cmdexec.ErrNotFound)
}

func TestBackend_RealBinary(t *testing.T) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed")
	}
	b := tesscmd.New(&config.OCRConfig{})
	assert.NoError(t, b.Available(context.Background()))
	assert.Equal(t, tesscmd.Name, b.Name())
}
