package recognize

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocv.io/x/gocv"

	"boardsight/internal/config"
	"boardsight/internal/fen"
	"boardsight/internal/locate"
	"boardsight/internal/template"
)

const startingPlacement = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"

// symbolIndex returns the position of sym in the fixed match order.
func symbolIndex(sym fen.Symbol) int {
	for i, s := range fen.PieceSymbols {
		if s == sym {
			return i
		}
	}
	return -1
}

// glyphValue is the synthetic glyph pixel function shared by the test
// templates and the composited board: a flat background with bright and
// dark bars at index-specific offsets.
func glyphValue(idx, x, y int) uint8 {
	bar := 4 + idx*4
	if x >= bar && x < bar+3 {
		return 255
	}
	if y >= bar && y < bar+3 {
		return 0
	}
	return 128
}

// writeTestStyle writes a synthetic 12-glyph style directory.
func writeTestStyle(t *testing.T, dir, style string) {
	t.Helper()
	styleDir := filepath.Join(dir, style)
	require.NoError(t, os.MkdirAll(styleDir, 0o755))
	for i, sym := range fen.PieceSymbols {
		m := gocv.NewMatWithSize(64, 64, gocv.MatTypeCV8UC1)
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				m.SetUCharAt(y, x, glyphValue(i, x, y))
			}
		}
		ok := gocv.IMWrite(filepath.Join(styleDir, template.FileName(sym)), m)
		m.Close()
		require.True(t, ok)
	}
}

// startingBoard renders a 512px canonical board: uniform background
// with the starting position's glyphs composited into their cells.
func startingBoard(t *testing.T) gocv.Mat {
	t.Helper()
	grid, err := fen.ParsePlacement(startingPlacement)
	require.NoError(t, err)

	canonical := gocv.NewMatWithSize(512, 512, gocv.MatTypeCV8UC1)
	for y := 0; y < 512; y++ {
		for x := 0; x < 512; x++ {
			canonical.SetUCharAt(y, x, 128)
		}
	}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			sym := grid[row][col]
			if sym == fen.Empty {
				continue
			}
			idx := symbolIndex(sym)
			for y := 0; y < 64; y++ {
				for x := 0; x < 64; x++ {
					canonical.SetUCharAt(row*64+y, col*64+x, glyphValue(idx, x, y))
				}
			}
		}
	}
	return canonical
}

func testRecognizer(t *testing.T) *Recognizer {
	t.Helper()
	dir := t.TempDir()
	writeTestStyle(t, dir, "testset")
	cfg := config.Default()
	cfg.TemplateDir = dir
	return New(cfg)
}

func TestRecognizeCanonicalStartingPosition(t *testing.T) {
	rec := testRecognizer(t)
	board := startingBoard(t)
	defer board.Close()

	fenStr, err := rec.RecognizeCanonical(board, "testset")
	require.NoError(t, err)
	assert.Equal(t, startingPlacement+" w KQkq - 0 1", fenStr)
	assert.NoError(t, fen.Validate(fenStr))
}

func TestRecognizeCanonicalOptions(t *testing.T) {
	rec := testRecognizer(t)
	rec.Options = fen.Options{
		SideToMove:     "b",
		Castling:       "-",
		EnPassant:      "-",
		HalfmoveClock:  3,
		FullmoveNumber: 20,
	}
	board := startingBoard(t)
	defer board.Close()

	fenStr, err := rec.RecognizeCanonical(board, "testset")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(fenStr, " b - - 3 20"), "got %q", fenStr)
}

func TestRecognizeNoBoard(t *testing.T) {
	rec := testRecognizer(t)

	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	c := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	fenStr, err := rec.Recognize(img, "testset")
	assert.Empty(t, fenStr)
	var bnf *locate.BoardNotFoundError
	require.ErrorAs(t, err, &bnf)
	assert.Contains(t, err.Error(), "locate:")
}

func TestRecognizeUnknownStyle(t *testing.T) {
	rec := testRecognizer(t)

	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	_, err := rec.Recognize(img, "no-such-style")
	var mte *template.MissingTemplateError
	require.ErrorAs(t, err, &mte)
	assert.Equal(t, "no-such-style", mte.Style)
}

func TestRecognizeCanonicalBadInput(t *testing.T) {
	rec := testRecognizer(t)

	notSquare := gocv.NewMatWithSize(256, 512, gocv.MatTypeCV8UC1)
	defer notSquare.Close()
	_, err := rec.RecognizeCanonical(notSquare, "testset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "split:")
}

func TestLibraryInvalidation(t *testing.T) {
	dir := t.TempDir()
	writeTestStyle(t, dir, "testset")
	cfg := config.Default()
	cfg.TemplateDir = dir
	rec := New(cfg)

	board := startingBoard(t)
	defer board.Close()
	_, err := rec.RecognizeCanonical(board, "testset")
	require.NoError(t, err)

	// Breaking the assets is invisible until the cache is dropped.
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "testset")))
	_, err = rec.RecognizeCanonical(board, "testset")
	require.NoError(t, err)

	rec.Library().Invalidate("testset")
	_, err = rec.RecognizeCanonical(board, "testset")
	var mte *template.MissingTemplateError
	require.ErrorAs(t, err, &mte)
}
