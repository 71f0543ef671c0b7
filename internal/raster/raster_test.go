package raster

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.png")
	writePNG(t, path, solidImage(200, 160, color.RGBA{R: 10, G: 20, B: 30, A: 255}))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 160, img.Bounds().Dy())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.png"))
		var mie *MalformedInputError
		require.ErrorAs(t, err, &mie)
	})

	t.Run("not an image", func(t *testing.T) {
		path := filepath.Join(dir, "junk.png")
		require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))
		_, err := Load(path)
		var mie *MalformedInputError
		require.ErrorAs(t, err, &mie)
		assert.Contains(t, mie.Reason, "decode")
	})

	t.Run("below minimum size", func(t *testing.T) {
		path := filepath.Join(dir, "tiny.png")
		writePNG(t, path, solidImage(64, 64, color.RGBA{A: 255}))
		_, err := Load(path)
		var mie *MalformedInputError
		require.ErrorAs(t, err, &mie)
		assert.Contains(t, mie.Reason, "below minimum")
	})
}

func TestDownsample(t *testing.T) {
	img := solidImage(4000, 2000, color.RGBA{R: 128, G: 128, B: 128, A: 255})

	small := Downsample(img, 1920)
	assert.Equal(t, 1920, small.Bounds().Dx())
	assert.Equal(t, 960, small.Bounds().Dy())

	// Images already within bounds pass through untouched.
	same := Downsample(img, 4000)
	assert.Equal(t, image.Image(img), same)
}

func TestDownsamplePreservesTranslucency(t *testing.T) {
	// A uniform semi-transparent field must resample to the same color
	// and alpha, not get composited toward black.
	src := image.NewNRGBA(image.Rect(0, 0, 400, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 400; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
		}
	}

	small := Downsample(src, 200)
	r, g, _, a := small.At(100, 50).RGBA()
	// RGBA() is alpha-premultiplied 16-bit.
	assert.InDelta(t, 200*128/255, int(r>>8), 2)
	assert.InDelta(t, 100*128/255, int(g>>8), 2)
	assert.InDelta(t, 128, int(a>>8), 1)
}

func TestToMat(t *testing.T) {
	img := solidImage(32, 16, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	mat, err := ToMat(img)
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 16, mat.Rows())
	assert.Equal(t, 32, mat.Cols())
	assert.Equal(t, 3, mat.Channels())

	// BGR channel order.
	assert.Equal(t, uint8(30), mat.GetUCharAt(8, 5*3+0))
	assert.Equal(t, uint8(20), mat.GetUCharAt(8, 5*3+1))
	assert.Equal(t, uint8(10), mat.GetUCharAt(8, 5*3+2))
}

func TestToMatEmpty(t *testing.T) {
	mat, err := ToMat(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	defer mat.Close()
	var mie *MalformedInputError
	require.ErrorAs(t, err, &mie)
}
