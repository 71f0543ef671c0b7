// Package raster provides image loading and Mat conversion for the
// vision pipeline.
package raster

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"runtime"
	"sync"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"gocv.io/x/gocv"
)

// MinDimension is the smallest usable capture edge. Anything below this
// cannot hold an 8x8 board at a recognizable size.
const MinDimension = 128

// MalformedInputError reports an unusable input image.
type MalformedInputError struct {
	Path   string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed input: %s", e.Reason)
	}
	return fmt.Sprintf("malformed input %s: %s", e.Path, e.Reason)
}

// Load reads and decodes a capture from disk (PNG, JPEG, or TIFF).
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &MalformedInputError{Path: path, Reason: err.Error()}
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, &MalformedInputError{Path: path, Reason: fmt.Sprintf("decode: %v", err)}
	}

	b := img.Bounds()
	if b.Dx() < MinDimension || b.Dy() < MinDimension {
		return nil, &MalformedInputError{
			Path:   path,
			Reason: fmt.Sprintf("image %dx%d below minimum %dpx", b.Dx(), b.Dy(), MinDimension),
		}
	}
	return img, nil
}

// Downsample scales the image so its width does not exceed maxWidth,
// preserving aspect ratio. High-DPI captures are shrunk before the
// pipeline ever sees them; smaller images pass through unchanged.
func Downsample(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	scale := float64(maxWidth) / float64(b.Dx())
	h := int(float64(b.Dy()) * scale)
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	// Src: plain resample, no compositing against the zeroed destination
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// ToMat converts a Go image.Image to a BGR gocv.Mat. The caller owns
// the returned Mat and must Close it.
func ToMat(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return gocv.NewMat(), &MalformedInputError{Reason: "empty image"}
	}

	// OpenCV default channel order is BGR
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)

	// Parallelize by horizontal stripes
	numWorkers := runtime.NumCPU()
	rowsPerWorker := (height + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		startY := w * rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > height {
			endY = height
		}
		if startY >= height {
			break
		}

		wg.Add(1)
		go func(yStart, yEnd int) {
			defer wg.Done()
			for y := yStart; y < yEnd; y++ {
				for x := 0; x < width; x++ {
					r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
					mat.SetUCharAt(y, x*3+0, uint8(b>>8))
					mat.SetUCharAt(y, x*3+1, uint8(g>>8))
					mat.SetUCharAt(y, x*3+2, uint8(r>>8))
				}
			}
		}(startY, endY)
	}
	wg.Wait()

	return mat, nil
}
