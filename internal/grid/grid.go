// Package grid normalizes a located board region and partitions it into
// the 8x8 cell array consumed by classification.
package grid

import (
	"fmt"
	"image"

	"boardsight/pkg/geometry"

	"gocv.io/x/gocv"
)

// Ranks and Files are the board dimensions. Canonical sizes must divide
// evenly by them so every cell has identical geometry.
const (
	Ranks = 8
	Files = 8
)

// Normalize crops the capture to region and resizes the crop to a
// size x size canonical image with cubic resampling. The region must
// already lie within the image bounds (the locator guarantees this).
// The caller owns the returned Mat.
func Normalize(img gocv.Mat, region geometry.RectInt, size int) (gocv.Mat, error) {
	if img.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty image")
	}
	if size <= 0 || size%Ranks != 0 {
		return gocv.NewMat(), fmt.Errorf("canonical size %d not divisible by %d", size, Ranks)
	}
	bounds := geometry.RectInt{Width: img.Cols(), Height: img.Rows()}
	if region.Empty() || !region.Inside(bounds) {
		return gocv.NewMat(), fmt.Errorf("region %s outside image %dx%d", region, img.Cols(), img.Rows())
	}

	crop := img.Region(image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height))
	defer crop.Close()

	canonical := gocv.NewMat()
	gocv.Resize(crop, &canonical, image.Point{X: size, Y: size}, 0, 0, gocv.InterpolationCubic)
	return canonical, nil
}

// Cells holds the 64 single-channel cell views of a canonical image.
// The views share one backing Mat; Close releases all of them at once.
type Cells struct {
	Mats     [Ranks][Files]gocv.Mat
	CellSize int

	backing gocv.Mat
}

// Close releases the cell views and their backing image.
func (c *Cells) Close() {
	for r := 0; r < Ranks; r++ {
		for f := 0; f < Files; f++ {
			c.Mats[r][f].Close()
		}
	}
	c.backing.Close()
}

// Split partitions a canonical board image into 8x8 grayscale cells.
// Mats[0][0] is the top-left cell and maps to the first square of the
// first serialized rank; Mats[7][7] to the last square of the last
// rank. The color conversion happens once, up front, rather than per
// cell.
func Split(canonical gocv.Mat) (*Cells, error) {
	if canonical.Empty() {
		return nil, fmt.Errorf("empty canonical image")
	}
	size := canonical.Cols()
	if canonical.Rows() != size {
		return nil, fmt.Errorf("canonical image %dx%d not square", canonical.Cols(), canonical.Rows())
	}
	if size%Ranks != 0 {
		return nil, fmt.Errorf("canonical size %d not divisible by %d", size, Ranks)
	}

	gray := gocv.NewMat()
	if canonical.Channels() > 1 {
		gocv.CvtColor(canonical, &gray, gocv.ColorBGRToGray)
	} else {
		canonical.CopyTo(&gray)
	}

	cellSize := size / Ranks
	cells := &Cells{CellSize: cellSize, backing: gray}
	for r := 0; r < Ranks; r++ {
		for f := 0; f < Files; f++ {
			rect := image.Rect(f*cellSize, r*cellSize, (f+1)*cellSize, (r+1)*cellSize)
			cells.Mats[r][f] = gray.Region(rect)
		}
	}
	return cells, nil
}
