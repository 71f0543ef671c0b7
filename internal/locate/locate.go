// Package locate finds the board region within an arbitrary capture.
package locate

import (
	"fmt"
	"image"
	"math"

	"boardsight/internal/raster"
	"boardsight/pkg/geometry"

	"gocv.io/x/gocv"
)

// Params configures board location. All values are in working-resolution
// pixels (the input is downsampled to MaxWorkingDim before the search).
type Params struct {
	CannyLow  float32 // weak-edge threshold, kept only when connected to strong edges
	CannyHigh float32 // strong-edge threshold, always kept

	MinSize  int     // smallest candidate square edge
	SizeStep int     // candidate size increment
	Overlap  float64 // fraction of candidate overlap between neighboring centers

	MinEdgeDensity  float64 // reject candidates below this edge fraction
	AspectTolerance float64 // allowed |w/h - 1| deviation from square
	MaxWorkingDim   int     // input is downsampled so max(w,h) <= this before search
}

// DefaultParams returns detection defaults tuned for typical browser
// chess boards on a 1080p-class capture.
func DefaultParams() Params {
	return Params{
		CannyLow:        50,
		CannyHigh:       150,
		MinSize:         160,
		SizeStep:        32,
		Overlap:         0.75,
		MinEdgeDensity:  0.015,
		AspectTolerance: 0.10,
		MaxWorkingDim:   1024,
	}
}

// BoardNotFoundError reports that no candidate region met the density,
// size, and shape thresholds. Retryable by re-capturing upstream.
type BoardNotFoundError struct {
	Candidates  int
	BestDensity float64
}

func (e *BoardNotFoundError) Error() string {
	return fmt.Sprintf("board not found: %d candidates evaluated, best edge density %.4f",
		e.Candidates, e.BestDensity)
}

// Locator searches a capture for the square region most likely to
// contain the board.
type Locator struct {
	params Params
}

// NewLocator creates a Locator with the given parameters.
func NewLocator(params Params) *Locator {
	return &Locator{params: params}
}

// Locate returns the board region in native image coordinates, or a
// BoardNotFoundError when nothing board-like is present.
//
// The capture is downsampled to a bounded working resolution, edges are
// extracted with Canny hysteresis thresholding, and overlapping square
// candidates are scored by edge_density x area. Density alone favors
// small dense piece clusters; multiplying by area favors the region
// that spans the whole board.
func (l *Locator) Locate(img gocv.Mat) (geometry.RectInt, error) {
	// An unusable input is a caller error, not a retryable miss.
	if img.Empty() {
		return geometry.RectInt{}, &raster.MalformedInputError{Reason: "empty input image"}
	}

	imgW, imgH := img.Cols(), img.Rows()

	// Downsample for bounded search cost
	scale := math.Min(1.0, float64(l.params.MaxWorkingDim)/float64(max(imgW, imgH)))
	var working gocv.Mat
	if scale < 1.0 {
		working = gocv.NewMat()
		gocv.Resize(img, &working, image.Point{}, scale, scale, gocv.InterpolationArea)
	} else {
		working = img.Clone()
	}
	defer working.Close()

	edges := l.edgeMap(working)
	defer edges.Close()

	w, h := edges.Cols(), edges.Rows()
	sat := newSATTable(edges.ToBytes(), w, h)

	best, candidates, bestDensity := l.searchCandidates(sat, w, h)
	if best.Empty() || bestDensity < l.params.MinEdgeDensity {
		return geometry.RectInt{}, &BoardNotFoundError{Candidates: candidates, BestDensity: bestDensity}
	}

	// Map back to native coordinates and re-validate the contract
	region := best.Scale(1.0 / scale).Clamp(geometry.RectInt{Width: imgW, Height: imgH})
	if !region.NearSquare(l.params.AspectTolerance) ||
		region.Width < l.params.MinSize || region.Height < l.params.MinSize {
		return geometry.RectInt{}, &BoardNotFoundError{Candidates: candidates, BestDensity: bestDensity}
	}

	fmt.Printf("[Locate] board %s, density %.4f (%d candidates)\n", region, bestDensity, candidates)
	return region, nil
}

// edgeMap converts the image to grayscale, blurs it, and runs Canny.
func (l *Locator) edgeMap(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if img.Channels() > 1 {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	} else {
		img.CopyTo(&gray)
	}
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{5, 5}, 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	gocv.Canny(blurred, &edges, l.params.CannyLow, l.params.CannyHigh)
	return edges
}

// searchCandidates slides square candidates of increasing size over the
// edge map and returns the highest-scoring one. Ties keep the earliest
// (smallest) candidate, which hugs the board instead of its margins.
func (l *Locator) searchCandidates(sat *satTable, w, h int) (geometry.RectInt, int, float64) {
	var best geometry.RectInt
	bestScore := -1.0
	bestDensity := 0.0
	candidates := 0

	minDim := min(w, h)
	for size := l.params.MinSize; size <= minDim; size += l.params.SizeStep {
		step := int(float64(size) * (1.0 - l.params.Overlap))
		if step < 1 {
			step = 1
		}
		area := float64(size * size)
		for y := 0; y+size <= h; y += step {
			for x := 0; x+size <= w; x += step {
				candidates++
				density := float64(sat.count(x, y, size, size)) / area
				score := density * area
				if score > bestScore {
					bestScore = score
					bestDensity = density
					best = geometry.RectInt{X: x, Y: y, Width: size, Height: size}
				}
			}
		}
	}

	return best, candidates, bestDensity
}
