// Package classify decides what occupies a single board cell.
package classify

import (
	"fmt"

	"boardsight/internal/fen"
	"boardsight/internal/template"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// Params holds the classifier thresholds.
type Params struct {
	// EmptyVariance is the pixel-intensity variance below which a cell
	// is declared empty without any template comparison. Empty squares
	// are visually uniform board-tile color.
	EmptyVariance float64

	// MatchThreshold is the maximum normalized squared-difference score
	// (0 identical, 1 maximally different) accepted as a piece match.
	// Anything above it classifies as empty rather than guessing.
	MatchThreshold float64
}

// DefaultParams returns thresholds that work for flat-rendered boards.
func DefaultParams() Params {
	return Params{
		EmptyVariance:  80.0,
		MatchThreshold: 0.12,
	}
}

// Classifier classifies cells against a template set.
type Classifier struct {
	params Params
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(params Params) *Classifier {
	return &Classifier{params: params}
}

// Classify returns the symbol occupying a grayscale cell.
//
// Phase 1 rejects visually uniform cells by intensity variance, which
// short-circuits roughly half of all cells on a starting position.
// Phase 2 compares the cell against every template with a normalized
// squared-difference score and keeps the minimum. Templates are visited
// in fen.PieceSymbols order with a strict less-than, so score ties
// resolve to the same symbol on every run.
func (c *Classifier) Classify(cell gocv.Mat, set *template.Set) (fen.Symbol, error) {
	if cell.Empty() {
		return fen.Empty, fmt.Errorf("empty cell mat")
	}
	if cell.Channels() != 1 {
		return fen.Empty, fmt.Errorf("cell has %d channels, want 1", cell.Channels())
	}
	if cell.Cols() != set.CellSize || cell.Rows() != set.CellSize {
		return fen.Empty, fmt.Errorf("cell %dx%d does not match template size %d",
			cell.Cols(), cell.Rows(), set.CellSize)
	}

	if intensityVariance(cell) < c.params.EmptyVariance {
		return fen.Empty, nil
	}

	bestSym := fen.Empty
	bestScore := float32(2.0) // scores live in [0,1]
	mask := gocv.NewMat()
	defer mask.Close()
	result := gocv.NewMat()
	defer result.Close()

	for _, sym := range fen.PieceSymbols {
		gocv.MatchTemplate(cell, set.Template(sym), &result, gocv.TmSqdiffNormed, mask)
		score, _, _, _ := gocv.MinMaxLoc(result)
		if score < bestScore {
			bestScore = score
			bestSym = sym
		}
	}

	if float64(bestScore) >= c.params.MatchThreshold {
		// Low confidence: reporting empty beats reporting a wrong piece
		return fen.Empty, nil
	}
	return bestSym, nil
}

// intensityVariance returns the population variance of the cell's pixel
// intensities.
func intensityVariance(cell gocv.Mat) float64 {
	rows, cols := cell.Rows(), cell.Cols()
	values := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			values = append(values, float64(cell.GetUCharAt(y, x)))
		}
	}
	return stat.PopVariance(values, nil)
}
