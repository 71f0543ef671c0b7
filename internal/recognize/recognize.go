// Package recognize composes the vision stages into the full
// capture-to-FEN pipeline.
package recognize

import (
	"fmt"
	"image"
	"sync"

	"boardsight/internal/classify"
	"boardsight/internal/config"
	"boardsight/internal/fen"
	"boardsight/internal/grid"
	"boardsight/internal/locate"
	"boardsight/internal/raster"
	"boardsight/internal/template"

	"gocv.io/x/gocv"
)

// Recognizer runs full recognition cycles. It owns the template cache;
// everything else is stateless per cycle, so one Recognizer may serve
// concurrent cycles.
type Recognizer struct {
	cfg        config.Config
	library    *template.Library
	locator    *locate.Locator
	classifier *classify.Classifier

	// Options supplies the FEN fields a static image cannot determine.
	Options fen.Options
}

// New creates a Recognizer from a configuration.
func New(cfg config.Config) *Recognizer {
	return &Recognizer{
		cfg:        cfg,
		library:    template.NewLibrary(cfg.TemplateDir, cfg.CanonicalSize/grid.Ranks),
		locator:    locate.NewLocator(cfg.LocateParams()),
		classifier: classify.NewClassifier(cfg.ClassifyParams()),
		Options:    fen.DefaultOptions(),
	}
}

// Library exposes the template cache, e.g. to invalidate a style after
// its assets change.
func (r *Recognizer) Library() *template.Library {
	return r.library
}

// RecognizeFile loads a capture from disk and recognizes it.
func (r *Recognizer) RecognizeFile(path, style string) (string, error) {
	img, err := raster.Load(path)
	if err != nil {
		return "", fmt.Errorf("load: %w", err)
	}
	img = raster.Downsample(img, r.cfg.MaxCaptureWidth)
	return r.Recognize(img, style)
}

// Recognize extracts the position from a capture and returns it as a
// validated FEN string. Every stage fails fast; errors carry the stage
// that produced them and are never downgraded to a partial result.
func (r *Recognizer) Recognize(img image.Image, style string) (string, error) {
	set, err := r.library.Load(style)
	if err != nil {
		return "", fmt.Errorf("templates: %w", err)
	}

	mat, err := raster.ToMat(img)
	if err != nil {
		return "", fmt.Errorf("convert: %w", err)
	}
	defer mat.Close()

	region, err := r.locator.Locate(mat)
	if err != nil {
		return "", fmt.Errorf("locate: %w", err)
	}

	canonical, err := grid.Normalize(mat, region, r.cfg.CanonicalSize)
	if err != nil {
		return "", fmt.Errorf("normalize: %w", err)
	}
	defer canonical.Close()

	return r.encodeCanonical(canonical, set)
}

// RecognizeCanonical classifies an already-cropped canonical board
// image, skipping board location. Useful when the caller knows the
// board bounds (e.g. template training verification).
func (r *Recognizer) RecognizeCanonical(canonical gocv.Mat, style string) (string, error) {
	set, err := r.library.Load(style)
	if err != nil {
		return "", fmt.Errorf("templates: %w", err)
	}
	return r.encodeCanonical(canonical, set)
}

func (r *Recognizer) encodeCanonical(canonical gocv.Mat, set *template.Set) (string, error) {
	cells, err := grid.Split(canonical)
	if err != nil {
		return "", fmt.Errorf("split: %w", err)
	}
	defer cells.Close()

	boardGrid, err := r.classifyCells(cells, set)
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}

	fenStr := fen.Encode(boardGrid, r.Options)
	if err := fen.Validate(fenStr); err != nil {
		return "", fmt.Errorf("validate: %w", err)
	}
	return fenStr, nil
}

// classifyCells runs the 64 independent cell classifications, one
// goroutine per row, and collects results in strict row/column order.
// Serialization order is semantically significant, so ordering comes
// from the result array, never from goroutine completion.
func (r *Recognizer) classifyCells(cells *grid.Cells, set *template.Set) (fen.BoardGrid, error) {
	var boardGrid fen.BoardGrid
	var errs [grid.Ranks]error

	var wg sync.WaitGroup
	for row := 0; row < grid.Ranks; row++ {
		wg.Add(1)
		go func(row int) {
			defer wg.Done()
			for col := 0; col < grid.Files; col++ {
				sym, err := r.classifier.Classify(cells.Mats[row][col], set)
				if err != nil {
					errs[row] = fmt.Errorf("cell %d,%d: %w", row, col, err)
					return
				}
				boardGrid[row][col] = sym
			}
		}(row)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return boardGrid, err
		}
	}
	return boardGrid, nil
}
