// Package template loads and caches the reference piece images used for
// square classification.
package template

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"boardsight/internal/fen"

	"gocv.io/x/gocv"
)

// fileNames maps each piece symbol to its asset file. The lowercase
// color prefix keeps every name unique on case-insensitive filesystems.
var fileNames = map[fen.Symbol]string{
	'K': "wk.png", 'Q': "wq.png", 'R': "wr.png",
	'B': "wb.png", 'N': "wn.png", 'P': "wp.png",
	'k': "bk.png", 'q': "bq.png", 'r': "br.png",
	'b': "bb.png", 'n': "bn.png", 'p': "bp.png",
}

// FileName returns the asset file name for a piece symbol.
func FileName(sym fen.Symbol) string {
	return fileNames[sym]
}

// MissingTemplateError reports every absent or unreadable asset of a
// style, not just the first. A partial directory never loads partially.
type MissingTemplateError struct {
	Style string
	Files []string
}

func (e *MissingTemplateError) Error() string {
	return fmt.Sprintf("template set %q missing %d file(s): %s",
		e.Style, len(e.Files), strings.Join(e.Files, ", "))
}

// Set is one style's complete template set: exactly 12 grayscale Mats,
// all at cell resolution. Immutable after load, safe to share across
// concurrent classification cycles.
type Set struct {
	Style    string
	CellSize int

	mats map[fen.Symbol]gocv.Mat
}

// Template returns the reference Mat for a piece symbol.
func (s *Set) Template(sym fen.Symbol) gocv.Mat {
	return s.mats[sym]
}

// Library loads template sets from an asset directory and caches them
// per style. Loading is the only I/O-bound step of the pipeline, so it
// must stay out of the per-cycle hot path.
type Library struct {
	dir      string
	cellSize int

	mu   sync.RWMutex
	sets map[string]*Set
}

// NewLibrary creates a Library rooted at dir. Templates are converted
// to grayscale at cellSize x cellSize on load, so classification is a
// direct pixelwise comparison.
func NewLibrary(dir string, cellSize int) *Library {
	return &Library{
		dir:      dir,
		cellSize: cellSize,
		sets:     make(map[string]*Set),
	}
}

// Load returns the template set for a style, reading the assets at most
// once. Subsequent calls reuse the cached set until Invalidate.
func (l *Library) Load(style string) (*Set, error) {
	l.mu.RLock()
	set, ok := l.sets[style]
	l.mu.RUnlock()
	if ok {
		return set, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if set, ok := l.sets[style]; ok {
		return set, nil
	}

	set, err := l.loadSet(style)
	if err != nil {
		return nil, err
	}
	l.sets[style] = set
	fmt.Printf("[Templates] loaded style %q (%d templates, %dpx cells)\n",
		style, len(set.mats), set.CellSize)
	return set, nil
}

// Invalidate drops a cached style so the next Load re-reads storage.
// The dropped set is not closed: in-flight cycles may still hold it.
func (l *Library) Invalidate(style string) {
	l.mu.Lock()
	delete(l.sets, style)
	l.mu.Unlock()
}

// loadSet reads all 12 assets for a style, collecting every missing or
// unreadable file before failing.
func (l *Library) loadSet(style string) (*Set, error) {
	styleDir := filepath.Join(l.dir, style)

	var missing []string
	mats := make(map[fen.Symbol]gocv.Mat, len(fileNames))

	for _, sym := range fen.PieceSymbols {
		name := fileNames[sym]
		path := filepath.Join(styleDir, name)
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, name)
			continue
		}
		mat := gocv.IMRead(path, gocv.IMReadGrayScale)
		if mat.Empty() {
			missing = append(missing, name)
			continue
		}
		if mat.Cols() != l.cellSize || mat.Rows() != l.cellSize {
			resized := gocv.NewMat()
			gocv.Resize(mat, &resized, image.Point{X: l.cellSize, Y: l.cellSize}, 0, 0, gocv.InterpolationCubic)
			mat.Close()
			mat = resized
		}
		mats[sym] = mat
	}

	if len(missing) > 0 {
		for _, m := range mats {
			m.Close()
		}
		sort.Strings(missing)
		return nil, &MissingTemplateError{Style: style, Files: missing}
	}

	return &Set{Style: style, CellSize: l.cellSize, mats: mats}, nil
}
