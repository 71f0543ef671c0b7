// Command templatetrain builds a piece template set for a new style.
//
// It takes a screenshot showing the standard starting position, locates
// and normalizes the board, carves one template per piece type from the
// known starting squares, and verifies the freshly written set
// round-trips to the starting position before reporting success.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"boardsight/internal/config"
	"boardsight/internal/fen"
	"boardsight/internal/grid"
	"boardsight/internal/locate"
	"boardsight/internal/raster"
	"boardsight/internal/recognize"
	"boardsight/internal/template"

	"gocv.io/x/gocv"
)

// StartingPlacement is the piece-placement field every new template set
// must reproduce from its own training image.
const StartingPlacement = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"

// startingSquares maps each piece symbol to a (row, col) holding it in
// the starting position, row 0 being the far (black) back rank.
var startingSquares = map[fen.Symbol][2]int{
	'r': {0, 0}, 'n': {0, 1}, 'b': {0, 2}, 'q': {0, 3}, 'k': {0, 4}, 'p': {1, 0},
	'R': {7, 0}, 'N': {7, 1}, 'B': {7, 2}, 'Q': {7, 3}, 'K': {7, 4}, 'P': {6, 0},
}

func main() {
	imagePath := flag.String("image", "", "Screenshot of the standard starting position")
	style := flag.String("style", "", "Name for the new template set")
	outDir := flag.String("out", "templates", "Template root directory")
	flag.Parse()

	if *imagePath == "" || *style == "" {
		fmt.Println("Usage: templatetrain -image <path> -style <name> [-out templates]")
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.TemplateDir = *outDir

	img, err := raster.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	img = raster.Downsample(img, cfg.MaxCaptureWidth)

	mat, err := raster.ToMat(img)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to convert image: %v\n", err)
		os.Exit(1)
	}
	defer mat.Close()

	region, err := locate.NewLocator(cfg.LocateParams()).Locate(mat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Board detection failed: %v\n", err)
		os.Exit(1)
	}

	canonical, err := grid.Normalize(mat, region, cfg.CanonicalSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Normalization failed: %v\n", err)
		os.Exit(1)
	}
	defer canonical.Close()

	cells, err := grid.Split(canonical)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Grid split failed: %v\n", err)
		os.Exit(1)
	}
	defer cells.Close()

	styleDir := filepath.Join(*outDir, *style)
	if err := os.MkdirAll(styleDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot create %s: %v\n", styleDir, err)
		os.Exit(1)
	}

	for _, sym := range fen.PieceSymbols {
		sq := startingSquares[sym]
		path := filepath.Join(styleDir, template.FileName(sym))
		if ok := gocv.IMWrite(path, cells.Mats[sq[0]][sq[1]]); !ok {
			fmt.Fprintf(os.Stderr, "Failed to write %s\n", path)
			os.Exit(1)
		}
	}
	fmt.Printf("Wrote 12 templates to %s\n", styleDir)

	// Verify the new set reads its own training board back correctly
	rec := recognize.New(cfg)
	fenStr, err := rec.RecognizeCanonical(canonical, *style)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Verification failed: %v\n", err)
		os.Exit(1)
	}
	placement := strings.Fields(fenStr)[0]
	if placement != StartingPlacement {
		fmt.Fprintf(os.Stderr, "Verification mismatch:\n  got  %s\n  want %s\n", placement, StartingPlacement)
		fmt.Fprintf(os.Stderr, "Templates left in %s for inspection\n", styleDir)
		os.Exit(1)
	}
	fmt.Printf("Verified: style %q reproduces the starting position\n", *style)
}
