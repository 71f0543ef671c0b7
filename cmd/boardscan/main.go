// Command boardscan extracts a FEN position from a board screenshot.
//
// One-shot by default; with -watch it re-reads the file on an interval
// and prints a FEN per cycle, skipping cycles where no board is found.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"boardsight/internal/config"
	"boardsight/internal/fen"
	"boardsight/internal/locate"
	"boardsight/internal/recognize"
	"boardsight/internal/version"
)

func main() {
	imagePath := flag.String("image", "", "Path to capture image (PNG, JPEG, or TIFF)")
	style := flag.String("style", "chesscom", "Piece style / template set identifier")
	configPath := flag.String("config", "", "Config file (default: user config dir)")
	side := flag.String("side", "w", "Side to move: w or b")
	watch := flag.Bool("watch", false, "Re-read the image on an interval")
	interval := flag.Duration("interval", 500*time.Millisecond, "Watch interval")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("boardscan %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
		return
	}

	if *imagePath == "" {
		fmt.Println("Usage: boardscan -image <path> [-style chesscom] [-watch]")
		os.Exit(1)
	}

	path := *configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Config path: %v\n", err)
			os.Exit(1)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	rec := recognize.New(cfg)
	opts := fen.DefaultOptions()
	opts.SideToMove = *side
	rec.Options = opts

	if !*watch {
		if err := scanOnce(rec, *imagePath, *style); err != nil {
			fmt.Fprintf(os.Stderr, "Recognition failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Watching %s every %s. Press Ctrl+C to stop.\n", *imagePath, *interval)
	for {
		if err := scanOnce(rec, *imagePath, *style); err != nil {
			var notFound *locate.BoardNotFoundError
			if errors.As(err, &notFound) {
				fmt.Fprintf(os.Stderr, "No board this cycle: %v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "Recognition failed: %v\n", err)
			}
		}
		time.Sleep(*interval)
	}
}

func scanOnce(rec *recognize.Recognizer, imagePath, style string) error {
	start := time.Now()
	fenStr, err := rec.RecognizeFile(imagePath, style)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Recognized in %.0fms\n", time.Since(start).Seconds()*1000)
	fmt.Println(fenStr)
	return nil
}
