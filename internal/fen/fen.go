// Package fen provides the symbolic board model and FEN serialization.
package fen

import (
	"fmt"
	"strings"
)

// Symbol identifies the occupant of one board square. Piece symbols are
// the standard FEN letters (uppercase white, lowercase black); the zero
// value marks an empty square.
type Symbol byte

// Empty marks an unoccupied square.
const Empty Symbol = 0

// PieceSymbols is the fixed total order over piece symbols. Template
// matching iterates in exactly this order, so equal match scores always
// resolve to the earliest symbol and classification stays reproducible.
var PieceSymbols = [12]Symbol{'K', 'Q', 'R', 'B', 'N', 'P', 'k', 'q', 'r', 'b', 'n', 'p'}

// IsPiece returns true for a valid piece symbol.
func (s Symbol) IsPiece() bool {
	switch s {
	case 'K', 'Q', 'R', 'B', 'N', 'P', 'k', 'q', 'r', 'b', 'n', 'p':
		return true
	}
	return false
}

// White returns true for a white (uppercase) piece symbol.
func (s Symbol) White() bool {
	return s >= 'A' && s <= 'Z'
}

func (s Symbol) String() string {
	if s == Empty {
		return "."
	}
	return string(rune(s))
}

// BoardGrid is the 8x8 classification result. Row 0 is the rank
// serialized first (the far rank in the default orientation), column 0
// the leftmost file, matching FEN piece-placement order exactly.
type BoardGrid [8][8]Symbol

// Options carries the FEN fields that cannot be derived from a single
// static image. They are appended verbatim to the encoded placement.
type Options struct {
	SideToMove     string
	Castling       string
	EnPassant      string
	HalfmoveClock  int
	FullmoveNumber int
}

// DefaultOptions matches the original assumption of white to move with
// full castling rights.
func DefaultOptions() Options {
	return Options{
		SideToMove:     "w",
		Castling:       "KQkq",
		EnPassant:      "-",
		HalfmoveClock:  0,
		FullmoveNumber: 1,
	}
}

// Encode serializes the grid into a complete FEN string. Consecutive
// empty squares within a rank collapse into a digit run, ranks are
// joined with '/', and the caller-supplied fields follow.
func Encode(grid BoardGrid, opts Options) string {
	var b strings.Builder
	for row := 0; row < 8; row++ {
		if row > 0 {
			b.WriteByte('/')
		}
		run := 0
		for col := 0; col < 8; col++ {
			sym := grid[row][col]
			if sym == Empty {
				run++
				continue
			}
			if run > 0 {
				b.WriteByte(byte('0' + run))
				run = 0
			}
			b.WriteByte(byte(sym))
		}
		if run > 0 {
			b.WriteByte(byte('0' + run))
		}
	}
	fmt.Fprintf(&b, " %s %s %s %d %d",
		opts.SideToMove, opts.Castling, opts.EnPassant,
		opts.HalfmoveClock, opts.FullmoveNumber)
	return b.String()
}

// ParsePlacement parses a piece-placement field back into a BoardGrid.
func ParsePlacement(placement string) (BoardGrid, error) {
	var grid BoardGrid
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return grid, fmt.Errorf("expected 8 ranks, got %d", len(ranks))
	}
	for row, rank := range ranks {
		col := 0
		for i := 0; i < len(rank); i++ {
			ch := rank[i]
			if ch >= '1' && ch <= '8' {
				col += int(ch - '0')
				continue
			}
			if !Symbol(ch).IsPiece() {
				return grid, fmt.Errorf("rank %d: invalid symbol %q", row+1, ch)
			}
			if col >= 8 {
				return grid, fmt.Errorf("rank %d: more than 8 squares", row+1)
			}
			grid[row][col] = Symbol(ch)
			col++
		}
		if col != 8 {
			return grid, fmt.Errorf("rank %d: %d squares, expected 8", row+1, col)
		}
	}
	return grid, nil
}
