package fen

import (
	"fmt"
	"strconv"
	"strings"
)

// InvalidPositionError reports a structurally illegal FEN string. It
// carries the offending string so a failed cycle can be diagnosed.
type InvalidPositionError struct {
	FEN    string
	Reason string
}

func (e *InvalidPositionError) Error() string {
	return fmt.Sprintf("invalid position %q: %s", e.FEN, e.Reason)
}

// Validate confirms the string is a structurally legal FEN: correct
// field count and syntax, well-formed ranks, exactly one king per side,
// and at most the legal number of pawns. It does not judge whether the
// position is reachable by legal play.
func Validate(fenStr string) error {
	fail := func(format string, args ...interface{}) error {
		return &InvalidPositionError{FEN: fenStr, Reason: fmt.Sprintf(format, args...)}
	}

	fields := strings.Fields(fenStr)
	if len(fields) != 6 {
		return fail("expected 6 fields, got %d", len(fields))
	}

	placement, side, castling, enPassant := fields[0], fields[1], fields[2], fields[3]

	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fail("expected 8 ranks, got %d", len(ranks))
	}

	counts := make(map[Symbol]int)
	for i, rank := range ranks {
		squares := 0
		prevDigit := false
		for j := 0; j < len(rank); j++ {
			ch := rank[j]
			if ch >= '1' && ch <= '8' {
				if prevDigit {
					return fail("rank %d: adjacent empty-run digits", i+1)
				}
				squares += int(ch - '0')
				prevDigit = true
				continue
			}
			prevDigit = false
			sym := Symbol(ch)
			if !sym.IsPiece() {
				return fail("rank %d: invalid character %q", i+1, ch)
			}
			// Ranks 1 and 8 cannot hold pawns.
			if (sym == 'P' || sym == 'p') && (i == 0 || i == 7) {
				return fail("pawn on rank %d", 8-i)
			}
			counts[sym]++
			squares++
		}
		if squares != 8 {
			return fail("rank %d: %d squares, expected 8", i+1, squares)
		}
	}

	if counts['K'] != 1 {
		return fail("white has %d kings", counts['K'])
	}
	if counts['k'] != 1 {
		return fail("black has %d kings", counts['k'])
	}
	if counts['P'] > 8 {
		return fail("white has %d pawns", counts['P'])
	}
	if counts['p'] > 8 {
		return fail("black has %d pawns", counts['p'])
	}

	if side != "w" && side != "b" {
		return fail("side to move %q", side)
	}

	if !validCastling(castling) {
		return fail("castling rights %q", castling)
	}

	if !validEnPassant(enPassant) {
		return fail("en passant target %q", enPassant)
	}

	if n, err := strconv.Atoi(fields[4]); err != nil || n < 0 {
		return fail("halfmove clock %q", fields[4])
	}
	if n, err := strconv.Atoi(fields[5]); err != nil || n < 1 {
		return fail("fullmove number %q", fields[5])
	}

	return nil
}

func validCastling(s string) bool {
	if s == "-" {
		return true
	}
	if len(s) == 0 || len(s) > 4 {
		return false
	}
	seen := map[byte]bool{}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 'K', 'Q', 'k', 'q':
			if seen[c] {
				return false
			}
			seen[c] = true
		default:
			return false
		}
	}
	return true
}

func validEnPassant(s string) bool {
	if s == "-" {
		return true
	}
	if len(s) != 2 {
		return false
	}
	file, rank := s[0], s[1]
	return file >= 'a' && file <= 'h' && (rank == '3' || rank == '6')
}
