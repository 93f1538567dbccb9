// Package book supplies opening lines for game pairs. Both games of a
// pair start from the same line, so color reversal cancels the opening's
// bias. Lines come from a built-in set, a PGN file, or an ECO-style TSV.
package book

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/freeeve/pgn/v3"
)

// builtinLines are short common openings, as UCI move sequences.
var builtinLines = [][]string{
	{},
	{"e2e4"},
	{"e2e4", "e7e5"},
	{"d2d4"},
	{"d2d4", "d7d5"},
	{"e2e4", "c7c5"},
	{"d2d4", "g8f6"},
	{"e2e4", "e7e6"},
	{"g1f3"},
	{"c2c4"},
}

// Book holds opening lines as UCI move sequences.
type Book struct {
	lines [][]string
}

// Builtin returns the built-in opening set.
func Builtin() *Book {
	lines := make([][]string, len(builtinLines))
	for i, l := range builtinLines {
		lines[i] = append([]string(nil), l...)
	}
	return &Book{lines: lines}
}

// Load reads a book file. PGN (optionally .zst compressed) and ECO-style
// TSV (eco\tname\tmoves) are supported; lines are truncated to maxPlies
// half-moves.
func Load(path string, maxPlies int) (*Book, error) {
	if maxPlies <= 0 {
		maxPlies = 8
	}
	switch {
	case isPGNFile(path):
		return loadPGN(path, maxPlies)
	case filepath.Ext(path) == ".tsv":
		return loadTSV(path, maxPlies)
	default:
		return nil, fmt.Errorf("unsupported book format: %s", path)
	}
}

// Len returns the number of opening lines.
func (b *Book) Len() int { return len(b.lines) }

// Pick returns the opening line for pair i, cycling round-robin.
func (b *Book) Pick(i int) []string {
	if len(b.lines) == 0 {
		return nil
	}
	return b.lines[i%len(b.lines)]
}

func loadPGN(path string, maxPlies int) (*Book, error) {
	b := &Book{}
	parser := pgn.Games(path)
	for g := range parser.Games {
		var line []string
		for _, mv := range g.Moves {
			if len(line) >= maxPlies {
				break
			}
			line = append(line, MoveToUCI(mv))
		}
		if len(line) > 0 {
			b.lines = append(b.lines, line)
		}
	}
	if err := parser.Err(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(b.lines) == 0 {
		return nil, fmt.Errorf("no openings in %s", path)
	}
	return b, nil
}

// moveNumberRegex matches move numbers like "1." or "12..."
var moveNumberRegex = regexp.MustCompile(`\d+\.+\s*`)

func loadTSV(path string, maxPlies int) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b := &Book{}
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip header
		if lineNum == 1 && strings.HasPrefix(line, "eco\t") {
			continue
		}

		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}

		uciLine, err := sanLineToUCI(parts[2], maxPlies)
		if err != nil {
			// Skip invalid lines silently
			continue
		}
		if len(uciLine) > 0 {
			b.lines = append(b.lines, uciLine)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(b.lines) == 0 {
		return nil, fmt.Errorf("no openings in %s", path)
	}
	return b, nil
}

// sanLineToUCI parses moves like "1. e4 e5 2. Nf3 Nc6" into UCI notation.
func sanLineToUCI(pgnMoves string, maxPlies int) ([]string, error) {
	cleaned := moveNumberRegex.ReplaceAllString(pgnMoves, "")
	sans := strings.Fields(cleaned)

	pos := pgn.NewStartingPosition()
	var out []string
	for _, san := range sans {
		if len(out) >= maxPlies {
			break
		}
		if san == "" || san[0] == '$' || san[0] == '{' {
			continue
		}
		san = strings.TrimSuffix(san, "+")
		san = strings.TrimSuffix(san, "#")

		mv, err := pgn.ParseSAN(pos, san)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", san, err)
		}
		out = append(out, MoveToUCI(mv))
		if err := pgn.ApplyMove(pos, mv); err != nil {
			return nil, fmt.Errorf("apply %q: %w", san, err)
		}
	}
	return out, nil
}

// MoveToUCI converts a move to UCI notation
func MoveToUCI(mv pgn.Mv) string {
	files := "abcdefgh"
	ranks := "12345678"

	uci := string(files[mv.From%8]) + string(ranks[mv.From/8]) +
		string(files[mv.To%8]) + string(ranks[mv.To/8])

	switch mv.Promo {
	case pgn.PromoQueen:
		uci += "q"
	case pgn.PromoRook:
		uci += "r"
	case pgn.PromoBishop:
		uci += "b"
	case pgn.PromoKnight:
		uci += "n"
	}
	return uci
}

func isPGNFile(name string) bool {
	ext := filepath.Ext(name)
	if ext == ".pgn" {
		return true
	}
	if ext == ".zst" {
		base := name[:len(name)-4]
		return filepath.Ext(base) == ".pgn"
	}
	return false
}
