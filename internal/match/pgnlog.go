package match

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/freeeve/pgn/v3"
	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/gauntlet/internal/book"
	"github.com/freeeve/gauntlet/internal/game"
)

// WritePGN persists the run's games as a PGN file. A path ending in .zst
// is zstd-compressed. Movetext is converted to SAN where the moves can be
// replayed; an engine move the rules library rejects falls back to its
// raw UCI token.
func WritePGN(path string, records []game.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var w io.Writer = f
	var enc *zstd.Encoder
	if strings.HasSuffix(path, ".zst") {
		enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		w = enc
	}

	bw := bufio.NewWriter(w)
	for i, rec := range records {
		if err := writeGame(bw, rec, i); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if enc != nil {
		return enc.Close()
	}
	return nil
}

func writeGame(w *bufio.Writer, rec game.Record, index int) error {
	result := pgnResult(rec.Result)

	fmt.Fprintf(w, "[Event \"gauntlet match\"]\n")
	fmt.Fprintf(w, "[Round \"%d.%d\"]\n", index/2+1, index%2+1)
	fmt.Fprintf(w, "[White %q]\n", rec.WhiteName)
	fmt.Fprintf(w, "[Black %q]\n", rec.BlackName)
	fmt.Fprintf(w, "[Result %q]\n", result)
	fmt.Fprintf(w, "[Termination %q]\n\n", string(rec.Reason))

	sans := movetext(rec.Moves)
	var line strings.Builder
	for i, san := range sans {
		token := san
		if i%2 == 0 {
			token = fmt.Sprintf("%d. %s", i/2+1, san)
		}
		if line.Len()+len(token)+1 > 80 {
			fmt.Fprintln(w, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(token)
	}
	if line.Len() > 0 {
		fmt.Fprintln(w, line.String())
	}
	fmt.Fprintf(w, "%s\n\n", result)
	return nil
}

// movetext replays the UCI moves to produce SAN tokens. Once a move can't
// be matched to a legal move, the remaining tokens are emitted raw.
func movetext(moves []string) []string {
	pos := pgn.NewStartingPosition()
	replayable := true

	out := make([]string, 0, len(moves))
	for _, u := range moves {
		if replayable {
			if mv, ok := findLegalMove(pos, u); ok {
				out = append(out, moveToSAN(pos, mv))
				if err := pgn.ApplyMove(pos, mv); err != nil {
					replayable = false
				}
				continue
			}
			replayable = false
		}
		out = append(out, u)
	}
	return out
}

// moveToSAN renders a legal move in SAN for the position it is played
// from: piece letter, file/rank disambiguation against the other legal
// moves, capture and promotion markers, and a check/checkmate suffix.
func moveToSAN(pos *pgn.GameState, mv pgn.Mv) string {
	if mv.Flags == 4 { // castling
		if mv.To > mv.From {
			return "O-O"
		}
		return "O-O-O"
	}

	files := "abcdefgh"
	ranks := "12345678"
	fromFile := int(mv.From) % 8
	toFile := int(mv.To) % 8
	toRank := int(mv.To) / 8

	piece := pos.PieceAt(mv.From)
	isPawn := piece == 'P' || piece == 'p'
	isCapture := pos.PieceAt(mv.To) != 0 || (isPawn && mv.Flags == 2) // en passant

	var san string
	if isPawn {
		if isCapture {
			san = string(files[fromFile]) + "x" + string(files[toFile]) + string(ranks[toRank])
		} else {
			san = string(files[toFile]) + string(ranks[toRank])
		}
		switch mv.Promo {
		case pgn.PromoQueen:
			san += "=Q"
		case pgn.PromoRook:
			san += "=R"
		case pgn.PromoBishop:
			san += "=B"
		case pgn.PromoKnight:
			san += "=N"
		}
	} else {
		pieceChar := piece
		if piece >= 'a' && piece <= 'z' {
			pieceChar = piece - 32
		}
		san = string(pieceChar) + sanDisambiguation(pos, mv, pieceChar)
		if isCapture {
			san += "x"
		}
		san += string(files[toFile]) + string(ranks[toRank])
	}

	// Check / checkmate suffix, probed on a copy of the position.
	if after := pos.Pack().Unpack(); after != nil {
		if err := pgn.ApplyMove(after, mv); err == nil && after.IsInCheck() {
			if len(pgn.GenerateLegalMoves(after)) == 0 {
				san += "#"
			} else {
				san += "+"
			}
		}
	}
	return san
}

// sanDisambiguation returns the file, rank, or file+rank prefix needed
// when another piece of the same type can reach the same square.
func sanDisambiguation(pos *pgn.GameState, mv pgn.Mv, pieceChar byte) string {
	files := "abcdefgh"
	ranks := "12345678"
	fromFile := int(mv.From) % 8
	fromRank := int(mv.From) / 8

	for _, other := range pgn.GenerateLegalMoves(pos) {
		if other.To != mv.To || other.From == mv.From {
			continue
		}
		otherPiece := pos.PieceAt(other.From)
		if otherPiece >= 'a' && otherPiece <= 'z' {
			otherPiece -= 32
		}
		if otherPiece != pieceChar {
			continue
		}
		if fromFile != int(other.From)%8 {
			return string(files[fromFile])
		}
		if fromRank != int(other.From)/8 {
			return string(ranks[fromRank])
		}
		return string(files[fromFile]) + string(ranks[fromRank])
	}
	return ""
}

func findLegalMove(pos *pgn.GameState, uciMove string) (pgn.Mv, bool) {
	for _, mv := range pgn.GenerateLegalMoves(pos) {
		if book.MoveToUCI(mv) == uciMove {
			return mv, true
		}
	}
	return pgn.Mv{}, false
}

func pgnResult(whiteScore float64) string {
	switch whiteScore {
	case 1:
		return "1-0"
	case 0:
		return "0-1"
	default:
		return "1/2-1/2"
	}
}
