package match

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/gauntlet/internal/game"
)

func sampleRecords() []game.Record {
	return []game.Record{
		{
			Moves:     []string{"e2e4", "e7e5", "g1f3"},
			Result:    1,
			Reason:    game.ReasonNoMove,
			WhiteName: "FakeCand",
			BlackName: "FakeBase",
		},
		{
			Moves:     []string{"d2d4", "d7d5"},
			Result:    0.5,
			Reason:    game.ReasonMoveLimit,
			WhiteName: "FakeBase",
			BlackName: "FakeCand",
		},
	}
}

func TestWritePGN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.pgn")
	if err := WritePGN(path, sampleRecords()); err != nil {
		t.Fatalf("WritePGN: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	for _, want := range []string{
		`[White "FakeCand"]`,
		`[Black "FakeBase"]`,
		`[Round "1.1"]`,
		`[Round "1.2"]`,
		`[Result "1-0"]`,
		`[Result "1/2-1/2"]`,
		`[Termination "no_move"]`,
		"1-0",
		"1/2-1/2",
		"1. e4 e5 2. Nf3",
		"1. d4 d5",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("pgn missing %q", want)
		}
	}
}

func TestWritePGNCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.pgn.zst")
	if err := WritePGN(path, sampleRecords()); err != nil {
		t.Fatalf("WritePGN: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("not a zstd stream: %v", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `[Event "gauntlet match"]`) {
		t.Error("decompressed pgn missing event tag")
	}
}

func TestMovetextSAN(t *testing.T) {
	tests := []struct {
		name  string
		moves []string
		want  []string
	}{
		{
			"piece moves",
			[]string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"},
			[]string{"e4", "e5", "Nf3", "Nc6", "Bb5"},
		},
		{
			"pawn capture",
			[]string{"e2e4", "d7d5", "e4d5"},
			[]string{"e4", "d5", "exd5"},
		},
		{
			"castling",
			[]string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6", "e1g1"},
			[]string{"e4", "e5", "Nf3", "Nc6", "Bc4", "Nf6", "O-O"},
		},
		{
			"queen capture with check",
			[]string{"e2e4", "e7e5", "d1h5", "b8c6", "h5f7"},
			[]string{"e4", "e5", "Qh5", "Nc6", "Qxf7+"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := movetext(tt.moves)
			if len(got) != len(tt.want) {
				t.Fatalf("movetext = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("move %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMovetextFallsBackToRawTokens(t *testing.T) {
	// A token the rules library can't match ends SAN conversion; the
	// remainder passes through untouched.
	got := movetext([]string{"e2e4", "zzzz", "e7e5"})
	if len(got) != 3 {
		t.Fatalf("movetext = %v, want 3 tokens", got)
	}
	if got[0] != "e4" {
		t.Errorf("first move = %q, want SAN e4", got[0])
	}
	if got[1] != "zzzz" || got[2] != "e7e5" {
		t.Errorf("fallback tokens = %v", got[1:])
	}
}

func TestPGNResult(t *testing.T) {
	if got := pgnResult(1); got != "1-0" {
		t.Errorf("pgnResult(1) = %q", got)
	}
	if got := pgnResult(0); got != "0-1" {
		t.Errorf("pgnResult(0) = %q", got)
	}
	if got := pgnResult(0.5); got != "1/2-1/2" {
		t.Errorf("pgnResult(0.5) = %q", got)
	}
}

func TestReportWrite(t *testing.T) {
	dir := t.TempDir()
	r := &Report{
		RunID:     "test-run",
		Candidate: "cand",
		Baseline:  "base",
		Games:     10,
		Timestamp: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}

	path, err := r.Write(dir)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(path) != "gauntlet_20260825_120000.json" {
		t.Errorf("report file = %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"run_id": "test-run"`) {
		t.Error("report missing run id")
	}
}
