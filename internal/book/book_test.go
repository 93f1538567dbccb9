package book

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/freeeve/pgn/v3"
)

func TestBuiltin(t *testing.T) {
	b := Builtin()
	if b.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", b.Len())
	}
	if got := b.Pick(0); len(got) != 0 {
		t.Errorf("Pick(0) = %v, want the empty startpos line", got)
	}
	if got := b.Pick(1); len(got) != 1 || got[0] != "e2e4" {
		t.Errorf("Pick(1) = %v, want [e2e4]", got)
	}
	// Round-robin wraps.
	if got := b.Pick(11); len(got) != 1 || got[0] != "e2e4" {
		t.Errorf("Pick(11) = %v, want [e2e4]", got)
	}
}

func TestLoadTSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openings.tsv")
	data := "eco\tname\tpgn\n" +
		"B00\tKing's Pawn Game\t1. e4 e5\n" +
		"A04\tZukertort Opening\t1. Nf3\n" +
		"XX\tbroken line\t1. Zz9\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	b, err := Load(path, 8)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (broken line skipped)", b.Len())
	}

	first := b.Pick(0)
	if len(first) != 2 || first[0] != "e2e4" || first[1] != "e7e5" {
		t.Errorf("first line = %v, want [e2e4 e7e5]", first)
	}
	second := b.Pick(1)
	if len(second) != 1 || second[0] != "g1f3" {
		t.Errorf("second line = %v, want [g1f3]", second)
	}
}

func TestLoadTSVTruncatesToMaxPlies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openings.tsv")
	data := "C50\tItalian Game\t1. e4 e5 2. Nf3 Nc6 3. Bc4\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	b, err := Load(path, 2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := b.Pick(0); len(got) != 2 {
		t.Errorf("line = %v, want 2 plies", got)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := Load("book.txt", 8); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestMoveToUCI(t *testing.T) {
	tests := []struct {
		name string
		mv   pgn.Mv
		want string
	}{
		{"e2e4", pgn.Mv{From: 12, To: 28}, "e2e4"},
		{"promotion", pgn.Mv{From: 52, To: 60, Promo: pgn.PromoQueen}, "e7e8q"},
		{"corner to corner", pgn.Mv{From: 0, To: 63}, "a1h8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MoveToUCI(tt.mv); got != tt.want {
				t.Errorf("MoveToUCI = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSANLineToUCI(t *testing.T) {
	got, err := sanLineToUCI("1. d4 Nf6 2. c4", 8)
	if err != nil {
		t.Fatalf("sanLineToUCI: %v", err)
	}
	want := []string{"d2d4", "g8f6", "c2c4"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("move %d = %q, want %q", i, got[i], want[i])
		}
	}
}
