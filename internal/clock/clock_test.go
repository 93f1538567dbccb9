package clock

import "testing"

func TestChargeDeductsAndCredits(t *testing.T) {
	c := New(1000, 100, 0)

	if forfeit := c.Charge(White, 200); forfeit {
		t.Fatal("unexpected forfeit")
	}
	if got := c.Remaining(White); got != 900 {
		t.Errorf("white remaining = %d, want 900 (1000 - 200 + 100)", got)
	}
	if got := c.Remaining(Black); got != 1000 {
		t.Errorf("black remaining = %d, want untouched 1000", got)
	}
}

func TestChargeForfeit(t *testing.T) {
	tests := []struct {
		name      string
		remaining int64
		elapsed   int64
		forfeit   bool
	}{
		{"well over", 1000, 2000, true},
		{"lands exactly on floor", 1000, 900, true},
		{"just above floor", 1000, 899, false},
		{"within time", 1000, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.remaining, 100, 0)
			got := c.Charge(White, tt.elapsed)
			if got != tt.forfeit {
				t.Errorf("Charge(%d) forfeit = %v, want %v", tt.elapsed, got, tt.forfeit)
			}
			if c.Remaining(White) < 0 {
				t.Errorf("remaining went negative: %d", c.Remaining(White))
			}
		})
	}
}

func TestForfeitNeverRecordsNegative(t *testing.T) {
	// 1000ms remaining, 100ms increment: a move taking 2000ms forfeits
	// and the clock is pinned at the floor instead of going negative.
	c := New(1000, 100, 0)
	if forfeit := c.Charge(White, 2000); !forfeit {
		t.Fatal("expected forfeit")
	}
	if got := c.Remaining(White); got != DefaultFloorMs {
		t.Errorf("remaining = %d, want floor %d", got, DefaultFloorMs)
	}
}

func TestSides(t *testing.T) {
	if White.Opponent() != Black || Black.Opponent() != White {
		t.Error("Opponent mapping wrong")
	}
	if White.String() != "white" || Black.String() != "black" {
		t.Error("String mapping wrong")
	}
}
