package sprt

import (
	"math"
	"testing"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestBounds(t *testing.T) {
	test := New(Params{Elo0: 0, Elo1: 5, Alpha: 0.05, Beta: 0.05})
	lower, upper := test.Bounds()

	// ln(0.05/0.95) and ln(0.95/0.05)
	if !approx(lower, -2.9444, 0.001) {
		t.Errorf("lower bound = %f, want ~-2.9444", lower)
	}
	if !approx(upper, 2.9444, 0.001) {
		t.Errorf("upper bound = %f, want ~2.9444", upper)
	}
}

func TestExpectedScore(t *testing.T) {
	if got := expectedScore(0); got != 0.5 {
		t.Errorf("expectedScore(0) = %f, want 0.5", got)
	}
	if got := expectedScore(400); !approx(got, 10.0/11.0, 1e-9) {
		t.Errorf("expectedScore(400) = %f, want %f", got, 10.0/11.0)
	}
}

func TestUpdateSkipsBoundaryScores(t *testing.T) {
	test := New(Params{Elo0: 0, Elo1: 5})

	test.Update(0, 0, 0)
	if test.LLR() != 0 {
		t.Errorf("llr after empty update = %f, want 0", test.LLR())
	}

	// All wins: score is exactly 1, the log terms are undefined, so the
	// update must be skipped rather than produce NaN.
	test.Update(100, 0, 0)
	if test.LLR() != 0 {
		t.Errorf("llr after all-wins update = %f, want 0 (skipped)", test.LLR())
	}
	if test.Status() != StatusContinue {
		t.Errorf("status = %s, want continue", test.Status())
	}

	test.Update(0, 0, 100)
	if test.LLR() != 0 {
		t.Errorf("llr after all-losses update = %f, want 0 (skipped)", test.LLR())
	}
}

func TestStatusDecisions(t *testing.T) {
	tests := []struct {
		name                string
		wins, draws, losses int64
		want                Status
	}{
		{"balanced", 50, 0, 50, StatusContinue},
		{"dominant", 900, 0, 100, StatusAccept},
		{"dominated", 100, 0, 900, StatusReject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test := New(Params{Elo0: 0, Elo1: 5, Alpha: 0.05, Beta: 0.05})
			test.Update(tt.wins, tt.draws, tt.losses)
			if got := test.Status(); got != tt.want {
				t.Errorf("Status() = %s (llr=%f), want %s", got, test.LLR(), tt.want)
			}
		})
	}
}

func TestStatusLatchesOnceDecided(t *testing.T) {
	test := New(Params{Elo0: 0, Elo1: 5, Alpha: 0.05, Beta: 0.05})

	test.Update(900, 0, 100)
	if test.Status() != StatusAccept {
		t.Fatalf("expected accept, got %s (llr=%f)", test.Status(), test.LLR())
	}

	// Later updates with non-decreasing totals drag the observed score
	// back toward 0.5; the decision must not revert to continue.
	test.Update(900, 0, 900)
	if test.Status() != StatusAccept {
		t.Errorf("status reverted to %s after later update", test.Status())
	}
}

func TestLLRRecomputedNotAccumulated(t *testing.T) {
	test := New(Params{Elo0: 0, Elo1: 5})
	test.Update(60, 20, 20)
	first := test.LLR()

	// Same cumulative totals again: llr must be identical, not doubled.
	test.Update(60, 20, 20)
	if test.LLR() != first {
		t.Errorf("llr drifted on repeated update: %f then %f", first, test.LLR())
	}
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		name                string
		wins, draws, losses int64
		wantElo             float64
		tol                 float64
	}{
		{"even", 50, 0, 50, 0, 1e-9},
		{"score 0.7", 60, 20, 20, 147.19, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := Estimate(tt.wins, tt.draws, tt.losses)
			if !approx(est.Elo, tt.wantElo, tt.tol) {
				t.Errorf("Elo = %f, want %f", est.Elo, tt.wantElo)
			}
			if est.CILower > est.Elo || est.CIUpper < est.Elo {
				t.Errorf("CI [%f, %f] does not contain elo %f", est.CILower, est.CIUpper, est.Elo)
			}
		})
	}
}

func TestEstimateMonotonicInScore(t *testing.T) {
	prev := math.Inf(-1)
	for w := int64(1); w < 100; w++ {
		est := Estimate(w, 0, 100-w)
		if est.Elo <= prev {
			t.Fatalf("Elo not increasing at wins=%d: %f then %f", w, prev, est.Elo)
		}
		prev = est.Elo
	}
}

func TestEstimateFiniteAtExtremes(t *testing.T) {
	for _, est := range []EloEstimate{
		Estimate(100, 0, 0),
		Estimate(0, 0, 100),
		Estimate(0, 0, 0),
	} {
		for _, v := range []float64{est.Elo, est.CILower, est.CIUpper} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("estimate not finite: %+v", est)
			}
		}
	}
}

func TestLOS(t *testing.T) {
	if got := LOS(50, 50); !approx(got, 0.5, 1e-9) {
		t.Errorf("LOS(50,50) = %f, want 0.5", got)
	}
	if got := LOS(0, 0); got != 0.5 {
		t.Errorf("LOS(0,0) = %f, want 0.5", got)
	}
	if got := LOS(80, 20); got <= 0.5 || got > 1 {
		t.Errorf("LOS(80,20) = %f, want in (0.5, 1]", got)
	}
	if got := LOS(20, 80); got >= 0.5 || got < 0 {
		t.Errorf("LOS(20,80) = %f, want in [0, 0.5)", got)
	}
}
