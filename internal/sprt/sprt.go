// Package sprt implements the sequential probability ratio test and the
// Elo/LOS estimators used to compare two engines from cumulative game results.
package sprt

import "math"

// Status is the current decision of the test.
type Status string

const (
	// StatusContinue means neither bound has been crossed yet.
	StatusContinue Status = "continue"
	// StatusAccept means H1 is accepted: the candidate is stronger than elo0.
	StatusAccept Status = "accept"
	// StatusReject means H0 is accepted: the candidate is not stronger.
	StatusReject Status = "reject"
)

// Params holds the test hypotheses and error rates.
type Params struct {
	Elo0  float64 `json:"elo0" yaml:"elo0"`
	Elo1  float64 `json:"elo1" yaml:"elo1"`
	Alpha float64 `json:"alpha" yaml:"alpha"`
	Beta  float64 `json:"beta" yaml:"beta"`
}

// Test maintains the running log-likelihood ratio for a Wald SPRT over
// cumulative win/draw/loss totals.
type Test struct {
	params Params

	p0, p1 float64 // expected scores under H0/H1
	lower  float64
	upper  float64

	llr     float64
	decided Status // latched once a bound is crossed
}

// expectedScore converts an Elo difference to a win probability via the
// logistic mapping.
func expectedScore(elo float64) float64 {
	return 1 / (1 + math.Pow(10, -elo/400))
}

// New creates a test for the given hypotheses. Zero-value error rates
// default to 0.05.
func New(p Params) *Test {
	if p.Alpha == 0 {
		p.Alpha = 0.05
	}
	if p.Beta == 0 {
		p.Beta = 0.05
	}
	return &Test{
		params: p,
		p0:     expectedScore(p.Elo0),
		p1:     expectedScore(p.Elo1),
		lower:  math.Log(p.Beta / (1 - p.Alpha)),
		upper:  math.Log((1 - p.Beta) / p.Alpha),
	}
}

// Params returns the test parameters.
func (t *Test) Params() Params { return t.params }

// Bounds returns the lower and upper decision bounds.
func (t *Test) Bounds() (lower, upper float64) { return t.lower, t.upper }

// LLR returns the current log-likelihood ratio.
func (t *Test) LLR() float64 { return t.llr }

// Update recomputes the log-likelihood ratio from cumulative totals.
// The llr is always derived from the full totals rather than accumulated
// incrementally, so repeated updates cannot drift. An observed score of
// exactly 0 or 1 leaves the llr unchanged (the log terms are undefined
// at the boundary).
func (t *Test) Update(wins, draws, losses int64) {
	n := wins + draws + losses
	if n == 0 {
		return
	}

	score := (float64(wins) + 0.5*float64(draws)) / float64(n)
	if score <= 0 || score >= 1 {
		return
	}

	nf := float64(n)
	llr := nf * (score*math.Log(score/t.p0) + (1-score)*math.Log((1-score)/(1-t.p0)))
	llr -= nf * (score*math.Log(score/t.p1) + (1-score)*math.Log((1-score)/(1-t.p1)))
	t.llr = llr

	// Latch the first decision so the status never reverts to continue.
	if t.decided == "" || t.decided == StatusContinue {
		switch {
		case llr <= t.lower:
			t.decided = StatusReject
		case llr >= t.upper:
			t.decided = StatusAccept
		}
	}
}

// Status returns the current test decision.
func (t *Test) Status() Status {
	if t.decided == StatusAccept || t.decided == StatusReject {
		return t.decided
	}
	switch {
	case t.llr <= t.lower:
		return StatusReject
	case t.llr >= t.upper:
		return StatusAccept
	default:
		return StatusContinue
	}
}
