package sprt

import "math"

// EloEstimate is an Elo difference with its 95% confidence interval.
type EloEstimate struct {
	Elo     float64 `json:"elo"`
	CILower float64 `json:"ci_lower"`
	CIUpper float64 `json:"ci_upper"`
}

// Estimate computes the Elo difference implied by cumulative totals.
// The observed score is clamped away from 0 and 1 so the estimate stays
// finite for one-sided results.
func Estimate(wins, draws, losses int64) EloEstimate {
	n := wins + draws + losses
	if n == 0 {
		return EloEstimate{}
	}

	score := (float64(wins) + 0.5*float64(draws)) / float64(n)
	if score <= 0 {
		score = 0.001
	} else if score >= 1 {
		score = 0.999
	}

	elo := 400 * math.Log10(score/(1-score))

	stddev := math.Sqrt(score * (1 - score) / float64(n))
	eloStd := 400 * stddev / (score * (1 - score) * math.Ln10)

	return EloEstimate{
		Elo:     elo,
		CILower: elo - 1.96*eloStd,
		CIUpper: elo + 1.96*eloStd,
	}
}

// LOS returns the likelihood of superiority: the probability that the
// candidate's true strength exceeds the baseline's, from the normal CDF of
// the standardized win/loss difference. Draws carry no information here.
func LOS(wins, losses int64) float64 {
	if wins+losses == 0 {
		return 0.5
	}
	z := float64(wins-losses) / math.Sqrt(2*float64(wins+losses))
	return 0.5 + 0.5*math.Erf(z)
}
