package match

import (
	"sync"

	"github.com/freeeve/gauntlet/internal/game"
	"github.com/freeeve/gauntlet/internal/uciproc"
)

// Pentanomial bucket indices, by the pair's combined candidate score.
const (
	PairLL = iota // 0
	PairLD        // 0.5
	PairDD        // 1 (also WL)
	PairWD        // 1.5
	PairWW        // 2
)

// Counts is a point-in-time snapshot of the aggregate.
type Counts struct {
	Wins        int64
	Draws       int64
	Losses      int64
	Pentanomial [5]int64
	Crashes     int64
	TimeLosses  int64
}

// Games returns the number of completed games.
func (c Counts) Games() int64 { return c.Wins + c.Draws + c.Losses }

// Score returns the candidate's cumulative score fraction.
func (c Counts) Score() float64 {
	n := c.Games()
	if n == 0 {
		return 0
	}
	return (float64(c.Wins) + 0.5*float64(c.Draws)) / float64(n)
}

// Aggregate is the shared run state. All workers mutate it through
// ApplyPair under one lock; both games of a pair are scored together so
// wins+draws+losses always equals completed games.
type Aggregate struct {
	mu sync.Mutex

	counts  Counts
	records []game.Record

	candStats uciproc.Stats
	baseStats uciproc.Stats
}

// NewAggregate creates an empty aggregate.
func NewAggregate() *Aggregate { return &Aggregate{} }

// ApplyPair records both games of a color-reversed pair. score1 and
// score2 are the candidate's scores for the two games; rec1 and rec2 are
// the corresponding game records in play order.
func (a *Aggregate) ApplyPair(score1, score2 float64, rec1, rec2 game.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, s := range []float64{score1, score2} {
		switch s {
		case 1:
			a.counts.Wins++
		case 0:
			a.counts.Losses++
		default:
			a.counts.Draws++
		}
	}

	a.counts.Pentanomial[pentBucket(score1+score2)]++

	for _, rec := range []game.Record{rec1, rec2} {
		if rec.Crashed {
			a.counts.Crashes++
		}
		if rec.TimeLoss {
			a.counts.TimeLosses++
		}
		a.records = append(a.records, rec)
	}
}

// AddEngineStats folds one game's telemetry into the per-engine totals.
func (a *Aggregate) AddEngineStats(cand, base uciproc.Stats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	addStats(&a.candStats, cand)
	addStats(&a.baseStats, base)
}

func addStats(dst *uciproc.Stats, s uciproc.Stats) {
	dst.Moves += s.Moves
	dst.TotalDepth += s.TotalDepth
	dst.TotalNodes += s.TotalNodes
	dst.TotalTimeMs += s.TotalTimeMs
}

// Counts returns a snapshot of the counters.
func (a *Aggregate) Counts() Counts {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts
}

// Records returns a copy of the completed game records, in pair order.
func (a *Aggregate) Records() []game.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]game.Record(nil), a.records...)
}

// EngineStats returns the accumulated telemetry for candidate and baseline.
func (a *Aggregate) EngineStats() (cand, base uciproc.Stats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.candStats, a.baseStats
}

func pentBucket(pairScore float64) int {
	switch pairScore {
	case 2:
		return PairWW
	case 1.5:
		return PairWD
	case 0.5:
		return PairLD
	case 0:
		return PairLL
	default:
		return PairDD
	}
}
