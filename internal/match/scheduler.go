package match

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/freeeve/gauntlet/internal/game"
	"github.com/freeeve/gauntlet/internal/uciproc"
)

// runWorker pulls pair indices from the queue until it sees a sentinel,
// the queue delivers nothing more, or the context is cancelled. The stop
// signal is only observed between pairs, never mid-game.
func (o *Orchestrator) runWorker(ctx context.Context, workerID int) {
	log := o.cfg.Logger.With().Str("component", "worker").Int("worker_id", workerID).Logger()
	log.Debug().Msg("worker started")

	for {
		if o.stopped.Load() {
			log.Debug().Msg("worker stopping (stop signal)")
			return
		}

		select {
		case <-ctx.Done():
			log.Debug().Msg("worker stopping (context cancelled)")
			return
		case idx := <-o.queue:
			if idx == pairSentinel {
				log.Debug().Msg("worker stopping (sentinel)")
				return
			}
			o.playPair(idx, log)
		}
	}
}

// playPair plays both games of a pair from the same opening with colors
// swapped, then scores them together under one aggregate update. Scores
// are kept from the candidate's perspective.
func (o *Orchestrator) playPair(idx int, log zerolog.Logger) {
	opening := o.book.Pick(idx)

	driver := game.New(game.Config{
		BaseTimeMs: o.cfg.BaseTimeMs,
		IncMs:      o.cfg.IncMs,
		MovetimeMs: o.cfg.MovetimeMs,
		MaxMoves:   o.cfg.MaxMoves,
		Opening:    opening,
		Logger:     log,
	})

	// Game 1: candidate plays white.
	rec1, candStats1, baseStats1 := o.playGame(driver, o.cfg.Candidate, o.cfg.Baseline, log)
	score1 := rec1.Result

	// Game 2: colors reversed; invert for the candidate's perspective.
	rec2, baseStats2, candStats2 := o.playGame(driver, o.cfg.Baseline, o.cfg.Candidate, log)
	score2 := 1 - rec2.Result

	o.agg.ApplyPair(score1, score2, rec1, rec2)
	if o.cfg.Telemetry {
		o.agg.AddEngineStats(candStats1, baseStats1)
		o.agg.AddEngineStats(candStats2, baseStats2)
	}

	log.Debug().
		Int("pair", idx).
		Float64("score1", score1).
		Float64("score2", score2).
		Str("reason1", string(rec1.Reason)).
		Str("reason2", string(rec2.Reason)).
		Msg("pair complete")
}

// playGame starts fresh engine processes for one game and guarantees
// they are gone before returning, whatever happened. A process that
// cannot be started mid-run scores the game as a draw rather than
// aborting the run.
func (o *Orchestrator) playGame(driver *game.Driver, whitePath, blackPath string, log zerolog.Logger) (game.Record, uciproc.Stats, uciproc.Stats) {
	white, err := uciproc.Start(whitePath, o.cfg.Telemetry)
	if err != nil {
		log.Warn().Err(err).Str("engine", whitePath).Msg("engine start failed")
		return game.Record{Result: 0.5, Reason: game.ReasonEngineFailure, Crashed: true}, uciproc.Stats{}, uciproc.Stats{}
	}
	black, err := uciproc.Start(blackPath, o.cfg.Telemetry)
	if err != nil {
		white.Quit()
		log.Warn().Err(err).Str("engine", blackPath).Msg("engine start failed")
		return game.Record{Result: 0.5, Reason: game.ReasonEngineFailure, Crashed: true}, uciproc.Stats{}, uciproc.Stats{}
	}

	rec := driver.Play(white, black)
	return rec, white.Stats(), black.Stats()
}
