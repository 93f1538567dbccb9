package match

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/freeeve/gauntlet/internal/book"
	"github.com/freeeve/gauntlet/internal/sprt"
)

// pairSentinel on the queue tells a worker to exit without starting a
// new pair. A pair already in progress always runs to completion.
const pairSentinel = -1

// Orchestrator wires the scheduler and the statistical engine: it feeds
// game pairs to the worker pool, polls the SPRT for an early-stop
// decision, and emits the final report.
type Orchestrator struct {
	cfg  Config
	log  zerolog.Logger
	agg  *Aggregate
	test *sprt.Test
	book *book.Book

	queue    chan int
	stopOnce sync.Once
	stopped  atomic.Bool
	started  time.Time
}

// New creates an orchestrator for the given configuration.
func New(cfg Config) *Orchestrator {
	cfg.setDefaults()
	return &Orchestrator{
		cfg:  cfg,
		log:  cfg.Logger.With().Str("component", "orchestrator").Logger(),
		agg:  NewAggregate(),
		test: sprt.New(cfg.SPRT),
	}
}

// Aggregate exposes the shared run state.
func (o *Orchestrator) Aggregate() *Aggregate { return o.agg }

// Run validates both engines, plays pairs until the SPRT decides or the
// game budget is exhausted, and returns the final report. Cancelling ctx
// stops scheduling; in-flight pairs finish and a report is still
// produced from whatever completed. Only engine validation failures
// before any game is scheduled are returned as errors.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	if err := preflightFn(o.cfg.Candidate); err != nil {
		return nil, fmt.Errorf("candidate engine: %w", err)
	}
	if err := preflightFn(o.cfg.Baseline); err != nil {
		return nil, fmt.Errorf("baseline engine: %w", err)
	}

	b := book.Builtin()
	if o.cfg.BookPath != "" {
		loaded, err := book.Load(o.cfg.BookPath, o.cfg.BookPlies)
		if err != nil {
			return nil, fmt.Errorf("opening book: %w", err)
		}
		b = loaded
	}
	o.book = b

	pairs := o.cfg.Games / 2
	if pairs == 0 {
		pairs = 1
	}
	// Capacity covers every pair plus one sentinel per worker, so stop
	// never blocks.
	o.queue = make(chan int, pairs+o.cfg.Concurrency)
	for i := 0; i < pairs; i++ {
		o.queue <- i
	}

	lower, upper := o.test.Bounds()
	o.log.Info().
		Str("candidate", o.cfg.Candidate).
		Str("baseline", o.cfg.Baseline).
		Str("tc", o.cfg.TimeControl()).
		Int("pairs", pairs).
		Int("concurrency", o.cfg.Concurrency).
		Int("book_lines", b.Len()).
		Float64("elo0", o.cfg.SPRT.Elo0).
		Float64("elo1", o.cfg.SPRT.Elo1).
		Float64("lower", lower).
		Float64("upper", upper).
		Msg("run started")

	o.started = time.Now()

	var g errgroup.Group
	for i := 0; i < o.cfg.Concurrency; i++ {
		workerID := i
		g.Go(func() error {
			o.runWorker(ctx, workerID)
			return nil
		})
	}

	o.monitor(ctx, pairs)
	_ = g.Wait()

	return o.finalize()
}

// monitor polls the aggregate, recomputes the SPRT, and triggers the
// stop signal on a decision, on budget exhaustion, or on cancellation.
func (o *Orchestrator) monitor(ctx context.Context, pairs int) {
	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.log.Info().Msg("cancelled, letting in-flight pairs finish")
			o.stop()
			return
		case <-ticker.C:
			c := o.agg.Counts()
			o.test.Update(c.Wins, c.Draws, c.Losses)

			if c.Games() > 0 {
				o.logProgress(c)
			}

			if status := o.test.Status(); status != sprt.StatusContinue {
				o.log.Info().Str("status", string(status)).Float64("llr", o.test.LLR()).Msg("sprt decided")
				o.stop()
				return
			}
			if c.Games() >= int64(pairs*2) {
				o.log.Info().Msg("game budget exhausted")
				o.stop()
				return
			}
		}
	}
}

// stop enqueues one sentinel per worker. Idempotent.
func (o *Orchestrator) stop() {
	o.stopOnce.Do(func() {
		o.stopped.Store(true)
		for i := 0; i < o.cfg.Concurrency; i++ {
			o.queue <- pairSentinel
		}
	})
}

func (o *Orchestrator) logProgress(c Counts) {
	est := sprt.Estimate(c.Wins, c.Draws, c.Losses)
	elapsed := time.Since(o.started).Seconds()
	var gps float64
	if elapsed > 0 {
		gps = float64(c.Games()) / elapsed
	}
	o.log.Info().
		Int64("games", c.Games()).
		Int64("w", c.Wins).
		Int64("d", c.Draws).
		Int64("l", c.Losses).
		Float64("elo", est.Elo).
		Float64("los", sprt.LOS(c.Wins, c.Losses)).
		Float64("llr", o.test.LLR()).
		Float64("games_per_sec", gps).
		Msg("progress")
}

// finalize recomputes the test from the full totals, persists the game
// log and report, and returns the report.
func (o *Orchestrator) finalize() (*Report, error) {
	c := o.agg.Counts()
	o.test.Update(c.Wins, c.Draws, c.Losses)

	report := o.buildReport(c)

	if o.cfg.PGNPath != "" {
		if err := WritePGN(o.cfg.PGNPath, o.agg.Records()); err != nil {
			o.log.Warn().Err(err).Str("path", o.cfg.PGNPath).Msg("pgn log write failed")
		} else {
			o.log.Info().Str("path", o.cfg.PGNPath).Msg("pgn log written")
		}
	}

	path, err := report.Write(o.cfg.ReportDir)
	if err != nil {
		o.log.Warn().Err(err).Msg("report write failed")
	} else {
		o.log.Info().Str("path", path).Msg("report written")
	}

	est := report.Elo
	o.log.Info().
		Int64("games", c.Games()).
		Int64("w", c.Wins).
		Int64("d", c.Draws).
		Int64("l", c.Losses).
		Ints64("pentanomial", c.Pentanomial[:]).
		Float64("elo", est.Elo).
		Float64("ci_lower", est.CILower).
		Float64("ci_upper", est.CIUpper).
		Float64("los", report.LOS).
		Float64("llr", report.SPRT.LLR).
		Str("status", string(report.SPRT.Status)).
		Msg("run complete")

	return report, nil
}
