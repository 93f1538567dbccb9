package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freeeve/gauntlet/internal/logx"
	"github.com/freeeve/gauntlet/internal/match"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML run configuration (flags override)")

		games       = flag.Int("games", 100, "maximum number of games (two per pair)")
		concurrency = flag.Int("concurrency", 1, "number of concurrent game pairs")
		timeMs      = flag.Int64("time", 10000, "base time per side in milliseconds")
		incMs       = flag.Int64("inc", 100, "increment per move in milliseconds")
		movetimeMs  = flag.Int64("movetime", 0, "fixed time per move in milliseconds (overrides clock mode)")
		maxMoves    = flag.Int("max-moves", 200, "half-move ceiling before a game is adjudicated a draw")

		bookPath  = flag.String("book", "", "opening book file, PGN or ECO TSV (empty = built-in openings)")
		bookPlies = flag.Int("book-plies", 8, "half-moves taken from each book line")

		sprtElo0  = flag.Float64("sprt-elo0", -1.75, "SPRT H0 Elo")
		sprtElo1  = flag.Float64("sprt-elo1", 0.25, "SPRT H1 Elo")
		sprtAlpha = flag.Float64("sprt-alpha", 0.05, "SPRT false-positive rate")
		sprtBeta  = flag.Float64("sprt-beta", 0.05, "SPRT false-negative rate")

		telemetry = flag.Bool("telemetry", true, "harvest engine search telemetry")
		pgnPath   = flag.String("pgn", "", "write played games to this PGN file (.zst for compression)")
		reportDir = flag.String("report-dir", ".", "directory for the JSON run report")
		logLevel  = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <baseline-engine> <candidate-engine>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logx.NewLogger(*logLevel)

	var cfg match.Config
	if *configPath != "" {
		loaded, err := match.LoadFile(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *configPath).Msg("load config")
		}
		cfg = loaded
	}

	// Flags passed explicitly override the config file.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	override := func(name string, apply func()) {
		if set[name] || *configPath == "" {
			apply()
		}
	}
	override("games", func() { cfg.Games = *games })
	override("concurrency", func() { cfg.Concurrency = *concurrency })
	override("time", func() { cfg.BaseTimeMs = *timeMs })
	override("inc", func() { cfg.IncMs = *incMs })
	override("movetime", func() { cfg.MovetimeMs = *movetimeMs })
	override("max-moves", func() { cfg.MaxMoves = *maxMoves })
	override("book", func() { cfg.BookPath = *bookPath })
	override("book-plies", func() { cfg.BookPlies = *bookPlies })
	override("sprt-elo0", func() { cfg.SPRT.Elo0 = *sprtElo0 })
	override("sprt-elo1", func() { cfg.SPRT.Elo1 = *sprtElo1 })
	override("sprt-alpha", func() { cfg.SPRT.Alpha = *sprtAlpha })
	override("sprt-beta", func() { cfg.SPRT.Beta = *sprtBeta })
	override("telemetry", func() { cfg.Telemetry = *telemetry })
	override("pgn", func() { cfg.PGNPath = *pgnPath })
	override("report-dir", func() { cfg.ReportDir = *reportDir })

	if flag.NArg() >= 2 {
		cfg.Baseline = flag.Arg(0)
		cfg.Candidate = flag.Arg(1)
	}
	if cfg.Baseline == "" || cfg.Candidate == "" {
		flag.Usage()
		os.Exit(2)
	}
	cfg.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	report, err := match.New(cfg).Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("run failed")
	}

	logger.Info().
		Str("run_id", report.RunID).
		Str("status", string(report.SPRT.Status)).
		Float64("elo", report.Elo.Elo).
		Dur("elapsed", time.Since(start)).
		Msg("done")
}
