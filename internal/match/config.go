package match

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/freeeve/gauntlet/internal/sprt"
)

// Config configures a run. Zero values get defaults in New.
type Config struct {
	Candidate string `yaml:"candidate"` // engine under test
	Baseline  string `yaml:"baseline"`  // reference engine

	Games       int `yaml:"games"`       // maximum games (two per pair)
	Concurrency int `yaml:"concurrency"` // parallel workers

	BaseTimeMs int64 `yaml:"time_ms"`     // base clock per side
	IncMs      int64 `yaml:"inc_ms"`      // increment per move
	MovetimeMs int64 `yaml:"movetime_ms"` // fixed time per move (overrides clock mode)
	MaxMoves   int   `yaml:"max_moves"`   // half-move ceiling

	SPRT sprt.Params `yaml:"sprt"`

	BookPath  string `yaml:"book"`       // PGN or TSV opening book (empty = built-in)
	BookPlies int    `yaml:"book_plies"` // max half-moves taken from each book line

	Telemetry bool   `yaml:"telemetry"`  // harvest engine search telemetry
	PGNPath   string `yaml:"pgn"`        // game log destination (empty = disabled)
	ReportDir string `yaml:"report_dir"` // where the JSON report is written

	PollInterval time.Duration  `yaml:"-"` // monitor loop period
	Logger       zerolog.Logger `yaml:"-"`
}

// LoadFile reads a YAML run configuration.
func LoadFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Games == 0 {
		c.Games = 100
	}
	if c.Concurrency == 0 {
		c.Concurrency = 1
	}
	if c.BaseTimeMs == 0 && c.MovetimeMs == 0 {
		c.BaseTimeMs = 10000
	}
	if c.IncMs == 0 && c.MovetimeMs == 0 {
		c.IncMs = 100
	}
	if c.MaxMoves == 0 {
		c.MaxMoves = 200
	}
	if c.BookPlies == 0 {
		c.BookPlies = 8
	}
	if c.SPRT.Elo0 == 0 && c.SPRT.Elo1 == 0 {
		c.SPRT.Elo0 = -1.75
		c.SPRT.Elo1 = 0.25
	}
	if c.ReportDir == "" {
		c.ReportDir = "."
	}
	if c.PollInterval == 0 {
		c.PollInterval = time.Second
	}
}

// TimeControl returns the run's time control as a display string.
func (c *Config) TimeControl() string {
	if c.MovetimeMs > 0 {
		return fmt.Sprintf("movetime %dms", c.MovetimeMs)
	}
	return fmt.Sprintf("%d+%d", c.BaseTimeMs, c.IncMs)
}
