package match

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/freeeve/gauntlet/internal/sprt"
	"github.com/freeeve/gauntlet/internal/uciproc"
)

// SPRTResult is the test section of the report.
type SPRTResult struct {
	Elo0       float64     `json:"elo0"`
	Elo1       float64     `json:"elo1"`
	Alpha      float64     `json:"alpha"`
	Beta       float64     `json:"beta"`
	LLR        float64     `json:"llr"`
	LowerBound float64     `json:"lower_bound"`
	UpperBound float64     `json:"upper_bound"`
	Status     sprt.Status `json:"status"`
}

// EngineTelemetry is averaged search telemetry for one engine.
type EngineTelemetry struct {
	AvgDepth      float64 `json:"avg_depth"`
	AvgNPS        float64 `json:"avg_nps"`
	AvgMoveTimeMs float64 `json:"avg_move_time_ms"`
}

// Report is the persisted result document for one run.
type Report struct {
	RunID       string `json:"run_id"`
	Candidate   string `json:"candidate"`
	Baseline    string `json:"baseline"`
	TimeControl string `json:"time_control"`

	Games       int64    `json:"games"`
	Wins        int64    `json:"wins"`
	Draws       int64    `json:"draws"`
	Losses      int64    `json:"losses"`
	Pentanomial [5]int64 `json:"pentanomial"`
	Crashes     int64    `json:"crashes"`
	TimeLosses  int64    `json:"time_losses"`

	SPRT SPRTResult       `json:"sprt"`
	Elo  sprt.EloEstimate `json:"elo_estimate"`
	LOS  float64          `json:"los"`

	CandidateTelemetry *EngineTelemetry `json:"candidate_telemetry,omitempty"`
	BaselineTelemetry  *EngineTelemetry `json:"baseline_telemetry,omitempty"`

	ElapsedSeconds float64   `json:"elapsed_seconds"`
	Timestamp      time.Time `json:"timestamp"`
}

// buildReport assembles the report from the final aggregate snapshot.
func (o *Orchestrator) buildReport(c Counts) *Report {
	lower, upper := o.test.Bounds()
	p := o.test.Params()

	r := &Report{
		RunID:       uuid.NewString(),
		Candidate:   o.cfg.Candidate,
		Baseline:    o.cfg.Baseline,
		TimeControl: o.cfg.TimeControl(),
		Games:       c.Games(),
		Wins:        c.Wins,
		Draws:       c.Draws,
		Losses:      c.Losses,
		Pentanomial: c.Pentanomial,
		Crashes:     c.Crashes,
		TimeLosses:  c.TimeLosses,
		SPRT: SPRTResult{
			Elo0:       p.Elo0,
			Elo1:       p.Elo1,
			Alpha:      p.Alpha,
			Beta:       p.Beta,
			LLR:        o.test.LLR(),
			LowerBound: lower,
			UpperBound: upper,
			Status:     o.test.Status(),
		},
		Elo:            sprt.Estimate(c.Wins, c.Draws, c.Losses),
		LOS:            sprt.LOS(c.Wins, c.Losses),
		ElapsedSeconds: time.Since(o.started).Seconds(),
		Timestamp:      time.Now(),
	}

	if o.cfg.Telemetry {
		cand, base := o.agg.EngineStats()
		r.CandidateTelemetry = telemetryFor(cand)
		r.BaselineTelemetry = telemetryFor(base)
	}
	return r
}

func telemetryFor(s uciproc.Stats) *EngineTelemetry {
	return &EngineTelemetry{
		AvgDepth:      s.AvgDepth(),
		AvgNPS:        s.AvgNPS(),
		AvgMoveTimeMs: s.AvgMoveTimeMs(),
	}
}

// Write persists the report as indented JSON under dir and returns the
// file path.
func (r *Report) Write(dir string) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("gauntlet_%s.json", r.Timestamp.Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
