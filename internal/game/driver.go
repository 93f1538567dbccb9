// Package game drives one complete game between two UCI engines and
// scores it. Termination uses explicit heuristics (move-echo repetition
// and a half-move ceiling), not full rules adjudication.
package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/freeeve/gauntlet/internal/clock"
)

// Player is the engine surface the driver needs. *uciproc.Engine
// implements it; tests substitute scripted fakes.
type Player interface {
	Send(command string)
	ReceiveUntil(token string) (lines []string, found bool)
	Quit()
	Name() string
}

// Reason records how a game reached its terminal state.
type Reason string

const (
	ReasonNoMove        Reason = "no_move"        // missing bestmove, "(none)" or "0000"
	ReasonTimeForfeit   Reason = "time_forfeit"   // clock hit the floor
	ReasonRepetition    Reason = "repetition"     // last 4-move block echoes the previous one
	ReasonMoveLimit     Reason = "move_limit"     // half-move ceiling reached
	ReasonEngineFailure Reason = "engine_failure" // process died or handshake failed
)

// Record is the immutable outcome of one game. Result is white's score.
type Record struct {
	Moves     []string
	Result    float64 // 1, 0.5, 0 from white's perspective
	Reason    Reason
	WhiteName string
	BlackName string
	Crashed   bool // scored via the ProcessFailure recovery path
	TimeLoss  bool
}

// Config parameterizes the driver. MovetimeMs > 0 selects fixed
// time-per-move mode; otherwise BaseTimeMs+IncMs clock mode with forfeit
// detection.
type Config struct {
	BaseTimeMs int64
	IncMs      int64
	MovetimeMs int64
	MaxMoves   int      // half-move ceiling, default 200
	Opening    []string // UCI moves pre-played before the engines take over
	Logger     zerolog.Logger
}

// Driver plays games under one fixed configuration.
type Driver struct {
	cfg Config
	log zerolog.Logger
}

// New creates a driver. Zero-value fields get defaults.
func New(cfg Config) *Driver {
	if cfg.MaxMoves == 0 {
		cfg.MaxMoves = 200
	}
	if cfg.BaseTimeMs == 0 && cfg.MovetimeMs == 0 {
		cfg.BaseTimeMs = 10000
	}
	return &Driver{cfg: cfg, log: cfg.Logger}
}

// Play runs one game to a terminal state. Both engines are shut down
// before the record is returned, on every path including panics; an
// unhandled failure scores the game as a draw.
func (d *Driver) Play(white, black Player) (rec Record) {
	defer white.Quit()
	defer black.Quit()

	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Msg("game panicked, scoring as draw")
			rec = Record{Result: 0.5, Reason: ReasonEngineFailure, Crashed: true}
		}
	}()

	if err := handshake(white); err != nil {
		d.log.Warn().Err(err).Str("engine", white.Name()).Msg("white handshake failed")
		return d.finish(white, black, Record{Result: 0.5, Reason: ReasonEngineFailure, Crashed: true, Moves: nil})
	}
	if err := handshake(black); err != nil {
		d.log.Warn().Err(err).Str("engine", black.Name()).Msg("black handshake failed")
		return d.finish(white, black, Record{Result: 0.5, Reason: ReasonEngineFailure, Crashed: true, Moves: nil})
	}

	moves := append([]string(nil), d.cfg.Opening...)
	clocks := clock.New(d.cfg.BaseTimeMs, d.cfg.IncMs, 0)

	for len(moves) < d.cfg.MaxMoves {
		side := sideToMove(len(moves))
		cur := white
		if side == clock.Black {
			cur = black
		}

		cur.Send(positionCommand(moves))
		start := time.Now()
		cur.Send(d.goCommand(clocks))

		lines, ok := cur.ReceiveUntil("bestmove")
		elapsedMs := time.Since(start).Milliseconds()

		if !ok {
			// Process died mid-search: no-move loss for the side on move.
			d.log.Warn().Str("engine", cur.Name()).Str("side", side.String()).Msg("engine died awaiting bestmove")
			return d.finish(white, black, Record{
				Moves:   moves,
				Result:  lossFor(side),
				Reason:  ReasonNoMove,
				Crashed: true,
			})
		}

		move := parseBestmove(lines)
		if move == "" {
			return d.finish(white, black, Record{Moves: moves, Result: lossFor(side), Reason: ReasonNoMove})
		}

		if d.cfg.MovetimeMs == 0 {
			if forfeit := clocks.Charge(side, elapsedMs); forfeit {
				d.log.Debug().
					Str("side", side.String()).
					Int64("elapsed_ms", elapsedMs).
					Int64("remaining_ms", clocks.Remaining(side)).
					Msg("time forfeit")
				return d.finish(white, black, Record{
					Moves:    moves,
					Result:   lossFor(side),
					Reason:   ReasonTimeForfeit,
					TimeLoss: true,
				})
			}
		}

		moves = append(moves, move)

		if repetitionEcho(moves) {
			return d.finish(white, black, Record{Moves: moves, Result: 0.5, Reason: ReasonRepetition})
		}
	}

	return d.finish(white, black, Record{Moves: moves, Result: 0.5, Reason: ReasonMoveLimit})
}

// finish stamps engine names and shuts both engines down before the
// record escapes. The deferred Quits in Play are then no-ops.
func (d *Driver) finish(white, black Player, rec Record) Record {
	rec.WhiteName = white.Name()
	rec.BlackName = black.Name()
	white.Quit()
	black.Quit()
	return rec
}

// handshake runs the protocol greeting, new-game notification, and
// readiness exchange.
func handshake(p Player) error {
	p.Send("uci")
	if _, ok := p.ReceiveUntil("uciok"); !ok {
		return fmt.Errorf("no uciok from %s", p.Name())
	}
	p.Send("ucinewgame")
	p.Send("isready")
	if _, ok := p.ReceiveUntil("readyok"); !ok {
		return fmt.Errorf("no readyok from %s", p.Name())
	}
	return nil
}

func sideToMove(halfMoves int) clock.Side {
	if halfMoves%2 == 0 {
		return clock.White
	}
	return clock.Black
}

func lossFor(s clock.Side) float64 {
	if s == clock.White {
		return 0
	}
	return 1
}

func positionCommand(moves []string) string {
	if len(moves) == 0 {
		return "position startpos"
	}
	return "position startpos moves " + strings.Join(moves, " ")
}

func (d *Driver) goCommand(c *clock.Controller) string {
	if d.cfg.MovetimeMs > 0 {
		return fmt.Sprintf("go movetime %d", d.cfg.MovetimeMs)
	}
	return fmt.Sprintf("go wtime %d btime %d winc %d binc %d",
		c.Remaining(clock.White), c.Remaining(clock.Black), c.Increment(), c.Increment())
}

// parseBestmove extracts the move token from a bestmove line. An absent
// move, "(none)", or the null move "0000" all signal no legal move.
func parseBestmove(lines []string) string {
	for _, line := range lines {
		if !strings.HasPrefix(line, "bestmove") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return ""
		}
		move := fields[1]
		if move == "(none)" || move == "0000" {
			return ""
		}
		return move
	}
	return ""
}

// repetitionEcho reports the draw heuristic: at least 10 half-moves
// played and the most recent 4-move block equal to the one before it.
func repetitionEcho(moves []string) bool {
	n := len(moves)
	if n < 10 {
		return false
	}
	for i := 0; i < 4; i++ {
		if moves[n-1-i] != moves[n-5-i] {
			return false
		}
	}
	return true
}
