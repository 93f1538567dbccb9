// Package clock tracks per-side remaining time for a single game played
// under a base+increment time control.
package clock

// Side identifies the player on move.
type Side int

const (
	White Side = iota
	Black
)

func (s Side) String() string {
	if s == White {
		return "white"
	}
	return "black"
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == White {
		return Black
	}
	return White
}

// DefaultFloorMs is the remaining time at or below which a side forfeits.
const DefaultFloorMs = 100

// Controller holds both clocks for one game. It is owned by a single game
// driver and is not safe for concurrent use.
type Controller struct {
	whiteMs int64
	blackMs int64
	incMs   int64
	floorMs int64
}

// New creates a controller with both sides at baseMs and the given
// per-move increment. A zero floor uses DefaultFloorMs.
func New(baseMs, incMs, floorMs int64) *Controller {
	if floorMs == 0 {
		floorMs = DefaultFloorMs
	}
	return &Controller{
		whiteMs: baseMs,
		blackMs: baseMs,
		incMs:   incMs,
		floorMs: floorMs,
	}
}

// Remaining returns the remaining milliseconds for a side.
func (c *Controller) Remaining(s Side) int64 {
	if s == White {
		return c.whiteMs
	}
	return c.blackMs
}

// Increment returns the per-move increment in milliseconds.
func (c *Controller) Increment() int64 { return c.incMs }

// Charge deducts the measured think time for the side that just moved and
// credits the increment. It returns true if the side forfeited on time:
// the deduction alone (before the increment) would have left the clock at
// or below the floor. On forfeit the clock is pinned at the floor, so a
// negative remaining time is never recorded.
func (c *Controller) Charge(s Side, elapsedMs int64) (forfeit bool) {
	remaining := c.Remaining(s)

	if remaining-elapsedMs <= c.floorMs {
		c.set(s, c.floorMs)
		return true
	}

	c.set(s, remaining-elapsedMs+c.incMs)
	return false
}

func (c *Controller) set(s Side, ms int64) {
	if s == White {
		c.whiteMs = ms
	} else {
		c.blackMs = ms
	}
}
