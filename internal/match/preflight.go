package match

import (
	"fmt"

	"github.com/freeeve/uci"
)

// preflightFn is swappable so orchestrator tests can run against fake
// engine scripts without a second launch path.
var preflightFn = Preflight

// Preflight validates an engine binary before any game is scheduled: it
// must launch and complete a UCI handshake. A failure here is the one
// fatal error class of a run.
func Preflight(path string) error {
	if path == "" {
		return fmt.Errorf("engine path is empty")
	}

	eng, err := uci.NewEngine(path)
	if err != nil {
		return fmt.Errorf("launch %s: %w", path, err)
	}
	defer eng.Close()

	opts := uci.Options{
		Hash:    16,
		Threads: 1,
		MultiPV: 1,
		Ponder:  false,
		OwnBook: false,
	}
	if err := eng.SetOptions(opts); err != nil {
		return fmt.Errorf("uci handshake %s: %w", path, err)
	}
	return nil
}
