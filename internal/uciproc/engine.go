// Package uciproc owns a single UCI engine subprocess: line-oriented
// command writes, sentinel-driven reads, search telemetry harvesting, and
// a shutdown path that never leaves a live process behind.
package uciproc

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const (
	quitGrace = 5 * time.Second
	killGrace = 1 * time.Second

	// maxLineBytes sizes the stdout scanner. Engines emit long info lines
	// (deep PVs, MultiPV) that overflow bufio's default 64KB token limit.
	maxLineBytes = 1024 * 1024
)

// Engine wraps one engine subprocess. It is exclusively owned by the game
// currently using it and is not safe for concurrent use.
type Engine struct {
	path string
	name string // from the "id name" greeting line, if seen

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner

	exited  chan struct{}
	stopped atomic.Bool // quit already completed

	capture bool
	stats   Stats

	// latest telemetry within the current search, committed on bestmove
	pendingDepth int64
	pendingNodes int64
	pendingTime  int64
	pendingSeen  bool
}

// Stats accumulates search telemetry across an engine's moves.
type Stats struct {
	Moves       int64
	TotalDepth  int64
	TotalNodes  int64
	TotalTimeMs int64
}

// AvgDepth returns the average final search depth per move.
func (s Stats) AvgDepth() float64 {
	if s.Moves == 0 {
		return 0
	}
	return float64(s.TotalDepth) / float64(s.Moves)
}

// AvgNPS returns the average nodes per second across all moves.
func (s Stats) AvgNPS() float64 {
	if s.TotalTimeMs == 0 {
		return 0
	}
	return float64(s.TotalNodes) / float64(s.TotalTimeMs) * 1000
}

// AvgMoveTimeMs returns the average reported search time per move.
func (s Stats) AvgMoveTimeMs() float64 {
	if s.Moves == 0 {
		return 0
	}
	return float64(s.TotalTimeMs) / float64(s.Moves)
}

// Start launches the engine binary with independent stdin/stdout/stderr
// streams. If capture is true, info-line telemetry is harvested while
// reading responses.
func Start(path string, capture bool) (*Engine, error) {
	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	e := &Engine{
		path:    path,
		cmd:     cmd,
		stdin:   stdin,
		stdout:  scanner,
		exited:  make(chan struct{}),
		capture: capture,
	}

	// Drain stderr so the engine can't block on its diagnostic stream.
	go func() { _, _ = io.Copy(io.Discard, stderr) }()

	go func() {
		_ = cmd.Wait()
		close(e.exited)
	}()

	return e, nil
}

// Path returns the engine binary path.
func (e *Engine) Path() string { return e.path }

// Name returns the engine's self-reported name, or the binary path if the
// greeting never included one.
func (e *Engine) Name() string {
	if e.name != "" {
		return e.name
	}
	return e.path
}

// Stats returns the telemetry accumulated so far.
func (e *Engine) Stats() Stats { return e.stats }

// Exited reports whether the subprocess has terminated.
func (e *Engine) Exited() bool {
	select {
	case <-e.exited:
		return true
	default:
		return false
	}
}

// Send writes one newline-terminated command. Sending to an engine that
// has already exited is a no-op, not an error; a broken pipe mid-write is
// swallowed for the same reason.
func (e *Engine) Send(command string) {
	if e.Exited() {
		return
	}
	_, _ = io.WriteString(e.stdin, command+"\n")
}

// ReceiveUntil reads lines until one containing token appears, returning
// the lines read and whether the token was seen. A false return means the
// process exited (or its pipe closed) before producing the sentinel, which
// callers must treat as an engine failure. There is no line-count cap.
func (e *Engine) ReceiveUntil(token string) (lines []string, found bool) {
	for e.stdout.Scan() {
		line := strings.TrimSpace(e.stdout.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)

		if e.name == "" && strings.HasPrefix(line, "id name ") {
			e.name = strings.TrimPrefix(line, "id name ")
		}
		if e.capture && strings.HasPrefix(line, "info ") {
			e.harvestInfo(line)
		}

		if strings.Contains(line, token) {
			if e.capture && strings.HasPrefix(line, "bestmove") {
				e.commitPending()
			}
			return lines, true
		}
	}
	return lines, false
}

// harvestInfo records depth/nodes/time from a search telemetry line. Only
// the last values before the bestmove count for that move.
func (e *Engine) harvestInfo(line string) {
	fields := strings.Fields(line)
	for i := 0; i+1 < len(fields); i++ {
		v, err := strconv.ParseInt(fields[i+1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[i] {
		case "depth":
			e.pendingDepth = v
			e.pendingSeen = true
		case "nodes":
			e.pendingNodes = v
			e.pendingSeen = true
		case "time":
			e.pendingTime = v
			e.pendingSeen = true
		}
	}
}

func (e *Engine) commitPending() {
	if !e.pendingSeen {
		return
	}
	e.stats.Moves++
	e.stats.TotalDepth += e.pendingDepth
	e.stats.TotalNodes += e.pendingNodes
	e.stats.TotalTimeMs += e.pendingTime
	e.pendingDepth, e.pendingNodes, e.pendingTime = 0, 0, 0
	e.pendingSeen = false
}

// Quit shuts the engine down: the protocol quit command first, then a
// forced kill if the process lingers. After Quit returns the process is
// guaranteed dead on every path. Safe to call more than once.
func (e *Engine) Quit() {
	if e == nil || e.cmd == nil {
		return
	}
	if !e.stopped.CompareAndSwap(false, true) {
		return
	}

	e.Send("quit")
	_ = e.stdin.Close()

	select {
	case <-e.exited:
		return
	case <-time.After(quitGrace):
	}

	_ = e.cmd.Process.Kill()

	select {
	case <-e.exited:
	case <-time.After(killGrace):
		// Kill was delivered; the reaper goroutine will collect the zombie.
	}
}
