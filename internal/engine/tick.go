// Package engine runs the frame-based visualization loop and owns all mutable
// simulation state.
package engine

import (
	"fmt"
	"log/slog"
	"time"
)

// FramesPerSecond is the nominal frame rate of the loop.
const FramesPerSecond = 60

// Engine drives the visualization forward one frame at a time.
type Engine struct {
	Tick     uint64        // frame counter, monotonic, never resets
	Speed    float64       // multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // base frame interval
	Running  bool

	// Callbacks populated during setup.
	OnFrame  func(dt float64)  // every frame, dt in seconds of sim time
	OnSecond func(tick uint64) // roughly once per wall second
}

// NewEngine creates an engine at the nominal frame rate.
func NewEngine() *Engine {
	return &Engine{
		Speed:    1.0,
		Interval: time.Second / FramesPerSecond,
	}
}

// Run starts the frame loop. Blocks until Stop is called.
func (e *Engine) Run() {
	e.Running = true
	slog.Info("engine started", "interval", e.Interval, "speed", e.Speed)

	for e.Running {
		if e.Speed <= 0 {
			// Paused. Sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.step()

		elapsed := time.Since(start)
		if elapsed < e.Interval {
			time.Sleep(e.Interval - elapsed)
		}
	}

	slog.Info("engine stopped", "tick", e.Tick)
}

// Stop halts the frame loop.
func (e *Engine) Stop() {
	e.Running = false
}

// step advances one frame. The speed multiplier stretches sim time, not the
// wall-clock frame rate, so high speeds stay smooth.
func (e *Engine) step() {
	e.Tick++

	if e.OnFrame != nil {
		e.OnFrame(e.Interval.Seconds() * e.Speed)
	}
	if e.Tick%FramesPerSecond == 0 && e.OnSecond != nil {
		e.OnSecond(e.Tick)
	}
}

// Uptime returns a human-readable run duration from a frame number.
func Uptime(tick uint64) string {
	total := tick / FramesPerSecond
	return fmt.Sprintf("%d:%02d:%02d", total/3600, total/60%60, total%60)
}
