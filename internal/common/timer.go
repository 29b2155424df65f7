// Package common holds small helpers shared by the analysis stages.
package common

import (
	"fmt"
	"log/slog"
	"time"
)

// Timer measures one named stage. Stop is idempotent, so a deferred Stop
// after an explicit one keeps the first reading.
type Timer struct {
	name    string
	start   time.Time
	elapsed time.Duration
	stopped bool
	now     func() time.Time
}

// StartTimer starts a timer for the named stage.
func StartTimer(name string) *Timer {
	return startWithClock(name, time.Now)
}

func startWithClock(name string, now func() time.Time) *Timer {
	return &Timer{name: name, start: now(), now: now}
}

// Stop freezes the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	if !t.stopped {
		t.elapsed = t.now().Sub(t.start)
		t.stopped = true
	}
	return t.elapsed
}

// Elapsed returns the frozen duration, or the running one before Stop.
func (t *Timer) Elapsed() time.Duration {
	if t.stopped {
		return t.elapsed
	}
	return t.now().Sub(t.start)
}

// Name returns the stage name.
func (t *Timer) Name() string {
	return t.name
}

// String renders "name: 12ms", or just the duration when unnamed.
func (t *Timer) String() string {
	d := t.Elapsed().Round(time.Microsecond)
	if t.name != "" {
		return fmt.Sprintf("%s: %v", t.name, d)
	}
	return d.String()
}

// LogValue lets a timer be passed straight to slog.
func (t *Timer) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("stage", t.name),
		slog.Float64("ms", float64(t.Elapsed().Microseconds())/1000),
	)
}
