package common

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time { return c.t }

func TestTimer(t *testing.T) {
	clock := &stepClock{t: time.Unix(0, 0)}
	timer := startWithClock("encode", clock.now)

	clock.t = clock.t.Add(5 * time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, timer.Elapsed())

	assert.Equal(t, 5*time.Millisecond, timer.Stop())
	clock.t = clock.t.Add(time.Second)
	assert.Equal(t, 5*time.Millisecond, timer.Stop(), "second Stop keeps the first reading")
	assert.Equal(t, 5*time.Millisecond, timer.Elapsed())

	assert.Equal(t, "encode", timer.Name())
	assert.Equal(t, "encode: 5ms", timer.String())
}

func TestTimerUnnamed(t *testing.T) {
	clock := &stepClock{t: time.Unix(0, 0)}
	timer := startWithClock("", clock.now)
	clock.t = clock.t.Add(1500 * time.Microsecond)
	timer.Stop()
	assert.Equal(t, "1.5ms", timer.String())
}

func TestStartTimerRuns(t *testing.T) {
	timer := StartTimer("remote")
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), time.Millisecond)
}

func TestTimerLogValue(t *testing.T) {
	clock := &stepClock{t: time.Unix(0, 0)}
	timer := startWithClock("remote", clock.now)
	clock.t = clock.t.Add(250 * time.Millisecond)
	timer.Stop()

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("done", "timer", timer)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	group, ok := line["timer"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "remote", group["stage"])
	assert.InDelta(t, 250.0, group["ms"], 0.001)
}
