package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockType(t *testing.T) {
	ct, err := ParseClockType("")
	require.NoError(t, err)
	assert.Equal(t, ClockRealtime, ct)

	ct, err = ParseClockType(" Pseudo ")
	require.NoError(t, err)
	assert.Equal(t, ClockPseudo, ct)

	_, err = ParseClockType("sundial")
	assert.Error(t, err)
}

func TestTimerService_PseudoClock(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	wm := newTestMemory(t, nil, Config{Clock: ClockPseudo, ClockStart: start})
	clock := wm.SessionClock().(*PseudoClock)

	var runs []time.Time
	id, err := wm.TimerService().Schedule("@every 1m", func(now time.Time) {
		runs = append(runs, now)
	})
	require.NoError(t, err)

	clock.AdvanceTime(30 * time.Second)
	assert.Empty(t, runs)

	now := clock.AdvanceTime(150 * time.Second)
	assert.Equal(t, start.Add(3*time.Minute), now)
	require.Len(t, runs, 3)
	assert.Equal(t, start.Add(time.Minute), runs[0])
	assert.Equal(t, start.Add(2*time.Minute), runs[1])

	jobs := wm.TimerService().Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, 3, jobs[0].Runs)
	assert.Equal(t, start.Add(4*time.Minute), jobs[0].NextRun)

	assert.True(t, wm.TimerService().Cancel(id))
	assert.False(t, wm.TimerService().Cancel(id))
	clock.AdvanceTime(time.Hour)
	assert.Len(t, runs, 3)
}

func TestTimerService_CronWithSeconds(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	wm := newTestMemory(t, nil, Config{Clock: ClockPseudo, ClockStart: start})

	count := 0
	_, err := wm.TimerService().Schedule("*/10 * * * * *", func(time.Time) { count++ })
	require.NoError(t, err)
	wm.SessionClock().(*PseudoClock).AdvanceTime(time.Minute)
	assert.Equal(t, 6, count)
}

func TestTimerService_InvalidExpression(t *testing.T) {
	wm := newTestMemory(t, nil, Config{})
	_, err := wm.TimerService().Schedule("not a cron", func(time.Time) {})
	assert.ErrorContains(t, err, "invalid cron expression")
	_, err = wm.TimerService().Schedule("@every 1s", nil)
	assert.Error(t, err)
}

func TestTimerService_Realtime(t *testing.T) {
	wm := newTestMemory(t, nil, Config{})
	var runs atomic.Int32
	// sub-second intervals round up to one second
	_, err := wm.TimerService().Schedule("@every 10ms", func(time.Time) { runs.Add(1) })
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
}

func TestTimerService_StopOnDispose(t *testing.T) {
	wm := newTestMemory(t, nil, Config{Clock: ClockPseudo})
	_, err := wm.TimerService().Schedule("@every 1s", func(time.Time) {})
	require.NoError(t, err)

	wm.Dispose()
	assert.Empty(t, wm.TimerService().Jobs())
	_, err = wm.TimerService().Schedule("@every 1s", func(time.Time) {})
	assert.Error(t, err)
}
