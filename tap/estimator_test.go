package tap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robmorgan/tempo/config"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

func newEstimator() *Estimator {
	cfg := config.NewMetronomeConfig()
	return NewEstimator(cfg.Tap, cfg.Tempo.MinBPM, cfg.Tempo.MaxBPM)
}

func TestRegularTapsConverge(t *testing.T) {
	t.Parallel()

	e := newEstimator()
	_, ok := e.Tap(at(0))
	assert.False(t, ok)

	var bpm int
	for i := 1; i < 12; i++ {
		bpm, ok = e.Tap(at(500 * i))
		require.True(t, ok)
		assert.InDelta(t, 120, bpm, 1)
	}
	assert.Equal(t, 8, e.Count())
}

func TestJitteredTapsAverage(t *testing.T) {
	t.Parallel()

	e := newEstimator()
	times := []int{0, 480, 1010, 1490, 2005, 2500}
	var bpm int
	for _, ms := range times {
		bpm, _ = e.Tap(at(ms))
	}
	assert.InDelta(t, 120, bpm, 1)
}

func TestOutlierResetsWindow(t *testing.T) {
	t.Parallel()

	e := newEstimator()
	for i := 0; i < 4; i++ {
		e.Tap(at(500 * i))
	}
	require.Equal(t, 4, e.Count())

	// 3000ms gap: not averaged in, the sequence restarts here
	_, ok := e.Tap(at(1500 + 3000))
	assert.False(t, ok)
	assert.Equal(t, 1, e.Count())

	bpm, ok := e.Tap(at(4500 + 1000))
	require.True(t, ok)
	assert.Equal(t, 60, bpm)
}

func TestTooFastTapRestarts(t *testing.T) {
	t.Parallel()

	e := newEstimator()
	e.Tap(at(0))
	e.Tap(at(500))
	_, ok := e.Tap(at(550))
	assert.False(t, ok)
	assert.Equal(t, 1, e.Count())
}

func TestEstimateClampedToRange(t *testing.T) {
	t.Parallel()

	cfg := config.NewMetronomeConfig()
	cfg.Tap.MinInterval = 10 * time.Millisecond
	cfg.Tap.MaxInterval = 5 * time.Second
	cfg.Tap.IdleTimeout = 10 * time.Second

	e := NewEstimator(cfg.Tap, 40, 240)
	e.Tap(at(0))
	bpm, ok := e.Tap(at(100))
	require.True(t, ok)
	assert.Equal(t, 240, bpm)

	e.Reset()
	e.Tap(at(0))
	bpm, ok = e.Tap(at(3000))
	require.True(t, ok)
	assert.Equal(t, 40, bpm)
}

func TestIdleTimeoutClearsWindow(t *testing.T) {
	t.Parallel()

	e := newEstimator()
	e.Tap(at(0))
	e.Tap(at(500))

	deadline, ok := e.Deadline()
	require.True(t, ok)
	assert.Equal(t, at(2500), deadline)

	assert.False(t, e.Expire(at(2500)))
	assert.True(t, e.Expire(at(2501)))
	assert.Equal(t, 0, e.Count())

	_, ok = e.Deadline()
	assert.False(t, ok)
}

func TestDoubleTap(t *testing.T) {
	t.Parallel()

	d := NewDoubleTap(300 * time.Millisecond)
	assert.False(t, d.Tap(at(0)))
	assert.True(t, d.Tap(at(250)))
	assert.False(t, d.Tap(at(400)))
	assert.False(t, d.Tap(at(800)))
	assert.True(t, d.Tap(at(1100)))
}
