package tempo

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

func newModel() *Model {
	return New(config.NewMetronomeConfig())
}

func TestSetBPMClampsToRange(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		requested int
		expected  int
	}{
		{120, 120},
		{39, 40},
		{1, 40},
		{241, 240},
		{1000, 240},
	}

	for _, tc := range testCases {
		m := newModel()
		got, err := m.SetBPM(tc.requested, epoch)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, got, "requested %d", tc.requested)
		assert.Equal(t, tc.expected, m.BPM())
	}
}

func TestSetBPMRejectsNonPositive(t *testing.T) {
	t.Parallel()

	m := newModel()
	_, err := m.SetBPM(90, epoch)
	require.NoError(t, err)

	for _, bpm := range []int{0, -10} {
		got, err := m.SetBPM(bpm, epoch)
		assert.ErrorIs(t, err, ErrInvalidTempo)
		assert.Equal(t, 90, got)
		assert.Equal(t, 90, m.BPM())
	}
}

func TestStepperClamps(t *testing.T) {
	t.Parallel()

	m := newModel()
	assert.Equal(t, 121, m.Step(1, epoch))
	assert.Equal(t, 116, m.Step(-5, epoch))
	assert.Equal(t, 240, m.Step(500, epoch))
	assert.Equal(t, 40, m.Step(-500, epoch))
}

func TestTapBypassesDebounce(t *testing.T) {
	t.Parallel()

	m := newModel()
	m.BeginGesture(0, at(0))
	m.MoveGesture(10, at(100))
	require.True(t, m.HasPending())

	assert.Equal(t, 90, m.SetFromTap(90, at(110)))
	assert.False(t, m.HasPending())
	assert.False(t, m.Dragging())
	assert.Equal(t, 240, m.SetFromTap(400, at(120)))
	assert.Equal(t, 40, m.SetFromTap(12, at(130)))
}

func TestTransitionOnlyWhilePlaying(t *testing.T) {
	t.Parallel()

	m := newModel()
	_, err := m.SetBPM(140, at(0))
	require.NoError(t, err)
	assert.False(t, m.Transitioning(at(0)))
	assert.Equal(t, 140.0, m.EffectiveBPM(at(0)))

	m.SetPlaying(true)
	_, err = m.SetBPM(100, at(1000))
	require.NoError(t, err)

	assert.True(t, m.Transitioning(at(1000)))
	assert.Equal(t, 140.0, m.EffectiveBPM(at(1000)))

	mid := m.EffectiveBPM(at(1100))
	assert.Less(t, mid, 140.0)
	assert.Greater(t, mid, 100.0)
	// OutQuad is past the linear midpoint halfway through the window
	assert.Less(t, mid, 120.0)

	assert.False(t, m.Transitioning(at(1200)))
	assert.Equal(t, 100.0, m.EffectiveBPM(at(1200)))

	m.SetPlaying(false)
	assert.False(t, m.Transitioning(at(1000)))
}

func TestReset(t *testing.T) {
	t.Parallel()

	m := newModel()
	m.SetPlaying(true)
	m.Step(30, epoch)
	m.BeginGesture(0, epoch)
	m.MoveGesture(40, at(50))

	m.Reset()
	assert.Equal(t, 120, m.BPM())
	assert.Equal(t, 120, m.PendingBPM())
	assert.False(t, m.HasPending())
	assert.False(t, m.Dragging())
	assert.False(t, m.Transitioning(epoch))
}
