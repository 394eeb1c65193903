package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		value, min, max, expected int
	}{
		{120, 40, 240, 120},
		{10, 40, 240, 40},
		{300, 40, 240, 240},
		{300, 240, 40, 240},
	}

	for _, testCase := range testCases {
		require.Equal(t, testCase.expected, Clamp(testCase.value, testCase.min, testCase.max))
	}

	require.Equal(t, 1.0, Clamp(1.7, 0.0, 1.0))
}

func TestLerp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 500.0, Lerp(500, 250, 0))
	assert.Equal(t, 375.0, Lerp(500, 250, 0.5))
	assert.Equal(t, 250.0, Lerp(500, 250, 3))
}

func TestBPMToDuration(t *testing.T) {
	t.Parallel()

	require.Equal(t, 500*time.Millisecond, BPMToDuration(120))
	require.Equal(t, 468750*time.Microsecond, BPMToDuration(128))
	require.Equal(t, time.Duration(0), BPMToDuration(0))
	assert.InDelta(t, 120.0, DurationToBPM(500*time.Millisecond), 1e-9)
	assert.Equal(t, 0.0, DurationToBPM(0))
}
