package utils

import (
	"math"
	"time"
)

// BPMToMilliseconds returns the length of a single quarter-note beat in milliseconds.
func BPMToMilliseconds(bpm float64) float64 {
	if bpm <= 0 {
		return 0
	}
	return 60000.0 / bpm
}

// BPMToDuration returns the length of a single quarter-note beat.
func BPMToDuration(bpm float64) time.Duration {
	return MillisecondsToDuration(BPMToMilliseconds(bpm))
}

// DurationToBPM converts a beat length back into a tempo. Non-positive durations yield 0.
func DurationToBPM(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return 60000.0 / DurationToMilliseconds(d)
}

// MillisecondsToDuration converts fractional milliseconds, rounding to the nearest microsecond.
func MillisecondsToDuration(ms float64) time.Duration {
	return time.Duration(math.Round(ms*1000)) * time.Microsecond
}

// DurationToMilliseconds converts a duration to fractional milliseconds.
func DurationToMilliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
