package rhythm

import (
	"time"

	"github.com/robmorgan/tempo/utils"
)

// BeatInterval returns the nominal length of one slot at the given tempo and beat value.
func BeatInterval(bpm float64, value int) time.Duration {
	return utils.MillisecondsToDuration(beatsToMilliseconds(1, bpm) * LengthFactor(value))
}

// beatsToMilliseconds calculates milliseconds for given beats and tempo
func beatsToMilliseconds(beats int, tempo float64) float64 {
	if tempo <= 0 {
		return 0
	}
	return (60000.0 / tempo) * float64(beats)
}

// Phase returns how far instant is between start and start+interval, clamped to [0, 1].
func Phase(instant, start time.Time, interval time.Duration) float64 {
	if interval <= 0 {
		return 0
	}
	ratio := float64(instant.Sub(start)) / float64(interval)
	return utils.Clamp(ratio, 0, 1)
}
