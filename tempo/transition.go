package tempo

import (
	"time"

	"github.com/fogleman/ease"

	"github.com/robmorgan/tempo/utils"
)

// transition eases the effective tempo from one value to another after a change while playing.
type transition struct {
	from, to float64
	start    time.Time
	window   time.Duration
}

func newTransition(from, to float64, start time.Time, window time.Duration) transition {
	return transition{from: from, to: to, start: start, window: window}
}

func (t transition) active(now time.Time) bool {
	if t.window <= 0 || t.start.IsZero() {
		return false
	}
	elapsed := now.Sub(t.start)
	return elapsed >= 0 && elapsed < t.window
}

func (t transition) value(now time.Time) float64 {
	progress := float64(now.Sub(t.start)) / float64(t.window)
	return utils.Lerp(t.from, t.to, ease.OutQuad(utils.Clamp(progress, 0, 1)))
}

// Transitioning reports whether a tempo change is still easing in.
func (m *Model) Transitioning(now time.Time) bool {
	return m.playing && m.transition.active(now)
}

// EffectiveBPM is the tempo the clock should schedule with at now. It equals BPM except during a
// transition, where it eases from the previous value.
func (m *Model) EffectiveBPM(now time.Time) float64 {
	if m.Transitioning(now) {
		return m.transition.value(now)
	}
	return float64(m.bpm)
}
