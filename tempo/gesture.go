package tempo

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/tempo/utils"
)

// drag tracks a continuous gesture.
type drag struct {
	active bool
	base   int
	lastX  float64
	lastAt time.Time
	offset float64
	boost  float64
}

// Update is the result of a gesture movement.
type Update struct {
	// BPM is the live candidate written to the pending value.
	BPM int

	// Snapped is true when the candidate was pulled onto a snap point by this movement.
	Snapped bool
}

// BeginGesture starts a drag at position x. The drag is relative to the tempo shown at that instant.
func (m *Model) BeginGesture(x float64, now time.Time) {
	m.drag = drag{
		active: true,
		base:   m.PendingBPM(),
		lastX:  x,
		lastAt: now,
		boost:  1,
	}
	m.snapAt.point = 0
}

// Dragging reports whether a gesture is in progress.
func (m *Model) Dragging() bool {
	return m.drag.active
}

// MoveGesture feeds a new pointer position. The candidate is
// clamp(base + round(offset), min, max) where offset accumulates each movement's delta scaled
// by the sensitivity and the current acceleration.
func (m *Model) MoveGesture(x float64, now time.Time) Update {
	if !m.drag.active {
		m.BeginGesture(x, now)
		return Update{BPM: m.PendingBPM()}
	}

	dx := x - m.drag.lastX
	dt := float64(now.Sub(m.drag.lastAt)) / float64(time.Millisecond)
	if dt > 0 {
		m.drag.boost = m.accelerate(m.drag.boost, math.Abs(dx)/dt)
	}
	m.drag.lastX = x
	m.drag.lastAt = now
	m.drag.offset += dx * m.gesture.Sensitivity * m.drag.boost

	candidate := m.clamp(m.drag.base + int(math.Round(m.drag.offset)))
	snapped, ok := m.snapTo(candidate, now)
	if ok {
		candidate = snapped
	}

	m.pending = candidate
	m.hasPending = candidate != m.bpm

	m.log.WithFields(logrus.Fields{
		"candidate": candidate,
		"boost":     m.drag.boost,
	}).Trace("gesture moved")

	return Update{BPM: candidate, Snapped: ok}
}

// EndGesture finishes the drag and commits the pending value.
func (m *Model) EndGesture(now time.Time) (int, bool) {
	m.drag = drag{}
	return m.CommitPending(now)
}

// accelerate raises the boost while the drag is faster than the threshold and lets it decay once
// the drag slows below the release ratio. Between the two the boost is held.
func (m *Model) accelerate(boost, speed float64) float64 {
	threshold := m.gesture.AccelerationThreshold
	switch {
	case threshold <= 0:
		return 1
	case speed > threshold:
		boost += m.gesture.Rise
	case speed < threshold*m.gesture.ReleaseRatio:
		boost -= m.gesture.Decay
	}
	max := m.gesture.MaxAcceleration
	if max < 1 {
		max = 1
	}
	return utils.Clamp(boost, 1, max)
}
