package tempo

import (
	"time"

	"golang.org/x/exp/slices"
)

type snapState struct {
	// point is the snap point the candidate currently sits on, 0 when none.
	point int
	at    time.Time
}

// snapTo returns the snap point candidate is attracted to. A point only snaps once per approach and
// no more often than the cooldown allows.
func (m *Model) snapTo(candidate int, now time.Time) (int, bool) {
	idx := slices.IndexFunc(m.snap.Points, func(p int) bool {
		d := candidate - p
		return d >= -m.snap.Threshold && d <= m.snap.Threshold
	})
	if idx < 0 {
		m.snapAt.point = 0
		return candidate, false
	}

	point := m.snap.Points[idx]
	if point == m.snapAt.point {
		return point, false
	}
	if !m.snapAt.at.IsZero() && now.Sub(m.snapAt.at) < m.snap.Cooldown {
		return candidate, false
	}
	m.snapAt = snapState{point: point, at: now}
	return point, true
}

// IsSnapPoint reports whether bpm is one of the configured snap points.
func (m *Model) IsSnapPoint(bpm int) bool {
	return slices.Contains(m.snap.Points, bpm)
}
