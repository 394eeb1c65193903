package tap

import "time"

// DoubleTap detects two taps landing within a window of each other.
type DoubleTap struct {
	window time.Duration
	last   time.Time
}

// NewDoubleTap returns a detector for the given window.
func NewDoubleTap(window time.Duration) *DoubleTap {
	return &DoubleTap{window: window}
}

// Tap records a tap and reports whether it completes a double tap. A completed double tap is
// consumed, so a third quick tap starts over.
func (d *DoubleTap) Tap(now time.Time) bool {
	if !d.last.IsZero() && now.Sub(d.last) <= d.window {
		d.last = time.Time{}
		return true
	}
	d.last = now
	return false
}
