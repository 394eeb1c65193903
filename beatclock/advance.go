package beatclock

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/tempo/haptic"
	"github.com/robmorgan/tempo/rhythm"
)

// Advance makes the fire decision for now. When the current slot is due it fires it, advances to
// the next enabled slot and schedules it. At most one beat fires per call, however late the call
// is. It reports whether a beat fired.
func (c *Clock) Advance(now time.Time) bool {
	if c.state != Running {
		return false
	}
	c.retime(now)
	if now.Before(c.next) {
		return false
	}

	bpm := c.tempo.EffectiveBPM(now)
	if bpm <= 0 {
		c.log.WithField("bpm", bpm).Error("tempo dropped to zero, stopping")
		c.Stop()
		return false
	}

	if !c.last.IsZero() {
		c.drift += now.Sub(c.last) - c.expected
	}

	slot := c.slot
	beat := c.beat(slot, now)
	c.last = now
	c.beats++

	interval := c.pattern.Interval(slot, bpm)
	c.expected = interval
	c.bpm = bpm
	c.schedule(now, interval)

	c.slot = c.pattern.NextEnabled(slot)
	if c.slot <= slot {
		c.measure++
	}

	c.fire(beat)
	return true
}

// retime rescales the rest of the pending interval when the tempo has moved since it was
// scheduled, so a beat at the old tempo is never waited out. The fraction of the beat still to go
// is kept, and expected moves with next so the change does not read as drift.
func (c *Clock) retime(now time.Time) {
	if c.last.IsZero() || c.bpm <= 0 || !now.Before(c.next) {
		return
	}
	bpm := c.tempo.EffectiveBPM(now)
	if bpm <= 0 || bpm == c.bpm {
		return
	}

	next := now.Add(time.Duration(float64(c.next.Sub(now)) * c.bpm / bpm))
	c.log.WithFields(logrus.Fields{
		"from": c.bpm,
		"to":   bpm,
		"due":  next.Sub(now),
	}).Trace("retimed pending beat")
	c.expected += next.Sub(c.next)
	c.next = next
	c.bpm = bpm
}

// schedule sets the next due time. Only part of the accumulated drift is fed back so corrections
// do not oscillate; past the resync bound the drift history is dropped instead.
func (c *Clock) schedule(now time.Time, interval time.Duration) {
	if c.drift > c.cfg.ResyncThreshold || c.drift < -c.cfg.ResyncThreshold {
		c.log.WithFields(logrus.Fields{
			"drift": c.drift,
			"beat":  c.beats,
		}).Warn("drift past resync bound, resetting")
		c.drift = 0
		c.resyncs++
		c.next = now.Add(c.floor(interval))
		return
	}

	damping := c.cfg.Damping
	if c.tempo.Transitioning(now) {
		damping = c.cfg.TransitionDamping
	}
	correction := time.Duration(float64(c.drift) * damping)
	c.next = now.Add(c.floor(interval - correction))
}

func (c *Clock) floor(d time.Duration) time.Duration {
	if d < c.cfg.MinInterval {
		return c.cfg.MinInterval
	}
	return d
}

func (c *Clock) beat(slot int, now time.Time) Beat {
	s := c.pattern.Slot(slot)
	return Beat{
		Position:   rhythm.PositionAt(c.pattern, c.beats, c.measure, slot),
		Kind:       s.Kind,
		Secondary:  s.Secondary,
		At:         now,
		Due:        c.next,
		Generation: c.generation,
	}
}

// fire runs the side effects of a beat. Failures and panics are logged and never stop the clock.
func (c *Clock) fire(b Beat) {
	log := c.log.WithFields(logrus.Fields{
		"marker": b.Marker(),
		"kind":   b.Kind.String(),
		"late":   b.At.Sub(b.Due),
	})
	log.Trace("beat")

	if b.Kind.Audible() {
		err := guard("audio", func() error { return c.audio.Play(b.Voice()) })
		c.audioResult(err)
	}

	if strength, ok := hapticFor(b); ok {
		if err := guard("haptics", func() error { return c.haptics.Pulse(strength) }); err != nil {
			log.WithError(err).Debug("haptic pulse failed")
		}
	}

	if c.onBeat != nil {
		err := guard("onBeat", func() error {
			c.onBeat(b)
			return nil
		})
		if err != nil {
			log.WithError(err).Warn("beat callback failed")
		}
	}
}

func (c *Clock) audioResult(err error) {
	if err == nil {
		if c.failures > 0 {
			c.log.WithField("failures", c.failures).Info("audio recovered")
		}
		c.failures = 0
		c.advised = false
		return
	}

	c.failures++
	c.log.WithError(err).WithField("failures", c.failures).Warn("audio failed")
	if c.advised || c.failures < c.cfg.AdvisoryThreshold || c.cfg.AdvisoryThreshold <= 0 {
		return
	}
	c.advised = true
	if c.onAdvisory != nil {
		a := Advisory{Failures: c.failures, Err: err}
		if err := guard("onAdvisory", func() error {
			c.onAdvisory(a)
			return nil
		}); err != nil {
			c.log.WithError(err).Warn("advisory callback failed")
		}
	}
}

func hapticFor(b Beat) (haptic.Strength, bool) {
	switch {
	case b.MeasureStart:
		return haptic.Heavy, true
	case b.Kind == rhythm.Accent:
		return haptic.Medium, true
	}
	return 0, false
}

// guard runs fn, turning a panic into an error.
func guard(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", name, r)
		}
	}()
	return fn()
}
