package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/tempo/haptic"
	"github.com/robmorgan/tempo/tempo"
)

// SetBPM commits a tempo from the stepper or a typed value. Out of range values are clamped,
// non-positive values are rejected and the current tempo is kept.
func (e *Engine) SetBPM(bpm int) (int, error) {
	var applied int
	err := e.update(func(now time.Time) error {
		e.tasks.Cancel(taskCommitBPM)
		v, err := e.tempo.SetBPM(bpm, now)
		applied = v
		e.tempoChangedLocked()
		return err
	}, wakeLoop)
	return applied, err
}

// StepBPM moves the tempo by delta stepper increments.
func (e *Engine) StepBPM(delta int) (int, error) {
	var applied int
	err := e.update(func(now time.Time) error {
		e.tasks.Cancel(taskCommitBPM)
		applied = e.tempo.Step(delta, now)
		e.tempoChangedLocked()
		return nil
	}, wakeLoop)
	return applied, err
}

// BeginGesture starts a drag at x.
func (e *Engine) BeginGesture(x float64) error {
	return e.update(func(now time.Time) error {
		e.tempo.BeginGesture(x, now)
		return nil
	}, 0)
}

// MoveGesture feeds the drag position. The returned value is the live candidate; it is committed
// once the drag has been still for the debounce window or on EndGesture.
func (e *Engine) MoveGesture(x float64) (tempo.Update, error) {
	var u tempo.Update
	err := e.update(func(now time.Time) error {
		u = e.tempo.MoveGesture(x, now)
		if u.Snapped {
			if err := e.opts.Haptics.Pulse(haptic.Light); err != nil {
				e.log.WithError(err).Debug("snap pulse failed")
			}
		}
		if e.tempo.HasPending() {
			e.tasks.Schedule(taskCommitBPM, now.Add(e.cfg.Gesture.Debounce), e.commitPendingLocked)
		} else {
			e.tasks.Cancel(taskCommitBPM)
		}
		e.dirty = true
		return nil
	}, wakeLoop)
	return u, err
}

// EndGesture finishes the drag and commits its value.
func (e *Engine) EndGesture() (int, error) {
	var bpm int
	err := e.update(func(now time.Time) error {
		e.tasks.Cancel(taskCommitBPM)
		bpm, _ = e.tempo.EndGesture(now)
		e.tempoChangedLocked()
		return nil
	}, wakeLoop)
	return bpm, err
}

// Tap feeds the tap tempo estimator. Once it has an estimate the tempo is committed immediately.
func (e *Engine) Tap() (int, bool, error) {
	var (
		bpm int
		ok  bool
	)
	err := e.update(func(now time.Time) error {
		estimate, has := e.taps.Tap(now)
		if deadline, pending := e.taps.Deadline(); pending {
			e.tasks.Schedule(taskTapIdle, deadline.Add(time.Millisecond), func(now time.Time) {
				if e.taps.Expire(now) {
					e.log.Debug("tap window expired")
				}
			})
		}
		if !has {
			e.dirty = true
			return nil
		}
		e.tasks.Cancel(taskCommitBPM)
		bpm, ok = e.tempo.SetFromTap(estimate, now), true
		e.log.WithFields(logrus.Fields{
			"estimate": estimate,
			"taps":     e.taps.Count(),
		}).Debug("tap tempo")
		e.tempoChangedLocked()
		return nil
	}, wakeLoop)
	return bpm, ok, err
}

// TapCircle handles a tap on the beat display. Two taps within the double tap window toggle playback.
// It reports whether playback was toggled.
func (e *Engine) TapCircle() (bool, error) {
	var toggled bool
	err := e.update(func(now time.Time) error {
		if !e.doubleTap.Tap(now) {
			return nil
		}
		toggled = true
		if e.main.Running() {
			e.stopLocked()
			return nil
		}
		return e.startLocked(now)
	}, wakeLoop)
	return toggled, err
}

func (e *Engine) commitPendingLocked(now time.Time) {
	if _, changed := e.tempo.CommitPending(now); changed {
		e.log.WithField("bpm", e.tempo.BPM()).Debug("gesture tempo committed")
	}
	e.tempoChangedLocked()
}

func (e *Engine) tempoChangedLocked() {
	if e.settings.BPM == e.tempo.BPM() {
		e.dirty = true
		return
	}
	e.settings.BPM = e.tempo.BPM()
	e.changedSettings()
}
