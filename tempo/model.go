package tempo

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/tempo/config"
	"github.com/robmorgan/tempo/logger"
	"github.com/robmorgan/tempo/utils"
)

// ErrInvalidTempo is returned for tempo requests that can not be corrected by clamping.
var ErrInvalidTempo = errors.New("tempo must be greater than zero")

// Model is the single source of truth for the current tempo. It is fed by the stepper, the drag
// gesture and the tap estimator. Model is not safe for concurrent use; the owner serializes access.
type Model struct {
	tempo   config.TempoConfig
	gesture config.GestureConfig
	snap    config.SnapConfig

	bpm int

	pending    int
	hasPending bool

	playing    bool
	transition transition

	drag   drag
	snapAt snapState

	log *logrus.Entry
}

// New returns a model at the configured default tempo.
func New(cfg config.MetronomeConfig) *Model {
	m := &Model{
		tempo:   cfg.Tempo,
		gesture: cfg.Gesture,
		snap:    cfg.Snap,
		log:     logger.WithComponent("tempo"),
	}
	m.Reset()
	return m
}

// Reset returns the model to the default tempo and drops any gesture or transition in flight.
func (m *Model) Reset() {
	m.bpm = m.clamp(m.tempo.DefaultBPM)
	m.pending = m.bpm
	m.hasPending = false
	m.transition = transition{}
	m.drag = drag{}
	m.snapAt = snapState{}
}

// BPM returns the committed tempo.
func (m *Model) BPM() int {
	return m.bpm
}

// PendingBPM returns the value a gesture is dragging towards, or the committed tempo when no
// gesture value is waiting to be committed.
func (m *Model) PendingBPM() int {
	if m.hasPending {
		return m.pending
	}
	return m.bpm
}

// HasPending is true while a gesture value is waiting for its debounce or release.
func (m *Model) HasPending() bool {
	return m.hasPending
}

// Bounds returns the valid tempo range.
func (m *Model) Bounds() (int, int) {
	return m.tempo.MinBPM, m.tempo.MaxBPM
}

// SetBPM commits bpm, clamped to the valid range. Non-positive values are rejected and the
// previous tempo is kept. It returns the tempo in effect afterwards.
func (m *Model) SetBPM(bpm int, now time.Time) (int, error) {
	if bpm <= 0 {
		m.log.WithField("bpm", bpm).Warn("rejected tempo")
		return m.bpm, ErrInvalidTempo
	}
	m.hasPending = false
	m.commit(bpm, now)
	return m.bpm, nil
}

// Step moves the tempo by delta stepper increments.
func (m *Model) Step(delta int, now time.Time) int {
	step := m.tempo.Step
	if step <= 0 {
		step = 1
	}
	m.hasPending = false
	m.commit(m.bpm+delta*step, now)
	return m.bpm
}

// SetFromTap commits a tap estimate immediately, bypassing the gesture debounce.
func (m *Model) SetFromTap(bpm int, now time.Time) int {
	m.hasPending = false
	m.drag = drag{}
	m.commit(bpm, now)
	return m.bpm
}

// CommitPending commits the pending gesture value. It reports whether the tempo changed.
func (m *Model) CommitPending(now time.Time) (int, bool) {
	if !m.hasPending {
		return m.bpm, false
	}
	m.hasPending = false
	before := m.bpm
	m.commit(m.pending, now)
	return m.bpm, m.bpm != before
}

// CancelPending discards the pending gesture value.
func (m *Model) CancelPending() {
	m.hasPending = false
	m.pending = m.bpm
}

// SetPlaying tells the model whether the clock is running. Transitions only happen while playing.
func (m *Model) SetPlaying(playing bool) {
	m.playing = playing
	if !playing {
		m.transition = transition{}
	}
}

// Playing reports what was last passed to SetPlaying.
func (m *Model) Playing() bool {
	return m.playing
}

func (m *Model) commit(bpm int, now time.Time) {
	clamped := m.clamp(bpm)
	if clamped != bpm {
		m.log.WithFields(logrus.Fields{
			"requested": bpm,
			"applied":   clamped,
		}).Warn("tempo clamped to range")
	}
	if clamped == m.bpm {
		return
	}
	if m.playing {
		m.transition = newTransition(m.EffectiveBPM(now), float64(clamped), now, m.tempo.TransitionWindow)
	}
	m.bpm = clamped
	m.pending = clamped
}

func (m *Model) clamp(bpm int) int {
	return utils.Clamp(bpm, m.tempo.MinBPM, m.tempo.MaxBPM)
}
