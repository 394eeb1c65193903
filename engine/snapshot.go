package engine

import (
	"github.com/robmorgan/tempo/beatclock"
	"github.com/robmorgan/tempo/rhythm"
	"github.com/robmorgan/tempo/settings"
)

// Snapshot is a consistent copy of the engine state for display.
type Snapshot struct {
	Running       bool
	BPM           int
	PendingBPM    int
	EffectiveBPM  float64
	Transitioning bool
	Dragging      bool

	Signature rhythm.TimeSignature
	Slots     []rhythm.Slot
	Feel      rhythm.Feel

	SoundID   string
	RhythmID  string
	Intensity rhythm.Intensity

	Taps       int
	Previewing bool

	Clock   beatclock.Snapshot
	Pending []string
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Settings returns a copy of the settings in effect.
func (e *Engine) Settings() settings.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.settings
	s.CustomPattern = append([]string(nil), s.CustomPattern...)
	return s
}

// Pattern returns the main pattern.
func (e *Engine) Pattern() *rhythm.Pattern {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pattern
}

func (e *Engine) snapshotLocked() Snapshot {
	now := e.clock.Now()

	var pending []string
	for _, name := range []string{taskCommitBPM, taskAutoStop, taskTapIdle, taskPreviewStop} {
		if _, ok := e.tasks.Pending(name); ok {
			pending = append(pending, name)
		}
	}

	return Snapshot{
		Running:       e.main.Running(),
		BPM:           e.tempo.BPM(),
		PendingBPM:    e.tempo.PendingBPM(),
		EffectiveBPM:  e.tempo.EffectiveBPM(now),
		Transitioning: e.tempo.Transitioning(now),
		Dragging:      e.tempo.Dragging(),
		Signature:     e.pattern.Signature(),
		Slots:         e.pattern.Slots(),
		Feel:          e.pattern.Humanization().Feel,
		SoundID:       e.settings.SoundID,
		RhythmID:      e.settings.RhythmDefinitionID,
		Intensity:     rhythm.Intensity(e.settings.RhythmIntensity),
		Taps:          e.taps.Count(),
		Previewing:    e.preview.Running(),
		Clock:         e.main.Snapshot(),
		Pending:       pending,
	}
}
