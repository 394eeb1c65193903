package engine

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/tempo/audio"
	"github.com/robmorgan/tempo/rhythm"
)

// SetTimeSignature switches to the preset pattern of signature, discarding any custom layout or
// selected rhythm. A malformed signature falls back to 4/4 and the parse error is returned.
func (e *Engine) SetTimeSignature(signature string) error {
	return e.update(func(now time.Time) error {
		ts, err := rhythm.ParseTimeSignature(signature)
		if err != nil {
			e.log.WithError(err).WithField("signature", signature).Warn("malformed time signature, using 4/4")
			ts = rhythm.DefaultTimeSignature
		}
		e.settings.TimeSignature = ts.String()
		e.settings.CustomPattern = nil
		e.settings.RhythmDefinitionID = ""
		e.applyPatternLocked(now)
		return err
	}, wakeLoop)
}

// SetCustomPattern plays a custom layout of slot labels in the current beat value. Unknown labels
// become normal slots and are reported in the returned error.
func (e *Engine) SetCustomPattern(labels []string) error {
	return e.update(func(now time.Time) error {
		p, err := rhythm.FromLayout(e.pattern.Signature().Value, labels)
		e.setCustomLocked(p, now)
		return err
	}, wakeLoop)
}

// CycleSlot advances slot i through normal, accent, muted and off, turning the current pattern
// into a custom layout.
func (e *Engine) CycleSlot(i int) error {
	return e.update(func(now time.Time) error {
		if e.pattern.Len() == 0 {
			return nil
		}
		e.setCustomLocked(e.pattern.Cycle(i), now)
		return nil
	}, wakeLoop)
}

// SelectRhythm plays a named rhythm from the library. An empty id returns to the time signature.
func (e *Engine) SelectRhythm(id string) error {
	return e.update(func(now time.Time) error {
		if id != "" {
			def, err := e.cfg.Rhythms.Get(id)
			if err != nil {
				return err
			}
			e.settings.TimeSignature = def.Describe().Signature.String()
			e.settings.CustomPattern = nil
		}
		e.settings.RhythmDefinitionID = id
		e.applyPatternLocked(now)
		return nil
	}, wakeLoop)
}

// SetRhythmIntensity sets the humanization amount. Values above 1 are read as percentages.
func (e *Engine) SetRhythmIntensity(v float64) error {
	return e.update(func(now time.Time) error {
		intensity := float64(rhythm.NormalizeIntensity(v))
		if intensity == e.settings.RhythmIntensity {
			return nil
		}
		e.settings.RhythmIntensity = intensity
		if e.settings.RhythmDefinitionID != "" {
			e.applyPatternLocked(now)
			return nil
		}
		e.changedSettings()
		return nil
	}, wakeLoop)
}

// SetSound stops playback and any preview, then loads both voices of soundID.
func (e *Engine) SetSound(soundID string) error {
	return e.update(func(time.Time) error {
		if _, ok := e.cfg.SoundProfiles[soundID]; !ok {
			return fmt.Errorf("%w: %s", audio.ErrUnknownSound, soundID)
		}
		e.stopLocked()
		e.stopPreviewLocked()
		if err := audio.PreloadAll(e.opts.Audio, soundID); err != nil {
			e.log.WithError(err).WithField("sound", soundID).Warn("preload failed")
		}
		e.settings.SoundID = soundID
		e.changedSettings()
		return nil
	}, wakeLoop)
}

func (e *Engine) setCustomLocked(p *rhythm.Pattern, now time.Time) {
	e.settings.CustomPattern = p.Labels()
	e.settings.TimeSignature = rhythm.TimeSignature{Beats: p.Len(), Value: p.Signature().Value}.String()
	e.settings.RhythmDefinitionID = ""
	e.applyPatternLocked(now)
}

// applyPatternLocked rebuilds the pattern from the settings and hands it to the main clock before
// its next decision. Pending debounces and auto stops die with the old pattern.
func (e *Engine) applyPatternLocked(now time.Time) {
	e.cancelTasksLocked()
	e.pattern = e.resolvePattern()
	if err := e.main.SetPattern(e.pattern, now); err != nil {
		e.log.WithError(err).Error("could not restart with new pattern")
		e.tempo.SetPlaying(false)
	}
	e.log.WithFields(logrus.Fields{
		"signature": e.pattern.Signature().String(),
		"slots":     e.pattern.Labels(),
		"rhythm":    e.settings.RhythmDefinitionID,
	}).Debug("pattern applied")
	e.changedSettings()
}

// resolvePattern builds the main pattern from the settings: a named rhythm first, then a custom
// layout, then the time signature preset.
func (e *Engine) resolvePattern() *rhythm.Pattern {
	s := e.settings
	if s.RhythmDefinitionID != "" {
		def, err := e.cfg.Rhythms.Get(s.RhythmDefinitionID)
		if err == nil {
			return def.Resolve(rhythm.NormalizeIntensity(s.RhythmIntensity))
		}
		e.log.WithError(err).Warn("selected rhythm missing, using time signature")
	}

	ts, err := rhythm.ParseTimeSignature(s.TimeSignature)
	if err != nil {
		ts = rhythm.DefaultTimeSignature
	}
	if len(s.CustomPattern) > 0 {
		p, err := rhythm.FromLayout(ts.Value, s.CustomPattern)
		if err != nil {
			e.log.WithError(err).Warn("custom pattern had invalid slots")
		}
		return p
	}
	return rhythm.FromTimeSignature(ts)
}
