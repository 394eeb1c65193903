package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/tempo/audio"
	"github.com/robmorgan/tempo/beatclock"
	"github.com/robmorgan/tempo/rhythm"
	"github.com/robmorgan/tempo/utils"
)

// PreviewRhythm auditions a named rhythm on its own clock, at the preview tempo scaled for the
// rhythm's style, and stops it after the preview window. The main clock is not touched.
func (e *Engine) PreviewRhythm(id string) error {
	return e.update(func(now time.Time) error {
		def, err := e.cfg.Rhythms.Get(id)
		if err != nil {
			return err
		}
		meta := def.Describe()

		scale, ok := e.cfg.Preview.StyleScale[meta.Style]
		if !ok || scale <= 0 {
			scale = 1
		}
		// scale stretches the beat, so the tempo moves the other way
		bpm := float64(e.cfg.Preview.BPM) / scale

		p := def.Resolve(rhythm.NormalizeIntensity(e.settings.RhythmIntensity))
		e.log.WithFields(logrus.Fields{
			"rhythm": id,
			"bpm":    bpm,
		}).Info("previewing rhythm")
		return e.startPreviewLocked(now, beatclock.FixedTempo(bpm), p, e.settings.SoundID, e.cfg.Preview.AutoStop)
	}, wakeLoop)
}

// PreviewSound plays the sound test sequence with soundID on its own clock, then stops.
func (e *Engine) PreviewSound(soundID string) error {
	return e.update(func(now time.Time) error {
		if _, ok := e.cfg.SoundProfiles[soundID]; !ok {
			return audio.ErrUnknownSound
		}
		layout := e.cfg.Preview.SoundTestLayout
		labels := make([]string, len(layout))
		for i, k := range layout {
			labels[i] = k.String()
		}
		p, err := rhythm.FromLayout(4, labels)
		if err != nil {
			return err
		}

		spacing := e.cfg.Preview.SoundTestSpacing
		bpm := utils.DurationToBPM(spacing)
		// stop between the last beat and the one that would follow it
		window := spacing*time.Duration(p.Len()-1) + spacing/2
		return e.startPreviewLocked(now, beatclock.FixedTempo(bpm), p, soundID, window)
	}, wakeLoop)
}

// StopPreview ends any audition.
func (e *Engine) StopPreview() error {
	return e.update(func(time.Time) error {
		e.stopPreviewLocked()
		return nil
	}, wakeLoop)
}

func (e *Engine) startPreviewLocked(now time.Time, bpm beatclock.Tempo, p *rhythm.Pattern, soundID string, window time.Duration) error {
	e.stopPreviewLocked()

	if err := audio.PreloadAll(e.opts.Preview, soundID); err != nil {
		e.log.WithError(err).WithField("sound", soundID).Warn("preview preload failed")
	}
	e.preview = e.newPreviewClock(bpm, p)
	if err := e.preview.Start(now, true); err != nil {
		return err
	}
	e.tasks.Schedule(taskPreviewStop, now.Add(window), func(time.Time) {
		e.log.Debug("preview finished")
		e.preview.Stop()
	})
	e.dirty = true
	return nil
}

func (e *Engine) stopPreviewLocked() {
	e.tasks.Cancel(taskPreviewStop)
	if e.preview.Stop() {
		e.dirty = true
	}
}

func (e *Engine) newPreviewClock(bpm beatclock.Tempo, p *rhythm.Pattern) *beatclock.Clock {
	return beatclock.New(beatclock.Options{
		Config:  e.cfg.Clock,
		Tempo:   bpm,
		Pattern: p,
		Audio:   e.opts.Preview,
		OnBeat:  e.beatHandler(true),
		Name:    "preview",
	})
}
