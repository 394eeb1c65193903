package main

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/tempo/audio"
	"github.com/robmorgan/tempo/audio/midiout"
	"github.com/robmorgan/tempo/audio/otoout"
	"github.com/robmorgan/tempo/config"
)

// PatchedOutputs holds the dispatchers the engine plays through.
type PatchedOutputs struct {
	// Main plays the metronome.
	Main audio.Dispatcher

	// Preview plays auditions. It has its own voices so previewing never replaces the loaded sound.
	Preview audio.Dispatcher

	closers []io.Closer
}

type outputOptions struct {
	silent   bool
	midiPort string
}

// PatchOutputs opens the audio device and, when asked, a MIDI port. Anything that fails to open
// is logged and left out, down to a silent console.
func PatchOutputs(cfg config.MetronomeConfig, opts outputOptions, log *logrus.Logger) *PatchedOutputs {
	out := &PatchedOutputs{}
	var mains, previews audio.Fanout

	if !opts.silent {
		if pools, err := patchAudioDevice(cfg); err != nil {
			log.WithError(err).Warn("no audio device, running without sound")
		} else {
			mains = append(mains, pools[0])
			previews = append(previews, pools[1])
			out.closers = append(out.closers, pools[0], pools[1])
		}
	}

	if opts.midiPort != "" {
		d, err := midiout.Open(opts.midiPort)
		if err != nil {
			log.WithError(err).WithField("port", opts.midiPort).Warn("could not open MIDI port")
		} else {
			mains = append(mains, d)
			out.closers = append(out.closers, d)
		}
	}

	out.Main = patchDispatcher(mains)
	out.Preview = patchDispatcher(previews)
	return out
}

func patchAudioDevice(cfg config.MetronomeConfig) ([2]*audio.Pool, error) {
	bank := audio.NewBank(cfg.SoundProfiles, audio.DefaultSampleRate)
	backend, err := otoout.New(bank.SampleRate())
	if err != nil {
		return [2]*audio.Pool{}, err
	}
	return [2]*audio.Pool{
		audio.NewPool(backend, bank),
		audio.NewPool(backend, bank, audio.WithVoices(2)),
	}, nil
}

func patchDispatcher(ds audio.Fanout) audio.Dispatcher {
	switch len(ds) {
	case 0:
		return audio.Nop{}
	case 1:
		return ds[0]
	}
	return ds
}

// Close releases every output.
func (p *PatchedOutputs) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
