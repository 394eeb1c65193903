package midiout

import (
	"fmt"
	"sync"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/robmorgan/tempo/audio"
	"github.com/robmorgan/tempo/logger"
	"github.com/robmorgan/tempo/rhythm"
)

// PercussionChannel is General MIDI channel 10.
const PercussionChannel uint8 = 9

// notes is a General MIDI percussion key pair for a sound.
type notes struct {
	accent uint8
	normal uint8
}

var gmNotes = map[string]notes{
	"metronome_click": {accent: 34, normal: 33},
	"woodfish":        {accent: 76, normal: 77},
	"clock_tick":      {accent: 37, normal: 37},
	"clap":            {accent: 39, normal: 39},
	"bongo_drum":      {accent: 60, normal: 61},
	"hi_hat_closed":   {accent: 42, normal: 42},
	"hi_hat_open":     {accent: 46, normal: 46},
	"kick_drum":       {accent: 36, normal: 35},
	"snare_drum":      {accent: 38, normal: 40},
}

const (
	accentVelocity    uint8 = 127
	secondaryVelocity uint8 = 108
	normalVelocity    uint8 = 90
)

// Sender writes one MIDI message.
type Sender func(midi.Message) error

// Dispatcher plays beats as percussion notes on a MIDI output.
type Dispatcher struct {
	mu      sync.Mutex
	send    Sender
	port    drivers.Out
	channel uint8
	keys    map[rhythm.Kind]uint8

	log *logrus.Entry
}

// Open finds the output port whose name contains portName and opens it.
func Open(portName string) (*Dispatcher, error) {
	out, err := midi.FindOutPort(portName)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	d := New(send)
	d.port = out
	d.log = d.log.WithField("port", out.String())
	return d, nil
}

// New returns a dispatcher writing through send on the percussion channel.
func New(send Sender) *Dispatcher {
	d := &Dispatcher{
		send:    send,
		channel: PercussionChannel,
		keys:    make(map[rhythm.Kind]uint8),
		log:     logger.WithComponent("midi"),
	}
	n := gmNotes["metronome_click"]
	d.keys[rhythm.Accent] = n.accent
	d.keys[rhythm.SecondaryAccent] = n.accent
	d.keys[rhythm.Normal] = n.normal
	return d
}

// Play sends a note on and note off for kind. Muted kinds send nothing.
func (d *Dispatcher) Play(kind rhythm.Kind) error {
	if !kind.Audible() {
		return nil
	}

	d.mu.Lock()
	key, ok := d.keys[kind]
	d.mu.Unlock()
	if !ok {
		return audio.ErrNotLoaded
	}

	velocity := normalVelocity
	switch kind {
	case rhythm.Accent:
		velocity = accentVelocity
	case rhythm.SecondaryAccent:
		velocity = secondaryVelocity
	}
	if err := d.send(midi.NoteOn(d.channel, key, velocity)); err != nil {
		return fmt.Errorf("note on %d: %w", key, err)
	}
	if err := d.send(midi.NoteOff(d.channel, key)); err != nil {
		return fmt.Errorf("note off %d: %w", key, err)
	}
	return nil
}

// Preload selects the percussion key used for kind.
func (d *Dispatcher) Preload(kind rhythm.Kind, soundID string) error {
	n, ok := gmNotes[soundID]
	if !ok {
		return audio.ErrUnknownSound
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	switch kind {
	case rhythm.Accent, rhythm.SecondaryAccent:
		d.keys[kind] = n.accent
	case rhythm.Normal:
		d.keys[rhythm.Normal] = n.normal
	}
	d.log.WithFields(logrus.Fields{
		"sound": soundID,
		"kind":  kind.String(),
	}).Debug("mapped sound to percussion key")
	return nil
}

// Close closes the port opened by Open.
func (d *Dispatcher) Close() error {
	if d.port == nil {
		return nil
	}
	return errors.WithStackTrace(d.port.Close())
}
