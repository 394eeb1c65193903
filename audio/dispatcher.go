package audio

import (
	"errors"

	"github.com/robmorgan/tempo/rhythm"
)

var (
	// ErrUnknownSound is returned when a sound id has no profile.
	ErrUnknownSound = errors.New("unknown sound")

	// ErrQueueFull is returned when a play request can not be queued without blocking.
	ErrQueueFull = errors.New("audio queue full")

	// ErrNotLoaded is returned when a kind is played before its voice was preloaded.
	ErrNotLoaded = errors.New("sound not loaded")

	// ErrClosed is returned after the dispatcher was closed.
	ErrClosed = errors.New("audio dispatcher closed")
)

// Dispatcher plays beat sounds. Play must not block the caller and must tolerate overlapping calls.
type Dispatcher interface {
	Play(kind rhythm.Kind) error
	Preload(kind rhythm.Kind, soundID string) error
}

// Nop is a silent dispatcher.
type Nop struct{}

func (Nop) Play(rhythm.Kind) error            { return nil }
func (Nop) Preload(rhythm.Kind, string) error { return nil }

// Fanout sends every call to each dispatcher in turn and joins their errors.
type Fanout []Dispatcher

// Play plays kind on every dispatcher.
func (f Fanout) Play(kind rhythm.Kind) error {
	var errs []error
	for _, d := range f {
		if err := d.Play(kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Preload warms every dispatcher.
func (f Fanout) Preload(kind rhythm.Kind, soundID string) error {
	var errs []error
	for _, d := range f {
		if err := d.Preload(kind, soundID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PreloadAll preloads every audible voice of soundID.
func PreloadAll(d Dispatcher, soundID string) error {
	return errors.Join(
		d.Preload(rhythm.Accent, soundID),
		d.Preload(rhythm.Normal, soundID),
		d.Preload(rhythm.SecondaryAccent, soundID),
	)
}
