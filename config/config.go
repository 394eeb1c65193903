package config

import (
	"time"

	"github.com/robmorgan/tempo/rhythm"
)

// GetMetronomeConfig returns the default configuration
func GetMetronomeConfig() MetronomeConfig {
	return NewMetronomeConfig()
}

// MetronomeConfig represents options that configure the global behavior of the program
type MetronomeConfig struct {
	Tempo   TempoConfig
	Gesture GestureConfig
	Snap    SnapConfig
	Tap     TapConfig
	Clock   ClockConfig
	Preview PreviewConfig

	// SoundProfiles maps a sound id to the parameters used to synthesize its voices.
	SoundProfiles map[string]SoundProfile

	// DefaultSound is the sound used when none has been persisted.
	DefaultSound string

	// Rhythms is the library of named rhythm definitions.
	Rhythms *rhythm.Library
}

// TempoConfig bounds the tempo.
type TempoConfig struct {
	MinBPM     int
	MaxBPM     int
	DefaultBPM int
	Step       int

	// TransitionWindow is how long a tempo change is eased in while playing.
	TransitionWindow time.Duration
}

// GestureConfig tunes the continuous drag gesture.
type GestureConfig struct {
	// Sensitivity is BPM per pixel of drag.
	Sensitivity float64

	// AccelerationThreshold is the drag speed (px/ms) above which acceleration builds up.
	AccelerationThreshold float64

	// ReleaseRatio of the threshold below which acceleration decays.
	ReleaseRatio float64

	MaxAcceleration float64
	Rise            float64
	Decay           float64

	// Debounce is the quiet period after which a pending tempo is committed.
	Debounce time.Duration
}

// SnapConfig lists the tempos a gesture is attracted to.
type SnapConfig struct {
	Points    []int
	Threshold int
	Cooldown  time.Duration
}

// TapConfig tunes the tap tempo estimator.
type TapConfig struct {
	Window      int
	MinInterval time.Duration
	MaxInterval time.Duration
	IdleTimeout time.Duration
	DoubleTap   time.Duration
}

// ClockConfig tunes the beat scheduler.
type ClockConfig struct {
	// Damping is the share of measured drift fed back into the next interval.
	Damping float64

	// TransitionDamping replaces Damping while a tempo change is easing in.
	TransitionDamping float64

	// ResyncThreshold is the accumulated error that triggers a hard reset instead of a catch up.
	ResyncThreshold time.Duration

	// MinInterval is the floor applied to every computed interval.
	MinInterval time.Duration

	MinPoll  time.Duration
	MaxPoll  time.Duration
	IdlePoll time.Duration

	// AdvisoryThreshold is the number of consecutive audio failures before an advisory is raised.
	AdvisoryThreshold int
}

// PreviewConfig configures rhythm and sound auditioning.
type PreviewConfig struct {
	BPM      int
	AutoStop time.Duration

	// StyleScale multiplies the beat length per rhythm style.
	StyleScale map[rhythm.Style]float64

	// SoundTestSpacing separates the beats of a sound test sequence.
	SoundTestSpacing time.Duration
	SoundTestLayout  []rhythm.Kind
}

// Create a new MetronomeConfig object with reasonable defaults for real usage
func NewMetronomeConfig() MetronomeConfig {
	return MetronomeConfig{
		Tempo: TempoConfig{
			MinBPM:           40,
			MaxBPM:           240,
			DefaultBPM:       120,
			Step:             1,
			TransitionWindow: 200 * time.Millisecond,
		},
		Gesture: GestureConfig{
			Sensitivity:           0.5,
			AccelerationThreshold: 1.5,
			ReleaseRatio:          0.7,
			MaxAcceleration:       3.0,
			Rise:                  0.25,
			Decay:                 0.15,
			Debounce:              150 * time.Millisecond,
		},
		Snap: SnapConfig{
			Points:    []int{60, 80, 100, 120, 128, 140, 160},
			Threshold: 1,
			Cooldown:  150 * time.Millisecond,
		},
		Tap: TapConfig{
			Window:      8,
			MinInterval: 200 * time.Millisecond,
			MaxInterval: 2000 * time.Millisecond,
			IdleTimeout: 2000 * time.Millisecond,
			DoubleTap:   300 * time.Millisecond,
		},
		Clock: ClockConfig{
			Damping:           0.3,
			TransitionDamping: 0.1,
			ResyncThreshold:   100 * time.Millisecond,
			MinInterval:       10 * time.Millisecond,
			MinPoll:           time.Millisecond,
			MaxPoll:           16 * time.Millisecond,
			IdlePoll:          16 * time.Millisecond,
			AdvisoryThreshold: 5,
		},
		Preview: PreviewConfig{
			BPM:      120,
			AutoStop: 10 * time.Second,
			StyleScale: map[rhythm.Style]float64{
				rhythm.StyleLatin:   0.75,
				rhythm.StyleFunk:    0.75,
				rhythm.StyleSwing:   1.2,
				rhythm.StyleShuffle: 1.2,
			},
			SoundTestSpacing: 500 * time.Millisecond,
			SoundTestLayout:  []rhythm.Kind{rhythm.Accent, rhythm.Normal, rhythm.Accent, rhythm.Normal},
		},
		SoundProfiles: initializeSoundProfiles(),
		DefaultSound:  SoundMetronomeClick,
		Rhythms:       rhythm.NewLibrary(PatchRhythms()...),
	}
}
