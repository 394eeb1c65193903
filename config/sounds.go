package config

import "time"

const (
	SoundMetronomeClick = "metronome_click"
	SoundWoodfish       = "woodfish"
	SoundClockTick      = "clock_tick"
	SoundClap           = "clap"
	SoundBongoDrum      = "bongo_drum"
	SoundHiHatClosed    = "hi_hat_closed"
	SoundHiHatOpen      = "hi_hat_open"
	SoundKickDrum       = "kick_drum"
	SoundSnareDrum      = "snare_drum"
)

// SoundProfile holds the synthesis parameters for the hard (accent) and soft (normal) voices of a sound.
type SoundProfile struct {
	Name string

	// Frequency of the tone in Hz. Noise sets how much white noise is mixed in (0..1).
	Frequency float64
	Noise     float64

	// Length of the voice and the decay time constant of its envelope.
	Length time.Duration
	Decay  time.Duration

	// AccentGain and NormalGain set the peak level of each voice.
	AccentGain float64
	NormalGain float64

	// AccentPitch multiplies Frequency for the accent voice.
	AccentPitch float64
}

func initializeSoundProfiles() map[string]SoundProfile {
	out := map[string]SoundProfile{
		SoundMetronomeClick: {
			Name:        "Metronome",
			Frequency:   1000,
			Length:      40 * time.Millisecond,
			Decay:       8 * time.Millisecond,
			AccentGain:  0.9,
			NormalGain:  0.6,
			AccentPitch: 1.5,
		},
		SoundWoodfish: {
			Name:        "Woodfish",
			Frequency:   620,
			Noise:       0.05,
			Length:      90 * time.Millisecond,
			Decay:       25 * time.Millisecond,
			AccentGain:  0.9,
			NormalGain:  0.55,
			AccentPitch: 1.2,
		},
		SoundClockTick: {
			Name:        "Clock",
			Frequency:   2400,
			Noise:       0.2,
			Length:      25 * time.Millisecond,
			Decay:       4 * time.Millisecond,
			AccentGain:  0.8,
			NormalGain:  0.5,
			AccentPitch: 1.25,
		},
		SoundClap: {
			Name:        "Clap",
			Frequency:   1200,
			Noise:       0.85,
			Length:      120 * time.Millisecond,
			Decay:       30 * time.Millisecond,
			AccentGain:  0.9,
			NormalGain:  0.6,
			AccentPitch: 1,
		},
		SoundBongoDrum: {
			Name:        "Bongo",
			Frequency:   330,
			Noise:       0.1,
			Length:      150 * time.Millisecond,
			Decay:       40 * time.Millisecond,
			AccentGain:  0.95,
			NormalGain:  0.6,
			AccentPitch: 1.33,
		},
		SoundHiHatClosed: {
			Name:        "Closed Hi-Hat",
			Frequency:   8000,
			Noise:       0.95,
			Length:      50 * time.Millisecond,
			Decay:       10 * time.Millisecond,
			AccentGain:  0.7,
			NormalGain:  0.45,
			AccentPitch: 1,
		},
		SoundHiHatOpen: {
			Name:        "Open Hi-Hat",
			Frequency:   8000,
			Noise:       0.95,
			Length:      250 * time.Millisecond,
			Decay:       80 * time.Millisecond,
			AccentGain:  0.7,
			NormalGain:  0.45,
			AccentPitch: 1,
		},
		SoundKickDrum: {
			Name:        "Kick",
			Frequency:   60,
			Noise:       0.02,
			Length:      200 * time.Millisecond,
			Decay:       60 * time.Millisecond,
			AccentGain:  1,
			NormalGain:  0.7,
			AccentPitch: 1,
		},
		SoundSnareDrum: {
			Name:        "Snare",
			Frequency:   190,
			Noise:       0.7,
			Length:      160 * time.Millisecond,
			Decay:       35 * time.Millisecond,
			AccentGain:  0.9,
			NormalGain:  0.55,
			AccentPitch: 1,
		},
	}

	return out
}
