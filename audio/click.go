package audio

import (
	"math"
	"math/rand"
	"time"

	"github.com/robmorgan/tempo/config"
	"github.com/robmorgan/tempo/rhythm"
)

// DefaultSampleRate is used when a bank is built with a non-positive rate.
const DefaultSampleRate = 44100

// attack ramps the voice in to avoid a click at the first sample.
const attack = time.Millisecond

// Click renders one voice of a sound profile as mono samples in [-1, 1]. Accent renders the hard
// voice and SecondaryAccent the same pitch at the midpoint gain. Every other kind is the soft one.
func Click(p config.SoundProfile, kind rhythm.Kind, sampleRate int) []float32 {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	gain, freq := p.NormalGain, p.Frequency
	if kind == rhythm.Accent || kind == rhythm.SecondaryAccent {
		gain = p.AccentGain
		if kind == rhythm.SecondaryAccent {
			gain = (p.AccentGain + p.NormalGain) / 2
		}
		if p.AccentPitch > 0 {
			freq *= p.AccentPitch
		}
	}

	n := int(p.Length.Seconds() * float64(sampleRate))
	out := make([]float32, n)
	decay := p.Decay.Seconds()
	rise := attack.Seconds()
	noise := math.Max(0, math.Min(1, p.Noise))

	// seeded so a sound renders identically every time
	rng := rand.New(rand.NewSource(int64(freq*1000) + int64(n)))
	for i := range out {
		t := float64(i) / float64(sampleRate)
		env := math.Exp(-t / decay)
		if decay <= 0 {
			env = 1
		}
		if t < rise {
			env *= t / rise
		}
		tone := math.Sin(2 * math.Pi * freq * t)
		hiss := rng.Float64()*2 - 1
		out[i] = float32(gain * env * ((1-noise)*tone + noise*hiss))
	}
	return out
}
