package rhythm

import (
	"math"

	"github.com/robmorgan/tempo/utils"
)

// Feel is the humanization category of a pattern.
type Feel string

const (
	FeelNone    Feel = "none"
	FeelSwing   Feel = "swing"
	FeelShuffle Feel = "shuffle"
)

// KFactors scale how far even slots lengthen (Long) and odd slots shorten (Short) at full intensity.
type KFactors struct {
	Long  float64
	Short float64
}

var (
	swingFactors           = KFactors{Long: 0.6, Short: 0.6}
	shuffleFactors         = KFactors{Long: 0.4, Short: 0.4}
	compoundSwingFactors   = KFactors{Long: 0.3, Short: 0.3}
	compoundShuffleFactors = KFactors{Long: 0.2, Short: 0.2}
)

// DefaultFactors returns the k factors for a feel. Compound meters get a gentler pair so the
// grouping in threes stays stable.
func DefaultFactors(feel Feel, ts TimeSignature) KFactors {
	switch feel {
	case FeelSwing:
		if ts.Compound() {
			return compoundSwingFactors
		}
		return swingFactors
	case FeelShuffle:
		if ts.Compound() {
			return compoundShuffleFactors
		}
		return shuffleFactors
	}
	return KFactors{}
}

// Intensity is a humanization amount in [0, 1].
type Intensity float64

// NormalizeIntensity is the single conversion point from caller-supplied values to Intensity.
// Values above 1 are treated as percentages, the result is clamped to [0, 1].
func NormalizeIntensity(v float64) Intensity {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v > 1 {
		v /= 100
	}
	return Intensity(utils.Clamp(v, 0, 1))
}

// Percent returns the intensity as a whole percentage.
func (i Intensity) Percent() int {
	return int(math.Round(float64(i) * 100))
}

// Humanization describes the interval modulation applied after each slot.
type Humanization struct {
	Feel      Feel
	Intensity Intensity
	Factors   KFactors
}

// Active returns true if the humanization changes any interval.
func (h Humanization) Active() bool {
	return h.Feel != FeelNone && h.Feel != "" && h.Intensity > 0
}

// Multiplier scales the interval following slot index: even slots lengthen, odd slots shorten.
func (h Humanization) Multiplier(index int) float64 {
	if !h.Active() {
		return 1
	}
	intensity := float64(h.Intensity)
	if index%2 == 0 {
		return 1 + intensity*h.Factors.Long
	}
	return 1 - intensity*h.Factors.Short
}
