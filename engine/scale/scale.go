package scale

import (
	"math"

	"github.com/robmorgan/tempo/utils"
)

// Linear returns a function that maps [rMin,rMax] onto [dMin,dMax]. Results outside the target
// range are clamped. A zero width source range maps everything to dMin.
func Linear(rMin, rMax, dMin, dMax float64) func(v float64) float64 {
	lo, hi := math.Min(dMin, dMax), math.Max(dMin, dMax)
	return func(v float64) float64 {
		if rMax == rMin {
			return dMin
		}
		t := (v - rMin) / (rMax - rMin)
		return utils.Clamp(dMin+t*(dMax-dMin), lo, hi)
	}
}

// ToUnitClamp returns a function that scales a number from the interval [rMin,rMax]
// to the unit interval ([0,1]), if the result falls outside [0,1], it is clamped
// to 0 or 1.
func ToUnitClamp(rMin, rMax float64) func(m float64) float64 {
	return Linear(rMin, rMax, 0, 1)
}
