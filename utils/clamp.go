package utils

import "golang.org/x/exp/constraints"

// Clamp limits t to the closed range [min, max]. The bounds may be given in either order.
func Clamp[T constraints.Integer | constraints.Float](t, min, max T) T {
	if min > max {
		min, max = max, min
	}
	if t < min {
		return min
	}
	if t > max {
		return max
	}
	return t
}

// Lerp linearly interpolates between a and b. progress is clamped to [0, 1].
func Lerp(a, b, progress float64) float64 {
	progress = Clamp(progress, 0, 1)
	return a + (b-a)*progress
}
