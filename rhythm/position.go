package rhythm

import "fmt"

// Position identifies a fired beat on the clock's timeline.
type Position struct {
	// Beat counts fires since the clock started, starting at 0.
	Beat int64

	// Measure counts completed passes through the pattern, starting at 0.
	Measure int64

	// Slot is the index of the slot within the pattern.
	Slot int

	// MeasureStart is true for the first enabled slot of the pattern.
	MeasureStart bool
}

// Marker returns the position as a 1-based "measure.slot" string.
func (p Position) Marker() string {
	return fmt.Sprintf("%d.%d", p.Measure+1, p.Slot+1)
}

// PositionAt describes slot of p fired as the given beat of the given measure.
func PositionAt(p *Pattern, beat, measure int64, slot int) Position {
	return Position{
		Beat:         beat,
		Measure:      measure,
		Slot:         slot,
		MeasureStart: slot == p.FirstEnabled(),
	}
}
