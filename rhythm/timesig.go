package rhythm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinBeats and MaxBeats bound the number of slots in a measure.
	MinBeats = 2
	MaxBeats = 16
)

// ErrMalformedTimeSignature is returned when a time signature string can't be parsed.
var ErrMalformedTimeSignature = errors.New("malformed time signature")

// TimeSignature is a meter such as 4/4 or 6/8.
type TimeSignature struct {
	Beats int
	Value int
}

// DefaultTimeSignature is 4/4.
var DefaultTimeSignature = TimeSignature{Beats: 4, Value: 4}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Beats, ts.Value)
}

// Compound returns true for meters grouped in threes (6/8, 9/8, 12/8).
func (ts TimeSignature) Compound() bool {
	return ts.Value == 8 && ts.Beats > 3 && ts.Beats%3 == 0
}

// ParseTimeSignature parses "N/D" where N is 2..16 and D is one of 2, 4, 8 or 16.
func ParseTimeSignature(s string) (TimeSignature, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return TimeSignature{}, fmt.Errorf("%w: %q", ErrMalformedTimeSignature, s)
	}

	beats, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return TimeSignature{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimeSignature, s, err)
	}
	value, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return TimeSignature{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimeSignature, s, err)
	}

	if beats < MinBeats || beats > MaxBeats {
		return TimeSignature{}, fmt.Errorf("%w: %q: beats must be between %d and %d", ErrMalformedTimeSignature, s, MinBeats, MaxBeats)
	}
	if !validBeatValue(value) {
		return TimeSignature{}, fmt.Errorf("%w: %q: beat value must be 2, 4, 8 or 16", ErrMalformedTimeSignature, s)
	}

	return TimeSignature{Beats: beats, Value: value}, nil
}

// LengthFactor scales a quarter-note beat to the given beat value: 8 halves it, 16 quarters it and 2 doubles it.
func LengthFactor(value int) float64 {
	switch value {
	case 2:
		return 2
	case 8:
		return 0.5
	case 16:
		return 0.25
	}
	return 1
}

func validBeatValue(value int) bool {
	switch value {
	case 2, 4, 8, 16:
		return true
	}
	return false
}
