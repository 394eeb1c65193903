package haptic

// Strength of a haptic pulse.
type Strength int

const (
	Light Strength = iota
	Medium
	Heavy
)

func (s Strength) String() string {
	switch s {
	case Light:
		return "light"
	case Medium:
		return "medium"
	case Heavy:
		return "heavy"
	}
	return "unknown"
}

// Feedback delivers haptic pulses. Delivery is best effort; callers ignore returned errors beyond logging.
type Feedback interface {
	Pulse(Strength) error
}

// Func adapts a function to Feedback.
type Func func(Strength) error

// Pulse calls f(s).
func (f Func) Pulse(s Strength) error {
	return f(s)
}

// Nop discards every pulse.
type Nop struct{}

// Pulse does nothing.
func (Nop) Pulse(Strength) error { return nil }
