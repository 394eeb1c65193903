package rhythm

import (
	"fmt"
	"strings"
)

// Kind is the audible weight a slot carries.
type Kind int

const (
	Normal Kind = iota
	Accent
	Muted

	// SecondaryAccent is the voice of an Accent slot marked Secondary. Slots never carry it; it
	// only appears on the dispatch path.
	SecondaryAccent
)

func (k Kind) String() string {
	switch k {
	case Accent:
		return "accent"
	case Normal:
		return "normal"
	case Muted:
		return "muted"
	case SecondaryAccent:
		return "secondary"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Audible returns true if a slot of this kind produces sound.
func (k Kind) Audible() bool {
	return k == Accent || k == Normal || k == SecondaryAccent
}

// Slot is one beat position within a measure.
type Slot struct {
	Kind Kind

	// Enabled is false for slots that are skipped entirely. A Muted slot is still counted, just silent.
	Enabled bool

	// Secondary marks a softer accent (the third beat of a 4-based measure by convention).
	Secondary bool
}

// Voice returns the sound kind a slot is dispatched as.
func (s Slot) Voice() Kind {
	if s.Kind == Accent && s.Secondary {
		return SecondaryAccent
	}
	return s.Kind
}

// offLabel is the persisted label of a disabled slot.
const offLabel = "off"

// Label returns the persisted representation of the slot.
func (s Slot) Label() string {
	if !s.Enabled {
		return offLabel
	}
	return s.Kind.String()
}

// ParseSlot is the inverse of Slot.Label.
func ParseSlot(label string) (Slot, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "accent", "a":
		return Slot{Kind: Accent, Enabled: true}, nil
	case "normal", "n":
		return Slot{Kind: Normal, Enabled: true}, nil
	case "muted", "m":
		return Slot{Kind: Muted, Enabled: true}, nil
	case offLabel, "skip", "-":
		return Slot{Kind: Normal, Enabled: false}, nil
	}
	return Slot{}, fmt.Errorf("unknown slot label %q", label)
}

// next returns the slot that follows s in the edit cycle normal -> accent -> muted -> off -> normal.
func (s Slot) next() Slot {
	if !s.Enabled {
		return Slot{Kind: Normal, Enabled: true}
	}
	switch s.Kind {
	case Normal:
		return Slot{Kind: Accent, Enabled: true}
	case Accent:
		return Slot{Kind: Muted, Enabled: true}
	default:
		return Slot{Kind: Normal, Enabled: false}
	}
}
