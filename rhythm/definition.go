package rhythm

import (
	"errors"
	"fmt"
)

// ErrUnknownRhythm is returned when a rhythm id is not in the library.
var ErrUnknownRhythm = errors.New("unknown rhythm")

// Style groups rhythm definitions the way the picker does.
type Style string

const (
	StyleBasic   Style = "basic"
	StyleLatin   Style = "latin"
	StyleFunk    Style = "funk"
	StyleSwing   Style = "swing"
	StyleShuffle Style = "shuffle"
)

// Meta is the information shared by every rhythm definition.
type Meta struct {
	ID          string
	Name        string
	Description string
	Style       Style
	Signature   TimeSignature

	// Layout lists one kind per slot. An empty layout uses the signature's default accents.
	Layout []Kind
}

// Definition is a named rhythm. It is either a Standard or a Humanized value.
type Definition interface {
	Describe() Meta

	// Resolve builds the pattern. intensity only affects humanized definitions.
	Resolve(intensity Intensity) *Pattern

	isDefinition()
}

// Standard is a rhythm played with uniform spacing.
type Standard struct {
	Meta
}

// Humanized is a rhythm whose intervals are modulated by a swing or shuffle feel.
type Humanized struct {
	Meta
	Feel Feel

	// Factors override the feel's defaults when non-zero.
	Factors KFactors
}

func (Standard) isDefinition()  {}
func (Humanized) isDefinition() {}

// Describe returns the definition's metadata.
func (s Standard) Describe() Meta { return s.Meta }

// Describe returns the definition's metadata.
func (h Humanized) Describe() Meta { return h.Meta }

// Resolve builds the uniform pattern.
func (s Standard) Resolve(Intensity) *Pattern {
	return s.Meta.pattern()
}

// Resolve builds the pattern and attaches the feel at the given intensity.
func (h Humanized) Resolve(intensity Intensity) *Pattern {
	factors := h.Factors
	if factors == (KFactors{}) {
		factors = DefaultFactors(h.Feel, h.Signature)
	}
	return h.Meta.pattern().WithHumanization(Humanization{
		Feel:      h.Feel,
		Intensity: NormalizeIntensity(float64(intensity)),
		Factors:   factors,
	})
}

func (m Meta) pattern() *Pattern {
	if len(m.Layout) == 0 {
		return FromTimeSignature(m.Signature)
	}
	slots := make([]Slot, len(m.Layout))
	for i, k := range m.Layout {
		slots[i] = Slot{Kind: k, Enabled: true}
	}
	value := m.Signature.Value
	if !validBeatValue(value) {
		value = 4
	}
	return newPattern(TimeSignature{Beats: len(slots), Value: value}, slots, Humanization{Feel: FeelNone})
}

// IsHumanized returns true for definitions carrying a swing or shuffle feel.
func IsHumanized(d Definition) bool {
	h, ok := d.(Humanized)
	return ok && h.Feel != FeelNone
}

// Library is an ordered collection of rhythm definitions.
type Library struct {
	defs []Definition
	byID map[string]Definition
}

// NewLibrary indexes defs by id. Later definitions replace earlier ones with the same id.
func NewLibrary(defs ...Definition) *Library {
	l := &Library{byID: make(map[string]Definition)}
	for _, d := range defs {
		l.Add(d)
	}
	return l
}

// Add inserts or replaces a definition.
func (l *Library) Add(d Definition) {
	id := d.Describe().ID
	if _, ok := l.byID[id]; ok {
		for i := range l.defs {
			if l.defs[i].Describe().ID == id {
				l.defs[i] = d
			}
		}
	} else {
		l.defs = append(l.defs, d)
	}
	l.byID[id] = d
}

// Get looks up a definition by id.
func (l *Library) Get(id string) (Definition, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRhythm, id)
	}
	if d, ok := l.byID[id]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownRhythm, id)
}

// All returns the definitions in insertion order.
func (l *Library) All() []Definition {
	return append([]Definition(nil), l.defs...)
}

// ByStyle returns the definitions of a single style, in insertion order.
func (l *Library) ByStyle(style Style) []Definition {
	var out []Definition
	for _, d := range l.defs {
		if d.Describe().Style == style {
			out = append(out, d)
		}
	}
	return out
}
