package rhythm

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/robmorgan/tempo/logger"
)

// Pattern is a resolved, ordered sequence of slots plus the humanization applied to it.
// A Pattern is never mutated once built; edits return a new Pattern.
type Pattern struct {
	slots     []Slot
	signature TimeSignature
	human     Humanization
}

// presets mirror the accents the console offers for the common meters.
var presets = map[TimeSignature][]bool{
	{Beats: 2, Value: 4}: {true, false},
	{Beats: 3, Value: 4}: {true, false, false},
	{Beats: 4, Value: 4}: {true, false, false, false},
	{Beats: 6, Value: 8}: {true, false, false, true, false, false},
}

// DefaultPattern is the two slot Accent, Normal pattern substituted for anything unusable.
func DefaultPattern() *Pattern {
	return &Pattern{
		slots: []Slot{
			{Kind: Accent, Enabled: true},
			{Kind: Normal, Enabled: true},
		},
		signature: TimeSignature{Beats: 2, Value: 4},
	}
}

func newPattern(ts TimeSignature, slots []Slot, human Humanization) *Pattern {
	if slices.IndexFunc(slots, func(s Slot) bool { return s.Enabled }) < 0 {
		logger.WithComponent("rhythm").WithFields(logrus.Fields{
			"signature": ts.String(),
			"slots":     len(slots),
		}).Warn("pattern has no enabled slots, substituting default")
		p := DefaultPattern()
		p.human = human
		return p
	}
	ts.Beats = len(slots)
	return &Pattern{slots: slots, signature: ts, human: human}
}

// Build creates a pattern of beatsPerMeasure slots. When emphasis is nil slot 0 is an accent and,
// for measures divisible by 4, slot 2 gets a secondary accent. Otherwise emphasis[i] decides
// whether slot i is an accent.
func Build(beatsPerMeasure, beatValue int, emphasis []bool) *Pattern {
	log := logger.WithComponent("rhythm")
	if beatsPerMeasure <= 0 {
		log.WithField("beats", beatsPerMeasure).Warn("empty pattern requested, substituting default")
		return DefaultPattern()
	}
	if beatsPerMeasure > MaxBeats {
		log.WithField("beats", beatsPerMeasure).Warnf("pattern longer than %d slots, truncating", MaxBeats)
		beatsPerMeasure = MaxBeats
	}
	if !validBeatValue(beatValue) {
		log.WithField("value", beatValue).Warn("unsupported beat value, using quarter notes")
		beatValue = 4
	}

	slots := make([]Slot, beatsPerMeasure)
	for i := range slots {
		slots[i] = Slot{Kind: Normal, Enabled: true}
	}

	if emphasis == nil {
		slots[0].Kind = Accent
		if beatsPerMeasure%4 == 0 {
			slots[2] = Slot{Kind: Accent, Enabled: true, Secondary: true}
		}
	} else {
		for i := range slots {
			if i < len(emphasis) && emphasis[i] {
				slots[i].Kind = Accent
			}
		}
	}

	return newPattern(TimeSignature{Beats: beatsPerMeasure, Value: beatValue}, slots, Humanization{Feel: FeelNone})
}

// FromTimeSignature builds the pattern for a meter, using the preset accents where one exists.
func FromTimeSignature(ts TimeSignature) *Pattern {
	if emphasis, ok := presets[ts]; ok {
		return Build(ts.Beats, ts.Value, emphasis)
	}
	return Build(ts.Beats, ts.Value, nil)
}

// ParsePattern parses a time signature string. A malformed signature returns the 4/4 pattern
// together with the parse error so the caller can log it.
func ParsePattern(signature string) (*Pattern, error) {
	ts, err := ParseTimeSignature(signature)
	if err != nil {
		return FromTimeSignature(DefaultTimeSignature), err
	}
	return FromTimeSignature(ts), nil
}

// FromLayout builds a pattern from persisted slot labels. Unknown labels become Normal slots and
// are reported in the returned error.
func FromLayout(beatValue int, labels []string) (*Pattern, error) {
	if len(labels) == 0 {
		return DefaultPattern(), errors.New("empty custom layout")
	}
	if len(labels) > MaxBeats {
		labels = labels[:MaxBeats]
	}

	var errs []error
	slots := make([]Slot, len(labels))
	for i, label := range labels {
		slot, err := ParseSlot(label)
		if err != nil {
			errs = append(errs, fmt.Errorf("slot %d: %w", i, err))
			slot = Slot{Kind: Normal, Enabled: true}
		}
		slots[i] = slot
	}

	if !validBeatValue(beatValue) {
		beatValue = 4
	}
	return newPattern(TimeSignature{Beats: len(slots), Value: beatValue}, slots, Humanization{Feel: FeelNone}), errors.Join(errs...)
}

// Len returns the number of slots, enabled or not.
func (p *Pattern) Len() int {
	return len(p.slots)
}

// Slot returns slot i, wrapping around the pattern length.
func (p *Pattern) Slot(i int) Slot {
	return p.slots[p.wrap(i)]
}

// Slots returns a copy of the slots.
func (p *Pattern) Slots() []Slot {
	return slices.Clone(p.slots)
}

// Signature returns the meter the pattern was built for.
func (p *Pattern) Signature() TimeSignature {
	return p.signature
}

// Humanization returns the modulation applied to the pattern.
func (p *Pattern) Humanization() Humanization {
	return p.human
}

// WithHumanization returns a copy of the pattern with h applied.
func (p *Pattern) WithHumanization(h Humanization) *Pattern {
	return &Pattern{slots: slices.Clone(p.slots), signature: p.signature, human: h}
}

// FirstEnabled returns the index of the first enabled slot.
func (p *Pattern) FirstEnabled() int {
	return slices.IndexFunc(p.slots, func(s Slot) bool { return s.Enabled })
}

// NextEnabled returns the first enabled slot after i, wrapping. With a single enabled slot
// it returns that slot again.
func (p *Pattern) NextEnabled(i int) int {
	n := len(p.slots)
	for step := 1; step <= n; step++ {
		j := p.wrap(i + step)
		if p.slots[j].Enabled {
			return j
		}
	}
	return p.FirstEnabled()
}

// Multiplier returns the humanization scale for the interval after slot i.
func (p *Pattern) Multiplier(i int) float64 {
	return p.human.Multiplier(p.wrap(i))
}

// BaseInterval returns the unmodulated slot length at bpm.
func (p *Pattern) BaseInterval(bpm float64) time.Duration {
	return BeatInterval(bpm, p.signature.Value)
}

// Interval returns the time between firing slot i and the next decision.
func (p *Pattern) Interval(i int, bpm float64) time.Duration {
	base := p.BaseInterval(bpm)
	return time.Duration(float64(base) * p.Multiplier(i))
}

// MeasureDuration returns the nominal length of one pass over every slot.
func (p *Pattern) MeasureDuration(bpm float64) time.Duration {
	return p.BaseInterval(bpm) * time.Duration(len(p.slots))
}

// AccentPositions returns the indexes of enabled accent slots.
func (p *Pattern) AccentPositions() []int {
	out := make([]int, 0, len(p.slots))
	for i, s := range p.slots {
		if s.Enabled && s.Kind == Accent {
			out = append(out, i)
		}
	}
	return out
}

// Kinds returns the kind of every slot, enabled or not.
func (p *Pattern) Kinds() []Kind {
	out := make([]Kind, len(p.slots))
	for i, s := range p.slots {
		out[i] = s.Kind
	}
	return out
}

// Labels returns the persisted representation of the slots.
func (p *Pattern) Labels() []string {
	out := make([]string, len(p.slots))
	for i, s := range p.slots {
		out[i] = s.Label()
	}
	return out
}

// Cycle returns a copy with slot i advanced through normal -> accent -> muted -> off. The last
// enabled slot is never switched off.
func (p *Pattern) Cycle(i int) *Pattern {
	slots := slices.Clone(p.slots)
	i = p.wrap(i)
	next := slots[i].next()
	if !next.Enabled && p.enabledCount() == 1 && slots[i].Enabled {
		next = Slot{Kind: Normal, Enabled: true}
	}
	slots[i] = next
	return &Pattern{slots: slots, signature: p.signature, human: p.human}
}

func (p *Pattern) enabledCount() int {
	count := 0
	for _, s := range p.slots {
		if s.Enabled {
			count++
		}
	}
	return count
}

func (p *Pattern) wrap(i int) int {
	n := len(p.slots)
	return ((i % n) + n) % n
}
