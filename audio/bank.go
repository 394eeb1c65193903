package audio

import (
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/robmorgan/tempo/config"
	"github.com/robmorgan/tempo/rhythm"
)

type bankKey struct {
	sound string
	kind  rhythm.Kind
}

// Bank renders and caches the voices of the configured sound profiles.
type Bank struct {
	mu         sync.Mutex
	profiles   map[string]config.SoundProfile
	sampleRate int
	cache      map[bankKey][]float32
}

// NewBank returns a bank over profiles rendering at sampleRate.
func NewBank(profiles map[string]config.SoundProfile, sampleRate int) *Bank {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Bank{
		profiles:   profiles,
		sampleRate: sampleRate,
		cache:      make(map[bankKey][]float32),
	}
}

// SampleRate returns the rate voices are rendered at.
func (b *Bank) SampleRate() int {
	return b.sampleRate
}

// Has reports whether soundID has a profile.
func (b *Bank) Has(soundID string) bool {
	_, ok := b.profiles[soundID]
	return ok
}

// IDs returns the known sound ids, sorted.
func (b *Bank) IDs() []string {
	ids := maps.Keys(b.profiles)
	slices.Sort(ids)
	return ids
}

// Render returns the samples of one voice of soundID. The returned slice is shared and must not be modified.
func (b *Bank) Render(soundID string, kind rhythm.Kind) ([]float32, error) {
	p, ok := b.profiles[soundID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSound, soundID)
	}
	if kind != rhythm.Accent && kind != rhythm.SecondaryAccent {
		kind = rhythm.Normal
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := bankKey{sound: soundID, kind: kind}
	if samples, ok := b.cache[key]; ok {
		return samples, nil
	}
	samples := Click(p, kind, b.sampleRate)
	b.cache[key] = samples
	return samples, nil
}
