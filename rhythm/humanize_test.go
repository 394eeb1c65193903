package rhythm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swingDefinition(ts TimeSignature) Humanized {
	return Humanized{
		Meta: Meta{ID: "swing-test", Style: StyleSwing, Signature: ts},
		Feel: FeelSwing,
	}
}

func TestSwingIsNoopAtZeroIntensity(t *testing.T) {
	t.Parallel()

	p := swingDefinition(DefaultTimeSignature).Resolve(0)
	base := p.BaseInterval(120)
	for i := 0; i < p.Len(); i++ {
		assert.Equal(t, base, p.Interval(i, 120))
	}
}

func TestSwingRatioAtFullIntensity(t *testing.T) {
	t.Parallel()

	p := swingDefinition(DefaultTimeSignature).Resolve(1)
	even := float64(p.Interval(0, 120))
	odd := float64(p.Interval(1, 120))
	base := float64(p.BaseInterval(120))

	assert.InDelta(t, 1+swingFactors.Long, even/base, 1e-9)
	assert.InDelta(t, 1-swingFactors.Short, odd/base, 1e-9)
	assert.InDelta(t, (1+swingFactors.Long)/(1-swingFactors.Short), even/odd, 1e-9)
}

func TestCompoundMeterUsesGentlerFactors(t *testing.T) {
	t.Parallel()

	require.Equal(t, compoundSwingFactors, DefaultFactors(FeelSwing, TimeSignature{Beats: 6, Value: 8}))
	require.Equal(t, shuffleFactors, DefaultFactors(FeelShuffle, DefaultTimeSignature))
	require.Equal(t, compoundShuffleFactors, DefaultFactors(FeelShuffle, TimeSignature{Beats: 12, Value: 8}))
	require.Equal(t, KFactors{}, DefaultFactors(FeelNone, DefaultTimeSignature))

	p := swingDefinition(TimeSignature{Beats: 6, Value: 8}).Resolve(1)
	assert.InDelta(t, 1.3, p.Multiplier(0), 1e-9)
	assert.InDelta(t, 0.7, p.Multiplier(1), 1e-9)
}

func TestNormalizeIntensity(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    float64
		expected Intensity
	}{
		{0, 0},
		{-3, 0},
		{0.5, 0.5},
		{1, 1},
		{50, 0.5},
		{250, 1},
	}

	for _, testCase := range testCases {
		assert.InDelta(t, float64(testCase.expected), float64(NormalizeIntensity(testCase.input)), 1e-9)
	}
	assert.Equal(t, 65, NormalizeIntensity(65).Percent())
}

func TestStandardIgnoresIntensity(t *testing.T) {
	t.Parallel()

	def := Standard{Meta: Meta{ID: "rock", Signature: DefaultTimeSignature, Layout: []Kind{Accent, Normal, Accent, Normal}}}
	p := def.Resolve(1)
	require.False(t, p.Humanization().Active())
	require.Equal(t, []int{0, 2}, p.AccentPositions())
	require.False(t, IsHumanized(def))
	require.True(t, IsHumanized(swingDefinition(DefaultTimeSignature)))
}

func TestLibrary(t *testing.T) {
	t.Parallel()

	lib := NewLibrary(
		Standard{Meta: Meta{ID: "a", Style: StyleBasic, Signature: DefaultTimeSignature}},
		swingDefinition(DefaultTimeSignature),
		Standard{Meta: Meta{ID: "a", Name: "replaced", Style: StyleBasic, Signature: DefaultTimeSignature}},
	)

	require.Len(t, lib.All(), 2)
	d, err := lib.Get("a")
	require.NoError(t, err)
	require.Equal(t, "replaced", d.Describe().Name)
	require.Len(t, lib.ByStyle(StyleSwing), 1)

	_, err = lib.Get("missing")
	require.ErrorIs(t, err, ErrUnknownRhythm)
}
