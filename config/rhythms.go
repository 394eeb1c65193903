package config

import "github.com/robmorgan/tempo/rhythm"

var (
	fourFour = rhythm.TimeSignature{Beats: 4, Value: 4}
	sixEight = rhythm.TimeSignature{Beats: 6, Value: 8}
)

const (
	a = rhythm.Accent
	n = rhythm.Normal
	m = rhythm.Muted
)

// PatchRhythms returns the built-in rhythm library
func PatchRhythms() []rhythm.Definition {
	s := make([]rhythm.Definition, 0)

	s = append(s, patchBasicRhythms()...)
	s = append(s, patchLatinRhythms()...)
	s = append(s, patchFunkRhythms()...)
	s = append(s, patchSwingRhythms()...)
	s = append(s, patchShuffleRhythms()...)

	return s
}

func patchBasicRhythms() []rhythm.Definition {
	return []rhythm.Definition{
		rhythm.Standard{Meta: rhythm.Meta{
			ID:        "basic_4_4",
			Name:      "Four on the floor",
			Style:     rhythm.StyleBasic,
			Signature: fourFour,
		}},
		rhythm.Standard{Meta: rhythm.Meta{
			ID:        "basic_3_4",
			Name:      "Waltz",
			Style:     rhythm.StyleBasic,
			Signature: rhythm.TimeSignature{Beats: 3, Value: 4},
		}},
		rhythm.Standard{Meta: rhythm.Meta{
			ID:        "basic_6_8",
			Name:      "Compound six",
			Style:     rhythm.StyleBasic,
			Signature: sixEight,
		}},
		rhythm.Standard{Meta: rhythm.Meta{
			ID:        "basic_backbeat",
			Name:      "Backbeat",
			Style:     rhythm.StyleBasic,
			Signature: fourFour,
			Layout:    []rhythm.Kind{n, a, n, a},
		}},
	}
}

func patchLatinRhythms() []rhythm.Definition {
	return []rhythm.Definition{
		// 3-2 son clave over eighth notes
		rhythm.Standard{Meta: rhythm.Meta{
			ID:        "latin_son_clave",
			Name:      "Son clave 3-2",
			Style:     rhythm.StyleLatin,
			Signature: rhythm.TimeSignature{Beats: 8, Value: 8},
			Layout:    []rhythm.Kind{a, m, m, a, m, m, a, m},
		}},
		rhythm.Standard{Meta: rhythm.Meta{
			ID:        "latin_bossa",
			Name:      "Bossa nova",
			Style:     rhythm.StyleLatin,
			Signature: rhythm.TimeSignature{Beats: 8, Value: 8},
			Layout:    []rhythm.Kind{a, n, n, a, n, n, a, n},
		}},
	}
}

func patchFunkRhythms() []rhythm.Definition {
	return []rhythm.Definition{
		rhythm.Standard{Meta: rhythm.Meta{
			ID:        "funk_sixteenths",
			Name:      "Sixteenth groove",
			Style:     rhythm.StyleFunk,
			Signature: rhythm.TimeSignature{Beats: 8, Value: 16},
			Layout:    []rhythm.Kind{a, n, m, n, a, m, n, n},
		}},
	}
}

func patchSwingRhythms() []rhythm.Definition {
	return []rhythm.Definition{
		rhythm.Humanized{
			Meta: rhythm.Meta{
				ID:        "swing_eighths",
				Name:      "Swing eighths",
				Style:     rhythm.StyleSwing,
				Signature: rhythm.TimeSignature{Beats: 8, Value: 8},
				Layout:    []rhythm.Kind{a, n, n, n, a, n, n, n},
			},
			Feel: rhythm.FeelSwing,
		},
		rhythm.Humanized{
			Meta: rhythm.Meta{
				ID:        "swing_6_8",
				Name:      "Compound swing",
				Style:     rhythm.StyleSwing,
				Signature: sixEight,
			},
			Feel: rhythm.FeelSwing,
		},
	}
}

func patchShuffleRhythms() []rhythm.Definition {
	return []rhythm.Definition{
		rhythm.Humanized{
			Meta: rhythm.Meta{
				ID:        "shuffle_blues",
				Name:      "Blues shuffle",
				Style:     rhythm.StyleShuffle,
				Signature: rhythm.TimeSignature{Beats: 8, Value: 8},
				Layout:    []rhythm.Kind{a, n, n, n, a, n, n, n},
			},
			Feel: rhythm.FeelShuffle,
		},
	}
}
