package config

import (
	"fmt"
	"os"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/robmorgan/tempo/logger"
	"github.com/robmorgan/tempo/rhythm"
)

// rhythmDocument is the YAML form of user supplied rhythm definitions:
//
//	rhythms:
//	  - id: my_clave
//	    name: My clave
//	    style: latin
//	    signature: 8/8
//	    layout: [accent, muted, muted, accent, muted, muted, accent, muted]
//	  - id: lazy_swing
//	    style: swing
//	    signature: 4/4
//	    feel: swing
//	    long: 0.5
//	    short: 0.5
type rhythmDocument struct {
	Rhythms []rhythmEntry `yaml:"rhythms"`
}

type rhythmEntry struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Style       string   `yaml:"style"`
	Signature   string   `yaml:"signature"`
	Layout      []string `yaml:"layout,omitempty"`
	Feel        string   `yaml:"feel,omitempty"`
	Long        float64  `yaml:"long,omitempty"`
	Short       float64  `yaml:"short,omitempty"`
}

// ParseRhythms decodes a rhythm document. Every entry must be valid for any of them to be returned.
func ParseRhythms(b []byte) ([]rhythm.Definition, error) {
	var doc rhythmDocument
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decoding rhythms: %w", err)
	}

	defs := make([]rhythm.Definition, 0, len(doc.Rhythms))
	for i, e := range doc.Rhythms {
		d, err := e.definition()
		if err != nil {
			return nil, fmt.Errorf("rhythm %d (%q): %w", i, e.ID, err)
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// LoadRhythms reads the rhythm document at path into lib, replacing built-in definitions that
// share an id. It returns how many definitions were loaded.
func LoadRhythms(lib *rhythm.Library, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.WithStackTrace(err)
	}
	defs, err := ParseRhythms(b)
	if err != nil {
		return 0, err
	}
	for _, d := range defs {
		lib.Add(d)
	}
	logger.WithComponent("config").WithFields(logrus.Fields{
		"path":    path,
		"rhythms": len(defs),
	}).Info("loaded rhythm definitions")
	return len(defs), nil
}

func (e rhythmEntry) definition() (rhythm.Definition, error) {
	if e.ID == "" {
		return nil, fmt.Errorf("missing id")
	}
	ts, err := rhythm.ParseTimeSignature(e.Signature)
	if err != nil {
		return nil, err
	}

	style := rhythm.Style(e.Style)
	switch style {
	case rhythm.StyleBasic, rhythm.StyleLatin, rhythm.StyleFunk, rhythm.StyleSwing, rhythm.StyleShuffle:
	case "":
		style = rhythm.StyleBasic
	default:
		return nil, fmt.Errorf("unknown style %q", e.Style)
	}

	layout := make([]rhythm.Kind, 0, len(e.Layout))
	for i, label := range e.Layout {
		slot, err := rhythm.ParseSlot(label)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		if !slot.Enabled {
			return nil, fmt.Errorf("slot %d: definitions can not disable slots, use muted", i)
		}
		layout = append(layout, slot.Kind)
	}
	if len(layout) > 0 {
		ts.Beats = len(layout)
	}

	name := e.Name
	if name == "" {
		name = e.ID
	}
	meta := rhythm.Meta{
		ID:          e.ID,
		Name:        name,
		Description: e.Description,
		Style:       style,
		Signature:   ts,
		Layout:      layout,
	}

	switch feel := rhythm.Feel(e.Feel); feel {
	case "", rhythm.FeelNone:
		return rhythm.Standard{Meta: meta}, nil
	case rhythm.FeelSwing, rhythm.FeelShuffle:
		if e.Long < 0 || e.Long > 1 || e.Short < 0 || e.Short > 1 {
			return nil, fmt.Errorf("k factors must be within [0, 1]")
		}
		return rhythm.Humanized{
			Meta:    meta,
			Feel:    feel,
			Factors: rhythm.KFactors{Long: e.Long, Short: e.Short},
		}, nil
	default:
		return nil, fmt.Errorf("unknown feel %q", e.Feel)
	}
}
