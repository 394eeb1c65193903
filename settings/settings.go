package settings

import (
	"math"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/tempo/config"
	"github.com/robmorgan/tempo/logger"
	"github.com/robmorgan/tempo/rhythm"
	"github.com/robmorgan/tempo/utils"
)

// Settings is the persisted user state. RhythmIntensity is stored in [0, 1].
type Settings struct {
	BPM                int      `yaml:"bpm"`
	TimeSignature      string   `yaml:"timeSignature"`
	CustomPattern      []string `yaml:"customPattern,omitempty"`
	SoundID            string   `yaml:"soundId"`
	RhythmDefinitionID string   `yaml:"rhythmDefinitionId,omitempty"`
	RhythmIntensity    float64  `yaml:"rhythmIntensity"`
}

// Store loads and saves settings.
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// Defaults returns the settings of a fresh install.
func Defaults(cfg config.MetronomeConfig) Settings {
	return Settings{
		BPM:             cfg.Tempo.DefaultBPM,
		TimeSignature:   rhythm.DefaultTimeSignature.String(),
		SoundID:         cfg.DefaultSound,
		RhythmIntensity: 0.5,
	}
}

// Normalize corrects every field that is out of range or unknown, logging each correction.
func (s Settings) Normalize(cfg config.MetronomeConfig) Settings {
	log := logger.WithComponent("settings")
	def := Defaults(cfg)

	if s.BPM <= 0 {
		log.WithField("bpm", s.BPM).Warn("invalid stored tempo, using default")
		s.BPM = def.BPM
	} else if c := utils.Clamp(s.BPM, cfg.Tempo.MinBPM, cfg.Tempo.MaxBPM); c != s.BPM {
		log.WithFields(logrus.Fields{"bpm": s.BPM, "applied": c}).Warn("stored tempo out of range")
		s.BPM = c
	}

	if _, err := rhythm.ParseTimeSignature(s.TimeSignature); err != nil {
		log.WithError(err).Warn("invalid stored time signature, using default")
		s.TimeSignature = def.TimeSignature
	}

	if s.CustomPattern != nil {
		s.CustomPattern = append([]string(nil), s.CustomPattern...)
	}
	if len(s.CustomPattern) > rhythm.MaxBeats {
		s.CustomPattern = s.CustomPattern[:rhythm.MaxBeats]
	}
	for i, label := range s.CustomPattern {
		if _, err := rhythm.ParseSlot(label); err != nil {
			log.WithError(err).Warn("invalid stored custom slot, using normal")
			s.CustomPattern[i] = rhythm.Normal.String()
		}
	}

	s.SoundID = strings.TrimSpace(s.SoundID)
	if _, ok := cfg.SoundProfiles[s.SoundID]; !ok {
		log.WithField("sound", s.SoundID).Warn("unknown stored sound, using default")
		s.SoundID = def.SoundID
	}

	if s.RhythmDefinitionID != "" && cfg.Rhythms != nil {
		if _, err := cfg.Rhythms.Get(s.RhythmDefinitionID); err != nil {
			log.WithError(err).Warn("unknown stored rhythm, clearing")
			s.RhythmDefinitionID = ""
		}
	}

	// older documents stored the intensity as a percentage
	intensity := float64(rhythm.NormalizeIntensity(s.RhythmIntensity))
	if math.Abs(intensity-s.RhythmIntensity) > 1e-9 {
		log.WithFields(logrus.Fields{
			"stored":  s.RhythmIntensity,
			"applied": intensity,
		}).Debug("normalized stored intensity")
	}
	s.RhythmIntensity = intensity
	return s
}

// MemoryStore keeps settings in memory. The zero value loads defaults. It is safe for concurrent
// use; Config and SaveFn must not change once the store is in use.
type MemoryStore struct {
	Config config.MetronomeConfig

	// SaveFn, when set, is called before recording and can fail the save.
	SaveFn func(Settings) error

	mu    sync.Mutex
	saved *Settings
	saves int
}

// Load returns the last saved settings or the defaults.
func (m *MemoryStore) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return Defaults(m.config()), nil
	}
	s := *m.saved
	s.CustomPattern = append([]string(nil), s.CustomPattern...)
	return s, nil
}

// Save records s.
func (m *MemoryStore) Save(s Settings) error {
	if m.SaveFn != nil {
		if err := m.SaveFn(s); err != nil {
			return err
		}
	}
	s.CustomPattern = append([]string(nil), s.CustomPattern...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = &s
	m.saves++
	return nil
}

// Saves counts successful saves.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryStore) config() config.MetronomeConfig {
	if m.Config.SoundProfiles == nil {
		return config.NewMetronomeConfig()
	}
	return m.Config
}
