package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/robmorgan/tempo/beatclock"
	"github.com/robmorgan/tempo/config"
	"github.com/robmorgan/tempo/engine"
	"github.com/robmorgan/tempo/haptic"
)

const highlightFor = 200 * time.Millisecond

// events carries engine callbacks to the program. The engine calls them while locked, so every
// send drops instead of blocking.
type events struct {
	beats   chan engine.Beat
	changes chan engine.Snapshot
	advice  chan beatclock.Advisory
	pulses  chan haptic.Strength
}

func newEvents() *events {
	return &events{
		beats:   make(chan engine.Beat, 64),
		changes: make(chan engine.Snapshot, 16),
		advice:  make(chan beatclock.Advisory, 4),
		pulses:  make(chan haptic.Strength, 16),
	}
}

func (ev *events) beat(b engine.Beat) {
	select {
	case ev.beats <- b:
	default:
	}
}

func (ev *events) change(s engine.Snapshot) {
	select {
	case ev.changes <- s:
	default:
	}
}

func (ev *events) advisory(a beatclock.Advisory) {
	select {
	case ev.advice <- a:
	default:
	}
}

// haptics turns pulses into a flash of the tempo readout.
func (ev *events) haptics() haptic.Feedback {
	return haptic.Func(func(s haptic.Strength) error {
		select {
		case ev.pulses <- s:
		default:
		}
		return nil
	})
}

type model struct {
	engine *engine.Engine
	cfg    config.MetronomeConfig
	ev     *events

	snap engine.Snapshot

	// highlight of the last beat
	lit        int
	litAt      time.Time
	litPreview bool
	litAccent  bool
	litGen     uint64

	pulse   haptic.Strength
	pulseAt time.Time

	sounds       []string
	soundCursor  int
	rhythms      []string
	rhythmCursor int

	stopAfter time.Duration
	dragging  bool
	status    string
	advisory  string
	quitting  bool
}

func newModel(e *engine.Engine, cfg config.MetronomeConfig, ev *events, stopAfter time.Duration) model {
	m := model{
		engine:    e,
		cfg:       cfg,
		ev:        ev,
		snap:      e.Snapshot(),
		lit:       -1,
		stopAfter: stopAfter,
	}

	for _, d := range cfg.Rhythms.All() {
		m.rhythms = append(m.rhythms, d.Describe().ID)
	}
	m.sounds = sortedSounds(cfg)
	for i, id := range m.sounds {
		if id == m.snap.SoundID {
			m.soundCursor = i
		}
	}
	for i, id := range m.rhythms {
		if id == m.snap.RhythmID {
			m.rhythmCursor = i
		}
	}
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		waitForBeat(m.ev.beats),
		waitForChange(m.ev.changes),
		waitForAdvisory(m.ev.advice),
		waitForPulse(m.ev.pulses),
	)
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/GlobalFPS, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type beatMsg engine.Beat

type changeMsg engine.Snapshot

type advisoryMsg beatclock.Advisory

type pulseMsg haptic.Strength

// clearMsg ends the highlight of the beat fired in generation gen at slot.
type clearMsg struct {
	slot int
	gen  uint64
	at   time.Time
}

func waitForBeat(ch <-chan engine.Beat) tea.Cmd {
	return func() tea.Msg {
		return beatMsg(<-ch)
	}
}

func waitForChange(ch <-chan engine.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return changeMsg(<-ch)
	}
}

func waitForAdvisory(ch <-chan beatclock.Advisory) tea.Cmd {
	return func() tea.Msg {
		return advisoryMsg(<-ch)
	}
}

func waitForPulse(ch <-chan haptic.Strength) tea.Cmd {
	return func() tea.Msg {
		return pulseMsg(<-ch)
	}
}

func clearAfter(b beatMsg) tea.Cmd {
	return tea.Tick(highlightFor, func(time.Time) tea.Msg {
		return clearMsg{slot: b.Slot, gen: b.Generation, at: b.At}
	})
}
