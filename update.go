package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/robmorgan/tempo/config"
	"github.com/robmorgan/tempo/rhythm"
	"github.com/robmorgan/tempo/utils"
)

// signatures cycled by the s key
var signatures = []string{"2/4", "3/4", "4/4", "6/8"}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tickMsg:
		// the effective tempo moves without change events while a transition runs
		if m.snap.Transitioning || m.snap.Dragging {
			m.snap = m.engine.Snapshot()
		}
		return m, tickCmd()

	case beatMsg:
		cmd := m.handleBeat(msg)
		return m, tea.Batch(cmd, waitForBeat(m.ev.beats))

	case clearMsg:
		if !m.litPreview && msg.gen == m.litGen && msg.slot == m.lit && !m.litAt.After(msg.at) {
			m.lit = -1
		}
		return m, nil

	case changeMsg:
		m.snap = msg
		return m, waitForChange(m.ev.changes)

	case advisoryMsg:
		m.advisory = fmt.Sprintf("audio failed %d times in a row: %v", msg.Failures, msg.Err)
		return m, waitForAdvisory(m.ev.advice)

	case pulseMsg:
		m.pulse = msg
		m.pulseAt = time.Now()
		return m, waitForPulse(m.ev.pulses)
	}
	return m, nil
}

func (m *model) handleBeat(b beatMsg) tea.Cmd {
	if b.Preview {
		m.litPreview = true
		m.litAt = b.At
		return nil
	}
	m.advisory = ""
	m.litPreview = false
	m.lit = b.Slot
	m.litAt = b.At
	m.litGen = b.Generation
	m.litAccent = b.MeasureStart
	return clearAfter(b)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error
	switch key := msg.String(); key {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case " ":
		var running bool
		running, err = m.engine.Toggle()
		if err == nil && running && m.stopAfter > 0 {
			err = m.engine.StopAfter(m.stopAfter)
		}

	case "enter":
		var toggled bool
		if toggled, err = m.engine.TapCircle(); err == nil && toggled {
			m.status = "double tap"
		}

	case "[", "]", "{", "}":
		delta := map[string]int{"[": -1, "]": 1, "{": -10, "}": 10}[key]
		_, err = m.engine.StepBPM(delta)

	case "t":
		var (
			bpm int
			ok  bool
		)
		bpm, ok, err = m.engine.Tap()
		if ok {
			m.status = fmt.Sprintf("tap tempo %d", bpm)
		} else {
			m.status = "tap..."
		}

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		err = m.engine.CycleSlot(int(key[0] - '1'))

	case "s":
		err = m.engine.SetTimeSignature(nextSignature(m.snap.Signature))

	case "r", "R":
		if len(m.rhythms) == 0 {
			break
		}
		if key == "r" {
			m.rhythmCursor = (m.rhythmCursor + 1) % len(m.rhythms)
			err = m.engine.PreviewRhythm(m.rhythms[m.rhythmCursor])
			m.status = "previewing " + m.rhythms[m.rhythmCursor]
		} else {
			err = m.engine.SelectRhythm(m.rhythms[m.rhythmCursor])
		}

	case "x":
		err = m.engine.SelectRhythm("")

	case "-", "=":
		step := 0.1
		if key == "-" {
			step = -step
		}
		// stays within [0, 1] so it is never read as a percentage
		err = m.engine.SetRhythmIntensity(utils.Clamp(float64(m.snap.Intensity)+step, 0, 1))

	case "n":
		m.soundCursor = (m.soundCursor + 1) % len(m.sounds)
		err = m.engine.PreviewSound(m.sounds[m.soundCursor])
		m.status = "previewing " + m.sounds[m.soundCursor]

	case "N":
		err = m.engine.SetSound(m.sounds[m.soundCursor])

	case "esc":
		err = m.engine.StopPreview()
		m.status = ""
	}

	if err != nil {
		m.status = err.Error()
	}
	return m, nil
}

// handleMouse turns a left button drag into a tempo gesture.
func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft && msg.Action != tea.MouseActionRelease {
		return m, nil
	}

	var err error
	x := float64(msg.X)
	switch msg.Action {
	case tea.MouseActionPress:
		m.dragging = true
		err = m.engine.BeginGesture(x)
	case tea.MouseActionMotion:
		if m.dragging {
			_, err = m.engine.MoveGesture(x)
		}
	case tea.MouseActionRelease:
		if m.dragging {
			m.dragging = false
			_, err = m.engine.EndGesture()
		}
	}
	if err != nil {
		m.status = err.Error()
	}
	return m, nil
}

func nextSignature(current rhythm.TimeSignature) string {
	for i, s := range signatures {
		if s == current.String() {
			return signatures[(i+1)%len(signatures)]
		}
	}
	return signatures[0]
}

func sortedSounds(cfg config.MetronomeConfig) []string {
	ids := maps.Keys(cfg.SoundProfiles)
	slices.Sort(ids)
	return ids
}
