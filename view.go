package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fogleman/ease"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/robmorgan/tempo/engine/scale"
	"github.com/robmorgan/tempo/haptic"
	"github.com/robmorgan/tempo/rhythm"
)

const (
	gaugeWidth        = 40
	progressFullChar  = "█"
	progressEmptyChar = "░"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	bpmStyle   = lipgloss.NewStyle().Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	appStyle   = lipgloss.NewStyle().Margin(1, 2, 0, 2)
	cellStyle  = lipgloss.NewStyle().Padding(0, 1).MarginRight(1)
)

var (
	accentColor  = mustHex("#ff5f87")
	normalColor  = mustHex("#5fafff")
	mutedColor   = mustHex("#4e4e4e")
	offColor     = mustHex("#1c1c1c")
	flashColor   = mustHex("#ffffff")
	measureColor = mustHex("#ffd75f")
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	state := dimStyle.Render("stopped")
	if m.snap.Running {
		state = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("running")
	}
	b.WriteString(titleStyle.Render("tempo") + "  " + state)
	if m.snap.Previewing {
		b.WriteString("  " + lipgloss.NewStyle().Foreground(lipgloss.Color(m.previewColor())).Render("♪ preview"))
	}
	b.WriteString("\n\n")

	b.WriteString(m.tempoLine() + "\n")
	b.WriteString(m.gauge() + "\n\n")
	b.WriteString(m.patternLine() + "\n\n")
	b.WriteString(m.cells() + "\n\n")

	b.WriteString(dimStyle.Render(fmt.Sprintf("sound %s   next sound %s   rhythm %s",
		m.snap.SoundID, m.sounds[m.soundCursor], m.cursorRhythm())))
	b.WriteString("\n")
	if m.snap.Taps > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("taps %d", m.snap.Taps)) + "\n")
	}
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	if m.advisory != "" {
		b.WriteString(warnStyle.Render("! "+m.advisory) + "\n")
	}

	b.WriteString(helpStyle.Render(strings.Join([]string{
		"space play/stop   enter double tap to toggle   drag to set tempo",
		"[ ] bpm -/+1   { } bpm -/+10   t tap tempo   1-9 cycle slot   s time signature",
		"r preview next rhythm   R use it   x clear rhythm   - = intensity",
		"n preview next sound   N use it   esc stop preview   q quit",
	}, "\n")))
	return appStyle.Render(b.String())
}

func (m model) tempoLine() string {
	style := bpmStyle
	if since := time.Since(m.pulseAt); since < highlightFor {
		// haptic pulses show as a flash of the readout
		c := flashColor
		if m.pulse == haptic.Heavy {
			c = measureColor
		}
		style = style.Foreground(lipgloss.Color(c.Hex()))
	}

	line := style.Render(fmt.Sprintf("%3d BPM", m.snap.BPM))
	if m.snap.PendingBPM != m.snap.BPM {
		line += dimStyle.Render(fmt.Sprintf("  -> %d", m.snap.PendingBPM))
	}
	if m.snap.Transitioning {
		line += dimStyle.Render(fmt.Sprintf("  (%.1f)", m.snap.EffectiveBPM))
	}
	return line
}

func (m model) gauge() string {
	lo, hi := m.cfg.Tempo.MinBPM, m.cfg.Tempo.MaxBPM
	unit := scale.ToUnitClamp(float64(lo), float64(hi))
	full := int(unit(float64(m.snap.PendingBPM)) * gaugeWidth)
	return strings.Repeat(progressFullChar, full) +
		strings.Repeat(progressEmptyChar, gaugeWidth-full) +
		dimStyle.Render(fmt.Sprintf(" %d..%d", lo, hi))
}

func (m model) patternLine() string {
	s := m.snap.Signature.String()
	if m.snap.RhythmID != "" {
		s += "  " + m.snap.RhythmID
	}
	if m.snap.Feel != rhythm.FeelNone && m.snap.Feel != "" {
		s += fmt.Sprintf("  %s %d%%", m.snap.Feel, m.snap.Intensity.Percent())
	}
	return s
}

// cells draws one cell per slot, flashing the slot that last fired and fading it over the
// highlight window.
func (m model) cells() string {
	out := make([]string, len(m.snap.Slots))
	for i, slot := range m.snap.Slots {
		base := slotColor(slot)
		c := base
		if i == m.lit && m.snap.Running {
			target := flashColor
			if m.litAccent {
				target = measureColor
			}
			c = target.BlendLab(base, fade(m.litAt, time.Now()))
		}
		out[i] = cellStyle.Copy().
			Background(lipgloss.Color(c.Clamped().Hex())).
			Foreground(lipgloss.Color("0")).
			Render(slotGlyph(slot))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func (m model) previewColor() string {
	return normalColor.BlendLab(flashColor, 1-fade(m.litAt, time.Now())).Clamped().Hex()
}

func (m model) cursorRhythm() string {
	if len(m.rhythms) == 0 {
		return "-"
	}
	return m.rhythms[m.rhythmCursor]
}

// fade is 0 right after a beat and 1 once the highlight window has passed.
func fade(lit, now time.Time) float64 {
	return ease.OutQuad(rhythm.Phase(now, lit, highlightFor))
}

func slotColor(s rhythm.Slot) colorful.Color {
	switch {
	case !s.Enabled:
		return offColor
	case s.Kind == rhythm.Accent:
		return accentColor
	case s.Kind == rhythm.Muted:
		return mutedColor
	}
	return normalColor
}

func slotGlyph(s rhythm.Slot) string {
	switch {
	case !s.Enabled:
		return "-"
	case s.Kind == rhythm.Accent && s.Secondary:
		return "a"
	case s.Kind == rhythm.Accent:
		return "A"
	case s.Kind == rhythm.Muted:
		return "m"
	}
	return "n"
}
