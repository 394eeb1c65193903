package beatclock

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/tempo/audio"
	"github.com/robmorgan/tempo/config"
	"github.com/robmorgan/tempo/haptic"
	"github.com/robmorgan/tempo/logger"
	"github.com/robmorgan/tempo/rhythm"
	"github.com/robmorgan/tempo/utils"
)

// ErrInvalidTempo is returned when the tempo source reports a non-positive tempo.
var ErrInvalidTempo = errors.New("clock tempo must be greater than zero")

// State of the clock.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Tempo is the clock's source of truth for the tempo at an instant.
type Tempo interface {
	EffectiveBPM(now time.Time) float64
	Transitioning(now time.Time) bool
}

// FixedTempo is a Tempo that never changes.
type FixedTempo float64

func (f FixedTempo) EffectiveBPM(time.Time) float64 { return float64(f) }
func (FixedTempo) Transitioning(time.Time) bool     { return false }

// Beat describes one fire.
type Beat struct {
	rhythm.Position

	Kind      rhythm.Kind
	Secondary bool

	// At is when the beat fired, Due is when it was scheduled to.
	At  time.Time
	Due time.Time

	// Generation identifies the run of the clock that fired the beat.
	Generation uint64
}

// Voice is the sound the beat is dispatched as.
func (b Beat) Voice() rhythm.Kind {
	return rhythm.Slot{Kind: b.Kind, Enabled: true, Secondary: b.Secondary}.Voice()
}

// Advisory reports that audio has failed repeatedly.
type Advisory struct {
	Failures int
	Err      error
}

// Options wires a clock to its collaborators. Only Tempo is required.
type Options struct {
	Config  config.ClockConfig
	Tempo   Tempo
	Pattern *rhythm.Pattern
	Audio   audio.Dispatcher
	Haptics haptic.Feedback

	// OnBeat is called for every fire. It must not block or call back into the owner of the clock.
	OnBeat func(Beat)

	// OnAdvisory is called once when consecutive audio failures reach the configured threshold.
	OnAdvisory func(Advisory)

	// Name tags log lines, e.g. "main" or "preview".
	Name string
}

// Snapshot is a copy of the clock state.
type Snapshot struct {
	State      State
	Generation uint64
	Slot       int
	Next       time.Time
	LastFire   time.Time
	Beats      int64
	Measure    int64
	Drift      time.Duration
	Resyncs    int
	Failures   int
}

// Clock is the beat scheduler. It is a state machine driven by Advance: the owner polls it from a
// single goroutine, waiting Wait between calls. Clock is not safe for concurrent use.
type Clock struct {
	cfg        config.ClockConfig
	tempo      Tempo
	pattern    *rhythm.Pattern
	audio      audio.Dispatcher
	haptics    haptic.Feedback
	onBeat     func(Beat)
	onAdvisory func(Advisory)

	state      State
	generation uint64

	slot     int
	next     time.Time
	last     time.Time
	expected time.Duration
	drift    time.Duration

	// bpm is the tempo the pending interval was scheduled at.
	bpm float64

	beats   int64
	measure int64
	resyncs int

	failures int
	advised  bool

	log *logrus.Entry
}

// New returns a stopped clock.
func New(opts Options) *Clock {
	c := &Clock{
		cfg:        opts.Config,
		tempo:      opts.Tempo,
		pattern:    opts.Pattern,
		audio:      opts.Audio,
		haptics:    opts.Haptics,
		onBeat:     opts.OnBeat,
		onAdvisory: opts.OnAdvisory,
	}
	if c.cfg == (config.ClockConfig{}) {
		c.cfg = config.NewMetronomeConfig().Clock
	}
	if c.tempo == nil {
		c.tempo = FixedTempo(120)
	}
	if c.pattern == nil {
		c.pattern = rhythm.DefaultPattern()
	}
	if c.audio == nil {
		c.audio = audio.Nop{}
	}
	if c.haptics == nil {
		c.haptics = haptic.Nop{}
	}
	name := opts.Name
	if name == "" {
		name = "main"
	}
	c.log = logger.WithComponent("beatclock").WithField("clock", name)
	return c
}

// Start moves the clock to Running with slot 0 due at now. With immediate set the first beat fires
// before Start returns. Starting a running clock does nothing.
func (c *Clock) Start(now time.Time, immediate bool) error {
	if c.state == Running {
		return nil
	}
	if bpm := c.tempo.EffectiveBPM(now); bpm <= 0 {
		c.log.WithField("bpm", bpm).Error("refusing to start")
		return ErrInvalidTempo
	}

	c.generation++
	c.state = Running
	c.slot = c.pattern.FirstEnabled()
	c.next = now
	c.last = time.Time{}
	c.expected = 0
	c.drift = 0
	c.bpm = 0
	c.beats = 0
	c.measure = 0

	c.log.WithFields(logrus.Fields{
		"generation": c.generation,
		"signature":  c.pattern.Signature().String(),
		"bpm":        c.tempo.EffectiveBPM(now),
	}).Debug("clock started")

	if immediate {
		c.Advance(now)
	}
	return nil
}

// Stop moves the clock to Stopped. Nothing fires after Stop returns until the next Start.
// It reports whether the clock was running.
func (c *Clock) Stop() bool {
	if c.state != Running {
		return false
	}
	c.state = Stopped
	c.generation++
	c.log.WithFields(logrus.Fields{
		"generation": c.generation,
		"beats":      c.beats,
	}).Debug("clock stopped")
	return true
}

// SetPattern replaces the pattern. A running clock is stopped and restarted at now so no beat of
// the old pattern follows the change.
func (c *Clock) SetPattern(p *rhythm.Pattern, now time.Time) error {
	if p == nil {
		p = rhythm.DefaultPattern()
	}
	if c.state != Running {
		c.pattern = p
		return nil
	}
	c.Stop()
	c.pattern = p
	return c.Start(now, true)
}

// Pattern returns the pattern in use.
func (c *Clock) Pattern() *rhythm.Pattern {
	return c.pattern
}

// State returns the current state.
func (c *Clock) State() State {
	return c.state
}

// Running is shorthand for State() == Running.
func (c *Clock) Running() bool {
	return c.state == Running
}

// Generation changes on every start and stop. A beat whose Generation differs from the clock's is stale.
func (c *Clock) Generation() uint64 {
	return c.generation
}

// Wait returns how long the owner should sleep before the next Advance. It is half the time left
// until the next beat, bounded by the poll limits, so the decision converges on the due time.
func (c *Clock) Wait(now time.Time) time.Duration {
	if c.state != Running {
		return c.cfg.IdlePoll
	}
	remaining := c.next.Sub(now)
	return utils.Clamp(remaining/2, c.cfg.MinPoll, c.cfg.MaxPoll)
}

// Snapshot copies the clock state.
func (c *Clock) Snapshot() Snapshot {
	return Snapshot{
		State:      c.state,
		Generation: c.generation,
		Slot:       c.slot,
		Next:       c.next,
		LastFire:   c.last,
		Beats:      c.beats,
		Measure:    c.measure,
		Drift:      c.drift,
		Resyncs:    c.resyncs,
		Failures:   c.failures,
	}
}
