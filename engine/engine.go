package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/robmorgan/tempo/audio"
	"github.com/robmorgan/tempo/beatclock"
	"github.com/robmorgan/tempo/config"
	"github.com/robmorgan/tempo/haptic"
	"github.com/robmorgan/tempo/logger"
	"github.com/robmorgan/tempo/rhythm"
	"github.com/robmorgan/tempo/settings"
	"github.com/robmorgan/tempo/tap"
	"github.com/robmorgan/tempo/task"
	"github.com/robmorgan/tempo/tempo"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("engine closed")

	// ErrAlreadyOpen is returned by a second Open.
	ErrAlreadyOpen = errors.New("engine already open")
)

// task names
const (
	taskCommitBPM   = "commit-bpm"
	taskAutoStop    = "auto-stop"
	taskTapIdle     = "tap-idle"
	taskPreviewStop = "preview-stop"
)

// Beat is a fire of the main clock or of a preview.
type Beat struct {
	beatclock.Beat
	Preview bool
}

// Options wires an engine. Every field is optional.
type Options struct {
	Config config.MetronomeConfig
	Clock  clock.Clock

	// Audio plays the main clock. Preview plays auditions and needs its own voices so that
	// previewing a sound does not replace the main one.
	Audio   audio.Dispatcher
	Preview audio.Dispatcher
	Haptics haptic.Feedback
	Store   settings.Store

	// OnBeat and OnAdvisory run on the scheduling goroutine with the engine locked. They must
	// return quickly and must not call the engine.
	OnBeat     func(Beat)
	OnAdvisory func(beatclock.Advisory)

	// OnChange receives a snapshot after every state change. It runs unlocked and may call the engine.
	OnChange func(Snapshot)
}

// Engine owns the tempo model, the main and preview clocks and the scheduled tasks, and runs
// the single loop that polls them.
type Engine struct {
	mu sync.Mutex

	cfg   config.MetronomeConfig
	clock clock.Clock
	opts  Options

	tempo     *tempo.Model
	taps      *tap.Estimator
	doubleTap *tap.DoubleTap
	tasks     *task.Set

	main    *beatclock.Clock
	preview *beatclock.Clock

	settings settings.Settings
	pattern  *rhythm.Pattern

	dirty         bool
	saveVersion   uint64
	queuedVersion uint64

	saveMu    sync.Mutex
	savedUpTo uint64
	saves     sync.WaitGroup

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
	open   bool
	closed bool

	log *logrus.Entry
}

// New builds an engine from opts, loading the persisted settings. Load failures fall back to the defaults.
func New(opts Options) *Engine {
	if opts.Config.SoundProfiles == nil {
		opts.Config = config.NewMetronomeConfig()
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Audio == nil {
		opts.Audio = audio.Nop{}
	}
	if opts.Preview == nil {
		opts.Preview = audio.Nop{}
	}
	if opts.Haptics == nil {
		opts.Haptics = haptic.Nop{}
	}
	if opts.Store == nil {
		opts.Store = &settings.MemoryStore{Config: opts.Config}
	}

	cfg := opts.Config
	e := &Engine{
		cfg:       cfg,
		clock:     opts.Clock,
		opts:      opts,
		tempo:     tempo.New(cfg),
		taps:      tap.NewEstimator(cfg.Tap, cfg.Tempo.MinBPM, cfg.Tempo.MaxBPM),
		doubleTap: tap.NewDoubleTap(cfg.Tap.DoubleTap),
		tasks:     task.NewSet(),
		wake:      make(chan struct{}, 1),
		log:       logger.WithComponent("engine"),
	}

	s, err := opts.Store.Load()
	if err != nil {
		e.log.WithError(err).Warn("could not load settings, using defaults")
		s = settings.Defaults(cfg)
	}
	e.settings = s.Normalize(cfg)

	now := e.clock.Now()
	if _, err := e.tempo.SetBPM(e.settings.BPM, now); err != nil {
		e.log.WithError(err).Warn("stored tempo rejected")
	}

	e.main = beatclock.New(beatclock.Options{
		Config:     cfg.Clock,
		Tempo:      e.tempo,
		Audio:      opts.Audio,
		Haptics:    opts.Haptics,
		OnBeat:     e.beatHandler(false),
		OnAdvisory: e.advisoryHandler,
		Name:       "main",
	})
	e.preview = e.newPreviewClock(beatclock.FixedTempo(cfg.Preview.BPM), nil)
	e.pattern = e.resolvePattern()
	if err := e.main.SetPattern(e.pattern, now); err != nil {
		e.log.WithError(err).Warn("could not apply pattern")
	}

	if err := audio.PreloadAll(opts.Audio, e.settings.SoundID); err != nil {
		e.log.WithError(err).WithField("sound", e.settings.SoundID).Warn("preload failed")
	}

	e.log.WithFields(logrus.Fields{
		"bpm":       e.tempo.BPM(),
		"signature": e.pattern.Signature().String(),
		"sound":     e.settings.SoundID,
		"rhythm":    e.settings.RhythmDefinitionID,
	}).Info("engine ready")
	return e
}

// Open starts the scheduling loop. It runs until ctx is done or Close is called.
func (e *Engine) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.closed:
		return ErrClosed
	case e.open:
		return ErrAlreadyOpen
	}

	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	e.open = true
	go e.run(ctx)
	return nil
}

// Close stops both clocks, cancels every task and waits for the loop to exit.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.stopLocked()
	e.stopPreviewLocked()
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	e.saves.Wait()
	e.log.Info("engine closed")
	return nil
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	log := e.log.WithField("loop", "scheduler")
	log.Debug("scheduler started")

	t := e.clock.NewTimer(e.wait())
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("scheduler shutdown")
			return
		case <-t.C():
			e.tick()
			t.Reset(e.wait())
		case <-e.wake:
			if !t.Stop() {
				select {
				case <-t.C():
				default:
				}
			}
			e.tick()
			t.Reset(e.wait())
		}
	}
}

// tick runs due tasks then lets each clock make its fire decision.
func (e *Engine) tick() {
	e.update(func(now time.Time) error {
		if ran := e.tasks.Run(now); len(ran) > 0 {
			e.dirty = true
		}
		e.main.Advance(now)
		if !e.main.Running() && e.tempo.Playing() {
			// the clock stopped itself on an invalid tempo
			e.tempo.SetPlaying(false)
			e.dirty = true
		}
		e.preview.Advance(now)
		return nil
	}, saveAsync)
}

// wait is the time until the loop must decide again.
func (e *Engine) wait() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	d := e.main.Wait(now)
	if e.preview.Running() {
		if p := e.preview.Wait(now); p < d {
			d = p
		}
	}
	if next, ok := e.tasks.Next(); ok {
		if until := next.Sub(now); until < d {
			d = until
		}
	}
	if d < e.cfg.Clock.MinPoll {
		d = e.cfg.Clock.MinPoll
	}
	return d
}

// nudge wakes the loop so it recomputes its wait after a state change.
func (e *Engine) nudge() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

type updateFlags int

const (
	// wakeLoop makes the loop recompute its wait, for changes that can bring a deadline forward.
	wakeLoop updateFlags = 1 << iota

	// saveAsync keeps settings writes off the calling goroutine.
	saveAsync
)

// update runs fn locked at the current instant, then publishes the resulting change and
// persists the settings when fn changed them.
func (e *Engine) update(fn func(now time.Time) error, flags updateFlags) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	err := fn(e.clock.Now())

	var (
		snap    Snapshot
		notify  = e.dirty
		save    = e.saveVersion > e.queuedVersion
		current = e.settings
		version = e.saveVersion
	)
	if notify {
		snap = e.snapshotLocked()
		e.dirty = false
	}
	e.queuedVersion = version
	e.mu.Unlock()

	switch {
	case save && flags&saveAsync != 0:
		e.saves.Add(1)
		go func() {
			defer e.saves.Done()
			e.persist(current, version)
		}()
	case save:
		e.persist(current, version)
	}
	if notify && e.opts.OnChange != nil {
		e.opts.OnChange(snap)
	}
	if flags&wakeLoop != 0 {
		e.nudge()
	}
	return err
}

// changedSettings marks the settings for saving and the state for publishing.
func (e *Engine) changedSettings() {
	e.saveVersion++
	e.dirty = true
}

func (e *Engine) persist(s settings.Settings, version uint64) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	if version <= e.savedUpTo {
		return
	}
	if err := e.opts.Store.Save(s); err != nil {
		e.log.WithError(err).Warn("could not save settings")
		return
	}
	e.savedUpTo = version
}

func (e *Engine) beatHandler(preview bool) func(beatclock.Beat) {
	return func(b beatclock.Beat) {
		if e.opts.OnBeat != nil {
			e.opts.OnBeat(Beat{Beat: b, Preview: preview})
		}
	}
}

func (e *Engine) advisoryHandler(a beatclock.Advisory) {
	e.log.WithError(a.Err).WithField("failures", a.Failures).Error("audio keeps failing")
	if e.opts.OnAdvisory != nil {
		e.opts.OnAdvisory(a)
	}
}
