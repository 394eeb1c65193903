package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/robmorgan/tempo/audio"
	"github.com/robmorgan/tempo/beatclock"
	"github.com/robmorgan/tempo/config"
	"github.com/robmorgan/tempo/haptic"
	"github.com/robmorgan/tempo/rhythm"
	"github.com/robmorgan/tempo/settings"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type recordingAudio struct {
	mu       sync.Mutex
	plays    []rhythm.Kind
	preloads []string
	err      error
}

func (r *recordingAudio) Play(kind rhythm.Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plays = append(r.plays, kind)
	return r.err
}

func (r *recordingAudio) Preload(kind rhythm.Kind, soundID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preloads = append(r.preloads, soundID+"/"+kind.String())
	return nil
}

func (r *recordingAudio) playCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plays)
}

type fixture struct {
	engine  *Engine
	clock   *testingclock.FakeClock
	audio   *recordingAudio
	preview *recordingAudio
	store   *settings.MemoryStore

	mu         sync.Mutex
	beats      []Beat
	pulses     []haptic.Strength
	advisories []beatclock.Advisory
	changes    int
}

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()

	f := &fixture{
		clock:   testingclock.NewFakeClock(epoch),
		audio:   &recordingAudio{},
		preview: &recordingAudio{},
		store:   &settings.MemoryStore{},
	}
	opts := Options{
		Config:  config.NewMetronomeConfig(),
		Clock:   f.clock,
		Audio:   f.audio,
		Preview: f.preview,
		Store:   f.store,
		Haptics: haptic.Func(func(s haptic.Strength) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.pulses = append(f.pulses, s)
			return nil
		}),
		OnBeat: func(b Beat) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.beats = append(f.beats, b)
		},
		OnAdvisory: func(a beatclock.Advisory) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.advisories = append(f.advisories, a)
		},
		OnChange: func(Snapshot) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.changes++
		},
	}
	for _, m := range mutate {
		m(&opts)
	}
	f.engine = New(opts)
	t.Cleanup(func() { _ = f.engine.Close() })
	return f
}

// advance steps the fake clock in 1ms increments, ticking the engine the way the loop would.
func (f *fixture) advance(d time.Duration) {
	for step := time.Duration(0); step < d; step += time.Millisecond {
		f.clock.Step(time.Millisecond)
		f.engine.tick()
	}
}

func (f *fixture) mainBeats() []Beat {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Beat
	for _, b := range f.beats {
		if !b.Preview {
			out = append(out, b)
		}
	}
	return out
}

func (f *fixture) previewBeats() []Beat {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Beat
	for _, b := range f.beats {
		if b.Preview {
			out = append(out, b)
		}
	}
	return out
}

func (f *fixture) offset(b Beat) time.Duration {
	return b.At.Sub(epoch)
}

func TestStartFiresImmediatelyAndStopSilences(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.engine.Start())
	require.True(t, f.engine.Running())
	require.Len(t, f.mainBeats(), 1)
	assert.Equal(t, []string{"metronome_click/accent", "metronome_click/normal", "metronome_click/secondary"}, f.audio.preloads)

	f.advance(1600 * time.Millisecond)
	beats := f.mainBeats()
	require.Len(t, beats, 4)
	for i, b := range beats {
		assert.Equal(t, time.Duration(i)*500*time.Millisecond, f.offset(b))
	}
	assert.Equal(t, []rhythm.Kind{rhythm.Accent, rhythm.Normal, rhythm.Normal, rhythm.Normal}, f.audio.plays)
	assert.Equal(t, []haptic.Strength{haptic.Heavy}, f.pulses)

	require.NoError(t, f.engine.Stop())
	f.advance(2 * time.Second)
	assert.Len(t, f.mainBeats(), 4)
	assert.False(t, f.engine.Running())
}

func TestStopAfter(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.engine.Start())
	require.NoError(t, f.engine.StopAfter(time.Second))
	assert.Contains(t, f.engine.Snapshot().Pending, taskAutoStop)

	f.advance(999 * time.Millisecond)
	assert.True(t, f.engine.Running())
	f.advance(time.Millisecond)
	assert.False(t, f.engine.Running())
	assert.Len(t, f.mainBeats(), 2)

	// a stop cancels a pending auto stop so it can not hit the next run
	require.NoError(t, f.engine.Start())
	require.NoError(t, f.engine.StopAfter(time.Second))
	require.NoError(t, f.engine.Stop())
	require.NoError(t, f.engine.Start())
	f.advance(1500 * time.Millisecond)
	assert.True(t, f.engine.Running())
}

func TestGestureCommitsAfterDebounce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.engine.BeginGesture(0))
	f.clock.Step(100 * time.Millisecond)
	u, err := f.engine.MoveGesture(20)
	require.NoError(t, err)
	assert.Equal(t, 130, u.BPM)

	snap := f.engine.Snapshot()
	assert.Equal(t, 120, snap.BPM)
	assert.Equal(t, 130, snap.PendingBPM)
	assert.Contains(t, snap.Pending, taskCommitBPM)

	f.advance(149 * time.Millisecond)
	assert.Equal(t, 120, f.engine.Snapshot().BPM)
	f.advance(time.Millisecond)
	assert.Equal(t, 130, f.engine.Snapshot().BPM)

	require.NoError(t, f.engine.Close())
	saved, err := f.store.Load()
	require.NoError(t, err)
	assert.Equal(t, 130, saved.BPM)
}

func TestGestureReleaseCommits(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.engine.BeginGesture(100))
	f.clock.Step(100 * time.Millisecond)
	_, err := f.engine.MoveGesture(80)
	require.NoError(t, err)

	bpm, err := f.engine.EndGesture()
	require.NoError(t, err)
	assert.Equal(t, 110, bpm)
	assert.NotContains(t, f.engine.Snapshot().Pending, taskCommitBPM)
	assert.Equal(t, 110, f.engine.Settings().BPM)
	assert.Equal(t, 1, f.store.Saves())
}

func TestSnapPulsesLightHaptic(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.engine.SetBPM(110)
	require.NoError(t, err)
	require.NoError(t, f.engine.BeginGesture(0))
	f.clock.Step(time.Second)
	u, err := f.engine.MoveGesture(17)
	require.NoError(t, err)
	assert.True(t, u.Snapped)
	assert.Equal(t, []haptic.Strength{haptic.Light}, f.pulses)
}

func TestStopCancelsPendingCommit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.engine.Start())
	require.NoError(t, f.engine.BeginGesture(0))
	f.clock.Step(100 * time.Millisecond)
	_, err := f.engine.MoveGesture(20)
	require.NoError(t, err)
	_, err = f.engine.EndGesture()
	require.NoError(t, err)

	require.NoError(t, f.engine.BeginGesture(0))
	f.clock.Step(100 * time.Millisecond)
	_, err = f.engine.MoveGesture(-40)
	require.NoError(t, err)
	require.NoError(t, f.engine.Stop())

	f.advance(time.Second)
	snap := f.engine.Snapshot()
	assert.Equal(t, 130, snap.BPM)
	assert.Empty(t, snap.Pending)
	assert.False(t, snap.Running)
}

func TestBPMBoundaries(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	bpm, err := f.engine.SetBPM(500)
	require.NoError(t, err)
	assert.Equal(t, 240, bpm)

	bpm, err = f.engine.SetBPM(0)
	assert.Error(t, err)
	assert.Equal(t, 240, bpm)

	bpm, err = f.engine.StepBPM(-1000)
	require.NoError(t, err)
	assert.Equal(t, 40, bpm)
	assert.Equal(t, 40, f.engine.Settings().BPM)
}

func TestTapTempo(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var (
		bpm int
		ok  bool
		err error
	)
	for i := 0; i < 4; i++ {
		bpm, ok, err = f.engine.Tap()
		require.NoError(t, err)
		f.advance(600 * time.Millisecond)
	}
	require.True(t, ok)
	assert.Equal(t, 100, bpm)
	assert.Equal(t, 100, f.engine.Snapshot().BPM)
	assert.Equal(t, 4, f.engine.Snapshot().Taps)

	f.advance(2 * time.Second)
	assert.Equal(t, 0, f.engine.Snapshot().Taps)
	assert.Equal(t, 100, f.engine.Snapshot().BPM)
}

func TestTapCircleDoubleTapToggles(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	toggled, err := f.engine.TapCircle()
	require.NoError(t, err)
	assert.False(t, toggled)

	f.clock.Step(200 * time.Millisecond)
	toggled, err = f.engine.TapCircle()
	require.NoError(t, err)
	assert.True(t, toggled)
	assert.True(t, f.engine.Running())

	f.advance(time.Second)
	_, _ = f.engine.TapCircle()
	f.clock.Step(100 * time.Millisecond)
	toggled, err = f.engine.TapCircle()
	require.NoError(t, err)
	assert.True(t, toggled)
	assert.False(t, f.engine.Running())
}

func TestTimeSignatureChangeRestarts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.engine.Start())
	f.advance(700 * time.Millisecond)
	require.Len(t, f.mainBeats(), 2)
	gen := f.mainBeats()[1].Generation

	require.NoError(t, f.engine.SetTimeSignature("3/4"))
	beats := f.mainBeats()
	require.Len(t, beats, 3)
	assert.Equal(t, 0, beats[2].Slot)
	assert.NotEqual(t, gen, beats[2].Generation)
	assert.Equal(t, 700*time.Millisecond, f.offset(beats[2]))

	f.advance(1500 * time.Millisecond)
	beats = f.mainBeats()
	require.Len(t, beats, 6)
	assert.Equal(t, []int{0, 1, 2, 0}, []int{beats[2].Slot, beats[3].Slot, beats[4].Slot, beats[5].Slot})
	assert.Equal(t, "3/4", f.engine.Settings().TimeSignature)

	err := f.engine.SetTimeSignature("banana")
	assert.ErrorIs(t, err, rhythm.ErrMalformedTimeSignature)
	assert.Equal(t, "4/4", f.engine.Settings().TimeSignature)
	assert.True(t, f.engine.Running())
}

func TestCycleSlotBuildsCustomPattern(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.engine.CycleSlot(1))
	require.NoError(t, f.engine.CycleSlot(3))
	require.NoError(t, f.engine.CycleSlot(3))
	require.NoError(t, f.engine.CycleSlot(3))

	s := f.engine.Settings()
	assert.Equal(t, []string{"accent", "accent", "normal", "off"}, s.CustomPattern)
	assert.Equal(t, "4/4", s.TimeSignature)

	require.NoError(t, f.engine.Start())
	f.advance(1600 * time.Millisecond)
	assert.Equal(t, []rhythm.Kind{rhythm.Accent, rhythm.Accent, rhythm.Normal, rhythm.Accent}, f.audio.plays)
}

func TestCustomPattern(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	err := f.engine.SetCustomPattern([]string{"a", "m", "wat"})
	assert.Error(t, err)
	assert.Equal(t, []string{"accent", "muted", "normal"}, f.engine.Settings().CustomPattern)
	assert.Equal(t, "3/4", f.engine.Settings().TimeSignature)
}

func TestSelectRhythm(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.engine.SetRhythmIntensity(80))
	require.NoError(t, f.engine.SelectRhythm("swing_eighths"))

	snap := f.engine.Snapshot()
	assert.Equal(t, rhythm.FeelSwing, snap.Feel)
	assert.Equal(t, "swing_eighths", snap.RhythmID)
	assert.InDelta(t, 0.8, float64(snap.Intensity), 1e-9)
	assert.Equal(t, rhythm.TimeSignature{Beats: 8, Value: 8}, snap.Signature)

	// 250ms eighths swung at 0.8: 250 * (1 + 0.8*0.6) and 250 * (1 - 0.8*0.6)
	require.NoError(t, f.engine.Start())
	f.advance(505 * time.Millisecond)
	beats := f.mainBeats()
	require.Len(t, beats, 3)
	assert.InDelta(t, float64(370*time.Millisecond), float64(f.offset(beats[1])), float64(time.Millisecond))
	assert.InDelta(t, float64(500*time.Millisecond), float64(f.offset(beats[2])), float64(time.Millisecond))

	assert.ErrorIs(t, f.engine.SelectRhythm("polka"), rhythm.ErrUnknownRhythm)
	assert.Equal(t, "swing_eighths", f.engine.Settings().RhythmDefinitionID)

	require.NoError(t, f.engine.SelectRhythm(""))
	assert.Equal(t, rhythm.FeelNone, f.engine.Snapshot().Feel)
}

func TestSetSoundStopsAndPreloads(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.engine.Start())
	require.NoError(t, f.engine.StopAfter(5*time.Second))

	require.NoError(t, f.engine.SetSound(config.SoundWoodfish))
	assert.False(t, f.engine.Running())
	assert.Empty(t, f.engine.Snapshot().Pending)
	assert.Equal(t, config.SoundWoodfish, f.engine.Settings().SoundID)
	assert.Contains(t, f.audio.preloads, "woodfish/accent")
	assert.Contains(t, f.audio.preloads, "woodfish/normal")

	assert.ErrorIs(t, f.engine.SetSound("kazoo"), audio.ErrUnknownSound)
	assert.Equal(t, config.SoundWoodfish, f.engine.Settings().SoundID)
}

func TestSoundPreviewIsIndependent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.engine.Start())
	f.advance(200 * time.Millisecond)
	before := f.engine.Snapshot().Clock

	require.NoError(t, f.engine.PreviewSound(config.SoundClap))
	assert.True(t, f.engine.Snapshot().Previewing)
	assert.Equal(t, before.Next, f.engine.Snapshot().Clock.Next)
	assert.Equal(t, before.Slot, f.engine.Snapshot().Clock.Slot)

	f.advance(2 * time.Second)
	preview := f.previewBeats()
	require.Len(t, preview, 4)
	kinds := make([]rhythm.Kind, 0, 4)
	for i, b := range preview {
		kinds = append(kinds, b.Kind)
		assert.Equal(t, 200*time.Millisecond+time.Duration(i)*500*time.Millisecond, f.offset(b))
	}
	assert.Equal(t, []rhythm.Kind{rhythm.Accent, rhythm.Normal, rhythm.Accent, rhythm.Normal}, kinds)
	assert.False(t, f.engine.Snapshot().Previewing)
	assert.Len(t, f.preview.plays, 4)
	assert.Equal(t, []string{"clap/accent", "clap/normal", "clap/secondary"}, f.preview.preloads)

	// the main clock kept its own timeline
	main := f.mainBeats()
	require.Len(t, main, 5)
	assert.Equal(t, 2*time.Second, f.offset(main[4]))
	assert.Equal(t, config.SoundMetronomeClick, f.engine.Settings().SoundID)
}

func TestRhythmPreviewScalesAndAutoStops(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.engine.PreviewRhythm("latin_son_clave"))
	assert.False(t, f.engine.Running())

	// latin beats are 0.75 of the preview tempo's: 160 BPM eighths are 187.5ms
	f.advance(200 * time.Millisecond)
	preview := f.previewBeats()
	require.Len(t, preview, 2)
	assert.InDelta(t, float64(187500*time.Microsecond), float64(f.offset(preview[1])), float64(time.Millisecond))

	f.advance(10 * time.Second)
	assert.False(t, f.engine.Snapshot().Previewing)
	count := len(f.previewBeats())
	f.advance(time.Second)
	assert.Len(t, f.previewBeats(), count)

	assert.ErrorIs(t, f.engine.PreviewRhythm("polka"), rhythm.ErrUnknownRhythm)
}

func TestPatternChangeEndsPreview(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.engine.PreviewRhythm("swing_eighths"))
	require.True(t, f.engine.Snapshot().Previewing)

	require.NoError(t, f.engine.SetTimeSignature("2/4"))
	snap := f.engine.Snapshot()
	assert.False(t, snap.Previewing)
	assert.Empty(t, snap.Pending)

	require.NoError(t, f.engine.PreviewSound(config.SoundKickDrum))
	require.NoError(t, f.engine.StopPreview())
	assert.False(t, f.engine.Snapshot().Previewing)
}

func TestAudioAdvisory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.audio.err = errors.New("device unplugged")
	require.NoError(t, f.engine.Start())
	f.advance(3 * time.Second)

	assert.True(t, f.engine.Running())
	assert.Len(t, f.mainBeats(), 7)
	require.Len(t, f.advisories, 1)
	assert.Equal(t, 5, f.advisories[0].Failures)
}

func TestLoadsPersistedSettings(t *testing.T) {
	t.Parallel()

	store := &settings.MemoryStore{}
	require.NoError(t, store.Save(settings.Settings{
		BPM:             90,
		TimeSignature:   "6/8",
		SoundID:         config.SoundHiHatClosed,
		RhythmIntensity: 0.3,
	}))

	f := newFixture(t, func(o *Options) { o.Store = store })
	snap := f.engine.Snapshot()
	assert.Equal(t, 90, snap.BPM)
	assert.Equal(t, []int{0, 3}, f.engine.Pattern().AccentPositions())
	assert.Equal(t, config.SoundHiHatClosed, snap.SoundID)
	assert.Equal(t, []string{"hi_hat_closed/accent", "hi_hat_closed/normal", "hi_hat_closed/secondary"}, f.audio.preloads)
}

func TestChangesArePublished(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.engine.Start())
	_, err := f.engine.StepBPM(2)
	require.NoError(t, err)
	require.NoError(t, f.engine.Stop())

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, 3, f.changes)
}

func TestLoopAndClose(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.engine.Open(context.Background()))
	assert.ErrorIs(t, f.engine.Open(context.Background()), ErrAlreadyOpen)
	require.NoError(t, f.engine.Start())

	for want := 2; want <= 4; want++ {
		require.Eventually(t, func() bool {
			f.clock.Step(10 * time.Millisecond)
			return f.audio.playCount() >= want
		}, 5*time.Second, time.Millisecond)
	}

	require.NoError(t, f.engine.Close())
	assert.NoError(t, f.engine.Close())
	assert.ErrorIs(t, f.engine.Start(), ErrClosed)
	assert.False(t, f.engine.Running())
}
