package audio

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/tempo/logger"
	"github.com/robmorgan/tempo/rhythm"
)

// Voice is one playable copy of a rendered sound.
type Voice interface {
	// Play starts the voice from its beginning, restarting it if it is still sounding.
	Play() error
	Close() error
}

// Backend turns rendered samples into voices.
type Backend interface {
	NewVoice(samples []float32, sampleRate int) (Voice, error)
}

const (
	defaultVoices = 3
	defaultQueue  = 16
)

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithVoices sets how many voices per kind are rotated through, so a sound that is still ringing
// is not cut off by the next beat.
func WithVoices(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.size = n
		}
	}
}

// WithQueue sets the play request buffer.
func WithQueue(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// Pool is a Dispatcher that owns a set of voices per beat kind and plays them from its own
// goroutine. Play only enqueues, so it never blocks the clock.
type Pool struct {
	backend Backend
	bank    *Bank

	size      int
	queueSize int

	mu     sync.Mutex
	voices map[rhythm.Kind][]Voice
	next   map[rhythm.Kind]int
	closed bool

	// playing is held while a voice plays and while replaced voices are closed
	playing sync.Mutex

	queue chan rhythm.Kind
	done  chan struct{}
	wg    sync.WaitGroup

	log *logrus.Entry
}

// NewPool starts a pool playing through backend. Voices are created by Preload.
func NewPool(backend Backend, bank *Bank, opts ...PoolOption) *Pool {
	p := &Pool{
		backend:   backend,
		bank:      bank,
		size:      defaultVoices,
		queueSize: defaultQueue,
		voices:    make(map[rhythm.Kind][]Voice),
		next:      make(map[rhythm.Kind]int),
		done:      make(chan struct{}),
		log:       logger.WithComponent("audio"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.queue = make(chan rhythm.Kind, p.queueSize)

	p.wg.Add(1)
	go p.run()
	return p
}

// Play queues kind for playback. Muted kinds are accepted and ignored.
func (p *Pool) Play(kind rhythm.Kind) error {
	if !kind.Audible() {
		return nil
	}

	p.mu.Lock()
	closed := p.closed
	loaded := len(p.voices[kind]) > 0
	p.mu.Unlock()

	switch {
	case closed:
		return ErrClosed
	case !loaded:
		return ErrNotLoaded
	}

	select {
	case p.queue <- kind:
		return nil
	default:
		return ErrQueueFull
	}
}

// Preload renders soundID's voice for kind and replaces the voices currently used for it.
func (p *Pool) Preload(kind rhythm.Kind, soundID string) error {
	if !kind.Audible() {
		return nil
	}
	samples, err := p.bank.Render(soundID, kind)
	if err != nil {
		return err
	}

	voices := make([]Voice, 0, p.size)
	for i := 0; i < p.size; i++ {
		v, err := p.backend.NewVoice(samples, p.bank.SampleRate())
		if err != nil {
			closeVoices(voices)
			return err
		}
		voices = append(voices, v)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		closeVoices(voices)
		return ErrClosed
	}
	old := p.voices[kind]
	p.voices[kind] = voices
	p.next[kind] = 0
	p.mu.Unlock()

	p.playing.Lock()
	closeVoices(old)
	p.playing.Unlock()

	p.log.WithFields(logrus.Fields{
		"sound":  soundID,
		"kind":   kind.String(),
		"voices": len(voices),
	}).Debug("preloaded")
	return nil
}

// Close stops the playback goroutine and releases every voice.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.done)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	for kind, voices := range p.voices {
		closeVoices(voices)
		delete(p.voices, kind)
	}
	return nil
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case kind := <-p.queue:
			p.play(kind)
		}
	}
}

func (p *Pool) play(kind rhythm.Kind) {
	p.mu.Lock()
	voices := p.voices[kind]
	if len(voices) == 0 {
		p.mu.Unlock()
		return
	}
	i := p.next[kind] % len(voices)
	p.next[kind] = i + 1
	v := voices[i]
	p.mu.Unlock()

	p.playing.Lock()
	err := v.Play()
	p.playing.Unlock()

	if err != nil {
		p.log.WithFields(logrus.Fields{
			"kind":  kind.String(),
			"voice": i,
		}).WithError(err).Warn("voice failed to play")
	}
}

func closeVoices(voices []Voice) {
	for _, v := range voices {
		_ = v.Close()
	}
}
