package tap

import (
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/tempo/config"
	"github.com/robmorgan/tempo/logger"
	"github.com/robmorgan/tempo/utils"
)

// Estimator turns a stream of tap timestamps into a tempo.
type Estimator struct {
	mu sync.Mutex

	cfg            config.TapConfig
	minBPM, maxBPM int

	taps []time.Time

	log *logrus.Entry
}

// NewEstimator returns an empty estimator whose estimates are clamped to [minBPM, maxBPM].
func NewEstimator(cfg config.TapConfig, minBPM, maxBPM int) *Estimator {
	if cfg.Window < 2 {
		cfg.Window = 2
	}
	return &Estimator{
		cfg:    cfg,
		minBPM: minBPM,
		maxBPM: maxBPM,
		taps:   make([]time.Time, 0, cfg.Window),
		log:    logger.WithComponent("tap"),
	}
}

// Tap records a tap at now. Once two or more taps are in the window it returns the estimate and true.
// A gap outside the accepted interval range starts a fresh sequence at now.
func (e *Estimator) Tap(now time.Time) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.expire(now)

	if n := len(e.taps); n > 0 {
		gap := now.Sub(e.taps[n-1])
		if gap < e.cfg.MinInterval || gap > e.cfg.MaxInterval {
			e.log.WithFields(logrus.Fields{
				"gap":  gap,
				"taps": n,
			}).Debug("tap outside interval range, restarting")
			e.taps = append(e.taps[:0], now)
			return 0, false
		}
	}

	if len(e.taps) == e.cfg.Window {
		copy(e.taps, e.taps[1:])
		e.taps = e.taps[:len(e.taps)-1]
	}
	e.taps = append(e.taps, now)

	if len(e.taps) < 2 {
		return 0, false
	}
	return e.estimate(), true
}

// Expire clears the window when no tap arrived within the idle timeout. It reports whether the
// window was cleared.
func (e *Estimator) Expire(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expire(now)
}

// Deadline returns the instant the window expires, false when it is empty.
func (e *Estimator) Deadline() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.taps) == 0 {
		return time.Time{}, false
	}
	return e.taps[len(e.taps)-1].Add(e.cfg.IdleTimeout), true
}

// Reset empties the window.
func (e *Estimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.taps = e.taps[:0]
}

// Count returns the number of taps in the window.
func (e *Estimator) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.taps)
}

func (e *Estimator) expire(now time.Time) bool {
	n := len(e.taps)
	if n == 0 || now.Sub(e.taps[n-1]) <= e.cfg.IdleTimeout {
		return false
	}
	e.taps = e.taps[:0]
	return true
}

func (e *Estimator) estimate() int {
	span := e.taps[len(e.taps)-1].Sub(e.taps[0])
	avg := utils.DurationToMilliseconds(span) / float64(len(e.taps)-1)
	bpm := int(math.Round(60000 / avg))
	return utils.Clamp(bpm, e.minBPM, e.maxBPM)
}
