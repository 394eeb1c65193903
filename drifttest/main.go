package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/tempo/config"
	"github.com/robmorgan/tempo/engine"
	"github.com/robmorgan/tempo/logger"
	"github.com/robmorgan/tempo/settings"
)

// drifttest runs the engine against the real clock without audio and reports how closely the
// beats followed their schedule.
func main() {
	var (
		bpm       = flag.Int("bpm", 120, "tempo")
		signature = flag.String("sig", "4/4", "time signature")
		rhythmID  = flag.String("rhythm", "", "named rhythm, overrides -sig")
		intensity = flag.Float64("intensity", 0.5, "humanization intensity for -rhythm")
		duration  = flag.Duration("duration", 10*time.Second, "how long to run")
		level     = flag.String("level", "warn", "log level")
	)
	flag.Parse()

	log := logger.GetProjectLogger()
	if err := logger.SetLevel(*level); err != nil {
		log.Fatalf("invalid log level. err='%v'", err)
	}

	rec := &recorder{}
	done := make(chan struct{})
	var once sync.Once

	cfg := config.NewMetronomeConfig()
	e := engine.New(engine.Options{
		Config: cfg,
		Store:  &settings.MemoryStore{Config: cfg},
		OnBeat: rec.beat,
		OnChange: func(s engine.Snapshot) {
			if !s.Running && rec.count() > 0 {
				once.Do(func() { close(done) })
			}
		},
	})

	if _, err := e.SetBPM(*bpm); err != nil {
		log.Fatalf("invalid tempo. err='%v'", err)
	}
	if err := e.SetTimeSignature(*signature); err != nil {
		log.WithError(err).Warn("using 4/4")
	}
	if *rhythmID != "" {
		if err := e.SetRhythmIntensity(*intensity); err != nil {
			log.Fatalf("invalid intensity. err='%v'", err)
		}
		if err := e.SelectRhythm(*rhythmID); err != nil {
			log.Fatalf("unknown rhythm. err='%v'", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := e.Open(ctx); err != nil {
		log.Fatalf("could not open engine. err='%v'", err)
	}

	log.WithFields(logrus.Fields{
		"bpm":      *bpm,
		"pattern":  e.Pattern().Labels(),
		"duration": *duration,
	}).Info("running")

	if err := e.Start(); err != nil {
		log.Fatalf("could not start. err='%v'", err)
	}
	if err := e.StopAfter(*duration); err != nil {
		log.Fatalf("could not schedule stop. err='%v'", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	select {
	case <-done:
	case <-quit:
		_ = e.Stop()
	}

	snap := e.Snapshot()
	if err := e.Close(); err != nil {
		log.WithError(err).Warn("close")
	}
	rec.report(os.Stdout, snap)
}

type recorder struct {
	mu    sync.Mutex
	beats []engine.Beat
}

func (r *recorder) beat(b engine.Beat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beats = append(r.beats, b)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.beats)
}

// report prints lateness against each beat's due time. The first beat fires on Start and is its
// own reference.
func (r *recorder) report(w io.Writer, snap engine.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.beats) < 2 {
		fmt.Fprintln(w, "not enough beats to report")
		return
	}

	var (
		sum, sumSq float64
		worst      time.Duration
	)
	for _, b := range r.beats[1:] {
		late := b.At.Sub(b.Due)
		ms := float64(late) / float64(time.Millisecond)
		sum += ms
		sumSq += ms * ms
		if late > worst {
			worst = late
		}
	}
	n := float64(len(r.beats) - 1)
	mean := sum / n
	stddev := math.Sqrt(math.Max(sumSq/n-mean*mean, 0))
	span := r.beats[len(r.beats)-1].At.Sub(r.beats[0].At)

	fmt.Fprintf(w, "beats      %d over %s\n", len(r.beats), span.Round(time.Millisecond))
	fmt.Fprintf(w, "late mean  %.3fms\n", mean)
	fmt.Fprintf(w, "late sd    %.3fms\n", stddev)
	fmt.Fprintf(w, "late max   %s\n", worst)
	fmt.Fprintf(w, "drift      %s\n", snap.Clock.Drift)
	fmt.Fprintf(w, "resyncs    %d\n", snap.Clock.Resyncs)
}
