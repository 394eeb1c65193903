package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/robmorgan/tempo/config"
	"github.com/robmorgan/tempo/engine"
	"github.com/robmorgan/tempo/logger"
	"github.com/robmorgan/tempo/settings"
)

const GlobalFPS = 40

type options struct {
	bpm       int
	signature string
	sound     string
	rhythm    string
	rhythms   string
	midiPort  string
	stopAfter time.Duration
	settings  string
	logFile   string
	level     string
	silent    bool
	list      bool
}

func parseFlags() options {
	var o options
	flag.IntVar(&o.bpm, "bpm", 0, "start tempo, 0 keeps the saved tempo")
	flag.StringVar(&o.signature, "sig", "", "time signature, e.g. 3/4 or 6/8")
	flag.StringVar(&o.sound, "sound", "", "sound id (see -list)")
	flag.StringVar(&o.rhythm, "rhythm", "", "named rhythm id (see -list)")
	flag.StringVar(&o.rhythms, "rhythms", "", "YAML file with extra rhythm definitions")
	flag.StringVar(&o.midiPort, "midi", "", "also send beats to the MIDI output whose name contains this")
	flag.DurationVar(&o.stopAfter, "stop-after", 0, "stop playback this long after every start")
	flag.StringVar(&o.settings, "settings", "", "settings file (default: user config dir)")
	flag.StringVar(&o.logFile, "log", "tempo.log", "log file, the terminal is used for the console")
	flag.StringVar(&o.level, "level", "info", "log level")
	flag.BoolVar(&o.silent, "silent", false, "do not open the audio device")
	flag.BoolVar(&o.list, "list", false, "list sounds, rhythms and MIDI outputs and exit")
	flag.Parse()
	return o
}

func main() {
	o := parseFlags()
	if err := Run(context.Background(), o); err != nil {
		fmt.Fprintln(os.Stderr, "tempo:", err)
		os.Exit(1)
	}
}

// Run starts the console
func Run(ctx context.Context, o options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := logger.GetProjectLogger()
	if err := logger.SetLevel(o.level); err != nil {
		return err
	}
	if !o.list {
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	log.Info("Initializing config...")
	cfg := config.NewMetronomeConfig()
	if o.rhythms != "" {
		if _, err := config.LoadRhythms(cfg.Rhythms, o.rhythms); err != nil {
			return err
		}
	}
	defer midi.CloseDriver()

	if o.list {
		list(cfg)
		return nil
	}

	path := o.settings
	if path == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	log.Info("Patching outputs...")
	outputs := PatchOutputs(cfg, outputOptions{silent: o.silent, midiPort: o.midiPort}, log)
	defer func() {
		if err := outputs.Close(); err != nil {
			log.WithError(err).Warn("closing outputs")
		}
	}()

	ev := newEvents()
	log.Info("Initializing engine...")
	e := engine.New(engine.Options{
		Config:     cfg,
		Audio:      outputs.Main,
		Preview:    outputs.Preview,
		Haptics:    ev.haptics(),
		Store:      settings.NewFileStore(path, cfg),
		OnBeat:     ev.beat,
		OnAdvisory: ev.advisory,
		OnChange:   ev.change,
	})
	defer e.Close()

	if err := applyFlags(e, o); err != nil {
		log.WithError(err).Warn("ignoring invalid start option")
	}
	if err := e.Open(ctx); err != nil {
		return err
	}

	p := tea.NewProgram(newModel(e, cfg, ev, o.stopAfter), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	log.Info("shutting down tempo")
	return err
}

func applyFlags(e *engine.Engine, o options) error {
	if o.bpm != 0 {
		if _, err := e.SetBPM(o.bpm); err != nil {
			return err
		}
	}
	if o.signature != "" {
		if err := e.SetTimeSignature(o.signature); err != nil {
			return err
		}
	}
	if o.rhythm != "" {
		if err := e.SelectRhythm(o.rhythm); err != nil {
			return err
		}
	}
	if o.sound != "" {
		return e.SetSound(o.sound)
	}
	return nil
}

func list(cfg config.MetronomeConfig) {
	fmt.Println("sounds:")
	for _, id := range sortedSounds(cfg) {
		fmt.Printf("  %s\n", id)
	}
	fmt.Println("rhythms:")
	for _, d := range cfg.Rhythms.All() {
		m := d.Describe()
		fmt.Printf("  %-18s %-8s %-6s %s\n", m.ID, m.Style, m.Signature, m.Name)
	}
	fmt.Println("midi outputs:")
	for _, out := range midi.GetOutPorts() {
		fmt.Printf("  %s\n", out.String())
	}
}
