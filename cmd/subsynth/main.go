package main

import (
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cbegin/subsynth-go"
	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/term"
)

var logger = slog.Default()

func initLogger(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		voices     = flag.Int("voices", 8, "polyphony (size of the voice pool)")
		blockSize  = flag.Int("block", subsynth.DefaultBlockSize, "largest render block in frames")
		backend    = flag.String("backend", "", "audio backend: ebiten|oto (default ebiten, oto when -headless)")
		midiPort   = flag.String("midi", "", "MIDI input name filter; empty picks the first port")
		noMIDI     = flag.Bool("no-midi", false, "disable MIDI input")
		headless   = flag.Bool("headless", false, "run without a window, playing MIDI input and terminal keys")
		debug      = flag.Bool("debug", false, "enable debug logging (adds source location)")
	)
	flag.Parse()

	useTerm := *headless && term.IsTerminal(int(os.Stdin.Fd()))
	var logOut io.Writer = os.Stderr
	if useTerm {
		logOut = crlfWriter{w: os.Stderr}
	}
	initLogger(logOut, *debug)

	backendName := *backend
	if backendName == "" && *headless {
		backendName = string(subsynth.BackendOto)
	}
	be, err := subsynth.ParseBackend(backendName)
	if err != nil {
		fatal("invalid -backend", err)
	}

	sc := &scope{}
	pl, err := subsynth.NewPlayer(*sampleRate,
		subsynth.WithVoices(*voices),
		subsynth.WithBlockSize(*blockSize),
		subsynth.WithBackend(be),
		subsynth.WithSampleTap(sc.Tap),
		subsynth.WithLogger(logger),
	)
	if err != nil {
		fatal("create synth", err)
	}
	kb := subsynth.NewKeyboard(pl)

	logger.Info("subsynth starting",
		"sample_rate", *sampleRate,
		"voices", *voices,
		"block", *blockSize,
		"backend", string(be),
		"headless", *headless,
	)

	var in *midiInput
	if !*noMIDI {
		in, err = openMIDI(*midiPort, pl, kb, logger)
		switch {
		case errors.Is(err, errNoMIDIInput):
			logger.Info("no MIDI input, continuing without")
		case err != nil:
			logger.Warn("MIDI unavailable", "err", err)
		}
	}
	defer in.Close()

	if err := pl.Start(); err != nil {
		fatal("start audio", err)
	}
	defer func() {
		if err := pl.Stop(); err != nil {
			logger.Error("stop audio", "err", err)
		}
	}()

	if *headless {
		var keys *termKeys
		if useTerm {
			keys, err = openTermKeys(pl, kb, logger)
			if err != nil {
				logger.Warn("terminal keys unavailable", "err", err)
			}
		}
		defer keys.Close()
		if in == nil && keys == nil {
			logger.Warn("headless mode without MIDI input or terminal produces no sound")
		}
		var done <-chan struct{}
		if keys != nil {
			done = keys.Done()
		}
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sig:
		case <-done:
		}
		logger.Info("shutting down")
		return
	}

	name := ""
	if in != nil {
		name = in.name
	}
	g := newGame(pl, kb, sc, name)
	defer g.Close()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetWindowTitle("subsynth")
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		fatal("run UI", err)
	}
}

func fatal(msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}
