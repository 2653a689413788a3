package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/cbegin/subsynth-go"
)

// defaultNotes is a C major arpeggio with an overlapping chord at the end.
const defaultNotes = "60:0:0.4,64:0.25:0.4,67:0.5:0.4,72:0.75:1,64:0.75:1,67:0.75:1"

func main() {
	var (
		outPath    = flag.String("out", "subsynth.wav", "output WAV path")
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		seconds    = flag.Float64("seconds", 3, "render length in seconds")
		notesArg   = flag.String("notes", defaultNotes, "comma-separated key:start:length[:velocity] notes, times in seconds")
		voices     = flag.Int("voices", 8, "polyphony")
		wave       = flag.Int("wave", subsynth.WaveSaw, "waveform: 1 sine, 2 square, 3 saw, 4 triangle")
		filterType = flag.Int("filter", subsynth.FilterLowPass, "filter: 1 low-pass, 2 band-pass, 3 high-pass")
		cutoff     = flag.Float64("cutoff", 2000, "filter cutoff in Hz")
		resonance  = flag.Float64("resonance", 2, "filter resonance (1..5)")
		attack     = flag.Float64("attack", 0.01, "attack seconds")
		decay      = flag.Float64("decay", 0.2, "decay seconds")
		sustain    = flag.Float64("sustain", 0.6, "sustain level (0..1)")
		release    = flag.Float64("release", 0.3, "release seconds")
		gainDB     = flag.Float64("gain", -12, "output gain in dB")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	notes, err := parseNotes(*notesArg)
	if err != nil {
		logger.Error("invalid -notes", "err", err)
		os.Exit(2)
	}

	params := subsynth.DefaultParams()
	params.Envelope.Attack = *attack
	params.Envelope.Decay = *decay
	params.Envelope.Sustain = *sustain
	params.Envelope.Release = *release
	params.GainDB = *gainDB
	// Selector ids are clamped the same way as UI input.
	pl, err := subsynth.NewPlayer(*sampleRate, subsynth.WithParams(params), subsynth.WithLogger(logger))
	if err != nil {
		logger.Error("invalid settings", "err", err)
		os.Exit(2)
	}
	pl.SetWaveform(*wave)
	pl.SetFilter(*filterType, *cutoff, *resonance)
	params = pl.Params()

	logger.Debug("rendering", "notes", len(notes), "seconds", *seconds, "params", fmt.Sprintf("%+v", params))
	samples := subsynth.RenderSamples(notes, *sampleRate, *seconds,
		subsynth.WithVoices(*voices),
		subsynth.WithParams(params),
	)
	wav := subsynth.EncodeWAVFloat32LE(samples, *sampleRate, 2)
	if err := os.WriteFile(*outPath, wav, 0o644); err != nil {
		logger.Error("write WAV", "path", *outPath, "err", err)
		os.Exit(1)
	}
	logger.Info("wrote WAV", "path", *outPath, "frames", len(samples)/2, "bytes", len(wav))
}

func parseNotes(s string) ([]subsynth.Note, error) {
	var notes []subsynth.Note
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		parts := strings.Split(field, ":")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("note %q: want key:start:length[:velocity]", field)
		}
		key, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("note %q: key: %w", field, err)
		}
		vals := make([]float64, len(parts)-1)
		for i, part := range parts[1:] {
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("note %q: %w", field, err)
			}
			vals[i] = v
		}
		n := subsynth.Note{Key: key, Start: vals[0], Length: vals[1], Velocity: 1}
		if len(vals) == 3 {
			n.Velocity = vals[2]
		}
		notes = append(notes, n)
	}
	return notes, nil
}
