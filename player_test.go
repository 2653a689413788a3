package subsynth

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestNewPlayerValidatesOptions(t *testing.T) {
	if _, err := NewPlayer(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := NewPlayer(48000, WithVoices(0)); err == nil {
		t.Fatal("expected error for empty voice pool")
	}
	if _, err := NewPlayer(48000, WithBlockSize(-1)); err == nil {
		t.Fatal("expected error for negative block size")
	}
	pl, err := NewPlayer(48000, WithVoices(3))
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	if pl.VoiceCount() != 3 {
		t.Fatalf("voice count = %d, want 3", pl.VoiceCount())
	}
}

func TestPlayerDefaultParams(t *testing.T) {
	pl, err := NewPlayer(48000)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	p := pl.Params()
	if int(p.Waveform) != WaveSine || int(p.Filter) != FilterLowPass || p.GainDB != -25 || p.Resonance != 2 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestPlayerRuntimeParameterAPI(t *testing.T) {
	pl, err := NewPlayer(48000)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	pl.SetWaveform(WaveSquare)
	pl.SetADSR(0.2, 0.3, 0.4, 0.5)
	pl.SetFilter(FilterBandPass, 800, 3)
	pl.SetGain(-6)
	p := pl.Params()
	if int(p.Waveform) != WaveSquare || int(p.Filter) != FilterBandPass {
		t.Fatalf("selectors not applied: %+v", p)
	}
	if p.Envelope.Attack != 0.2 || p.Envelope.Release != 0.5 || p.CutoffHz != 800 || p.Resonance != 3 || p.GainDB != -6 {
		t.Fatalf("values not applied: %+v", p)
	}
	pl.SetGain(math.Inf(1))
	if got := pl.Params().GainDB; got != 24 {
		t.Fatalf("gain should clamp to +24 dB, got %v", got)
	}
}

func TestPlayerProcessInterleavesAcrossBlocks(t *testing.T) {
	var tapped int
	pl, err := NewPlayer(48000,
		WithBlockSize(64),
		WithParams(Params{Waveform: 3, Filter: 1, CutoffHz: 20000, Resonance: 1, GainDB: 0}),
		WithSampleTap(func(buf []float32) { tapped += len(buf) }),
	)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	pl.SetADSR(0, 0, 1, 0.1)
	pl.NoteOn(57, 1)
	buf := make([]float32, 2*200)
	pl.Process(buf)
	if tapped != len(buf) {
		t.Fatalf("tap saw %d samples, want %d", tapped, len(buf))
	}
	if pl.ActiveVoices() != 1 {
		t.Fatalf("active voices = %d, want 1", pl.ActiveVoices())
	}
	var energy float64
	for i := 0; i < len(buf); i += 2 {
		if buf[i] != buf[i+1] {
			t.Fatalf("frame %d: left %f right %f", i/2, buf[i], buf[i+1])
		}
		energy += math.Abs(float64(buf[i]))
	}
	if energy == 0 {
		t.Fatal("expected non-zero output")
	}
}

func TestPlayerHandleMIDI(t *testing.T) {
	pl, err := NewPlayer(48000)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	buf := make([]float32, 2*128)
	pl.HandleMIDI(gomidi.NoteOn(0, 60, 100))
	pl.HandleMIDI(gomidi.NoteOn(0, 64, 100))
	pl.Process(buf)
	if pl.ActiveVoices() != 2 {
		t.Fatalf("active voices = %d, want 2", pl.ActiveVoices())
	}
	pl.HandleMIDI(gomidi.ControlChange(0, 120, 0))
	pl.Process(buf)
	if pl.ActiveVoices() != 0 {
		t.Fatalf("active voices = %d after all sound off", pl.ActiveVoices())
	}
	pl.HandleMIDI([]byte{0xFE})
}

func TestPlayerLogsDroppedEvents(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	pl, err := NewPlayer(48000, WithLogger(logger))
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	// Nothing drains the queue without Process.
	for i := 0; i < 2000; i++ {
		pl.NoteOn(60, 1)
	}
	if !strings.Contains(logs.String(), "event queue full") {
		t.Fatalf("expected a dropped-event warning, got %q", logs.String())
	}
}

func TestPlayerStopWithoutStart(t *testing.T) {
	pl, err := NewPlayer(48000)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	if err := pl.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
