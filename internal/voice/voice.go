// Package voice implements one note's signal chain:
// oscillator -> filter -> gain -> envelope.
package voice

import (
	"math"

	"github.com/cbegin/subsynth-go/internal/envelope"
	"github.com/cbegin/subsynth-go/internal/filter"
	"github.com/cbegin/subsynth-go/internal/gain"
	"github.com/cbegin/subsynth-go/internal/osc"
	"github.com/cbegin/subsynth-go/internal/param"
)

// Sound describes what a voice may be asked to play.
type Sound interface {
	AppliesToNote(note int) bool
	AppliesToChannel(channel int) bool
}

// Subtractive is the single sound this synth knows how to play.
type Subtractive struct{}

func (*Subtractive) AppliesToNote(int) bool    { return true }
func (*Subtractive) AppliesToChannel(int) bool { return true }

// State is the voice lifecycle.
type State int

const (
	Idle State = iota
	Playing
	Releasing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Releasing:
		return "releasing"
	default:
		return "unknown"
	}
}

// NoNote is reported by Note when the voice holds no note.
const NoNote = -1

// MidiNoteToHz converts a MIDI note number to equal-tempered frequency.
func MidiNoteToHz(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

// Voice renders a single note. It is owned by the audio goroutine.
type Voice struct {
	sampleRate float64
	osc        osc.Oscillator
	filter     filter.SVF
	gain       gain.Gain
	env        envelope.ADSR

	state    State
	note     int
	velocity float64
	applied  *param.Params
}

// New returns an idle voice configured with p.
func New(sampleRate float64, p *param.Params) *Voice {
	v := &Voice{note: NoNote}
	v.Prepare(sampleRate)
	if p != nil {
		v.Apply(p)
	}
	return v
}

// Prepare sets the sample rate and clears all runtime state.
func (v *Voice) Prepare(sampleRate float64) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) {
		sampleRate = 48000
	}
	v.sampleRate = sampleRate
	v.osc.SetWaveform(osc.Sine)
	v.osc.Reset()
	v.filter.Configure(filter.LowPass, sampleRate, filter.DefaultCutoffHz, filter.DefaultResonance)
	v.filter.Reset()
	v.env.SetSampleRate(sampleRate)
	v.env.Reset()
	v.gain.SetDecibels(0)
	v.state = Idle
	v.note = NoNote
	v.applied = nil
}

// Apply configures the chain from a parameter snapshot. Re-applying the
// snapshot that is already in effect does nothing.
func (v *Voice) Apply(p *param.Params) {
	if p == nil || p == v.applied {
		return
	}
	v.applied = p
	v.osc.SetWaveform(p.Waveform)
	v.filter.Configure(p.Filter, v.sampleRate, p.CutoffHz, p.Resonance)
	v.env.SetParameters(p.Envelope)
	v.gain.SetDecibels(p.GainDB)
}

// CanPlay reports whether s is a sound this voice can render.
func (v *Voice) CanPlay(s Sound) bool {
	sub, ok := s.(*Subtractive)
	return ok && sub != nil
}

// StartNote assigns a note. A voice taken over while still sounding keeps
// its filter state and envelope level so the hand-over does not click.
func (v *Voice) StartNote(note int, velocity float64, s Sound) {
	if note < 0 {
		note = 0
	}
	if note > 127 {
		note = 127
	}
	if v.state == Idle {
		v.osc.Reset()
		v.filter.Reset()
	}
	v.note = note
	v.velocity = clampUnit(velocity)
	v.osc.SetFrequency(v.sampleRate, MidiNoteToHz(note))
	v.env.NoteOn()
	v.state = Playing
}

// StopNote releases the note. Without tail-off the voice goes idle at once.
func (v *Voice) StopNote(velocity float64, allowTailOff bool) {
	if v.state == Idle {
		return
	}
	if !allowTailOff {
		v.clear()
		return
	}
	v.env.NoteOff()
	v.state = Releasing
}

// PitchWheelMoved is accepted but has no effect on the sound.
func (v *Voice) PitchWheelMoved(int) {}

// ControllerMoved is accepted but has no effect on the sound.
func (v *Voice) ControllerMoved(int, int) {}

// Render adds numSamples of this voice into every channel of out starting at
// startSample. Out-of-range requests are trimmed to the buffer.
func (v *Voice) Render(out [][]float32, startSample, numSamples int) {
	if v.state == Idle || len(out) == 0 || startSample < 0 {
		return
	}
	end := startSample + numSamples
	for _, ch := range out {
		if len(ch) < end {
			end = len(ch)
		}
	}
	for i := startSample; i < end; i++ {
		s := v.osc.Next()
		s = v.filter.ProcessSample(s)
		s = v.gain.Process(s)
		s *= v.env.Next()
		fs := float32(s)
		for _, ch := range out {
			ch[i] += fs
		}
	}
	if !v.env.IsActive() {
		v.clear()
	}
}

func (v *Voice) clear() {
	v.env.Reset()
	v.state = Idle
	v.note = NoNote
}

func (v *Voice) State() State                  { return v.state }
func (v *Voice) IsActive() bool                { return v.state != Idle }
func (v *Voice) Note() int                     { return v.note }
func (v *Voice) Velocity() float64             { return v.velocity }
func (v *Voice) Frequency() float64            { return v.osc.Frequency() }
func (v *Voice) Level() float64                { return v.env.Level() }
func (v *Voice) EnvelopeStage() envelope.Stage { return v.env.Stage() }
func (v *Voice) Waveform() osc.Waveform        { return v.osc.Waveform() }
func (v *Voice) FilterType() filter.Type       { return v.filter.Type() }
func (v *Voice) GainDecibels() float64         { return v.gain.Decibels() }

func clampUnit(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
