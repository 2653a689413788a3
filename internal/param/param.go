// Package param holds the global synth parameters shared by all voices and
// the lock-free store used to publish them to the audio goroutine.
package param

import (
	"sync/atomic"

	"github.com/cbegin/subsynth-go/internal/envelope"
	"github.com/cbegin/subsynth-go/internal/filter"
	"github.com/cbegin/subsynth-go/internal/gain"
	"github.com/cbegin/subsynth-go/internal/osc"
)

// Params is one immutable parameter snapshot. Voices read it at block start.
type Params struct {
	Waveform  osc.Waveform
	Filter    filter.Type
	CutoffHz  float64
	Resonance float64
	Envelope  envelope.Parameters
	GainDB    float64
}

// DefaultParams matches the state of a freshly prepared plug-in instance.
func DefaultParams() Params {
	return Params{
		Waveform:  osc.Sine,
		Filter:    filter.LowPass,
		CutoffHz:  filter.DefaultCutoffHz,
		Resonance: filter.DefaultResonance,
		Envelope: envelope.Parameters{
			Attack:  0.1,
			Decay:   0.1,
			Sustain: 0.1,
			Release: 0.1,
		},
		GainDB: -25,
	}
}

// Sanitize clamps every field into its valid range. Cutoff is clamped
// against the Nyquist limit of sampleRate.
func (p Params) Sanitize(sampleRate float64) Params {
	p.Waveform = osc.FromIndex(int(p.Waveform))
	p.Filter = filter.TypeFromIndex(int(p.Filter))
	p.CutoffHz = filter.ClampCutoff(sampleRate, p.CutoffHz)
	p.Resonance = filter.ClampResonance(p.Resonance)
	p.Envelope = p.Envelope.Clamp()
	g := gain.New(p.GainDB)
	p.GainDB = g.Decibels()
	return p
}

// Store publishes Params snapshots. Writers copy, modify and swap; the
// audio goroutine only loads.
type Store struct {
	sampleRate float64
	current    atomic.Pointer[Params]
	version    atomic.Uint64
}

func NewStore(sampleRate float64, initial Params) *Store {
	s := &Store{sampleRate: sampleRate}
	p := initial.Sanitize(sampleRate)
	s.current.Store(&p)
	s.version.Store(1)
	return s
}

// Load returns the current snapshot. Callers must not modify it.
func (s *Store) Load() *Params {
	return s.current.Load()
}

// Version increments on every successful update.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// Set replaces the snapshot.
func (s *Store) Set(p Params) {
	clean := p.Sanitize(s.sampleRate)
	s.current.Store(&clean)
	s.version.Add(1)
}

// Update applies fn to a copy of the current snapshot and publishes it.
// Concurrent writers are serialized with compare-and-swap.
func (s *Store) Update(fn func(*Params)) Params {
	for {
		old := s.current.Load()
		next := *old
		fn(&next)
		next = next.Sanitize(s.sampleRate)
		if s.current.CompareAndSwap(old, &next) {
			s.version.Add(1)
			return next
		}
	}
}
