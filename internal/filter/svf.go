// Package filter provides the per-voice state-variable filter.
package filter

import "math"

// Type selects the SVF output. Values match the UI selector ids.
type Type int

const (
	LowPass Type = iota + 1
	BandPass
	HighPass
)

const (
	MinCutoffHz      = 10.0
	MaxCutoffRatio   = 0.49 // fraction of the sample rate
	MinResonance     = 1.0
	MaxResonance     = 5.0
	DefaultCutoffHz  = 20000.0
	DefaultResonance = 2.0
)

// TypeFromIndex maps a selector id to a Type, clamping out-of-range ids.
func TypeFromIndex(i int) Type {
	if i < int(LowPass) {
		return LowPass
	}
	if i > int(HighPass) {
		return HighPass
	}
	return Type(i)
}

func (t Type) String() string {
	switch t {
	case LowPass:
		return "lowpass"
	case BandPass:
		return "bandpass"
	case HighPass:
		return "highpass"
	default:
		return "unknown"
	}
}

// SVF is a zero-delay-feedback state variable filter with two integrator
// states. It filters a single mono signal.
type SVF struct {
	typ        Type
	sampleRate float64
	cutoff     float64
	resonance  float64

	g  float64 // pre-warped frequency coefficient
	k  float64 // damping, 1/Q
	a1 float64
	a2 float64
	a3 float64

	ic1eq float64
	ic2eq float64
}

// New returns a lowpass SVF at the default cutoff and resonance.
func New(sampleRate float64) *SVF {
	s := &SVF{}
	s.Configure(LowPass, sampleRate, DefaultCutoffHz, DefaultResonance)
	return s
}

// Configure sets mode and recomputes coefficients. Out-of-range values are
// clamped; integrator state is left untouched.
func (s *SVF) Configure(t Type, sampleRate, cutoffHz, resonance float64) {
	s.typ = TypeFromIndex(int(t))
	if sampleRate <= 0 || math.IsNaN(sampleRate) {
		sampleRate = 48000
	}
	s.sampleRate = sampleRate
	s.cutoff = ClampCutoff(sampleRate, cutoffHz)
	s.resonance = ClampResonance(resonance)

	s.g = math.Tan(math.Pi * s.cutoff / s.sampleRate)
	s.k = 1 / s.resonance
	s.a1 = 1 / (1 + s.g*(s.g+s.k))
	s.a2 = s.g * s.a1
	s.a3 = s.g * s.a2
}

// SetType switches the output mode for the next sample.
func (s *SVF) SetType(t Type) {
	s.typ = TypeFromIndex(int(t))
}

func (s *SVF) Type() Type          { return s.typ }
func (s *SVF) Cutoff() float64     { return s.cutoff }
func (s *SVF) Resonance() float64  { return s.resonance }
func (s *SVF) SampleRate() float64 { return s.sampleRate }

// State returns the two integrator states.
func (s *SVF) State() (float64, float64) { return s.ic1eq, s.ic2eq }

// Reset clears the integrators.
func (s *SVF) Reset() {
	s.ic1eq = 0
	s.ic2eq = 0
}

// ProcessSample filters one sample with the selected mode.
func (s *SVF) ProcessSample(x float64) float64 {
	v3 := x - s.ic2eq
	v1 := s.a1*s.ic1eq + s.a2*v3
	v2 := s.ic2eq + s.a2*s.ic1eq + s.a3*v3
	s.ic1eq = 2*v1 - s.ic1eq
	s.ic2eq = 2*v2 - s.ic2eq

	switch s.typ {
	case BandPass:
		return v1
	case HighPass:
		return x - s.k*v1 - v2
	default:
		return v2
	}
}

// ClampCutoff keeps a cutoff inside [MinCutoffHz, MaxCutoffRatio*sampleRate].
// NaN falls back to the default cutoff.
func ClampCutoff(sampleRate, hz float64) float64 {
	if math.IsNaN(hz) {
		hz = DefaultCutoffHz
	}
	hi := sampleRate * MaxCutoffRatio
	if hz > hi {
		hz = hi
	}
	if hz < MinCutoffHz {
		hz = MinCutoffHz
	}
	return hz
}

// ClampResonance keeps Q inside [MinResonance, MaxResonance].
func ClampResonance(q float64) float64 {
	if math.IsNaN(q) {
		return DefaultResonance
	}
	if q < MinResonance {
		return MinResonance
	}
	if q > MaxResonance {
		return MaxResonance
	}
	return q
}
