package osc

import "math"

const twoPi = math.Pi * 2

// Waveform selects the oscillator shape. Values match the UI selector ids.
type Waveform int

const (
	Sine Waveform = iota + 1
	Square
	Saw
	Triangle
)

// FromIndex maps a selector id to a Waveform, clamping out-of-range ids.
func FromIndex(i int) Waveform {
	if i < int(Sine) {
		return Sine
	}
	if i > int(Triangle) {
		return Triangle
	}
	return Waveform(i)
}

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Saw:
		return "saw"
	case Triangle:
		return "triangle"
	default:
		return "unknown"
	}
}

// Sample maps a phase in [-π, π) to a value in [-1, 1].
// Square and saw are not band-limited and alias at high pitches.
func (w Waveform) Sample(phase float64) float64 {
	switch w {
	case Square:
		if phase < 0 {
			return -1
		}
		return 1
	case Saw:
		return phase / math.Pi
	case Triangle:
		return triangle(phase)
	default:
		return math.Sin(phase)
	}
}

// triangle is the three-segment shape: 0 to -1 over the first quarter,
// -1 to 1 over the middle half, 1 to 0 over the last quarter.
func triangle(phase float64) float64 {
	const half = math.Pi / 2
	switch {
	case phase <= -half:
		return remap(phase, -math.Pi, -half, 0, -1)
	case phase <= half:
		return remap(phase, -half, half, -1, 1)
	default:
		return remap(phase, half, math.Pi, 1, 0)
	}
}

func remap(x, inLo, inHi, outLo, outHi float64) float64 {
	return outLo + (x-inLo)*(outHi-outLo)/(inHi-inLo)
}

// Oscillator is a phase accumulator driving a Waveform.
// It is owned by a single voice and is not safe for concurrent use.
type Oscillator struct {
	waveform Waveform
	phase    float64 // current phase [-π, π)
	inc      float64 // phase increment per sample
	freq     float64
}

// New returns an oscillator positioned at the start of its period.
func New(w Waveform) *Oscillator {
	o := &Oscillator{}
	o.SetWaveform(w)
	o.Reset()
	return o
}

// SetWaveform changes the shape without touching the phase.
func (o *Oscillator) SetWaveform(w Waveform) {
	o.waveform = FromIndex(int(w))
}

func (o *Oscillator) Waveform() Waveform { return o.waveform }

// SetFrequency sets the pitch. Negative and NaN frequencies become 0 and the
// frequency is kept below Nyquist.
func (o *Oscillator) SetFrequency(sampleRate, hz float64) {
	if sampleRate <= 0 || math.IsNaN(hz) || hz < 0 {
		hz = 0
	}
	if nyquist := sampleRate / 2; hz >= nyquist {
		hz = math.Nextafter(nyquist, 0)
	}
	o.freq = hz
	if sampleRate > 0 {
		o.inc = twoPi * hz / sampleRate
	} else {
		o.inc = 0
	}
}

func (o *Oscillator) Frequency() float64 { return o.freq }

// Phase returns the current phase in [-π, π).
func (o *Oscillator) Phase() float64 { return o.phase }

// Next returns the sample at the current phase and advances one sample.
func (o *Oscillator) Next() float64 {
	s := o.waveform.Sample(o.phase)
	o.phase += o.inc
	for o.phase >= math.Pi {
		o.phase -= twoPi
	}
	return s
}

// Reset moves the phase back to the start of the period.
func (o *Oscillator) Reset() {
	o.phase = -math.Pi
}
