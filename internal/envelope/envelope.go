// Package envelope provides the linear ADSR volume envelope used by voices.
package envelope

import "math"

// Stage is the current envelope segment.
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Parameters holds segment times in seconds and the sustain level.
type Parameters struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// Clamp returns p with negative or NaN times set to 0 and sustain in [0, 1].
func (p Parameters) Clamp() Parameters {
	return Parameters{
		Attack:  clampTime(p.Attack),
		Decay:   clampTime(p.Decay),
		Sustain: clampLevel(p.Sustain),
		Release: clampTime(p.Release),
	}
}

// ADSR is a linear attack/decay/sustain/release generator. Note-on and
// note-off continue from the current level so retriggers never click.
type ADSR struct {
	sampleRate float64
	params     Parameters
	stage      Stage
	level      float64
	step       float64 // per-sample increment magnitude for the current stage
}

// New returns an idle envelope.
func New(sampleRate float64, p Parameters) *ADSR {
	e := &ADSR{}
	e.SetSampleRate(sampleRate)
	e.SetParameters(p)
	return e
}

func (e *ADSR) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) {
		sampleRate = 48000
	}
	e.sampleRate = sampleRate
	e.recompute()
}

// SetParameters updates the segment times. The increment of the running
// segment is recomputed so the change is heard immediately.
func (e *ADSR) SetParameters(p Parameters) {
	e.params = p.Clamp()
	e.recompute()
}

func (e *ADSR) Parameters() Parameters { return e.params }
func (e *ADSR) Stage() Stage           { return e.stage }
func (e *ADSR) Level() float64         { return e.level }

// NoteOn enters the attack stage from whatever level the envelope is at.
func (e *ADSR) NoteOn() {
	e.stage = StageAttack
	e.recompute()
}

// NoteOff enters the release stage from attack, decay or sustain.
func (e *ADSR) NoteOff() {
	switch e.stage {
	case StageAttack, StageDecay, StageSustain:
		e.stage = StageRelease
		e.recompute()
	}
}

// Reset forces the envelope to idle at level 0.
func (e *ADSR) Reset() {
	e.stage = StageIdle
	e.level = 0
	e.step = 0
}

// IsActive is false only when idle at level 0.
func (e *ADSR) IsActive() bool {
	return e.stage != StageIdle || e.level > 0
}

// Next advances one sample and returns the new level.
func (e *ADSR) Next() float64 {
	switch e.stage {
	case StageAttack:
		e.level += e.step
		if e.level >= 1 {
			e.level = 1
			e.stage = StageDecay
			e.recompute()
		}
	case StageDecay:
		e.level -= e.step
		if e.level <= e.params.Sustain {
			e.level = e.params.Sustain
			e.stage = StageSustain
			e.step = 0
		}
	case StageSustain:
		e.level = e.params.Sustain
	case StageRelease:
		e.level -= e.step
		if e.level <= 0 {
			e.level = 0
			e.stage = StageIdle
			e.step = 0
		}
	case StageIdle:
		e.level = 0
	}
	return e.level
}

// recompute sets the increment that carries the current level to the
// current stage's target over that stage's full time. A zero-length stage
// gets an infinite step and completes on the next sample.
func (e *ADSR) recompute() {
	switch e.stage {
	case StageAttack:
		e.step = e.rate(1-e.level, e.params.Attack)
	case StageDecay:
		e.step = e.rate(e.level-e.params.Sustain, e.params.Decay)
	case StageRelease:
		e.step = e.rate(e.level, e.params.Release)
	default:
		e.step = 0
	}
}

func (e *ADSR) rate(distance, seconds float64) float64 {
	samples := seconds * e.sampleRate
	if samples < 1 {
		return math.Inf(1)
	}
	if distance <= 0 {
		// Already at or past the target; move on next sample.
		return math.Inf(1)
	}
	return distance / samples
}

func clampTime(s float64) float64 {
	if math.IsNaN(s) || s < 0 {
		return 0
	}
	return s
}

func clampLevel(l float64) float64 {
	if math.IsNaN(l) || l < 0 {
		return 0
	}
	if l > 1 {
		return 1
	}
	return l
}
