// Package synth is the polyphonic engine: a fixed pool of voices, note
// allocation with stealing, and block rendering driven by timestamped events.
package synth

import (
	"cmp"
	"slices"
	"sync/atomic"

	"github.com/cbegin/subsynth-go/internal/envelope"
	"github.com/cbegin/subsynth-go/internal/filter"
	"github.com/cbegin/subsynth-go/internal/midi"
	"github.com/cbegin/subsynth-go/internal/osc"
	"github.com/cbegin/subsynth-go/internal/param"
	"github.com/cbegin/subsynth-go/internal/voice"
)

const (
	DefaultVoices    = 8
	DefaultQueueSize = 1024
)

// Voice is what the engine needs from a pool member.
type Voice interface {
	CanPlay(s voice.Sound) bool
	StartNote(note int, velocity float64, s voice.Sound)
	StopNote(velocity float64, allowTailOff bool)
	Render(out [][]float32, startSample, numSamples int)
	Apply(p *param.Params)
	PitchWheelMoved(value int)
	ControllerMoved(controller, value int)
	Note() int
	State() voice.State
}

var _ Voice = (*voice.Voice)(nil)

type Config struct {
	Voices    int
	Params    param.Params
	QueueSize int
}

func DefaultConfig() Config {
	return Config{
		Voices:    DefaultVoices,
		Params:    param.DefaultParams(),
		QueueSize: DefaultQueueSize,
	}
}

type slot struct {
	v        Voice
	started  uint64
	released uint64
}

// Engine mixes a fixed set of voices. RenderBlock and Process belong to the
// audio goroutine; every other method is safe to call from any goroutine.
type Engine struct {
	sampleRate float64
	sound      *voice.Subtractive
	voices     []slot
	params     *param.Store
	applied    *param.Params
	queue      *midi.Queue
	clock      uint64
	active     atomic.Int32
}

// New builds an engine with cfg.Voices subtractive voices.
func New(sampleRate int, cfg Config) *Engine {
	cfg = withDefaults(cfg)
	voices := make([]Voice, cfg.Voices)
	for i := range voices {
		voices[i] = voice.New(float64(sampleRate), nil)
	}
	return NewWithVoices(sampleRate, cfg, voices)
}

// NewWithVoices builds an engine around caller-supplied voices. cfg.Voices
// is ignored.
func NewWithVoices(sampleRate int, cfg Config, voices []Voice) *Engine {
	cfg = withDefaults(cfg)
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	e := &Engine{
		sampleRate: float64(sampleRate),
		sound:      &voice.Subtractive{},
		voices:     make([]slot, len(voices)),
		params:     param.NewStore(float64(sampleRate), cfg.Params),
		queue:      midi.NewQueue(cfg.QueueSize),
	}
	for i, v := range voices {
		e.voices[i].v = v
	}
	e.applyParams()
	return e
}

func withDefaults(cfg Config) Config {
	if cfg.Voices <= 0 {
		cfg.Voices = DefaultVoices
	}
	if cfg.Params == (param.Params{}) {
		cfg.Params = param.DefaultParams()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	return cfg
}

func (e *Engine) SampleRate() float64 { return e.sampleRate }
func (e *Engine) VoiceCount() int     { return len(e.voices) }

// ActiveVoiceCount is the number of sounding voices as of the last
// rendered block.
func (e *Engine) ActiveVoiceCount() int { return int(e.active.Load()) }

// NoteOn queues a note start for the next block. It reports false when the
// event queue is full.
func (e *Engine) NoteOn(note int, velocity float64) bool {
	return e.queue.Push(midi.NoteOnEvent(0, note, velocity))
}

func (e *Engine) NoteOff(note int, velocity float64) bool {
	return e.queue.Push(midi.NoteOffEvent(0, note, velocity))
}

// AllNotesOff releases every voice, or silences them at once when
// allowTailOff is false.
func (e *Engine) AllNotesOff(allowTailOff bool) bool {
	cc := midi.CCAllNotesOff
	if !allowTailOff {
		cc = midi.CCAllSoundOff
	}
	return e.queue.Push(midi.ControlEvent(0, cc, 0))
}

// Send queues an arbitrary event. The offset is ignored.
func (e *Engine) Send(ev midi.Event) bool {
	ev.Offset = 0
	return e.queue.Push(ev)
}

func (e *Engine) Params() param.Params { return *e.params.Load() }

func (e *Engine) SetParams(p param.Params) { e.params.Set(p) }

func (e *Engine) SetWaveform(id int) {
	e.params.Update(func(p *param.Params) { p.Waveform = osc.FromIndex(id) })
}

func (e *Engine) SetADSR(attack, decay, sustain, release float64) {
	e.params.Update(func(p *param.Params) {
		p.Envelope = envelope.Parameters{Attack: attack, Decay: decay, Sustain: sustain, Release: release}
	})
}

func (e *Engine) SetFilter(typ int, cutoffHz, resonance float64) {
	e.params.Update(func(p *param.Params) {
		p.Filter = filter.TypeFromIndex(typ)
		p.CutoffHz = cutoffHz
		p.Resonance = resonance
	})
}

func (e *Engine) SetGain(db float64) {
	e.params.Update(func(p *param.Params) { p.GainDB = db })
}

// RenderBlock applies pending parameters and queued events, then adds
// numSamples of every active voice into out from startSample.
func (e *Engine) RenderBlock(out [][]float32, startSample, numSamples int) {
	e.beginBlock()
	e.renderVoices(out, startSample, numSamples)
	e.updateActive()
}

// Process renders one full block of out while applying events at their
// sample offsets. Events are sorted in place; equal offsets keep their
// order. Offsets outside the block are clamped to it.
func (e *Engine) Process(out [][]float32, events []midi.Event) {
	n := blockLen(out)
	e.beginBlock()
	slices.SortStableFunc(events, func(a, b midi.Event) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	pos := 0
	for i := range events {
		off := min(max(events[i].Offset, 0), n)
		if off > pos {
			e.renderVoices(out, pos, off-pos)
			pos = off
		}
		e.handle(events[i])
	}
	if pos < n {
		e.renderVoices(out, pos, n-pos)
	}
	e.updateActive()
}

func blockLen(out [][]float32) int {
	if len(out) == 0 {
		return 0
	}
	n := len(out[0])
	for _, ch := range out[1:] {
		n = min(n, len(ch))
	}
	return n
}

func (e *Engine) beginBlock() {
	e.applyParams()
	for {
		ev, ok := e.queue.Pop()
		if !ok {
			return
		}
		e.handle(ev)
	}
}

func (e *Engine) applyParams() {
	p := e.params.Load()
	if p == e.applied {
		return
	}
	e.applied = p
	for i := range e.voices {
		e.voices[i].v.Apply(p)
	}
}

func (e *Engine) renderVoices(out [][]float32, start, n int) {
	if n <= 0 {
		return
	}
	for i := range e.voices {
		v := e.voices[i].v
		if v.State() != voice.Idle {
			v.Render(out, start, n)
		}
	}
}

func (e *Engine) updateActive() {
	n := int32(0)
	for i := range e.voices {
		if e.voices[i].v.State() != voice.Idle {
			n++
		}
	}
	e.active.Store(n)
}

func (e *Engine) handle(ev midi.Event) {
	switch ev.Kind {
	case midi.NoteOn:
		if ev.Velocity <= 0 {
			e.noteOff(ev.Note, 0)
			return
		}
		e.noteOn(ev.Note, ev.Velocity)
	case midi.NoteOff:
		e.noteOff(ev.Note, ev.Velocity)
	case midi.ControlChange:
		switch ev.Controller {
		case midi.CCAllNotesOff:
			e.allNotesOff(true)
		case midi.CCAllSoundOff:
			e.allNotesOff(false)
		default:
			for i := range e.voices {
				if v := e.voices[i].v; v.State() != voice.Idle {
					v.ControllerMoved(ev.Controller, ev.Value)
				}
			}
		}
	case midi.PitchBend:
		for i := range e.voices {
			if v := e.voices[i].v; v.State() != voice.Idle {
				v.PitchWheelMoved(ev.Bend + 8192)
			}
		}
	}
}

func (e *Engine) noteOn(note int, velocity float64) {
	note = min(max(note, 0), 127)
	idx := e.findVoice(note)
	if idx < 0 {
		return
	}
	e.clock++
	s := &e.voices[idx]
	s.started = e.clock
	s.released = 0
	s.v.StartNote(note, velocity, e.sound)
}

func (e *Engine) noteOff(note int, velocity float64) {
	for i := range e.voices {
		s := &e.voices[i]
		if s.v.State() == voice.Playing && s.v.Note() == note {
			e.clock++
			s.released = e.clock
			s.v.StopNote(velocity, true)
		}
	}
}

func (e *Engine) allNotesOff(allowTailOff bool) {
	for i := range e.voices {
		s := &e.voices[i]
		switch s.v.State() {
		case voice.Playing:
			e.clock++
			s.released = e.clock
			s.v.StopNote(0, allowTailOff)
		case voice.Releasing:
			if !allowTailOff {
				s.v.StopNote(0, false)
			}
		}
	}
}

// findVoice picks the voice for a new note: the one already holding the
// note, else an idle voice, else the longest-releasing one, else the
// oldest playing one. It returns -1 when no voice can play the sound.
func (e *Engine) findVoice(note int) int {
	idle, releasing, playing := -1, -1, -1
	for i := range e.voices {
		s := &e.voices[i]
		if !s.v.CanPlay(e.sound) {
			continue
		}
		st := s.v.State()
		if st != voice.Idle && s.v.Note() == note {
			return i
		}
		switch st {
		case voice.Idle:
			if idle < 0 {
				idle = i
			}
		case voice.Releasing:
			if releasing < 0 || s.released < e.voices[releasing].released {
				releasing = i
			}
		case voice.Playing:
			if playing < 0 || s.started < e.voices[playing].started {
				playing = i
			}
		}
	}
	switch {
	case idle >= 0:
		return idle
	case releasing >= 0:
		return releasing
	default:
		return playing
	}
}
