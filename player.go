package subsynth

import (
	"errors"
	"log/slog"
	"sync"

	intaudio "github.com/cbegin/subsynth-go/internal/audio"
	"github.com/cbegin/subsynth-go/internal/filter"
	intmidi "github.com/cbegin/subsynth-go/internal/midi"
	"github.com/cbegin/subsynth-go/internal/osc"
	"github.com/cbegin/subsynth-go/internal/param"
	"github.com/cbegin/subsynth-go/internal/synth"
)

// Params is the global sound patch shared by every voice.
type Params = param.Params

func DefaultParams() Params { return param.DefaultParams() }

// Waveform selector ids.
const (
	WaveSine     = int(osc.Sine)
	WaveSquare   = int(osc.Square)
	WaveSaw      = int(osc.Saw)
	WaveTriangle = int(osc.Triangle)
)

// Filter selector ids.
const (
	FilterLowPass  = int(filter.LowPass)
	FilterBandPass = int(filter.BandPass)
	FilterHighPass = int(filter.HighPass)
)

type Backend = intaudio.Backend

const (
	BackendEbiten = intaudio.BackendEbiten
	BackendOto    = intaudio.BackendOto
)

// ParseBackend maps a command-line name to a Backend.
func ParseBackend(name string) (Backend, error) { return intaudio.ParseBackend(name) }

const DefaultBlockSize = 256

type PlayerOption func(*playerConfig)

type playerConfig struct {
	voices    int
	params    Params
	blockSize int
	backend   Backend
	sampleTap func([]float32)
	logger    *slog.Logger
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		voices:    synth.DefaultVoices,
		params:    param.DefaultParams(),
		blockSize: DefaultBlockSize,
		backend:   BackendEbiten,
		logger:    slog.Default(),
	}
}

// WithVoices sets the size of the voice pool.
func WithVoices(n int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.voices = n
	}
}

func WithParams(p Params) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.params = p
	}
}

// WithBlockSize sets the largest block rendered in one engine call.
func WithBlockSize(n int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.blockSize = n
	}
}

func WithBackend(b Backend) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.backend = b
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

func WithLogger(l *slog.Logger) PlayerOption {
	return func(cfg *playerConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// Player is a live synthesizer: control methods may be called from any
// goroutine while the audio backend pulls samples.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	engine     *synth.Engine
	source     *engineSource
	backend    Backend
	audio      intaudio.Output
	logger     *slog.Logger
}

// engineSource renders the engine in fixed-size planar blocks and
// interleaves them into the backend's stereo buffer.
type engineSource struct {
	engine    *synth.Engine
	left      []float32
	right     []float32
	planar    [][]float32
	sampleTap func([]float32)
}

func newEngineSource(engine *synth.Engine, blockSize int, tap func([]float32)) *engineSource {
	return &engineSource{
		engine:    engine,
		left:      make([]float32, blockSize),
		right:     make([]float32, blockSize),
		planar:    make([][]float32, 2),
		sampleTap: tap,
	}
}

func (s *engineSource) Process(dst []float32) {
	frames := len(dst) / 2
	for pos := 0; pos < frames; {
		n := min(frames-pos, len(s.left))
		s.planar[0] = s.left[:n]
		s.planar[1] = s.right[:n]
		clear(s.planar[0])
		clear(s.planar[1])
		s.engine.RenderBlock(s.planar, 0, n)
		for i := 0; i < n; i++ {
			dst[(pos+i)*2] = s.left[i]
			dst[(pos+i)*2+1] = s.right[i]
		}
		pos += n
	}
	if s.sampleTap != nil {
		s.sampleTap(dst)
	}
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.voices <= 0 {
		return nil, errors.New("voice count must be positive")
	}
	if cfg.blockSize <= 0 {
		return nil, errors.New("block size must be positive")
	}
	engine := newEngine(sampleRate, cfg)
	cfg.logger.Debug("synth created",
		"sample_rate", sampleRate,
		"voices", cfg.voices,
		"block_size", cfg.blockSize,
		"backend", string(cfg.backend),
	)
	return &Player{
		sampleRate: sampleRate,
		engine:     engine,
		source:     newEngineSource(engine, cfg.blockSize, cfg.sampleTap),
		backend:    cfg.backend,
		logger:     cfg.logger,
	}, nil
}

func newEngine(sampleRate int, cfg playerConfig) *synth.Engine {
	return synth.New(sampleRate, synth.Config{
		Voices:    cfg.voices,
		Params:    cfg.params,
		QueueSize: synth.DefaultQueueSize,
	})
}

// Start opens the audio backend and begins playback.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
		return nil
	}
	out, err := intaudio.NewOutput(p.backend, p.sampleRate, p.source)
	if err != nil {
		return err
	}
	p.audio = out
	p.audio.Play()
	p.logger.Info("audio started", "backend", string(p.backend), "sample_rate", p.sampleRate)
	return nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

// Stop silences every voice and closes the backend.
func (p *Player) Stop() error {
	p.engine.AllNotesOff(false)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	p.logger.Info("audio stopped")
	return err
}

// Process renders interleaved stereo frames into dst. It is the pull
// function the backend uses and can drive the synth without one.
func (p *Player) Process(dst []float32) {
	p.source.Process(dst)
}

func (p *Player) NoteOn(note int, velocity float64) {
	if !p.engine.NoteOn(note, velocity) {
		p.logger.Warn("event queue full, note-on dropped", "note", note)
	}
}

func (p *Player) NoteOff(note int) {
	if !p.engine.NoteOff(note, 0) {
		p.logger.Warn("event queue full, note-off dropped", "note", note)
	}
}

// AllNotesOff releases every sounding note with its normal tail.
func (p *Player) AllNotesOff() {
	if !p.engine.AllNotesOff(true) {
		p.logger.Warn("event queue full, all-notes-off dropped")
	}
}

// HandleMIDI decodes a raw MIDI message and forwards it to the engine.
// Messages the synth does not use are ignored.
func (p *Player) HandleMIDI(msg []byte) {
	ev, ok := intmidi.Decode(msg, 0)
	if !ok {
		return
	}
	p.logger.Debug("midi", "event", ev.String())
	if !p.engine.Send(ev) {
		p.logger.Warn("event queue full, midi dropped", "event", ev.String())
	}
}

func (p *Player) SetWaveform(id int) { p.engine.SetWaveform(id) }

func (p *Player) SetADSR(attack, decay, sustain, release float64) {
	p.engine.SetADSR(attack, decay, sustain, release)
}

func (p *Player) SetFilter(typ int, cutoffHz, resonance float64) {
	p.engine.SetFilter(typ, cutoffHz, resonance)
}

func (p *Player) SetGain(db float64) { p.engine.SetGain(db) }

func (p *Player) SetParams(params Params) { p.engine.SetParams(params) }

func (p *Player) Params() Params { return p.engine.Params() }

func (p *Player) SampleRate() int { return p.sampleRate }

// ActiveVoices is the number of sounding voices as of the last block.
func (p *Player) ActiveVoices() int { return p.engine.ActiveVoiceCount() }

func (p *Player) VoiceCount() int { return p.engine.VoiceCount() }
