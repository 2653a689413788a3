package subsynth

import (
	"cmp"
	"encoding/binary"
	"math"
	"slices"

	intmidi "github.com/cbegin/subsynth-go/internal/midi"
)

// Note is one note of an offline render. Times are in seconds.
type Note struct {
	Key      int
	Velocity float64
	Start    float64
	Length   float64
}

type timedEvent struct {
	frame int
	ev    intmidi.Event
}

// RenderSamples renders notes to interleaved stereo float32 for the given
// duration. Note events land on their exact sample.
func RenderSamples(notes []Note, sampleRate int, seconds float64, opts ...PlayerOption) []float32 {
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.voices <= 0 {
		cfg.voices = defaultPlayerConfig().voices
	}
	if cfg.blockSize <= 0 {
		cfg.blockSize = DefaultBlockSize
	}
	engine := newEngine(sampleRate, cfg)

	timeline := make([]timedEvent, 0, len(notes)*2)
	for _, n := range notes {
		on := int(math.Round(n.Start * float64(sampleRate)))
		off := int(math.Round((n.Start + n.Length) * float64(sampleRate)))
		vel := n.Velocity
		if vel <= 0 {
			vel = 1
		}
		timeline = append(timeline,
			timedEvent{frame: on, ev: intmidi.NoteOnEvent(0, n.Key, vel)},
			timedEvent{frame: max(off, on), ev: intmidi.NoteOffEvent(0, n.Key, 0)},
		)
	}
	slices.SortStableFunc(timeline, func(a, b timedEvent) int {
		return cmp.Compare(a.frame, b.frame)
	})

	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)
	left := make([]float32, cfg.blockSize)
	right := make([]float32, cfg.blockSize)
	planar := make([][]float32, 2)
	events := make([]intmidi.Event, 0, len(timeline))
	next := 0
	for pos := 0; pos < frames; {
		n := min(frames-pos, cfg.blockSize)
		events = events[:0]
		for next < len(timeline) && timeline[next].frame < pos+n {
			ev := timeline[next].ev
			ev.Offset = max(timeline[next].frame-pos, 0)
			events = append(events, ev)
			next++
		}
		planar[0] = left[:n]
		planar[1] = right[:n]
		clear(planar[0])
		clear(planar[1])
		engine.Process(planar, events)
		for i := 0; i < n; i++ {
			out[(pos+i)*2] = left[i]
			out[(pos+i)*2+1] = right[i]
		}
		pos += n
	}
	if cfg.sampleTap != nil {
		cfg.sampleTap(out)
	}
	return out
}

func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
