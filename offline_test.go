package subsynth

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestEncodeWAVHeader(t *testing.T) {
	wav := EncodeWAVFloat32LE([]float32{0, 0.5, -0.5, 1}, 48000, 2)
	if len(wav) != 44+16 {
		t.Fatalf("length = %d", len(wav))
	}
	for _, tc := range []struct {
		off  int
		want string
	}{{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}, {36, "data"}} {
		if got := string(wav[tc.off : tc.off+4]); got != tc.want {
			t.Fatalf("chunk at %d = %q, want %q", tc.off, got, tc.want)
		}
	}
	if got := binary.LittleEndian.Uint16(wav[20:]); got != 3 {
		t.Fatalf("format = %d, want IEEE float (3)", got)
	}
	if got := binary.LittleEndian.Uint32(wav[24:]); got != 48000 {
		t.Fatalf("sample rate = %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[28:]); got != 48000*2*4 {
		t.Fatalf("byte rate = %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:]); got != 16 {
		t.Fatalf("data size = %d", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(wav[48:])); got != 0.5 {
		t.Fatalf("second sample = %f", got)
	}
}

func TestRenderSamplesSilentWithoutNotes(t *testing.T) {
	out := RenderSamples(nil, 48000, 0.1)
	if len(out) != 2*4800 {
		t.Fatalf("len = %d", len(out))
	}
	for i, s := range out {
		if s != 0 {
			t.Fatalf("sample %d = %f", i, s)
		}
	}
}

func TestRenderSamplesNoteStartsOnItsFrame(t *testing.T) {
	notes := []Note{{Key: 69, Velocity: 1, Start: 0.01, Length: 0.05}}
	out := RenderSamples(notes, 48000, 0.5, WithBlockSize(128))
	start := 480
	for i := 0; i < start*2; i++ {
		if out[i] != 0 {
			t.Fatalf("sample %d non-zero before note start", i)
		}
	}
	var peak float64
	for _, s := range out[start*2 : 48000/10*2] {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	if peak == 0 {
		t.Fatal("expected note output")
	}
	// Default release is 0.1s, so the tail is gone by 0.3s.
	for i := int(0.3*48000) * 2; i < len(out); i++ {
		if out[i] != 0 {
			t.Fatalf("sample %d non-zero after release", i)
		}
	}
}

func TestRenderSamplesDeterministic(t *testing.T) {
	notes := []Note{
		{Key: 60, Velocity: 1, Start: 0, Length: 0.2},
		{Key: 64, Velocity: 1, Start: 0.05, Length: 0.2},
		{Key: 67, Velocity: 1, Start: 0.1, Length: 0.2},
	}
	a := RenderSamples(notes, 44100, 0.5, WithVoices(2))
	b := RenderSamples(notes, 44100, 0.5, WithVoices(2), WithBlockSize(37))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs across block sizes: %f vs %f", i, a[i], b[i])
		}
	}
}
