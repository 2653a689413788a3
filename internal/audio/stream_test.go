package audio

import (
	"encoding/binary"
	"io"
	"math"
	"testing"
)

type rampSource struct {
	next     float32
	finished bool
}

func (s *rampSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = s.next
		s.next += 0.25
	}
}

func (s *rampSource) Finished() bool { return s.finished }

func TestStreamReaderEncodesFloat32LE(t *testing.T) {
	src := &rampSource{}
	r := NewStreamReader(src)
	p := make([]byte, 8*3+5)
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 24 {
		t.Fatalf("read %d bytes, want whole frames (24)", n)
	}
	for i := 0; i < 6; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		if want := float32(i) * 0.25; got != want {
			t.Fatalf("sample %d = %f, want %f", i, got, want)
		}
	}
}

func TestStreamReaderShortBuffer(t *testing.T) {
	r := NewStreamReader(&rampSource{})
	if n, err := r.Read(make([]byte, 7)); n != 0 || err != nil {
		t.Fatalf("got n=%d err=%v for sub-frame buffer", n, err)
	}
}

func TestStreamReaderEOFWhenFinished(t *testing.T) {
	src := &rampSource{finished: true}
	r := NewStreamReader(src)
	n, err := r.Read(make([]byte, 16))
	if n != 16 || err != io.EOF {
		t.Fatalf("got n=%d err=%v, want 16 and EOF", n, err)
	}
}

func TestParseBackend(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{"", BackendEbiten, false},
		{"ebiten", BackendEbiten, false},
		{"oto", BackendOto, false},
		{"alsa", "", true},
	} {
		got, err := ParseBackend(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseBackend(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestNewOutputRejectsNilSource(t *testing.T) {
	if _, err := NewOutput(BackendOto, 48000, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}
