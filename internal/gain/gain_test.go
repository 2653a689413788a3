package gain

import (
	"math"
	"testing"
)

func TestDecibelConversion(t *testing.T) {
	for _, tc := range []struct {
		db   float64
		want float64
	}{
		{0, 1},
		{-6.0206, 0.5},
		{-20, 0.1},
		{-40, 0.01},
		{20, 10},
	} {
		if got := DecibelsToLinear(tc.db); math.Abs(got-tc.want) > 1e-4 {
			t.Errorf("DecibelsToLinear(%f) = %f, want %f", tc.db, got, tc.want)
		}
	}
}

func TestGainSilenceLimit(t *testing.T) {
	for _, db := range []float64{math.Inf(-1), -1e9, MinDecibels, math.NaN()} {
		g := New(db)
		out := g.Process(0.9)
		if out != 0 || math.IsNaN(out) || math.IsInf(out, 0) {
			t.Errorf("gain %f: got %f, want 0", db, out)
		}
		if g.Linear() != 0 {
			t.Errorf("gain %f: linear %f, want 0", db, g.Linear())
		}
	}
}

func TestGainClampsHigh(t *testing.T) {
	g := New(math.Inf(1))
	if g.Decibels() != MaxDecibels {
		t.Fatalf("expected clamp to %f dB, got %f", MaxDecibels, g.Decibels())
	}
	if out := g.Process(1); math.IsInf(out, 0) || math.IsNaN(out) {
		t.Fatalf("expected finite output, got %f", out)
	}
}

func TestGainProcess(t *testing.T) {
	g := New(-25)
	want := 0.5 * math.Pow(10, -25.0/20)
	if got := g.Process(0.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("process: got %f, want %f", got, want)
	}
}
