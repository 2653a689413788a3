package filter

import (
	"math"
	"testing"
)

func rms(f *SVF, hz, sampleRate float64, n int) float64 {
	var sum float64
	for i := 0; i < n; i++ {
		x := math.Sin(2 * math.Pi * hz * float64(i) / sampleRate)
		y := f.ProcessSample(x)
		if i >= n/2 {
			sum += y * y
		}
	}
	return math.Sqrt(sum / float64(n-n/2))
}

func TestFilterTypesShapeSpectrum(t *testing.T) {
	const sr = 48000.0
	for _, tc := range []struct {
		name     string
		typ      Type
		passHz   float64
		rejectHz float64
	}{
		{"lowpass", LowPass, 100, 10000},
		{"highpass", HighPass, 10000, 100},
		{"bandpass", BandPass, 1000, 20},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := New(sr)
			f.Configure(tc.typ, sr, 1000, 1)
			pass := rms(f, tc.passHz, sr, 9600)
			f.Reset()
			reject := rms(f, tc.rejectHz, sr, 9600)
			if pass <= reject*2 {
				t.Errorf("%s: pass band rms %f should dominate reject band rms %f", tc.name, pass, reject)
			}
		})
	}
}

func TestFilterModeSwitchKeepsState(t *testing.T) {
	const sr = 48000.0
	a := New(sr)
	b := New(sr)
	a.Configure(LowPass, sr, 800, 2)
	b.Configure(LowPass, sr, 800, 2)
	for i := 0; i < 500; i++ {
		x := math.Sin(2 * math.Pi * 220 * float64(i) / sr)
		a.ProcessSample(x)
		b.ProcessSample(x)
	}
	b.SetType(HighPass)
	a1, a2 := a.State()
	b1, b2 := b.State()
	if a1 != b1 || a2 != b2 {
		t.Fatalf("type change must not touch state: %f,%f vs %f,%f", a1, a2, b1, b2)
	}
	for i := 500; i < 1000; i++ {
		x := math.Sin(2 * math.Pi * 220 * float64(i) / sr)
		a.ProcessSample(x)
		b.ProcessSample(x)
		s1, s2 := a.State()
		if got1, got2 := b.State(); got1 != s1 || got2 != s2 {
			t.Fatalf("state diverged at sample %d", i)
		}
	}
}

func TestFilterModeSwitchHasNoTransient(t *testing.T) {
	// After a switch the output matches a filter that ran in the new mode
	// from the start, so the switch itself adds no step.
	const sr = 48000.0
	switched := New(sr)
	reference := New(sr)
	switched.Configure(LowPass, sr, 1200, 3)
	reference.Configure(BandPass, sr, 1200, 3)
	for i := 0; i < 2000; i++ {
		if i == 1000 {
			switched.SetType(BandPass)
		}
		x := 0.8 * math.Sin(2*math.Pi*330*float64(i)/sr)
		got := switched.ProcessSample(x)
		want := reference.ProcessSample(x)
		if i >= 1000 && got != want {
			t.Fatalf("sample %d: switched %f, reference %f", i, got, want)
		}
	}
}

func TestFilterClampsParameters(t *testing.T) {
	f := New(48000)
	f.Configure(LowPass, 48000, -50, 0.2)
	if f.Cutoff() != MinCutoffHz {
		t.Errorf("negative cutoff should clamp to %f, got %f", MinCutoffHz, f.Cutoff())
	}
	if f.Resonance() != MinResonance {
		t.Errorf("low resonance should clamp to %f, got %f", MinResonance, f.Resonance())
	}
	f.Configure(HighPass, 48000, 96000, 40)
	if f.Cutoff() >= 24000 {
		t.Errorf("cutoff should stay below Nyquist, got %f", f.Cutoff())
	}
	if f.Resonance() != MaxResonance {
		t.Errorf("high resonance should clamp to %f, got %f", MaxResonance, f.Resonance())
	}
	f.Configure(Type(9), 48000, math.NaN(), math.NaN())
	if f.Type() != HighPass || f.Cutoff() != ClampCutoff(48000, DefaultCutoffHz) || f.Resonance() != DefaultResonance {
		t.Errorf("invalid inputs should clamp to defaults, got %v %f %f", f.Type(), f.Cutoff(), f.Resonance())
	}
	for i := 0; i < 1000; i++ {
		if y := f.ProcessSample(1); math.IsNaN(y) || math.IsInf(y, 0) {
			t.Fatalf("unstable output %f", y)
		}
	}
}
