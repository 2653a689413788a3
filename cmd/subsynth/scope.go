package main

import (
	"math"
	"sync/atomic"
)

const scopeLen = 8192

// scope keeps the most recent mono samples for display. Tap runs on the
// audio goroutine and only does atomic stores.
type scope struct {
	ring     [scopeLen]atomic.Uint32
	writePos atomic.Uint64
}

func (s *scope) Tap(samples []float32) {
	pos := s.writePos.Load()
	for i := 0; i+1 < len(samples); i += 2 {
		mono := (samples[i] + samples[i+1]) * 0.5
		s.ring[pos%scopeLen].Store(math.Float32bits(mono))
		pos++
	}
	s.writePos.Store(pos)
}

// Snapshot copies the latest n samples into dst, oldest first.
func (s *scope) Snapshot(dst []float32) []float32 {
	n := min(len(dst), scopeLen)
	end := s.writePos.Load()
	start := end - uint64(n)
	if end < uint64(n) {
		start = 0
	}
	dst = dst[:0]
	for p := start; p < end; p++ {
		dst = append(dst, math.Float32frombits(s.ring[p%scopeLen].Load()))
	}
	return dst
}

// findZeroCrossing finds a rising zero-crossing in samples to stabilize the waveform display.
func findZeroCrossing(samples []float32, searchLen int) int {
	if searchLen > len(samples)-2 {
		searchLen = len(samples) - 2
	}
	for i := 1; i < searchLen; i++ {
		if samples[i-1] <= 0 && samples[i] > 0 {
			return i
		}
	}
	return 0
}
