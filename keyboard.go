package subsynth

import "sync"

// KeySource identifies where a key press came from.
type KeySource uint8

const (
	SourceScreen KeySource = 1 << iota
	SourceComputer
	SourceMIDI
)

type noteSink interface {
	NoteOn(note int, velocity float64)
	NoteOff(note int)
}

// Keyboard tracks which keys are held by each input so that the same note
// pressed from two inputs sounds once and stops when the last one lets go.
type Keyboard struct {
	mu   sync.Mutex
	sink noteSink
	held [128]KeySource
}

func NewKeyboard(sink noteSink) *Keyboard {
	return &Keyboard{sink: sink}
}

// Press returns true when the note was not held by any input before.
func (k *Keyboard) Press(src KeySource, note int, velocity float64) bool {
	if note < 0 || note > 127 {
		return false
	}
	k.mu.Lock()
	was := k.held[note]
	k.held[note] |= src
	k.mu.Unlock()
	if was != 0 {
		return false
	}
	k.sink.NoteOn(note, velocity)
	return true
}

// Release returns true when this was the last input holding the note.
func (k *Keyboard) Release(src KeySource, note int) bool {
	if note < 0 || note > 127 {
		return false
	}
	k.mu.Lock()
	was := k.held[note]
	k.held[note] &^= src
	now := k.held[note]
	k.mu.Unlock()
	if was == 0 || now != 0 {
		return false
	}
	k.sink.NoteOff(note)
	return true
}

// ReleaseAll lets go of every key held by src.
func (k *Keyboard) ReleaseAll(src KeySource) {
	for note := 0; note < len(k.held); note++ {
		k.Release(src, note)
	}
}

func (k *Keyboard) IsDown(note int) bool {
	if note < 0 || note > 127 {
		return false
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.held[note] != 0
}
