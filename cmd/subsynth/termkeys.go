package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cbegin/subsynth-go"
	"golang.org/x/term"
)

// termNotes is the same QWERTY layout as the window; the index is semitones above C.
const termNotes = "awsedftgyhujkol"

// Terminals report no key release, so a press sounds for termHold and
// auto-repeat keeps it going.
const termHold = 300 * time.Millisecond

var errNotTerminal = errors.New("stdin is not a terminal")

// termKeys plays the synth from a raw-mode terminal in headless mode.
type termKeys struct {
	fd     int
	old    *term.State
	pl     *subsynth.Player
	kb     *subsynth.Keyboard
	logger *slog.Logger

	quit     chan struct{}
	quitOnce sync.Once

	mu     sync.Mutex
	octave int
	gen    map[int]uint64
}

func newTermKeys(pl *subsynth.Player, kb *subsynth.Keyboard, logger *slog.Logger) *termKeys {
	return &termKeys{
		fd:     -1,
		pl:     pl,
		kb:     kb,
		logger: logger,
		quit:   make(chan struct{}),
		octave: 4,
		gen:    make(map[int]uint64),
	}
}

func openTermKeys(pl *subsynth.Player, kb *subsynth.Keyboard, logger *slog.Logger) (*termKeys, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errNotTerminal
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("raw terminal: %w", err)
	}
	t := newTermKeys(pl, kb, logger)
	t.fd = fd
	t.old = old
	go t.readLoop(os.Stdin)
	logger.Info("terminal keys active", "notes", termNotes, "octave", "z/x", "quit", "q")
	return t, nil
}

// Done is closed when the user asks to quit or stdin ends.
func (t *termKeys) Done() <-chan struct{} {
	return t.quit
}

func (t *termKeys) readLoop(r io.Reader) {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if !t.handleKey(b) {
				t.stop()
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.logger.Warn("terminal read", "err", err)
			}
			t.stop()
			return
		}
	}
}

// handleKey returns false when the key asks to quit.
func (t *termKeys) handleKey(b byte) bool {
	switch {
	case b == 'q' || b == 0x03:
		return false
	case b == ' ':
		t.releaseAll()
	case b >= '1' && b <= '4':
		t.pl.SetWaveform(int(b - '0'))
	case b >= '5' && b <= '7':
		p := t.pl.Params()
		t.pl.SetFilter(int(b-'4'), p.CutoffHz, p.Resonance)
	case b == 'z' || b == 'x':
		t.mu.Lock()
		if b == 'z' && t.octave > 0 {
			t.octave--
		} else if b == 'x' && t.octave < 8 {
			t.octave++
		}
		t.mu.Unlock()
	default:
		if i := strings.IndexByte(termNotes, b); i >= 0 {
			t.press(i)
		}
	}
	return true
}

func (t *termKeys) press(semitone int) {
	t.mu.Lock()
	note := t.octave*12 + semitone
	t.gen[note]++
	gen := t.gen[note]
	t.mu.Unlock()

	t.kb.Press(subsynth.SourceComputer, note, 0.8)
	time.AfterFunc(termHold, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.gen[note] == gen {
			delete(t.gen, note)
			t.kb.Release(subsynth.SourceComputer, note)
		}
	})
}

func (t *termKeys) releaseAll() {
	t.mu.Lock()
	clear(t.gen)
	t.mu.Unlock()
	t.kb.ReleaseAll(subsynth.SourceComputer)
}

func (t *termKeys) stop() {
	t.quitOnce.Do(func() { close(t.quit) })
}

// Close restores the terminal. The reader goroutine stays blocked on stdin
// until the process exits.
func (t *termKeys) Close() {
	if t == nil {
		return
	}
	t.stop()
	t.releaseAll()
	if t.old != nil {
		_ = term.Restore(t.fd, t.old)
		t.old = nil
	}
}

// crlfWriter keeps log lines aligned while the terminal is in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
