package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cbegin/subsynth-go"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

var errNoMIDIInput = errors.New("no MIDI input available")

// midiInput routes a hardware port into the synth. Note messages go through
// the keyboard so on-screen and MIDI presses merge; everything else goes
// straight to the player.
type midiInput struct {
	drv    *rtmididrv.Driver
	in     drivers.In
	stop   func()
	name   string
	logger *slog.Logger
}

func listMIDIInputs(drv *rtmididrv.Driver) ([]drivers.In, error) {
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	return ins, nil
}

// openMIDI connects to the first input whose name contains want
// (case-insensitive), or the first input when want is empty.
func openMIDI(want string, pl *subsynth.Player, kb *subsynth.Keyboard, logger *slog.Logger) (*midiInput, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("MIDI driver: %w", err)
	}
	ins, err := listMIDIInputs(drv)
	if err != nil {
		_ = drv.Close()
		return nil, err
	}
	var found drivers.In
	for _, in := range ins {
		logger.Debug("MIDI input present", "device", in.String())
		if found == nil && (want == "" || strings.Contains(strings.ToLower(in.String()), strings.ToLower(want))) {
			found = in
		}
	}
	if found == nil {
		_ = drv.Close()
		if want != "" {
			return nil, fmt.Errorf("MIDI input %q not found", want)
		}
		return nil, errNoMIDIInput
	}
	if err := found.Open(); err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("open MIDI port %q: %w", found.String(), err)
	}
	m := &midiInput{drv: drv, in: found, name: found.String(), logger: logger}
	stop, err := midi.ListenTo(found, func(msg midi.Message, _ int32) {
		m.onMessage(msg, pl, kb)
	}, midi.HandleError(func(listenErr error) {
		logger.Warn("MIDI listener error", "device", m.name, "err", listenErr)
	}))
	if err != nil {
		_ = found.Close()
		_ = drv.Close()
		return nil, fmt.Errorf("listen on %q: %w", m.name, err)
	}
	m.stop = stop
	logger.Info("MIDI input connected", "device", m.name)
	return m, nil
}

func (m *midiInput) onMessage(msg midi.Message, pl *subsynth.Player, kb *subsynth.Keyboard) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		m.logger.Debug("MIDI note start", "ch", ch, "key", key, "vel", vel)
		kb.Press(subsynth.SourceMIDI, int(key), float64(vel)/127)
	case msg.GetNoteEnd(&ch, &key):
		m.logger.Debug("MIDI note end", "ch", ch, "key", key)
		kb.Release(subsynth.SourceMIDI, int(key))
	default:
		pl.HandleMIDI(msg)
	}
}

func (m *midiInput) Close() {
	if m == nil {
		return
	}
	m.logger.Info("closing MIDI connection", "device", m.name)
	if m.stop != nil {
		m.stop()
	}
	_ = m.in.Close()
	_ = m.drv.Close()
}
