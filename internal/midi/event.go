// Package midi carries note and controller events from control goroutines
// and hosts to the synth engine.
package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

type Kind uint8

const (
	NoteOn Kind = iota + 1
	NoteOff
	ControlChange
	PitchBend
)

func (k Kind) String() string {
	switch k {
	case NoteOn:
		return "note-on"
	case NoteOff:
		return "note-off"
	case ControlChange:
		return "control-change"
	case PitchBend:
		return "pitch-bend"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Controller numbers the engine reacts to.
const (
	CCAllSoundOff = 120
	CCAllNotesOff = 123
)

// Event is a timestamped control event. Offset is the sample position
// within the block being rendered.
type Event struct {
	Offset     int
	Kind       Kind
	Channel    int
	Note       int
	Velocity   float64
	Controller int
	Value      int
	// Bend is the signed 14-bit pitch wheel position, centre 0.
	Bend int
}

func NoteOnEvent(offset, note int, velocity float64) Event {
	return Event{Offset: offset, Kind: NoteOn, Note: note, Velocity: velocity}
}

func NoteOffEvent(offset, note int, velocity float64) Event {
	return Event{Offset: offset, Kind: NoteOff, Note: note, Velocity: velocity}
}

func ControlEvent(offset, controller, value int) Event {
	return Event{Offset: offset, Kind: ControlChange, Controller: controller, Value: value}
}

func PitchBendEvent(offset, bend int) Event {
	return Event{Offset: offset, Kind: PitchBend, Bend: bend}
}

func (e Event) String() string {
	switch e.Kind {
	case NoteOn, NoteOff:
		return fmt.Sprintf("%s@%d note=%d vel=%.3f", e.Kind, e.Offset, e.Note, e.Velocity)
	case ControlChange:
		return fmt.Sprintf("%s@%d cc=%d val=%d", e.Kind, e.Offset, e.Controller, e.Value)
	case PitchBend:
		return fmt.Sprintf("%s@%d bend=%d", e.Kind, e.Offset, e.Bend)
	default:
		return e.Kind.String()
	}
}

// FromMessage decodes a wire message. A note-on with velocity 0 is a
// note-off. Messages the engine has no use for report false.
func FromMessage(msg gomidi.Message, offset int) (Event, bool) {
	var ch, key, vel, cc, val uint8
	var rel int16
	var abs uint16
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		ev := NoteOnEvent(offset, int(key), float64(vel)/127)
		ev.Channel = int(ch)
		return ev, true
	case msg.GetNoteEnd(&ch, &key):
		ev := NoteOffEvent(offset, int(key), 0)
		ev.Channel = int(ch)
		return ev, true
	case msg.GetControlChange(&ch, &cc, &val):
		ev := ControlEvent(offset, int(cc), int(val))
		ev.Channel = int(ch)
		return ev, true
	case msg.GetPitchBend(&ch, &rel, &abs):
		ev := PitchBendEvent(offset, int(rel))
		ev.Channel = int(ch)
		return ev, true
	}
	return Event{}, false
}

// Decode is FromMessage for raw bytes.
func Decode(b []byte, offset int) (Event, bool) {
	return FromMessage(gomidi.Message(b), offset)
}
