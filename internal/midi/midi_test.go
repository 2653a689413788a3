package midi

import (
	"sync"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestFromMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  gomidi.Message
		want Event
	}{
		{"note on", gomidi.NoteOn(2, 60, 127), Event{Offset: 5, Kind: NoteOn, Channel: 2, Note: 60, Velocity: 1}},
		{"note off", gomidi.NoteOff(0, 61), Event{Offset: 5, Kind: NoteOff, Note: 61}},
		{"zero velocity note on", gomidi.NoteOn(0, 62, 0), Event{Offset: 5, Kind: NoteOff, Note: 62}},
		{"all notes off", gomidi.ControlChange(1, CCAllNotesOff, 0), Event{Offset: 5, Kind: ControlChange, Channel: 1, Controller: CCAllNotesOff}},
		{"pitch bend", gomidi.Pitchbend(0, 1000), Event{Offset: 5, Kind: PitchBend, Bend: 1000}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := FromMessage(tc.msg, 5)
			if !ok {
				t.Fatalf("message %v not decoded", tc.msg)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestFromMessageIgnoresUnknown(t *testing.T) {
	if _, ok := Decode([]byte{0xF8}, 0); ok {
		t.Fatal("expected timing clock to be ignored")
	}
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(4)
	for i := 0; i < q.Cap(); i++ {
		if !q.Push(NoteOnEvent(0, i, 1)) {
			t.Fatalf("push %d failed", i)
		}
	}
	if q.Push(NoteOnEvent(0, 99, 1)) {
		t.Fatal("expected push into full queue to fail")
	}
	for i := 0; i < q.Cap(); i++ {
		ev, ok := q.Pop()
		if !ok || ev.Note != i {
			t.Fatalf("pop %d: got %+v ok=%v", i, ev, ok)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestQueueCapacityRoundsUp(t *testing.T) {
	if got := NewQueue(5).Cap(); got != 8 {
		t.Fatalf("cap = %d, want 8", got)
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	const producers, perProducer = 4, 500
	q := NewQueue(producers * perProducer)
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(Event{Kind: NoteOn, Channel: p, Note: i})
			}
		}(p)
	}

	next := make([]int, producers)
	received := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for received < producers*perProducer {
		ev, ok := q.Pop()
		if !ok {
			select {
			case <-done:
				if q.Len() == 0 {
					t.Fatalf("lost events: received %d", received)
				}
			default:
			}
			continue
		}
		if ev.Note != next[ev.Channel] {
			t.Fatalf("producer %d out of order: got %d, want %d", ev.Channel, ev.Note, next[ev.Channel])
		}
		next[ev.Channel]++
		received++
	}
}
