package main

import "testing"

func TestParseNotes(t *testing.T) {
	notes, err := parseNotes("60:0:0.5, 64:0.25:1:0.5,")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("got %d notes", len(notes))
	}
	if notes[0].Key != 60 || notes[0].Length != 0.5 || notes[0].Velocity != 1 {
		t.Fatalf("note 0 = %+v", notes[0])
	}
	if notes[1].Start != 0.25 || notes[1].Velocity != 0.5 {
		t.Fatalf("note 1 = %+v", notes[1])
	}
	for _, bad := range []string{"60:0", "x:0:1", "60:a:1", "60:0:1:1:1"} {
		if _, err := parseNotes(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
