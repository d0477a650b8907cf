package barline_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/barline/barline"
)

func TestParsePitch(t *testing.T) {
	tests := []struct {
		input string
		midi  int
	}{
		{"C4", 60},
		{"C#4", 61},
		{"Db4", 61},
		{"A4", 69},
		{"B-1", 11},
		{"C-1", 0},
		{"G9", 127},
		{"c4", 60},
		{"F♯3", 54},
		{"B♭3", 58},
		{" E2 ", 40},
	}
	for _, test := range tests {
		p, err := barline.ParsePitch(test.input)
		if err != nil {
			t.Fatalf("ParsePitch(%q) failed: %v", test.input, err)
		}
		if p.MIDI != test.midi {
			t.Errorf("ParsePitch(%q).MIDI = %v, expected %v", test.input, p.MIDI, test.midi)
		}
	}
}

func TestParsePitchInvalid(t *testing.T) {
	for _, input := range []string{"", "H4", "C", "4", "C##4", "Cb-2", "G#9", "C10", "note"} {
		_, err := barline.ParsePitch(input)
		if err == nil {
			t.Errorf("ParsePitch(%q) should have failed", input)
			continue
		}
		var pitchErr *barline.InvalidPitchError
		if !errors.As(err, &pitchErr) {
			t.Errorf("ParsePitch(%q) returned %T, expected *InvalidPitchError", input, err)
		}
	}
}

func TestPitchFromMIDIRange(t *testing.T) {
	for _, midi := range []int{-1, 128, 1000} {
		if _, err := barline.PitchFromMIDI(midi); err == nil {
			t.Errorf("PitchFromMIDI(%v) should have failed", midi)
		}
	}
	p, err := barline.PitchFromMIDI(61)
	if err != nil {
		t.Fatalf("PitchFromMIDI(61) failed: %v", err)
	}
	if p.Name != "C#" || p.Octave != 4 {
		t.Errorf("PitchFromMIDI(61) = %v, expected C#4", p)
	}
}

func TestPitchMIDIRoundTrip(t *testing.T) {
	// every parseable pitch string must survive the round trip through its
	// MIDI number
	letters := []string{"C", "D", "E", "F", "G", "A", "B"}
	accidentals := []string{"", "#", "b"}
	for octave := -1; octave <= 9; octave++ {
		for _, letter := range letters {
			for _, accidental := range accidentals {
				input := letter + accidental + strconv.Itoa(octave)
				p, err := barline.ParsePitch(input)
				if err != nil {
					continue // out of MIDI range
				}
				q, err := barline.PitchFromMIDI(p.MIDI)
				if err != nil {
					t.Fatalf("PitchFromMIDI(%v) failed for %q: %v", p.MIDI, input, err)
				}
				if q.MIDI != p.MIDI {
					t.Errorf("round trip of %q: got MIDI %v, expected %v", input, q.MIDI, p.MIDI)
				}
			}
		}
	}
}
