package barline

import (
	"regexp"
	"strconv"
	"strings"
)

// Pitch is an immutable name+octave pair together with its MIDI note
// number. MIDI note 0 is C-1, so middle C ("C4") is 60.
type Pitch struct {
	Name   string
	Octave int
	MIDI   int
}

var pitchPattern = regexp.MustCompile(`^([A-Ga-g])([#b♯♭]?)(-?\d+)$`)

// semitone offsets of the natural notes relative to C
var naturalSemitones = map[string]int{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

// canonical names for the twelve semitones, sharps preferred
var semitoneNames = [12]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// ParsePitch parses strings like "C4", "C#4", "Db3" or "A-1" into a Pitch.
// The unicode accidentals ♯ and ♭ are accepted as synonyms for # and b.
func ParsePitch(s string) (Pitch, error) {
	m := pitchPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Pitch{}, &InvalidPitchError{Input: s}
	}
	letter := strings.ToUpper(m[1])
	accidental := strings.NewReplacer("♯", "#", "♭", "b").Replace(m[2])
	octave, err := strconv.Atoi(m[3])
	if err != nil {
		return Pitch{}, &InvalidPitchError{Input: s}
	}
	semitone := naturalSemitones[letter]
	switch accidental {
	case "#":
		semitone++
	case "b":
		semitone--
	}
	midi := (octave+1)*12 + semitone
	if midi < 0 || midi > 127 {
		return Pitch{}, &InvalidPitchError{Input: s, MIDI: midi}
	}
	return Pitch{Name: letter + accidental, Octave: octave, MIDI: midi}, nil
}

// PitchFromMIDI is the inverse of ParsePitch, using the canonical sharp
// spelling for the black keys.
func PitchFromMIDI(midi int) (Pitch, error) {
	if midi < 0 || midi > 127 {
		return Pitch{}, &InvalidPitchError{MIDI: midi}
	}
	return Pitch{
		Name:   semitoneNames[midi%12],
		Octave: midi/12 - 1,
		MIDI:   midi,
	}, nil
}

func (p Pitch) String() string {
	return p.Name + strconv.Itoa(p.Octave)
}
