package barline

import (
	"errors"
	"fmt"
)

type (
	// TempoChange sets the tempo from the given 1-based bar onwards.
	TempoChange struct {
		Bar int     `json:"bar" yaml:"bar"`
		BPM float64 `json:"tempo_bpm" yaml:"tempo_bpm"`
	}

	// MeterChange sets the time signature from the given bar onwards.
	MeterChange struct {
		Bar         int `json:"bar" yaml:"bar"`
		Numerator   int `json:"numerator" yaml:"numerator"`
		Denominator int `json:"denominator" yaml:"denominator"`
	}

	// KeyChange sets the key from the given bar onwards. Mode is "major"
	// or "minor".
	KeyChange struct {
		Bar  int    `json:"bar" yaml:"bar"`
		Key  string `json:"key" yaml:"key"`
		Mode string `json:"mode" yaml:"mode"`
	}

	// Loop marks a repeatable span of bars. Loops are advisory metadata
	// for playback front ends; the renderers do not unroll them.
	Loop struct {
		StartBar    int `json:"start_bar" yaml:"start_bar"`
		LengthBars  int `json:"length_bars" yaml:"length_bars"`
		RepeatCount int `json:"repeat_count" yaml:"repeat_count"`
	}

	// Composition is the top-level container: tracks of clip placements
	// plus tempo, meter and key maps and the tick resolution used when
	// exporting. It is assembled bottom-up from already-validated parts;
	// re-validation on reuse is explicit via Validate, never implicit.
	Composition struct {
		Name            string
		TicksPerQuarter int
		TempoMap        []TempoChange
		MeterMap        []MeterChange
		KeyMap          []KeyChange
		Tracks          []Track
		Loops           []Loop
	}
)

// circle of fifths positions per mode; negative counts mean flats
var keyAccidentals = map[string]map[string]int{
	"major": {
		"C": 0, "G": 1, "D": 2, "A": 3, "E": 4, "B": 5, "F#": 6, "C#": 7,
		"F": -1, "Bb": -2, "Eb": -3, "Ab": -4, "Db": -5, "Gb": -6, "Cb": -7,
	},
	"minor": {
		"A": 0, "E": 1, "B": 2, "F#": 3, "C#": 4, "G#": 5, "D#": 6, "A#": 7,
		"D": -1, "G": -2, "C": -3, "F": -4, "Bb": -5, "Eb": -6, "Ab": -7,
	},
}

// Accidentals returns the key signature's position on the circle of
// fifths, negative for flats. An empty mode means major. Keys outside
// the circle are rejected.
func (k KeyChange) Accidentals() (int, error) {
	mode := k.Mode
	if mode == "" {
		mode = "major"
	}
	modeKeys, ok := keyAccidentals[mode]
	if !ok {
		return 0, fmt.Errorf("unknown mode %q", k.Mode)
	}
	acc, ok := modeKeys[k.Key]
	if !ok {
		return 0, fmt.Errorf("unknown %v key %q", mode, k.Key)
	}
	return acc, nil
}

// BPM returns the initial tempo: the first tempo map entry, or 120.
func (c *Composition) BPM() float64 {
	if len(c.TempoMap) > 0 {
		return c.TempoMap[0].BPM
	}
	return 120
}

// BeatsPerBar returns the initial meter's beats per bar, or 4. Beats here
// are quarter notes, matching the tick resolution.
func (c *Composition) BeatsPerBar() float64 {
	if len(c.MeterMap) > 0 {
		m := c.MeterMap[0]
		if m.Numerator > 0 && m.Denominator > 0 {
			return float64(m.Numerator) * 4 / float64(m.Denominator)
		}
	}
	return 4
}

// Validate checks the composition's own invariants. Clip references are
// not checked here since the library is external; the renderers resolve
// them before emitting anything. The upper bounds on the tick resolution
// and the meter fields are the ranges the MIDI file format can carry.
func (c *Composition) Validate() error {
	if c.TicksPerQuarter < 1 {
		return errors.New("ticks per quarter should be > 0")
	}
	if c.TicksPerQuarter > 32767 {
		return fmt.Errorf("ticks per quarter %v does not fit in 15 bits", c.TicksPerQuarter)
	}
	for _, tc := range c.TempoMap {
		if tc.BPM <= 0 {
			return fmt.Errorf("tempo at bar %v should be > 0", tc.Bar)
		}
	}
	for _, mc := range c.MeterMap {
		if mc.Numerator < 1 || mc.Denominator < 1 {
			return fmt.Errorf("meter at bar %v should have positive numerator and denominator", mc.Bar)
		}
		if mc.Numerator > 255 || mc.Denominator > 255 {
			return fmt.Errorf("meter %v/%v at bar %v does not fit in a byte", mc.Numerator, mc.Denominator, mc.Bar)
		}
	}
	for _, kc := range c.KeyMap {
		if _, err := kc.Accidentals(); err != nil {
			return fmt.Errorf("key at bar %v: %w", kc.Bar, err)
		}
	}
	for _, track := range c.Tracks {
		for _, ref := range track.Refs {
			if ref.BarIndex < 1 {
				return fmt.Errorf("track %q references bar %v; bars are 1-based", track.Name, ref.BarIndex)
			}
			if err := ref.Override.Validate(); err != nil {
				return fmt.Errorf("track %q bar %v override: %w", track.Name, ref.BarIndex, err)
			}
		}
	}
	return nil
}

// Copy makes a deep copy of a Composition.
func (c *Composition) Copy() Composition {
	out := Composition{Name: c.Name, TicksPerQuarter: c.TicksPerQuarter}
	out.TempoMap = append([]TempoChange(nil), c.TempoMap...)
	out.MeterMap = append([]MeterChange(nil), c.MeterMap...)
	out.KeyMap = append([]KeyChange(nil), c.KeyMap...)
	out.Loops = append([]Loop(nil), c.Loops...)
	out.Tracks = make([]Track, len(c.Tracks))
	for i := range c.Tracks {
		out.Tracks[i] = c.Tracks[i].Copy()
	}
	return out
}
