// Package render turns a composition plus its clip library into a
// Standard MIDI File byte stream. Rendering is a pure transformation:
// every clip reference is resolved before any event is emitted, so a
// missing reference aborts the render with no partial output.
package render

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/barline/barline"
)

// curveSamples is how many uniformly spaced events a continuous curve
// (pitch bend, aftertouch) expands to per note. The curves are not
// evaluated continuously; a bounded sample count keeps the event stream
// finite and predictable.
const curveSamples = 10

// event is one message at an absolute tick, before delta encoding. seq
// preserves insertion order so that simultaneous events keep a stable
// tie-break.
type event struct {
	tick uint32
	seq  int
	msg  []byte
}

// Composition renders the composition as SMF (format 1) bytes. Each
// track maps to channel index mod 16; the first track alone carries the
// tempo, meter and key meta events.
func Composition(comp *barline.Composition, library barline.ClipLibrary) ([]byte, error) {
	if err := comp.Validate(); err != nil {
		return nil, err
	}
	bars, err := resolveRefs(comp, library)
	if err != nil {
		return nil, err
	}
	beatsPerBar := comp.BeatsPerBar()
	tpq := comp.TicksPerQuarter
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(uint16(tpq))
	for i, track := range comp.Tracks {
		var events []event
		if i == 0 {
			events = metaEvents(comp, beatsPerBar, tpq)
		}
		events = append(events, trackEvents(track, bars[i], beatsPerBar, tpq, uint8(i%16))...)
		for k := range events {
			events[k].seq = k
		}
		var tr smf.Track
		tr.Add(0, smf.MetaTrackSequenceName(track.Name))
		prev := uint32(0)
		for _, ev := range sorted(events) {
			delta := uint32(0)
			if ev.tick > prev {
				delta = ev.tick - prev
				prev = ev.tick
			}
			tr.Add(delta, ev.msg)
		}
		tr.Close(0)
		if err := sm.Add(tr); err != nil {
			return nil, fmt.Errorf("track %q: %w", track.Name, err)
		}
	}
	var buf bytes.Buffer
	if _, err := sm.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// resolveRefs resolves every clip bar reference of every track up front.
func resolveRefs(comp *barline.Composition, library barline.ClipLibrary) ([][]*barline.Bar, error) {
	bars := make([][]*barline.Bar, len(comp.Tracks))
	for i, track := range comp.Tracks {
		bars[i] = make([]*barline.Bar, len(track.Refs))
		for j, ref := range track.Refs {
			bar, err := library.Bar(ref.ClipID, ref.ClipBarIndex)
			if err != nil {
				return nil, fmt.Errorf("track %q bar %v: %w", track.Name, ref.BarIndex, err)
			}
			bars[i][j] = bar
		}
	}
	return bars, nil
}

func metaEvents(comp *barline.Composition, beatsPerBar float64, tpq int) []event {
	var events []event
	add := func(bar int, msg []byte) {
		tick := toTick(float64(bar-1)*beatsPerBar, tpq)
		events = append(events, event{tick: tick, msg: msg})
	}
	for _, tc := range comp.TempoMap {
		add(tc.Bar, smf.MetaTempo(tc.BPM))
	}
	if len(comp.TempoMap) == 0 {
		add(1, smf.MetaTempo(comp.BPM()))
	}
	for _, mc := range comp.MeterMap {
		add(mc.Bar, smf.MetaMeter(uint8(mc.Numerator), uint8(mc.Denominator)))
	}
	for _, kc := range comp.KeyMap {
		if msg, ok := keySignature(kc); ok {
			add(kc.Bar, msg)
		}
	}
	return events
}

func trackEvents(track barline.Track, bars []*barline.Bar, beatsPerBar float64, tpq int, channel uint8) []event {
	var events []event
	add := func(beat float64, msg []byte) {
		events = append(events, event{tick: toTick(beat, tpq), msg: msg})
	}
	for j, ref := range track.Refs {
		bar := bars[j]
		barStart := float64(ref.BarIndex-1) * beatsPerBar
		expr := bar.Expression
		if ref.Override != nil {
			expr = ref.Override
		}
		notes := bar.Notes(beatsPerBar)
		for _, note := range notes {
			if note.IsRest {
				continue
			}
			key := clamp7(float64(note.Pitch))
			add(barStart+note.Start, midi.NoteOn(channel, key, noteVelocity(note, expr)))
			add(barStart+note.End(), midi.NoteOff(channel, key))
			if expr != nil {
				sampleCurve(expr.PitchBend, note, func(t, v float64) {
					add(barStart+t, midi.Pitchbend(channel, clampBend(v)))
				})
				sampleCurve(expr.Aftertouch, note, func(t, v float64) {
					add(barStart+t, midi.AfterTouch(channel, clamp7(v)))
				})
			}
		}
		if expr != nil {
			for _, num := range controllerNumbers(expr) {
				for _, p := range expr.Controllers[num] {
					add(barStart+p.Time, midi.ControlChange(channel, uint8(num), clamp7(p.Value)))
				}
			}
			for _, p := range expr.Pedal {
				add(barStart+p.Time, midi.ControlChange(channel, sustainPedal, clamp7(p.Value)))
			}
		}
	}
	return events
}

const sustainPedal = 64

// noteVelocity applies the velocity policy: the bar's velocity curve
// when present, then the note's own velocity, then the default.
func noteVelocity(note barline.Note, expr *barline.Expression) uint8 {
	if expr != nil && len(expr.Velocity) > 0 {
		return clamp7(expr.Velocity.At(note.Start))
	}
	if note.Velocity > 0 {
		return clamp7(float64(note.Velocity))
	}
	return barline.DefaultVelocity
}

// sampleCurve emits curveSamples uniformly spaced evaluations over the
// note's duration. Nothing is emitted for an absent curve.
func sampleCurve(curve barline.Curve, note barline.Note, emit func(t, v float64)) {
	if len(curve) == 0 {
		return
	}
	for i := 0; i < curveSamples; i++ {
		t := note.Start + note.Duration*float64(i)/float64(curveSamples)
		emit(t, curve.At(t))
	}
}

// controllerNumbers returns the controller lanes in ascending order so
// rendering is deterministic regardless of map iteration.
func controllerNumbers(expr *barline.Expression) []int {
	nums := make([]int, 0, len(expr.Controllers))
	for num := range expr.Controllers {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}

func sorted(events []event) []event {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].seq < events[j].seq
	})
	return events
}

func toTick(beats float64, tpq int) uint32 {
	t := math.Round(beats * float64(tpq))
	if t < 0 {
		return 0
	}
	return uint32(t)
}

func clamp7(v float64) uint8 {
	n := math.Round(v)
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return uint8(n)
}

func clampBend(v float64) int16 {
	n := math.Round(v)
	if n < -8192 {
		return -8192
	}
	if n > 8191 {
		return 8191
	}
	return int16(n)
}

// keySignature builds the key meta event. Composition.Validate has
// already rejected keys outside the circle of fifths; an unknown key
// reaching this point is skipped rather than emitted wrong.
func keySignature(kc barline.KeyChange) ([]byte, bool) {
	acc, err := kc.Accidentals()
	if err != nil {
		return nil, false
	}
	pitch, err := barline.ParsePitch(kc.Key + "0")
	if err != nil {
		return nil, false
	}
	num := acc
	isFlat := false
	if num < 0 {
		num = -num
		isFlat = true
	}
	return smf.MetaKey(uint8(pitch.MIDI%12), kc.Mode != "minor", uint8(num), isFlat), true
}
