// Package sml decodes SML notation documents into the barline document
// model. A document is accepted in either JSON or YAML; both decode into
// the same wire structs, so the two formats stay byte-for-byte equivalent
// in meaning.
//
// Two ingestion policies exist and are kept deliberately separate:
// ParseClip reads bar-grouped notation and runs strict capacity layout,
// while ClipFromNotes buckets a flat beat-timestamped note list into
// free-form bars with no capacity check.
package sml

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/barline/barline"
)

const (
	defaultItemVelocity = 90
	defaultArticulation = "normal"
)

type (
	// itemDoc is one entry of a bar's item list. Exactly one of Note and
	// Rest is set; the rest form carries its duration token as the value.
	itemDoc struct {
		Note         string `json:"note,omitempty" yaml:"note,omitempty"`
		Rest         string `json:"rest,omitempty" yaml:"rest,omitempty"`
		Duration     string `json:"duration,omitempty" yaml:"duration,omitempty"`
		Velocity     *int   `json:"velocity,omitempty" yaml:"velocity,omitempty"`
		Articulation string `json:"articulation,omitempty" yaml:"articulation,omitempty"`
		Tag          string `json:"expression,omitempty" yaml:"expression,omitempty"`
	}

	barDoc struct {
		BarIndex    int                 `json:"bar_index,omitempty" yaml:"bar_index,omitempty"`
		UnitsPerBar int                 `json:"units_per_bar,omitempty" yaml:"units_per_bar,omitempty"`
		Items       []itemDoc           `json:"items" yaml:"items"`
		Expression  *barline.Expression `json:"expression,omitempty" yaml:"expression,omitempty"`
	}

	clipDoc struct {
		Name string   `json:"name,omitempty" yaml:"name,omitempty"`
		Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
		Bars []barDoc `json:"bars" yaml:"bars"`
	}
)

// unmarshal decodes data as JSON first and falls back to YAML, so callers
// never have to declare which format a document is in.
func unmarshal(data []byte, v any) error {
	errJSON := json.Unmarshal(data, v)
	if errJSON == nil {
		return nil
	}
	if errYAML := yaml.Unmarshal(data, v); errYAML != nil {
		return fmt.Errorf("decoding as JSON (%v) and as YAML (%v) both failed", errJSON, errYAML)
	}
	return nil
}

// ParseClip decodes a bar-grouped SML document into a strict clip. Every
// bar is laid out and its expression curves validated; the first failing
// bar aborts the whole clip and no partial clip is returned.
func ParseClip(data []byte) (barline.Clip, error) {
	var doc clipDoc
	if err := unmarshal(data, &doc); err != nil {
		return barline.Clip{}, err
	}
	return clipFromDoc(doc)
}

// ReadClip reads and decodes a clip document from r.
func ReadClip(r io.Reader) (barline.Clip, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return barline.Clip{}, err
	}
	return ParseClip(data)
}

func clipFromDoc(doc clipDoc) (barline.Clip, error) {
	clip := barline.Clip{Name: doc.Name, Tags: doc.Tags}
	// bars carrying explicit bar_index values are reordered by them;
	// documents without indices keep their written order
	sort.SliceStable(doc.Bars, func(i, j int) bool {
		return doc.Bars[i].BarIndex < doc.Bars[j].BarIndex
	})
	for i, bd := range doc.Bars {
		bar, err := barFromDoc(bd)
		if err != nil {
			return barline.Clip{}, fmt.Errorf("bar %v: %w", i, err)
		}
		clip.Bars = append(clip.Bars, bar)
	}
	return clip, nil
}

func barFromDoc(doc barDoc) (barline.Bar, error) {
	units := doc.UnitsPerBar
	if units == 0 {
		units = barline.DefaultUnitsPerBar
	}
	items := make([]barline.BarItem, 0, len(doc.Items))
	for i, id := range doc.Items {
		item, err := itemFromDoc(id)
		if err != nil {
			return barline.Bar{}, fmt.Errorf("item %v: %w", i, err)
		}
		items = append(items, item)
	}
	bar, err := barline.NewBar(items, units)
	if err != nil {
		return barline.Bar{}, err
	}
	if err := doc.Expression.Validate(); err != nil {
		return barline.Bar{}, err
	}
	bar.Expression = doc.Expression
	return bar, nil
}

func itemFromDoc(doc itemDoc) (barline.BarItem, error) {
	item := barline.BarItem{
		Velocity:     defaultItemVelocity,
		Articulation: defaultArticulation,
		Tag:          doc.Tag,
	}
	if doc.Velocity != nil {
		if *doc.Velocity < 0 || *doc.Velocity > 127 {
			return barline.BarItem{}, fmt.Errorf("velocity %v outside 0..127", *doc.Velocity)
		}
		item.Velocity = *doc.Velocity
	}
	if doc.Articulation != "" {
		item.Articulation = doc.Articulation
	}
	switch {
	case doc.Rest != "":
		item.IsRest = true
		item.Duration = barline.Duration(doc.Rest)
	case doc.Note != "":
		pitch, err := barline.ParsePitch(doc.Note)
		if err != nil {
			return barline.BarItem{}, err
		}
		item.Pitch = pitch
		item.Duration = barline.Duration(doc.Duration)
	default:
		return barline.BarItem{}, fmt.Errorf("item has neither a note nor a rest")
	}
	return item, nil
}

// ClipFromNotes buckets a flat beat-timestamped note list into free-form
// bars: each note lands in bar floor(Start/beatsPerBar) with its start
// rebased to the bar. Buckets a clip skips over are filled with empty
// bars so that a bar's slice position always equals its bar number. No
// capacity validation applies, and a note whose duration crosses the bar
// boundary is kept whole.
func ClipFromNotes(id int, name string, notes []barline.Note, beatsPerBar float64) barline.Clip {
	if beatsPerBar <= 0 {
		beatsPerBar = 4
	}
	buckets := make(map[int][]barline.Note)
	maxBar := -1
	for _, note := range notes {
		if note.Start < 0 {
			note.Start = 0
		}
		barIndex := int(math.Floor(note.Start / beatsPerBar))
		note.Start = math.Mod(note.Start, beatsPerBar)
		buckets[barIndex] = append(buckets[barIndex], note)
		if barIndex > maxBar {
			maxBar = barIndex
		}
	}
	clip := barline.Clip{ID: id, Name: name}
	for i := 0; i <= maxBar; i++ {
		clip.Bars = append(clip.Bars, barline.NewFreeBar(buckets[i]))
	}
	return clip
}
