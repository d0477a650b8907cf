package sml

import (
	"fmt"
	"io"
	"sort"

	"github.com/barline/barline"
)

type (
	// projectFile is the outer wrapper. Documents may either nest the
	// body under a "project" key or put it at the top level.
	projectFile struct {
		Project *projectBody `json:"project" yaml:"project"`
	}

	projectBody struct {
		Name            string                `json:"name,omitempty" yaml:"name,omitempty"`
		TicksPerQuarter int                   `json:"ticks_per_quarter,omitempty" yaml:"ticks_per_quarter,omitempty"`
		TempoMap        []barline.TempoChange `json:"tempo_map,omitempty" yaml:"tempo_map,omitempty"`
		MeterMap        []barline.MeterChange `json:"meter_map,omitempty" yaml:"meter_map,omitempty"`
		KeyMap          []barline.KeyChange   `json:"key_map,omitempty" yaml:"key_map,omitempty"`
		Loops           []barline.Loop        `json:"loops,omitempty" yaml:"loops,omitempty"`
		ClipLibrary     []clipEntry           `json:"clip_library,omitempty" yaml:"clip_library,omitempty"`
		Tracks          map[string]trackDoc   `json:"tracks,omitempty" yaml:"tracks,omitempty"`
	}

	// clipEntry is one clip_library entry. The flat Notes form buckets
	// into free-form bars; the Bars form goes through strict layout.
	clipEntry struct {
		ClipID int        `json:"clip_id" yaml:"clip_id"`
		Name   string     `json:"name,omitempty" yaml:"name,omitempty"`
		Tags   []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
		Notes  []flatNote `json:"notes,omitempty" yaml:"notes,omitempty"`
		Bars   []barDoc   `json:"bars,omitempty" yaml:"bars,omitempty"`
	}

	// flatNote is the beat-timestamped wire form used inside a project's
	// clip_library, distinct from the canonical Note field names.
	flatNote struct {
		Pitch         int     `json:"pitch" yaml:"pitch"`
		StartBeat     float64 `json:"start_beat" yaml:"start_beat"`
		DurationBeats float64 `json:"duration_beats" yaml:"duration_beats"`
		Velocity      int     `json:"velocity,omitempty" yaml:"velocity,omitempty"`
		Articulation  string  `json:"articulation,omitempty" yaml:"articulation,omitempty"`
	}

	trackDoc struct {
		Instrument instrumentDoc     `json:"instrument,omitempty" yaml:"instrument,omitempty"`
		Clips      []clipInstanceDoc `json:"clips,omitempty" yaml:"clips,omitempty"`
	}

	instrumentDoc struct {
		Name        string `json:"name,omitempty" yaml:"name,omitempty"`
		MIDIChannel int    `json:"midi_channel,omitempty" yaml:"midi_channel,omitempty"`
	}

	clipInstanceDoc struct {
		ClipInstanceID string        `json:"clip_instance_id,omitempty" yaml:"clip_instance_id,omitempty"`
		ClipID         int           `json:"clip_id" yaml:"clip_id"`
		StartBar       int           `json:"start_bar,omitempty" yaml:"start_bar,omitempty"`
		LengthBars     int           `json:"length_bars,omitempty" yaml:"length_bars,omitempty"`
		BarOverrides   []barOverride `json:"bar_overrides,omitempty" yaml:"bar_overrides,omitempty"`
	}

	// barOverride replaces the expression curves of one clip bar for a
	// single placement. The curves sit inline next to bar_index.
	barOverride struct {
		BarIndex           int `json:"bar_index" yaml:"bar_index"`
		barline.Expression `yaml:",inline"`
	}
)

// ParseProject decodes a full SML project into a Composition plus the
// clip library its tracks reference. Every clip is validated and every
// placement's clip reference resolved during decoding, so a returned
// composition renders without further reference errors. Track names
// iterate in sorted order, keeping the track-to-channel assignment of
// the renderers deterministic.
func ParseProject(data []byte) (barline.Composition, barline.ClipLibrary, error) {
	var file projectFile
	if err := unmarshal(data, &file); err != nil {
		return barline.Composition{}, nil, err
	}
	body := file.Project
	if body == nil {
		body = &projectBody{}
		if err := unmarshal(data, body); err != nil {
			return barline.Composition{}, nil, err
		}
	}
	comp := barline.Composition{
		Name:            body.Name,
		TicksPerQuarter: body.TicksPerQuarter,
		TempoMap:        body.TempoMap,
		MeterMap:        body.MeterMap,
		KeyMap:          body.KeyMap,
		Loops:           body.Loops,
	}
	if comp.Name == "" {
		comp.Name = "Untitled"
	}
	if comp.TicksPerQuarter == 0 {
		comp.TicksPerQuarter = 480
	}
	library, err := libraryFromEntries(body.ClipLibrary, comp.BeatsPerBar())
	if err != nil {
		return barline.Composition{}, nil, err
	}
	names := make([]string, 0, len(body.Tracks))
	for name := range body.Tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		track, err := trackFromDoc(name, body.Tracks[name], library)
		if err != nil {
			return barline.Composition{}, nil, fmt.Errorf("track %q: %w", name, err)
		}
		comp.Tracks = append(comp.Tracks, track)
	}
	if err := comp.Validate(); err != nil {
		return barline.Composition{}, nil, err
	}
	return comp, library, nil
}

// ReadProject reads and decodes a project document from r.
func ReadProject(r io.Reader) (barline.Composition, barline.ClipLibrary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return barline.Composition{}, nil, err
	}
	return ParseProject(data)
}

func libraryFromEntries(entries []clipEntry, beatsPerBar float64) (barline.ClipLibrary, error) {
	library := make(barline.ClipLibrary, len(entries))
	for _, entry := range entries {
		var clip barline.Clip
		if len(entry.Bars) > 0 {
			var err error
			clip, err = clipFromDoc(clipDoc{Name: entry.Name, Tags: entry.Tags, Bars: entry.Bars})
			if err != nil {
				return nil, fmt.Errorf("clip %v: %w", entry.ClipID, err)
			}
			clip.ID = entry.ClipID
		} else {
			notes := make([]barline.Note, len(entry.Notes))
			for i, fn := range entry.Notes {
				notes[i] = barline.Note{
					Pitch:        fn.Pitch,
					Start:        fn.StartBeat,
					Duration:     fn.DurationBeats,
					Velocity:     fn.Velocity,
					Articulation: fn.Articulation,
				}
			}
			clip = ClipFromNotes(entry.ClipID, entry.Name, notes, beatsPerBar)
			clip.Tags = entry.Tags
		}
		if err := clip.Validate(); err != nil {
			return nil, err
		}
		library[entry.ClipID] = clip
	}
	return library, nil
}

func trackFromDoc(name string, doc trackDoc, library barline.ClipLibrary) (barline.Track, error) {
	track := barline.Track{Name: name, Instrument: doc.Instrument.Name}
	for _, instance := range doc.Clips {
		clip, err := library.Resolve(instance.ClipID)
		if err != nil {
			return barline.Track{}, err
		}
		placement := barline.Placement{
			ClipID:     instance.ClipID,
			StartBar:   instance.StartBar,
			LengthBars: instance.LengthBars,
		}
		if placement.StartBar == 0 {
			placement.StartBar = 1
		}
		if placement.LengthBars == 0 {
			placement.LengthBars = 1
		}
		for _, override := range instance.BarOverrides {
			expr := override.Expression
			if err := expr.Validate(); err != nil {
				return barline.Track{}, fmt.Errorf("clip %v bar %v override: %w", instance.ClipID, override.BarIndex, err)
			}
			if override.BarIndex < 0 || override.BarIndex >= len(clip.Bars) {
				return barline.Track{}, &barline.MissingReferenceError{ClipID: instance.ClipID, BarIndex: override.BarIndex}
			}
			if placement.Overrides == nil {
				placement.Overrides = make(map[int]*barline.Expression)
			}
			placement.Overrides[override.BarIndex] = &expr
		}
		if err := track.Place(placement, len(clip.Bars)); err != nil {
			return barline.Track{}, fmt.Errorf("clip %v: %w", instance.ClipID, err)
		}
	}
	return track, nil
}
