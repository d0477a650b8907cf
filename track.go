package barline

import "errors"

type (
	// TrackBarRef places one clip bar on a track's absolute bar timeline.
	// BarIndex is 1-based and absolute; ClipBarIndex is 0-based into the
	// referenced clip. It is a placement, not a copy: the clip bar itself
	// lives in the library. Override, when set, replaces the clip bar's
	// expression curves for this placement only.
	TrackBarRef struct {
		BarIndex     int
		ClipID       int
		ClipBarIndex int
		Override     *Expression
	}

	// Placement describes putting a clip on a track starting at StartBar
	// for LengthBars bars, with optional alternate expression curves keyed
	// by clip bar index.
	Placement struct {
		ClipID     int
		StartBar   int
		LengthBars int
		Overrides  map[int]*Expression
	}

	// Track is an ordered list of clip bar placements plus instrument
	// metadata. The render stage assigns MIDI channels by track order.
	Track struct {
		Name       string
		Instrument string
		Refs       []TrackBarRef
	}
)

// Place expands a clip placement into one TrackBarRef per covered absolute
// bar, cycling through the clip's bars when LengthBars exceeds clipLen.
// Overrides are deep-copied onto the refs so that reuses of the same clip
// elsewhere never see them.
func (t *Track) Place(p Placement, clipLen int) error {
	if clipLen <= 0 {
		return errors.New("cannot place a clip with no bars")
	}
	if p.LengthBars < 0 {
		return errors.New("placement length cannot be negative")
	}
	for i := 0; i < p.LengthBars; i++ {
		ref := TrackBarRef{
			BarIndex:     p.StartBar + i,
			ClipID:       p.ClipID,
			ClipBarIndex: i % clipLen,
		}
		if override := p.Overrides[ref.ClipBarIndex]; override != nil {
			ref.Override = override.Copy()
		}
		t.Refs = append(t.Refs, ref)
	}
	return nil
}

// Copy makes a deep copy of a Track.
func (t *Track) Copy() Track {
	refs := make([]TrackBarRef, len(t.Refs))
	for i, ref := range t.Refs {
		refs[i] = ref
		refs[i].Override = ref.Override.Copy()
	}
	return Track{Name: t.Name, Instrument: t.Instrument, Refs: refs}
}
