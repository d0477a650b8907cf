package barline

import "fmt"

type (
	// BarItem is a note or rest on the unit grid of a strict bar. Offsets
	// are assigned by Bar.Layout; until then StartUnits and DurationUnits
	// are zero.
	BarItem struct {
		Pitch         Pitch
		IsRest        bool
		Duration      Duration
		Velocity      int
		Articulation  string
		Tag           string
		StartUnits    int
		DurationUnits int
	}

	// Bar is a fixed-capacity container of time-ordered items. It comes in
	// two deliberately distinct kinds that are never silently unified:
	//
	//   - strict: Items carry duration tokens on the unit grid; Layout
	//     assigns offsets and enforces that the summed durations fit in
	//     UnitsPerBar.
	//   - free-form: Free carries beat-positioned notes bucketed from a
	//     flat timeline; no capacity check applies and a note's duration
	//     may cross the bar boundary without truncation.
	//
	// A bar is free-form exactly when Free is non-nil.
	Bar struct {
		Items       []BarItem
		Free        []Note
		UnitsPerBar int
		Expression  *Expression
	}
)

// NewBar returns a laid-out strict bar, or the layout error.
func NewBar(items []BarItem, unitsPerBar int) (Bar, error) {
	b := Bar{Items: items, UnitsPerBar: unitsPerBar}
	if err := b.Layout(); err != nil {
		return Bar{}, err
	}
	return b, nil
}

// NewFreeBar returns a free-form bar holding beat-positioned notes.
func NewFreeBar(notes []Note) Bar {
	if notes == nil {
		notes = []Note{}
	}
	return Bar{Free: notes, UnitsPerBar: DefaultUnitsPerBar}
}

// FreeForm reports whether the bar is of the free-form kind.
func (b *Bar) FreeForm() bool {
	return b.Free != nil
}

// Layout resolves every item's duration and assigns start offsets by
// accumulating a cursor from zero. It is a pure recomputation from the
// duration tokens, so re-editing the items and laying out again always
// yields consistent offsets. If the final cursor exceeds UnitsPerBar the
// offsets are discarded and a BarOverflowError is returned. Free-form bars
// have nothing to lay out.
func (b *Bar) Layout() error {
	if b.FreeForm() {
		return nil
	}
	cursor := 0
	for i := range b.Items {
		item := &b.Items[i]
		units, err := item.Duration.Units(b.UnitsPerBar)
		if err != nil {
			return fmt.Errorf("item %v: %w", i, err)
		}
		if units <= 0 {
			return fmt.Errorf("item %v: duration %q rounds to zero units", i, item.Duration)
		}
		item.StartUnits = cursor
		item.DurationUnits = units
		cursor += units
	}
	if cursor > b.UnitsPerBar {
		for i := range b.Items {
			b.Items[i].StartUnits = 0
			b.Items[i].DurationUnits = 0
		}
		return &BarOverflowError{Total: cursor, Capacity: b.UnitsPerBar}
	}
	return nil
}

// Validate lays the bar out and validates its expression curves.
func (b *Bar) Validate() error {
	if err := b.Layout(); err != nil {
		return err
	}
	return b.Expression.Validate()
}

// Notes returns the bar's contents as canonical beat-relative notes. For a
// strict bar the unit offsets are converted using the bar's resolution, so
// Layout must have succeeded first; a free-form bar returns its notes
// as-is.
func (b *Bar) Notes(beatsPerBar float64) []Note {
	if b.FreeForm() {
		out := make([]Note, len(b.Free))
		copy(out, b.Free)
		return out
	}
	unitsPerBeat := float64(b.UnitsPerBar) / beatsPerBar
	out := make([]Note, len(b.Items))
	for i, item := range b.Items {
		out[i] = Note{
			Pitch:        item.Pitch.MIDI,
			Start:        float64(item.StartUnits) / unitsPerBeat,
			Duration:     float64(item.DurationUnits) / unitsPerBeat,
			IsRest:       item.IsRest,
			Velocity:     item.Velocity,
			Articulation: item.Articulation,
			Tag:          item.Tag,
		}
	}
	return out
}

// Copy makes a deep copy of a Bar.
func (b *Bar) Copy() Bar {
	out := Bar{UnitsPerBar: b.UnitsPerBar, Expression: b.Expression.Copy()}
	if b.Items != nil {
		out.Items = make([]BarItem, len(b.Items))
		copy(out.Items, b.Items)
	}
	if b.Free != nil {
		out.Free = make([]Note, len(b.Free))
		copy(out.Free, b.Free)
	}
	return out
}
