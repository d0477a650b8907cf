package barline

import "fmt"

// Clip is a reusable named sequence of bars. Clips are owned independently
// of any track: several tracks, or several placements on the same track,
// may reference the same clip, which is why per-placement overrides work on
// copies and the clip itself is never mutated after assembly.
type Clip struct {
	ID   int
	Name string
	Tags []string
	Bars []Bar
}

// Validate lays out and validates every bar, stopping at the first failure.
// A failing bar aborts the whole clip; no partially validated clip is ever
// used further up.
func (c *Clip) Validate() error {
	for i := range c.Bars {
		if err := c.Bars[i].Validate(); err != nil {
			return fmt.Errorf("clip %q bar %v: %w", c.Name, i, err)
		}
	}
	return nil
}

// Copy makes a deep copy of a Clip.
func (c *Clip) Copy() Clip {
	tags := make([]string, len(c.Tags))
	copy(tags, c.Tags)
	bars := make([]Bar, len(c.Bars))
	for i := range c.Bars {
		bars[i] = c.Bars[i].Copy()
	}
	return Clip{ID: c.ID, Name: c.Name, Tags: tags, Bars: bars}
}

// ClipLibrary resolves clip IDs for track references. Renderers resolve
// every reference up front, so a missing clip aborts a render before any
// event is emitted.
type ClipLibrary map[int]Clip

// Resolve returns the clip with the given ID, or a MissingReferenceError.
func (l ClipLibrary) Resolve(id int) (Clip, error) {
	clip, ok := l[id]
	if !ok {
		return Clip{}, &MissingReferenceError{ClipID: id, BarIndex: -1}
	}
	return clip, nil
}

// Bar resolves a single clip bar, or returns a MissingReferenceError.
func (l ClipLibrary) Bar(id, barIndex int) (*Bar, error) {
	clip, ok := l[id]
	if !ok {
		return nil, &MissingReferenceError{ClipID: id, BarIndex: -1}
	}
	if barIndex < 0 || barIndex >= len(clip.Bars) {
		return nil, &MissingReferenceError{ClipID: id, BarIndex: barIndex}
	}
	return &clip.Bars[barIndex], nil
}
