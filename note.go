package barline

// Note is the canonical note record handed to external collaborators:
// pitch-or-rest, timing in beats relative to the owning bar, velocity,
// articulation and an optional expression tag. The field tags spell out
// the wire names the persistence collaborator consumes.
type Note struct {
	Pitch        int     `json:"absolute_pitch" yaml:"absolute_pitch"`
	Start        float64 `json:"start" yaml:"start"`
	Duration     float64 `json:"duration" yaml:"duration"`
	IsRest       bool    `json:"is_rest,omitempty" yaml:"is_rest,omitempty"`
	Velocity     int     `json:"velocity,omitempty" yaml:"velocity,omitempty"`
	Articulation string  `json:"articulation,omitempty" yaml:"articulation,omitempty"`
	Tag          string  `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// End returns the beat at which the note stops sounding. For free-form
// bars this may lie past the end of the owning bar.
func (n Note) End() float64 {
	return n.Start + n.Duration
}
