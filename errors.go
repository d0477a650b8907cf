package barline

import "fmt"

// InvalidPitchError is returned when a pitch string does not match the
// letter-accidental-octave pattern or when the resulting MIDI number falls
// outside 0..127. MIDI is only meaningful when Input matched the pattern.
type InvalidPitchError struct {
	Input string
	MIDI  int
}

func (e *InvalidPitchError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("MIDI note %v out of range 0..127", e.MIDI)
	}
	if e.MIDI != 0 {
		return fmt.Sprintf("pitch %q resolves to MIDI note %v, out of range 0..127", e.Input, e.MIDI)
	}
	return fmt.Sprintf("invalid pitch string %q", e.Input)
}

// UnknownDurationError is returned when a duration token is neither in the
// named token table nor a non-negative integer unit count.
type UnknownDurationError struct {
	Token string
}

func (e *UnknownDurationError) Error() string {
	return fmt.Sprintf("unknown duration token %q", e.Token)
}

// BarOverflowError is returned by Bar.Layout when the summed item durations
// exceed the bar's unit capacity.
type BarOverflowError struct {
	Total    int
	Capacity int
}

func (e *BarOverflowError) Error() string {
	return fmt.Sprintf("bar overflow: total units %v > units per bar %v", e.Total, e.Capacity)
}

// MissingReferenceError is returned when a track bar reference cannot be
// resolved against the clip library. BarIndex is -1 when the clip itself is
// missing.
type MissingReferenceError struct {
	ClipID   int
	BarIndex int
}

func (e *MissingReferenceError) Error() string {
	if e.BarIndex < 0 {
		return fmt.Sprintf("clip %v not found", e.ClipID)
	}
	return fmt.Sprintf("clip %v has no bar %v", e.ClipID, e.BarIndex)
}

// MalformedExpressionError is returned when an expression curve has
// non-monotonic control point times or an out-of-range controller number.
// Point is the index of the offending control point, or -1 when the fault
// is not tied to a single point.
type MalformedExpressionError struct {
	Curve  string
	Point  int
	Reason string
}

func (e *MalformedExpressionError) Error() string {
	if e.Point < 0 {
		return fmt.Sprintf("%v curve: %v", e.Curve, e.Reason)
	}
	return fmt.Sprintf("%v curve, point %v: %v", e.Curve, e.Point, e.Reason)
}
