package barline

import (
	"fmt"
	"sort"
)

type (
	// CurvePoint is one control point of a piecewise-linear expression
	// curve. Time is in beats relative to the owning bar; the value range
	// depends on the curve kind and is clamped by the renderers, not here.
	CurvePoint struct {
		Time  float64 `json:"time" yaml:"time"`
		Value float64 `json:"value" yaml:"value"`
	}

	// Curve is a list of control points with strictly increasing times.
	Curve []CurvePoint

	// Expression is the set of curves a bar can carry. The known kinds are
	// static fields so the renderers dispatch on them without keying into
	// an open map; Vendor is the escape hatch for anything else and is
	// carried through untouched. Controllers is keyed by MIDI controller
	// number and must stay within 0..127.
	Expression struct {
		Velocity    Curve          `json:"velocity_curve,omitempty" yaml:"velocity_curve,omitempty"`
		Controllers map[int]Curve  `json:"cc_lanes,omitempty" yaml:"cc_lanes,omitempty"`
		PitchBend   Curve          `json:"pitch_bend_curve,omitempty" yaml:"pitch_bend_curve,omitempty"`
		Aftertouch  Curve          `json:"aftertouch_curve,omitempty" yaml:"aftertouch_curve,omitempty"`
		Pedal       Curve          `json:"pedal_curve,omitempty" yaml:"pedal_curve,omitempty"`
		Vendor      map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	}
)

// At evaluates the curve at time t: values clamp to the first/last control
// point outside the covered range, and interpolate linearly inside it. An
// empty curve evaluates to 0; callers decide their own default before
// asking. At assumes the curve passed Validate.
func (c Curve) At(t float64) float64 {
	if len(c) == 0 {
		return 0
	}
	if t <= c[0].Time {
		return c[0].Value
	}
	if t >= c[len(c)-1].Time {
		return c[len(c)-1].Value
	}
	idx := sort.Search(len(c), func(i int) bool { return c[i].Time > t })
	p0, p1 := c[idx-1], c[idx]
	if p1.Time == p0.Time {
		return p0.Value
	}
	return p0.Value + (p1.Value-p0.Value)*(t-p0.Time)/(p1.Time-p0.Time)
}

// Validate checks that control point times are strictly increasing. The
// name identifies the curve in the error ("velocity", "cc 64", ...).
func (c Curve) Validate(name string) error {
	for i := 1; i < len(c); i++ {
		if c[i].Time <= c[i-1].Time {
			return &MalformedExpressionError{
				Curve:  name,
				Point:  i,
				Reason: fmt.Sprintf("time %v not after %v", c[i].Time, c[i-1].Time),
			}
		}
	}
	return nil
}

// Copy makes a deep copy of a Curve.
func (c Curve) Copy() Curve {
	if c == nil {
		return nil
	}
	out := make(Curve, len(c))
	copy(out, c)
	return out
}

// Validate checks every curve and the controller numbers.
func (e *Expression) Validate() error {
	if e == nil {
		return nil
	}
	if err := e.Velocity.Validate("velocity"); err != nil {
		return err
	}
	for num, c := range e.Controllers {
		if num < 0 || num > 127 {
			return &MalformedExpressionError{
				Curve:  fmt.Sprintf("cc %v", num),
				Point:  -1,
				Reason: "controller number out of range 0..127",
			}
		}
		if err := c.Validate(fmt.Sprintf("cc %v", num)); err != nil {
			return err
		}
	}
	if err := e.PitchBend.Validate("pitch_bend"); err != nil {
		return err
	}
	if err := e.Aftertouch.Validate("aftertouch"); err != nil {
		return err
	}
	return e.Pedal.Validate("pedal")
}

// Copy makes a deep copy of an Expression, so per-placement overrides never
// bleed into the shared clip bars.
func (e *Expression) Copy() *Expression {
	if e == nil {
		return nil
	}
	out := &Expression{
		Velocity:   e.Velocity.Copy(),
		PitchBend:  e.PitchBend.Copy(),
		Aftertouch: e.Aftertouch.Copy(),
		Pedal:      e.Pedal.Copy(),
	}
	if e.Controllers != nil {
		out.Controllers = make(map[int]Curve, len(e.Controllers))
		for num, c := range e.Controllers {
			out.Controllers[num] = c.Copy()
		}
	}
	if e.Vendor != nil {
		out.Vendor = make(map[string]any, len(e.Vendor))
		for k, v := range e.Vendor {
			out.Vendor[k] = v
		}
	}
	return out
}
