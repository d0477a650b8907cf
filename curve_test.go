package barline_test

import (
	"errors"
	"testing"

	"github.com/barline/barline"
)

func TestCurveAt(t *testing.T) {
	curve := barline.Curve{{Time: 0, Value: 90}, {Time: 4, Value: 100}}
	tests := []struct {
		t, value float64
	}{
		{-1, 90},  // clamp before first point
		{0, 90},   // exact control point
		{2, 95},   // midpoint
		{1, 92.5}, // interpolation
		{4, 100},  // exact control point
		{5, 100},  // clamp after last point
	}
	for _, test := range tests {
		if got := curve.At(test.t); got != test.value {
			t.Errorf("At(%v) = %v, expected %v", test.t, got, test.value)
		}
	}
}

func TestCurveAtMultiSegment(t *testing.T) {
	curve := barline.Curve{{Time: 0, Value: 0}, {Time: 1, Value: 10}, {Time: 3, Value: 30}, {Time: 4, Value: 0}}
	tests := []struct {
		t, value float64
	}{
		{0.5, 5},
		{1, 10},
		{2, 20},
		{3.5, 15},
	}
	for _, test := range tests {
		if got := curve.At(test.t); got != test.value {
			t.Errorf("At(%v) = %v, expected %v", test.t, got, test.value)
		}
	}
}

func TestCurveAtEmpty(t *testing.T) {
	if got := barline.Curve(nil).At(1); got != 0 {
		t.Errorf("empty curve At(1) = %v, expected 0", got)
	}
}

func TestCurveValidate(t *testing.T) {
	good := barline.Curve{{Time: 0, Value: 1}, {Time: 0.5, Value: 2}, {Time: 2, Value: 3}}
	if err := good.Validate("velocity"); err != nil {
		t.Fatalf("Validate failed on a monotonic curve: %v", err)
	}
	for _, bad := range []barline.Curve{
		{{Time: 0, Value: 1}, {Time: 0, Value: 2}},
		{{Time: 1, Value: 1}, {Time: 0, Value: 2}},
	} {
		err := bad.Validate("velocity")
		if err == nil {
			t.Fatalf("Validate should have failed on %v", bad)
		}
		var malformed *barline.MalformedExpressionError
		if !errors.As(err, &malformed) {
			t.Fatalf("Validate returned %T, expected *MalformedExpressionError", err)
		}
	}
}

func TestExpressionValidateControllerRange(t *testing.T) {
	expr := &barline.Expression{
		Controllers: map[int]barline.Curve{
			128: {{Time: 0, Value: 64}},
		},
	}
	var malformed *barline.MalformedExpressionError
	if err := expr.Validate(); !errors.As(err, &malformed) {
		t.Fatalf("Validate returned %v, expected *MalformedExpressionError for cc 128", err)
	}
	expr = &barline.Expression{
		Controllers: map[int]barline.Curve{
			1:  {{Time: 0, Value: 64}},
			64: {{Time: 0, Value: 0}, {Time: 4, Value: 127}},
		},
	}
	if err := expr.Validate(); err != nil {
		t.Fatalf("Validate failed on valid controller lanes: %v", err)
	}
}

func TestExpressionCopyIsDeep(t *testing.T) {
	expr := &barline.Expression{
		Velocity:    barline.Curve{{Time: 0, Value: 90}},
		Controllers: map[int]barline.Curve{1: {{Time: 0, Value: 64}}},
	}
	clone := expr.Copy()
	clone.Velocity[0].Value = 10
	clone.Controllers[1][0].Value = 10
	if expr.Velocity[0].Value != 90 || expr.Controllers[1][0].Value != 64 {
		t.Error("Copy should not share control point storage with the original")
	}
}
