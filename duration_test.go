package barline_test

import (
	"errors"
	"math"
	"testing"

	"github.com/barline/barline"
)

var durationTable = map[barline.Duration]int{
	"whole":             32,
	"half":              16,
	"quarter":           8,
	"eighth":            4,
	"sixteenth":         2,
	"thirty_second":     1,
	"dotted_half":       24,
	"dotted_quarter":    12,
	"dotted_eighth":     6,
	"triplet_quarter":   5,
	"triplet_eighth":    3,
	"triplet_sixteenth": 1,
}

func TestDurationUnitsReferenceGrid(t *testing.T) {
	for token, base := range durationTable {
		units, err := token.Units(32)
		if err != nil {
			t.Fatalf("Units(%q, 32) failed: %v", token, err)
		}
		if units != base {
			t.Errorf("Units(%q, 32) = %v, expected %v", token, units, base)
		}
	}
}

func TestDurationUnitsHalvedGrid(t *testing.T) {
	for token, base := range durationTable {
		units, err := token.Units(16)
		if err != nil {
			t.Fatalf("Units(%q, 16) failed: %v", token, err)
		}
		expected := int(math.Round(float64(base) / 2))
		if expected < 1 {
			expected = 1
		}
		if units != expected {
			t.Errorf("Units(%q, 16) = %v, expected %v", token, units, expected)
		}
	}
}

func TestDurationNumericToken(t *testing.T) {
	units, err := barline.Duration("12").Units(32)
	if err != nil {
		t.Fatalf("Units(\"12\", 32) failed: %v", err)
	}
	if units != 12 {
		t.Errorf("Units(\"12\", 32) = %v, expected 12", units)
	}
}

func TestDurationUnknownToken(t *testing.T) {
	for _, token := range []barline.Duration{"", "sixty_fourth", "-3", "1.5", "quarter "} {
		_, err := token.Units(32)
		if err == nil {
			t.Errorf("Units(%q, 32) should have failed", token)
			continue
		}
		var durationErr *barline.UnknownDurationError
		if !errors.As(err, &durationErr) {
			t.Errorf("Units(%q, 32) returned %T, expected *UnknownDurationError", token, err)
		}
	}
}

func TestDurationNeverRoundsToZero(t *testing.T) {
	units, err := barline.Duration("thirty_second").Units(8)
	if err != nil {
		t.Fatalf("Units failed: %v", err)
	}
	if units != 1 {
		t.Errorf("thirty_second on an 8-unit grid = %v, expected 1", units)
	}
}
