package barline_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/barline/barline"
)

func mustPitch(t *testing.T, s string) barline.Pitch {
	t.Helper()
	p, err := barline.ParsePitch(s)
	if err != nil {
		t.Fatalf("ParsePitch(%q) failed: %v", s, err)
	}
	return p
}

func quarterItems(t *testing.T, pitches ...string) []barline.BarItem {
	t.Helper()
	items := make([]barline.BarItem, len(pitches))
	for i, s := range pitches {
		items[i] = barline.BarItem{Pitch: mustPitch(t, s), Duration: "quarter", Velocity: 90}
	}
	return items
}

func TestBarLayoutOffsets(t *testing.T) {
	bar, err := barline.NewBar(quarterItems(t, "C4", "E4", "G4", "C5"), 32)
	if err != nil {
		t.Fatalf("NewBar failed: %v", err)
	}
	var offsets []int
	for _, item := range bar.Items {
		offsets = append(offsets, item.StartUnits)
	}
	if !reflect.DeepEqual(offsets, []int{0, 8, 16, 24}) {
		t.Errorf("offsets = %v, expected [0 8 16 24]", offsets)
	}
}

func TestBarLayoutIdempotent(t *testing.T) {
	bar, err := barline.NewBar(quarterItems(t, "C4", "E4", "G4"), 32)
	if err != nil {
		t.Fatalf("NewBar failed: %v", err)
	}
	first := append([]barline.BarItem(nil), bar.Items...)
	if err := bar.Layout(); err != nil {
		t.Fatalf("second Layout failed: %v", err)
	}
	if !reflect.DeepEqual(bar.Items, first) {
		t.Errorf("repeated layout changed the items: %v vs %v", bar.Items, first)
	}
}

func TestBarOverflow(t *testing.T) {
	items := make([]barline.BarItem, 33)
	for i := range items {
		items[i] = barline.BarItem{Pitch: mustPitch(t, "C4"), Duration: "thirty_second"}
	}
	_, err := barline.NewBar(items, 32)
	if err == nil {
		t.Fatal("NewBar should have failed with 33 one-unit items in a 32-unit bar")
	}
	var overflow *barline.BarOverflowError
	if !errors.As(err, &overflow) {
		t.Fatalf("NewBar returned %T, expected *BarOverflowError", err)
	}
	if overflow.Total != 33 || overflow.Capacity != 32 {
		t.Errorf("overflow = %v/%v, expected 33/32", overflow.Total, overflow.Capacity)
	}
}

func TestBarExactFit(t *testing.T) {
	bar, err := barline.NewBar(quarterItems(t, "C4", "D4", "E4", "F4"), 32)
	if err != nil {
		t.Fatalf("NewBar failed: %v", err)
	}
	last := bar.Items[len(bar.Items)-1]
	if last.StartUnits+last.DurationUnits != 32 {
		t.Errorf("final cursor = %v, expected 32", last.StartUnits+last.DurationUnits)
	}
}

func TestBarLayoutUnknownDuration(t *testing.T) {
	items := []barline.BarItem{{Pitch: mustPitch(t, "C4"), Duration: "sixty_fourth"}}
	_, err := barline.NewBar(items, 32)
	var durationErr *barline.UnknownDurationError
	if !errors.As(err, &durationErr) {
		t.Fatalf("NewBar returned %v, expected *UnknownDurationError", err)
	}
}

func TestBarNotesBeats(t *testing.T) {
	items := quarterItems(t, "C4", "E4")
	items = append(items, barline.BarItem{IsRest: true, Duration: "half"})
	bar, err := barline.NewBar(items, 32)
	if err != nil {
		t.Fatalf("NewBar failed: %v", err)
	}
	notes := bar.Notes(4)
	expected := []barline.Note{
		{Pitch: 60, Start: 0, Duration: 1, Velocity: 90},
		{Pitch: 64, Start: 1, Duration: 1, Velocity: 90},
		{Start: 2, Duration: 2, IsRest: true},
	}
	if !reflect.DeepEqual(notes, expected) {
		t.Errorf("Notes(4) = %v, expected %v", notes, expected)
	}
}

func TestFreeBarKeepsBoundaryCrossingNotes(t *testing.T) {
	// the free-form kind has no capacity check: a note may start late in
	// the bar and last past its end without truncation
	bar := barline.NewFreeBar([]barline.Note{
		{Pitch: 60, Start: 3.5, Duration: 2, Velocity: 100},
	})
	if !bar.FreeForm() {
		t.Fatal("NewFreeBar should produce a free-form bar")
	}
	if err := bar.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	notes := bar.Notes(4)
	if len(notes) != 1 || notes[0].End() != 5.5 {
		t.Errorf("free-form notes = %v, expected one note ending at 5.5", notes)
	}
}
