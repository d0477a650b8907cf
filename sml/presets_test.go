package sml_test

import (
	"testing"

	"github.com/barline/barline/sml"
)

func TestPresets(t *testing.T) {
	presets := sml.Presets()
	if len(presets) == 0 {
		t.Fatal("no built-in presets loaded")
	}
	for i, p := range presets {
		if p.Name == "" {
			t.Errorf("preset %v has no name", i)
		}
		if len(p.Clip.Bars) == 0 {
			t.Errorf("preset %q has no bars", p.Name)
		}
		if err := p.Clip.Validate(); err != nil {
			t.Errorf("preset %q does not validate: %v", p.Name, err)
		}
		if i > 0 && presets[i-1].Name > p.Name {
			t.Error("presets are not sorted by name")
		}
	}
}

func TestPresetByName(t *testing.T) {
	clip, ok := sml.PresetByName("walking bass")
	if !ok {
		t.Fatal("walking bass preset missing")
	}
	if len(clip.Bars) != 2 {
		t.Errorf("walking bass has %v bars", len(clip.Bars))
	}
	if _, ok := sml.PresetByName("no such preset"); ok {
		t.Error("lookup of an unknown preset succeeded")
	}
}
