package sml

import (
	"embed"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"

	"github.com/barline/barline"
)

//go:embed presets/*.yml
var presetFS embed.FS

// Preset is a ready-made clip compiled into the binary, usable as a
// starting point before any document has been loaded.
type Preset struct {
	Name string
	Clip barline.Clip
}

var (
	presetsOnce sync.Once
	presets     []Preset
)

// Presets returns the built-in clips, sorted by name. The returned slice
// is shared; callers wanting to modify a clip should Copy it first.
func Presets() []Preset {
	presetsOnce.Do(loadPresets)
	return presets
}

// PresetByName returns the built-in clip with the given name.
func PresetByName(name string) (barline.Clip, bool) {
	for _, p := range Presets() {
		if p.Name == name {
			return p.Clip, true
		}
	}
	return barline.Clip{}, false
}

func loadPresets() {
	fs.WalkDir(presetFS, "presets", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(presetFS, path)
		if err != nil {
			return nil
		}
		var doc clipDoc
		if yaml.UnmarshalStrict(data, &doc) != nil {
			return nil
		}
		clip, err := clipFromDoc(doc)
		if err != nil {
			return nil
		}
		if clip.Name == "" {
			noExt := path[:len(path)-len(filepath.Ext(path))]
			clip.Name = strings.ReplaceAll(filepath.Base(noExt), "_", " ")
		}
		presets = append(presets, Preset{Name: clip.Name, Clip: clip})
		return nil
	})
	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
}
