package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/strata3d/layerpaint/utils"
)

// Palette is five ordered colors feeding the five master palette
// target slots.
type Palette [5]utils.ColorFloat

// PaletteLibrary is named categories of named palettes, persisted as
// a single JSON file.
type PaletteLibrary map[string]map[string]Palette

func LoadPalettes(path string) (PaletteLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read palette file %q", path)
	}
	lib := PaletteLibrary{}
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse palette file %q", path)
	}
	return lib, nil
}

func SavePalettes(path string, lib PaletteLibrary) error {
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return errors.Wrap(err, "Failed to marshal palettes")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "Failed to write palette file %q", path)
	}
	return nil
}

// Store adds or replaces a palette under a category.
func (lib PaletteLibrary) Store(category, name string, p Palette) {
	presets, ok := lib[category]
	if !ok {
		presets = make(map[string]Palette)
		lib[category] = presets
	}
	presets[name] = p
}

// Get looks up a palette by category and name.
func (lib PaletteLibrary) Get(category, name string) (Palette, bool) {
	presets, ok := lib[category]
	if !ok {
		return Palette{}, false
	}
	p, ok := presets[name]
	return p, ok
}

// DeleteCategory removes a whole category.
func (lib PaletteLibrary) DeleteCategory(category string) {
	delete(lib, category)
}

// DeletePalette removes one palette, dropping the category when it
// empties out.
func (lib PaletteLibrary) DeletePalette(category, name string) {
	if presets, ok := lib[category]; ok {
		delete(presets, name)
		if len(presets) == 0 {
			delete(lib, category)
		}
	}
}
