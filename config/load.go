package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads a project file. JSON is the canonical on-disk format,
// YAML is accepted for hand-edited configs (keyed on extension).
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read project file %q", path)
	}

	p := &Project{}
	if isYAML(path) {
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, errors.Wrapf(err, "Failed to parse yaml project %q", path)
		}
	} else {
		if err := json.Unmarshal(data, p); err != nil {
			return nil, errors.Wrapf(err, "Failed to parse json project %q", path)
		}
	}

	if err := p.Validate(); err != nil {
		return nil, errors.Wrapf(err, "Invalid project %q", path)
	}
	return p, nil
}

// Save writes the project next to any existing file, format keyed on
// extension like Load.
func Save(path string, p *Project) error {
	if err := p.Validate(); err != nil {
		return errors.Wrap(err, "Refusing to save invalid project")
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(p)
	} else {
		data, err = json.MarshalIndent(p, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "Failed to marshal project")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "Failed to write project file %q", path)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
