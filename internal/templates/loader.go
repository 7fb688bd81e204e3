package templates

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// templateFile is the on-disk format read by LoadFile.
type templateFile struct {
	Templates []Template `yaml:"templates"`
}

// LoadFile reads templates from a YAML file and registers them, replacing
// built-ins with the same id. A missing file is not an error; it returns 0.
func (r *Registry) LoadFile(path string) (int, error) {
	//nolint:gosec // path comes from operator configuration
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading templates file %q: %w", path, err)
	}

	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("parsing templates file %q: %w", path, err)
	}

	for i, t := range f.Templates {
		if err := r.Register(t); err != nil {
			return i, fmt.Errorf("template #%d in %q: %w", i+1, path, err)
		}
	}
	return len(f.Templates), nil
}
