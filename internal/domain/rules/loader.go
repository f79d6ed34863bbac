package rules

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a rule table from the YAML file at path. When path is empty or
// the file does not exist, the built-in default table is returned, so a bare
// deployment runs the published policy.
func Load(path string) (Set, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Set{}, fmt.Errorf("read rules file %s: %w", path, err)
	}

	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Set{}, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if len(s.Rules) == 0 {
		return Set{}, fmt.Errorf("rules file %s: no rules defined", path)
	}
	if err := s.Validate(); err != nil {
		return Set{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return s, nil
}
