package threatintel

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seeds/default.yaml
var defaultSeeds []byte

// Seed is one advisory in a seed file
type Seed struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Severity    Severity `yaml:"severity"`
	Category    Category `yaml:"category"`
	Active      *bool    `yaml:"active"`
}

type seedFile struct {
	Advisories []Seed `yaml:"advisories"`
}

// LoadSeeds reads advisories from path, or the built-in set when path is empty
func LoadSeeds(path string) ([]Seed, error) {
	data := defaultSeeds
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
	}
	return ParseSeeds(data)
}

// ParseSeeds decodes and validates a YAML seed document
func ParseSeeds(data []byte) ([]Seed, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	for i, s := range f.Advisories {
		if s.Title == "" || s.Description == "" {
			return nil, fmt.Errorf("advisory %d: title and description are required", i)
		}
		if !s.Severity.Valid() {
			return nil, fmt.Errorf("advisory %q: unknown severity %q", s.Title, s.Severity)
		}
		if !s.Category.Valid() {
			return nil, fmt.Errorf("advisory %q: unknown category %q", s.Title, s.Category)
		}
	}
	return f.Advisories, nil
}

// IsActive defaults to true when the seed omits it
func (s Seed) IsActive() bool {
	return s.Active == nil || *s.Active
}
