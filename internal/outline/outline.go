// Package outline defines the section registry: the ordered list of memo
// sections a run must produce, loaded once per run and injected into every
// stage. Outlines come from a YAML file or from the embedded defaults for
// each investment type.
package outline

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed outlines/*.yml
var outlineFS embed.FS

// Section is one registry entry. Number defines canonical order; Slug is
// the filename stem used in the artifact store.
type Section struct {
	Number           int      `yaml:"number"`
	Name             string   `yaml:"name"`
	Slug             string   `yaml:"slug"`
	TargetWords      int      `yaml:"target_words,omitempty"`
	GuidingQuestions []string `yaml:"guiding_questions,omitempty"`
	Vocabulary       []string `yaml:"vocabulary,omitempty"`
}

// Registry is the ordered section list for one investment type.
type Registry struct {
	InvestmentType string    `yaml:"type"`
	Sections       []Section `yaml:"sections"`
}

// Load reads a registry from a YAML outline file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("outline: read %s: %w", path, err)
	}
	return parse(data)
}

// Default returns the embedded outline for an investment type
// ("direct" or "fund").
func Default(investmentType string) (*Registry, error) {
	data, err := outlineFS.ReadFile("outlines/" + investmentType + ".yml")
	if err != nil {
		return nil, fmt.Errorf("outline: no embedded outline for investment type %q", investmentType)
	}
	return parse(data)
}

func parse(data []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("outline: parse: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks the registry invariants: at least one section, numbers
// contiguous starting at 1, and slugs unique.
func (r *Registry) Validate() error {
	if len(r.Sections) == 0 {
		return fmt.Errorf("outline: registry has no sections")
	}
	slugs := make(map[string]bool, len(r.Sections))
	for i, sec := range r.Sections {
		if sec.Number != i+1 {
			return fmt.Errorf("outline: section %q has number %d, want %d (numbers must be contiguous from 1)",
				sec.Name, sec.Number, i+1)
		}
		if sec.Slug == "" {
			return fmt.Errorf("outline: section %q has no slug", sec.Name)
		}
		if slugs[sec.Slug] {
			return fmt.Errorf("outline: duplicate section slug %q", sec.Slug)
		}
		slugs[sec.Slug] = true
	}
	return nil
}

// ByNumber returns the section with the given number, or nil.
func (r *Registry) ByNumber(n int) *Section {
	if n < 1 || n > len(r.Sections) {
		return nil
	}
	return &r.Sections[n-1]
}

// BySlug returns the section with the given slug, or nil.
func (r *Registry) BySlug(slug string) *Section {
	for i := range r.Sections {
		if r.Sections[i].Slug == slug {
			return &r.Sections[i]
		}
	}
	return nil
}

// Len returns the number of sections.
func (r *Registry) Len() int {
	return len(r.Sections)
}
