// Package correct applies scoped factual corrections to generated memos. A
// correction instruction names a stale value and its replacement; the engine
// finds every section that states the stale fact, rewrites only those, and
// reassembles the final draft. Citation definitions are never rewritten:
// they describe what a source said, not what the memo currently claims.
package correct

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OutputMode selects where the corrected sections land.
type OutputMode string

const (
	// ModeNewVersion clones the source run into the next patch version and
	// corrects the clone. The source run is untouched.
	ModeNewVersion OutputMode = "new_version"

	// ModeInPlace overwrites the source run's section files directly.
	ModeInPlace OutputMode = "in_place"
)

// Correction is one stale-value replacement.
type Correction struct {
	Type      string   `yaml:"type" json:"type"`           // e.g. "fund_size", "valuation", "date"
	Field     string   `yaml:"field" json:"field"`         // human label for the corrected fact
	Incorrect string   `yaml:"incorrect" json:"incorrect"` // the stale value as it appears in prose
	Correct   string   `yaml:"correct" json:"correct"`
	Sections  []string `yaml:"sections,omitempty" json:"sections,omitempty"` // slug hints; empty means scan all
}

// Instruction is the full correction request, loaded from YAML.
type Instruction struct {
	CompanyName   string       `yaml:"company_name"`
	SourceVersion string       `yaml:"source_version"` // empty or "latest" resolves the pointer
	OutputMode    OutputMode   `yaml:"output_mode"`
	Corrections   []Correction `yaml:"corrections"`
}

// LoadInstruction parses and validates a correction YAML file. Malformed
// input fails here, before any run is opened or mutated.
func LoadInstruction(path string) (*Instruction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("correct: read instruction: %w", err)
	}
	var inst Instruction
	if err := yaml.Unmarshal(raw, &inst); err != nil {
		return nil, fmt.Errorf("correct: parse instruction: %w", err)
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &inst, nil
}

// Validate checks the instruction's contract. OutputMode defaults to
// new_version when omitted.
func (inst *Instruction) Validate() error {
	if inst.CompanyName == "" {
		return fmt.Errorf("correct: instruction is missing company_name")
	}
	if inst.OutputMode == "" {
		inst.OutputMode = ModeNewVersion
	}
	if inst.OutputMode != ModeNewVersion && inst.OutputMode != ModeInPlace {
		return fmt.Errorf("correct: unknown output_mode %q", inst.OutputMode)
	}
	if len(inst.Corrections) == 0 {
		return fmt.Errorf("correct: instruction has no corrections")
	}
	for i, c := range inst.Corrections {
		if c.Incorrect == "" || c.Correct == "" {
			return fmt.Errorf("correct: correction %d must set both incorrect and correct", i+1)
		}
		if c.Incorrect == c.Correct {
			return fmt.Errorf("correct: correction %d replaces %q with itself", i+1, c.Incorrect)
		}
	}
	return nil
}
