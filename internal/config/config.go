package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds project-level settings loaded from memogen.yml.
// Command-line flags override anything set here.
type ProjectConfig struct {
	OutputDir         string `yaml:"outputDir,omitempty"` // memo store root, default "memos"
	Model             string `yaml:"model,omitempty"`
	InvestmentType    string `yaml:"investmentType,omitempty"` // direct | fund
	Mode              string `yaml:"mode,omitempty"`           // consider | justify
	OutlinePath       string `yaml:"outlinePath,omitempty"`    // custom outline YAML
	ScorecardTemplate string `yaml:"scorecardTemplate,omitempty"`
	MaxRevisions      int    `yaml:"maxRevisions,omitempty"`
	Verbose           bool   `yaml:"verbose,omitempty"`

	Enrichments struct {
		Trademark bool `yaml:"trademark,omitempty"`
		Socials   bool `yaml:"socials,omitempty"`
		Links     bool `yaml:"links,omitempty"`
		Tables    bool `yaml:"tables,omitempty"`
		FactCheck bool `yaml:"factCheck,omitempty"`
	} `yaml:"enrichments,omitempty"`
}

// Load attempts to read memogen.yml or memogen.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"memogen.yml", "memogen.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
