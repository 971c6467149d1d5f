package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/resolve"
)

// Scenario defines an interpretation scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Knowledgebase lists the values the oracle knows.
	Knowledgebase Knowledgebase `yaml:"knowledgebase"`

	// Config overrides precedence and window policy.
	Config Config `yaml:"config,omitempty"`

	// Steps are the search strings to interpret, in order.
	Steps []Step `yaml:"steps"`

	// Assertions are properties checked on every step.
	Assertions []Assertion `yaml:"assertions"`
}

// Knowledgebase lists the values behind each category.
type Knowledgebase struct {
	Feature        []string `yaml:"feature,omitempty"`
	Disease        []string `yaml:"disease,omitempty"`
	Therapy        []string `yaml:"therapy,omitempty"`
	Pred           []string `yaml:"pred,omitempty"`
	AttributeNames []string `yaml:"attribute_names,omitempty"`
}

// Config mirrors the search section of the service configuration.
type Config struct {
	Precedence []string `yaml:"precedence,omitempty"`
	Window     string   `yaml:"window,omitempty"`
}

// Step is one search string and its expected categorization.
type Step struct {
	Query string `yaml:"query"`

	// Expect maps category names (unknown included) to phrases.
	Expect map[string][]string `yaml:"expect,omitempty"`
}

// Assertion is a property checked on every step.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the bound for max_lookups.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertNoTokenLoss       = "no_token_loss"
	AssertIdempotentTagging = "idempotent_tagging"
	AssertCaseInsensitive   = "case_insensitive"
	AssertMaxLookups        = "max_lookups"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "step:" vs "steps:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ResolveConfig converts the scenario config for the interpreter.
func (c Config) ResolveConfig() (resolve.Config, error) {
	cfg := resolve.DefaultConfig()
	window, err := resolve.ParseWindowPolicy(c.Window)
	if err != nil {
		return resolve.Config{}, err
	}
	cfg.Window = window
	if len(c.Precedence) > 0 {
		if cfg.Precedence, err = category.ParseList(c.Precedence); err != nil {
			return resolve.Config{}, err
		}
	}
	return cfg, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if _, err := s.Config.ResolveConfig(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	for i, step := range s.Steps {
		for name := range step.Expect {
			var c category.Category
			if err := c.UnmarshalText([]byte(name)); err != nil {
				return fmt.Errorf("steps[%d].expect: %w", i, err)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertNoTokenLoss, AssertIdempotentTagging, AssertCaseInsensitive:
	case AssertMaxLookups:
		if a.Count <= 0 {
			return fmt.Errorf("assertions[%d]: count must be positive for max_lookups", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
