package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/avada/internal/content"
	"github.com/roach88/avada/internal/rotation"
)

// DefaultUserID is used when a scenario does not name a user.
const DefaultUserID = "scenario-user"

// Scenario defines a scripted conversation and the properties it must show.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// UserID owns every session. Defaults to DefaultUserID.
	UserID string `yaml:"user_id,omitempty"`

	// Platform and Locale apply to sessions that do not override them.
	Platform string `yaml:"platform"`
	Locale   string `yaml:"locale,omitempty"`

	// Seed selects a reproducible shuffle. Nil serves pools in catalog order.
	Seed *uint64 `yaml:"seed,omitempty"`

	// Catalog is a CUE catalog path. Empty uses the embedded catalog.
	Catalog string `yaml:"catalog,omitempty"`

	// Sessions run in order, each ended before the next starts.
	Sessions []SessionStep `yaml:"sessions"`

	// Assertions validate the trace and final state.
	Assertions []Assertion `yaml:"assertions"`
}

// SessionStep is one conversation.
type SessionStep struct {
	Platform string   `yaml:"platform,omitempty"`
	Locale   string   `yaml:"locale,omitempty"`
	Intents  []string `yaml:"intents"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Category is sound, interjection or after_effect.
	Category string `yaml:"category,omitempty"`

	// From is the first spell considered (distinct, repeats).
	From int `yaml:"from,omitempty"`

	// Count is the number of spells (distinct) or events (event_count).
	Count int `yaml:"count,omitempty"`

	// Period is the cycle length (repeats).
	Period int `yaml:"period,omitempty"`

	// Turn indexes the trace (pick, speech_contains).
	Turn int `yaml:"turn,omitempty"`

	// ID is the expected pick (pick).
	ID int `yaml:"id,omitempty"`

	// Index is the expected persisted cursor (final_index).
	Index int `yaml:"index,omitempty"`

	// Text is the expected substring (speech_contains).
	Text string `yaml:"text,omitempty"`

	// Action is the analytics action (event_count).
	Action string `yaml:"action,omitempty"`
}

// Assertion type constants.
const (
	AssertDistinct       = "distinct"
	AssertRepeats        = "repeats"
	AssertPick           = "pick"
	AssertFinalIndex     = "final_index"
	AssertSpeechContains = "speech_contains"
	AssertEventCount     = "event_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative catalog path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := content.ParsePlatform(s.Platform); err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	if len(s.Sessions) == 0 {
		return fmt.Errorf("sessions list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, sess := range s.Sessions {
		if len(sess.Intents) == 0 {
			return fmt.Errorf("sessions[%d]: intents list is required", i)
		}
		if sess.Platform != "" {
			if _, err := content.ParsePlatform(sess.Platform); err != nil {
				return fmt.Errorf("sessions[%d].platform: %w", i, err)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needsCategory := func() error {
		if !validCategory(a.Category) {
			return fmt.Errorf("assertions[%d]: category must be sound, interjection or after_effect for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertDistinct:
		if err := needsCategory(); err != nil {
			return err
		}
		if a.Count < 1 || a.From < 0 {
			return fmt.Errorf("assertions[%d]: distinct needs count >= 1 and from >= 0", index)
		}
	case AssertRepeats:
		if err := needsCategory(); err != nil {
			return err
		}
		if a.Period < 1 || a.From < 0 {
			return fmt.Errorf("assertions[%d]: repeats needs period >= 1 and from >= 0", index)
		}
	case AssertPick:
		if err := needsCategory(); err != nil {
			return err
		}
		if a.Turn < 0 {
			return fmt.Errorf("assertions[%d]: turn must be non-negative", index)
		}
	case AssertFinalIndex:
		if err := needsCategory(); err != nil {
			return err
		}
	case AssertSpeechContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for speech_contains", index)
		}
		if a.Turn < 0 {
			return fmt.Errorf("assertions[%d]: turn must be non-negative", index)
		}
	case AssertEventCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validCategory(name string) bool {
	for _, c := range rotation.Categories {
		if string(c) == name {
			return true
		}
	}
	return false
}
