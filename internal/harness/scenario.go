package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/nfesynth/internal/batch"
	"github.com/roach88/nfesynth/internal/config"
)

// Scenario defines an end-to-end batch scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Credential selects the credential condition presented to the gate.
	// Defaults to CredentialValid.
	Credential string `yaml:"credential,omitempty"`

	// Run holds the run settings, using the same keys as the settings file.
	Run config.RunConfig `yaml:"run"`

	// Keys are the raw input lines, unfiltered.
	Keys []string `yaml:"keys"`

	// Expect states the run-level counters.
	Expect Expectation `yaml:"expect"`

	// Assertions validate the trace and persisted documents.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run ID.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// Expectation states the run-level outcome.
type Expectation struct {
	Aborted   bool   `yaml:"aborted"`
	AbortCode string `yaml:"abort_code,omitempty"`
	Success   int    `yaml:"success"`
	Errors    int    `yaml:"errors"`
	Filtered  int    `yaml:"filtered"`
}

// Assertion validates the trace or persisted documents.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Key is the access key (used by outcome and artifact_contains).
	Key string `yaml:"key,omitempty"`

	// Code is "ok" or an item error code (used by outcome).
	Code string `yaml:"code,omitempty"`

	// Keys is the expected trace order (used by outcome_order).
	Keys []string `yaml:"keys,omitempty"`

	// Count is the expected number of documents (used by artifact_count).
	Count int `yaml:"count,omitempty"`

	// Text must appear in the document (used by artifact_contains).
	Text string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcome          = "outcome"
	AssertOutcomeOrder     = "outcome_order"
	AssertArtifactCount    = "artifact_count"
	AssertArtifactContains = "artifact_contains"
)

// Credential conditions.
const (
	CredentialValid       = "valid"
	CredentialExpired     = "expired"
	CredentialNotYetValid = "not_yet_valid"
	CredentialMalformed   = "malformed"
	CredentialUnreadable  = "unreadable"
)

var itemCodes = map[string]bool{
	OutcomeOK:                            true,
	string(batch.ErrCodeDecodeFailed):    true,
	string(batch.ErrCodeSynthesisFailed): true,
	string(batch.ErrCodePersistFailed):   true,
	string(batch.ErrCodePanic):           true,
	string(batch.ErrCodeCanceled):        true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Credential == "" {
		scenario.Credential = CredentialValid
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

	switch s.Credential {
	case CredentialValid, CredentialExpired, CredentialNotYetValid, CredentialMalformed, CredentialUnreadable:
	default:
		return fmt.Errorf("unknown credential condition %q", s.Credential)
	}

	if s.Run.Workers < 0 {
		return fmt.Errorf("run.workers must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
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

	switch a.Type {
	case AssertOutcome:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for outcome", index)
		}
		if !itemCodes[a.Code] {
			return fmt.Errorf("assertions[%d]: unknown outcome code %q", index, a.Code)
		}
	case AssertOutcomeOrder:
		if len(a.Keys) == 0 {
			return fmt.Errorf("assertions[%d]: keys list is required for outcome_order", index)
		}
	case AssertArtifactCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for artifact_count", index)
		}
	case AssertArtifactContains:
		if a.Key == "" || a.Text == "" {
			return fmt.Errorf("assertions[%d]: key and text are required for artifact_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
