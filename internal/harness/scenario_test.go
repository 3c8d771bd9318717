package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: minimal
description: "smallest valid scenario"
keys:
  - "35200114200166000187550010000000011000000012"
expect:
  success: 1
assertions:
  - type: artifact_count
    count: 1
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, CredentialValid, s.Credential)
	assert.Len(t, s.Keys, 1)
	assert.Equal(t, 1, s.Expect.Success)
}

func TestLoadScenario_RunSettings(t *testing.T) {
	path := writeScenario(t, `
name: settings
description: "run group uses the settings file keys"
run:
  region: rj
  homologation: true
  verify_check_digit: true
  workers: 3
assertions:
  - type: artifact_count
    count: 0
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "rj", s.Run.Region)
	assert.True(t, s.Run.Homologation)
	assert.True(t, s.Run.VerifyCheckDigit)
	assert.Equal(t, 3, s.Run.Workers)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown_field",
			content: "name: x\ndescription: y\nassertion: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing_name",
			content: "description: y\nassertions:\n  - type: artifact_count\n",
			wantErr: "name is required",
		},
		{
			name:    "missing_description",
			content: "name: x\nassertions:\n  - type: artifact_count\n",
			wantErr: "description is required",
		},
		{
			name:    "no_assertions",
			content: "name: x\ndescription: y\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "bad_credential",
			content: "name: x\ndescription: y\ncredential: stolen\nassertions:\n  - type: artifact_count\n",
			wantErr: `unknown credential condition "stolen"`,
		},
		{
			name:    "unknown_assertion",
			content: "name: x\ndescription: y\nassertions:\n  - type: final_state\n",
			wantErr: `unknown assertion type "final_state"`,
		},
		{
			name:    "outcome_without_key",
			content: "name: x\ndescription: y\nassertions:\n  - type: outcome\n    code: ok\n",
			wantErr: "key is required for outcome",
		},
		{
			name:    "outcome_bad_code",
			content: "name: x\ndescription: y\nassertions:\n  - type: outcome\n    key: k\n    code: FINE\n",
			wantErr: `unknown outcome code "FINE"`,
		},
		{
			name:    "order_without_keys",
			content: "name: x\ndescription: y\nassertions:\n  - type: outcome_order\n",
			wantErr: "keys list is required",
		},
		{
			name:    "contains_without_text",
			content: "name: x\ndescription: y\nassertions:\n  - type: artifact_contains\n    key: k\n",
			wantErr: "key and text are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
