// Package config loads run settings for nfesynth.
//
// Settings come from a single file, YAML (.yaml, .yml, .json) or TOML
// (.toml), decoded strictly: unknown keys are rejected so typos surface as
// startup errors instead of silently falling back to defaults. A missing or
// malformed file is fatal.
//
// Example (YAML):
//
//	credential:
//	  path: certificado.pfx
//	  secret: s3cret
//	run:
//	  region: SP
//	  homologation: false
//	output:
//	  dir: xmls
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// SecretEnv overrides credential.secret when set.
//
//nolint:gosec // G101: This is an environment variable name, not a credential.
const SecretEnv = "NFESYNTH_CERT_SECRET"

// Defaults.
const (
	DefaultRegion  = "SP"
	DefaultWorkers = 1
	DefaultDir     = "xmls"
)

// Config is the complete settings object.
type Config struct {
	Credential CredentialConfig `yaml:"credential" toml:"credential"`
	Run        RunConfig        `yaml:"run" toml:"run"`
	Output     OutputConfig     `yaml:"output" toml:"output"`

	// Certificado and Configuracao are the appsettings.json sections. Load
	// folds them into Credential and Run and clears them.
	Certificado  *CertificadoSection  `yaml:"Certificado,omitempty" toml:"Certificado,omitempty"`
	Configuracao *ConfiguracaoSection `yaml:"Configuracao,omitempty" toml:"Configuracao,omitempty"`
}

// CertificadoSection is the appsettings.json credential section.
type CertificadoSection struct {
	Caminho string `yaml:"Caminho" toml:"Caminho"`
	Senha   string `yaml:"Senha" toml:"Senha"`
}

// ConfiguracaoSection is the appsettings.json run section.
type ConfiguracaoSection struct {
	UF          string `yaml:"UF" toml:"UF"`
	Homologacao bool   `yaml:"Homologacao" toml:"Homologacao"`
}

// CredentialConfig locates the X.509 credential.
type CredentialConfig struct {
	Path   string `yaml:"path" toml:"path"`
	Secret string `yaml:"secret" toml:"secret"`
}

// RunConfig controls document synthesis.
type RunConfig struct {
	// Region is the UF abbreviation used for region codes.
	Region string `yaml:"region" toml:"region"`

	// Homologation selects the restricted test environment.
	Homologation bool `yaml:"homologation" toml:"homologation"`

	// VerifyCheckDigit rejects keys whose mod-11 check digit does not match.
	VerifyCheckDigit bool `yaml:"verify_check_digit" toml:"verify_check_digit"`

	// Workers is the number of keys processed concurrently.
	Workers int `yaml:"workers" toml:"workers"`
}

// OutputConfig selects where documents are persisted.
type OutputConfig struct {
	// Dir is the namespace directory for <key>.xml files.
	Dir string `yaml:"dir" toml:"dir"`

	// Database is an optional SQLite path that also receives every document.
	Database string `yaml:"database" toml:"database"`
}

// Default returns the settings used for omitted keys.
func Default() Config {
	return Config{
		Run: RunConfig{
			Region:  DefaultRegion,
			Workers: DefaultWorkers,
		},
		Output: OutputConfig{
			Dir: DefaultDir,
		},
	}
}

// Load reads and validates the settings file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := decode(path, data, &cfg); err != nil {
		return nil, err
	}
	cfg.foldAppSettings()

	if secret, ok := os.LookupEnv(SecretEnv); ok {
		cfg.Credential.Secret = secret
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("failed to parse TOML: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true) // Reject unknown fields
		if err := dec.Decode(cfg); err != nil {
			if errors.Is(err, io.EOF) {
				return errors.New("config file is empty")
			}
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	return nil
}

func (c *Config) foldAppSettings() {
	if s := c.Certificado; s != nil {
		if s.Caminho != "" {
			c.Credential.Path = s.Caminho
		}
		if s.Senha != "" {
			c.Credential.Secret = s.Senha
		}
	}
	if s := c.Configuracao; s != nil {
		if s.UF != "" {
			c.Run.Region = s.UF
		}
		c.Run.Homologation = s.Homologacao
	}
	c.Certificado, c.Configuracao = nil, nil
}

func (c *Config) normalize() {
	c.Run.Region = strings.ToUpper(strings.TrimSpace(c.Run.Region))
	if c.Run.Region == "" {
		c.Run.Region = DefaultRegion
	}
	if c.Run.Workers == 0 {
		c.Run.Workers = DefaultWorkers
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		c.Output.Dir = DefaultDir
	}
}

// Validate checks field-level constraints.
func (c *Config) Validate() error {
	if c.Credential.Path == "" {
		return errors.New("credential.path is required")
	}
	if c.Run.Workers < 0 {
		return fmt.Errorf("run.workers must be positive, got %d", c.Run.Workers)
	}
	return nil
}
