package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifestcheck/manifestcheck/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config is the optional per-project configuration loaded from
// .manifestcheck.yml in the working directory. Command-line flags take
// precedence over config values.
type Config struct {
	// Schema overrides the embedded Kubernetes schema with a file path.
	Schema string `yaml:"schema"`
	// Strict additionally runs full JSON-schema validation.
	Strict bool `yaml:"strict"`
	// Exclude lists glob patterns of files to skip during discovery.
	Exclude []string `yaml:"exclude"`
}

// LoadConfig reads the project config from dir. A missing file yields a zero
// config and no error.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, constants.ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Merge applies flag-level overrides on top of the config.
func (c *Config) Merge(schemaPath string, strict bool) {
	if schemaPath != "" {
		c.Schema = schemaPath
	}
	if strict {
		c.Strict = true
	}
}
