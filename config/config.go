// Package config provides loading and parsing of sandstix.yaml configuration
// files. The file carries defaults for conversion options, the ATT&CK
// catalog location, and graph sink connection settings; command-line flags
// override it.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents a sandstix.yaml configuration file.
type Config struct {
	// Conversion option defaults.
	Convert ConvertConfig `yaml:"convert,omitempty"`

	// ATT&CK catalog settings.
	Attack AttackConfig `yaml:"attack,omitempty"`

	// Graph sink settings.
	Graph GraphConfig `yaml:"graph,omitempty"`

	// Announcement settings.
	Announce AnnounceConfig `yaml:"announce,omitempty"`
}

// ConvertConfig holds defaults for the conversion pipeline.
type ConvertConfig struct {
	// Small emits the reduced bundle by default.
	Small bool `yaml:"small,omitempty"`

	// DisallowCustom strips vendor extensions by default.
	DisallowCustom bool `yaml:"disallow_custom,omitempty"`

	// SignatureFilter is a CEL expression selecting which signatures
	// become indicators (e.g. "severity >= 3 && confidence >= 50").
	SignatureFilter string `yaml:"signature_filter,omitempty"`

	// BenignDir is a directory of bundles produced from known-benign
	// samples; their objects are removed from every converted bundle.
	BenignDir string `yaml:"benign_dir,omitempty"`
}

// AttackConfig points at an ATT&CK catalog bundle. Empty means the builtin
// technique table.
type AttackConfig struct {
	// CatalogPath is a local enterprise-attack STIX bundle to load
	// technique names and kill chain phases from.
	CatalogPath string `yaml:"catalog_path,omitempty"`
}

// GraphConfig holds graph sink connection settings.
type GraphConfig struct {
	// Backend selects the sink: "bolt", "redis", or "cypher".
	Backend string `yaml:"backend,omitempty"`

	// Target is backend-specific: a database path for bolt, a connection
	// URL for redis, a script path for cypher.
	Target string `yaml:"target,omitempty"`
}

// AnnounceConfig holds NATS announcement settings.
type AnnounceConfig struct {
	// URL is the NATS server to announce bundles on. Empty disables
	// announcements.
	URL string `yaml:"url,omitempty"`

	// Subject overrides the default announcement subject.
	Subject string `yaml:"subject,omitempty"`
}

// Load reads and parses a sandstix.yaml file from the given path. If the
// path is a directory, it looks for sandstix.yaml or sandstix.yml there.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		found := false
		for _, name := range []string{"sandstix.yaml", "sandstix.yml"} {
			candidate := filepath.Join(path, name)
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("no sandstix.yaml or sandstix.yml found in %s", path)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{}
}

func (c *Config) validate() error {
	switch c.Graph.Backend {
	case "", "bolt", "redis", "cypher":
	default:
		return fmt.Errorf("unknown graph backend %q", c.Graph.Backend)
	}
	return nil
}
