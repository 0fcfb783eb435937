package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/dyluth/coda/internal/logging"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "coda.yml"

// DefaultNamespace namespaces exchange keys when none is configured.
const DefaultNamespace = "default"

// CodaConfig represents the top-level coda.yml configuration
type CodaConfig struct {
	Version  string          `yaml:"version"`
	Project  ProjectConfig   `yaml:"project"`
	Exchange *ExchangeConfig `yaml:"exchange,omitempty"`
	Logging  *LoggingConfig  `yaml:"logging,omitempty"`
}

// ProjectConfig names the project and where its database is saved
type ProjectConfig struct {
	Name      string `yaml:"name"`
	Directory string `yaml:"directory,omitempty"` // Default: "."
}

// ExchangeConfig points at the Redis server used to share snapshots
type ExchangeConfig struct {
	RedisURL  string `yaml:"redis_url"`
	Namespace string `yaml:"namespace,omitempty"` // Default: "default"
}

// LoggingConfig selects log level and an optional JSON log file
type LoggingConfig struct {
	Level   string `yaml:"level,omitempty"` // debug, info, warn, error
	File    string `yaml:"file,omitempty"`
	Journal bool   `yaml:"journal,omitempty"` // also log to systemd-journald
}

// Default returns the configuration used when no coda.yml exists.
func Default() *CodaConfig {
	c := &CodaConfig{Version: "1.0"}
	c.applyDefaults()
	return c
}

// Validate performs strict validation on the configuration and applies defaults
func (c *CodaConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if strings.HasSuffix(c.Project.Name, ".coda") {
		return fmt.Errorf("project.name must not include the .coda extension: %s", c.Project.Name)
	}

	if c.Exchange != nil {
		if c.Exchange.RedisURL == "" {
			return fmt.Errorf("exchange.redis_url is required when exchange is configured")
		}
		if !strings.HasPrefix(c.Exchange.RedisURL, "redis://") && !strings.HasPrefix(c.Exchange.RedisURL, "rediss://") {
			return fmt.Errorf("exchange.redis_url must start with redis:// or rediss://, got %q", c.Exchange.RedisURL)
		}
	}

	if c.Logging != nil {
		if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
	}

	c.applyDefaults()
	return nil
}

func (c *CodaConfig) applyDefaults() {
	if c.Project.Directory == "" {
		c.Project.Directory = "."
	}
	if c.Exchange != nil && c.Exchange.Namespace == "" {
		c.Exchange.Namespace = DefaultNamespace
	}
	if c.Logging == nil {
		c.Logging = &LoggingConfig{Level: "info"}
	} else if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Load reads and validates a coda.yml file
func Load(path string) (*CodaConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config CodaConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not
// exist. Any other failure is returned.
func LoadOrDefault(path string) (*CodaConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}
