package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.snowlift/snowlift.yaml"

	DefaultLocation      = "EU"
	DefaultDatasetPrefix = "snowflake_"
	DefaultSampleLimit   = 100
)

// Config is the top-level configuration.
type Config struct {
	Version     int             `yaml:"version"`
	Snowflake   SnowflakeConfig `yaml:"snowflake"`
	BigQuery    BigQueryConfig  `yaml:"bigquery"`
	TablesFile  string          `yaml:"tables_file"`
	SampleLimit int             `yaml:"sample_limit,omitempty"` // LIMIT in sample mode, default 100
	ReportsDir  string          `yaml:"reports_directory,omitempty"`
	Logging     LogConfig       `yaml:"logging,omitempty"`
}

// SnowflakeConfig defines the source warehouse connection.
type SnowflakeConfig struct {
	// DSN in gosnowflake form, e.g. user:pass@account/db. Supports
	// ${ENV:NAME} secret references.
	DSN           string `yaml:"dsn"`
	ExternalStage string `yaml:"external_stage"`
}

// BigQueryConfig defines the target warehouse and its GCS staging area.
type BigQueryConfig struct {
	ProjectID     string `yaml:"project_id"`
	GCSURI        string `yaml:"gcs_uri"` // bucket prefix the external stage unloads into
	Location      string `yaml:"location,omitempty"`
	DatasetPrefix string `yaml:"dataset_prefix,omitempty"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level     string `yaml:"level,omitempty"`     // debug, info, warn, error
	Directory string `yaml:"directory,omitempty"` // default ~/.snowlift/logs/
}

// Load reads and parses the config file from the given path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks the fields every run needs.
func (c *Config) Validate() error {
	if c.Snowflake.DSN == "" {
		return fmt.Errorf("snowflake.dsn is required")
	}
	if c.Snowflake.ExternalStage == "" {
		return fmt.Errorf("snowflake.external_stage is required")
	}
	if c.BigQuery.ProjectID == "" {
		return fmt.Errorf("bigquery.project_id is required")
	}
	if c.BigQuery.GCSURI == "" {
		return fmt.Errorf("bigquery.gcs_uri is required")
	}
	if c.TablesFile == "" {
		return fmt.Errorf("tables_file is required")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.BigQuery.Location == "" {
		c.BigQuery.Location = DefaultLocation
	}
	if c.BigQuery.DatasetPrefix == "" {
		c.BigQuery.DatasetPrefix = DefaultDatasetPrefix
	}
	if c.SampleLimit == 0 {
		c.SampleLimit = DefaultSampleLimit
	}
	if c.ReportsDir == "" {
		c.ReportsDir = ExpandHome("~/.snowlift/reports/")
	} else {
		c.ReportsDir = ExpandHome(c.ReportsDir)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome("~/.snowlift/logs/")
	}
	c.TablesFile = ExpandHome(c.TablesFile)
}

var secretPattern = regexp.MustCompile(`\$\{ENV:([^}]+)\}`)

func (c *Config) resolveSecrets() error {
	var err error
	c.Snowflake.DSN, err = ResolveValue(c.Snowflake.DSN)
	if err != nil {
		return fmt.Errorf("snowflake dsn: %w", err)
	}
	return nil
}

// ResolveValue resolves ${ENV:NAME} references in a string value.
func ResolveValue(val string) (string, error) {
	var resolveErr error
	out := secretPattern.ReplaceAllStringFunc(val, func(m string) string {
		name := secretPattern.FindStringSubmatch(m)[1]
		v := os.Getenv(name)
		if v == "" {
			resolveErr = fmt.Errorf("environment variable %s not set", name)
			return m
		}
		return v
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return out, nil
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
