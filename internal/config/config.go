// ABOUTME: Configuration loading and parsing for curation-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/daxcurate/curation-gateway/internal/store"
)

// Defaults applied when the config file omits a value.
const (
	DefaultHTTPAddr       = ":3001"
	DefaultDataDir        = "data"
	DefaultBackupDir      = "backups"
	DefaultMaxExamples    = 10
	DefaultRequestTimeout = 30 * time.Second
)

// Config represents the complete curation-gateway configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Backends BackendsConfig `yaml:"backends"`
	Audit    AuditConfig    `yaml:"audit"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// StorageConfig holds example collection and backup storage configuration
type StorageConfig struct {
	DataDir     string `yaml:"data_dir"`
	BackupDir   string `yaml:"backup_dir"`
	MaxExamples int    `yaml:"max_examples"`
}

// BackendsConfig holds the per-domain inference backend address table
// and the shared request timeout ceiling.
type BackendsConfig struct {
	Cognos        string `yaml:"cognos"`
	MicroStrategy string `yaml:"microstrategy"`
	Tableau       string `yaml:"tableau"`

	RequestTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	RequestTimeoutRaw string `yaml:"request_timeout"`
}

// AuditConfig holds the mutation audit trail configuration.
// An empty path disables auditing.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// URLFor returns the configured backend base URL for a domain key,
// or "" when the domain has no backend configured.
func (b BackendsConfig) URLFor(domain store.DomainKey) string {
	switch domain {
	case store.DomainCognos:
		return b.Cognos
	case store.DomainMicroStrategy:
		return b.MicroStrategy
	case store.DomainTableau:
		return b.Tableau
	}
	return ""
}

// Table returns the backend address table keyed by domain.
func (b BackendsConfig) Table() map[store.DomainKey]string {
	table := make(map[store.DomainKey]string)
	for _, k := range store.DomainKeys() {
		if url := b.URLFor(k); url != "" {
			table[k] = url
		}
	}
	return table
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with all defaults applied, used when no
// config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Backends.RequestTimeout = DefaultRequestTimeout
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = DefaultDataDir
	}
	if c.Storage.BackupDir == "" {
		c.Storage.BackupDir = DefaultBackupDir
	}
	if c.Storage.MaxExamples == 0 {
		c.Storage.MaxExamples = DefaultMaxExamples
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	if c.Storage.BackupDir == "" {
		return fmt.Errorf("storage.backup_dir is required")
	}
	if c.Storage.MaxExamples <= 0 {
		return fmt.Errorf("storage.max_examples must be positive, got %d", c.Storage.MaxExamples)
	}
	// A zero timeout would disable the request ceiling entirely.
	if c.Backends.RequestTimeout <= 0 {
		return fmt.Errorf("backends.request_timeout must be positive, got %s", c.Backends.RequestTimeout)
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Backends.RequestTimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.Backends.RequestTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing request_timeout %q: %w", cfg.Backends.RequestTimeoutRaw, err)
		}
		cfg.Backends.RequestTimeout = d
	} else {
		cfg.Backends.RequestTimeout = DefaultRequestTimeout
	}
	return nil
}
