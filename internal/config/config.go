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
	DefaultPath    = "~/.formweave/formweave.yaml"
)

// Config is the top-level configuration.
type Config struct {
	Version int           `yaml:"version"`
	Store   StoreConfig   `yaml:"store"`
	API     APIConfig     `yaml:"api,omitempty"`
	Archive ArchiveConfig `yaml:"archive,omitempty"`
	Logging LogConfig     `yaml:"logging,omitempty"`
}

// StoreConfig selects and configures the registry persistence backend.
type StoreConfig struct {
	// Backend is memory, mongodb, or postgresql.
	Backend string `yaml:"backend"`
	// ConnectionString for mongodb/postgresql; supports secret refs.
	ConnectionString string `yaml:"connection_string,omitempty"`
	// Database is the MongoDB database name.
	Database string `yaml:"database,omitempty"`
}

// APIConfig configures the schema API server.
type APIConfig struct {
	Port int `yaml:"port,omitempty"` // default 8750
	// BaseURL resolves relative action endpoints on server-side submits.
	BaseURL string `yaml:"base_url,omitempty"`
	DevMode bool   `yaml:"dev_mode,omitempty"`
}

// ArchiveConfig configures S3 schema-bundle archiving.
type ArchiveConfig struct {
	S3Bucket string `yaml:"s3_bucket,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"` // default "formweave/schemas"
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level     string `yaml:"level,omitempty"`     // debug, info, warn, error
	Format    string `yaml:"format,omitempty"`    // text or json
	Directory string `yaml:"directory,omitempty"` // default ~/.formweave/logs/
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

// Default returns the configuration used when no file exists: an
// in-memory store and a local API port.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion, Store: StoreConfig{Backend: "memory"}}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.API.Port == 0 {
		c.API.Port = 8750
	}
	if c.Archive.Prefix == "" {
		c.Archive.Prefix = "formweave/schemas"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome("~/.formweave/logs/")
	}
}

var secretPattern = regexp.MustCompile(`\$\{(ENV|VAULT|AWS_SM):([^}]+)\}`)

func (c *Config) resolveSecrets() error {
	var err error
	c.Store.ConnectionString, err = ResolveValue(c.Store.ConnectionString)
	if err != nil {
		return fmt.Errorf("store connection string: %w", err)
	}
	return nil
}

// ResolveValue resolves secret references in a string value.
func ResolveValue(val string) (string, error) {
	matches := secretPattern.FindStringSubmatch(val)
	if matches == nil {
		return val, nil
	}

	provider := matches[1]
	ref := matches[2]

	switch provider {
	case "ENV":
		v := os.Getenv(ref)
		if v == "" {
			return "", fmt.Errorf("environment variable %s not set", ref)
		}
		return v, nil
	case "VAULT":
		return resolveVault(ref)
	case "AWS_SM":
		return resolveAWSSecretsManager(ref)
	default:
		return "", fmt.Errorf("unknown secrets provider: %s", provider)
	}
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
