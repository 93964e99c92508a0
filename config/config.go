package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the vector store.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StoreConfig holds storage and eviction configuration.
type StoreConfig struct {
	// Path is the BoltDB file holding the persisted document set.
	Path string `yaml:"path"`
	// MaxStoredSizeMB is the eviction ceiling: the serialized size of the
	// full document set is kept at or under this many megabytes.
	MaxStoredSizeMB float64 `yaml:"max_stored_size_mb"`
	// DebounceIntervalMS is advisory for callers batching writes; the
	// store itself does not require it for correctness.
	DebounceIntervalMS int `yaml:"debounce_interval_ms"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string `yaml:"base_url"`    // Empty for the provider default
	Dimension int    `yaml:"dimension"`   // 0 picks the model default
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path:               filepath.Join(".memvec", "store.db"),
			MaxStoredSizeMB:    5,
			DebounceIntervalMS: 1000,
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// APIKey resolves the embedding API key from the configured environment
// variable. Empty when unset.
func (c *EmbeddingConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// MaxStoredSizeBytes returns the eviction ceiling in bytes.
func (c *StoreConfig) MaxStoredSizeBytes() int {
	return int(c.MaxStoredSizeMB * 1024 * 1024)
}

// SlogLevel parses the configured level; unknown values fall back to info.
func (c *LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for memvec.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "memvec.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".memvec", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StoreDBPath returns the path to the document database.
func StoreDBPath(dir string) string {
	return filepath.Join(dir, ".memvec", "store.db")
}

// EnsureDataDir ensures the .memvec directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".memvec"), 0755)
}
