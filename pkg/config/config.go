// Package config loads recordcache configuration from a YAML file and
// environment variables.
//
// Configuration Precedence (highest to lowest):
//  1. Environment variables (RECORDCACHE_*)
//  2. Config file (config.yaml)
//  3. Built-in defaults
//
// cmd/recordcache's --config flag only chooses which file is read; no
// command-line flag overrides an individual setting.
//
// Example Usage:
//
//	cfg, err := config.LoadFromFile(config.FindConfigFile())
//	if err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
//	fmt.Printf("listening on %s\n", cfg.Server.Address)
//
// Environment Variables (all use the RECORDCACHE_ prefix):
//
//	Schema:
//	  - RECORDCACHE_SCHEMA_FILE="./schema.yaml"
//
//	Storage:
//	  - RECORDCACHE_DATA_DIR="./data"
//	  - RECORDCACHE_BACKEND="memory" or "badger"
//	  - RECORDCACHE_HOT_CACHE_SIZE=10000
//
//	Server:
//	  - RECORDCACHE_ADDRESS="0.0.0.0:8080"
//	  - RECORDCACHE_READ_TIMEOUT=30s
//	  - RECORDCACHE_WRITE_TIMEOUT=30s
//
//	Logging:
//	  - RECORDCACHE_LOG_LEVEL="info"
//	  - RECORDCACHE_LOG_FORMAT="json"
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all recordcache configuration.
//
// Use LoadFromFile to build one from a config file plus environment
// overrides, or LoadDefaults for the built-in baseline.
type Config struct {
	// Schema locates the model declarations the cache validates against.
	Schema SchemaConfig

	// Storage selects and configures the record accessor backend.
	Storage StorageConfig

	// Server settings for the HTTP/websocket front end.
	Server ServerConfig

	// Logging settings.
	Logging LoggingConfig
}

// SchemaConfig points at the model schema file.
type SchemaConfig struct {
	// File is the path to the YAML schema document.
	File string
}

// StorageConfig selects the record accessor backend and its tuning knobs.
type StorageConfig struct {
	// Backend is "memory" or "badger".
	Backend string
	// DataDir is where the badger backend keeps its database files.
	DataDir string
	// HotCacheSize bounds the badger backend's in-memory LRU cache.
	HotCacheSize int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Address to bind to, e.g. "0.0.0.0:8080".
	Address string
	// ReadTimeout for incoming requests.
	ReadTimeout time.Duration
	// WriteTimeout for outgoing responses.
	WriteTimeout time.Duration
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string
	// Format is "json" or "console".
	Format string
}

// LoadDefaults returns a Config with all built-in safe defaults.
//
// Precedence (lowest to highest):
//  1. Built-in defaults (this function)
//  2. Config file (YAML)
//  3. Environment variables
func LoadDefaults() *Config {
	return &Config{
		Schema: SchemaConfig{
			File: "./schema.yaml",
		},
		Storage: StorageConfig{
			Backend:      "memory",
			DataDir:      "./data",
			HotCacheSize: 10000,
		},
		Server: ServerConfig{
			Address:      "0.0.0.0:8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// yamlConfig mirrors the on-disk YAML structure. Durations are strings so
// they can be written as "30s" rather than nanosecond counts.
type yamlConfig struct {
	Schema struct {
		File string `yaml:"file"`
	} `yaml:"schema"`

	Storage struct {
		Backend      string `yaml:"backend"`
		DataDir      string `yaml:"data_dir"`
		HotCacheSize int    `yaml:"hot_cache_size"`
	} `yaml:"storage"`

	Server struct {
		Address      string `yaml:"address"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// FindConfigFile looks for a path named by RECORDCACHE_CONFIG_FILE, then
// for config.yaml in the current directory. It returns "" if neither
// exists; callers should treat that as "use defaults and env only".
func FindConfigFile() string {
	if p := os.Getenv("RECORDCACHE_CONFIG_FILE"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

// LoadFromFile loads defaults, then overlays a YAML config file (if path
// is non-empty), then overlays environment variables. An empty path is
// valid and simply skips the file layer.
func LoadFromFile(path string) (*Config, error) {
	cfg := LoadDefaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("recordcache: read config file %s: %w", path, err)
		}
		var y yamlConfig
		if err := yaml.Unmarshal(data, &y); err != nil {
			return nil, fmt.Errorf("recordcache: parse config file %s: %w", path, err)
		}
		applyYAML(cfg, &y)
	}

	applyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyYAML(cfg *Config, y *yamlConfig) {
	if y.Schema.File != "" {
		cfg.Schema.File = y.Schema.File
	}
	if y.Storage.Backend != "" {
		cfg.Storage.Backend = y.Storage.Backend
	}
	if y.Storage.DataDir != "" {
		cfg.Storage.DataDir = y.Storage.DataDir
	}
	if y.Storage.HotCacheSize != 0 {
		cfg.Storage.HotCacheSize = y.Storage.HotCacheSize
	}
	if y.Server.Address != "" {
		cfg.Server.Address = y.Server.Address
	}
	if d, ok := parseDuration(y.Server.ReadTimeout); ok {
		cfg.Server.ReadTimeout = d
	}
	if d, ok := parseDuration(y.Server.WriteTimeout); ok {
		cfg.Server.WriteTimeout = d
	}
	if y.Logging.Level != "" {
		cfg.Logging.Level = y.Logging.Level
	}
	if y.Logging.Format != "" {
		cfg.Logging.Format = y.Logging.Format
	}
}

func applyEnvVars(cfg *Config) {
	cfg.Schema.File = getEnv("RECORDCACHE_SCHEMA_FILE", cfg.Schema.File)

	cfg.Storage.Backend = getEnv("RECORDCACHE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.DataDir = getEnv("RECORDCACHE_DATA_DIR", cfg.Storage.DataDir)
	cfg.Storage.HotCacheSize = getEnvInt("RECORDCACHE_HOT_CACHE_SIZE", cfg.Storage.HotCacheSize)

	cfg.Server.Address = getEnv("RECORDCACHE_ADDRESS", cfg.Server.Address)
	cfg.Server.ReadTimeout = getEnvDuration("RECORDCACHE_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("RECORDCACHE_WRITE_TIMEOUT", cfg.Server.WriteTimeout)

	cfg.Logging.Level = getEnv("RECORDCACHE_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("RECORDCACHE_LOG_FORMAT", cfg.Logging.Format)
}

// Validate checks the configuration for logical errors.
func (c *Config) Validate() error {
	if c.Schema.File == "" {
		return fmt.Errorf("schema file must be set")
	}
	switch c.Storage.Backend {
	case "memory", "badger":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "badger" && c.Storage.DataDir == "" {
		return fmt.Errorf("data dir must be set for the badger backend")
	}
	if c.Storage.HotCacheSize <= 0 {
		return fmt.Errorf("hot cache size must be positive, got %d", c.Storage.HotCacheSize)
	}
	if _, err := parseAddress(c.Server.Address); err != nil {
		return err
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

func parseAddress(addr string) (string, error) {
	if addr == "" {
		return "", fmt.Errorf("server address must be set")
	}
	return addr, nil
}

// String returns a safe, loggable summary of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Schema: %s, Backend: %s, DataDir: %s, Address: %s, LogLevel: %s}",
		c.Schema.File, c.Storage.Backend, c.Storage.DataDir, c.Server.Address, c.Logging.Level,
	)
}

func parseDuration(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
