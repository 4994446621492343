// Package config holds the indexer's tunables: batch sizing, commit
// cadence, include following, parse parallelism, log level. Values
// layer as defaults, then cppgraph.yaml, then CPPGRAPH_* environment
// variables; command-line flags override all of these in the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the cppgraph configuration file.
const ConfigFileName = "cppgraph.yaml"

// Config holds all cppgraph configuration.
type Config struct {
	Batch   BatchConfig   `yaml:"batch"`
	Index   IndexConfig   `yaml:"index"`
	Logging LoggingConfig `yaml:"logging"`
}

// BatchConfig controls statement batching and transaction cadence.
type BatchConfig struct {
	// Size is the number of statements buffered before a flush.
	Size int `yaml:"size"`
	// CommitThreshold is the number of executed statements per
	// transaction before an intermediate commit.
	CommitThreshold int `yaml:"commit_threshold"`
}

// IndexConfig controls what gets indexed and how.
type IndexConfig struct {
	// NoFollowIncludes disables indexing of headers reached through
	// quoted #include directives. The zero value follows includes.
	NoFollowIncludes bool `yaml:"no_follow_includes"`
	// Parallelism caps concurrent parse workers.
	Parallelism int `yaml:"parallelism"`
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ErrInvalidConfig is returned when config validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultConfig returns configuration with the stock tunables.
func DefaultConfig() *Config {
	return &Config{
		Batch: BatchConfig{
			Size:            128,
			CommitThreshold: 1000,
		},
		Index: IndexConfig{
			Parallelism: runtime.NumCPU(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads config for a run. It searches for cppgraph.yaml starting
// at workDir and walking up, falls back to defaults when none exists,
// and applies CPPGRAPH_* environment overrides last.
func Load(workDir string) (*Config, error) {
	path, err := findConfigFile(workDir)
	if err != nil {
		cfg := DefaultConfig()
		applyEnv(cfg)
		return cfg, Validate(cfg)
	}
	return LoadFromPath(path)
}

// LoadFromPath reads config from a specific file, merges it over
// defaults, applies environment overrides and validates the result.
// A missing file is not an error; it yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		loaded := &Config{}
		if err := yaml.Unmarshal(data, loaded); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg = merge(loaded, cfg)
	}

	applyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// merge overlays loaded values on defaults. Non-zero loaded values
// win; NoFollowIncludes is additive (true from either side sticks), so
// an absent key keeps the default of following includes.
func merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Batch.Size = defaults.Batch.Size
	if loaded.Batch.Size != 0 {
		result.Batch.Size = loaded.Batch.Size
	}
	result.Batch.CommitThreshold = defaults.Batch.CommitThreshold
	if loaded.Batch.CommitThreshold != 0 {
		result.Batch.CommitThreshold = loaded.Batch.CommitThreshold
	}

	result.Index.NoFollowIncludes = loaded.Index.NoFollowIncludes || defaults.Index.NoFollowIncludes
	result.Index.Parallelism = defaults.Index.Parallelism
	if loaded.Index.Parallelism != 0 {
		result.Index.Parallelism = loaded.Index.Parallelism
	}

	result.Logging.Level = defaults.Logging.Level
	if loaded.Logging.Level != "" {
		result.Logging.Level = loaded.Logging.Level
	}

	return result
}

// applyEnv overrides fields from CPPGRAPH_* environment variables.
// Call godotenv.Load beforehand to pick up a .env file.
func applyEnv(cfg *Config) {
	if v, ok := envInt("CPPGRAPH_BATCH_SIZE"); ok {
		cfg.Batch.Size = v
	}
	if v, ok := envInt("CPPGRAPH_COMMIT_THRESHOLD"); ok {
		cfg.Batch.CommitThreshold = v
	}
	if v, ok := envInt("CPPGRAPH_PARALLELISM"); ok {
		cfg.Index.Parallelism = v
	}
	if v := os.Getenv("CPPGRAPH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("CPPGRAPH_NO_FOLLOW_INCLUDES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Index.NoFollowIncludes = b
		}
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ValidLogLevels lists the accepted logging.level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks that config values are usable.
func Validate(cfg *Config) error {
	if cfg.Batch.Size <= 0 {
		return fmt.Errorf("%w: batch.size must be positive, got %d",
			ErrInvalidConfig, cfg.Batch.Size)
	}
	if cfg.Batch.CommitThreshold <= 0 {
		return fmt.Errorf("%w: batch.commit_threshold must be positive, got %d",
			ErrInvalidConfig, cfg.Batch.CommitThreshold)
	}
	if cfg.Index.Parallelism <= 0 {
		return fmt.Errorf("%w: index.parallelism must be positive, got %d",
			ErrInvalidConfig, cfg.Index.Parallelism)
	}
	valid := false
	for _, l := range ValidLogLevels {
		if cfg.Logging.Level == l {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: logging.level must be one of %v, got %q",
			ErrInvalidConfig, ValidLogLevels, cfg.Logging.Level)
	}
	return nil
}
