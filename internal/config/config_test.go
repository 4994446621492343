package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Batch.Size != 128 {
		t.Errorf("batch.size = %d, want 128", cfg.Batch.Size)
	}
	if cfg.Batch.CommitThreshold != 1000 {
		t.Errorf("batch.commit_threshold = %d, want 1000", cfg.Batch.CommitThreshold)
	}
	if cfg.Index.NoFollowIncludes {
		t.Error("includes should be followed by default")
	}
	if cfg.Index.Parallelism <= 0 {
		t.Errorf("index.parallelism = %d, want positive", cfg.Index.Parallelism)
	}
}

func TestLoadFromPathMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `
batch:
  size: 50
index:
  no_follow_includes: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Batch.Size != 50 {
		t.Errorf("batch.size = %d, want 50", cfg.Batch.Size)
	}
	if cfg.Batch.CommitThreshold != 1000 {
		t.Errorf("unset commit_threshold should keep default, got %d", cfg.Batch.CommitThreshold)
	}
	if !cfg.Index.NoFollowIncludes {
		t.Error("no_follow_includes: true not honored")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("unset logging.level should keep default, got %q", cfg.Logging.Level)
	}
}

func TestLoadFromPathMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Batch.Size != DefaultConfig().Batch.Size {
		t.Errorf("missing file should yield defaults, got batch.size %d", cfg.Batch.Size)
	}
}

func TestLoadFromPathRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("batch: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CPPGRAPH_BATCH_SIZE", "64")
	t.Setenv("CPPGRAPH_LOG_LEVEL", "DEBUG")
	t.Setenv("CPPGRAPH_NO_FOLLOW_INCLUDES", "true")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Batch.Size != 64 {
		t.Errorf("env batch size not applied, got %d", cfg.Batch.Size)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("env log level not normalized, got %q", cfg.Logging.Level)
	}
	if !cfg.Index.NoFollowIncludes {
		t.Error("env no_follow_includes not applied")
	}
}

func TestLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ConfigFileName), []byte("batch:\n  size: 33\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nested)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Batch.Size != 33 {
		t.Errorf("config file in ancestor not found, batch.size = %d", cfg.Batch.Size)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero batch size", func(c *Config) { c.Batch.Size = 0 }},
		{"negative threshold", func(c *Config) { c.Batch.CommitThreshold = -1 }},
		{"zero parallelism", func(c *Config) { c.Index.Parallelism = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
