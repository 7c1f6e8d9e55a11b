package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Run.Sites != 10000 || cfg.Run.CharLen != 2000 || cfg.Run.Tries != 1 {
		t.Errorf("defaults = N%d L%v D%d, want N10000 L2000 D1", cfg.Run.Sites, cfg.Run.CharLen, cfg.Run.Tries)
	}
	if cfg.Run.Sparks != 100 {
		t.Errorf("sparks = %d, want 100", cfg.Run.Sparks)
	}
	if cfg.Output.Dir != "data" {
		t.Errorf("output dir = %q, want data", cfg.Output.Dir)
	}
	if cfg.Derived.FileTag != "N10000_L2000_D1" {
		t.Errorf("file tag = %q", cfg.Derived.FileTag)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	overlay := "run:\n  sites: 500\n  char_len: 12.5\n"
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Run.Sites != 500 {
		t.Errorf("sites = %d, want 500", cfg.Run.Sites)
	}
	if cfg.Run.CharLen != 12.5 {
		t.Errorf("char_len = %v, want 12.5", cfg.Run.CharLen)
	}
	// Fields absent from the overlay keep their defaults
	if cfg.Run.Sparks != 100 {
		t.Errorf("sparks = %d, want default 100", cfg.Run.Sparks)
	}
	if cfg.Derived.FileTag != "N500_L12.5_D1" {
		t.Errorf("file tag = %q", cfg.Derived.FileTag)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"single site", func(c *Config) { c.Run.Sites = 1 }, true},
		{"zero sites", func(c *Config) { c.Run.Sites = 0 }, false},
		{"zero char len", func(c *Config) { c.Run.CharLen = 0 }, false},
		{"negative char len", func(c *Config) { c.Run.CharLen = -3 }, false},
		{"zero tries", func(c *Config) { c.Run.Tries = 0 }, false},
		{"zero sparks", func(c *Config) { c.Run.Sparks = 0 }, false},
		{"negative workers", func(c *Config) { c.Run.Workers = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Run.Sites = 321
	cfg.Run.Seed = 99
	cfg.Archive.Path = "runs.db"

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Run != cfg.Run || got.Archive != cfg.Archive || got.Output != cfg.Output {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, cfg)
	}
}
