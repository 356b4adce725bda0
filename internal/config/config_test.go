// Package config tests configuration loading.
package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.Addr != DefaultAddr {
		t.Errorf("Addr: got %q, want %q", cfg.Addr, DefaultAddr)
	}
	if cfg.DBPath != DefaultDBPath {
		t.Errorf("DBPath: got %q, want %q", cfg.DBPath, DefaultDBPath)
	}
	if cfg.SnapshotPath != DefaultSnapshotPath {
		t.Errorf("SnapshotPath: got %q, want %q", cfg.SnapshotPath, DefaultSnapshotPath)
	}
	if cfg.AutoSnapshot != true {
		t.Errorf("AutoSnapshot: got %v, want true", cfg.AutoSnapshot)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel: got %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "taskboard.toml")
	content := `
addr = ":9090"
db_path = "custom/board.db"
auto_snapshot = false
`
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Chdir(dir)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Errorf("Addr: got %q, want :9090", cfg.Addr)
	}
	if cfg.DBPath != "custom/board.db" {
		t.Errorf("DBPath: got %q, want custom/board.db", cfg.DBPath)
	}
	if cfg.AutoSnapshot {
		t.Errorf("AutoSnapshot: got true, want false")
	}
	// Untouched fields keep their defaults
	if cfg.SnapshotPath != DefaultSnapshotPath {
		t.Errorf("SnapshotPath: got %q, want default", cfg.SnapshotPath)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "taskboard.toml")
	if err := os.WriteFile(file, []byte(`addr = ":9090"`), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Chdir(dir)
	t.Setenv("TASKBOARD_ADDR", ":7070")
	t.Setenv("TASKBOARD_AUTO_SNAPSHOT", "false")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != ":7070" {
		t.Errorf("Addr: got %q, want :7070", cfg.Addr)
	}
	if cfg.AutoSnapshot {
		t.Errorf("AutoSnapshot: got true, want false")
	}
}

func TestFlagsOverrideEverything(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TASKBOARD_ADDR", ":7070")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, []string{"-addr", ":6060", "-db-path", "flagged.db"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != ":6060" {
		t.Errorf("Addr: got %q, want :6060", cfg.Addr)
	}
	if cfg.DBPath != "flagged.db" {
		t.Errorf("DBPath: got %q, want flagged.db", cfg.DBPath)
	}
}
