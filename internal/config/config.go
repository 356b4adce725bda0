// Package config handles configuration loading and defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultAddr         = ":8080"
	DefaultDBPath       = ".taskboard/taskboard.db"
	DefaultSnapshotPath = ".taskboard/snapshot.jsonl"
	DefaultLogLevel     = "info"
)

// Config holds the full configuration for taskboard.
type Config struct {
	Addr         string `toml:"addr"`
	DBPath       string `toml:"db_path"`
	SnapshotPath string `toml:"snapshot_path"`
	AutoSnapshot bool   `toml:"auto_snapshot"`
	LogLevel     string `toml:"log_level"`
}

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. Project config file (taskboard.toml or .taskboard.toml in cwd)
// 3. Environment variables (TASKBOARD_*)
// 4. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if file := findProjectConfigFile(); file != "" {
		if err := loadConfigFile(cfg, file); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", file, err)
		}
	}

	loadFromEnv(cfg)

	if err := parseFlags(cfg, fs, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Addr = DefaultAddr
	cfg.DBPath = DefaultDBPath
	cfg.SnapshotPath = DefaultSnapshotPath
	cfg.AutoSnapshot = true
	cfg.LogLevel = DefaultLogLevel
}

func findProjectConfigFile() string {
	for _, name := range []string{"taskboard.toml", ".taskboard.toml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func loadConfigFile(cfg *Config, path string) error {
	_, err := toml.DecodeFile(path, cfg)
	return err
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TASKBOARD_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("TASKBOARD_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TASKBOARD_SNAPSHOT_PATH"); v != "" {
		cfg.SnapshotPath = v
	}
	if v := os.Getenv("TASKBOARD_AUTO_SNAPSHOT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AutoSnapshot = b
		}
	}
	if v := os.Getenv("TASKBOARD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Address to listen on")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to database file")
	fs.StringVar(&cfg.SnapshotPath, "snapshot-path", cfg.SnapshotPath, "Path to snapshot file")
	fs.BoolVar(&cfg.AutoSnapshot, "auto-snapshot", cfg.AutoSnapshot, "Export a snapshot after every write")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	return fs.Parse(args)
}
