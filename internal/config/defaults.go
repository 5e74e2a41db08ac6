package config

import (
	"os"
	"path/filepath"

	"github.com/sadopc/taskr/internal/store"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	dir := Dir()
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		dbPath = filepath.Join(dir, "taskr.db")
	}
	return &Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Log: LogConfig{
			File:       filepath.Join(dir, "logs", "taskr.log"),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
		Query: QueryConfig{
			DebounceMS: 300,
			PageSize:   5,
		},
	}
}

// Dir returns the taskr configuration directory
func Dir() string {
	cfg, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".taskr")
	}
	return filepath.Join(cfg, "taskr")
}

// DefaultPath returns the path of the config file read when none is given
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}
