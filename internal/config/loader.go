package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sadopc/taskr/internal/query"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load merges defaults, the YAML file at path (if it exists), a .env file in
// the working directory and TASKR_* environment variables, in that order of
// increasing precedence.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix("TASKR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.max_size_mb", cfg.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", cfg.Log.MaxBackups)
	v.SetDefault("log.max_age_days", cfg.Log.MaxAgeDays)
	v.SetDefault("log.compress", cfg.Log.Compress)
	v.SetDefault("query.debounce_ms", cfg.Query.DebounceMS)
	v.SetDefault("query.page_size", cfg.Query.PageSize)
}

// Validate checks values the rest of the program relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path must not be empty"))
	}
	if c.Query.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("query.debounce_ms must be >= 0, got %d", c.Query.DebounceMS))
	}
	if !query.ValidPageSize(c.Query.PageSize) {
		errs = append(errs, fmt.Errorf("query.page_size must be one of %v, got %d", query.PageSizes, c.Query.PageSize))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Debounce returns the search quiet period as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Query.DebounceMS) * time.Millisecond
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	header := []byte("# taskr configuration\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}
