package config

// Config represents the full taskr configuration
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Query    QueryConfig    `yaml:"query" mapstructure:"query"`
}

// DatabaseConfig locates the SQLite file holding the key-value namespace
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures the rotating log file
type LogConfig struct {
	File       string `yaml:"file" mapstructure:"file"`
	Level      string `yaml:"level" mapstructure:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// QueryConfig tunes the task list pipeline
type QueryConfig struct {
	// Quiet period before a search keystroke burst takes effect
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	PageSize   int `yaml:"page_size" mapstructure:"page_size"`
}
