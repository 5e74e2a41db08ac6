package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Query.PageSize != 5 {
		t.Errorf("Expected page size 5, got %d", cfg.Query.PageSize)
	}
	if cfg.Query.DebounceMS != 300 {
		t.Errorf("Expected debounce 300ms, got %d", cfg.Query.DebounceMS)
	}
	if cfg.Debounce() != 300*time.Millisecond {
		t.Errorf("Expected 300ms duration, got %v", cfg.Debounce())
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected log level info, got %q", cfg.Log.Level)
	}
	if !strings.HasSuffix(cfg.Database.Path, "taskr.db") {
		t.Errorf("Unexpected database path %q", cfg.Database.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Query.PageSize != 5 {
		t.Errorf("Expected default page size, got %d", cfg.Query.PageSize)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  path: /tmp/custom.db
query:
  page_size: 20
  debounce_ms: 50
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Path != "/tmp/custom.db" {
		t.Errorf("Expected custom db path, got %q", cfg.Database.Path)
	}
	if cfg.Query.PageSize != 20 || cfg.Query.DebounceMS != 50 {
		t.Errorf("Unexpected query config %+v", cfg.Query)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected debug level, got %q", cfg.Log.Level)
	}
	// Untouched keys keep their defaults.
	if cfg.Log.MaxBackups != 3 {
		t.Errorf("Expected default max backups, got %d", cfg.Log.MaxBackups)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TASKR_QUERY_PAGE_SIZE", "10")
	t.Setenv("TASKR_DATABASE_PATH", "/tmp/env.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Query.PageSize != 10 {
		t.Errorf("Expected env page size 10, got %d", cfg.Query.PageSize)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("Expected env db path, got %q", cfg.Database.Path)
	}
}

func TestLoadRejectsBadPageSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("query:\n  page_size: 7\n"), 0o644)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected error for page size 7")
	}
	if !strings.Contains(err.Error(), "page_size") {
		t.Errorf("Error should mention page_size: %v", err)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Query.PageSize = 10
	cfg.Database.Path = "/tmp/saved.db"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "page_size: 10") {
		t.Errorf("Saved YAML missing page_size: %s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Query.PageSize != 10 || loaded.Database.Path != "/tmp/saved.db" {
		t.Errorf("Round trip lost values: %+v", loaded)
	}
}
