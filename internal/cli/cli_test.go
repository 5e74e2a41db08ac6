package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sadopc/taskr/internal/query"
	"github.com/sadopc/taskr/internal/store"
	"github.com/sadopc/taskr/internal/tasks"
)

// setupEnv points the database, log file and config at a temp dir and
// returns a runner for taskr commands.
func setupEnv(t *testing.T) (dir string, run func(args ...string) (string, error)) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("TASKR_DATABASE_PATH", filepath.Join(dir, "taskr.db"))
	t.Setenv("TASKR_LOG_FILE", filepath.Join(dir, "logs", "taskr.log"))
	cfgPath := filepath.Join(dir, "config.yaml")

	run = func(args ...string) (string, error) {
		cmd := NewRootCmd("test")
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
		err := cmd.Execute()
		return out.String(), err
	}
	return dir, run
}

func mustRun(t *testing.T, run func(args ...string) (string, error), args ...string) string {
	t.Helper()
	out, err := run(args...)
	if err != nil {
		t.Fatalf("taskr %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func signupAndLogin(t *testing.T, run func(args ...string) (string, error)) {
	t.Helper()
	mustRun(t, run, "signup", "--name", "Ada", "--email", "ada@example.com", "--password", "secret")
	mustRun(t, run, "login", "--email", "ada@example.com", "--password", "secret")
}

func TestSignupLoginWhoami(t *testing.T) {
	_, run := setupEnv(t)

	out := mustRun(t, run, "signup", "--name", "Ada", "--email", "ada@example.com", "--password", "secret", "--phone", "555")
	if !strings.Contains(out, "Created user 1") {
		t.Errorf("Unexpected signup output: %q", out)
	}

	if out := mustRun(t, run, "whoami"); !strings.Contains(out, "Not logged in") {
		t.Errorf("Expected anonymous session, got %q", out)
	}

	if _, err := run("login", "--email", "ada@example.com", "--password", "nope"); err == nil {
		t.Fatal("Expected error for wrong password")
	}

	out = mustRun(t, run, "login", "--email", "ada@example.com", "--password", "secret")
	if !strings.Contains(out, "Logged in as Ada") {
		t.Errorf("Unexpected login output: %q", out)
	}

	// The session survives across invocations.
	if out := mustRun(t, run, "whoami"); !strings.Contains(out, "Ada <ada@example.com>") {
		t.Errorf("Unexpected whoami output: %q", out)
	}

	mustRun(t, run, "logout")
	if out := mustRun(t, run, "whoami"); !strings.Contains(out, "Not logged in") {
		t.Errorf("Expected logout to persist, got %q", out)
	}
}

func TestSignupRequiresFlags(t *testing.T) {
	_, run := setupEnv(t)
	if _, err := run("signup", "--name", "Ada"); err == nil {
		t.Fatal("Expected error for missing --email and --password")
	}
}

func TestTasksRequireLogin(t *testing.T) {
	_, run := setupEnv(t)

	for _, args := range [][]string{
		{"tasks", "list"},
		{"tasks", "add", "--name", "x"},
		{"tasks", "rm", "1"},
		{"tasks", "toggle", "1"},
	} {
		if _, err := run(args...); !errors.Is(err, tasks.ErrNotAuthenticated) {
			t.Errorf("taskr %s: expected ErrNotAuthenticated, got %v", strings.Join(args, " "), err)
		}
	}
}

func TestTasksAddAndList(t *testing.T) {
	_, run := setupEnv(t)
	signupAndLogin(t, run)

	for _, name := range []string{"Write report", "Review report", "Groceries", "Gym", "Call mom", "Taxes", "Dentist"} {
		mustRun(t, run, "tasks", "add", "--name", name, "--start", "2024-05-01", "--end", "2024-05-03")
	}

	out := mustRun(t, run, "tasks", "list")
	if !strings.Contains(out, "page 1 of 2 (7 tasks)") {
		t.Errorf("Unexpected list footer: %q", out)
	}
	if !strings.Contains(out, "Write report") || strings.Contains(out, "Taxes") {
		t.Errorf("First page should hold the first five tasks: %q", out)
	}

	out = mustRun(t, run, "tasks", "list", "--page", "2")
	if !strings.Contains(out, "Dentist") || !strings.Contains(out, "page 2 of 2") {
		t.Errorf("Unexpected second page: %q", out)
	}

	// Pages past the end are clamped.
	out = mustRun(t, run, "tasks", "list", "--page", "9")
	if !strings.Contains(out, "page 2 of 2") {
		t.Errorf("Expected clamp to last page: %q", out)
	}

	out = mustRun(t, run, "tasks", "list", "--search", "REPORT", "--page-size", "10")
	if !strings.Contains(out, "(2 tasks)") {
		t.Errorf("Expected 2 search matches: %q", out)
	}

	out = mustRun(t, run, "tasks", "list", "--status", "completed")
	if !strings.Contains(out, "No tasks") {
		t.Errorf("Expected no completed tasks: %q", out)
	}

	if _, err := run("tasks", "list", "--page-size", "7"); !errors.Is(err, query.ErrInvalidPageSize) {
		t.Errorf("Expected ErrInvalidPageSize, got %v", err)
	}
	if _, err := run("tasks", "list", "--status", "Later"); err == nil {
		t.Error("Expected error for unknown status")
	}
}

func TestTasksAddValidation(t *testing.T) {
	_, run := setupEnv(t)
	signupAndLogin(t, run)

	cases := [][]string{
		{"tasks", "add"},
		{"tasks", "add", "--name", "  "},
		{"tasks", "add", "--name", "x", "--start", "2024-05-03", "--end", "2024-05-01"},
		{"tasks", "add", "--name", "x", "--start", "03/05/2024"},
		{"tasks", "add", "--name", "x", "--status", "Done"},
	}
	for _, args := range cases {
		if _, err := run(args...); err == nil {
			t.Errorf("taskr %s: expected error", strings.Join(args, " "))
		}
	}

	if out := mustRun(t, run, "tasks", "list"); !strings.Contains(out, "No tasks") {
		t.Errorf("Rejected adds must not persist anything: %q", out)
	}
}

func TestTasksEditToggleShowRm(t *testing.T) {
	_, run := setupEnv(t)
	signupAndLogin(t, run)

	out := mustRun(t, run, "tasks", "add", "--name", "Plan trip", "--start", "2024-07-01", "--end", "2024-07-05")
	if !strings.Contains(out, "Added task 1: Plan trip") {
		t.Fatalf("Unexpected add output: %q", out)
	}

	mustRun(t, run, "tasks", "edit", "1", "--name", "Plan holiday", "-d", "two weeks")
	out = mustRun(t, run, "tasks", "show", "1")
	for _, want := range []string{"Plan holiday", "two weeks", "2024-07-01", "Days:        4", "Pending", "Owner:       1"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, run, "tasks", "toggle", "1")
	if !strings.Contains(out, "now Completed") {
		t.Errorf("Unexpected toggle output: %q", out)
	}
	out = mustRun(t, run, "tasks", "show", "--name", "Plan holiday")
	if !strings.Contains(out, "Completed") {
		t.Errorf("Toggle should persist: %q", out)
	}

	if _, err := run("tasks", "edit", "42", "--name", "x"); err == nil {
		t.Error("Expected error editing unknown task")
	}
	if _, err := run("tasks", "show"); err == nil {
		t.Error("Expected error when neither id nor --name is given")
	}
	if _, err := run("tasks", "rm", "abc"); err == nil {
		t.Error("Expected error for non-numeric id")
	}

	mustRun(t, run, "tasks", "rm", "1")
	if _, err := run("tasks", "show", "1"); err == nil {
		t.Error("Expected deleted task to be gone")
	}
	// Unknown ids are a no-op.
	mustRun(t, run, "tasks", "rm", "1")
}

func TestAddUsesDefaultStatusSetting(t *testing.T) {
	dir, run := setupEnv(t)
	signupAndLogin(t, run)

	s, err := store.New(filepath.Join(dir, "taskr.db"))
	if err != nil {
		t.Fatal(err)
	}
	s.SetSetting("default_status", "Completed")
	s.Close()

	mustRun(t, run, "tasks", "add", "--name", "Already done")
	if out := mustRun(t, run, "tasks", "show", "1"); !strings.Contains(out, "Completed") {
		t.Errorf("Expected default status from settings: %q", out)
	}
}

func TestExportCommand(t *testing.T) {
	dir, run := setupEnv(t)
	signupAndLogin(t, run)
	mustRun(t, run, "tasks", "add", "--name", "One")
	mustRun(t, run, "tasks", "add", "--name", "Two")

	csvPath := filepath.Join(dir, "out.csv")
	out := mustRun(t, run, "export", "--format", "csv", "--out", csvPath)
	if !strings.Contains(out, "Exported 2 tasks") {
		t.Errorf("Unexpected export output: %q", out)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "One") || !strings.Contains(string(data), "Ada") {
		t.Errorf("CSV missing task or owner:\n%s", data)
	}

	jsonPath := filepath.Join(dir, "out.json")
	mustRun(t, run, "export", "-f", "JSON", "-o", jsonPath)
	data, _ = os.ReadFile(jsonPath)
	var parsed struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil || parsed.Count != 2 {
		t.Errorf("Unexpected JSON export (%v): %s", err, data)
	}

	if _, err := run("export", "--format", "xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir, run := setupEnv(t)
	cfgPath := filepath.Join(dir, "config.yaml")

	out := mustRun(t, run, "config", "init")
	if !strings.Contains(out, cfgPath) {
		t.Errorf("Unexpected init output: %q", out)
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("Config file not written: %v", err)
	}

	if _, err := run("config", "init"); err == nil {
		t.Error("Expected error when config already exists")
	}
	mustRun(t, run, "config", "init", "--force")

	out = mustRun(t, run, "config", "show")
	if !strings.Contains(out, "page_size: 5") {
		t.Errorf("show output missing page_size:\n%s", out)
	}
	// Environment wins over the file.
	if !strings.Contains(out, filepath.Join(dir, "taskr.db")) {
		t.Errorf("show output should reflect TASKR_DATABASE_PATH:\n%s", out)
	}

	if out := mustRun(t, run, "config", "path"); strings.TrimSpace(out) != cfgPath {
		t.Errorf("Unexpected config path %q", out)
	}
}

func TestLogFileWritten(t *testing.T) {
	dir, run := setupEnv(t)
	signupAndLogin(t, run)

	data, err := os.ReadFile(filepath.Join(dir, "logs", "taskr.log"))
	if err != nil {
		t.Fatalf("Expected log file: %v", err)
	}
	if !strings.Contains(string(data), "user registered") {
		t.Errorf("Log missing registration event:\n%s", data)
	}
	if strings.Contains(string(data), "secret") {
		t.Error("Passwords must never be logged")
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in       string
		allowAny bool
		want     store.Status
		wantErr  bool
	}{
		{"", true, query.AnyStatus, false},
		{"", false, "", true},
		{"pending", false, store.StatusPending, false},
		{"COMPLETED", true, store.StatusCompleted, false},
		{"done", true, "", true},
	}
	for _, tt := range tests {
		got, err := parseStatus(tt.in, tt.allowAny)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseStatus(%q, %v) = %q, %v", tt.in, tt.allowAny, got, err)
		}
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("12"); err != nil || id != 12 {
		t.Errorf("parseID(12) = %d, %v", id, err)
	}
	for _, bad := range []string{"0", "-3", "x", ""} {
		if _, err := parseID(bad); err == nil {
			t.Errorf("parseID(%q) should fail", bad)
		}
	}
}
