package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the CLI against a fresh database in a temp dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("FOCUSFLOW_API_URL", "")
	base := []string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--db", filepath.Join(dir, "focusflow.db"),
	}
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, base...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTasksCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "tasks", "add", "Write tests", "--description", "cli")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "created task 1: Write tests") {
		t.Fatalf("add output = %q", out)
	}

	out, err = run(t, dir, "tasks", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Write tests") {
		t.Fatalf("list output = %q", out)
	}

	if _, err := run(t, dir, "tasks", "done", "1"); err != nil {
		t.Fatal(err)
	}
	out, _ = run(t, dir, "tasks", "list")
	if !strings.Contains(out, "no tasks") {
		t.Fatalf("completed task still listed: %q", out)
	}
	out, _ = run(t, dir, "tasks", "list", "--all")
	if !strings.Contains(out, "Write tests") {
		t.Fatalf("--all should include completed tasks: %q", out)
	}

	if _, err := run(t, dir, "tasks", "rm", "1"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, dir, "tasks", "rm", "1"); err == nil {
		t.Fatal("deleting a missing task should fail")
	}
}

func TestTasksRejectsBadID(t *testing.T) {
	if _, err := run(t, t.TempDir(), "tasks", "done", "abc"); err == nil {
		t.Fatal("expected an error for a non-numeric id")
	}
}

func TestStatsOffline(t *testing.T) {
	out, err := run(t, t.TempDir(), "stats")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "today: 0 sessions, 0 min focused") {
		t.Fatalf("stats output = %q", out)
	}
}

func TestHistoryExportJSON(t *testing.T) {
	out, err := run(t, t.TempDir(), "history", "export", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if doc.Count != 0 {
		t.Fatalf("count = %d, want 0", doc.Count)
	}
}

func TestHistoryExportRejectsFormat(t *testing.T) {
	if _, err := run(t, t.TempDir(), "history", "export", "--format", "xml"); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestConfigCommandAppliesFlags(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "config", "--api-url", "http://localhost:8000")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "api_url: http://localhost:8000") {
		t.Fatalf("config output = %q", out)
	}
	if !strings.Contains(out, filepath.Join(dir, "focusflow.db")) {
		t.Fatalf("config output missing db path: %q", out)
	}
}

func TestConfigRejectsBadURL(t *testing.T) {
	if _, err := run(t, t.TempDir(), "config", "--api-url", "localhost:8000"); err == nil {
		t.Fatal("expected a validation error")
	}
}
