package commands

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestNewValidateCommand(t *testing.T) {
	cmd := NewValidateCommand()

	if cmd.Use != "validate <config-file>" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}

	if !strings.Contains(cmd.Long, "Validate") {
		t.Error("Missing description in Long")
	}
}

func TestNewVersionCommand(t *testing.T) {
	cmd := NewVersionCommand()

	if cmd.Use != "version" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}

	out, err := runCommand(t, cmd)
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if out != "tanklog "+Version+"\n" {
		t.Errorf("Unexpected output: %q", out)
	}
}

func TestRunValidate_Success(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "storage.log", storageLog)

	configPath := writeFile(t, tmpDir, "tanklog.yaml", `log_sources:
  - `+logPath+`
  - `+filepath.Join(tmpDir, "missing.log")+`
grouping: column:6
filter:
  from: "01.05.2025 00:00:00"
  max: 100
output:
  format: csv
webhooks:
  - name: ops
    url: https://ops.example.com/hook
`)

	out, err := runCommand(t, NewValidateCommand(), configPath)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	checks := []string{
		"Configuration valid!",
		"Log sources: 2 pattern(s)",
		"Grouping:    column:6",
		"Output:      csv",
		"Logging:     info (console)",
		"Webhooks:    1",
		"Filter:      time 01.05.2025 00:00:00 .. *, value * .. 100",
		"Log files matched: 1",
		"  - " + logPath,
	}
	for _, check := range checks {
		if !strings.Contains(out, check) {
			t.Errorf("Output missing %q:\n%s", check, out)
		}
	}
}

func TestRunValidate_NoLogSources(t *testing.T) {
	configPath := writeFile(t, t.TempDir(), "tanklog.yaml", "grouping: inferred\n")

	out, err := runCommand(t, NewValidateCommand(), configPath)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !strings.Contains(out, "No log_sources configured") {
		t.Errorf("Expected note about log sources:\n%s", out)
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "invalid: yaml: content"},
		{"bad grouping", "grouping: sideways\n"},
		{"inverted filter", "filter:\n  min: 10\n  max: 1\n"},
		{"bad webhook", "webhooks:\n  - url: ftp://example.com\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeFile(t, t.TempDir(), "tanklog.yaml", tt.content)

			_, err := runCommand(t, NewValidateCommand(), configPath)
			if err == nil {
				t.Error("Expected error for invalid config")
			}
		})
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := runCommand(t, NewValidateCommand(), "/nonexistent/tanklog.yaml")
	if err == nil {
		t.Error("Expected error for missing file")
	}
}
