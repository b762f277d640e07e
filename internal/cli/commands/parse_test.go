package commands

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ccollicutt/tanklog/pkg/config"
	"github.com/ccollicutt/tanklog/pkg/output"
)

func TestNewParseCommand(t *testing.T) {
	cmd := NewParseCommand()

	if cmd.Use != "parse [log-file|glob...]" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}

	flags := []string{"config", "output", "grouping", "verbose", "quiet",
		"from", "to", "min", "max", "webhook-url", "webhook-token", "webhook-trigger"}
	for _, flag := range flags {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Missing flag: %s", flag)
		}
	}

	trigger, _ := cmd.Flags().GetString("webhook-trigger")
	if trigger != "on_samples" {
		t.Errorf("Expected default webhook-trigger 'on_samples', got %q", trigger)
	}
}

func TestRunParse_TextOutput(t *testing.T) {
	logPath := writeFile(t, t.TempDir(), "storage.log", storageLog)

	out, err := runCommand(t, NewParseCommand(), logPath)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	checks := []string{
		"=== tanklog Parse Report ===",
		"[FILE] " + logPath,
		"2 sample(s) in 1 entity",
		"  - 0: 2 sample(s), 2025-05-01T00:30:22 .. 2025-05-01T00:30:39, value 14.5 .. 15",
		"Summary: 1 files parsed, 1 with samples, 1 entities, 2 samples",
	}
	for _, check := range checks {
		if !strings.Contains(out, check) {
			t.Errorf("Output missing %q:\n%s", check, out)
		}
	}
	if ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", ExitCode)
	}
}

func TestRunParse_VerboseListsSamples(t *testing.T) {
	logPath := writeFile(t, t.TempDir(), "storage.log", storageLog)

	out, err := runCommand(t, NewParseCommand(), "-v", "--grouping", "first-field", logPath)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !strings.Contains(out, "2025-05-01T00:30:39  14.5  877000000002265") {
		t.Errorf("Expected sample line in verbose output:\n%s", out)
	}
	if !strings.Contains(out, "Grouping: first-field") {
		t.Errorf("Expected grouping in verbose output:\n%s", out)
	}
}

func TestRunParse_NoSamples(t *testing.T) {
	logPath := writeFile(t, t.TempDir(), "empty.log", noBlockLog)

	out, err := runCommand(t, NewParseCommand(), logPath)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !strings.Contains(out, "No samples extracted") {
		t.Errorf("Expected 'No samples extracted':\n%s", out)
	}
	if ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode)
	}
}

func TestRunParse_MissingFile(t *testing.T) {
	_, err := runCommand(t, NewParseCommand(), "/nonexistent/storage.log")
	if err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestRunParse_NoSources(t *testing.T) {
	_, err := runCommand(t, NewParseCommand())
	if err == nil {
		t.Fatal("Expected error when no files are given")
	}
	if !strings.Contains(err.Error(), "no log files given") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestRunParse_ConfigSources(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "a.log", storageLog)
	writeFile(t, tmpDir, "b.log", noBlockLog)

	configPath := writeFile(t, tmpDir, "tanklog.yaml", `log_sources:
  - `+tmpDir+`/*.log
output:
  format: json
`)

	out, err := runCommand(t, NewParseCommand(), "--config", configPath)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var report output.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\n%s", err, out)
	}
	if report.Summary.FilesParsed != 2 {
		t.Errorf("files_parsed = %d, want 2", report.Summary.FilesParsed)
	}
	if report.Summary.FilesWithSamples != 1 {
		t.Errorf("files_with_samples = %d, want 1", report.Summary.FilesWithSamples)
	}
	if report.Summary.Samples != 2 {
		t.Errorf("samples = %d, want 2", report.Summary.Samples)
	}
	if report.Metadata.ConfigFile != configPath {
		t.Errorf("config_file = %q, want %q", report.Metadata.ConfigFile, configPath)
	}
	if report.Metadata.Grouping != "inferred" {
		t.Errorf("grouping = %q, want inferred", report.Metadata.Grouping)
	}
}

func TestRunParse_OutputFlagOverridesConfig(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "storage.log", storageLog)
	configPath := writeFile(t, tmpDir, "tanklog.yaml", "output:\n  format: json\n")

	out, err := runCommand(t, NewParseCommand(), "-c", configPath, "-o", "csv", logPath)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !strings.HasPrefix(out, "source,entity_id,sample_id,timestamp,value\n") {
		t.Errorf("Expected CSV header, got:\n%s", out)
	}
}

func TestRunParse_Filter(t *testing.T) {
	logPath := writeFile(t, t.TempDir(), "storage.log", storageLog)

	out, err := runCommand(t, NewParseCommand(), "-q", "--min", "14,9", logPath)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := "tanklog: 1 files parsed, 1 with samples, 1 entities, 1 samples\n"
	if out != want {
		t.Errorf("Output = %q, want %q", out, want)
	}
}

func TestRunParse_FilterFromConfigAndFlags(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "storage.log", storageLog)
	configPath := writeFile(t, tmpDir, "tanklog.yaml", `filter:
  from: "01.05.2025 00:30:30"
`)

	// The config keeps only 00:30:39; the flag bound removes it too.
	out, err := runCommand(t, NewParseCommand(), "-q", "-c", configPath, "--max", "14", logPath)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := "tanklog: 1 files parsed, 0 with samples, 0 entities, 0 samples\n"
	if out != want {
		t.Errorf("Output = %q, want %q", out, want)
	}
	if ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode)
	}
}

func TestRunParse_InvalidOptions(t *testing.T) {
	logPath := writeFile(t, t.TempDir(), "storage.log", storageLog)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad from", []string{"--from", "yesterday"}, "invalid --from"},
		{"bad max", []string{"--max", "lots"}, "invalid --max"},
		{"inverted time", []string{"--from", "02.05.2025 0:00", "--to", "01.05.2025 0:00"}, "is after --to"},
		{"inverted value", []string{"--min", "10", "--max", "5"}, "is above --max"},
		{"bad grouping", []string{"--grouping", "column:x"}, "invalid --grouping"},
		{"bad output", []string{"-o", "xml"}, "unknown output format"},
		{"bad trigger", []string{"--webhook-trigger", "sometimes"}, "invalid --webhook-trigger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCommand(t, NewParseCommand(), append(tt.args, logPath)...)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestFlagBounds(t *testing.T) {
	b, err := flagBounds(&ParseOptions{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !b.IsOpen() {
		t.Error("Expected open bounds when no flag is set")
	}

	b, err = flagBounds(&ParseOptions{
		From: "01.05.2025 0:30:00",
		To:   "01.05.2025 14,5",
		Min:  "1,5",
		Max:  "20",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if want := time.Date(2025, 5, 1, 0, 30, 0, 0, time.UTC); b.From == nil || !b.From.Equal(want) {
		t.Errorf("From = %v, want %v", b.From, want)
	}
	if want := time.Date(2025, 5, 1, 14, 30, 0, 0, time.UTC); b.To == nil || !b.To.Equal(want) {
		t.Errorf("To = %v, want %v", b.To, want)
	}
	if b.Min == nil || *b.Min != 1.5 {
		t.Errorf("Min = %v, want 1.5", b.Min)
	}
	if b.Max == nil || *b.Max != 20 {
		t.Errorf("Max = %v, want 20", b.Max)
	}
}

func TestCreateFormatter(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"text", "text", false},
		{"json", "json", false},
		{"csv", "csv", false},
		{"", "text", false},
		{"invalid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			f, err := createFormatter(tt.format, &ParseOptions{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("createFormatter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if err == nil && f.Name() != tt.want {
				t.Errorf("createFormatter(%q).Name() = %q, want %q", tt.format, f.Name(), tt.want)
			}
		})
	}
}

func TestCollectWebhooks(t *testing.T) {
	t.Run("config only", func(t *testing.T) {
		cfg := &config.Config{
			Webhooks: []config.WebhookConfig{
				{Name: "ops", URL: "https://ops.example.com/webhook"},
				{Name: "archive", URL: "https://archive.example.com/webhook"},
			},
		}

		webhooks := collectWebhooks(cfg, &ParseOptions{})
		if len(webhooks) != 2 {
			t.Errorf("got %d webhooks, want 2", len(webhooks))
		}
	})

	t.Run("cli only", func(t *testing.T) {
		opts := &ParseOptions{
			WebhookURL:   "https://cli.example.com/webhook",
			WebhookToken: "secret",
		}

		webhooks := collectWebhooks(&config.Config{}, opts)
		if len(webhooks) != 1 {
			t.Fatalf("got %d webhooks, want 1", len(webhooks))
		}
		wh := webhooks[0]
		if wh.Name != "cli" {
			t.Errorf("name = %q, want cli", wh.Name)
		}
		if wh.Token != "secret" {
			t.Errorf("token = %q, want secret", wh.Token)
		}
		if wh.Trigger != config.WebhookTriggerOnSamples {
			t.Errorf("trigger = %q, want on_samples", wh.Trigger)
		}
		if wh.Timeout != config.DefaultWebhookTimeout {
			t.Errorf("timeout = %v, want %v", wh.Timeout, config.DefaultWebhookTimeout)
		}
	})

	t.Run("config and cli", func(t *testing.T) {
		cfg := &config.Config{
			Webhooks: []config.WebhookConfig{{Name: "ops", URL: "https://ops.example.com/webhook"}},
		}
		opts := &ParseOptions{
			WebhookURL:     "https://cli.example.com/webhook",
			WebhookTrigger: "always",
		}

		webhooks := collectWebhooks(cfg, opts)
		if len(webhooks) != 2 {
			t.Fatalf("got %d webhooks, want 2", len(webhooks))
		}
		if webhooks[1].Trigger != config.WebhookTriggerAlways {
			t.Errorf("cli trigger = %q, want always", webhooks[1].Trigger)
		}
	})
}

func TestRunParse_Webhook(t *testing.T) {
	var hits atomic.Int32
	var lastEvent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Event string `json:"event"`
		}
		_ = json.Unmarshal(body, &payload)
		lastEvent.Store(payload.Event)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	withSamples := writeFile(t, tmpDir, "storage.log", storageLog)
	withoutSamples := writeFile(t, tmpDir, "empty.log", noBlockLog)

	tests := []struct {
		name     string
		trigger  string
		logPath  string
		wantHits int32
	}{
		{"on_samples with samples", "on_samples", withSamples, 1},
		{"on_samples without samples", "on_samples", withoutSamples, 0},
		{"always without samples", "always", withoutSamples, 1},
		{"never with samples", "never", withSamples, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits.Store(0)
			_, err := runCommand(t, NewParseCommand(), "-q",
				"--webhook-url", server.URL,
				"--webhook-trigger", tt.trigger,
				tt.logPath)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if got := hits.Load(); got != tt.wantHits {
				t.Errorf("webhook hits = %d, want %d", got, tt.wantHits)
			}
			if tt.wantHits > 0 && lastEvent.Load() != "tanklog.parsed" {
				t.Errorf("event = %v, want tanklog.parsed", lastEvent.Load())
			}
		})
	}
}

func TestRunParse_WebhookFailureDoesNotFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	logPath := writeFile(t, t.TempDir(), "storage.log", storageLog)

	_, err := runCommand(t, NewParseCommand(), "-q", "--webhook-url", server.URL, logPath)
	if err != nil {
		t.Errorf("Parse should not fail on webhook error: %v", err)
	}
	if ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", ExitCode)
	}
}
