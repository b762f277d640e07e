package output

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/tanklog/pkg/dataset"
)

func TestNewTextFormatter(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewTextFormatter() returned nil")
	}
	if f.Name() != "text" {
		t.Errorf("Name() = %q, want %q", f.Name(), "text")
	}
}

func TestTextFormatter_Format_Empty(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	report := NewReport(nil, Metadata{})

	var buf bytes.Buffer
	err := f.Format(context.Background(), report, &buf)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "tanklog Parse Report") {
		t.Error("Output missing header")
	}
	if !strings.Contains(output, "0 files parsed") {
		t.Error("Output missing summary")
	}
}

func TestTextFormatter_Format_WithSamples(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	report := createTestReport()

	var buf bytes.Buffer
	err := f.Format(context.Background(), report, &buf)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()

	checks := []string{
		"[FILE] /var/log/storage.log",
		"3 sample(s) in 2 entities",
		"- Tank 1: 2 sample(s), 2025-05-01T00:30:22 .. 2025-05-01T00:30:39, value 14.5 .. 15",
		"- Tank 2: 1 sample(s)",
		"1 without reading",
		"[FILE] /var/log/empty.log",
		"No samples extracted",
		"Summary: 2 files parsed, 1 with samples, 2 entities, 3 samples",
	}
	for _, want := range checks {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q\n%s", want, output)
		}
	}

	// Samples are listed only in verbose mode
	if strings.Contains(output, "877000000002265") {
		t.Error("Non-verbose output should not list samples")
	}
}

func TestTextFormatter_Format_Quiet(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Quiet: true})
	report := createTestReport()

	var buf bytes.Buffer
	err := f.Format(context.Background(), report, &buf)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "tanklog: 2 files parsed, 1 with samples, 2 entities, 3 samples\n"
	if buf.String() != want {
		t.Errorf("Quiet output = %q, want %q", buf.String(), want)
	}
}

func TestTextFormatter_Format_Verbose(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Verbose: true})
	report := createTestReport()

	var buf bytes.Buffer
	err := f.Format(context.Background(), report, &buf)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	checks := []string{
		"2025-05-01T00:30:39  14.5  877000000002265",
		"2025-05-01T00:31:00  -  877000000002267",
		"Grouping: inferred",
		"Duration: 42ms",
	}
	for _, want := range checks {
		if !strings.Contains(output, want) {
			t.Errorf("Verbose output missing %q\n%s", want, output)
		}
	}
}

func TestTextFormatter_Format_Filter(t *testing.T) {
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	lo := 14.0
	report := NewReport(createTestDatasets(), Metadata{
		Filter: NewFilter(dataset.Bounds{From: &from, Min: &lo}),
	})

	var buf bytes.Buffer
	if err := NewTextFormatter(FormatOptions{}).Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "Filter: time 2025-05-01T00:00:00 .. *, value 14 .. *"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("Output missing %q\n%s", want, buf.String())
	}
}
