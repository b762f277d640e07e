package output

import (
	"context"
	"encoding/json"
	"io"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format renders the report as JSON.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if f.opts.Quiet {
		// Quiet mode: just summary
		return encoder.Encode(report.Summary)
	}

	if f.opts.Verbose && len(report.datasets) == len(report.Files) {
		// Attach samples to a copy so the report stays summary-only.
		verbose := *report
		verbose.Files = make([]FileReport, len(report.Files))
		for i, fr := range report.Files {
			fr.Samples = report.datasets[i].All()
			verbose.Files[i] = fr
		}
		return encoder.Encode(&verbose)
	}

	return encoder.Encode(report)
}
