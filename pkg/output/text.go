package output

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/ccollicutt/tanklog/pkg/dataset"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "tanklog: %d files parsed, %d with samples, %d entities, %d samples\n",
		report.Summary.FilesParsed,
		report.Summary.FilesWithSamples,
		report.Summary.Entities,
		report.Summary.Samples)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	// Header
	fmt.Fprintln(w, "=== tanklog Parse Report ===")
	fmt.Fprintln(w)

	if report.Metadata.Filter != nil {
		fmt.Fprintf(w, "Filter: %s\n", describeFilter(report.Metadata.Filter))
		fmt.Fprintln(w)
	}

	for i, file := range report.Files {
		var ds *dataset.Dataset
		if i < len(report.datasets) {
			ds = report.datasets[i]
		}
		f.formatFile(file, ds, w)
	}

	// Summary
	fmt.Fprintln(w, "---")
	_, err := fmt.Fprintf(w, "Summary: %d files parsed, %d with samples, %d entities, %d samples\n",
		report.Summary.FilesParsed,
		report.Summary.FilesWithSamples,
		report.Summary.Entities,
		report.Summary.Samples)

	if f.opts.Verbose {
		if report.Metadata.Grouping != "" {
			fmt.Fprintf(w, "Grouping: %s\n", report.Metadata.Grouping)
		}
		_, err = fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return err
}

func (f *TextFormatter) formatFile(file FileReport, ds *dataset.Dataset, w io.Writer) {
	fmt.Fprintf(w, "[FILE] %s\n", file.Source)

	if file.SampleCount == 0 {
		fmt.Fprintln(w, "  No samples extracted")
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "  %d sample(s) in %d entit%s (fingerprint %s)\n",
		file.SampleCount, len(file.Entities), plural(len(file.Entities), "y", "ies"), file.Fingerprint)

	for _, e := range file.Entities {
		f.formatEntity(e, w)
		if f.opts.Verbose && ds != nil {
			for _, s := range ds.Samples(e.ID) {
				fmt.Fprintf(w, "    %s  %s  %s\n",
					s.Timestamp.Format(dataset.TimestampLayout), formatValue(s.Value), s.SampleID)
			}
		}
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatEntity(e EntitySummary, w io.Writer) {
	fmt.Fprintf(w, "  - %s: %d sample(s), %s .. %s",
		e.ID, e.Count,
		e.First.Format(dataset.TimestampLayout),
		e.Last.Format(dataset.TimestampLayout))

	if e.Min != nil && e.Max != nil {
		fmt.Fprintf(w, ", value %s .. %s", formatValue(*e.Min), formatValue(*e.Max))
	}
	if e.Missing > 0 {
		fmt.Fprintf(w, ", %d without reading", e.Missing)
	}
	fmt.Fprintln(w)
}

func describeFilter(flt *Filter) string {
	from, to := "*", "*"
	if flt.From != nil {
		from = flt.From.Format(dataset.TimestampLayout)
	}
	if flt.To != nil {
		to = flt.To.Format(dataset.TimestampLayout)
	}
	lo, hi := "*", "*"
	if flt.Min != nil {
		lo = formatValue(*flt.Min)
	}
	if flt.Max != nil {
		hi = formatValue(*flt.Max)
	}
	return fmt.Sprintf("time %s .. %s, value %s .. %s", from, to, lo, hi)
}

// formatValue renders a reading in its shortest form, or "-" when missing.
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
