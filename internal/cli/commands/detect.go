package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/tanklog/pkg/config"
	"github.com/ccollicutt/tanklog/pkg/detector"
	"github.com/ccollicutt/tanklog/pkg/parser"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Inspect the layout of a log file",
		Long: `Inspect a storage service log and report how tanklog sees it.

Reports:
  - Text encoding and compression
  - Data blocks, candidate rows and rejected short rows
  - Row widths and the distinct values per column
  - The column inferred to identify the tank
  - How the time fields are written, with a sample per shape

Optionally generates a starter config file with --write-config.

Example:
  tanklog detect /var/log/storage/storage.log
  tanklog detect --sample 5000 /var/log/storage/storage.log.gz
  tanklog detect -w tanklog.yaml /var/log/storage/storage.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", 1000, "Number of rows checked for timestamps")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show every column and time field shape, not just the main ones")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	logFile := args[0]
	ctx := commandContext(cmd)

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	switch opts.Output {
	case "text", "json":
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize))

	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	out := cmd.OutOrStdout()

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(out, result, logFile, opts.WriteConfig); err != nil {
			return err
		}
	}

	if opts.Output == "json" {
		return outputDetectJSON(out, result, logFile, opts)
	}
	return outputDetectText(out, result, logFile, opts)
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	fmt.Fprintln(w, "=== Log Layout Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Encoding: %s\n", result.Encoding)
	fmt.Fprintf(w, "Compression: %s\n", result.Compression)
	fmt.Fprintf(w, "Size: %d bytes, %d lines\n", result.Bytes, result.Lines)
	fmt.Fprintln(w)

	if result.Blocks == 0 {
		fmt.Fprintln(w, "No data blocks found.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: readings are only taken from lines that follow a")
		fmt.Fprintf(w, "%q marker line.\n", parser.DatasetMarker)
		return nil
	}

	fmt.Fprintf(w, "Data blocks: %d\n", result.Blocks)
	fmt.Fprintf(w, "Data lines: %d (%d candidate rows, %d too short)\n",
		result.DataLines, result.CandidateRows, result.ShortRows)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Line kinds:")
	kinds := make([]string, 0, len(result.LineKinds))
	for k := range result.LineKinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-12s %d\n", k, result.LineKinds[k])
	}
	fmt.Fprintln(w)

	if len(result.Widths) > 0 {
		fmt.Fprintln(w, "Row widths:")
		for _, wc := range result.Widths {
			fmt.Fprintf(w, "  %2d fields: %d row(s)\n", wc.Width, wc.Rows)
		}
		fmt.Fprintln(w)
	}

	if len(result.Columns) > 0 {
		fmt.Fprintln(w, "Columns:")
		for _, col := range result.Columns {
			if !opts.ShowAll && !col.HasValue && col.Column != result.IDColumn {
				continue
			}
			marker := ""
			if col.Column == result.IDColumn {
				marker = "  <- tank id"
			}
			fmt.Fprintf(w, "  #%d: %d distinct%s\n", col.Column, col.Distinct, marker)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Tank id column: %d (%d distinct id(s))\n", result.IDColumn, result.DistinctIDs())
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Time fields (%d rows sampled, %d unresolved):\n", result.SampledRows, result.Unresolved)
	if !result.HasMatch() {
		fmt.Fprintln(w, "  No usable date and time found.")
		fmt.Fprintln(w)
	} else {
		matches := result.Matches
		if !opts.ShowAll {
			matches = matches[:1]
		}
		for _, m := range matches {
			fmt.Fprintf(w, "  %s: %.1f%% (%d row(s))\n", m.Format.Name, m.Confidence*100, m.MatchCount)
			fmt.Fprintf(w, "    sample: %s\n", truncate(m.SampleLine, 100))
			fmt.Fprintf(w, "    parsed as: %s\n", m.ParsedTime.Format("2006-01-02 15:04:05"))
		}
		if !opts.ShowAll && len(result.Matches) > 1 {
			fmt.Fprintf(w, "  (%d more shape(s), use --all to list)\n", len(result.Matches)-1)
		}
		fmt.Fprintln(w)

		if result.BestMatch().Format.Ambiguous {
			fmt.Fprintln(w, "WARNING: Most time fields are fractional hours.")
			fmt.Fprintln(w, "Please verify a few parsed times against the raw lines.")
			fmt.Fprintln(w)
		}
	}

	if result.AmbiguityNote != "" {
		fmt.Fprintf(w, "Note: %s\n", result.AmbiguityNote)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "--- Configuration snippet (copy to your config file) ---")
	fmt.Fprintln(w)
	_, err := fmt.Fprintf(w, "grouping: %s\n", result.Grouping())
	return err
}

// JSONColumn represents a column in JSON output.
type JSONColumn struct {
	Column   int  `json:"column"`
	Distinct int  `json:"distinct"`
	HasValue bool `json:"has_value"`
}

// JSONMatch represents a time field shape in JSON output.
type JSONMatch struct {
	Name       string  `json:"name"`
	Strategy   string  `json:"strategy"`
	Confidence float64 `json:"confidence"`
	MatchCount int     `json:"match_count"`
	SampleLine string  `json:"sample_line"`
	ParsedTime string  `json:"parsed_time"`
	Ambiguous  bool    `json:"ambiguous,omitempty"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File          string                `json:"file"`
	Encoding      string                `json:"encoding"`
	Compression   string                `json:"compression"`
	Bytes         int                   `json:"bytes"`
	Lines         int                   `json:"lines"`
	Blocks        int                   `json:"blocks"`
	DataLines     int                   `json:"data_lines"`
	CandidateRows int                   `json:"candidate_rows"`
	ShortRows     int                   `json:"short_rows"`
	LineKinds     map[string]int        `json:"line_kinds"`
	Widths        []detector.WidthCount `json:"widths"`
	Columns       []JSONColumn          `json:"columns"`
	IDColumn      int                   `json:"id_column"`
	Grouping      string                `json:"grouping"`
	Matches       []JSONMatch           `json:"matches"`
	SampledRows   int                   `json:"sampled_rows"`
	Unresolved    int                   `json:"unresolved"`
	AmbiguityNote string                `json:"ambiguity_note,omitempty"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	output := JSONOutput{
		File:          logFile,
		Encoding:      result.Encoding,
		Compression:   string(result.Compression),
		Bytes:         result.Bytes,
		Lines:         result.Lines,
		Blocks:        result.Blocks,
		DataLines:     result.DataLines,
		CandidateRows: result.CandidateRows,
		ShortRows:     result.ShortRows,
		LineKinds:     result.LineKinds,
		Widths:        result.Widths,
		Columns:       make([]JSONColumn, 0, len(result.Columns)),
		IDColumn:      result.IDColumn,
		Grouping:      result.Grouping(),
		SampledRows:   result.SampledRows,
		Unresolved:    result.Unresolved,
		AmbiguityNote: result.AmbiguityNote,
		Matches:       make([]JSONMatch, 0),
	}
	if output.LineKinds == nil {
		output.LineKinds = map[string]int{}
	}
	if output.Widths == nil {
		output.Widths = []detector.WidthCount{}
	}

	for _, c := range result.Columns {
		output.Columns = append(output.Columns, JSONColumn{
			Column:   c.Column,
			Distinct: c.Distinct,
			HasValue: c.HasValue,
		})
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1] // Only show best match
	}

	for _, m := range matches {
		output.Matches = append(output.Matches, JSONMatch{
			Name:       m.Format.Name,
			Strategy:   m.Format.Strategy.String(),
			Confidence: m.Confidence,
			MatchCount: m.MatchCount,
			SampleLine: m.SampleLine,
			ParsedTime: m.ParsedTime.Format("2006-01-02T15:04:05"),
			Ambiguous:  m.Format.Ambiguous,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// writeStarterConfig generates a starter config file pinned to the detected
// tank id column.
func writeStarterConfig(w io.Writer, result *detector.DetectionResult, logFile, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if result.CandidateRows == 0 {
		return fmt.Errorf("cannot generate config: no data rows found")
	}

	content := generateStarterConfig(logFile, result)

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(logFile string, result *detector.DetectionResult) string {
	absLogFile := logFile
	if abs, err := filepath.Abs(logFile); err == nil {
		absLogFile = abs
	}

	timeShape := "none detected"
	if best := result.BestMatch(); best != nil {
		timeShape = fmt.Sprintf("%s (%.0f%% of sampled rows)", best.Format.Name, best.Confidence*100)
	}

	return fmt.Sprintf(`# tanklog configuration
# Generated by: tanklog detect
# Encoding: %s, compression: %s
# Time fields: %s
# Tank id column: %d (%d distinct id(s))

log_sources:
  - %s
  # Add more log files or use globs:
  # - /var/log/storage/*.log

# inferred picks the tank id column per file; column:N pins it.
grouping: %s

# filter:
#   from: "01.05.2025 00:00:00"
#   to: "31.05.2025 23:59:59"
#   min: 0
#   max: 100

logging:
  level: info
  format: console

output:
  format: text

server:
  addr: %s

# webhooks:
#   - name: ops
#     url: https://example.com/hooks/tanklog
#     token: ${TANKLOG_WEBHOOK_TOKEN}
#     trigger: on_samples
`, result.Encoding, result.Compression,
		timeShape,
		result.IDColumn, result.DistinctIDs(),
		absLogFile,
		result.Grouping(),
		config.DefaultServerAddr)
}
