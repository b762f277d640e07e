package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/tanklog/pkg/config"
	"github.com/ccollicutt/tanklog/pkg/detector"
	"github.com/ccollicutt/tanklog/pkg/parser"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <config-file>",
		Short: "Diagnose common configuration issues",
		Long: `Diagnose common configuration issues.

This command checks your configuration file for common problems:
- Config file syntax and structure
- Log source file existence and accessibility
- Data blocks, tank id column and time fields in the actual logs
- Webhook configuration

Example:
  tanklog diagnose tanklog.yaml
  tanklog diagnose -v tanklog.yaml  # verbose output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(commandContext(cmd), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, configPath string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	// 1. Check config file existence
	result := checkConfigExists(configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 2. Parse config file
	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 3. Check log sources
	results = append(results, checkLogSources(cfg)...)

	// 4. Check the layout of the first log file
	results = append(results, checkLayout(ctx, cfg, opts)...)

	// 5. Check webhooks configuration
	results = append(results, checkWebhooks(cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'tanklog detect <log-file> --write-config tanklog.yaml' to generate a starter config",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = "error"
		result.Message = "Config file is empty"
		result.Suggests = []string{
			"Use 'tanklog detect <log-file> --write-config tanklog.yaml' to generate a starter config",
		}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		switch {
		case strings.Contains(err.Error(), "yaml"):
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		case strings.Contains(err.Error(), "grouping"):
			result.Suggests = []string{
				"Use inferred, first-field, or column:N",
				"Use 'tanklog detect <log-file>' to find the tank id column",
			}
		case strings.Contains(err.Error(), "filter"):
			result.Suggests = []string{
				fmt.Sprintf("Write filter times as %q", config.FilterTimeLayout),
			}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Log sources: %d", len(cfg.LogSources)),
		fmt.Sprintf("Grouping: %s", cfg.GroupingPolicy().Name()),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

func checkLogSources(cfg *config.Config) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.LogSources) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Log Sources",
			Status:  "warning",
			Message: "No log sources defined",
			Suggests: []string{
				"Pass log files to 'tanklog parse', or add a log_sources section",
				"Example: log_sources:\n  - /var/log/storage/*.log",
			},
		})
		return results
	}

	totalFiles := 0
	for _, source := range cfg.LogSources {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Log Source: %s", source),
		}

		if strings.ContainsAny(source, "*?[") {
			matches, err := parser.ExpandGlobs([]string{source})
			matches = existingFiles(matches)
			switch {
			case err != nil:
				result.Status = "error"
				result.Message = fmt.Sprintf("Invalid glob pattern: %v", err)
			case len(matches) == 0:
				result.Status = "warning"
				result.Message = "Glob pattern matches no files"
				result.Suggests = []string{
					"Check if the log files exist at this path",
					"Verify the glob pattern syntax",
				}
			default:
				result.Status = "ok"
				result.Message = fmt.Sprintf("Matches %d file(s)", len(matches))
				result.Details = append(result.Details, matches...)
				totalFiles += len(matches)
			}
			results = append(results, result)
			continue
		}

		info, err := os.Stat(source)
		switch {
		case os.IsNotExist(err):
			result.Status = "error"
			result.Message = "File does not exist"
			result.Suggests = []string{
				"Check if the log file path is correct",
			}
		case err != nil:
			result.Status = "error"
			result.Message = fmt.Sprintf("Cannot access file: %v", err)
			result.Suggests = []string{"Check file permissions"}
		case info.IsDir():
			result.Status = "error"
			result.Message = "Path is a directory, not a file"
			result.Suggests = []string{
				"Use a glob pattern to match files in directory",
				"Example: /var/log/storage/*.log",
			}
		case info.Size() == 0:
			result.Status = "warning"
			result.Message = "File is empty (0 bytes)"
		default:
			result.Status = "ok"
			result.Message = fmt.Sprintf("File exists (%d bytes)", info.Size())
			totalFiles++
		}
		results = append(results, result)
	}

	if totalFiles == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Log Files Summary",
			Status:  "error",
			Message: "No accessible log files found",
			Suggests: []string{
				"Ensure at least one log file exists and is readable",
			},
		})
	}

	return results
}

// checkLayout inspects the first readable log file and checks that it has
// data blocks, that the grouping fits its rows and that its time fields
// resolve.
func checkLayout(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	files, err := parser.ExpandGlobs(cfg.LogSources)
	if err != nil {
		return results
	}
	files = existingFiles(files)
	if len(files) == 0 {
		return results
	}

	logFile := files[0]
	result := DiagnosticResult{
		Check: fmt.Sprintf("Layout: %s", filepath.Base(logFile)),
	}

	d := detector.New()
	det, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		return append(results, result)
	}

	switch {
	case det.Blocks == 0:
		result.Status = "error"
		result.Message = "No data blocks found"
		result.Suggests = []string{
			fmt.Sprintf("Readings are only taken after a line containing %q", parser.DatasetMarker),
			"Check this is a storage service log",
		}
	case det.CandidateRows == 0:
		result.Status = "error"
		result.Message = fmt.Sprintf("%d data block(s) but no usable rows", det.Blocks)
		result.Suggests = []string{
			"Rows need at least 5 ';'-separated fields",
		}
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("%d data block(s), %d candidate row(s), %s",
			det.Blocks, det.CandidateRows, det.Encoding)
		if det.ShortRows > 0 {
			result.Status = "warning"
			result.Details = append(result.Details, fmt.Sprintf("%d row(s) with too few fields are ignored", det.ShortRows))
		}
		if opts.Verbose {
			result.Details = append(result.Details,
				fmt.Sprintf("Compression: %s", det.Compression),
				fmt.Sprintf("Inferred tank id column: %d (%d distinct)", det.IDColumn, det.DistinctIDs()))
		}
	}
	results = append(results, result)
	if det.CandidateRows == 0 {
		return results
	}

	results = append(results, checkGrouping(cfg, det))
	results = append(results, checkTimeFields(det, opts))
	return results
}

func checkGrouping(cfg *config.Config, det *detector.DetectionResult) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Grouping",
	}

	policy := cfg.GroupingPolicy()
	fixed, ok := policy.(parser.FixedColumn)
	if !ok {
		result.Status = "ok"
		result.Message = fmt.Sprintf("%s (column %d in this file)", policy.Name(), det.IDColumn)
		return result
	}

	if fixed.Column >= len(det.Columns) || !det.Columns[fixed.Column].HasValue {
		result.Status = "error"
		result.Message = fmt.Sprintf("Column %d is empty in every row", fixed.Column)
		result.Suggests = []string{
			fmt.Sprintf("The inferred tank id column is %d: use grouping: %s", det.IDColumn, det.Grouping()),
		}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%s (%d distinct id(s))", policy.Name(), det.Columns[fixed.Column].Distinct)
	if fixed.Column != det.IDColumn {
		result.Status = "warning"
		result.Details = []string{
			fmt.Sprintf("The inferred tank id column is %d, not %d", det.IDColumn, fixed.Column),
		}
	}
	return result
}

func checkTimeFields(det *detector.DetectionResult, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Time Fields",
	}

	resolved := det.SampledRows - det.Unresolved
	switch {
	case !det.HasMatch():
		result.Status = "error"
		result.Message = "No sampled row has a usable date and time"
		result.Suggests = []string{
			"Rows need a date (dd.MM.yyyy) and a time in their second field",
		}
	case resolved*2 < det.SampledRows:
		result.Status = "warning"
		result.Message = fmt.Sprintf("Only %d/%d sampled rows have a usable date and time", resolved, det.SampledRows)
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("%d/%d sampled rows resolved, mostly %s",
			resolved, det.SampledRows, det.BestMatch().Format.Name)
	}

	if det.AmbiguityNote != "" {
		if result.Status == "ok" {
			result.Status = "warning"
		}
		result.Details = append(result.Details, det.AmbiguityNote)
	}
	if opts.Verbose && det.HasMatch() {
		result.Details = append(result.Details,
			"Sample row:",
			truncate(det.BestMatch().SampleLine, 80))
	}
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== tanklog Configuration Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	switch {
	case errCount > 0:
		fmt.Fprintln(w, "\nFix the errors above before parsing.")
	case warnCount > 0:
		fmt.Fprintln(w, "\nConfiguration is usable but has warnings.")
	default:
		fmt.Fprintln(w, "\nConfiguration looks good!")
	}
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", webhookName(wh)),
		}

		issues := []string{}
		warnings := []string{}

		if wh.URL == "" {
			issues = append(issues, "Missing url")
		} else {
			u, err := url.Parse(wh.URL)
			if err != nil {
				issues = append(issues, fmt.Sprintf("Invalid URL: %v", err))
			} else if u.Scheme != "http" && u.Scheme != "https" {
				issues = append(issues, fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme))
			} else if u.Host == "" {
				issues = append(issues, "URL must have a host")
			}
		}

		switch wh.Trigger {
		case "", config.WebhookTriggerOnSamples, config.WebhookTriggerAlways, config.WebhookTriggerNever:
		default:
			issues = append(issues, fmt.Sprintf("Invalid trigger %q (use on_samples, always, or never)", wh.Trigger))
		}

		// An unexpanded env var survives as a literal "$..." token
		if strings.HasPrefix(wh.Token, "$") {
			warnings = append(warnings, fmt.Sprintf("Token appears to be an unresolved env var: %s", wh.Token))
		}
		if wh.Trigger == config.WebhookTriggerNever {
			warnings = append(warnings, "Trigger is never: this webhook is disabled")
		}

		switch {
		case len(issues) > 0:
			result.Status = "error"
			result.Message = fmt.Sprintf("%d configuration issue(s)", len(issues))
			result.Details = issues
		case len(warnings) > 0:
			result.Status = "warning"
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = warnings
		default:
			result.Status = "ok"
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout),
				}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}

		results = append(results, result)
	}

	// Connectivity checks only run in verbose mode
	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			if wh.URL == "" {
				continue
			}
			result := checkWebhookConnectivity(wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", webhookName(wh))
			results = append(results, result)
		}
	}

	return results
}

func webhookName(wh config.WebhookConfig) string {
	if wh.Name != "" {
		return wh.Name
	}
	return wh.URL
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	// Any response means the server is reachable
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may only accept POST (reports are sent with POST)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
