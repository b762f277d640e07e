package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/tanklog/pkg/config"
	"github.com/ccollicutt/tanklog/pkg/dataset"
	"github.com/ccollicutt/tanklog/pkg/output"
	"github.com/ccollicutt/tanklog/pkg/parser"
	"github.com/ccollicutt/tanklog/pkg/webhook"
)

// ParseOptions holds command-line options for the parse command.
type ParseOptions struct {
	ConfigFile string
	Output     string
	Grouping   string
	Verbose    bool
	Quiet      bool

	// Filter options
	From string
	To   string
	Min  string
	Max  string

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [log-file|glob...]",
		Short: "Extract tank readings from log files",
		Long: `Parse storage service logs and report the tank readings they contain.

Files are taken from the arguments, or from log_sources in the config file
when no arguments are given. Each file yields its own dataset.

Filters:
  --from/--to  bound reading times, written like the logs (01.05.2025 0:30:00)
  --min/--max  bound reading values; a decimal comma is accepted

Exit codes:
  0 - Samples extracted
  1 - No samples extracted
  2 - Configuration or runtime error`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Config file (optional)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output format (text|json|csv; default from config or text)")
	cmd.Flags().StringVarP(&opts.Grouping, "grouping", "g", "", "Entity grouping (inferred|first-field|column:N)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "List every sample, not just the per-tank summary")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")

	// Filter flags
	cmd.Flags().StringVar(&opts.From, "from", "", "Earliest reading time to report")
	cmd.Flags().StringVar(&opts.To, "to", "", "Latest reading time to report")
	cmd.Flags().StringVar(&opts.Min, "min", "", "Smallest reading value to report")
	cmd.Flags().StringVar(&opts.Max, "max", "", "Largest reading value to report")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnSamples), "When to fire webhook (on_samples|always|never)")

	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts *ParseOptions) error {
	ctx := commandContext(cmd)

	cfg, err := loadConfig(ctx, opts.ConfigFile)
	if err != nil {
		return err
	}

	policy, err := groupingPolicy(opts.Grouping, cfg)
	if err != nil {
		return err
	}

	switch config.WebhookTrigger(opts.WebhookTrigger) {
	case "", config.WebhookTriggerOnSamples, config.WebhookTriggerAlways, config.WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid --webhook-trigger %q (use on_samples, always, or never)", opts.WebhookTrigger)
	}

	bounds, err := flagBounds(opts)
	if err != nil {
		return err
	}
	bounds = cfg.Filter.Bounds().Intersect(bounds)

	format := opts.Output
	if format == "" {
		format = cfg.Output.Format
	}
	formatter, err := createFormatter(format, opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Arguments take precedence over configured sources
	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.LogSources
	}
	if len(patterns) == 0 {
		return fmt.Errorf("no log files given (pass files or set log_sources in the config)")
	}

	files, err := parser.ExpandGlobs(patterns)
	if err != nil {
		return fmt.Errorf("expanding log sources: %w", err)
	}

	start := time.Now()
	p := parser.New(parser.WithLogger(logger), parser.WithGrouping(policy))

	datasets := make([]*dataset.Dataset, 0, len(files))
	for _, file := range files {
		ds, err := p.ParseFile(ctx, file)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", file, err)
		}
		if !bounds.IsOpen() {
			ds = ds.Filter(bounds)
		}
		logger.Debug("parsed log file",
			zap.String("file", file),
			zap.Int("entities", ds.EntityCount()),
			zap.Int("samples", ds.Len()))
		datasets = append(datasets, ds)
	}

	report := output.NewReport(datasets, output.Metadata{
		ConfigFile: opts.ConfigFile,
		Grouping:   policy.Name(),
		Filter:     output.NewFilter(bounds),
		ParsedAt:   time.Now(),
		Duration:   time.Since(start),
	})

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Webhook failures are logged but don't fail the parse
	sendWebhooks(ctx, cfg, opts, report, logger)

	if !report.HasSamples() {
		ExitCode = 1
	}

	return nil
}

func createFormatter(format string, opts *ParseOptions) (output.Formatter, error) {
	return output.NewFormatter(format, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
}

// flagBounds parses the filter flags. Unset flags leave their bound open.
func flagBounds(opts *ParseOptions) (dataset.Bounds, error) {
	var b dataset.Bounds

	parseTime := func(name, value string) (*time.Time, error) {
		if strings.TrimSpace(value) == "" {
			return nil, nil
		}
		t, err := parser.ParseTimestamp(value)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s %q: %w", name, value, err)
		}
		return &t, nil
	}
	parseValue := func(name, value string) (*float64, error) {
		if strings.TrimSpace(value) == "" {
			return nil, nil
		}
		v, err := parser.ParseNumber(value)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s %q: %w", name, value, err)
		}
		return &v, nil
	}

	var err error
	if b.From, err = parseTime("from", opts.From); err != nil {
		return b, err
	}
	if b.To, err = parseTime("to", opts.To); err != nil {
		return b, err
	}
	if b.Min, err = parseValue("min", opts.Min); err != nil {
		return b, err
	}
	if b.Max, err = parseValue("max", opts.Max); err != nil {
		return b, err
	}

	if b.From != nil && b.To != nil && b.From.After(*b.To) {
		return b, fmt.Errorf("--from %q is after --to %q", opts.From, opts.To)
	}
	if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
		return b, fmt.Errorf("--min %q is above --max %q", opts.Min, opts.Max)
	}
	return b, nil
}

// sendWebhooks sends the report to all configured webhooks.
func sendWebhooks(ctx context.Context, cfg *config.Config, opts *ParseOptions, report *output.Report, logger *zap.Logger) {
	webhooks := collectWebhooks(cfg, opts)
	if len(webhooks) == 0 {
		return
	}
	if failed := webhook.NewClient().Dispatch(ctx, webhooks, report, logger); failed > 0 {
		logger.Warn("some webhooks failed", zap.Int("failed", failed), zap.Int("total", len(webhooks)))
	}
}

// collectWebhooks merges config file webhooks with CLI webhook.
func collectWebhooks(cfg *config.Config, opts *ParseOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)

	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnSamples
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}
