package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/tanklog/pkg/config"
	"github.com/ccollicutt/tanklog/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a tanklog configuration file without parsing any logs.

Checks:
  - YAML syntax
  - Grouping policy
  - Filter times and value bounds
  - Logging and output formats
  - Webhook URLs and triggers
  - Log source file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := commandContext(cmd)
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Log sources: %d pattern(s)\n", len(cfg.LogSources))
	fmt.Fprintf(w, "  Grouping:    %s\n", cfg.GroupingPolicy().Name())
	fmt.Fprintf(w, "  Output:      %s\n", cfg.Output.Format)
	fmt.Fprintf(w, "  Logging:     %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
	fmt.Fprintf(w, "  Server:      %s\n", cfg.Server.Addr)
	fmt.Fprintf(w, "  Webhooks:    %d\n", len(cfg.Webhooks))
	if desc := describeBounds(cfg.Filter); desc != "" {
		fmt.Fprintf(w, "  Filter:      %s\n", desc)
	}

	if len(cfg.LogSources) == 0 {
		fmt.Fprintf(w, "\nNote: No log_sources configured; pass log files to 'tanklog parse'\n")
		return nil
	}

	// Check if log sources exist (warnings only)
	files, err := parser.ExpandGlobs(cfg.LogSources)
	if err != nil {
		fmt.Fprintf(w, "\nWarning: Error expanding log source patterns: %v\n", err)
		return nil
	}

	existing := existingFiles(files)
	if len(existing) == 0 {
		fmt.Fprintf(w, "\nWarning: No files match log source patterns\n")
		return nil
	}
	fmt.Fprintf(w, "\nLog files matched: %d\n", len(existing))
	for _, f := range existing {
		fmt.Fprintf(w, "  - %s\n", f)
	}

	return nil
}

// describeBounds renders the configured filter, or "" when it is open.
func describeBounds(f config.FilterConfig) string {
	desc := ""
	if f.From != "" || f.To != "" {
		desc = fmt.Sprintf("time %s .. %s", orOpen(f.From), orOpen(f.To))
	}
	if f.Min != nil || f.Max != nil {
		if desc != "" {
			desc += ", "
		}
		lo, hi := "*", "*"
		if f.Min != nil {
			lo = fmt.Sprintf("%g", *f.Min)
		}
		if f.Max != nil {
			hi = fmt.Sprintf("%g", *f.Max)
		}
		desc += fmt.Sprintf("value %s .. %s", lo, hi)
	}
	return desc
}

func orOpen(s string) string {
	if s == "" {
		return "*"
	}
	return s
}
