package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/tanklog/internal/logging"
	"github.com/ccollicutt/tanklog/pkg/config"
	"github.com/ccollicutt/tanklog/pkg/parser"
)

// Persistent flags defined on the root command.
const (
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig loads configPath, or the defaults when no path is given.
func loadConfig(ctx context.Context, configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.LoadDefault()
	}
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger from the config, overridden by the
// root command's log flags when they are set.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	level, format := cfg.Logging.Level, cfg.Logging.Format
	if f := cmd.Flag(FlagLogLevel); f != nil && f.Value.String() != "" {
		level = f.Value.String()
	}
	if f := cmd.Flag(FlagLogFormat); f != nil && f.Value.String() != "" {
		format = f.Value.String()
	}
	logger, err := logging.New(level, format)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}

// groupingPolicy returns the policy named by the flag, or the config's.
func groupingPolicy(flag string, cfg *config.Config) (parser.GroupingPolicy, error) {
	if flag == "" {
		return cfg.GroupingPolicy(), nil
	}
	policy, err := parser.ParseGroupingPolicy(flag)
	if err != nil {
		return nil, fmt.Errorf("invalid --grouping: %w", err)
	}
	return policy, nil
}

// existingFiles returns the paths that name regular files.
func existingFiles(paths []string) []string {
	var files []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			files = append(files, p)
		}
	}
	return files
}
