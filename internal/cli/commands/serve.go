package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/tanklog/internal/server"
	"github.com/ccollicutt/tanklog/pkg/parser"
)

// ServeOptions holds command-line options for the serve command.
type ServeOptions struct {
	ConfigFile string
	Addr       string
	Grouping   string
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve <log-file>",
		Short: "Serve the readings of a log file over HTTP",
		Long: `Parse a log file once and serve its readings as read-only JSON.

Endpoints:
  GET /healthz
  GET /api/summary
  GET /api/entities
  GET /api/entities/{id}/samples?from=&to=&min=&max=

Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Config file (optional)")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (default from config or 127.0.0.1:8080)")
	cmd.Flags().StringVarP(&opts.Grouping, "grouping", "g", "", "Entity grouping (inferred|first-field|column:N)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string, opts *ServeOptions) error {
	logFile := args[0]
	ctx := commandContext(cmd)

	cfg, err := loadConfig(ctx, opts.ConfigFile)
	if err != nil {
		return err
	}

	policy, err := groupingPolicy(opts.Grouping, cfg)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	p := parser.New(parser.WithLogger(logger), parser.WithGrouping(policy))
	ds, err := p.ParseFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", logFile, err)
	}
	if bounds := cfg.Filter.Bounds(); !bounds.IsOpen() {
		ds = ds.Filter(bounds)
	}
	logger.Info("log parsed",
		zap.String("file", logFile),
		zap.Int("entities", ds.EntityCount()),
		zap.Int("samples", ds.Len()))

	addr := opts.Addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(ds, logger).Run(ctx, addr); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
