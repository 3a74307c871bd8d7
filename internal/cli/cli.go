// Package cli implements helpdeskctl, the operator command line for the helpdesk.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/it-helpdesk/internal/app"
	"github.com/spec-kit/it-helpdesk/internal/config"
	"github.com/spec-kit/it-helpdesk/internal/observability"
)

// Opener assembles the application a command operates on.
type Opener func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app.Container, error)

type runtime struct {
	out    io.Writer
	open   Opener
	cfg    *config.Config
	logger *zap.Logger
}

func (r *runtime) container(ctx context.Context) (*app.Container, error) {
	c, err := r.open(ctx, r.cfg, r.logger)
	if err != nil {
		return nil, err
	}
	if !c.Postgres.Enabled() {
		r.logger.Warn("POSTGRES_DSN not set; changes only affect an in-memory store")
	}
	return c, nil
}

// Run executes helpdeskctl with process arguments.
func Run(ctx context.Context, args []string, version string) error {
	return New(version, os.Stdout, app.Build).Run(ctx, args)
}

// New builds the root command. Output is written to out; open wires the backends.
func New(version string, out io.Writer, open Opener) *cli.Command {
	rt := &runtime{out: out, open: open}
	var logLevel string

	return &cli.Command{
		Name:    "helpdeskctl",
		Usage:   "Operate the IT helpdesk: migrations, admin accounts and quarantine",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("LOG_LEVEL"),
				Value:       "info",
				Destination: &logLevel,
			},
		},
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			cfg, err := config.Load()
			if err != nil {
				return ctx, err
			}
			cfg.Logger.Level = logLevel
			logger, err := observability.NewLogger(cfg.Logger)
			if err != nil {
				return ctx, err
			}
			rt.cfg = cfg
			rt.logger = logger
			return ctx, nil
		},
		After: func(context.Context, *cli.Command) error {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdMigrate(rt),
			cmdCreateAdmin(rt),
			cmdQuarantine(rt),
			cmdUnfreeze(rt),
			cmdClassify(rt),
		},
	}
}
