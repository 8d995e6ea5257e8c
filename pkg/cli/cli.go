package cli

import (
	"context"

	"github.com/secmon-lab/pmotracker/pkg/cli/config"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var closers []func()

	flags := loggerCfg.Flags()
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "pmotracker",
		Usage:   "Project management office tracker for projects, risks, issues and budgets",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, f)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			closers = append(closers, flush)

			logging.Default().Info("Starting pmotracker",
				"version", version,
				"logger", loggerCfg,
				"sentry", sentryCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdMigrate(),
			cmdRecompute(),
			cmdSeed(),
			cmdToken(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}

// systemContext attaches the system principal used by maintenance commands
func systemContext(ctx context.Context) context.Context {
	return auth.ContextWithPrincipal(ctx, auth.NewSystemPrincipal())
}
