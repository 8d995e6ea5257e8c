package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/pmotracker/pkg/cli/config"
	httpctrl "github.com/secmon-lab/pmotracker/pkg/controller/http"
	"github.com/secmon-lab/pmotracker/pkg/service/worker"
	"github.com/secmon-lab/pmotracker/pkg/usecase"
	"github.com/secmon-lab/pmotracker/pkg/utils/errutil"
	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
	"github.com/secmon-lab/pmotracker/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var noAuth bool
	var recomputeInterval time.Duration
	var repoCfg config.Repository
	var authCfg config.Auth
	var seedCfg config.Seed

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("PMOTRACKER_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "no-auth",
			Usage:       "Skip authentication and run every request as a PMO principal (development only)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("PMOTRACKER_NO_AUTH"),
			Destination: &noAuth,
		},
		&cli.DurationFlag{
			Name:        "recompute-interval",
			Usage:       "Interval of the background summary recomputation (0 disables it)",
			Sources:     cli.EnvVars("PMOTRACKER_RECOMPUTE_INTERVAL"),
			Destination: &recomputeInterval,
		},
	}

	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, seedCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Serve configuration",
				"addr", addr,
				"no_auth", noAuth,
				"repository", repoCfg,
				"auth", authCfg)

			seed, err := seedCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load seed file")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			uc := usecase.New(repo)

			if seed != nil {
				if _, err := seed.Apply(systemContext(ctx), uc); err != nil {
					return goerr.Wrap(err, "failed to apply seed", goerr.V("path", seedCfg.Path()))
				}
			}

			var httpOpts []httpctrl.Options
			if noAuth {
				logging.Default().Warn("Running in no-auth mode (development only)")
				httpOpts = append(httpOpts, httpctrl.WithNoAuth())
			} else {
				verifier, err := authCfg.ConfigureVerifier(ctx)
				if err != nil {
					return goerr.Wrap(err, "failed to configure authentication")
				}
				httpOpts = append(httpOpts, httpctrl.WithTokenVerifier(verifier))
			}

			var refreshWorker *worker.SummaryRefreshWorker
			if recomputeInterval > 0 {
				refreshWorker = worker.NewSummaryRefreshWorker(uc.Summary, recomputeInterval)
				if err := refreshWorker.Start(systemContext(ctx)); err != nil {
					return goerr.Wrap(err, "failed to start summary refresh worker")
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "backend", repo.Name())
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				if refreshWorker != nil {
					refreshWorker.Stop()
				}
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if refreshWorker != nil {
					refreshWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					errutil.Handle(ctx, err, "failed to shutdown server gracefully")
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
