package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/cli/config"
	"github.com/secmon-lab/pmotracker/pkg/usecase"
	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
	"github.com/secmon-lab/pmotracker/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdSeed() *cli.Command {
	var repoCfg config.Repository
	var seedCfg config.Seed

	flags := repoCfg.Flags()
	flags = append(flags, seedCfg.Flags()...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Load projects, risks and issues from a TOML file into an empty store",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if seedCfg.Path() == "" {
				return goerr.New("--seed is required")
			}
			logging.Default().Info("Seed configuration",
				"repository", repoCfg,
				"path", seedCfg.Path())

			seed, err := seedCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load seed file")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			result, err := seed.Apply(systemContext(ctx), usecase.New(repo))
			if err != nil {
				return goerr.Wrap(err, "failed to apply seed", goerr.V("path", seedCfg.Path()))
			}
			logging.Default().Info("Seed finished",
				"projects", result.Projects,
				"risks", result.Risks,
				"issues", result.Issues,
				"tasks", result.Tasks,
				"skipped", result.Skipped)
			return nil
		},
	}
}
