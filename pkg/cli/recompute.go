package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/cli/config"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/usecase"
	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
	"github.com/secmon-lab/pmotracker/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdRecompute() *cli.Command {
	var repoCfg config.Repository
	var projectID string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "project-id",
			Usage:       "Recompute only this project (default: every project)",
			Destination: &projectID,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "recompute",
		Usage: "Recompute the cached risk and issue summaries of projects",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Recompute configuration",
				"repository", repoCfg,
				"project_id", projectID)

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			uc := usecase.New(repo)
			ctx = systemContext(ctx)

			if projectID != "" {
				summaries, err := uc.Summary.RecomputeProjectSummaries(ctx, types.ProjectID(projectID))
				if err != nil {
					return goerr.Wrap(err, "failed to recompute project", goerr.V("project_id", projectID))
				}
				logger.Info("Project summaries recomputed",
					"project_id", projectID,
					"risks", summaries.RiskSummary.Total,
					"issues", summaries.IssueSummary.Total)
				return nil
			}

			n, err := uc.Summary.RecomputeAll(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to recompute summaries")
			}
			logger.Info("Summaries recomputed", "projects", n)
			return nil
		},
	}
}
