package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/cli/config"
	"github.com/secmon-lab/pmotracker/pkg/repository/firestore"
	"github.com/secmon-lab/pmotracker/pkg/usecase"
	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
	"github.com/secmon-lab/pmotracker/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate stored data and backend indexes",
		Commands: []*cli.Command{
			cmdMigrateBudgets(),
			cmdMigrateIndexes(),
		},
	}
}

func cmdMigrateBudgets() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Report what would change without writing",
			Destination: &dryRun,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "budgets",
		Usage: "Convert legacy scalar budgets into structured budgets and normalize project statuses",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Budget migration configuration",
				"repository", repoCfg,
				"dry_run", dryRun)

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			uc := usecase.New(repo)
			ctx = systemContext(ctx)

			report, err := uc.Budget.MigrateLegacyData(ctx, dryRun)
			if err != nil {
				return goerr.Wrap(err, "failed to migrate legacy data")
			}
			logger.Info("Budget migration finished",
				"scanned", report.Scanned,
				"budgets_migrated", report.BudgetsMigrated,
				"statuses_normalized", report.StatusesNormalized,
				"dry_run", report.DryRun)

			if dryRun {
				return nil
			}

			remaining, err := uc.Budget.ListLegacyProjects(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to verify migration")
			}
			if len(remaining) > 0 {
				return goerr.New("legacy projects remain after migration", goerr.V("count", len(remaining)))
			}
			return nil
		},
	}
}

func cmdMigrateIndexes() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview changes without applying (Firestore only)",
			Destination: &dryRun,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "indexes",
		Usage: "Provision the indexes required by the configured backend",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Index migration configuration",
				"repository", repoCfg,
				"dry_run", dryRun)

			switch repoCfg.Backend() {
			case config.BackendFirestore:
				return migrateFirestoreIndexes(ctx, &repoCfg, dryRun)

			case config.BackendMongo:
				if dryRun {
					logging.Default().Info("Dry run is not supported for mongo, nothing applied")
					return nil
				}
				repo, err := repoCfg.ConfigureMongo(ctx)
				if err != nil {
					return err
				}
				defer safe.Close(ctx, repo)

				if err := repo.EnsureIndexes(ctx); err != nil {
					return goerr.Wrap(err, "failed to ensure mongo indexes")
				}
				logging.Default().Info("Mongo indexes ensured")
				return nil

			default:
				logging.Default().Info("Backend needs no indexes", "backend", repoCfg.Backend())
				return nil
			}
		},
	}
}

func migrateFirestoreIndexes(ctx context.Context, repoCfg *config.Repository, dryRun bool) error {
	logger := logging.Default()

	if repoCfg.ProjectID() == "" {
		return goerr.New("firestore-project-id is required when using firestore backend")
	}

	indexConfig := firestore.IndexConfig(repoCfg.CollectionPrefix())

	client, err := fireconf.NewClient(ctx, repoCfg.ProjectID(), repoCfg.DatabaseID())
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - previewing changes")
		plan, err := client.GetMigrationPlan(ctx, indexConfig)
		if err != nil {
			return goerr.Wrap(err, "failed to create migration plan")
		}

		if len(plan.Steps) == 0 {
			logger.Info("No changes required")
			return nil
		}

		for _, step := range plan.Steps {
			logger.Info("Migration step",
				"collection", step.Collection,
				"operation", step.Operation,
				"description", step.Description,
				"destructive", step.Destructive)
		}
		return nil
	}

	logger.Info("Applying migrations")
	if err := client.Migrate(ctx, indexConfig); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	logger.Info("Migrations applied successfully")
	return nil
}
