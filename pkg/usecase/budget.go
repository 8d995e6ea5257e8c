package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
)

// MigrationReport summarizes a legacy data migration pass
type MigrationReport struct {
	Scanned            int
	BudgetsMigrated    int
	StatusesNormalized int
	DryRun             bool
}

type BudgetUseCase struct {
	repo interfaces.Repository
}

func NewBudgetUseCase(repo interfaces.Repository) *BudgetUseCase {
	return &BudgetUseCase{repo: repo}
}

// MigrateLegacyData converts scalar budget fields into the structured budget
// and rewrites legacy status spellings on every stored project. Records that
// are already current are not written, so running it again is a no-op. With
// dryRun nothing is written and the report counts what would change.
func (uc *BudgetUseCase) MigrateLegacyData(ctx context.Context, dryRun bool) (*MigrationReport, error) {
	projects, err := uc.repo.Project().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list projects")
	}

	report := &MigrationReport{DryRun: dryRun}
	logger := logging.From(ctx)

	for _, candidate := range projects {
		report.Scanned++

		budgetPending, statusPending := needsMigration(candidate)
		if !budgetPending && !statusPending {
			continue
		}

		if !dryRun {
			_, err := mutateProject(ctx, uc.repo, candidate.ID, func(ctx context.Context, p *model.Project) (bool, error) {
				budgetPending, statusPending = needsMigration(p)
				p.Status = p.Status.Normalize()
				// mutateProject migrates the legacy budget before writing
				return budgetPending || statusPending, nil
			})
			if err != nil {
				return report, goerr.Wrap(err, "failed to migrate project", goerr.V(ProjectIDKey, candidate.ID))
			}
		}

		if budgetPending {
			report.BudgetsMigrated++
		}
		if statusPending {
			report.StatusesNormalized++
		}

		logger.Info("project migrated",
			"project_id", candidate.ID,
			"case_id", candidate.CaseID,
			"budget", budgetPending,
			"status", statusPending,
			"dry_run", dryRun)
	}

	return report, nil
}

// ListLegacyProjects returns the projects still carrying scalar budget fields
func (uc *BudgetUseCase) ListLegacyProjects(ctx context.Context) ([]*model.Project, error) {
	projects, err := uc.repo.Project().ListLegacy(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list legacy projects")
	}
	return projects, nil
}

func needsMigration(p *model.Project) (budget, status bool) {
	return p.Legacy != nil, p.Status != p.Status.Normalize()
}
