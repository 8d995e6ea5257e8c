package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

func TestBudgetUseCase_MigrateLegacyData(t *testing.T) {
	uc, repo := newTestUseCases(t)
	ctx := pmoContext()

	legacy, err := repo.Project().Create(ctx, &model.Project{
		ID:     types.NewProjectID(),
		CaseID: "PRJ-2023-001",
		Name:   "Legacy",
		Status: "In Progress",
		Legacy: &model.LegacyBudget{Budget: 2000, Spent: 2500},
	})
	gt.NoError(t, err).Required()

	statusOnly, err := repo.Project().Create(ctx, &model.Project{
		ID:     types.NewProjectID(),
		CaseID: "PRJ-2023-002",
		Name:   "Status only",
		Status: "",
		Budget: model.Budget{Total: 10, Allocated: 10, Currency: "USD"},
	})
	gt.NoError(t, err).Required()

	current := createTestProject(t, ctx, uc, "Current")

	t.Run("dry run writes nothing", func(t *testing.T) {
		report, err := uc.Budget.MigrateLegacyData(ctx, true)
		gt.NoError(t, err).Required()
		gt.Value(t, report.DryRun).Equal(true)
		gt.Value(t, report.Scanned).Equal(3)
		gt.Value(t, report.BudgetsMigrated).Equal(1)
		gt.Value(t, report.StatusesNormalized).Equal(2)

		remaining, err := uc.Budget.ListLegacyProjects(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, remaining).Length(1)

		stored, err := repo.Project().Get(ctx, legacy.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Version).Equal(legacy.Version)
	})

	t.Run("migration converts budgets and statuses", func(t *testing.T) {
		report, err := uc.Budget.MigrateLegacyData(ctx, false)
		gt.NoError(t, err).Required()
		gt.Value(t, report.BudgetsMigrated).Equal(1)
		gt.Value(t, report.StatusesNormalized).Equal(2)

		stored, err := repo.Project().Get(ctx, legacy.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Legacy).Nil()
		gt.Value(t, stored.Status).Equal(types.ProjectStatusInProgress)
		gt.Value(t, stored.Budget).Equal(model.Budget{
			Total: 2000, Allocated: 2000, Spent: 2500, Variance: 500, Currency: "USD",
		})

		other, err := repo.Project().Get(ctx, statusOnly.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, other.Status).Equal(types.ProjectStatusPlanning)

		untouched, err := repo.Project().Get(ctx, current.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, untouched.Version).Equal(current.Version)

		remaining, err := uc.Budget.ListLegacyProjects(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, remaining).Length(0)
	})

	t.Run("rerun is a no-op", func(t *testing.T) {
		before, err := repo.Project().Get(ctx, legacy.ID)
		gt.NoError(t, err).Required()

		report, err := uc.Budget.MigrateLegacyData(ctx, false)
		gt.NoError(t, err).Required()
		gt.Value(t, report.Scanned).Equal(3)
		gt.Value(t, report.BudgetsMigrated).Equal(0)
		gt.Value(t, report.StatusesNormalized).Equal(0)

		after, err := repo.Project().Get(ctx, legacy.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, after.Version).Equal(before.Version)
	})
}
