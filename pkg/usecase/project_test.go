package usecase_test

import (
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/usecase"
)

func TestProjectUseCase_CreateProject(t *testing.T) {
	t.Run("derives case ID, budget variance and milestone counts", func(t *testing.T) {
		uc, _ := newTestUseCases(t)
		uc.Project.SetNow(func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) })
		ctx := pmoContext()

		project, err := uc.Project.CreateProject(ctx, usecase.ProjectInput{
			Name: "  Payments platform  ",
			Milestones: []model.Milestone{
				{Name: "Design", Status: types.MilestoneStatusCompleted},
				{Name: "Build"},
				{Name: "Launch", Status: types.MilestoneStatusDelayed},
			},
			Budget: &model.Budget{Total: 1000, Allocated: 800, Spent: 950},
		})
		gt.NoError(t, err).Required()

		gt.Value(t, project.Name).Equal("Payments platform")
		gt.Value(t, project.CaseID).Equal("PRJ-2026-001")
		gt.Value(t, project.Status).Equal(types.ProjectStatusPlanning)
		gt.Value(t, project.Health).Equal(types.ProjectHealthOnTrack)
		gt.Value(t, project.Budget.Variance).Equal(150.0)
		gt.Value(t, project.Budget.Currency).Equal("USD")
		gt.Value(t, project.TotalMilestones).Equal(3)
		gt.Value(t, project.CompletedMilestones).Equal(1)
		gt.Value(t, project.Milestones[1].Status).Equal(types.MilestoneStatusPending)
		gt.Value(t, project.CreatedBy).Equal(types.UserID("pmo-1"))
		gt.Value(t, project.Version).Equal(int64(1))

		next, err := uc.Project.CreateProject(ctx, usecase.ProjectInput{Name: "Second"})
		gt.NoError(t, err).Required()
		gt.Value(t, next.CaseID).Equal("PRJ-2026-002")
	})

	t.Run("case ID stays unique after a delete", func(t *testing.T) {
		uc, _ := newTestUseCases(t)
		uc.Project.SetNow(func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) })
		ctx := pmoContext()

		first := createTestProject(t, ctx, uc, "First")
		second := createTestProject(t, ctx, uc, "Second")
		gt.NoError(t, uc.Project.DeleteProject(ctx, first.ID)).Required()

		third := createTestProject(t, ctx, uc, "Third")
		gt.Value(t, third.CaseID).NotEqual(second.CaseID)
		gt.Value(t, third.CaseID).Equal("PRJ-2026-003")
	})

	t.Run("case IDs restart every year", func(t *testing.T) {
		uc, _ := newTestUseCases(t)
		ctx := pmoContext()

		uc.Project.SetNow(func() time.Time { return time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC) })
		createTestProject(t, ctx, uc, "Old")
		createTestProject(t, ctx, uc, "Older")

		uc.Project.SetNow(func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) })
		fresh := createTestProject(t, ctx, uc, "Fresh")
		gt.Value(t, fresh.CaseID).Equal("PRJ-2026-001")
	})

	t.Run("concurrent creates get distinct case IDs", func(t *testing.T) {
		uc, _ := newTestUseCases(t)
		ctx := pmoContext()

		writers := usecase.MaxWriteAttempts / 2
		var wg sync.WaitGroup
		errs := make([]error, writers)
		projects := make([]*model.Project, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				projects[i], errs[i] = uc.Project.CreateProject(ctx, usecase.ProjectInput{Name: "parallel"})
			}(i)
		}
		wg.Wait()

		codes := make(map[string]bool)
		for i, err := range errs {
			gt.NoError(t, err).Required()
			codes[projects[i].CaseID] = true
		}
		gt.Value(t, len(codes)).Equal(writers)
	})

	t.Run("zero total leaves variance as given", func(t *testing.T) {
		uc, _ := newTestUseCases(t)

		project, err := uc.Project.CreateProject(pmoContext(), usecase.ProjectInput{
			Name:   "Unfunded",
			Budget: &model.Budget{Allocated: 10, Spent: 50, Variance: 7},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, project.Budget.Variance).Equal(7.0)
	})

	t.Run("PM becomes the project manager by default", func(t *testing.T) {
		uc, _ := newTestUseCases(t)

		project, err := uc.Project.CreateProject(pmContext("pm-7"), usecase.ProjectInput{Name: "Own"})
		gt.NoError(t, err).Required()
		gt.Value(t, project.PMID).Equal(types.UserID("pm-7"))
	})

	t.Run("validation", func(t *testing.T) {
		uc, _ := newTestUseCases(t)
		ctx := pmoContext()

		_, err := uc.Project.CreateProject(ctx, usecase.ProjectInput{Name: " "})
		gt.Error(t, err).Is(usecase.ErrValidation)

		_, err = uc.Project.CreateProject(ctx, usecase.ProjectInput{Name: "x", Progress: 101})
		gt.Error(t, err).Is(usecase.ErrValidation)

		_, err = uc.Project.CreateProject(ctx, usecase.ProjectInput{Name: "x", Status: "Archived"})
		gt.Error(t, err).Is(types.ErrInvalidEnum)

		_, err = uc.Project.CreateProject(ctx, usecase.ProjectInput{
			Name:       "x",
			Milestones: []model.Milestone{{Name: "m", Status: "Done"}},
		})
		gt.Error(t, err).Is(types.ErrInvalidEnum)
	})

	t.Run("team member cannot create", func(t *testing.T) {
		uc, _ := newTestUseCases(t)

		_, err := uc.Project.CreateProject(memberContext(), usecase.ProjectInput{Name: "x"})
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)
	})

	t.Run("budget requires manage_budget", func(t *testing.T) {
		uc, _ := newTestUseCases(t)
		ctx := memberContext(types.CapCreateProjects)

		_, err := uc.Project.CreateProject(ctx, usecase.ProjectInput{
			Name:   "x",
			Budget: &model.Budget{Total: 1},
		})
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)

		_, err = uc.Project.CreateProject(ctx, usecase.ProjectInput{Name: "x"})
		gt.NoError(t, err)
	})
}

func TestProjectUseCase_UpdateProject(t *testing.T) {
	t.Run("milestone counters follow the embedded list", func(t *testing.T) {
		uc, _ := newTestUseCases(t)
		ctx := pmoContext()
		project := createTestProject(t, ctx, uc, "Roadmap")
		gt.Value(t, project.TotalMilestones).Equal(0)

		updated, err := uc.Project.UpdateProject(ctx, project.ID, usecase.ProjectInput{
			Name: "Roadmap",
			Milestones: []model.Milestone{
				{Name: "Alpha", Status: types.MilestoneStatusCompleted},
				{Name: "Beta", Status: types.MilestoneStatusCompleted},
				{Name: "GA", Status: types.MilestoneStatusInProgress},
			},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.TotalMilestones).Equal(3)
		gt.Value(t, updated.CompletedMilestones).Equal(2)
		gt.Value(t, updated.Version).Equal(int64(2))
	})

	t.Run("risk summary survives a project save", func(t *testing.T) {
		uc, _ := newTestUseCases(t)
		ctx := pmoContext()
		project := createTestProject(t, ctx, uc, "Keep counts")
		createTestRisk(t, ctx, uc, project.ID, types.RatingHigh, types.RatingHigh)

		updated, err := uc.Project.UpdateProject(ctx, project.ID, usecase.ProjectInput{
			Name:   "Keep counts",
			Health: types.ProjectHealthAtRisk,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.RiskSummary).Equal(model.RiskSummary{Total: 1, High: 1})
		gt.Value(t, updated.Health).Equal(types.ProjectHealthAtRisk)
	})

	t.Run("budget is reconciled on update and kept when omitted", func(t *testing.T) {
		uc, _ := newTestUseCases(t)
		ctx := pmoContext()
		project := createTestProject(t, ctx, uc, "Spend")

		updated, err := uc.Project.UpdateProject(ctx, project.ID, usecase.ProjectInput{
			Name:   "Spend",
			Budget: &model.Budget{Total: 500, Allocated: 400, Spent: 100, Currency: "EUR"},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Budget.Variance).Equal(-300.0)

		kept, err := uc.Project.UpdateProject(ctx, project.ID, usecase.ProjectInput{Name: "Spend"})
		gt.NoError(t, err).Required()
		gt.Value(t, kept.Budget).Equal(updated.Budget)
	})

	t.Run("budget change without manage_budget is denied", func(t *testing.T) {
		uc, _ := newTestUseCases(t)
		project, err := uc.Project.CreateProject(pmoContext(), usecase.ProjectInput{
			Name:   "Guarded",
			Budget: &model.Budget{Total: 100, Allocated: 100},
		})
		gt.NoError(t, err).Required()

		ctx := memberContext(types.CapCreateProjects, types.CapViewAllProjects)
		_, err = uc.Project.UpdateProject(ctx, project.ID, usecase.ProjectInput{
			Name:   "Guarded",
			Budget: &model.Budget{Total: 999, Allocated: 100},
		})
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)

		// Resubmitting the unchanged budget is allowed
		_, err = uc.Project.UpdateProject(ctx, project.ID, usecase.ProjectInput{
			Name:   "Guarded v2",
			Budget: &model.Budget{Total: 100, Allocated: 100, Currency: "USD"},
		})
		gt.NoError(t, err)
	})

	t.Run("legacy budget is migrated on save", func(t *testing.T) {
		uc, repo := newTestUseCases(t)
		ctx := pmoContext()

		legacy, err := repo.Project().Create(ctx, &model.Project{
			ID:     types.NewProjectID(),
			Name:   "Old",
			Status: "In Progress",
			Legacy: &model.LegacyBudget{Budget: 1000, Spent: 300},
		})
		gt.NoError(t, err).Required()

		updated, err := uc.Project.UpdateProject(ctx, legacy.ID, usecase.ProjectInput{
			Name:   "Old",
			Status: "In Progress",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Legacy).Nil()
		gt.Value(t, updated.Status).Equal(types.ProjectStatusInProgress)
		gt.Value(t, updated.Budget).Equal(model.Budget{
			Total: 1000, Allocated: 1000, Spent: 300, Variance: -700, Currency: "USD",
		})
	})

	t.Run("unknown project", func(t *testing.T) {
		uc, _ := newTestUseCases(t)

		_, err := uc.Project.UpdateProject(pmoContext(), types.NewProjectID(), usecase.ProjectInput{Name: "x"})
		gt.Error(t, err).Is(usecase.ErrProjectNotFound)
	})
}

func TestProjectUseCase_Scoping(t *testing.T) {
	uc, _ := newTestUseCases(t)
	pmo := pmoContext()

	_, err := uc.Project.CreateProject(pmo, usecase.ProjectInput{Name: "A", PMID: "pm-1"})
	gt.NoError(t, err).Required()
	b, err := uc.Project.CreateProject(pmo, usecase.ProjectInput{Name: "B", PMID: "pm-2"})
	gt.NoError(t, err).Required()

	all, err := uc.Project.ListProjects(pmo)
	gt.NoError(t, err).Required()
	gt.Array(t, all).Length(2)

	pm := pmContext("pm-1")
	mine, err := uc.Project.ListProjects(pm)
	gt.NoError(t, err).Required()
	gt.Array(t, mine).Length(1)
	gt.Value(t, mine[0].Name).Equal("A")

	_, err = uc.Project.GetProject(pm, b.ID)
	gt.Error(t, err).Is(usecase.ErrPermissionDenied)

	_, err = uc.Project.UpdateProject(pm, b.ID, usecase.ProjectInput{Name: "hijack"})
	gt.Error(t, err).Is(usecase.ErrPermissionDenied)
}

func TestProjectUseCase_DeleteProject(t *testing.T) {
	uc, repo := newTestUseCases(t)
	ctx := pmoContext()
	project := createTestProject(t, ctx, uc, "Doomed")
	createTestRisk(t, ctx, uc, project.ID, types.RatingLow, types.RatingLow)
	_, err := uc.Issue.CreateIssue(ctx, usecase.IssueInput{
		ProjectID: project.ID,
		Title:     "issue",
		Severity:  types.IssueSeverityLow,
		Priority:  types.IssuePriorityLow,
	})
	gt.NoError(t, err).Required()

	gt.Error(t, uc.Project.DeleteProject(pmContext("pm-1"), project.ID)).Is(usecase.ErrPermissionDenied)

	gt.NoError(t, uc.Project.DeleteProject(ctx, project.ID)).Required()

	_, err = uc.Project.GetProject(ctx, project.ID)
	gt.Error(t, err).Is(usecase.ErrProjectNotFound)

	risks, err := repo.Risk().ListByProject(ctx, project.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, risks).Length(0)

	issues, err := repo.Issue().ListByProject(ctx, project.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, issues).Length(0)

	gt.Error(t, uc.Project.DeleteProject(ctx, project.ID)).Is(usecase.ErrProjectNotFound)
}

func TestProjectUseCase_Unauthenticated(t *testing.T) {
	uc, _ := newTestUseCases(t)

	_, err := uc.Project.ListProjects(t.Context())
	gt.Error(t, err).Is(usecase.ErrPermissionDenied)
}
