package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/usecase"
)

func TestSummaryUseCase_RecomputeProjectSummaries(t *testing.T) {
	t.Run("repairs drifted counters", func(t *testing.T) {
		uc, repo := newTestUseCases(t)
		ctx := pmoContext()
		project := createTestProject(t, ctx, uc, "Drift")
		createTestRisk(t, ctx, uc, project.ID, types.RatingVeryHigh, types.RatingVeryHigh)
		createTestRisk(t, ctx, uc, project.ID, types.RatingLow, types.RatingLow)

		stored, err := repo.Project().Get(ctx, project.ID)
		gt.NoError(t, err).Required()
		stored.RiskSummary = model.RiskSummary{Total: 42, Critical: 40}
		stored.IssueSummary = model.IssueSummary{Total: 3, Open: 3}
		_, err = repo.Project().Update(ctx, stored)
		gt.NoError(t, err).Required()

		summaries, err := uc.Summary.RecomputeProjectSummaries(ctx, project.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, summaries.RiskSummary).Equal(model.RiskSummary{Total: 2, Critical: 1, Low: 1})
		gt.Value(t, summaries.IssueSummary).Equal(model.IssueSummary{})

		got := getProject(t, ctx, uc, project.ID)
		gt.Value(t, got.Summaries()).Equal(summaries)
	})

	t.Run("accurate counters are not rewritten", func(t *testing.T) {
		uc, _ := newTestUseCases(t)
		ctx := pmoContext()
		project := createTestProject(t, ctx, uc, "Stable")
		createTestRisk(t, ctx, uc, project.ID, types.RatingHigh, types.RatingMedium)
		before := getProject(t, ctx, uc, project.ID)

		_, err := uc.Summary.RecomputeProjectSummaries(ctx, project.ID)
		gt.NoError(t, err).Required()

		after := getProject(t, ctx, uc, project.ID)
		gt.Value(t, after.Version).Equal(before.Version)
	})

	t.Run("unknown project", func(t *testing.T) {
		uc, _ := newTestUseCases(t)

		_, err := uc.Summary.RecomputeProjectSummaries(pmoContext(), types.NewProjectID())
		gt.Error(t, err).Is(usecase.ErrProjectNotFound)
	})
}

func TestSummaryUseCase_RecomputeAll(t *testing.T) {
	uc, repo := newTestUseCases(t)
	ctx := pmoContext()

	var ids []types.ProjectID
	for _, name := range []string{"one", "two", "three"} {
		project := createTestProject(t, ctx, uc, name)
		createTestRisk(t, ctx, uc, project.ID, types.RatingMedium, types.RatingMedium)
		ids = append(ids, project.ID)

		stored, err := repo.Project().Get(ctx, project.ID)
		gt.NoError(t, err).Required()
		stored.RiskSummary = model.RiskSummary{}
		_, err = repo.Project().Update(ctx, stored)
		gt.NoError(t, err).Required()
	}

	n, err := uc.Summary.RecomputeAll(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, n).Equal(3)

	for _, id := range ids {
		got := getProject(t, ctx, uc, id)
		gt.Value(t, got.RiskSummary).Equal(model.RiskSummary{Total: 1, Medium: 1})
	}
}

func TestSummaryUseCase_RecomputeAllSkipsDeletedProjects(t *testing.T) {
	uc, repo := newFaultUseCases(t)
	ctx := pmoContext()
	project := createTestProject(t, ctx, uc, "Survivor")
	createTestRisk(t, ctx, uc, project.ID, types.RatingLow, types.RatingLow)
	driftRiskSummary(t, ctx, repo, project.ID)

	repo.ghosts = []*model.Project{{ID: types.NewProjectID(), Name: "deleted meanwhile"}}

	n, err := uc.Summary.RecomputeAll(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, n).Equal(1)
	gt.Value(t, getProject(t, ctx, uc, project.ID).RiskSummary).Equal(model.RiskSummary{Total: 1, Low: 1})
}

func TestSummaryUseCase_RecomputeAllContinuesPastFailures(t *testing.T) {
	uc, repo := newFaultUseCases(t)
	ctx := pmoContext()

	var healthy []types.ProjectID
	broken := createTestProject(t, ctx, uc, "Broken")
	for _, name := range []string{"Healthy A", "Healthy B"} {
		project := createTestProject(t, ctx, uc, name)
		createTestRisk(t, ctx, uc, project.ID, types.RatingHigh, types.RatingHigh)
		driftRiskSummary(t, ctx, repo, project.ID)
		healthy = append(healthy, project.ID)
	}
	repo.failRisksOf = broken.ID

	n, err := uc.Summary.RecomputeAll(ctx)
	gt.Error(t, err).Is(errInjected)
	gt.Value(t, n).Equal(2)

	for _, id := range healthy {
		gt.Value(t, getProject(t, ctx, uc, id).RiskSummary).Equal(model.RiskSummary{Total: 1, High: 1})
	}
}
