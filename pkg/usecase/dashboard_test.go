package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/usecase"
)

func TestDashboardUseCase_Stats(t *testing.T) {
	uc, _ := newTestUseCases(t)
	pmo := pmoContext()

	mine, err := uc.Project.CreateProject(pmo, usecase.ProjectInput{
		Name:   "Mine",
		PMID:   "pm-1",
		Status: types.ProjectStatusInProgress,
		Health: types.ProjectHealthAtRisk,
	})
	gt.NoError(t, err).Required()
	other, err := uc.Project.CreateProject(pmo, usecase.ProjectInput{
		Name:   "Other",
		PMID:   "pm-2",
		Status: types.ProjectStatusCompleted,
	})
	gt.NoError(t, err).Required()
	_, err = uc.Project.CreateProject(pmo, usecase.ProjectInput{Name: "Planned"})
	gt.NoError(t, err).Required()

	createTestRisk(t, pmo, uc, mine.ID, types.RatingVeryHigh, types.RatingHigh)
	createTestRisk(t, pmo, uc, mine.ID, types.RatingLow, types.RatingLow)
	createTestRisk(t, pmo, uc, other.ID, types.RatingVeryHigh, types.RatingVeryHigh)

	_, err = uc.Issue.CreateIssue(pmo, newIssueInput(mine.ID, "open", ""))
	gt.NoError(t, err).Required()
	_, err = uc.Issue.CreateIssue(pmo, newIssueInput(other.ID, "open", ""))
	gt.NoError(t, err).Required()
	_, err = uc.Issue.CreateIssue(pmo, newIssueInput(other.ID, "done", types.IssueStatusResolved))
	gt.NoError(t, err).Required()

	for _, in := range []usecase.TaskInput{
		{ProjectID: mine.ID, Title: "plan", AssignedTo: "pm-1"},
		{ProjectID: other.ID, Title: "review", AssignedTo: "pm-1", Status: types.TaskStatusInProgress},
		{ProjectID: other.ID, Title: "ship", AssignedTo: "pm-1", Status: types.TaskStatusCompleted},
		{ProjectID: other.ID, Title: "report", AssignedTo: "pm-2"},
	} {
		_, err := uc.Task.CreateTask(pmo, in)
		gt.NoError(t, err).Required()
	}

	t.Run("PMO sees everything", func(t *testing.T) {
		stats, err := uc.Dashboard.Stats(pmo)
		gt.NoError(t, err).Required()
		gt.Value(t, *stats).Equal(usecase.DashboardStats{
			TotalProjects:      3,
			CompletedProjects:  1,
			PlanningProjects:   1,
			InProgressProjects: 1,
			AtRiskProjects:     1,
			TotalRisks:         3,
			CriticalRisks:      2,
			OpenIssues:         2,
			TotalTasks:         4,
		})
	})

	t.Run("PM sees only managed projects", func(t *testing.T) {
		stats, err := uc.Dashboard.Stats(pmContext("pm-1"))
		gt.NoError(t, err).Required()
		gt.Value(t, *stats).Equal(usecase.DashboardStats{
			TotalProjects:      1,
			InProgressProjects: 1,
			AtRiskProjects:     1,
			TotalRisks:         2,
			CriticalRisks:      1,
			OpenIssues:         1,
			TotalTasks:         1,
			MyTasks:            2,
		})
	})

	t.Run("requires a principal", func(t *testing.T) {
		_, err := uc.Dashboard.Stats(t.Context())
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)
	})
}
