package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"golang.org/x/sync/errgroup"
)

// DashboardStats aggregates the projects visible to a principal
type DashboardStats struct {
	TotalProjects      int
	CompletedProjects  int
	PlanningProjects   int
	InProgressProjects int
	OnHoldProjects     int
	CancelledProjects  int
	AtRiskProjects     int
	TotalRisks         int
	CriticalRisks      int
	OpenIssues         int
	TotalTasks         int
	MyTasks            int // assigned to the principal and still active, in any project
}

type DashboardUseCase struct {
	repo interfaces.Repository
}

func NewDashboardUseCase(repo interfaces.Repository) *DashboardUseCase {
	return &DashboardUseCase{repo: repo}
}

// Stats computes the dashboard counters. Projects and their children are
// loaded concurrently.
func (uc *DashboardUseCase) Stats(ctx context.Context) (*DashboardStats, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	var (
		projects []*model.Project
		risks    []*model.Risk
		issues   []*model.Issue
		tasks    []*model.Task
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		if projects, err = uc.repo.Project().List(egCtx); err != nil {
			return goerr.Wrap(err, "failed to list projects")
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if risks, err = uc.repo.Risk().List(egCtx); err != nil {
			return goerr.Wrap(err, "failed to list risks")
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if issues, err = uc.repo.Issue().List(egCtx); err != nil {
			return goerr.Wrap(err, "failed to list issues")
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if tasks, err = uc.repo.Task().List(egCtx); err != nil {
			return goerr.Wrap(err, "failed to list tasks")
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	visible := make(map[types.ProjectID]struct{})
	stats := &DashboardStats{}
	for _, project := range visibleProjects(p, projects) {
		visible[project.ID] = struct{}{}
		stats.TotalProjects++

		switch project.Status.Normalize() {
		case types.ProjectStatusCompleted:
			stats.CompletedProjects++
		case types.ProjectStatusPlanning:
			stats.PlanningProjects++
		case types.ProjectStatusInProgress:
			stats.InProgressProjects++
		case types.ProjectStatusOnHold:
			stats.OnHoldProjects++
		case types.ProjectStatusCancelled:
			stats.CancelledProjects++
		}
		if project.Health == types.ProjectHealthAtRisk {
			stats.AtRiskProjects++
		}
	}

	for _, r := range risks {
		if _, ok := visible[r.ProjectID]; !ok {
			continue
		}
		stats.TotalRisks++
		if r.Level == types.RiskLevelCritical {
			stats.CriticalRisks++
		}
	}

	for _, i := range issues {
		if _, ok := visible[i.ProjectID]; !ok {
			continue
		}
		if i.Status.Normalize() == types.IssueStatusOpen {
			stats.OpenIssues++
		}
	}

	for _, t := range tasks {
		if t.AssignedTo == p.UserID && t.Status.IsActive() {
			stats.MyTasks++
		}
		if _, ok := visible[t.ProjectID]; ok {
			stats.TotalTasks++
		}
	}

	return stats, nil
}
