package usecase

import (
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
)

type UseCases struct {
	repo      interfaces.Repository
	Project   *ProjectUseCase
	Risk      *RiskUseCase
	Issue     *IssueUseCase
	Task      *TaskUseCase
	Summary   *SummaryUseCase
	Budget    *BudgetUseCase
	Dashboard *DashboardUseCase
	Audit     *AuditUseCase
}

func New(repo interfaces.Repository) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	uc.Audit = NewAuditUseCase(repo)
	uc.Summary = NewSummaryUseCase(repo)
	uc.Project = NewProjectUseCase(repo, uc.Audit)
	uc.Risk = NewRiskUseCase(repo, uc.Summary, uc.Audit)
	uc.Issue = NewIssueUseCase(repo, uc.Summary, uc.Audit)
	uc.Task = NewTaskUseCase(repo, uc.Audit)
	uc.Budget = NewBudgetUseCase(repo)
	uc.Dashboard = NewDashboardUseCase(repo)

	return uc
}

// Repository returns the backing repository
func (uc *UseCases) Repository() interfaces.Repository {
	return uc.repo
}
