package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/repository/memory"
	"github.com/secmon-lab/pmotracker/pkg/usecase"
)

func newTestUseCases(t *testing.T) (*usecase.UseCases, *memory.Memory) {
	t.Helper()
	repo := memory.New()
	return usecase.New(repo), repo
}

var errInjected = errors.New("injected failure")

// faultRepository wraps the memory backend. ghosts are listed but never
// stored, like projects deleted right after a List. Child listings of the
// failRisksOf and failIssuesOf projects return errInjected.
type faultRepository struct {
	*memory.Memory
	ghosts       []*model.Project
	failRisksOf  types.ProjectID
	failIssuesOf types.ProjectID
}

func newFaultUseCases(t *testing.T) (*usecase.UseCases, *faultRepository) {
	t.Helper()
	repo := &faultRepository{Memory: memory.New()}
	return usecase.New(repo), repo
}

func (r *faultRepository) Project() interfaces.ProjectRepository {
	return &faultProjectRepository{ProjectRepository: r.Memory.Project(), ghosts: r.ghosts}
}

func (r *faultRepository) Risk() interfaces.RiskRepository {
	return &faultRiskRepository{RiskRepository: r.Memory.Risk(), failFor: r.failRisksOf}
}

func (r *faultRepository) Issue() interfaces.IssueRepository {
	return &faultIssueRepository{IssueRepository: r.Memory.Issue(), failFor: r.failIssuesOf}
}

type faultProjectRepository struct {
	interfaces.ProjectRepository
	ghosts []*model.Project
}

func (r *faultProjectRepository) List(ctx context.Context) ([]*model.Project, error) {
	projects, err := r.ProjectRepository.List(ctx)
	if err != nil {
		return nil, err
	}
	return append(projects, r.ghosts...), nil
}

type faultRiskRepository struct {
	interfaces.RiskRepository
	failFor types.ProjectID
}

func (r *faultRiskRepository) ListByProject(ctx context.Context, projectID types.ProjectID) ([]*model.Risk, error) {
	if projectID == r.failFor {
		return nil, errInjected
	}
	return r.RiskRepository.ListByProject(ctx, projectID)
}

type faultIssueRepository struct {
	interfaces.IssueRepository
	failFor types.ProjectID
}

func (r *faultIssueRepository) ListByProject(ctx context.Context, projectID types.ProjectID) ([]*model.Issue, error) {
	if projectID == r.failFor {
		return nil, errInjected
	}
	return r.IssueRepository.ListByProject(ctx, projectID)
}

// driftRiskSummary overwrites the stored risk counters behind the use cases
func driftRiskSummary(t *testing.T, ctx context.Context, repo interfaces.Repository, id types.ProjectID) {
	t.Helper()
	stored, err := repo.Project().Get(ctx, id)
	gt.NoError(t, err).Required()
	stored.RiskSummary = model.RiskSummary{Total: 99}
	_, err = repo.Project().Update(ctx, stored)
	gt.NoError(t, err).Required()
}

func pmoContext() context.Context {
	return auth.ContextWithPrincipal(context.Background(),
		auth.NewPrincipal("pmo-1", "pmo@example.com", "Olivia Office", types.RolePMO))
}

func pmContext(id types.UserID) context.Context {
	return auth.ContextWithPrincipal(context.Background(),
		auth.NewPrincipal(id, string(id)+"@example.com", "Pat Manager", types.RolePM))
}

func memberContext(extra ...types.Capability) context.Context {
	return auth.ContextWithPrincipal(context.Background(),
		auth.NewPrincipal("member-1", "member@example.com", "Tess Member", types.RoleTeamMember, extra...))
}

func createTestProject(t *testing.T, ctx context.Context, uc *usecase.UseCases, name string) *model.Project {
	t.Helper()
	project, err := uc.Project.CreateProject(ctx, usecase.ProjectInput{Name: name})
	gt.NoError(t, err).Required()
	return project
}

func createTestRisk(t *testing.T, ctx context.Context, uc *usecase.UseCases, projectID types.ProjectID, probability, impact types.Rating) *model.Risk {
	t.Helper()
	risk, err := uc.Risk.CreateRisk(ctx, usecase.RiskInput{
		ProjectID:   projectID,
		Title:       "risk " + string(probability) + "/" + string(impact),
		Category:    types.RiskCategoryTechnical,
		Probability: probability,
		Impact:      impact,
	})
	gt.NoError(t, err).Required()
	return risk
}

func getProject(t *testing.T, ctx context.Context, uc *usecase.UseCases, id types.ProjectID) *model.Project {
	t.Helper()
	project, err := uc.Project.GetProject(ctx, id)
	gt.NoError(t, err).Required()
	return project
}
