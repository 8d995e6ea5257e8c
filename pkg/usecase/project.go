package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
)

// ProjectInput carries the editable fields of a project. Update replaces all
// of them; a nil Budget keeps the stored budget.
type ProjectInput struct {
	Name         string
	Description  string
	PMID         types.UserID
	Status       types.ProjectStatus
	Health       types.ProjectHealth
	Priority     string
	Type         string
	Branch       string
	Progress     int
	PlannedStart *time.Time
	PlannedEnd   *time.Time
	Milestones   []model.Milestone
	Budget       *model.Budget
}

type ProjectUseCase struct {
	repo  interfaces.Repository
	audit *AuditUseCase
	now   func() time.Time
}

func NewProjectUseCase(repo interfaces.Repository, audit *AuditUseCase) *ProjectUseCase {
	return &ProjectUseCase{
		repo:  repo,
		audit: audit,
		now:   time.Now,
	}
}

func (in *ProjectInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return goerr.Wrap(ErrValidation, "project name is required", goerr.V(FieldKey, "name"))
	}
	if in.Progress < 0 || in.Progress > 100 {
		return goerr.Wrap(ErrValidation, "progress must be between 0 and 100",
			goerr.V(FieldKey, "progress"),
			goerr.V("progress", in.Progress))
	}

	in.Status = in.Status.Normalize()
	if _, err := types.ParseProjectStatus(string(in.Status)); err != nil {
		return err
	}
	in.Health = in.Health.Normalize()
	if _, err := types.ParseProjectHealth(string(in.Health)); err != nil {
		return err
	}

	for i := range in.Milestones {
		m := &in.Milestones[i]
		if strings.TrimSpace(m.Name) == "" {
			return goerr.Wrap(ErrValidation, "milestone name is required",
				goerr.V(FieldKey, "milestones"),
				goerr.V("index", i))
		}
		m.Status = m.Status.Normalize()
		if _, err := types.ParseMilestoneStatus(string(m.Status)); err != nil {
			return err
		}
	}
	return nil
}

// CreateProject stores a new project with a fresh case ID, a reconciled
// budget and milestone counters derived from the embedded milestones.
func (uc *ProjectUseCase) CreateProject(ctx context.Context, in ProjectInput) (*model.Project, error) {
	p, err := require(ctx, types.CapCreateProjects)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Budget != nil && *in.Budget != (model.Budget{}) && !p.Can(types.CapManageBudget) {
		return nil, goerr.Wrap(ErrPermissionDenied, "setting a budget requires manage_budget",
			goerr.V(CapabilityKey, types.CapManageBudget))
	}

	pmID := in.PMID
	if pmID == "" && p.Role == types.RolePM {
		pmID = p.UserID
	}

	project := &model.Project{
		ID:             types.NewProjectID(),
		CreatedBy:      p.UserID,
		LastModifiedBy: p.UserID,
	}
	applyProjectInput(project, in)
	project.PMID = pmID
	if in.Budget != nil {
		project.Budget = *in.Budget
	}
	project.Budget = model.ReconcileBudget(project.Budget)
	project.ApplySummaries(model.ComputeProjectSummaries(project, nil, nil))

	// The repository rejects a taken case ID, so a create that raced with
	// another one picks the next free number and tries again.
	year := uc.now().Year()
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		seq, err := uc.nextProjectSeq(ctx, year)
		if err != nil {
			return nil, err
		}
		project.CaseID = model.ProjectCode(year, seq)

		created, err := uc.repo.Project().Create(ctx, project)
		if err == nil {
			uc.audit.Record(ctx, types.AuditActionCreate, types.EntityTypeProject, created.ID.String(), projectSnapshot(created))
			return created, nil
		}
		if !errors.Is(err, interfaces.ErrConflict) {
			return nil, goerr.Wrap(err, "failed to create project")
		}

		logging.From(ctx).Debug("case ID already taken, retrying",
			"case_id", project.CaseID,
			"attempt", attempt)
	}

	return nil, goerr.Wrap(ErrConflict, "no free case ID found",
		goerr.V("year", year),
		goerr.V("attempts", maxWriteAttempts))
}

// nextProjectSeq returns one past the highest case ID sequence of the year
func (uc *ProjectUseCase) nextProjectSeq(ctx context.Context, year int) (int64, error) {
	projects, err := uc.repo.Project().List(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list projects")
	}

	codes := make([]string, 0, len(projects))
	for _, p := range projects {
		codes = append(codes, p.CaseID)
	}
	return model.MaxCodeSeq(model.ProjectCodePrefix(year), codes...) + 1, nil
}

// GetProject returns a project visible to the principal
func (uc *ProjectUseCase) GetProject(ctx context.Context, id types.ProjectID) (*model.Project, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	project, err := getProject(ctx, uc.repo, id)
	if err != nil {
		return nil, err
	}
	if err := checkProjectAccess(p, project); err != nil {
		return nil, err
	}
	return project, nil
}

// ListProjects returns the projects visible to the principal, oldest first
func (uc *ProjectUseCase) ListProjects(ctx context.Context) ([]*model.Project, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	projects, err := uc.repo.Project().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list projects")
	}
	return visibleProjects(p, projects), nil
}

// UpdateProject replaces the editable fields of a project. Changing the
// budget additionally requires manage_budget. Every counter is recomputed
// before the conditional write.
func (uc *ProjectUseCase) UpdateProject(ctx context.Context, id types.ProjectID, in ProjectInput) (*model.Project, error) {
	p, err := require(ctx, types.CapCreateProjects)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var before map[string]any
	updated, err := mutateProject(ctx, uc.repo, id, func(ctx context.Context, project *model.Project) (bool, error) {
		if err := checkProjectAccess(p, project); err != nil {
			return false, err
		}
		before = projectSnapshot(project)

		// Legacy records are migrated first so that the budget comparison
		// sees the structured form.
		model.MigrateLegacyBudget(project)

		if in.Budget != nil {
			next := model.ReconcileBudget(*in.Budget)
			if budgetChanged(project.Budget, next) && !p.Can(types.CapManageBudget) {
				return false, goerr.Wrap(ErrPermissionDenied, "changing the budget requires manage_budget",
					goerr.V(ProjectIDKey, id),
					goerr.V(CapabilityKey, types.CapManageBudget))
			}
			project.Budget = next
		}

		applyProjectInput(project, in)
		project.LastModifiedBy = p.UserID

		risks, err := uc.repo.Risk().ListByProject(ctx, project.ID)
		if err != nil {
			return false, goerr.Wrap(err, "failed to list risks", goerr.V(ProjectIDKey, id))
		}
		issues, err := uc.repo.Issue().ListByProject(ctx, project.ID)
		if err != nil {
			return false, goerr.Wrap(err, "failed to list issues", goerr.V(ProjectIDKey, id))
		}
		project.ApplySummaries(model.ComputeProjectSummaries(project, risks, issues))
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Record(ctx, types.AuditActionUpdate, types.EntityTypeProject, id.String(),
		changeSet(before, projectSnapshot(updated)))
	return updated, nil
}

// DeleteProject removes a project together with its risks, issues and tasks
func (uc *ProjectUseCase) DeleteProject(ctx context.Context, id types.ProjectID) error {
	if _, err := require(ctx, types.CapDeleteProjects); err != nil {
		return err
	}

	project, err := getProject(ctx, uc.repo, id)
	if err != nil {
		return err
	}

	risks, err := uc.repo.Risk().ListByProject(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to list risks", goerr.V(ProjectIDKey, id))
	}
	for _, r := range risks {
		if err := uc.repo.Risk().Delete(ctx, r.ID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(err, "failed to delete risk", goerr.V(RiskIDKey, r.ID))
		}
	}

	issues, err := uc.repo.Issue().ListByProject(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to list issues", goerr.V(ProjectIDKey, id))
	}
	for _, i := range issues {
		if err := uc.repo.Issue().Delete(ctx, i.ID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(err, "failed to delete issue", goerr.V(IssueIDKey, i.ID))
		}
	}

	tasks, err := uc.repo.Task().ListByProject(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to list tasks", goerr.V(ProjectIDKey, id))
	}
	for _, t := range tasks {
		if err := uc.repo.Task().Delete(ctx, t.ID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(err, "failed to delete task", goerr.V(TaskIDKey, t.ID))
		}
	}

	if err := uc.repo.Project().Delete(ctx, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrProjectNotFound, "project not found", goerr.V(ProjectIDKey, id))
		}
		return goerr.Wrap(err, "failed to delete project", goerr.V(ProjectIDKey, id))
	}

	uc.audit.Record(ctx, types.AuditActionDelete, types.EntityTypeProject, id.String(), projectSnapshot(project))
	return nil
}

// CountProjects returns the number of stored projects regardless of visibility
func (uc *ProjectUseCase) CountProjects(ctx context.Context) (int64, error) {
	count, err := uc.repo.Project().Count(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count projects")
	}
	return count, nil
}

func applyProjectInput(project *model.Project, in ProjectInput) {
	project.Name = strings.TrimSpace(in.Name)
	project.Description = in.Description
	if in.PMID != "" {
		project.PMID = in.PMID
	}
	project.Status = in.Status
	project.Health = in.Health
	project.Priority = in.Priority
	project.Type = in.Type
	project.Branch = in.Branch
	project.Progress = in.Progress
	project.PlannedStart = in.PlannedStart
	project.PlannedEnd = in.PlannedEnd
	project.Milestones = append([]model.Milestone(nil), in.Milestones...)
}

func budgetChanged(current, next model.Budget) bool {
	return current.Total != next.Total ||
		current.Allocated != next.Allocated ||
		current.Spent != next.Spent ||
		current.Currency != next.Currency
}

func getProject(ctx context.Context, repo interfaces.Repository, id types.ProjectID) (*model.Project, error) {
	project, err := repo.Project().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrProjectNotFound, "project not found", goerr.V(ProjectIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get project", goerr.V(ProjectIDKey, id))
	}
	return project, nil
}

func visibleProjects(p *auth.Principal, projects []*model.Project) []*model.Project {
	if p.Can(types.CapViewAllProjects) {
		return projects
	}

	visible := make([]*model.Project, 0, len(projects))
	for _, project := range projects {
		if p.CanAccessProject(project) {
			visible = append(visible, project)
		}
	}
	return visible
}
