package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

// RiskInput carries the editable fields of a risk. ProjectID is only read on
// create; a risk never moves between projects.
type RiskInput struct {
	ProjectID      types.ProjectID
	Title          string
	Description    string
	Category       types.RiskCategory
	Probability    types.Rating
	Impact         types.Rating
	Status         types.RiskStatus
	MitigationPlan string
	OwnerID        types.UserID
	IdentifiedAt   *time.Time
}

func (in *RiskInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return goerr.Wrap(ErrValidation, "risk title is required", goerr.V(FieldKey, "title"))
	}
	if _, err := types.ParseRiskCategory(string(in.Category)); err != nil {
		return err
	}
	in.Status = in.Status.Normalize()
	if _, err := types.ParseRiskStatus(string(in.Status)); err != nil {
		return err
	}
	return nil
}

type RiskUseCase struct {
	repo    interfaces.Repository
	summary *SummaryUseCase
	audit   *AuditUseCase
	now     func() time.Time
}

func NewRiskUseCase(repo interfaces.Repository, summary *SummaryUseCase, audit *AuditUseCase) *RiskUseCase {
	return &RiskUseCase{
		repo:    repo,
		summary: summary,
		audit:   audit,
		now:     time.Now,
	}
}

// ScoreRisk exposes the scorer for previews
func (uc *RiskUseCase) ScoreRisk(probability, impact types.Rating) (model.RiskScore, error) {
	return model.ScoreRisk(probability, impact)
}

// CreateRisk scores and stores a new risk, then refreshes the owning
// project's summary.
func (uc *RiskUseCase) CreateRisk(ctx context.Context, in RiskInput) (*model.Risk, error) {
	p, err := require(ctx, types.CapManageRisks)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.ProjectID == "" {
		return nil, goerr.Wrap(ErrValidation, "risk project is required", goerr.V(FieldKey, "projectId"))
	}

	risk := &model.Risk{
		ID:        types.NewRiskID(),
		ProjectID: in.ProjectID,
		CreatedBy: p.UserID,
	}
	applyRiskInput(risk, in)
	if risk.IdentifiedAt.IsZero() {
		risk.IdentifiedAt = uc.now().UTC()
	}
	if err := risk.ApplyScore(); err != nil {
		return nil, err
	}

	project, err := getProject(ctx, uc.repo, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := checkProjectAccess(p, project); err != nil {
		return nil, err
	}

	code, err := allocateRiskCode(ctx, uc.repo, project.ID)
	if err != nil {
		return nil, err
	}
	risk.Code = code

	created, err := uc.repo.Risk().Create(ctx, risk)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create risk")
	}

	uc.summary.refreshAfterChildWrite(ctx, created.ProjectID)

	uc.audit.Record(ctx, types.AuditActionCreate, types.EntityTypeRisk, created.ID.String(), riskSnapshot(created))
	return created, nil
}

// GetRisk returns a risk of a project visible to the principal
func (uc *RiskUseCase) GetRisk(ctx context.Context, id types.RiskID) (*model.Risk, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	risk, err := uc.getRisk(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkProjectAccessByID(ctx, uc.repo, p, risk.ProjectID); err != nil {
		return nil, err
	}
	return risk, nil
}

// ListRisks returns risks ordered by score, highest first. An empty
// projectID lists the risks of every visible project.
func (uc *RiskUseCase) ListRisks(ctx context.Context, projectID types.ProjectID) ([]*model.Risk, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	var risks []*model.Risk
	if projectID != "" {
		if err := checkProjectAccessByID(ctx, uc.repo, p, projectID); err != nil {
			return nil, err
		}
		risks, err = uc.repo.Risk().ListByProject(ctx, projectID)
	} else {
		risks, err = uc.repo.Risk().List(ctx)
		if err == nil && !p.Can(types.CapViewAllProjects) {
			risks, err = filterByVisibleProject(ctx, uc.repo, p, risks, func(r *model.Risk) types.ProjectID { return r.ProjectID })
		}
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risks", goerr.V(ProjectIDKey, projectID))
	}

	sort.SliceStable(risks, func(i, j int) bool {
		if risks[i].Score != risks[j].Score {
			return risks[i].Score > risks[j].Score
		}
		return risks[i].CreatedAt.After(risks[j].CreatedAt)
	})
	return risks, nil
}

// UpdateRisk replaces the editable fields of a risk, rescoring it before the
// write and refreshing the owning project's summary after.
func (uc *RiskUseCase) UpdateRisk(ctx context.Context, id types.RiskID, in RiskInput) (*model.Risk, error) {
	p, err := require(ctx, types.CapManageRisks)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	risk, err := uc.getRisk(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkProjectAccessByID(ctx, uc.repo, p, risk.ProjectID); err != nil {
		return nil, err
	}
	before := riskSnapshot(risk)

	applyRiskInput(risk, in)
	if err := risk.ApplyScore(); err != nil {
		return nil, err
	}

	updated, err := uc.repo.Risk().Update(ctx, risk)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrRiskNotFound, "risk not found", goerr.V(RiskIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to update risk", goerr.V(RiskIDKey, id))
	}

	uc.summary.refreshAfterChildWrite(ctx, updated.ProjectID)

	uc.audit.Record(ctx, types.AuditActionUpdate, types.EntityTypeRisk, id.String(),
		changeSet(before, riskSnapshot(updated)))
	return updated, nil
}

// DeleteRisk removes a risk and refreshes the owning project's summary
func (uc *RiskUseCase) DeleteRisk(ctx context.Context, id types.RiskID) error {
	p, err := require(ctx, types.CapManageRisks)
	if err != nil {
		return err
	}

	risk, err := uc.getRisk(ctx, id)
	if err != nil {
		return err
	}
	if err := checkProjectAccessByID(ctx, uc.repo, p, risk.ProjectID); err != nil {
		return err
	}

	if err := uc.repo.Risk().Delete(ctx, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrRiskNotFound, "risk not found", goerr.V(RiskIDKey, id))
		}
		return goerr.Wrap(err, "failed to delete risk", goerr.V(RiskIDKey, id))
	}

	uc.summary.refreshAfterChildWrite(ctx, risk.ProjectID)

	uc.audit.Record(ctx, types.AuditActionDelete, types.EntityTypeRisk, id.String(), riskSnapshot(risk))
	return nil
}

func (uc *RiskUseCase) getRisk(ctx context.Context, id types.RiskID) (*model.Risk, error) {
	risk, err := uc.repo.Risk().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrRiskNotFound, "risk not found", goerr.V(RiskIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V(RiskIDKey, id))
	}
	return risk, nil
}

func applyRiskInput(risk *model.Risk, in RiskInput) {
	risk.Title = strings.TrimSpace(in.Title)
	risk.Description = in.Description
	risk.Category = in.Category
	risk.Probability = in.Probability
	risk.Impact = in.Impact
	risk.Status = in.Status
	risk.MitigationPlan = in.MitigationPlan
	risk.OwnerID = in.OwnerID
	if in.IdentifiedAt != nil {
		risk.IdentifiedAt = in.IdentifiedAt.UTC()
	}
}

// filterByVisibleProject keeps the children whose project the principal may see
func filterByVisibleProject[T any](ctx context.Context, repo interfaces.Repository, p *auth.Principal, items []T, projectOf func(T) types.ProjectID) ([]T, error) {
	projects, err := repo.Project().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list projects")
	}

	visible := make(map[types.ProjectID]struct{})
	for _, project := range visibleProjects(p, projects) {
		visible[project.ID] = struct{}{}
	}

	kept := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := visible[projectOf(item)]; ok {
			kept = append(kept, item)
		}
	}
	return kept, nil
}
