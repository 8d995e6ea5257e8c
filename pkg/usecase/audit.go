package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/utils/errutil"
)

const defaultAuditLogLimit = 100

type AuditUseCase struct {
	repo interfaces.Repository
	now  func() time.Time
}

func NewAuditUseCase(repo interfaces.Repository) *AuditUseCase {
	return &AuditUseCase{
		repo: repo,
		now:  time.Now,
	}
}

// Record appends an audit entry for a completed write. Failures are reported
// and swallowed so that a successful write is never turned into an error.
func (uc *AuditUseCase) Record(ctx context.Context, action types.AuditAction, entityType types.EntityType, entityID string, changes map[string]any) {
	p := auth.PrincipalFromContext(ctx)
	if p == nil {
		p = auth.NewSystemPrincipal()
	}

	entry := &model.AuditLog{
		ID:         model.NewAuditLogID(),
		UserID:     p.UserID,
		UserEmail:  p.Email,
		UserName:   p.Name,
		UserRole:   p.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    changes,
		Timestamp:  uc.now().UTC(),
	}

	if err := uc.repo.AuditLog().Create(ctx, entry); err != nil {
		errutil.Handle(ctx, goerr.Wrap(err, "failed to write audit log",
			goerr.V("entity_type", entityType),
			goerr.V("entity_id", entityID),
			goerr.V("action", action)), "audit log write failed")
	}
}

// List returns the newest audit entries. Requires manage_users.
func (uc *AuditUseCase) List(ctx context.Context, limit int) ([]*model.AuditLog, error) {
	if _, err := require(ctx, types.CapManageUsers); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAuditLogLimit
	}

	logs, err := uc.repo.AuditLog().List(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list audit logs")
	}
	return logs, nil
}

// History returns the audit entries of one entity, newest first. Requires
// manage_users.
func (uc *AuditUseCase) History(ctx context.Context, entityType types.EntityType, entityID string, limit int) ([]*model.AuditLog, error) {
	if _, err := require(ctx, types.CapManageUsers); err != nil {
		return nil, err
	}
	if !entityType.IsValid() {
		return nil, goerr.Wrap(types.ErrInvalidEnum, "invalid entity type", goerr.V("entity_type", entityType))
	}
	if entityID == "" {
		return nil, goerr.Wrap(ErrValidation, "entity ID is required")
	}
	if limit <= 0 {
		limit = defaultAuditLogLimit
	}

	logs, err := uc.repo.AuditLog().ListByEntity(ctx, entityType, entityID, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list audit history",
			goerr.V("entity_type", entityType),
			goerr.V("entity_id", entityID))
	}
	return logs, nil
}

func projectSnapshot(p *model.Project) map[string]any {
	return map[string]any{
		"name":             p.Name,
		"status":           string(p.Status),
		"health":           string(p.Health),
		"pm_id":            string(p.PMID),
		"progress":         p.Progress,
		"budget_total":     p.Budget.Total,
		"budget_allocated": p.Budget.Allocated,
		"budget_spent":     p.Budget.Spent,
		"milestones":       len(p.Milestones),
	}
}

func riskSnapshot(r *model.Risk) map[string]any {
	return map[string]any{
		"project_id":  string(r.ProjectID),
		"title":       r.Title,
		"probability": string(r.Probability),
		"impact":      string(r.Impact),
		"score":       r.Score,
		"level":       string(r.Level),
		"status":      string(r.Status),
	}
}

func issueSnapshot(i *model.Issue) map[string]any {
	return map[string]any{
		"project_id": string(i.ProjectID),
		"title":      i.Title,
		"severity":   string(i.Severity),
		"priority":   string(i.Priority),
		"status":     string(i.Status),
		"comments":   len(i.Comments),
	}
}

func taskSnapshot(t *model.Task) map[string]any {
	return map[string]any{
		"project_id":  string(t.ProjectID),
		"title":       t.Title,
		"status":      string(t.Status),
		"priority":    string(t.Priority),
		"assigned_to": string(t.AssignedTo),
	}
}

func changeSet(before, after map[string]any) map[string]any {
	return map[string]any{
		"before": before,
		"after":  after,
	}
}
