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
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

// IssueInput carries the editable fields of an issue. ProjectID is only read
// on create.
type IssueInput struct {
	ProjectID   types.ProjectID
	Title       string
	Description string
	Category    types.IssueCategory
	Severity    types.IssueSeverity
	Priority    types.IssuePriority
	Status      types.IssueStatus
	AssignedTo  types.UserID
	Resolution  string
	DueDate     *time.Time
}

func (in *IssueInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return goerr.Wrap(ErrValidation, "issue title is required", goerr.V(FieldKey, "title"))
	}
	if _, err := types.ParseIssueCategory(string(in.Category)); err != nil {
		return err
	}
	if _, err := types.ParseIssueSeverity(string(in.Severity)); err != nil {
		return err
	}
	if _, err := types.ParseIssuePriority(string(in.Priority)); err != nil {
		return err
	}
	in.Status = in.Status.Normalize()
	if _, err := types.ParseIssueStatus(string(in.Status)); err != nil {
		return err
	}
	return nil
}

type IssueUseCase struct {
	repo    interfaces.Repository
	summary *SummaryUseCase
	audit   *AuditUseCase
	now     func() time.Time
}

func NewIssueUseCase(repo interfaces.Repository, summary *SummaryUseCase, audit *AuditUseCase) *IssueUseCase {
	return &IssueUseCase{
		repo:    repo,
		summary: summary,
		audit:   audit,
		now:     time.Now,
	}
}

// CreateIssue stores a new issue and refreshes the owning project's summary
func (uc *IssueUseCase) CreateIssue(ctx context.Context, in IssueInput) (*model.Issue, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.ProjectID == "" {
		return nil, goerr.Wrap(ErrValidation, "issue project is required", goerr.V(FieldKey, "projectId"))
	}

	project, err := getProject(ctx, uc.repo, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := checkProjectAccess(p, project); err != nil {
		return nil, err
	}

	code, err := allocateIssueCode(ctx, uc.repo, project.ID)
	if err != nil {
		return nil, err
	}

	issue := &model.Issue{
		ID:         types.NewIssueID(),
		Code:       code,
		ProjectID:  project.ID,
		ReportedBy: p.UserID,
	}
	uc.applyIssueInput(issue, in)

	created, err := uc.repo.Issue().Create(ctx, issue)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create issue")
	}

	uc.summary.refreshAfterChildWrite(ctx, created.ProjectID)

	uc.audit.Record(ctx, types.AuditActionCreate, types.EntityTypeIssue, created.ID.String(), issueSnapshot(created))
	return created, nil
}

// GetIssue returns an issue of a project visible to the principal
func (uc *IssueUseCase) GetIssue(ctx context.Context, id types.IssueID) (*model.Issue, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	issue, err := uc.getIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkProjectAccessByID(ctx, uc.repo, p, issue.ProjectID); err != nil {
		return nil, err
	}
	return issue, nil
}

// ListIssues returns issues newest first. An empty projectID lists the
// issues of every visible project.
func (uc *IssueUseCase) ListIssues(ctx context.Context, projectID types.ProjectID) ([]*model.Issue, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	var issues []*model.Issue
	if projectID != "" {
		if err := checkProjectAccessByID(ctx, uc.repo, p, projectID); err != nil {
			return nil, err
		}
		issues, err = uc.repo.Issue().ListByProject(ctx, projectID)
	} else {
		issues, err = uc.repo.Issue().List(ctx)
		if err == nil && !p.Can(types.CapViewAllProjects) {
			issues, err = filterByVisibleProject(ctx, uc.repo, p, issues, func(i *model.Issue) types.ProjectID { return i.ProjectID })
		}
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list issues", goerr.V(ProjectIDKey, projectID))
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].CreatedAt.After(issues[j].CreatedAt)
	})
	return issues, nil
}

// UpdateIssue replaces the editable fields of an issue and refreshes the
// owning project's summary.
func (uc *IssueUseCase) UpdateIssue(ctx context.Context, id types.IssueID, in IssueInput) (*model.Issue, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	issue, err := uc.getIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkProjectAccessByID(ctx, uc.repo, p, issue.ProjectID); err != nil {
		return nil, err
	}
	before := issueSnapshot(issue)

	uc.applyIssueInput(issue, in)

	updated, err := uc.repo.Issue().Update(ctx, issue)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrIssueNotFound, "issue not found", goerr.V(IssueIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to update issue", goerr.V(IssueIDKey, id))
	}

	uc.summary.refreshAfterChildWrite(ctx, updated.ProjectID)

	uc.audit.Record(ctx, types.AuditActionUpdate, types.EntityTypeIssue, id.String(),
		changeSet(before, issueSnapshot(updated)))
	return updated, nil
}

// AddComment appends a comment by the principal to an issue of a visible
// project. Earlier comments are never edited.
func (uc *IssueUseCase) AddComment(ctx context.Context, id types.IssueID, text string) (*model.Issue, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, goerr.Wrap(ErrValidation, "comment is required", goerr.V(FieldKey, "comment"))
	}

	issue, err := uc.getIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkProjectAccessByID(ctx, uc.repo, p, issue.ProjectID); err != nil {
		return nil, err
	}
	before := issueSnapshot(issue)

	updated, err := uc.repo.Issue().AddComment(ctx, id, model.IssueComment{
		UserID:    p.UserID,
		Comment:   text,
		CreatedAt: uc.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrIssueNotFound, "issue not found", goerr.V(IssueIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to add issue comment", goerr.V(IssueIDKey, id))
	}

	uc.audit.Record(ctx, types.AuditActionUpdate, types.EntityTypeIssue, id.String(),
		changeSet(before, issueSnapshot(updated)))
	return updated, nil
}

// DeleteIssue removes an issue and refreshes the owning project's summary.
// Requires manage_risks.
func (uc *IssueUseCase) DeleteIssue(ctx context.Context, id types.IssueID) error {
	p, err := require(ctx, types.CapManageRisks)
	if err != nil {
		return err
	}

	issue, err := uc.getIssue(ctx, id)
	if err != nil {
		return err
	}
	if err := checkProjectAccessByID(ctx, uc.repo, p, issue.ProjectID); err != nil {
		return err
	}

	if err := uc.repo.Issue().Delete(ctx, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrIssueNotFound, "issue not found", goerr.V(IssueIDKey, id))
		}
		return goerr.Wrap(err, "failed to delete issue", goerr.V(IssueIDKey, id))
	}

	uc.summary.refreshAfterChildWrite(ctx, issue.ProjectID)

	uc.audit.Record(ctx, types.AuditActionDelete, types.EntityTypeIssue, id.String(), issueSnapshot(issue))
	return nil
}

func (uc *IssueUseCase) getIssue(ctx context.Context, id types.IssueID) (*model.Issue, error) {
	issue, err := uc.repo.Issue().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrIssueNotFound, "issue not found", goerr.V(IssueIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get issue", goerr.V(IssueIDKey, id))
	}
	return issue, nil
}

// applyIssueInput copies the editable fields. ResolvedAt is stamped the first
// time the issue reaches a terminal status and kept afterwards.
func (uc *IssueUseCase) applyIssueInput(issue *model.Issue, in IssueInput) {
	issue.Title = strings.TrimSpace(in.Title)
	issue.Description = in.Description
	issue.Category = in.Category
	issue.Severity = in.Severity
	issue.Priority = in.Priority
	issue.Status = in.Status
	issue.AssignedTo = in.AssignedTo
	issue.Resolution = in.Resolution
	issue.DueDate = in.DueDate

	if issue.Status.IsTerminal() && issue.ResolvedAt == nil {
		now := uc.now().UTC()
		issue.ResolvedAt = &now
	}
}
