package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

type issueRepository struct {
	mu     sync.RWMutex
	issues map[types.IssueID]*model.Issue
}

func newIssueRepository() *issueRepository {
	return &issueRepository{
		issues: make(map[types.IssueID]*model.Issue),
	}
}

func (r *issueRepository) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if issue.ID == "" {
		return nil, goerr.New("issue ID is required")
	}
	if _, exists := r.issues[issue.ID]; exists {
		return nil, goerr.Wrap(interfaces.ErrConflict, "issue already exists", goerr.V("id", issue.ID))
	}

	now := time.Now().UTC()
	created := issue.Clone()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.issues[created.ID] = created
	return created.Clone(), nil
}

func (r *issueRepository) Get(ctx context.Context, id types.IssueID) (*model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issue, exists := r.issues[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
	}

	return issue.Clone(), nil
}

func (r *issueRepository) List(ctx context.Context) ([]*model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issues := make([]*model.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		issues = append(issues, issue.Clone())
	}

	return issues, nil
}

func (r *issueRepository) ListByProject(ctx context.Context, projectID types.ProjectID) ([]*model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issues := make([]*model.Issue, 0)
	for _, issue := range r.issues {
		if issue.ProjectID == projectID {
			issues = append(issues, issue.Clone())
		}
	}

	return issues, nil
}

func (r *issueRepository) CountByProject(ctx context.Context, projectID types.ProjectID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, issue := range r.issues {
		if issue.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

func (r *issueRepository) Update(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.issues[issue.ID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", issue.ID))
	}

	updated := issue.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	updated.Comments = existing.Comments

	r.issues[updated.ID] = updated
	return updated.Clone(), nil
}

func (r *issueRepository) AddComment(ctx context.Context, id types.IssueID, comment model.IssueComment) (*model.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.issues[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
	}

	updated := existing.Clone()
	updated.Comments = append(updated.Comments, comment)
	updated.UpdatedAt = time.Now().UTC()

	r.issues[id] = updated
	return updated.Clone(), nil
}

func (r *issueRepository) Delete(ctx context.Context, id types.IssueID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.issues[id]; !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
	}

	delete(r.issues, id)
	return nil
}
