package interfaces

import (
	"context"

	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

type IssueRepository interface {
	// Create stores a new issue. ID must be set by the caller.
	Create(ctx context.Context, issue *model.Issue) (*model.Issue, error)

	// Get retrieves an issue by ID
	Get(ctx context.Context, id types.IssueID) (*model.Issue, error)

	// List retrieves all issues
	List(ctx context.Context) ([]*model.Issue, error)

	// ListByProject retrieves all issues referencing the project
	ListByProject(ctx context.Context, projectID types.ProjectID) ([]*model.Issue, error)

	// CountByProject returns the number of issues referencing the project
	CountByProject(ctx context.Context, projectID types.ProjectID) (int64, error)

	// Update updates an existing issue. Stored comments are kept; they only
	// change through AddComment.
	Update(ctx context.Context, issue *model.Issue) (*model.Issue, error)

	// AddComment appends a comment to the issue and returns the updated
	// issue. Returns ErrNotFound when the issue does not exist.
	AddComment(ctx context.Context, id types.IssueID, comment model.IssueComment) (*model.Issue, error)

	// Delete deletes an issue by ID
	Delete(ctx context.Context, id types.IssueID) error
}
