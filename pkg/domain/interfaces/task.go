package interfaces

import (
	"context"

	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

type TaskRepository interface {
	// Create stores a new task. ID must be set by the caller.
	Create(ctx context.Context, task *model.Task) (*model.Task, error)

	// Get retrieves a task by ID
	Get(ctx context.Context, id types.TaskID) (*model.Task, error)

	// List retrieves all tasks
	List(ctx context.Context) ([]*model.Task, error)

	// ListByProject retrieves all tasks of the project
	ListByProject(ctx context.Context, projectID types.ProjectID) ([]*model.Task, error)

	// ListByAssignee retrieves all tasks assigned to the user, across projects
	ListByAssignee(ctx context.Context, userID types.UserID) ([]*model.Task, error)

	// Update updates an existing task
	Update(ctx context.Context, task *model.Task) (*model.Task, error)

	// Delete deletes a task by ID
	Delete(ctx context.Context, id types.TaskID) error
}
