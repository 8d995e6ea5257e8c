package interfaces

import (
	"context"

	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

type ProjectRepository interface {
	// Create stores a new project. ID must be set by the caller. The stored
	// Version starts at 1. Returns ErrConflict when the ID or a non-empty
	// CaseID is already taken.
	Create(ctx context.Context, project *model.Project) (*model.Project, error)

	// Get retrieves a project by ID. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id types.ProjectID) (*model.Project, error)

	// List retrieves all projects
	List(ctx context.Context) ([]*model.Project, error)

	// Update replaces the whole project document if the stored Version equals
	// project.Version, and increments the Version. Returns ErrConflict when
	// the versions differ and ErrNotFound when the project does not exist.
	Update(ctx context.Context, project *model.Project) (*model.Project, error)

	// Delete deletes a project by ID
	Delete(ctx context.Context, id types.ProjectID) error

	// Count returns the number of stored projects
	Count(ctx context.Context) (int64, error)

	// ListLegacy returns projects that still carry scalar budget fields
	ListLegacy(ctx context.Context) ([]*model.Project, error)
}
