package interfaces

import (
	"context"

	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

type RiskRepository interface {
	// Create stores a new risk. ID must be set by the caller.
	Create(ctx context.Context, risk *model.Risk) (*model.Risk, error)

	// Get retrieves a risk by ID
	Get(ctx context.Context, id types.RiskID) (*model.Risk, error)

	// List retrieves all risks
	List(ctx context.Context) ([]*model.Risk, error)

	// ListByProject retrieves all risks referencing the project
	ListByProject(ctx context.Context, projectID types.ProjectID) ([]*model.Risk, error)

	// CountByProject returns the number of risks referencing the project
	CountByProject(ctx context.Context, projectID types.ProjectID) (int64, error)

	// Update updates an existing risk
	Update(ctx context.Context, risk *model.Risk) (*model.Risk, error)

	// Delete deletes a risk by ID
	Delete(ctx context.Context, id types.RiskID) error
}
