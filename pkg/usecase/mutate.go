package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
)

// maxWriteAttempts bounds the optimistic concurrency loop of project writes
const maxWriteAttempts = 10

// projectMutation modifies a freshly read project in place. It reports
// whether anything changed; an unchanged project is not written.
type projectMutation func(ctx context.Context, p *model.Project) (bool, error)

// mutateProject reads the project, applies fn and writes it back with a
// conditional update. When another writer wins, the whole read-apply-write
// cycle is repeated on a fresh read. Every write carries a migrated and
// reconciled budget.
func mutateProject(ctx context.Context, repo interfaces.Repository, id types.ProjectID, fn projectMutation) (*model.Project, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		project, err := repo.Project().Get(ctx, id)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil, goerr.Wrap(ErrProjectNotFound, "project not found", goerr.V(ProjectIDKey, id))
			}
			return nil, goerr.Wrap(err, "failed to get project", goerr.V(ProjectIDKey, id))
		}

		changed, err := fn(ctx, project)
		if err != nil {
			return nil, err
		}
		if !changed {
			return project, nil
		}

		model.MigrateLegacyBudget(project)
		project.Budget = model.ReconcileBudget(project.Budget)

		updated, err := repo.Project().Update(ctx, project)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, interfaces.ErrConflict) {
			return nil, goerr.Wrap(err, "failed to update project", goerr.V(ProjectIDKey, id))
		}

		logging.From(ctx).Debug("project write lost a version race, retrying",
			"project_id", id,
			"attempt", attempt)
	}

	return nil, goerr.Wrap(ErrConflict, "project write did not converge",
		goerr.V(ProjectIDKey, id),
		goerr.V("attempts", maxWriteAttempts))
}
