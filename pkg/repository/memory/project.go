package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

type projectRepository struct {
	mu       sync.RWMutex
	projects map[types.ProjectID]*model.Project
}

func newProjectRepository() *projectRepository {
	return &projectRepository{
		projects: make(map[types.ProjectID]*model.Project),
	}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if project.ID == "" {
		return nil, goerr.New("project ID is required")
	}
	if _, exists := r.projects[project.ID]; exists {
		return nil, goerr.Wrap(interfaces.ErrConflict, "project already exists", goerr.V("id", project.ID))
	}
	if project.CaseID != "" {
		for _, p := range r.projects {
			if p.CaseID == project.CaseID {
				return nil, goerr.Wrap(interfaces.ErrConflict, "case ID already in use", goerr.V("case_id", project.CaseID))
			}
		}
	}

	now := time.Now().UTC()
	created := project.Clone()
	created.CreatedAt = now
	created.UpdatedAt = now
	created.Version = 1

	r.projects[created.ID] = created
	return created.Clone(), nil
}

func (r *projectRepository) Get(ctx context.Context, id types.ProjectID) (*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	project, exists := r.projects[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "project not found", goerr.V("id", id))
	}

	// Return a copy to prevent external modification
	return project.Clone(), nil
}

func (r *projectRepository) List(ctx context.Context) ([]*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	projects := make([]*model.Project, 0, len(r.projects))
	for _, p := range r.projects {
		projects = append(projects, p.Clone())
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.Before(projects[j].CreatedAt)
	})

	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.projects[project.ID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "project not found", goerr.V("id", project.ID))
	}
	if existing.Version != project.Version {
		return nil, goerr.Wrap(interfaces.ErrConflict, "project was modified concurrently",
			goerr.V("id", project.ID),
			goerr.V("expected_version", project.Version),
			goerr.V("actual_version", existing.Version))
	}

	updated := project.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	updated.Version = existing.Version + 1

	r.projects[updated.ID] = updated
	return updated.Clone(), nil
}

func (r *projectRepository) Delete(ctx context.Context, id types.ProjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.projects[id]; !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "project not found", goerr.V("id", id))
	}

	delete(r.projects, id)
	return nil
}

func (r *projectRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.projects)), nil
}

func (r *projectRepository) ListLegacy(ctx context.Context) ([]*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var projects []*model.Project
	for _, p := range r.projects {
		if p.Legacy != nil {
			projects = append(projects, p.Clone())
		}
	}
	return projects, nil
}
