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

type taskRepository struct {
	mu    sync.RWMutex
	tasks map[types.TaskID]*model.Task
}

func newTaskRepository() *taskRepository {
	return &taskRepository{
		tasks: make(map[types.TaskID]*model.Task),
	}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == "" {
		return nil, goerr.New("task ID is required")
	}
	if _, exists := r.tasks[task.ID]; exists {
		return nil, goerr.Wrap(interfaces.ErrConflict, "task already exists", goerr.V("id", task.ID))
	}

	now := time.Now().UTC()
	created := task.Clone()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.tasks[created.ID] = created
	return created.Clone(), nil
}

func (r *taskRepository) Get(ctx context.Context, id types.TaskID) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, exists := r.tasks[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "task not found", goerr.V("id", id))
	}
	return task.Clone(), nil
}

func (r *taskRepository) List(ctx context.Context) ([]*model.Task, error) {
	return r.filter(func(*model.Task) bool { return true }), nil
}

func (r *taskRepository) ListByProject(ctx context.Context, projectID types.ProjectID) ([]*model.Task, error) {
	return r.filter(func(t *model.Task) bool { return t.ProjectID == projectID }), nil
}

func (r *taskRepository) ListByAssignee(ctx context.Context, userID types.UserID) ([]*model.Task, error) {
	return r.filter(func(t *model.Task) bool { return t.AssignedTo == userID }), nil
}

func (r *taskRepository) filter(keep func(*model.Task) bool) []*model.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]*model.Task, 0)
	for _, task := range r.tasks {
		if keep(task) {
			tasks = append(tasks, task.Clone())
		}
	}
	return tasks
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.tasks[task.ID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "task not found", goerr.V("id", task.ID))
	}

	updated := task.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.tasks[updated.ID] = updated
	return updated.Clone(), nil
}

func (r *taskRepository) Delete(ctx context.Context, id types.TaskID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[id]; !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "task not found", goerr.V("id", id))
	}

	delete(r.tasks, id)
	return nil
}
