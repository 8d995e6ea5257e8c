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
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

// TaskInput carries the editable fields of a task. ProjectID is only read on
// create.
type TaskInput struct {
	ProjectID      types.ProjectID
	Title          string
	Description    string
	Status         types.TaskStatus
	Priority       types.TaskPriority
	AssignedTo     types.UserID
	DueDate        *time.Time
	EstimatedHours float64
	ActualHours    float64
}

func (in *TaskInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return goerr.Wrap(ErrValidation, "task title is required", goerr.V(FieldKey, "title"))
	}
	in.Status = in.Status.Normalize()
	if _, err := types.ParseTaskStatus(string(in.Status)); err != nil {
		return err
	}
	in.Priority = in.Priority.Normalize()
	if _, err := types.ParseTaskPriority(string(in.Priority)); err != nil {
		return err
	}
	if in.EstimatedHours < 0 {
		return goerr.Wrap(ErrValidation, "estimated hours must not be negative", goerr.V(FieldKey, "estimatedHours"))
	}
	if in.ActualHours < 0 {
		return goerr.Wrap(ErrValidation, "actual hours must not be negative", goerr.V(FieldKey, "actualHours"))
	}
	return nil
}

// TaskFilter narrows ListTasks. Zero fields match everything.
type TaskFilter struct {
	ProjectID  types.ProjectID
	AssignedTo types.UserID
	Status     types.TaskStatus
}

func (f TaskFilter) match(t *model.Task) bool {
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}

type TaskUseCase struct {
	repo  interfaces.Repository
	audit *AuditUseCase
	now   func() time.Time
}

func NewTaskUseCase(repo interfaces.Repository, audit *AuditUseCase) *TaskUseCase {
	return &TaskUseCase{
		repo:  repo,
		audit: audit,
		now:   time.Now,
	}
}

// CreateTask stores a new task under a project the principal can access.
// Requires manage_tasks.
func (uc *TaskUseCase) CreateTask(ctx context.Context, in TaskInput) (*model.Task, error) {
	p, err := require(ctx, types.CapManageTasks)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.ProjectID == "" {
		return nil, goerr.Wrap(ErrValidation, "task project is required", goerr.V(FieldKey, "projectId"))
	}

	project, err := getProject(ctx, uc.repo, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := checkProjectAccess(p, project); err != nil {
		return nil, err
	}

	code, err := allocateTaskCode(ctx, uc.repo, project.ID)
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		ID:        types.NewTaskID(),
		Code:      code,
		ProjectID: project.ID,
		CreatedBy: p.UserID,
	}
	uc.applyTaskInput(task, in, p)

	created, err := uc.repo.Task().Create(ctx, task)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create task")
	}

	uc.audit.Record(ctx, types.AuditActionCreate, types.EntityTypeTask, created.ID.String(), taskSnapshot(created))
	return created, nil
}

// GetTask returns a task of a visible project or one assigned to the principal
func (uc *TaskUseCase) GetTask(ctx context.Context, id types.TaskID) (*model.Task, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	task, err := uc.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.checkTaskVisible(ctx, p, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns the tasks matching filter, newest first. Principals
// scoped to their own projects also see tasks assigned to them elsewhere.
func (uc *TaskUseCase) ListTasks(ctx context.Context, filter TaskFilter) ([]*model.Task, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	var tasks []*model.Task
	if filter.ProjectID != "" {
		if err := checkProjectAccessByID(ctx, uc.repo, p, filter.ProjectID); err != nil {
			return nil, err
		}
		tasks, err = uc.repo.Task().ListByProject(ctx, filter.ProjectID)
	} else {
		tasks, err = uc.repo.Task().List(ctx)
		if err == nil && !p.Can(types.CapViewAllProjects) {
			tasks, err = uc.visibleTasks(ctx, p, tasks)
		}
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tasks", goerr.V(ProjectIDKey, filter.ProjectID))
	}

	kept := make([]*model.Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.match(t) {
			kept = append(kept, t)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].CreatedAt.After(kept[j].CreatedAt)
	})
	return kept, nil
}

// MyTasks returns the tasks assigned to the principal across projects,
// soonest due date first. Tasks without a due date come last.
func (uc *TaskUseCase) MyTasks(ctx context.Context) ([]*model.Task, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	tasks, err := uc.repo.Task().ListByAssignee(ctx, p.UserID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list assigned tasks", goerr.V("user_id", p.UserID))
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].DueDate, tasks[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return tasks, nil
}

// UpdateTask replaces the editable fields of a task. Requires manage_tasks.
func (uc *TaskUseCase) UpdateTask(ctx context.Context, id types.TaskID, in TaskInput) (*model.Task, error) {
	p, err := require(ctx, types.CapManageTasks)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	task, err := uc.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkProjectAccessByID(ctx, uc.repo, p, task.ProjectID); err != nil {
		return nil, err
	}
	before := taskSnapshot(task)

	uc.applyTaskInput(task, in, p)

	return uc.update(ctx, task, before)
}

// SetTaskStatus moves a task through its workflow. The assignee may do this
// without manage_tasks.
func (uc *TaskUseCase) SetTaskStatus(ctx context.Context, id types.TaskID, status types.TaskStatus) (*model.Task, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := types.ParseTaskStatus(string(status)); err != nil {
		return nil, err
	}

	task, err := uc.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.AssignedTo != p.UserID {
		if !p.Can(types.CapManageTasks) {
			return nil, goerr.Wrap(ErrPermissionDenied, "only the assignee or a task manager can change status",
				goerr.V(TaskIDKey, id),
				goerr.V("user_id", p.UserID))
		}
		if err := checkProjectAccessByID(ctx, uc.repo, p, task.ProjectID); err != nil {
			return nil, err
		}
	}
	if task.Status == status {
		return task, nil
	}
	before := taskSnapshot(task)

	task.Status = status
	uc.stampCompletion(task)

	return uc.update(ctx, task, before)
}

// DeleteTask removes a task. Requires manage_tasks.
func (uc *TaskUseCase) DeleteTask(ctx context.Context, id types.TaskID) error {
	p, err := require(ctx, types.CapManageTasks)
	if err != nil {
		return err
	}

	task, err := uc.getTask(ctx, id)
	if err != nil {
		return err
	}
	if err := checkProjectAccessByID(ctx, uc.repo, p, task.ProjectID); err != nil {
		return err
	}

	if err := uc.repo.Task().Delete(ctx, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrTaskNotFound, "task not found", goerr.V(TaskIDKey, id))
		}
		return goerr.Wrap(err, "failed to delete task", goerr.V(TaskIDKey, id))
	}

	uc.audit.Record(ctx, types.AuditActionDelete, types.EntityTypeTask, id.String(), taskSnapshot(task))
	return nil
}

func (uc *TaskUseCase) update(ctx context.Context, task *model.Task, before map[string]any) (*model.Task, error) {
	updated, err := uc.repo.Task().Update(ctx, task)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrTaskNotFound, "task not found", goerr.V(TaskIDKey, task.ID))
		}
		return nil, goerr.Wrap(err, "failed to update task", goerr.V(TaskIDKey, task.ID))
	}

	uc.audit.Record(ctx, types.AuditActionUpdate, types.EntityTypeTask, task.ID.String(),
		changeSet(before, taskSnapshot(updated)))
	return updated, nil
}

func (uc *TaskUseCase) getTask(ctx context.Context, id types.TaskID) (*model.Task, error) {
	task, err := uc.repo.Task().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrTaskNotFound, "task not found", goerr.V(TaskIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get task", goerr.V(TaskIDKey, id))
	}
	return task, nil
}

func (uc *TaskUseCase) checkTaskVisible(ctx context.Context, p *auth.Principal, task *model.Task) error {
	if task.AssignedTo == p.UserID {
		return nil
	}
	return checkProjectAccessByID(ctx, uc.repo, p, task.ProjectID)
}

func (uc *TaskUseCase) visibleTasks(ctx context.Context, p *auth.Principal, tasks []*model.Task) ([]*model.Task, error) {
	inProject, err := filterByVisibleProject(ctx, uc.repo, p, tasks, func(t *model.Task) types.ProjectID { return t.ProjectID })
	if err != nil {
		return nil, err
	}

	seen := make(map[types.TaskID]struct{}, len(inProject))
	for _, t := range inProject {
		seen[t.ID] = struct{}{}
	}
	for _, t := range tasks {
		if _, ok := seen[t.ID]; !ok && t.AssignedTo == p.UserID {
			inProject = append(inProject, t)
		}
	}
	return inProject, nil
}

// applyTaskInput copies the editable fields. Reassigning a task records who
// made the assignment.
func (uc *TaskUseCase) applyTaskInput(task *model.Task, in TaskInput, p *auth.Principal) {
	if in.AssignedTo != task.AssignedTo {
		task.AssignedBy = ""
		if in.AssignedTo != "" {
			task.AssignedBy = p.UserID
		}
	}

	task.Title = strings.TrimSpace(in.Title)
	task.Description = in.Description
	task.Status = in.Status
	task.Priority = in.Priority
	task.AssignedTo = in.AssignedTo
	task.DueDate = in.DueDate
	task.EstimatedHours = in.EstimatedHours
	task.ActualHours = in.ActualHours

	uc.stampCompletion(task)
}

// stampCompletion sets CompletedAt the first time the task reaches Completed
// and keeps it afterwards.
func (uc *TaskUseCase) stampCompletion(task *model.Task) {
	if task.Status == types.TaskStatusCompleted && task.CompletedAt == nil {
		now := uc.now().UTC()
		task.CompletedAt = &now
	}
}
