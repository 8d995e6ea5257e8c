package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/usecase"
)

func TestTaskUseCase_CreateTask(t *testing.T) {
	t.Run("codes and defaults", func(t *testing.T) {
		uc, _ := newTestUseCases(t)
		ctx := pmoContext()
		project := createTestProject(t, ctx, uc, "Tasks")

		first, err := uc.Task.CreateTask(ctx, usecase.TaskInput{
			ProjectID:  project.ID,
			Title:      "  Draft charter ",
			AssignedTo: "member-1",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, first.Code).Equal("TSK-0001")
		gt.Value(t, first.Title).Equal("Draft charter")
		gt.Value(t, first.Status).Equal(types.TaskStatusToDo)
		gt.Value(t, first.Priority).Equal(types.TaskPriorityMedium)
		gt.Value(t, first.CreatedBy).Equal(types.UserID("pmo-1"))
		gt.Value(t, first.AssignedBy).Equal(types.UserID("pmo-1"))
		gt.Value(t, first.CompletedAt).Nil()

		second, err := uc.Task.CreateTask(ctx, usecase.TaskInput{ProjectID: project.ID, Title: "Unassigned"})
		gt.NoError(t, err).Required()
		gt.Value(t, second.Code).Equal("TSK-0002")
		gt.Value(t, second.AssignedBy).Equal(types.UserID(""))
	})

	t.Run("codes are not reused after a delete", func(t *testing.T) {
		uc, _ := newTestUseCases(t)
		ctx := pmoContext()
		project := createTestProject(t, ctx, uc, "Tasks")

		var last string
		for _, title := range []string{"a", "b"} {
			task, err := uc.Task.CreateTask(ctx, usecase.TaskInput{ProjectID: project.ID, Title: title})
			gt.NoError(t, err).Required()
			last = task.Code
			if title == "b" {
				gt.NoError(t, uc.Task.DeleteTask(ctx, task.ID)).Required()
			}
		}
		gt.Value(t, last).Equal("TSK-0002")

		next, err := uc.Task.CreateTask(ctx, usecase.TaskInput{ProjectID: project.ID, Title: "c"})
		gt.NoError(t, err).Required()
		gt.Value(t, next.Code).Equal("TSK-0003")
	})

	t.Run("validation", func(t *testing.T) {
		uc, _ := newTestUseCases(t)
		ctx := pmoContext()
		project := createTestProject(t, ctx, uc, "Tasks")

		_, err := uc.Task.CreateTask(ctx, usecase.TaskInput{ProjectID: project.ID, Title: " "})
		gt.Error(t, err).Is(usecase.ErrValidation)

		_, err = uc.Task.CreateTask(ctx, usecase.TaskInput{ProjectID: project.ID, Title: "x", Status: "Done"})
		gt.Error(t, err).Is(types.ErrInvalidEnum)

		_, err = uc.Task.CreateTask(ctx, usecase.TaskInput{ProjectID: project.ID, Title: "x", EstimatedHours: -1})
		gt.Error(t, err).Is(usecase.ErrValidation)

		_, err = uc.Task.CreateTask(ctx, usecase.TaskInput{Title: "x"})
		gt.Error(t, err).Is(usecase.ErrValidation)

		_, err = uc.Task.CreateTask(ctx, usecase.TaskInput{ProjectID: types.NewProjectID(), Title: "x"})
		gt.Error(t, err).Is(usecase.ErrProjectNotFound)
	})

	t.Run("requires manage_tasks and project access", func(t *testing.T) {
		uc, _ := newTestUseCases(t)
		pmo := pmoContext()
		project, err := uc.Project.CreateProject(pmo, usecase.ProjectInput{Name: "Owned", PMID: "pm-1"})
		gt.NoError(t, err).Required()

		_, err = uc.Task.CreateTask(memberContext(), usecase.TaskInput{ProjectID: project.ID, Title: "x"})
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)

		_, err = uc.Task.CreateTask(pmContext("pm-2"), usecase.TaskInput{ProjectID: project.ID, Title: "x"})
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)

		_, err = uc.Task.CreateTask(pmContext("pm-1"), usecase.TaskInput{ProjectID: project.ID, Title: "x"})
		gt.NoError(t, err)
	})
}

func TestTaskUseCase_SetTaskStatus(t *testing.T) {
	uc, _ := newTestUseCases(t)
	pmo := pmoContext()
	project := createTestProject(t, pmo, uc, "Workflow")
	done := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	uc.Task.SetNow(func() time.Time { return done })

	task, err := uc.Task.CreateTask(pmo, usecase.TaskInput{
		ProjectID:  project.ID,
		Title:      "Fix build",
		AssignedTo: "member-1",
	})
	gt.NoError(t, err).Required()

	t.Run("assignee moves the task without manage_tasks", func(t *testing.T) {
		updated, err := uc.Task.SetTaskStatus(memberContext(), task.ID, types.TaskStatusInProgress)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Status).Equal(types.TaskStatusInProgress)
		gt.Value(t, updated.CompletedAt).Nil()
	})

	t.Run("completion is stamped once", func(t *testing.T) {
		updated, err := uc.Task.SetTaskStatus(memberContext(), task.ID, types.TaskStatusCompleted)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.CompletedAt).NotNil()
		gt.Bool(t, updated.CompletedAt.Equal(done)).True()

		uc.Task.SetNow(func() time.Time { return done.Add(time.Hour) })
		reopened, err := uc.Task.SetTaskStatus(pmo, task.ID, types.TaskStatusInReview)
		gt.NoError(t, err).Required()
		again, err := uc.Task.SetTaskStatus(pmo, reopened.ID, types.TaskStatusCompleted)
		gt.NoError(t, err).Required()
		gt.Bool(t, again.CompletedAt.Equal(done)).True()
	})

	t.Run("other members cannot move the task", func(t *testing.T) {
		_, err := uc.Task.SetTaskStatus(pmContext("pm-9"), task.ID, types.TaskStatusBlocked)
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)

		other := auth.ContextWithPrincipal(context.Background(),
			auth.NewPrincipal("member-2", "member2@example.com", "Sam Member", types.RoleTeamMember))
		_, err = uc.Task.SetTaskStatus(other, task.ID, types.TaskStatusBlocked)
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := uc.Task.SetTaskStatus(pmo, task.ID, "Done")
		gt.Error(t, err).Is(types.ErrInvalidEnum)
	})

	t.Run("unknown task", func(t *testing.T) {
		_, err := uc.Task.SetTaskStatus(pmo, types.NewTaskID(), types.TaskStatusBlocked)
		gt.Error(t, err).Is(usecase.ErrTaskNotFound)
	})
}

func TestTaskUseCase_Visibility(t *testing.T) {
	uc, _ := newTestUseCases(t)
	pmo := pmoContext()
	mine, err := uc.Project.CreateProject(pmo, usecase.ProjectInput{Name: "Mine", PMID: "pm-1"})
	gt.NoError(t, err).Required()
	other, err := uc.Project.CreateProject(pmo, usecase.ProjectInput{Name: "Other", PMID: "pm-2"})
	gt.NoError(t, err).Required()

	due := func(day int) *time.Time {
		d := time.Date(2026, 11, day, 0, 0, 0, 0, time.UTC)
		return &d
	}
	create := func(in usecase.TaskInput) types.TaskID {
		t.Helper()
		task, err := uc.Task.CreateTask(pmo, in)
		gt.NoError(t, err).Required()
		return task.ID
	}
	late := create(usecase.TaskInput{ProjectID: mine.ID, Title: "late", AssignedTo: "member-1", DueDate: due(20)})
	undated := create(usecase.TaskInput{ProjectID: other.ID, Title: "undated", AssignedTo: "member-1"})
	soon := create(usecase.TaskInput{ProjectID: other.ID, Title: "soon", AssignedTo: "member-1", DueDate: due(3)})
	hidden := create(usecase.TaskInput{ProjectID: other.ID, Title: "hidden", AssignedTo: "pm-2", Status: types.TaskStatusBlocked})

	t.Run("MyTasks orders by due date with undated last", func(t *testing.T) {
		tasks, err := uc.Task.MyTasks(memberContext())
		gt.NoError(t, err).Required()
		gt.Array(t, tasks).Length(3).Required()
		gt.Value(t, tasks[0].ID).Equal(soon)
		gt.Value(t, tasks[1].ID).Equal(late)
		gt.Value(t, tasks[2].ID).Equal(undated)
	})

	t.Run("assignee sees own tasks only", func(t *testing.T) {
		_, err := uc.Task.GetTask(memberContext(), soon)
		gt.NoError(t, err)

		_, err = uc.Task.GetTask(memberContext(), hidden)
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)

		tasks, err := uc.Task.ListTasks(memberContext(), usecase.TaskFilter{})
		gt.NoError(t, err).Required()
		gt.Array(t, tasks).Length(3)
	})

	t.Run("PM sees managed projects and own assignments", func(t *testing.T) {
		tasks, err := uc.Task.ListTasks(pmContext("pm-1"), usecase.TaskFilter{})
		gt.NoError(t, err).Required()
		gt.Array(t, tasks).Length(1)

		_, err = uc.Task.ListTasks(pmContext("pm-1"), usecase.TaskFilter{ProjectID: other.ID})
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)
	})

	t.Run("filters combine", func(t *testing.T) {
		tasks, err := uc.Task.ListTasks(pmo, usecase.TaskFilter{ProjectID: other.ID, AssignedTo: "member-1"})
		gt.NoError(t, err).Required()
		gt.Array(t, tasks).Length(2)

		blocked, err := uc.Task.ListTasks(pmo, usecase.TaskFilter{Status: types.TaskStatusBlocked})
		gt.NoError(t, err).Required()
		gt.Array(t, blocked).Length(1).Required()
		gt.Value(t, blocked[0].ID).Equal(hidden)
	})

	t.Run("deleting a project removes its tasks", func(t *testing.T) {
		gt.NoError(t, uc.Project.DeleteProject(pmo, other.ID)).Required()

		_, err := uc.Task.GetTask(pmo, soon)
		gt.Error(t, err).Is(usecase.ErrTaskNotFound)

		tasks, err := uc.Task.MyTasks(memberContext())
		gt.NoError(t, err).Required()
		gt.Array(t, tasks).Length(1)
	})
}

func TestTaskUseCase_UpdateTask(t *testing.T) {
	uc, _ := newTestUseCases(t)
	pmo := pmoContext()
	project := createTestProject(t, pmo, uc, "Edits")
	task, err := uc.Task.CreateTask(pmo, usecase.TaskInput{ProjectID: project.ID, Title: "Write docs", AssignedTo: "member-1"})
	gt.NoError(t, err).Required()

	t.Run("reassignment records who assigned", func(t *testing.T) {
		// pm-1 does not manage the project
		_, err := uc.Task.UpdateTask(pmContext("pm-1"), task.ID, usecase.TaskInput{Title: "Write docs"})
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)

		updated, err := uc.Task.UpdateTask(pmo, task.ID, usecase.TaskInput{
			Title:       "Write docs",
			AssignedTo:  "member-2",
			ActualHours: 3,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.AssignedTo).Equal(types.UserID("member-2"))
		gt.Value(t, updated.AssignedBy).Equal(types.UserID("pmo-1"))
		gt.Value(t, updated.ActualHours).Equal(3.0)
		gt.Value(t, updated.Code).Equal(task.Code)
	})

	t.Run("assignee cannot edit fields", func(t *testing.T) {
		_, err := uc.Task.UpdateTask(memberContext(), task.ID, usecase.TaskInput{Title: "mine now"})
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)
	})

	t.Run("audited", func(t *testing.T) {
		logs, err := uc.Audit.History(pmo, types.EntityTypeTask, string(task.ID), 0)
		gt.NoError(t, err).Required()
		gt.Array(t, logs).Length(2)
	})
}
