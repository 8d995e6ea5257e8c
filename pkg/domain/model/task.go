package model

import (
	"time"

	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

// Task is a unit of work of a project assigned to one user
type Task struct {
	ID             types.TaskID
	Code           string // TSK-NNNN, unique within the project
	ProjectID      types.ProjectID
	Title          string
	Description    string
	Status         types.TaskStatus
	Priority       types.TaskPriority
	AssignedTo     types.UserID
	AssignedBy     types.UserID
	CreatedBy      types.UserID
	DueDate        *time.Time
	EstimatedHours float64
	ActualHours    float64
	CompletedAt    *time.Time // set when the task first reaches Completed
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep copy of the task
func (t *Task) Clone() *Task {
	copied := *t
	if t.DueDate != nil {
		d := *t.DueDate
		copied.DueDate = &d
	}
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		copied.CompletedAt = &c
	}
	return &copied
}
