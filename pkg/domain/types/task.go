package types

// TaskStatus represents the workflow state of a task
type TaskStatus string

const (
	TaskStatusToDo       TaskStatus = "To_Do"
	TaskStatusInProgress TaskStatus = "In_Progress"
	TaskStatusInReview   TaskStatus = "In_Review"
	TaskStatusBlocked    TaskStatus = "Blocked"
	TaskStatusCompleted  TaskStatus = "Completed"
)

// AllTaskStatuses returns all valid task statuses in workflow order
func AllTaskStatuses() []TaskStatus {
	return []TaskStatus{
		TaskStatusToDo,
		TaskStatusInProgress,
		TaskStatusInReview,
		TaskStatusBlocked,
		TaskStatusCompleted,
	}
}

// IsValid checks if the task status is valid
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusToDo,
		TaskStatusInProgress,
		TaskStatusInReview,
		TaskStatusBlocked,
		TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// IsActive reports whether the task is waiting on its assignee
func (s TaskStatus) IsActive() bool {
	return s == TaskStatusToDo || s == TaskStatusInProgress
}

// Normalize returns the status, treating empty as TaskStatusToDo.
func (s TaskStatus) Normalize() TaskStatus {
	if s == "" {
		return TaskStatusToDo
	}
	return s
}

// String returns the string representation of the task status
func (s TaskStatus) String() string {
	return string(s)
}

// ParseTaskStatus parses a string into a TaskStatus
func ParseTaskStatus(s string) (TaskStatus, error) {
	return parseEnum("task status", s, TaskStatus.IsValid)
}

// TaskPriority describes how urgently a task must be picked up
type TaskPriority string

const (
	TaskPriorityCritical TaskPriority = "Critical"
	TaskPriorityHigh     TaskPriority = "High"
	TaskPriorityMedium   TaskPriority = "Medium"
	TaskPriorityLow      TaskPriority = "Low"
)

// IsValid checks if the task priority is valid
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityCritical,
		TaskPriorityHigh,
		TaskPriorityMedium,
		TaskPriorityLow:
		return true
	default:
		return false
	}
}

// Normalize returns the priority, treating empty as TaskPriorityMedium.
func (p TaskPriority) Normalize() TaskPriority {
	if p == "" {
		return TaskPriorityMedium
	}
	return p
}

// String returns the string representation of the task priority
func (p TaskPriority) String() string {
	return string(p)
}

// ParseTaskPriority parses a string into a TaskPriority
func ParseTaskPriority(s string) (TaskPriority, error) {
	return parseEnum("task priority", s, TaskPriority.IsValid)
}
