package types

import "github.com/google/uuid"

// ProjectID identifies a project
type ProjectID string

// NewProjectID generates a new random project ID
func NewProjectID() ProjectID {
	return ProjectID(uuid.NewString())
}

func (id ProjectID) String() string {
	return string(id)
}

// RiskID identifies a risk
type RiskID string

// NewRiskID generates a new random risk ID
func NewRiskID() RiskID {
	return RiskID(uuid.NewString())
}

func (id RiskID) String() string {
	return string(id)
}

// IssueID identifies an issue
type IssueID string

// NewIssueID generates a new random issue ID
func NewIssueID() IssueID {
	return IssueID(uuid.NewString())
}

func (id IssueID) String() string {
	return string(id)
}

// TaskID identifies a task
type TaskID string

// NewTaskID generates a new random task ID
func NewTaskID() TaskID {
	return TaskID(uuid.NewString())
}

func (id TaskID) String() string {
	return string(id)
}

// UserID identifies a user. Users are owned by the identity provider.
type UserID string

func (id UserID) String() string {
	return string(id)
}
