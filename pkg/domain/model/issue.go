package model

import (
	"time"

	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

// Issue is a problem that has already materialized in a project
type Issue struct {
	ID          types.IssueID
	Code        string // ISS-NNN, unique within the project
	ProjectID   types.ProjectID
	Title       string
	Description string
	Category    types.IssueCategory
	Severity    types.IssueSeverity
	Priority    types.IssuePriority
	Status      types.IssueStatus
	AssignedTo  types.UserID
	ReportedBy  types.UserID
	Resolution  string
	ResolvedAt  *time.Time
	DueDate     *time.Time
	Comments    []IssueComment // append only, oldest first
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IssueComment is a note left on an issue
type IssueComment struct {
	UserID    types.UserID
	Comment   string
	CreatedAt time.Time
}

// Clone returns a deep copy of the issue
func (i *Issue) Clone() *Issue {
	copied := *i
	if i.ResolvedAt != nil {
		t := *i.ResolvedAt
		copied.ResolvedAt = &t
	}
	if i.DueDate != nil {
		t := *i.DueDate
		copied.DueDate = &t
	}
	if i.Comments != nil {
		copied.Comments = make([]IssueComment, len(i.Comments))
		copy(copied.Comments, i.Comments)
	}
	return &copied
}
