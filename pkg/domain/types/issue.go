package types

// IssueSeverity describes how damaging an issue is
type IssueSeverity string

const (
	IssueSeverityCritical IssueSeverity = "Critical"
	IssueSeverityHigh     IssueSeverity = "High"
	IssueSeverityMedium   IssueSeverity = "Medium"
	IssueSeverityLow      IssueSeverity = "Low"
)

// IsValid checks if the issue severity is valid
func (s IssueSeverity) IsValid() bool {
	switch s {
	case IssueSeverityCritical,
		IssueSeverityHigh,
		IssueSeverityMedium,
		IssueSeverityLow:
		return true
	default:
		return false
	}
}

// String returns the string representation of the issue severity
func (s IssueSeverity) String() string {
	return string(s)
}

// ParseIssueSeverity parses a string into an IssueSeverity
func ParseIssueSeverity(s string) (IssueSeverity, error) {
	return parseEnum("issue severity", s, IssueSeverity.IsValid)
}

// IssuePriority describes how urgently an issue must be handled.
// It is independent of IssueSeverity.
type IssuePriority string

const (
	IssuePriorityUrgent IssuePriority = "Urgent"
	IssuePriorityHigh   IssuePriority = "High"
	IssuePriorityMedium IssuePriority = "Medium"
	IssuePriorityLow    IssuePriority = "Low"
)

// IsValid checks if the issue priority is valid
func (p IssuePriority) IsValid() bool {
	switch p {
	case IssuePriorityUrgent,
		IssuePriorityHigh,
		IssuePriorityMedium,
		IssuePriorityLow:
		return true
	default:
		return false
	}
}

// String returns the string representation of the issue priority
func (p IssuePriority) String() string {
	return string(p)
}

// ParseIssuePriority parses a string into an IssuePriority
func ParseIssuePriority(s string) (IssuePriority, error) {
	return parseEnum("issue priority", s, IssuePriority.IsValid)
}

// IssueStatus represents the lifecycle state of an issue
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "Open"
	IssueStatusInProgress IssueStatus = "In_Progress"
	IssueStatusResolved   IssueStatus = "Resolved"
	IssueStatusClosed     IssueStatus = "Closed"
)

// AllIssueStatuses returns all valid issue statuses
func AllIssueStatuses() []IssueStatus {
	return []IssueStatus{
		IssueStatusOpen,
		IssueStatusInProgress,
		IssueStatusResolved,
		IssueStatusClosed,
	}
}

// IsValid checks if the issue status is valid
func (s IssueStatus) IsValid() bool {
	switch s {
	case IssueStatusOpen,
		IssueStatusInProgress,
		IssueStatusResolved,
		IssueStatusClosed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the issue no longer needs work
func (s IssueStatus) IsTerminal() bool {
	return s == IssueStatusResolved || s == IssueStatusClosed
}

// Normalize returns the status, treating empty as IssueStatusOpen.
func (s IssueStatus) Normalize() IssueStatus {
	if s == "" {
		return IssueStatusOpen
	}
	return s
}

// String returns the string representation of the issue status
func (s IssueStatus) String() string {
	return string(s)
}

// ParseIssueStatus parses a string into an IssueStatus
func ParseIssueStatus(s string) (IssueStatus, error) {
	return parseEnum("issue status", s, IssueStatus.IsValid)
}

// IssueCategory classifies an issue. Empty is allowed.
type IssueCategory string

const (
	IssueCategoryTechnical IssueCategory = "Technical"
	IssueCategoryResource  IssueCategory = "Resource"
	IssueCategoryScope     IssueCategory = "Scope"
	IssueCategorySchedule  IssueCategory = "Schedule"
	IssueCategoryQuality   IssueCategory = "Quality"
	IssueCategoryOther     IssueCategory = "Other"
)

// IsValid checks if the issue category is valid. An unset category is valid.
func (c IssueCategory) IsValid() bool {
	switch c {
	case "",
		IssueCategoryTechnical,
		IssueCategoryResource,
		IssueCategoryScope,
		IssueCategorySchedule,
		IssueCategoryQuality,
		IssueCategoryOther:
		return true
	default:
		return false
	}
}

// String returns the string representation of the issue category
func (c IssueCategory) String() string {
	return string(c)
}

// ParseIssueCategory parses a string into an IssueCategory
func ParseIssueCategory(s string) (IssueCategory, error) {
	return parseEnum("issue category", s, IssueCategory.IsValid)
}
