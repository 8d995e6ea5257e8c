package types

// ProjectStatus represents the delivery state of a project
type ProjectStatus string

const (
	ProjectStatusPlanning   ProjectStatus = "Planning"
	ProjectStatusInProgress ProjectStatus = "In_Progress"
	ProjectStatusOnHold     ProjectStatus = "On_Hold"
	ProjectStatusCompleted  ProjectStatus = "Completed"
	ProjectStatusCancelled  ProjectStatus = "Cancelled"

	// legacyProjectStatusInProgress is the spelling used by records before v3
	legacyProjectStatusInProgress ProjectStatus = "In Progress"
)

// AllProjectStatuses returns all valid project statuses
func AllProjectStatuses() []ProjectStatus {
	return []ProjectStatus{
		ProjectStatusPlanning,
		ProjectStatusInProgress,
		ProjectStatusOnHold,
		ProjectStatusCompleted,
		ProjectStatusCancelled,
	}
}

// IsValid checks if the project status is valid
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusPlanning,
		ProjectStatusInProgress,
		ProjectStatusOnHold,
		ProjectStatusCompleted,
		ProjectStatusCancelled:
		return true
	default:
		return false
	}
}

// Normalize maps empty to Planning and the legacy "In Progress" spelling to In_Progress.
func (s ProjectStatus) Normalize() ProjectStatus {
	switch s {
	case "":
		return ProjectStatusPlanning
	case legacyProjectStatusInProgress:
		return ProjectStatusInProgress
	default:
		return s
	}
}

// String returns the string representation of the project status
func (s ProjectStatus) String() string {
	return string(s)
}

// ParseProjectStatus parses a string into a ProjectStatus
func ParseProjectStatus(s string) (ProjectStatus, error) {
	return parseEnum("project status", s, ProjectStatus.IsValid)
}

// ProjectHealth is the traffic-light state of a project
type ProjectHealth string

const (
	ProjectHealthOnTrack  ProjectHealth = "On_Track"
	ProjectHealthAtRisk   ProjectHealth = "At_Risk"
	ProjectHealthOffTrack ProjectHealth = "Off_Track"
)

// IsValid checks if the project health is valid
func (h ProjectHealth) IsValid() bool {
	switch h {
	case ProjectHealthOnTrack,
		ProjectHealthAtRisk,
		ProjectHealthOffTrack:
		return true
	default:
		return false
	}
}

// Normalize returns the health, treating empty as ProjectHealthOnTrack.
func (h ProjectHealth) Normalize() ProjectHealth {
	if h == "" {
		return ProjectHealthOnTrack
	}
	return h
}

// String returns the string representation of the project health
func (h ProjectHealth) String() string {
	return string(h)
}

// ParseProjectHealth parses a string into a ProjectHealth
func ParseProjectHealth(s string) (ProjectHealth, error) {
	return parseEnum("project health", s, ProjectHealth.IsValid)
}

// MilestoneStatus represents the state of a project milestone
type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "Pending"
	MilestoneStatusInProgress MilestoneStatus = "In_Progress"
	MilestoneStatusCompleted  MilestoneStatus = "Completed"
	MilestoneStatusDelayed    MilestoneStatus = "Delayed"
)

// IsValid checks if the milestone status is valid
func (s MilestoneStatus) IsValid() bool {
	switch s {
	case MilestoneStatusPending,
		MilestoneStatusInProgress,
		MilestoneStatusCompleted,
		MilestoneStatusDelayed:
		return true
	default:
		return false
	}
}

// Normalize returns the status, treating empty as MilestoneStatusPending.
func (s MilestoneStatus) Normalize() MilestoneStatus {
	if s == "" {
		return MilestoneStatusPending
	}
	return s
}

// String returns the string representation of the milestone status
func (s MilestoneStatus) String() string {
	return string(s)
}

// ParseMilestoneStatus parses a string into a MilestoneStatus
func ParseMilestoneStatus(s string) (MilestoneStatus, error) {
	return parseEnum("milestone status", s, MilestoneStatus.IsValid)
}
