package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrProjectNotFound = errors.New("project not found")
	ErrRiskNotFound    = errors.New("risk not found")
	ErrIssueNotFound   = errors.New("issue not found")
	ErrTaskNotFound    = errors.New("task not found")

	// Input errors
	ErrValidation = errors.New("validation failed")

	// Access control errors
	ErrPermissionDenied = errors.New("permission denied")

	// Concurrency errors
	ErrConflict = errors.New("project was modified concurrently")
)

// Context keys for error values
const (
	ProjectIDKey  = "project_id"
	RiskIDKey     = "risk_id"
	IssueIDKey    = "issue_id"
	TaskIDKey     = "task_id"
	CapabilityKey = "capability"
	FieldKey      = "field"
)
