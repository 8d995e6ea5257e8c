package interfaces

import "github.com/m-mizutani/goerr/v2"

// Errors shared by every repository backend
var (
	ErrNotFound = goerr.New("not found")
	ErrConflict = goerr.New("version conflict")
)

// Repository defines the interface for data persistence
type Repository interface {
	Project() ProjectRepository
	Risk() RiskRepository
	Issue() IssueRepository
	Task() TaskRepository
	AuditLog() AuditLogRepository

	// Name returns the backend name, e.g. "memory"
	Name() string
	Close() error
}
