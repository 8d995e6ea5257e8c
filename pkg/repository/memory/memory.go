package memory

import (
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	project  *projectRepository
	risk     *riskRepository
	issue    *issueRepository
	task     *taskRepository
	auditLog *auditLogRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		project:  newProjectRepository(),
		risk:     newRiskRepository(),
		issue:    newIssueRepository(),
		task:     newTaskRepository(),
		auditLog: newAuditLogRepository(),
	}
}

func (m *Memory) Project() interfaces.ProjectRepository {
	return m.project
}

func (m *Memory) Risk() interfaces.RiskRepository {
	return m.risk
}

func (m *Memory) Issue() interfaces.IssueRepository {
	return m.issue
}

func (m *Memory) Task() interfaces.TaskRepository {
	return m.task
}

func (m *Memory) AuditLog() interfaces.AuditLogRepository {
	return m.auditLog
}

func (m *Memory) Name() string {
	return "memory"
}

func (m *Memory) Close() error {
	return nil
}
