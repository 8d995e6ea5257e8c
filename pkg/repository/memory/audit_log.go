package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

type auditLogRepository struct {
	mu   sync.RWMutex
	logs []*model.AuditLog
}

func newAuditLogRepository() *auditLogRepository {
	return &auditLogRepository{}
}

func copyAuditLog(log *model.AuditLog) *model.AuditLog {
	copied := *log
	if log.Changes != nil {
		copied.Changes = make(map[string]any, len(log.Changes))
		for k, v := range log.Changes {
			copied.Changes[k] = v
		}
	}
	return &copied
}

func (r *auditLogRepository) Create(ctx context.Context, log *model.AuditLog) error {
	if log.ID == "" {
		return goerr.New("audit log ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.logs = append(r.logs, copyAuditLog(log))
	return nil
}

func (r *auditLogRepository) List(ctx context.Context, limit int) ([]*model.AuditLog, error) {
	return r.filter(limit, func(*model.AuditLog) bool { return true }), nil
}

func (r *auditLogRepository) ListByEntity(ctx context.Context, entityType types.EntityType, entityID string, limit int) ([]*model.AuditLog, error) {
	return r.filter(limit, func(log *model.AuditLog) bool {
		return log.EntityType == entityType && log.EntityID == entityID
	}), nil
}

func (r *auditLogRepository) filter(limit int, match func(*model.AuditLog) bool) []*model.AuditLog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	logs := make([]*model.AuditLog, 0, len(r.logs))
	for _, log := range r.logs {
		if match(log) {
			logs = append(logs, copyAuditLog(log))
		}
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})

	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs
}
