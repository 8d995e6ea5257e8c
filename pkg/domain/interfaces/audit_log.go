package interfaces

import (
	"context"

	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

type AuditLogRepository interface {
	// Create appends an audit entry
	Create(ctx context.Context, log *model.AuditLog) error

	// List returns the newest entries first, at most limit entries
	List(ctx context.Context, limit int) ([]*model.AuditLog, error)

	// ListByEntity returns the history of one entity, newest first
	ListByEntity(ctx context.Context, entityType types.EntityType, entityID string, limit int) ([]*model.AuditLog, error)
}
