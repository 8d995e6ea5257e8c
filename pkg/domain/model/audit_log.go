package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

// AuditLog records a write performed by a principal
type AuditLog struct {
	ID         string
	UserID     types.UserID
	UserEmail  string
	UserName   string
	UserRole   types.Role
	Action     types.AuditAction
	EntityType types.EntityType
	EntityID   string
	Changes    map[string]any // flat field snapshot, e.g. {"level": "High"}
	Timestamp  time.Time
}

// NewAuditLogID generates a new audit log ID
func NewAuditLogID() string {
	return uuid.NewString()
}
