package types

// AuditAction is the kind of operation recorded in the audit log
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

// EntityType is the kind of record an audit entry refers to
type EntityType string

const (
	EntityTypeProject EntityType = "Project"
	EntityTypeRisk    EntityType = "Risk"
	EntityTypeIssue   EntityType = "Issue"
	EntityTypeTask    EntityType = "Task"
)

// IsValid checks if the entity type is valid
func (e EntityType) IsValid() bool {
	switch e {
	case EntityTypeProject, EntityTypeRisk, EntityTypeIssue, EntityTypeTask:
		return true
	}
	return false
}

// ParseEntityType parses a string into an EntityType
func ParseEntityType(s string) (EntityType, error) {
	return parseEnum("entity type", s, EntityType.IsValid)
}
