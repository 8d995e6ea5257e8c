package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"google.golang.org/api/iterator"
)

type auditLogDocument struct {
	ID         string                 `firestore:"id"`
	UserID     string                 `firestore:"user_id"`
	UserEmail  string                 `firestore:"user_email"`
	UserName   string                 `firestore:"user_name"`
	UserRole   string                 `firestore:"user_role"`
	Action     string                 `firestore:"action"`
	EntityType string                 `firestore:"entity_type"`
	EntityID   string                 `firestore:"entity_id"`
	Changes    map[string]interface{} `firestore:"changes"`
	Timestamp  time.Time              `firestore:"timestamp"`
}

type auditLogRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAuditLogRepository(client *firestore.Client) *auditLogRepository {
	return &auditLogRepository{
		client: client,
	}
}

func (r *auditLogRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, "audit_logs"))
}

func (r *auditLogRepository) Create(ctx context.Context, log *model.AuditLog) error {
	if log.ID == "" {
		return goerr.New("audit log ID is required")
	}

	doc := &auditLogDocument{
		ID:         log.ID,
		UserID:     string(log.UserID),
		UserEmail:  log.UserEmail,
		UserName:   log.UserName,
		UserRole:   string(log.UserRole),
		Action:     string(log.Action),
		EntityType: string(log.EntityType),
		EntityID:   log.EntityID,
		Changes:    log.Changes,
		Timestamp:  log.Timestamp,
	}

	if _, err := r.collection().Doc(log.ID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to create audit log", goerr.V("id", log.ID))
	}
	return nil
}

func (r *auditLogRepository) List(ctx context.Context, limit int) ([]*model.AuditLog, error) {
	return r.query(ctx, r.collection().Query, limit)
}

// ListByEntity requires the composite index on (entity_type, entity_id, timestamp desc)
func (r *auditLogRepository) ListByEntity(ctx context.Context, entityType types.EntityType, entityID string, limit int) ([]*model.AuditLog, error) {
	q := r.collection().
		Where("entity_type", "==", string(entityType)).
		Where("entity_id", "==", entityID)
	return r.query(ctx, q, limit)
}

func (r *auditLogRepository) query(ctx context.Context, q firestore.Query, limit int) ([]*model.AuditLog, error) {
	q = q.OrderBy("timestamp", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	logs := make([]*model.AuditLog, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate audit logs")
		}

		var d auditLogDocument
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal audit log", goerr.V("docID", doc.Ref.ID))
		}

		logs = append(logs, &model.AuditLog{
			ID:         d.ID,
			UserID:     types.UserID(d.UserID),
			UserEmail:  d.UserEmail,
			UserName:   d.UserName,
			UserRole:   types.Role(d.UserRole),
			Action:     types.AuditAction(d.Action),
			EntityType: types.EntityType(d.EntityType),
			EntityID:   d.EntityID,
			Changes:    d.Changes,
			Timestamp:  d.Timestamp,
		})
	}

	return logs, nil
}
