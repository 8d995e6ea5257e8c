package mongo

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type auditLogDocument struct {
	ID         string                 `bson:"_id"`
	UserID     string                 `bson:"user_id"`
	UserEmail  string                 `bson:"user_email"`
	UserName   string                 `bson:"user_name"`
	UserRole   string                 `bson:"user_role"`
	Action     string                 `bson:"action"`
	EntityType string                 `bson:"entity_type"`
	EntityID   string                 `bson:"entity_id"`
	Changes    map[string]interface{} `bson:"changes,omitempty"`
	Timestamp  time.Time              `bson:"timestamp"`
}

type auditLogRepository struct {
	collection *mongo.Collection
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

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to create audit log", goerr.V("id", log.ID))
	}
	return nil
}

func (r *auditLogRepository) List(ctx context.Context, limit int) ([]*model.AuditLog, error) {
	return r.find(ctx, bson.M{}, limit)
}

func (r *auditLogRepository) ListByEntity(ctx context.Context, entityType types.EntityType, entityID string, limit int) ([]*model.AuditLog, error) {
	return r.find(ctx, bson.M{"entity_type": string(entityType), "entity_id": entityID}, limit)
}

func (r *auditLogRepository) find(ctx context.Context, filter bson.M, limit int) ([]*model.AuditLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find audit logs")
	}
	defer cursor.Close(ctx)

	var docs []auditLogDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, goerr.Wrap(err, "failed to decode audit logs")
	}

	logs := make([]*model.AuditLog, 0, len(docs))
	for _, d := range docs {
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
