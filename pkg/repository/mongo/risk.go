package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type riskDocument struct {
	ID             string    `bson:"_id"`
	Code           string    `bson:"code"`
	ProjectID      string    `bson:"project_id"`
	Title          string    `bson:"title"`
	Description    string    `bson:"description"`
	Category       string    `bson:"category"`
	Probability    string    `bson:"probability"`
	Impact         string    `bson:"impact"`
	Score          int       `bson:"score"`
	Level          string    `bson:"level"`
	Status         string    `bson:"status"`
	MitigationPlan string    `bson:"mitigation_plan"`
	OwnerID        string    `bson:"owner_id"`
	CreatedBy      string    `bson:"created_by"`
	IdentifiedAt   time.Time `bson:"identified_at"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func toRiskDocument(r *model.Risk) *riskDocument {
	return &riskDocument{
		ID:             r.ID.String(),
		Code:           r.Code,
		ProjectID:      r.ProjectID.String(),
		Title:          r.Title,
		Description:    r.Description,
		Category:       string(r.Category),
		Probability:    string(r.Probability),
		Impact:         string(r.Impact),
		Score:          r.Score,
		Level:          string(r.Level),
		Status:         string(r.Status),
		MitigationPlan: r.MitigationPlan,
		OwnerID:        string(r.OwnerID),
		CreatedBy:      string(r.CreatedBy),
		IdentifiedAt:   r.IdentifiedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (d *riskDocument) toModel() *model.Risk {
	return &model.Risk{
		ID:             types.RiskID(d.ID),
		Code:           d.Code,
		ProjectID:      types.ProjectID(d.ProjectID),
		Title:          d.Title,
		Description:    d.Description,
		Category:       types.RiskCategory(d.Category),
		Probability:    types.Rating(d.Probability),
		Impact:         types.Rating(d.Impact),
		Score:          d.Score,
		Level:          types.RiskLevel(d.Level),
		Status:         types.RiskStatus(d.Status),
		MitigationPlan: d.MitigationPlan,
		OwnerID:        types.UserID(d.OwnerID),
		CreatedBy:      types.UserID(d.CreatedBy),
		IdentifiedAt:   d.IdentifiedAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type riskRepository struct {
	collection *mongo.Collection
}

func (r *riskRepository) Create(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	if risk.ID == "" {
		return nil, goerr.New("risk ID is required")
	}

	now := time.Now().UTC()
	created := risk.Clone()
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, toRiskDocument(created)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, goerr.Wrap(interfaces.ErrConflict, "risk already exists", goerr.V("id", risk.ID))
		}
		return nil, goerr.Wrap(err, "failed to create risk", goerr.V("id", risk.ID))
	}

	return created, nil
}

func (r *riskRepository) Get(ctx context.Context, id types.RiskID) (*model.Risk, error) {
	var doc riskDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "risk not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V("id", id))
	}

	return doc.toModel(), nil
}

func (r *riskRepository) List(ctx context.Context) ([]*model.Risk, error) {
	return r.find(ctx, bson.M{})
}

func (r *riskRepository) ListByProject(ctx context.Context, projectID types.ProjectID) ([]*model.Risk, error) {
	return r.find(ctx, bson.M{"project_id": projectID.String()})
}

func (r *riskRepository) find(ctx context.Context, filter interface{}) ([]*model.Risk, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find risks")
	}
	defer cursor.Close(ctx)

	var docs []riskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, goerr.Wrap(err, "failed to decode risks")
	}

	risks := make([]*model.Risk, 0, len(docs))
	for i := range docs {
		risks = append(risks, docs[i].toModel())
	}
	return risks, nil
}

func (r *riskRepository) CountByProject(ctx context.Context, projectID types.ProjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"project_id": projectID.String()})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count risks", goerr.V("project_id", projectID))
	}
	return count, nil
}

func (r *riskRepository) Update(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	var existing riskDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": risk.ID.String()}).Decode(&existing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "risk not found", goerr.V("id", risk.ID))
		}
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V("id", risk.ID))
	}

	updated := risk.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": risk.ID.String()}, toRiskDocument(updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update risk", goerr.V("id", risk.ID))
	}

	return updated, nil
}

func (r *riskRepository) Delete(ctx context.Context, id types.RiskID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return goerr.Wrap(err, "failed to delete risk", goerr.V("id", id))
	}
	if result.DeletedCount == 0 {
		return goerr.Wrap(interfaces.ErrNotFound, "risk not found", goerr.V("id", id))
	}
	return nil
}
