package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type riskDocument struct {
	ID             string    `firestore:"id"`
	Code           string    `firestore:"code"`
	ProjectID      string    `firestore:"project_id"`
	Title          string    `firestore:"title"`
	Description    string    `firestore:"description"`
	Category       string    `firestore:"category"`
	Probability    string    `firestore:"probability"`
	Impact         string    `firestore:"impact"`
	Score          int       `firestore:"score"`
	Level          string    `firestore:"level"`
	Status         string    `firestore:"status"`
	MitigationPlan string    `firestore:"mitigation_plan"`
	OwnerID        string    `firestore:"owner_id"`
	CreatedBy      string    `firestore:"created_by"`
	IdentifiedAt   time.Time `firestore:"identified_at"`
	CreatedAt      time.Time `firestore:"created_at"`
	UpdatedAt      time.Time `firestore:"updated_at"`
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

func fromRiskDocument(doc *riskDocument) *model.Risk {
	return &model.Risk{
		ID:             types.RiskID(doc.ID),
		Code:           doc.Code,
		ProjectID:      types.ProjectID(doc.ProjectID),
		Title:          doc.Title,
		Description:    doc.Description,
		Category:       types.RiskCategory(doc.Category),
		Probability:    types.Rating(doc.Probability),
		Impact:         types.Rating(doc.Impact),
		Score:          doc.Score,
		Level:          types.RiskLevel(doc.Level),
		Status:         types.RiskStatus(doc.Status),
		MitigationPlan: doc.MitigationPlan,
		OwnerID:        types.UserID(doc.OwnerID),
		CreatedBy:      types.UserID(doc.CreatedBy),
		IdentifiedAt:   doc.IdentifiedAt,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

type riskRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRiskRepository(client *firestore.Client) *riskRepository {
	return &riskRepository{
		client: client,
	}
}

func (r *riskRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, "risks"))
}

func (r *riskRepository) Create(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	if risk.ID == "" {
		return nil, goerr.New("risk ID is required")
	}

	now := time.Now().UTC()
	created := risk.Clone()
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.collection().Doc(created.ID.String()).Create(ctx, toRiskDocument(created)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(interfaces.ErrConflict, "risk already exists", goerr.V("id", risk.ID))
		}
		return nil, goerr.Wrap(err, "failed to create risk", goerr.V("id", risk.ID))
	}

	return created, nil
}

func (r *riskRepository) Get(ctx context.Context, id types.RiskID) (*model.Risk, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "risk not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V("id", id))
	}

	var riskDoc riskDocument
	if err := doc.DataTo(&riskDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal risk", goerr.V("id", id))
	}

	return fromRiskDocument(&riskDoc), nil
}

func (r *riskRepository) List(ctx context.Context) ([]*model.Risk, error) {
	return r.list(ctx, r.collection().Query)
}

func (r *riskRepository) ListByProject(ctx context.Context, projectID types.ProjectID) ([]*model.Risk, error) {
	return r.list(ctx, r.collection().Where("project_id", "==", projectID.String()))
}

func (r *riskRepository) list(ctx context.Context, q firestore.Query) ([]*model.Risk, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	risks := make([]*model.Risk, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate risks")
		}

		var riskDoc riskDocument
		if err := doc.DataTo(&riskDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal risk", goerr.V("docID", doc.Ref.ID))
		}
		risks = append(risks, fromRiskDocument(&riskDoc))
	}

	return risks, nil
}

func (r *riskRepository) CountByProject(ctx context.Context, projectID types.ProjectID) (int64, error) {
	return countQuery(ctx, r.collection().Where("project_id", "==", projectID.String()))
}

func (r *riskRepository) Update(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	docRef := r.collection().Doc(risk.ID.String())

	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "risk not found", goerr.V("id", risk.ID))
		}
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V("id", risk.ID))
	}

	var existing riskDocument
	if err := doc.DataTo(&existing); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal risk", goerr.V("id", risk.ID))
	}

	updated := risk.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := docRef.Set(ctx, toRiskDocument(updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update risk", goerr.V("id", risk.ID))
	}

	return updated, nil
}

func (r *riskRepository) Delete(ctx context.Context, id types.RiskID) error {
	docRef := r.collection().Doc(id.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "risk not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get risk", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete risk", goerr.V("id", id))
	}

	return nil
}
