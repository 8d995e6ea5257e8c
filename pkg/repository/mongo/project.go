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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// projectDocument is the stored form of model.Project. Budget is an embedded
// budgetDocument on current records and a bare number on records written
// before the structured budget existed; those also carry a top level spent.
type projectDocument struct {
	ID                  string          `bson:"_id"`
	CaseID              string          `bson:"case_id"`
	Name                string          `bson:"name"`
	Description         string          `bson:"description"`
	PMID                string          `bson:"pm_id"`
	Status              string          `bson:"status"`
	Health              string          `bson:"health"`
	Priority            string          `bson:"priority"`
	Type                string          `bson:"type"`
	Branch              string          `bson:"branch"`
	Progress            int             `bson:"progress"`
	PlannedStart        *time.Time      `bson:"planned_start,omitempty"`
	PlannedEnd          *time.Time      `bson:"planned_end,omitempty"`
	Milestones          []milestoneDoc  `bson:"milestones"`
	Budget              bson.RawValue   `bson:"budget"`
	Spent               *float64        `bson:"spent,omitempty"`
	TotalMilestones     int             `bson:"total_milestones"`
	CompletedMilestones int             `bson:"completed_milestones"`
	RiskSummary         riskSummaryDoc  `bson:"risk_summary"`
	IssueSummary        issueSummaryDoc `bson:"issue_summary"`
	CreatedBy           string          `bson:"created_by"`
	LastModifiedBy      string          `bson:"last_modified_by"`
	CreatedAt           time.Time       `bson:"created_at"`
	UpdatedAt           time.Time       `bson:"updated_at"`
	RiskSeq             int64           `bson:"risk_seq"`
	IssueSeq            int64           `bson:"issue_seq"`
	TaskSeq             int64           `bson:"task_seq"`
	Version             int64           `bson:"version"`
}

type milestoneDoc struct {
	Name       string     `bson:"name"`
	DueDate    *time.Time `bson:"due_date,omitempty"`
	Status     string     `bson:"status"`
	AssignedTo string     `bson:"assigned_to"`
}

type budgetDocument struct {
	Total     float64 `bson:"total"`
	Allocated float64 `bson:"allocated"`
	Spent     float64 `bson:"spent"`
	Variance  float64 `bson:"variance"`
	Currency  string  `bson:"currency"`
}

type riskSummaryDoc struct {
	Total    int `bson:"total"`
	Critical int `bson:"critical"`
	High     int `bson:"high"`
	Medium   int `bson:"medium"`
	Low      int `bson:"low"`
}

type issueSummaryDoc struct {
	Total    int `bson:"total"`
	Open     int `bson:"open"`
	Resolved int `bson:"resolved"`
}

func marshalRawValue(v interface{}) (bson.RawValue, error) {
	t, data, err := bson.MarshalValue(v)
	if err != nil {
		return bson.RawValue{}, goerr.Wrap(err, "failed to marshal bson value")
	}
	return bson.RawValue{Type: t, Value: data}, nil
}

func toProjectDocument(p *model.Project) (*projectDocument, error) {
	doc := &projectDocument{
		ID:                  p.ID.String(),
		CaseID:              p.CaseID,
		Name:                p.Name,
		Description:         p.Description,
		PMID:                string(p.PMID),
		Status:              string(p.Status),
		Health:              string(p.Health),
		Priority:            p.Priority,
		Type:                p.Type,
		Branch:              p.Branch,
		Progress:            p.Progress,
		PlannedStart:        p.PlannedStart,
		PlannedEnd:          p.PlannedEnd,
		Milestones:          make([]milestoneDoc, 0, len(p.Milestones)),
		TotalMilestones:     p.TotalMilestones,
		CompletedMilestones: p.CompletedMilestones,
		RiskSummary: riskSummaryDoc{
			Total:    p.RiskSummary.Total,
			Critical: p.RiskSummary.Critical,
			High:     p.RiskSummary.High,
			Medium:   p.RiskSummary.Medium,
			Low:      p.RiskSummary.Low,
		},
		IssueSummary: issueSummaryDoc{
			Total:    p.IssueSummary.Total,
			Open:     p.IssueSummary.Open,
			Resolved: p.IssueSummary.Resolved,
		},
		CreatedBy:      string(p.CreatedBy),
		LastModifiedBy: string(p.LastModifiedBy),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		RiskSeq:        p.RiskSeq,
		IssueSeq:       p.IssueSeq,
		TaskSeq:        p.TaskSeq,
		Version:        p.Version,
	}

	for _, m := range p.Milestones {
		doc.Milestones = append(doc.Milestones, milestoneDoc{
			Name:       m.Name,
			DueDate:    m.DueDate,
			Status:     string(m.Status),
			AssignedTo: string(m.AssignedTo),
		})
	}

	var budget interface{}
	if p.Legacy != nil {
		budget = p.Legacy.Budget
		spent := p.Legacy.Spent
		doc.Spent = &spent
	} else {
		budget = &budgetDocument{
			Total:     p.Budget.Total,
			Allocated: p.Budget.Allocated,
			Spent:     p.Budget.Spent,
			Variance:  p.Budget.Variance,
			Currency:  p.Budget.Currency,
		}
	}

	raw, err := marshalRawValue(budget)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode budget", goerr.V("id", p.ID))
	}
	doc.Budget = raw

	return doc, nil
}

func fromProjectDocument(doc *projectDocument) (*model.Project, error) {
	p := &model.Project{
		ID:                  types.ProjectID(doc.ID),
		CaseID:              doc.CaseID,
		Name:                doc.Name,
		Description:         doc.Description,
		PMID:                types.UserID(doc.PMID),
		Status:              types.ProjectStatus(doc.Status),
		Health:              types.ProjectHealth(doc.Health),
		Priority:            doc.Priority,
		Type:                doc.Type,
		Branch:              doc.Branch,
		Progress:            doc.Progress,
		PlannedStart:        doc.PlannedStart,
		PlannedEnd:          doc.PlannedEnd,
		TotalMilestones:     doc.TotalMilestones,
		CompletedMilestones: doc.CompletedMilestones,
		RiskSummary: model.RiskSummary{
			Total:    doc.RiskSummary.Total,
			Critical: doc.RiskSummary.Critical,
			High:     doc.RiskSummary.High,
			Medium:   doc.RiskSummary.Medium,
			Low:      doc.RiskSummary.Low,
		},
		IssueSummary: model.IssueSummary{
			Total:    doc.IssueSummary.Total,
			Open:     doc.IssueSummary.Open,
			Resolved: doc.IssueSummary.Resolved,
		},
		CreatedBy:      types.UserID(doc.CreatedBy),
		LastModifiedBy: types.UserID(doc.LastModifiedBy),
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
		RiskSeq:        doc.RiskSeq,
		IssueSeq:       doc.IssueSeq,
		TaskSeq:        doc.TaskSeq,
		Version:        doc.Version,
	}

	for _, m := range doc.Milestones {
		p.Milestones = append(p.Milestones, model.Milestone{
			Name:       m.Name,
			DueDate:    m.DueDate,
			Status:     types.MilestoneStatus(m.Status),
			AssignedTo: types.UserID(m.AssignedTo),
		})
	}

	switch doc.Budget.Type {
	case bson.TypeEmbeddedDocument:
		var b budgetDocument
		if err := doc.Budget.Unmarshal(&b); err != nil {
			return nil, goerr.Wrap(err, "failed to decode budget", goerr.V("id", doc.ID))
		}
		p.Budget = model.Budget{
			Total:     b.Total,
			Allocated: b.Allocated,
			Spent:     b.Spent,
			Variance:  b.Variance,
			Currency:  b.Currency,
		}
	case bson.TypeDouble, bson.TypeInt32, bson.TypeInt64:
		p.Legacy = &model.LegacyBudget{Budget: rawNumber(doc.Budget)}
		if doc.Spent != nil {
			p.Legacy.Spent = *doc.Spent
		}
	}

	return p, nil
}

func rawNumber(v bson.RawValue) float64 {
	if f, ok := v.DoubleOK(); ok {
		return f
	}
	if i, ok := v.Int32OK(); ok {
		return float64(i)
	}
	if i, ok := v.Int64OK(); ok {
		return float64(i)
	}
	return 0
}

type projectRepository struct {
	collection *mongo.Collection
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) (*model.Project, error) {
	if project.ID == "" {
		return nil, goerr.New("project ID is required")
	}

	now := time.Now().UTC()
	created := project.Clone()
	created.CreatedAt = now
	created.UpdatedAt = now
	created.Version = 1

	doc, err := toProjectDocument(created)
	if err != nil {
		return nil, err
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		// Duplicate case IDs are rejected by the unique index from EnsureIndexes
		if mongo.IsDuplicateKeyError(err) {
			return nil, goerr.Wrap(interfaces.ErrConflict, "project ID or case ID already in use",
				goerr.V("id", project.ID),
				goerr.V("case_id", project.CaseID))
		}
		return nil, goerr.Wrap(err, "failed to create project", goerr.V("id", project.ID))
	}

	return created, nil
}

func (r *projectRepository) Get(ctx context.Context, id types.ProjectID) (*model.Project, error) {
	var doc projectDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "project not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get project", goerr.V("id", id))
	}

	return fromProjectDocument(&doc)
}

func (r *projectRepository) List(ctx context.Context) ([]*model.Project, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *projectRepository) ListLegacy(ctx context.Context) ([]*model.Project, error) {
	return r.find(ctx, bson.M{"budget": bson.M{"$type": "number"}})
}

func (r *projectRepository) find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]*model.Project, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find projects")
	}
	defer cursor.Close(ctx)

	projects := make([]*model.Project, 0)
	for cursor.Next(ctx) {
		var doc projectDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode project")
		}
		p, err := fromProjectDocument(&doc)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate projects")
	}

	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) (*model.Project, error) {
	var existing struct {
		CreatedAt time.Time `bson:"created_at"`
	}
	if err := r.collection.FindOne(ctx, bson.M{"_id": project.ID.String()}).Decode(&existing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "project not found", goerr.V("id", project.ID))
		}
		return nil, goerr.Wrap(err, "failed to get project", goerr.V("id", project.ID))
	}

	updated := project.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	updated.Version = project.Version + 1

	doc, err := toProjectDocument(updated)
	if err != nil {
		return nil, err
	}

	// The replacement matches only while the stored version is the one the
	// caller read, so a concurrent writer makes MatchedCount zero.
	filter := bson.M{"_id": project.ID.String(), "version": project.Version}
	result, err := r.collection.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update project", goerr.V("id", project.ID))
	}
	if result.MatchedCount == 0 {
		return nil, goerr.Wrap(interfaces.ErrConflict, "project was modified concurrently",
			goerr.V("id", project.ID),
			goerr.V("expected_version", project.Version))
	}

	return updated, nil
}

func (r *projectRepository) Delete(ctx context.Context, id types.ProjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return goerr.Wrap(err, "failed to delete project", goerr.V("id", id))
	}
	if result.DeletedCount == 0 {
		return goerr.Wrap(interfaces.ErrNotFound, "project not found", goerr.V("id", id))
	}
	return nil
}

func (r *projectRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count projects")
	}
	return count, nil
}
