package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// projectDocument is the stored form of model.Project. Budget holds a
// budgetDocument map on current records and a bare number on records that
// predate the structured budget, in which case Spent carries the legacy
// spent value.
type projectDocument struct {
	ID                  string          `firestore:"id"`
	CaseID              string          `firestore:"case_id"`
	Name                string          `firestore:"name"`
	Description         string          `firestore:"description"`
	PMID                string          `firestore:"pm_id"`
	Status              string          `firestore:"status"`
	Health              string          `firestore:"health"`
	Priority            string          `firestore:"priority"`
	Type                string          `firestore:"type"`
	Branch              string          `firestore:"branch"`
	Progress            int             `firestore:"progress"`
	PlannedStart        *time.Time      `firestore:"planned_start"`
	PlannedEnd          *time.Time      `firestore:"planned_end"`
	Milestones          []milestoneDoc  `firestore:"milestones"`
	Budget              interface{}     `firestore:"budget"`
	Spent               interface{}     `firestore:"spent,omitempty"`
	TotalMilestones     int             `firestore:"total_milestones"`
	CompletedMilestones int             `firestore:"completed_milestones"`
	RiskSummary         riskSummaryDoc  `firestore:"risk_summary"`
	IssueSummary        issueSummaryDoc `firestore:"issue_summary"`
	CreatedBy           string          `firestore:"created_by"`
	LastModifiedBy      string          `firestore:"last_modified_by"`
	CreatedAt           time.Time       `firestore:"created_at"`
	UpdatedAt           time.Time       `firestore:"updated_at"`
	RiskSeq             int64           `firestore:"risk_seq"`
	IssueSeq            int64           `firestore:"issue_seq"`
	TaskSeq             int64           `firestore:"task_seq"`
	Version             int64           `firestore:"version"`
}

type milestoneDoc struct {
	Name       string     `firestore:"name"`
	DueDate    *time.Time `firestore:"due_date"`
	Status     string     `firestore:"status"`
	AssignedTo string     `firestore:"assigned_to"`
}

type budgetDocument struct {
	Total     float64 `firestore:"total"`
	Allocated float64 `firestore:"allocated"`
	Spent     float64 `firestore:"spent"`
	Variance  float64 `firestore:"variance"`
	Currency  string  `firestore:"currency"`
}

type riskSummaryDoc struct {
	Total    int `firestore:"total"`
	Critical int `firestore:"critical"`
	High     int `firestore:"high"`
	Medium   int `firestore:"medium"`
	Low      int `firestore:"low"`
}

type issueSummaryDoc struct {
	Total    int `firestore:"total"`
	Open     int `firestore:"open"`
	Resolved int `firestore:"resolved"`
}

func toProjectDocument(p *model.Project) *projectDocument {
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

	if p.Legacy != nil {
		doc.Budget = p.Legacy.Budget
		doc.Spent = p.Legacy.Spent
	} else {
		doc.Budget = &budgetDocument{
			Total:     p.Budget.Total,
			Allocated: p.Budget.Allocated,
			Spent:     p.Budget.Spent,
			Variance:  p.Budget.Variance,
			Currency:  p.Budget.Currency,
		}
	}

	return doc
}

func fromProjectDocument(doc *projectDocument) *model.Project {
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

	switch v := doc.Budget.(type) {
	case map[string]interface{}:
		p.Budget = model.Budget{
			Total:     toFloat(v["total"]),
			Allocated: toFloat(v["allocated"]),
			Spent:     toFloat(v["spent"]),
			Variance:  toFloat(v["variance"]),
		}
		if currency, ok := v["currency"].(string); ok {
			p.Budget.Currency = currency
		}
	case int64, float64:
		p.Legacy = &model.LegacyBudget{
			Budget: toFloat(v),
			Spent:  toFloat(doc.Spent),
		}
	}

	return p
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}

type projectRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newProjectRepository(client *firestore.Client) *projectRepository {
	return &projectRepository{
		client: client,
	}
}

func (r *projectRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, "projects"))
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

	// The case ID lookup and the insert share one transaction, so two
	// creates racing for the same case ID cannot both commit.
	docRef := r.collection().Doc(created.ID.String())
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if created.CaseID != "" {
			iter := tx.Documents(r.collection().Where("case_id", "==", created.CaseID).Limit(1))
			defer iter.Stop()

			_, err := iter.Next()
			if err == nil {
				return goerr.Wrap(interfaces.ErrConflict, "case ID already in use", goerr.V("case_id", created.CaseID))
			}
			if err != iterator.Done {
				return goerr.Wrap(err, "failed to look up case ID", goerr.V("case_id", created.CaseID))
			}
		}
		return tx.Create(docRef, toProjectDocument(created))
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrConflict) {
			return nil, err
		}
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(interfaces.ErrConflict, "project already exists", goerr.V("id", project.ID))
		}
		return nil, goerr.Wrap(err, "failed to create project", goerr.V("id", project.ID))
	}

	return created, nil
}

func (r *projectRepository) Get(ctx context.Context, id types.ProjectID) (*model.Project, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "project not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get project", goerr.V("id", id))
	}

	var projectDoc projectDocument
	if err := doc.DataTo(&projectDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal project", goerr.V("id", id))
	}

	return fromProjectDocument(&projectDoc), nil
}

func (r *projectRepository) List(ctx context.Context) ([]*model.Project, error) {
	return r.list(ctx, r.collection().OrderBy("created_at", firestore.Asc), func(*model.Project) bool { return true })
}

func (r *projectRepository) ListLegacy(ctx context.Context) ([]*model.Project, error) {
	// Firestore cannot filter on value type, so legacy records are picked
	// out while decoding.
	return r.list(ctx, r.collection().Query, func(p *model.Project) bool { return p.Legacy != nil })
}

func (r *projectRepository) list(ctx context.Context, q firestore.Query, keep func(*model.Project) bool) ([]*model.Project, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	projects := make([]*model.Project, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate projects")
		}

		var projectDoc projectDocument
		if err := doc.DataTo(&projectDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal project", goerr.V("docID", doc.Ref.ID))
		}

		p := fromProjectDocument(&projectDoc)
		if keep(p) {
			projects = append(projects, p)
		}
	}

	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) (*model.Project, error) {
	docRef := r.collection().Doc(project.ID.String())

	var updated *model.Project
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "project not found", goerr.V("id", project.ID))
			}
			return goerr.Wrap(err, "failed to get project", goerr.V("id", project.ID))
		}

		var existing projectDocument
		if err := doc.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to unmarshal project", goerr.V("id", project.ID))
		}
		if existing.Version != project.Version {
			return goerr.Wrap(interfaces.ErrConflict, "project was modified concurrently",
				goerr.V("id", project.ID),
				goerr.V("expected_version", project.Version),
				goerr.V("actual_version", existing.Version))
		}

		updated = project.Clone()
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = time.Now().UTC()
		updated.Version = existing.Version + 1

		return tx.Set(docRef, toProjectDocument(updated))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update project", goerr.V("id", project.ID))
	}

	return updated, nil
}

func (r *projectRepository) Delete(ctx context.Context, id types.ProjectID) error {
	docRef := r.collection().Doc(id.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "project not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get project", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete project", goerr.V("id", id))
	}

	return nil
}

func (r *projectRepository) Count(ctx context.Context) (int64, error) {
	return countQuery(ctx, r.collection().Query)
}

func countQuery(ctx context.Context, q firestore.Query) (int64, error) {
	results, err := q.NewAggregationQuery().WithCount("count").Get(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to run count aggregation")
	}

	count, ok := results["count"]
	if !ok {
		return 0, goerr.New("count aggregation returned no result")
	}

	v, ok := count.(*firestorepb.Value)
	if !ok {
		return 0, goerr.New("unexpected count aggregation type", goerr.V("type", count))
	}
	return v.GetIntegerValue(), nil
}
