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

type issueDocument struct {
	ID          string     `firestore:"id"`
	Code        string     `firestore:"code"`
	ProjectID   string     `firestore:"project_id"`
	Title       string     `firestore:"title"`
	Description string     `firestore:"description"`
	Category    string     `firestore:"category"`
	Severity    string     `firestore:"severity"`
	Priority    string     `firestore:"priority"`
	Status      string     `firestore:"status"`
	AssignedTo  string     `firestore:"assigned_to"`
	ReportedBy  string     `firestore:"reported_by"`
	Resolution  string     `firestore:"resolution"`
	ResolvedAt  *time.Time `firestore:"resolved_at"`
	DueDate     *time.Time `firestore:"due_date"`
	CreatedAt   time.Time  `firestore:"created_at"`
	UpdatedAt   time.Time  `firestore:"updated_at"`

	Comments []issueCommentDoc `firestore:"comments,omitempty"`
}

type issueCommentDoc struct {
	UserID    string    `firestore:"user_id"`
	Comment   string    `firestore:"comment"`
	CreatedAt time.Time `firestore:"created_at"`
}

func toIssueCommentDocs(comments []model.IssueComment) []issueCommentDoc {
	if len(comments) == 0 {
		return nil
	}
	docs := make([]issueCommentDoc, 0, len(comments))
	for _, c := range comments {
		docs = append(docs, issueCommentDoc{
			UserID:    string(c.UserID),
			Comment:   c.Comment,
			CreatedAt: c.CreatedAt,
		})
	}
	return docs
}

func fromIssueCommentDocs(docs []issueCommentDoc) []model.IssueComment {
	if len(docs) == 0 {
		return nil
	}
	comments := make([]model.IssueComment, 0, len(docs))
	for _, d := range docs {
		comments = append(comments, model.IssueComment{
			UserID:    types.UserID(d.UserID),
			Comment:   d.Comment,
			CreatedAt: d.CreatedAt,
		})
	}
	return comments
}

func toIssueDocument(i *model.Issue) *issueDocument {
	return &issueDocument{
		ID:          i.ID.String(),
		Code:        i.Code,
		ProjectID:   i.ProjectID.String(),
		Title:       i.Title,
		Description: i.Description,
		Category:    string(i.Category),
		Severity:    string(i.Severity),
		Priority:    string(i.Priority),
		Status:      string(i.Status),
		AssignedTo:  string(i.AssignedTo),
		ReportedBy:  string(i.ReportedBy),
		Resolution:  i.Resolution,
		ResolvedAt:  i.ResolvedAt,
		DueDate:     i.DueDate,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
		Comments:    toIssueCommentDocs(i.Comments),
	}
}

func fromIssueDocument(doc *issueDocument) *model.Issue {
	return &model.Issue{
		ID:          types.IssueID(doc.ID),
		Code:        doc.Code,
		ProjectID:   types.ProjectID(doc.ProjectID),
		Title:       doc.Title,
		Description: doc.Description,
		Category:    types.IssueCategory(doc.Category),
		Severity:    types.IssueSeverity(doc.Severity),
		Priority:    types.IssuePriority(doc.Priority),
		Status:      types.IssueStatus(doc.Status),
		AssignedTo:  types.UserID(doc.AssignedTo),
		ReportedBy:  types.UserID(doc.ReportedBy),
		Resolution:  doc.Resolution,
		ResolvedAt:  doc.ResolvedAt,
		DueDate:     doc.DueDate,
		Comments:    fromIssueCommentDocs(doc.Comments),
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

type issueRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newIssueRepository(client *firestore.Client) *issueRepository {
	return &issueRepository{
		client: client,
	}
}

func (r *issueRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, "issues"))
}

func (r *issueRepository) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	if issue.ID == "" {
		return nil, goerr.New("issue ID is required")
	}

	now := time.Now().UTC()
	created := issue.Clone()
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.collection().Doc(created.ID.String()).Create(ctx, toIssueDocument(created)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(interfaces.ErrConflict, "issue already exists", goerr.V("id", issue.ID))
		}
		return nil, goerr.Wrap(err, "failed to create issue", goerr.V("id", issue.ID))
	}

	return created, nil
}

func (r *issueRepository) Get(ctx context.Context, id types.IssueID) (*model.Issue, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get issue", goerr.V("id", id))
	}

	var issueDoc issueDocument
	if err := doc.DataTo(&issueDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal issue", goerr.V("id", id))
	}

	return fromIssueDocument(&issueDoc), nil
}

func (r *issueRepository) List(ctx context.Context) ([]*model.Issue, error) {
	return r.list(ctx, r.collection().Query)
}

func (r *issueRepository) ListByProject(ctx context.Context, projectID types.ProjectID) ([]*model.Issue, error) {
	return r.list(ctx, r.collection().Where("project_id", "==", projectID.String()))
}

func (r *issueRepository) list(ctx context.Context, q firestore.Query) ([]*model.Issue, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	issues := make([]*model.Issue, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate issues")
		}

		var issueDoc issueDocument
		if err := doc.DataTo(&issueDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal issue", goerr.V("docID", doc.Ref.ID))
		}
		issues = append(issues, fromIssueDocument(&issueDoc))
	}

	return issues, nil
}

func (r *issueRepository) CountByProject(ctx context.Context, projectID types.ProjectID) (int64, error) {
	return countQuery(ctx, r.collection().Where("project_id", "==", projectID.String()))
}

func (r *issueRepository) Update(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	docRef := r.collection().Doc(issue.ID.String())

	// Comments are carried over inside the transaction so that a concurrent
	// AddComment is never overwritten.
	var updated *model.Issue
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", issue.ID))
			}
			return goerr.Wrap(err, "failed to get issue", goerr.V("id", issue.ID))
		}

		var existing issueDocument
		if err := doc.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to unmarshal issue", goerr.V("id", issue.ID))
		}

		updated = issue.Clone()
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = time.Now().UTC()
		updated.Comments = fromIssueCommentDocs(existing.Comments)

		return tx.Set(docRef, toIssueDocument(updated))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update issue", goerr.V("id", issue.ID))
	}

	return updated, nil
}

func (r *issueRepository) AddComment(ctx context.Context, id types.IssueID, comment model.IssueComment) (*model.Issue, error) {
	entry := map[string]interface{}{
		"user_id":    string(comment.UserID),
		"comment":    comment.Comment,
		"created_at": comment.CreatedAt,
	}

	_, err := r.collection().Doc(id.String()).Update(ctx, []firestore.Update{
		{Path: "comments", Value: firestore.ArrayUnion(entry)},
		{Path: "updated_at", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to add comment", goerr.V("id", id))
	}

	return r.Get(ctx, id)
}

func (r *issueRepository) Delete(ctx context.Context, id types.IssueID) error {
	docRef := r.collection().Doc(id.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get issue", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete issue", goerr.V("id", id))
	}

	return nil
}
