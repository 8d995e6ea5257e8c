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

type issueDocument struct {
	ID          string     `bson:"_id"`
	Code        string     `bson:"code"`
	ProjectID   string     `bson:"project_id"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	Category    string     `bson:"category"`
	Severity    string     `bson:"severity"`
	Priority    string     `bson:"priority"`
	Status      string     `bson:"status"`
	AssignedTo  string     `bson:"assigned_to"`
	ReportedBy  string     `bson:"reported_by"`
	Resolution  string     `bson:"resolution"`
	ResolvedAt  *time.Time `bson:"resolved_at,omitempty"`
	DueDate     *time.Time `bson:"due_date,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`

	Comments []issueCommentDocument `bson:"comments,omitempty"`
}

type issueCommentDocument struct {
	UserID    string    `bson:"user_id"`
	Comment   string    `bson:"comment"`
	CreatedAt time.Time `bson:"created_at"`
}

func toIssueCommentDocument(c model.IssueComment) issueCommentDocument {
	return issueCommentDocument{
		UserID:    string(c.UserID),
		Comment:   c.Comment,
		CreatedAt: c.CreatedAt,
	}
}

func toIssueDocument(i *model.Issue) *issueDocument {
	doc := &issueDocument{
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
	}
	for _, c := range i.Comments {
		doc.Comments = append(doc.Comments, toIssueCommentDocument(c))
	}
	return doc
}

func (d *issueDocument) toModel() *model.Issue {
	issue := &model.Issue{
		ID:          types.IssueID(d.ID),
		Code:        d.Code,
		ProjectID:   types.ProjectID(d.ProjectID),
		Title:       d.Title,
		Description: d.Description,
		Category:    types.IssueCategory(d.Category),
		Severity:    types.IssueSeverity(d.Severity),
		Priority:    types.IssuePriority(d.Priority),
		Status:      types.IssueStatus(d.Status),
		AssignedTo:  types.UserID(d.AssignedTo),
		ReportedBy:  types.UserID(d.ReportedBy),
		Resolution:  d.Resolution,
		ResolvedAt:  d.ResolvedAt,
		DueDate:     d.DueDate,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, c := range d.Comments {
		issue.Comments = append(issue.Comments, model.IssueComment{
			UserID:    types.UserID(c.UserID),
			Comment:   c.Comment,
			CreatedAt: c.CreatedAt,
		})
	}
	return issue
}

type issueRepository struct {
	collection *mongo.Collection
}

func (r *issueRepository) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	if issue.ID == "" {
		return nil, goerr.New("issue ID is required")
	}

	now := time.Now().UTC()
	created := issue.Clone()
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, toIssueDocument(created)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, goerr.Wrap(interfaces.ErrConflict, "issue already exists", goerr.V("id", issue.ID))
		}
		return nil, goerr.Wrap(err, "failed to create issue", goerr.V("id", issue.ID))
	}

	return created, nil
}

func (r *issueRepository) Get(ctx context.Context, id types.IssueID) (*model.Issue, error) {
	var doc issueDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get issue", goerr.V("id", id))
	}

	return doc.toModel(), nil
}

func (r *issueRepository) List(ctx context.Context) ([]*model.Issue, error) {
	return r.find(ctx, bson.M{})
}

func (r *issueRepository) ListByProject(ctx context.Context, projectID types.ProjectID) ([]*model.Issue, error) {
	return r.find(ctx, bson.M{"project_id": projectID.String()})
}

func (r *issueRepository) find(ctx context.Context, filter interface{}) ([]*model.Issue, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find issues")
	}
	defer cursor.Close(ctx)

	var docs []issueDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, goerr.Wrap(err, "failed to decode issues")
	}

	issues := make([]*model.Issue, 0, len(docs))
	for i := range docs {
		issues = append(issues, docs[i].toModel())
	}
	return issues, nil
}

func (r *issueRepository) CountByProject(ctx context.Context, projectID types.ProjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"project_id": projectID.String()})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count issues", goerr.V("project_id", projectID))
	}
	return count, nil
}

func (r *issueRepository) Update(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	updated := issue.Clone()
	updated.UpdatedAt = time.Now().UTC()

	fields, err := issueUpdateFields(updated)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode issue", goerr.V("id", issue.ID))
	}

	// comments are appended through AddComment only
	var stored issueDocument
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": issue.ID.String()},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", issue.ID))
		}
		return nil, goerr.Wrap(err, "failed to update issue", goerr.V("id", issue.ID))
	}

	return stored.toModel(), nil
}

// issueUpdateFields returns the $set payload for an issue, leaving out the
// immutable and append-only fields.
func issueUpdateFields(issue *model.Issue) (bson.M, error) {
	raw, err := bson.Marshal(toIssueDocument(issue))
	if err != nil {
		return nil, err
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	delete(fields, "_id")
	delete(fields, "created_at")
	delete(fields, "comments")
	// omitempty drops cleared dates, so they are written as null explicitly
	fields["resolved_at"] = issue.ResolvedAt
	fields["due_date"] = issue.DueDate
	return fields, nil
}

func (r *issueRepository) AddComment(ctx context.Context, id types.IssueID, comment model.IssueComment) (*model.Issue, error) {
	var stored issueDocument
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{
			"$push": bson.M{"comments": toIssueCommentDocument(comment)},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to add issue comment", goerr.V("id", id))
	}

	return stored.toModel(), nil
}

func (r *issueRepository) Delete(ctx context.Context, id types.IssueID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return goerr.Wrap(err, "failed to delete issue", goerr.V("id", id))
	}
	if result.DeletedCount == 0 {
		return goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
	}
	return nil
}
