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

type taskDocument struct {
	ID             string     `bson:"_id"`
	Code           string     `bson:"code"`
	ProjectID      string     `bson:"project_id"`
	Title          string     `bson:"title"`
	Description    string     `bson:"description"`
	Status         string     `bson:"status"`
	Priority       string     `bson:"priority"`
	AssignedTo     string     `bson:"assigned_to"`
	AssignedBy     string     `bson:"assigned_by"`
	CreatedBy      string     `bson:"created_by"`
	DueDate        *time.Time `bson:"due_date,omitempty"`
	EstimatedHours float64    `bson:"estimated_hours"`
	ActualHours    float64    `bson:"actual_hours"`
	CompletedAt    *time.Time `bson:"completed_at,omitempty"`
	CreatedAt      time.Time  `bson:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at"`
}

func toTaskDocument(t *model.Task) *taskDocument {
	return &taskDocument{
		ID:             t.ID.String(),
		Code:           t.Code,
		ProjectID:      t.ProjectID.String(),
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		AssignedTo:     string(t.AssignedTo),
		AssignedBy:     string(t.AssignedBy),
		CreatedBy:      string(t.CreatedBy),
		DueDate:        t.DueDate,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		CompletedAt:    t.CompletedAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func (d *taskDocument) toModel() *model.Task {
	return &model.Task{
		ID:             types.TaskID(d.ID),
		Code:           d.Code,
		ProjectID:      types.ProjectID(d.ProjectID),
		Title:          d.Title,
		Description:    d.Description,
		Status:         types.TaskStatus(d.Status),
		Priority:       types.TaskPriority(d.Priority),
		AssignedTo:     types.UserID(d.AssignedTo),
		AssignedBy:     types.UserID(d.AssignedBy),
		CreatedBy:      types.UserID(d.CreatedBy),
		DueDate:        d.DueDate,
		EstimatedHours: d.EstimatedHours,
		ActualHours:    d.ActualHours,
		CompletedAt:    d.CompletedAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type taskRepository struct {
	collection *mongo.Collection
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	if task.ID == "" {
		return nil, goerr.New("task ID is required")
	}

	now := time.Now().UTC()
	created := task.Clone()
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, toTaskDocument(created)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, goerr.Wrap(interfaces.ErrConflict, "task already exists", goerr.V("id", task.ID))
		}
		return nil, goerr.Wrap(err, "failed to create task", goerr.V("id", task.ID))
	}

	return created, nil
}

func (r *taskRepository) Get(ctx context.Context, id types.TaskID) (*model.Task, error) {
	var doc taskDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "task not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get task", goerr.V("id", id))
	}

	return doc.toModel(), nil
}

func (r *taskRepository) List(ctx context.Context) ([]*model.Task, error) {
	return r.find(ctx, bson.M{})
}

func (r *taskRepository) ListByProject(ctx context.Context, projectID types.ProjectID) ([]*model.Task, error) {
	return r.find(ctx, bson.M{"project_id": projectID.String()})
}

func (r *taskRepository) ListByAssignee(ctx context.Context, userID types.UserID) ([]*model.Task, error) {
	return r.find(ctx, bson.M{"assigned_to": string(userID)})
}

func (r *taskRepository) find(ctx context.Context, filter interface{}) ([]*model.Task, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find tasks")
	}
	defer cursor.Close(ctx)

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, goerr.Wrap(err, "failed to decode tasks")
	}

	tasks := make([]*model.Task, 0, len(docs))
	for i := range docs {
		tasks = append(tasks, docs[i].toModel())
	}
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) (*model.Task, error) {
	var existing taskDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": task.ID.String()}).Decode(&existing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "task not found", goerr.V("id", task.ID))
		}
		return nil, goerr.Wrap(err, "failed to get task", goerr.V("id", task.ID))
	}

	updated := task.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": task.ID.String()}, toTaskDocument(updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update task", goerr.V("id", task.ID))
	}

	return updated, nil
}

func (r *taskRepository) Delete(ctx context.Context, id types.TaskID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return goerr.Wrap(err, "failed to delete task", goerr.V("id", id))
	}
	if result.DeletedCount == 0 {
		return goerr.Wrap(interfaces.ErrNotFound, "task not found", goerr.V("id", id))
	}
	return nil
}
