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

type taskDocument struct {
	ID             string     `firestore:"id"`
	Code           string     `firestore:"code"`
	ProjectID      string     `firestore:"project_id"`
	Title          string     `firestore:"title"`
	Description    string     `firestore:"description"`
	Status         string     `firestore:"status"`
	Priority       string     `firestore:"priority"`
	AssignedTo     string     `firestore:"assigned_to"`
	AssignedBy     string     `firestore:"assigned_by"`
	CreatedBy      string     `firestore:"created_by"`
	DueDate        *time.Time `firestore:"due_date"`
	EstimatedHours float64    `firestore:"estimated_hours"`
	ActualHours    float64    `firestore:"actual_hours"`
	CompletedAt    *time.Time `firestore:"completed_at"`
	CreatedAt      time.Time  `firestore:"created_at"`
	UpdatedAt      time.Time  `firestore:"updated_at"`
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

func fromTaskDocument(doc *taskDocument) *model.Task {
	return &model.Task{
		ID:             types.TaskID(doc.ID),
		Code:           doc.Code,
		ProjectID:      types.ProjectID(doc.ProjectID),
		Title:          doc.Title,
		Description:    doc.Description,
		Status:         types.TaskStatus(doc.Status),
		Priority:       types.TaskPriority(doc.Priority),
		AssignedTo:     types.UserID(doc.AssignedTo),
		AssignedBy:     types.UserID(doc.AssignedBy),
		CreatedBy:      types.UserID(doc.CreatedBy),
		DueDate:        doc.DueDate,
		EstimatedHours: doc.EstimatedHours,
		ActualHours:    doc.ActualHours,
		CompletedAt:    doc.CompletedAt,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

type taskRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newTaskRepository(client *firestore.Client) *taskRepository {
	return &taskRepository{
		client: client,
	}
}

func (r *taskRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, "tasks"))
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	if task.ID == "" {
		return nil, goerr.New("task ID is required")
	}

	now := time.Now().UTC()
	created := task.Clone()
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.collection().Doc(created.ID.String()).Create(ctx, toTaskDocument(created)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(interfaces.ErrConflict, "task already exists", goerr.V("id", task.ID))
		}
		return nil, goerr.Wrap(err, "failed to create task", goerr.V("id", task.ID))
	}

	return created, nil
}

func (r *taskRepository) Get(ctx context.Context, id types.TaskID) (*model.Task, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "task not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get task", goerr.V("id", id))
	}

	var taskDoc taskDocument
	if err := doc.DataTo(&taskDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal task", goerr.V("id", id))
	}

	return fromTaskDocument(&taskDoc), nil
}

func (r *taskRepository) List(ctx context.Context) ([]*model.Task, error) {
	return r.list(ctx, r.collection().Query)
}

func (r *taskRepository) ListByProject(ctx context.Context, projectID types.ProjectID) ([]*model.Task, error) {
	return r.list(ctx, r.collection().Where("project_id", "==", projectID.String()))
}

func (r *taskRepository) ListByAssignee(ctx context.Context, userID types.UserID) ([]*model.Task, error) {
	return r.list(ctx, r.collection().Where("assigned_to", "==", string(userID)))
}

func (r *taskRepository) list(ctx context.Context, q firestore.Query) ([]*model.Task, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	tasks := make([]*model.Task, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate tasks")
		}

		var taskDoc taskDocument
		if err := doc.DataTo(&taskDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal task", goerr.V("docID", doc.Ref.ID))
		}
		tasks = append(tasks, fromTaskDocument(&taskDoc))
	}

	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) (*model.Task, error) {
	docRef := r.collection().Doc(task.ID.String())

	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "task not found", goerr.V("id", task.ID))
		}
		return nil, goerr.Wrap(err, "failed to get task", goerr.V("id", task.ID))
	}

	var existing taskDocument
	if err := doc.DataTo(&existing); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal task", goerr.V("id", task.ID))
	}

	updated := task.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := docRef.Set(ctx, toTaskDocument(updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update task", goerr.V("id", task.ID))
	}

	return updated, nil
}

func (r *taskRepository) Delete(ctx context.Context, id types.TaskID) error {
	docRef := r.collection().Doc(id.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "task not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get task", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete task", goerr.V("id", id))
	}

	return nil
}
