package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
)

type Firestore struct {
	client   *firestore.Client
	project  *projectRepository
	risk     *riskRepository
	issue    *issueRepository
	task     *taskRepository
	auditLog *auditLogRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.project.collectionPrefix = prefix
		f.risk.collectionPrefix = prefix
		f.issue.collectionPrefix = prefix
		f.task.collectionPrefix = prefix
		f.auditLog.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:   client,
		project:  newProjectRepository(client),
		risk:     newRiskRepository(client),
		issue:    newIssueRepository(client),
		task:     newTaskRepository(client),
		auditLog: newAuditLogRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Project() interfaces.ProjectRepository {
	return f.project
}

func (f *Firestore) Risk() interfaces.RiskRepository {
	return f.risk
}

func (f *Firestore) Issue() interfaces.IssueRepository {
	return f.issue
}

func (f *Firestore) Task() interfaces.TaskRepository {
	return f.task
}

func (f *Firestore) AuditLog() interfaces.AuditLogRepository {
	return f.auditLog
}

func (f *Firestore) Name() string {
	return "firestore"
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func collectionName(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}
