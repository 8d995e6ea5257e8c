package mongo

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Mongo struct {
	client   *mongo.Client
	db       *mongo.Database
	prefix   string
	project  *projectRepository
	risk     *riskRepository
	issue    *issueRepository
	task     *taskRepository
	auditLog *auditLogRepository
}

var _ interfaces.Repository = &Mongo{}

type Option func(*Mongo)

// WithCollectionPrefix prepends prefix and an underscore to every collection name
func WithCollectionPrefix(prefix string) Option {
	return func(m *Mongo) {
		m.prefix = prefix
	}
}

func New(ctx context.Context, uri, database string, opts ...Option) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to mongodb", goerr.V("database", database))
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, goerr.Wrap(err, "failed to ping mongodb", goerr.V("database", database))
	}

	m := &Mongo{
		client: client,
		db:     client.Database(database),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.project = &projectRepository{collection: m.collection("projects")}
	m.risk = &riskRepository{collection: m.collection("risks")}
	m.issue = &issueRepository{collection: m.collection("issues")}
	m.task = &taskRepository{collection: m.collection("tasks")}
	m.auditLog = &auditLogRepository{collection: m.collection("audit_logs")}

	return m, nil
}

func (m *Mongo) collection(name string) *mongo.Collection {
	if m.prefix != "" {
		name = m.prefix + "_" + name
	}
	return m.db.Collection(name)
}

// EnsureIndexes creates the secondary indexes used by the child and audit
// queries. Existing indexes are left untouched.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		m.risk.collection: {
			{Keys: bson.D{{Key: "project_id", Value: 1}}},
		},
		m.issue.collection: {
			{Keys: bson.D{{Key: "project_id", Value: 1}}},
		},
		m.task.collection: {
			{Keys: bson.D{{Key: "project_id", Value: 1}}},
			{Keys: bson.D{{Key: "assigned_to", Value: 1}}},
		},
		m.auditLog.collection: {
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
			{Keys: bson.D{
				{Key: "entity_type", Value: 1},
				{Key: "entity_id", Value: 1},
				{Key: "timestamp", Value: -1},
			}},
		},
		m.project.collection: {
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
			{
				Keys: bson.D{{Key: "case_id", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"case_id": bson.M{"$gt": ""}}),
			},
		},
	}

	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return goerr.Wrap(err, "failed to create indexes", goerr.V("collection", coll.Name()))
		}
	}
	return nil
}

func (m *Mongo) Project() interfaces.ProjectRepository {
	return m.project
}

func (m *Mongo) Risk() interfaces.RiskRepository {
	return m.risk
}

func (m *Mongo) Issue() interfaces.IssueRepository {
	return m.issue
}

func (m *Mongo) Task() interfaces.TaskRepository {
	return m.task
}

func (m *Mongo) AuditLog() interfaces.AuditLogRepository {
	return m.auditLog
}

func (m *Mongo) Name() string {
	return "mongo"
}

func (m *Mongo) Close() error {
	if m.client != nil {
		return m.client.Disconnect(context.Background())
	}
	return nil
}
