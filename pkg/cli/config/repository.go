package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/repository/firestore"
	"github.com/secmon-lab/pmotracker/pkg/repository/memory"
	"github.com/secmon-lab/pmotracker/pkg/repository/mongo"
	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository backend names
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend          string
	projectID        string
	databaseID       string
	collectionPrefix string
	mongoURI         string
	mongoDatabase    string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (memory, firestore or mongo)",
			Value:       BackendMemory,
			Category:    "Repository",
			Sources:     cli.EnvVars("PMOTRACKER_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("PMOTRACKER_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("PMOTRACKER_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "collection-prefix",
			Usage:       "Prefix prepended to every collection name",
			Category:    "Repository",
			Sources:     cli.EnvVars("PMOTRACKER_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
		&cli.StringFlag{
			Name:        "mongodb-uri",
			Usage:       "MongoDB connection URI (required when using mongo backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("PMOTRACKER_MONGODB_URI"),
			Destination: &r.mongoURI,
		},
		&cli.StringFlag{
			Name:        "mongodb-database",
			Usage:       "MongoDB database name",
			Value:       "pmotracker",
			Category:    "Repository",
			Sources:     cli.EnvVars("PMOTRACKER_MONGODB_DATABASE"),
			Destination: &r.mongoDatabase,
		},
	}
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// CollectionPrefix returns the collection name prefix
func (r *Repository) CollectionPrefix() string {
	return r.collectionPrefix
}

// LogValue implements slog.LogValuer. The MongoDB URI may carry credentials
// and is never logged.
func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("firestore_project_id", r.projectID),
		slog.String("firestore_database_id", r.databaseID),
		slog.String("collection_prefix", r.collectionPrefix),
		slog.String("mongodb_database", r.mongoDatabase),
		slog.Bool("mongodb_uri_set", r.mongoURI != ""),
	)
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.New("firestore-project-id is required when using firestore backend")
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID, firestore.WithCollectionPrefix(r.collectionPrefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case BackendMongo:
		repo, err := r.ConfigureMongo(ctx)
		if err != nil {
			return nil, err
		}
		return repo, nil

	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.New("invalid repository backend", goerr.V("backend", r.backend))
	}
}

// ConfigureMongo connects the MongoDB backend directly, for commands that
// need backend specific operations such as index provisioning.
func (r *Repository) ConfigureMongo(ctx context.Context) (*mongo.Mongo, error) {
	if r.mongoURI == "" {
		return nil, goerr.New("mongodb-uri is required when using mongo backend")
	}
	repo, err := mongo.New(ctx, r.mongoURI, r.mongoDatabase, mongo.WithCollectionPrefix(r.collectionPrefix))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize mongo repository")
	}
	logging.Default().Info("Using MongoDB repository", "database", r.mongoDatabase)
	return repo, nil
}
