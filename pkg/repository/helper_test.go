package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pmotracker/pkg/domain/interfaces"
	"github.com/secmon-lab/pmotracker/pkg/repository/firestore"
	"github.com/secmon-lab/pmotracker/pkg/repository/memory"
	"github.com/secmon-lab/pmotracker/pkg/repository/mongo"
)

// testPrefix isolates every test run in its own set of collections
func testPrefix() string {
	return fmt.Sprintf("test_%d", time.Now().UnixNano())
}

func newMemoryRepository(t *testing.T) interfaces.Repository {
	return memory.New()
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()
	return openFirestore(t, firestore.WithCollectionPrefix(testPrefix()))
}

// newIndexedFirestoreRepository uses the unprefixed collections, where the
// composite indexes from "pmotracker migrate indexes" exist. Tests using it
// must isolate their data by random IDs.
func newIndexedFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()
	return openFirestore(t)
}

func openFirestore(t *testing.T, opts ...firestore.Option) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	repo, err := firestore.New(ctx, projectID, databaseID, opts...)
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func newMongoRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}

	database := os.Getenv("TEST_MONGODB_DATABASE")
	if database == "" {
		database = "pmotracker_test"
	}

	ctx := context.Background()
	repo, err := mongo.New(ctx, uri, database, mongo.WithCollectionPrefix(testPrefix()))
	gt.NoError(t, err).Required()
	gt.NoError(t, repo.EnsureIndexes(ctx)).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

// backends lists every repository implementation under test. External
// backends skip themselves when their environment is not configured.
// newIndexedRepo serves queries that need composite indexes.
var backends = []struct {
	name           string
	newRepo        func(t *testing.T) interfaces.Repository
	newIndexedRepo func(t *testing.T) interfaces.Repository
}{
	{name: "memory", newRepo: newMemoryRepository, newIndexedRepo: newMemoryRepository},
	{name: "firestore", newRepo: newFirestoreRepository, newIndexedRepo: newIndexedFirestoreRepository},
	{name: "mongo", newRepo: newMongoRepository, newIndexedRepo: newMongoRepository},
}
