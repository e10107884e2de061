package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/example/todo-api/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func getTestMongoURI() string {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	return uri
}

// setupMongo connects to the test server and uses a throwaway database per test.
func setupMongo(t *testing.T) *MongoStore {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(getTestMongoURI()))
	if err != nil {
		t.Skipf("Skipping test: mongodb not available: %v", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("Skipping test: mongodb ping failed: %v", err)
	}

	dbName := fmt.Sprintf("todo_test_%d", time.Now().UnixNano())
	s := NewMongoStore(client, dbName)

	t.Cleanup(func() {
		_ = client.Database(dbName).Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func TestMongoStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) task.Store {
		return setupMongo(t)
	})
}

func TestMongoStore_MalformedID(t *testing.T) {
	s := setupMongo(t)
	ctx := context.Background()

	_, err := s.Collection(task.ActiveTasks).FindByID(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, task.ErrNotFound)

	err = s.Collection(task.CompletedTasks).Delete(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, task.ErrNotFound)

	_, err = s.Move(ctx, "not-an-object-id", task.ActiveTasks, task.CompletedTasks, completedCopy("17/10/26"))
	require.ErrorIs(t, err, task.ErrNotFound)
}
