package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/todo-api/domain/task"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// DefaultMongoDatabase is used when the connection string names no database.
const DefaultMongoDatabase = "todo_db"

const mongoConnectTimeout = 10 * time.Second

// taskDocument is the BSON shape of a task.
type taskDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Date      string             `bson:"date"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *taskDocument) toTask() *task.Task {
	return &task.Task{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Date:      d.Date,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoStore stores each collection as a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ task.Store = (*MongoStore)(nil)

// OpenMongo connects to MongoDB using uri.
func OpenMongo(ctx context.Context, uri string) (*MongoStore, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid mongodb uri: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = DefaultMongoDatabase
	}

	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return NewMongoStore(client, dbName), nil
}

// NewMongoStore wraps a connected client.
func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(dbName)}
}

// Collection returns the repository bound to c.
func (s *MongoStore) Collection(c task.Collection) task.Repository {
	return &mongoRepository{coll: s.db.Collection(c.String()), collection: c}
}

// Move claims the source document with FindOneAndDelete so only one caller
// can move it, then inserts the built record. If the insert fails the
// claimed document is put back.
func (s *MongoStore) Move(ctx context.Context, id string, from, to task.Collection, build task.BuildFunc) (*task.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, task.ErrNotFound
	}

	src := s.db.Collection(from.String())

	var claimed taskDocument
	if err := src.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&claimed); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, task.ErrNotFound
		}
		return nil, fmt.Errorf("failed to claim task: %w", err)
	}

	dst := build(claimed.toTask())
	if err := s.Collection(to).Create(ctx, dst); err != nil {
		if _, restoreErr := src.InsertOne(context.WithoutCancel(ctx), claimed); restoreErr != nil {
			return nil, fmt.Errorf("%w (restore failed: %v)", err, restoreErr)
		}
		return nil, err
	}
	return dst, nil
}

// Driver names the backend.
func (s *MongoStore) Driver() string {
	return "mongodb"
}

// Ping checks the primary.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect mongodb: %w", err)
	}
	return nil
}

// mongoRepository provides access to one MongoDB collection.
type mongoRepository struct {
	coll       *mongo.Collection
	collection task.Collection
}

func (r *mongoRepository) Collection() task.Collection {
	return r.collection
}

// Create inserts t. MongoDB assigns the ObjectID; timestamps are stamped here
// at millisecond precision, which is what BSON dates keep.
func (r *mongoRepository) Create(ctx context.Context, t *task.Task) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := taskDocument{
		ID:        primitive.NewObjectID(),
		Name:      t.Name,
		Date:      t.Date,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	t.ID = doc.ID.Hex()
	t.CreatedAt = doc.CreatedAt
	t.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *mongoRepository) FindAll(ctx context.Context) ([]*task.Task, error) {
	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}

	var docs []taskDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	tasks := make([]*task.Task, 0, len(docs))
	for i := range docs {
		tasks = append(tasks, docs[i].toTask())
	}
	return tasks, nil
}

func (r *mongoRepository) FindByID(ctx context.Context, id string) (*task.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, task.ErrNotFound
	}

	var doc taskDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, task.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return doc.toTask(), nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return task.ErrNotFound
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.DeletedCount == 0 {
		return task.ErrNotFound
	}
	return nil
}
