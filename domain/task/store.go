package task

import "context"

// Repository provides access to one collection of tasks.
type Repository interface {
	// Collection returns the collection this repository is bound to.
	Collection() Collection

	// Create inserts t and fills its ID and timestamps.
	Create(ctx context.Context, t *Task) error

	// FindAll returns every record in the store's natural order.
	FindAll(ctx context.Context) ([]*Task, error)

	// FindByID returns ErrNotFound when the id is absent.
	FindByID(ctx context.Context, id string) (*Task, error)

	// Delete returns ErrNotFound when the id is absent.
	Delete(ctx context.Context, id string) error
}

// BuildFunc derives the record inserted into the target collection of a move
// from the record removed from the source collection.
type BuildFunc func(src *Task) *Task

// Store is the datastore handle shared by the application.
type Store interface {
	// Collection returns the repository bound to c.
	Collection(c Collection) Repository

	// Move removes id from one collection and inserts build(removed) into
	// another as a single unit. It returns the inserted record, or
	// ErrNotFound when id is not in from. On failure neither side changes.
	Move(ctx context.Context, id string, from, to Collection, build BuildFunc) (*Task, error)

	// Driver names the backend.
	Driver() string

	Ping(ctx context.Context) error
	Close() error
}
