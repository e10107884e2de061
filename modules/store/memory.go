package store

import (
	"context"
	"sync"
	"time"

	"github.com/example/todo-api/domain/task"
	"github.com/google/uuid"
)

// MemoryStore keeps every collection in process memory.
// Records are returned in insertion order.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[task.Collection]*memoryCollection
}

type memoryCollection struct {
	tasks map[string]*task.Task
	order []string
}

var _ task.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		collections: make(map[task.Collection]*memoryCollection),
	}
	for _, c := range task.Collections {
		s.collections[c] = &memoryCollection{tasks: make(map[string]*task.Task)}
	}
	return s
}

// Collection returns the repository bound to c.
func (s *MemoryStore) Collection(c task.Collection) task.Repository {
	return &memoryRepository{store: s, collection: c}
}

// Move removes id from one collection and inserts the built record into another under one lock.
func (s *MemoryStore) Move(_ context.Context, id string, from, to task.Collection, build task.BuildFunc) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.coll(from)
	found, ok := src.tasks[id]
	if !ok {
		return nil, task.ErrNotFound
	}

	moved := build(clone(found))
	s.coll(to).insert(moved)
	src.remove(id)
	return clone(moved), nil
}

// Driver names the backend.
func (s *MemoryStore) Driver() string {
	return "memory"
}

// Ping always succeeds.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// coll returns the collection, creating it for names outside task.Collections.
// Callers must hold the write lock.
func (s *MemoryStore) coll(c task.Collection) *memoryCollection {
	mc, ok := s.collections[c]
	if !ok {
		mc = &memoryCollection{tasks: make(map[string]*task.Task)}
		s.collections[c] = mc
	}
	return mc
}

func (c *memoryCollection) insert(t *task.Task) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	if _, exists := c.tasks[t.ID]; !exists {
		c.order = append(c.order, t.ID)
	}
	c.tasks[t.ID] = clone(t)
}

func (c *memoryCollection) remove(id string) {
	delete(c.tasks, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// memoryRepository is a view of one collection of a MemoryStore.
type memoryRepository struct {
	store      *MemoryStore
	collection task.Collection
}

func (r *memoryRepository) Collection() task.Collection {
	return r.collection
}

func (r *memoryRepository) Create(_ context.Context, t *task.Task) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.coll(r.collection).insert(t)
	return nil
}

func (r *memoryRepository) FindAll(_ context.Context) ([]*task.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	mc, ok := r.store.collections[r.collection]
	if !ok {
		return []*task.Task{}, nil
	}

	result := make([]*task.Task, 0, len(mc.order))
	for _, id := range mc.order {
		result = append(result, clone(mc.tasks[id]))
	}
	return result, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (*task.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	mc, ok := r.store.collections[r.collection]
	if !ok {
		return nil, task.ErrNotFound
	}
	found, ok := mc.tasks[id]
	if !ok {
		return nil, task.ErrNotFound
	}
	return clone(found), nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	mc, ok := r.store.collections[r.collection]
	if !ok {
		return task.ErrNotFound
	}
	if _, found := mc.tasks[id]; !found {
		return task.ErrNotFound
	}
	mc.remove(id)
	return nil
}

func clone(t *task.Task) *task.Task {
	c := *t
	return &c
}
