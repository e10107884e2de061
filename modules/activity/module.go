// Package activity records a feed of task lifecycle events.
package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/todo-api/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Entry kinds.
const (
	KindAdded     = "task_added"
	KindCompleted = "task_completed"
	KindDeleted   = "completed_task_deleted"
)

// DefaultCapacity bounds the number of entries kept in memory.
const DefaultCapacity = 500

// Entry is one item of the activity feed.
type Entry struct {
	TaskID    string    `json:"task_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Module subscribes to task events and keeps the most recent ones.
type Module struct {
	entries  []Entry
	capacity int
	mu       sync.RWMutex
	logger   types.Logger
}

var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)

// NewModule creates an activity module holding at most capacity entries.
// A non-positive capacity uses DefaultCapacity.
func NewModule(capacity int, logger types.Logger) *Module {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Module{
		entries:  make([]Entry, 0),
		capacity: capacity,
		logger:   logger,
	}
}

func (m *Module) Name() string {
	return "activity"
}

func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskAddedV1, m.handleTaskAdded, m); err != nil {
		return fmt.Errorf("failed to register TaskAdded consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletedV1, m.handleTaskCompleted, m); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.CompletedTaskDeletedV1, m.handleCompletedTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register CompletedTaskDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", "TaskAdded, TaskCompleted, CompletedTaskDeleted")
	return nil
}

func (m *Module) handleTaskAdded(_ context.Context, event events.TaskAddedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, KindAdded, fmt.Sprintf("Task '%s' added on %s", event.Name, event.Date), event.CreatedAt)
	return nil
}

func (m *Module) handleTaskCompleted(_ context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, KindCompleted, fmt.Sprintf("Task '%s' completed on %s", event.Name, event.Date), event.CompletedAt)
	return nil
}

func (m *Module) handleCompletedTaskDeleted(_ context.Context, event events.CompletedTaskDeletedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, KindDeleted, fmt.Sprintf("Completed task %s deleted", event.TaskID), event.DeletedAt)
	return nil
}

func (m *Module) record(taskID, kind, message string, at time.Time) {
	if at.IsZero() {
		at = time.Now()
	}

	m.mu.Lock()
	m.entries = append(m.entries, Entry{
		TaskID:    taskID,
		Kind:      kind,
		Message:   message,
		Timestamp: at,
	})
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
	}
	m.mu.Unlock()

	m.logger.Info(message, "task_id", taskID, "kind", kind)
}

// Entries returns a copy of the feed, oldest first.
func (m *Module) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Entry, len(m.entries))
	copy(result, m.entries)
	return result
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Activity module started, listening for task events")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Activity module stopped")
	return nil
}
