package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskAddedEvent is emitted when a task is created in the active collection.
type TaskAddedEvent struct {
	TaskID    string    `json:"task_id"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskAddedV1 is the typed event definition for task creation.
// Subject: events.task.v1.task-added
var TaskAddedV1 = helper.EventDefinition[TaskAddedEvent](
	"task", "TaskAdded", "v1",
)

// TaskCompletedEvent is emitted when an active task is moved to the completed collection.
type TaskCompletedEvent struct {
	TaskID      string    `json:"task_id"`
	CompletedID string    `json:"completed_id"`
	Name        string    `json:"name"`
	Date        string    `json:"date"`
	CompletedAt time.Time `json:"completed_at"`
}

// TaskCompletedV1 is the typed event definition for task completion.
// Subject: events.task.v1.task-completed
var TaskCompletedV1 = helper.EventDefinition[TaskCompletedEvent](
	"task", "TaskCompleted", "v1",
)

// CompletedTaskDeletedEvent is emitted when a completed task is removed.
type CompletedTaskDeletedEvent struct {
	TaskID    string    `json:"task_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// CompletedTaskDeletedV1 is the typed event definition for completed task deletion.
// Subject: events.task.v1.completed-task-deleted
var CompletedTaskDeletedV1 = helper.EventDefinition[CompletedTaskDeletedEvent](
	"task", "CompletedTaskDeleted", "v1",
)
