package task

import (
	"context"

	domain "github.com/example/todo-api/domain/task"
)

// AddTaskRequest is the request for adding an active task.
type AddTaskRequest struct {
	Name string `json:"name"`
}

// ListTasksRequest is the request for listing either collection.
type ListTasksRequest struct{}

// ListTasksResponse is the response for listing either collection.
type ListTasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

// TaskResponse carries a single task record.
type TaskResponse struct {
	Task domain.Task `json:"task"`
}

// CompleteTaskRequest is the request for moving an active task to the completed collection.
type CompleteTaskRequest struct {
	ID string `json:"id"`
}

// DeleteCompletedRequest is the request for removing a completed task.
type DeleteCompletedRequest struct {
	ID string `json:"id"`
}

// DeleteCompletedResponse is the response for removing a completed task.
type DeleteCompletedResponse struct {
	Deleted bool `json:"deleted"`
}

// TaskPort defines the task operations used by driving adapters such as the HTTP API.
type TaskPort interface {
	ListActive(ctx context.Context) ([]domain.Task, error)
	AddTask(ctx context.Context, name string) (*domain.Task, error)
	CompleteTask(ctx context.Context, id string) (*domain.Task, error)
	ListCompleted(ctx context.Context) ([]domain.Task, error)
	DeleteCompleted(ctx context.Context, id string) error
}
