package task

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/example/todo-api/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter implements TaskPort over the task module's request-reply services.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// ListActive lists active tasks via the list-active service.
func (a *taskAdapter) ListActive(ctx context.Context) ([]domain.Task, error) {
	var resp ListTasksResponse
	if err := callService(ctx, a.container, "list-active", &ListTasksRequest{}, &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Tasks), nil
}

// AddTask creates an active task via the add-task service.
func (a *taskAdapter) AddTask(ctx context.Context, name string) (*domain.Task, error) {
	var resp TaskResponse
	if err := callService(ctx, a.container, "add-task", &AddTaskRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

// CompleteTask moves a task to the completed collection via the complete-task service.
func (a *taskAdapter) CompleteTask(ctx context.Context, id string) (*domain.Task, error) {
	var resp TaskResponse
	if err := callService(ctx, a.container, "complete-task", &CompleteTaskRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

// ListCompleted lists completed tasks via the list-completed service.
func (a *taskAdapter) ListCompleted(ctx context.Context) ([]domain.Task, error) {
	var resp ListTasksResponse
	if err := callService(ctx, a.container, "list-completed", &ListTasksRequest{}, &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Tasks), nil
}

// DeleteCompleted removes a completed task via the delete-completed service.
func (a *taskAdapter) DeleteCompleted(ctx context.Context, id string) error {
	var resp DeleteCompletedResponse
	if err := callService(ctx, a.container, "delete-completed", &DeleteCompletedRequest{ID: id}, &resp); err != nil {
		return err
	}
	if !resp.Deleted {
		return fmt.Errorf("completed task not deleted: %s", id)
	}
	return nil
}

// callService invokes a task service and maps its error back to a domain sentinel.
func callService[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, mapServiceError(err))
	}
	return nil
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil(tasks []domain.Task) []domain.Task {
	if tasks == nil {
		return []domain.Task{}
	}
	return tasks
}

// mapServiceError maps errors that crossed the service boundary as text back
// to the domain sentinels.
func mapServiceError(err error) error {
	if err == nil {
		return nil
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, domain.ErrNotFound.Error()) {
		return domain.ErrNotFound
	}
	if strings.Contains(errMsg, domain.ErrNameRequired.Error()) {
		return domain.ErrNameRequired
	}

	return err
}
