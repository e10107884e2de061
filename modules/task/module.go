package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/todo-api/events"
	"github.com/example/todo-api/modules/store"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/middleware/requestid"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module exposes the task operations as request-reply services.
type Module struct {
	storePlugin *store.PluginModule
	service     *Service
	eventBus    mono.EventBus
	logger      types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.UsePluginModule       = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
)

// NewModule creates a new task module.
func NewModule(logger types.Logger) *Module {
	return &Module{logger: logger}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "task"
}

// SetPlugin receives the store plugin from the framework.
func (m *Module) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "store" {
		return
	}
	p, ok := plugin.(*store.PluginModule)
	if !ok {
		m.logger.Error("Invalid plugin type for store",
			"alias", alias,
			"expected", "*store.PluginModule")
		return
	}
	m.storePlugin = p
	m.logger.Info("Received store plugin", "alias", alias)
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskAddedV1.ToBase(),
		events.TaskCompletedV1.ToBase(),
		events.CompletedTaskDeletedV1.ToBase(),
	}
}

// RegisterServices registers the task request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-active", json.Unmarshal, json.Marshal, m.listActive,
	); err != nil {
		return fmt.Errorf("failed to register list-active service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "add-task", json.Unmarshal, json.Marshal, m.addTask,
	); err != nil {
		return fmt.Errorf("failed to register add-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "complete-task", json.Unmarshal, json.Marshal, m.completeTask,
	); err != nil {
		return fmt.Errorf("failed to register complete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-completed", json.Unmarshal, json.Marshal, m.listCompleted,
	); err != nil {
		return fmt.Errorf("failed to register list-completed service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-completed", json.Unmarshal, json.Marshal, m.deleteCompleted,
	); err != nil {
		return fmt.Errorf("failed to register delete-completed service: %w", err)
	}

	m.logger.Info("Registered services",
		"services", "list-active, add-task, complete-task, list-completed, delete-completed")
	return nil
}

// Start builds the service on top of the store opened by the plugin.
func (m *Module) Start(_ context.Context) error {
	if m.storePlugin == nil {
		return fmt.Errorf("required plugin 'store' not registered")
	}
	s := m.storePlugin.Port()
	if s == nil {
		return fmt.Errorf("store plugin has no open store")
	}
	if m.eventBus == nil {
		m.logger.Warn("EventBus not set, events will not be published")
	}

	m.service = NewService(s, m.eventBus, m.logger)
	m.logger.Info("Task module started", "driver", s.Driver())
	return nil
}

// Stop gracefully shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Task module stopped")
	return nil
}

// Service returns the task service instance. It is nil before Start.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) listActive(ctx context.Context, _ ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.service.ListActive(ctx)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return ListTasksResponse{Tasks: tasks}, nil
}

func (m *Module) addTask(ctx context.Context, req AddTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	m.logger.Debug("Adding task", "request_id", requestid.GetRequestID(ctx))
	t, err := m.service.AddTask(ctx, req.Name)
	if err != nil {
		return TaskResponse{}, err
	}
	return TaskResponse{Task: *t}, nil
}

func (m *Module) completeTask(ctx context.Context, req CompleteTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	m.logger.Debug("Completing task", "request_id", requestid.GetRequestID(ctx), "task_id", req.ID)
	t, err := m.service.CompleteTask(ctx, req.ID)
	if err != nil {
		return TaskResponse{}, err
	}
	return TaskResponse{Task: *t}, nil
}

func (m *Module) listCompleted(ctx context.Context, _ ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.service.ListCompleted(ctx)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return ListTasksResponse{Tasks: tasks}, nil
}

func (m *Module) deleteCompleted(ctx context.Context, req DeleteCompletedRequest, _ *mono.Msg) (DeleteCompletedResponse, error) {
	m.logger.Debug("Deleting completed task", "request_id", requestid.GetRequestID(ctx), "task_id", req.ID)
	if err := m.service.DeleteCompleted(ctx, req.ID); err != nil {
		return DeleteCompletedResponse{Deleted: false}, err
	}
	return DeleteCompletedResponse{Deleted: true}, nil
}

