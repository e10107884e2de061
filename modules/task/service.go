// Package task provides the task module: the active and completed task
// operations exposed as request-reply services.
package task

import (
	"context"
	"fmt"
	"time"

	domain "github.com/example/todo-api/domain/task"
	"github.com/example/todo-api/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/sync/singleflight"
)

// Service implements the task operations on top of a domain.Store.
type Service struct {
	store    domain.Store
	eventBus mono.EventBus
	logger   types.Logger
	now      func() time.Time
	sfGroup  singleflight.Group // collapses concurrent completions of one id
}

var _ TaskPort = (*Service)(nil)

// NewService creates a task service. eventBus may be nil, in which case no
// events are published.
func NewService(store domain.Store, eventBus mono.EventBus, logger types.Logger) *Service {
	return &Service{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// ListActive returns every active task with its display date filled in.
func (s *Service) ListActive(ctx context.Context) ([]domain.Task, error) {
	return s.list(ctx, domain.ActiveTasks)
}

// ListCompleted returns every completed task with its display date filled in.
func (s *Service) ListCompleted(ctx context.Context) ([]domain.Task, error) {
	return s.list(ctx, domain.CompletedTasks)
}

func (s *Service) list(ctx context.Context, c domain.Collection) ([]domain.Task, error) {
	records, err := s.store.Collection(c).FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c, err)
	}

	tasks := make([]domain.Task, 0, len(records))
	for _, t := range records {
		tasks = append(tasks, t.WithDisplayDate())
	}
	return tasks, nil
}

// AddTask creates an active task stamped with today's date.
func (s *Service) AddTask(ctx context.Context, name string) (*domain.Task, error) {
	if name == "" {
		return nil, domain.ErrNameRequired
	}

	t := &domain.Task{
		Name: name,
		Date: domain.FormatDate(s.now()),
	}
	if err := s.store.Collection(domain.ActiveTasks).Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to add task: %w", err)
	}

	s.publish("TaskAdded", t.ID, func(bus mono.EventBus) error {
		return events.TaskAddedV1.Publish(bus, events.TaskAddedEvent{
			TaskID:    t.ID,
			Name:      t.Name,
			Date:      t.Date,
			CreatedAt: t.CreatedAt,
		}, nil)
	})

	return t, nil
}

// CompleteTask moves an active task into the completed collection. Only the
// name is carried over; the completed record gets a fresh id and today's date.
// The move is shared by every concurrent caller for id, so it runs detached
// from the cancellation of whichever caller started it.
func (s *Service) CompleteTask(ctx context.Context, id string) (*domain.Task, error) {
	val, err, _ := s.sfGroup.Do(id, func() (any, error) {
		flightCtx := context.WithoutCancel(ctx)
		date := domain.FormatDate(s.now())
		moved, err := s.store.Move(flightCtx, id, domain.ActiveTasks, domain.CompletedTasks,
			func(src *domain.Task) *domain.Task {
				return &domain.Task{Name: src.Name, Date: date}
			})
		if err != nil {
			return nil, err
		}

		s.publish("TaskCompleted", id, func(bus mono.EventBus) error {
			return events.TaskCompletedV1.Publish(bus, events.TaskCompletedEvent{
				TaskID:      id,
				CompletedID: moved.ID,
				Name:        moved.Name,
				Date:        moved.Date,
				CompletedAt: moved.CreatedAt,
			}, nil)
		})
		return moved, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	moved := *val.(*domain.Task)
	return &moved, nil
}

// DeleteCompleted removes a task from the completed collection.
func (s *Service) DeleteCompleted(ctx context.Context, id string) error {
	repo := s.store.Collection(domain.CompletedTasks)

	if _, err := repo.FindByID(ctx, id); err != nil {
		return fmt.Errorf("failed to find completed task: %w", err)
	}
	if err := repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete completed task: %w", err)
	}

	s.publish("CompletedTaskDeleted", id, func(bus mono.EventBus) error {
		return events.CompletedTaskDeletedV1.Publish(bus, events.CompletedTaskDeletedEvent{
			TaskID:    id,
			DeletedAt: s.now(),
		}, nil)
	})
	return nil
}

// publish is best-effort: a failure is logged and never fails the operation.
func (s *Service) publish(event, taskID string, fn func(mono.EventBus) error) {
	if s.eventBus == nil {
		return
	}
	if err := fn(s.eventBus); err != nil {
		s.logger.Warn("Failed to publish event", "event", event, "task_id", taskID, "error", err)
	}
}
