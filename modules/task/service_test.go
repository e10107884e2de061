package task

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	domain "github.com/example/todo-api/domain/task"
	"github.com/example/todo-api/modules/store"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)         {}
func (m *mockLogger) Info(msg string, args ...any)          {}
func (m *mockLogger) Warn(msg string, args ...any)          {}
func (m *mockLogger) Error(msg string, args ...any)         {}
func (m *mockLogger) With(args ...any) types.Logger         { return m }
func (m *mockLogger) WithError(err error) types.Logger      { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

var datePattern = regexp.MustCompile(`^\d\d/\d\d/\d\d$`)

// newTestService creates a service over an in-memory store with a fixed clock.
func newTestService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	svc := NewService(s, nil, &mockLogger{})
	svc.now = func() time.Time {
		return time.Date(2025, time.January, 3, 10, 30, 0, 0, time.Local)
	}
	return svc, s
}

func TestService_AddTask(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.AddTask(ctx, "Buy milk")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Buy milk", created.Name)
	assert.Equal(t, "03/01/25", created.Date)
	assert.False(t, created.CreatedAt.IsZero())

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, created.ID, active[0].ID)
	assert.Regexp(t, datePattern, active[0].Date)
}

func TestService_AddTask_NameRequired(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddTask(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNameRequired)

	active, err := s.Collection(domain.ActiveTasks).FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestService_ListNormalizesMissingDate(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	legacy := &domain.Task{Name: "no date"}
	require.NoError(t, s.Collection(domain.ActiveTasks).Create(ctx, legacy))

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, domain.FormatDate(legacy.CreatedAt), active[0].Date)
	assert.Regexp(t, datePattern, active[0].Date)
}

func TestService_ListEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.NotNil(t, active)
	assert.Empty(t, active)

	completed, err := svc.ListCompleted(ctx)
	require.NoError(t, err)
	assert.NotNil(t, completed)
	assert.Empty(t, completed)
}

func TestService_CompleteTask(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.AddTask(ctx, "Buy milk")
	require.NoError(t, err)

	svc.now = func() time.Time {
		return time.Date(2025, time.February, 14, 9, 0, 0, 0, time.Local)
	}

	moved, err := svc.CompleteTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", moved.Name)
	assert.Equal(t, "14/02/25", moved.Date)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	completed, err := svc.ListCompleted(ctx)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "Buy milk", completed[0].Name)
	assert.Equal(t, "14/02/25", completed[0].Date)
}

func TestService_CompleteTask_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	kept, err := svc.AddTask(ctx, "keep me")
	require.NoError(t, err)

	_, err = svc.CompleteTask(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, kept.ID, active[0].ID)

	completed, err := svc.ListCompleted(ctx)
	require.NoError(t, err)
	assert.Empty(t, completed)
}

func TestService_CompleteTask_Twice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.AddTask(ctx, "once")
	require.NoError(t, err)

	_, err = svc.CompleteTask(ctx, created.ID)
	require.NoError(t, err)

	_, err = svc.CompleteTask(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_CompleteTask_Concurrent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.AddTask(ctx, "race")
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CompleteTask(ctx, created.ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.GreaterOrEqual(t, successes, 1)

	completed, err := svc.ListCompleted(ctx)
	require.NoError(t, err)
	assert.Len(t, completed, 1)
}

func TestService_DeleteCompleted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.AddTask(ctx, "finish report")
	require.NoError(t, err)
	moved, err := svc.CompleteTask(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCompleted(ctx, moved.ID))

	completed, err := svc.ListCompleted(ctx)
	require.NoError(t, err)
	assert.Empty(t, completed)

	err = svc.DeleteCompleted(ctx, moved.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_DeleteCompleted_IgnoresActive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.AddTask(ctx, "still open")
	require.NoError(t, err)

	err = svc.DeleteCompleted(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

// failingStore returns an error from every operation.
type failingStore struct {
	*store.MemoryStore
	err error
}

func (f *failingStore) Collection(c domain.Collection) domain.Repository {
	return &failingRepository{Repository: f.MemoryStore.Collection(c), err: f.err}
}

func (f *failingStore) Move(context.Context, string, domain.Collection, domain.Collection, domain.BuildFunc) (*domain.Task, error) {
	return nil, f.err
}

type failingRepository struct {
	domain.Repository
	err error
}

func (r *failingRepository) Create(context.Context, *domain.Task) error { return r.err }
func (r *failingRepository) FindAll(context.Context) ([]*domain.Task, error) {
	return nil, r.err
}
func (r *failingRepository) FindByID(context.Context, string) (*domain.Task, error) {
	return nil, r.err
}
func (r *failingRepository) Delete(context.Context, string) error { return r.err }

func TestService_StoreErrors(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := NewService(&failingStore{MemoryStore: store.NewMemoryStore(), err: storeErr}, nil, &mockLogger{})
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"list active", func() error { _, err := svc.ListActive(ctx); return err }},
		{"list completed", func() error { _, err := svc.ListCompleted(ctx); return err }},
		{"add", func() error { _, err := svc.AddTask(ctx, "x"); return err }},
		{"complete", func() error { _, err := svc.CompleteTask(ctx, "id"); return err }},
		{"delete completed", func() error { return svc.DeleteCompleted(ctx, "id") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.ErrorIs(t, err, storeErr)
			assert.NotErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestService_StoreErrorsOmitRequestID(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := NewService(&failingStore{MemoryStore: store.NewMemoryStore(), err: storeErr}, nil, &mockLogger{})
	ctx := context.Background()
	id := "name is required"

	tests := []struct {
		name string
		call func() error
	}{
		{"complete", func() error { _, err := svc.CompleteTask(ctx, id); return err }},
		{"delete completed", func() error { return svc.DeleteCompleted(ctx, id) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.NotContains(t, err.Error(), id)

			// the text is all that crosses the service boundary
			mapped := mapServiceError(errors.New(err.Error()))
			assert.NotErrorIs(t, mapped, domain.ErrNameRequired)
			assert.NotErrorIs(t, mapped, domain.ErrNotFound)
		})
	}
}

// ctxRecordingStore records the context error seen by Move.
type ctxRecordingStore struct {
	*store.MemoryStore
	moveCtxErr error
}

func (s *ctxRecordingStore) Move(ctx context.Context, id string, from, to domain.Collection, build domain.BuildFunc) (*domain.Task, error) {
	s.moveCtxErr = ctx.Err()
	return s.MemoryStore.Move(ctx, id, from, to, build)
}

func TestService_CompleteTask_IgnoresCallerCancellation(t *testing.T) {
	s := &ctxRecordingStore{MemoryStore: store.NewMemoryStore()}
	svc := NewService(s, nil, &mockLogger{})

	created, err := svc.AddTask(context.Background(), "shared")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	moved, err := svc.CompleteTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "shared", moved.Name)
	assert.NoError(t, s.moveCtxErr)
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"not found", fmt.Errorf("service error: failed to complete task: %s", domain.ErrNotFound), domain.ErrNotFound},
		{"not found upper case", errors.New("TASK NOT FOUND"), domain.ErrNotFound},
		{"name required", fmt.Errorf("remote: %s", domain.ErrNameRequired), domain.ErrNameRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapServiceError(tt.in))
		})
	}

	other := errors.New("nats: timeout")
	assert.Same(t, other, mapServiceError(other))
}
