package store

import (
	"context"
	"fmt"

	"github.com/example/todo-api/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// PluginModule owns the datastore connection.
// Plugins start before and stop after regular modules, so the store is open
// for the whole lifetime of the modules that use it.
type PluginModule struct {
	container types.ServiceContainer
	store     task.Store
	dsn       string
	opts      Options
	logger    types.Logger
}

// Compile-time interface checks.
var (
	_ mono.PluginModule          = (*PluginModule)(nil)
	_ mono.HealthCheckableModule = (*PluginModule)(nil)
)

// NewPluginModule creates a store plugin for the given connection string.
func NewPluginModule(dsn string, opts Options, logger types.Logger) *PluginModule {
	return &PluginModule{
		dsn:    dsn,
		opts:   opts,
		logger: logger,
	}
}

// NewPluginModuleWithStore creates a plugin around an already open store.
func NewPluginModuleWithStore(s task.Store, logger types.Logger) *PluginModule {
	return &PluginModule{
		store:  s,
		logger: logger,
	}
}

// Name returns the module name.
func (m *PluginModule) Name() string {
	return "store"
}

// Start opens the datastore unless one was injected.
func (m *PluginModule) Start(ctx context.Context) error {
	if m.store != nil {
		m.logger.Info("Store plugin started with injected store", "driver", m.store.Driver())
		return nil
	}

	s, err := Open(ctx, m.dsn, m.opts)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	m.store = s

	m.logger.Info("Store plugin started", "driver", s.Driver(), "dsn", Redact(m.dsn))
	return nil
}

// Stop closes the datastore.
func (m *PluginModule) Stop(_ context.Context) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Close(); err != nil {
		m.logger.Error("Failed to close store", "error", err)
		return fmt.Errorf("failed to close store: %w", err)
	}
	m.logger.Info("Store plugin stopped")
	return nil
}

// SetContainer sets the service container for this plugin.
func (m *PluginModule) SetContainer(container types.ServiceContainer) {
	m.container = container
}

// Container returns the service container for this plugin.
func (m *PluginModule) Container() types.ServiceContainer {
	return m.container
}

// Port returns the store used by consumer modules. It is nil before Start.
func (m *PluginModule) Port() task.Store {
	return m.store
}

// Health pings the datastore.
func (m *PluginModule) Health(ctx context.Context) mono.HealthStatus {
	if m.store == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "store not initialized",
		}
	}

	if err := m.store.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("store ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.store.Driver(),
		},
	}
}
