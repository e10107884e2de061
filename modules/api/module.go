// Package api exposes the task operations over HTTP.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/example/todo-api/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Options configure the HTTP server.
type Options struct {
	Port           int
	AllowedOrigins string
	// RateLimitMax is the number of requests allowed per client and window.
	// Zero disables rate limiting.
	RateLimitMax    int
	RateLimitWindow time.Duration
	RedisAddr       string
	// AccessLog enables the request logging middleware.
	AccessLog bool
}

// Module is the driving adapter that exposes the REST endpoints.
// It calls into the task module via the TaskPort interface.
type Module struct {
	app            *fiber.App
	taskPort       task.TaskPort
	opts           Options
	limiterStorage fiber.Storage
	logger         types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new API module.
func NewModule(opts Options, logger types.Logger) *Module {
	return &Module{
		opts:   opts,
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"task"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "task" {
		m.taskPort = task.NewTaskAdapter(container)
	}
}

// SetTaskPort replaces the task port. Used to serve the API without the
// service container.
func (m *Module) SetTaskPort(port task.TaskPort) {
	m.taskPort = port
}

// newApp builds the Fiber app with middleware and routes.
func (m *Module) newApp() (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:               "Todo API",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if m.opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	origins := m.opts.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
	}))

	if m.opts.RateLimitMax > 0 {
		limit, err := m.newLimiter()
		if err != nil {
			return nil, err
		}
		app.Use(limit)
	}

	m.setupRoutes(app)
	return app, nil
}

// Start initializes the Fiber HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.taskPort == nil {
		return fmt.Errorf("taskPort dependency not set")
	}

	app, err := m.newApp()
	if err != nil {
		return fmt.Errorf("failed to build http app: %w", err)
	}
	m.app = app

	addr := fmt.Sprintf(":%d", m.opts.Port)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "addr", addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server...")
	err := m.app.ShutdownWithContext(ctx)

	if m.limiterStorage != nil {
		if cerr := m.limiterStorage.Close(); cerr != nil {
			m.logger.Warn("Failed to close rate limit storage", "error", cerr)
		}
	}
	return err
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":       m.opts.Port,
			"rate_limit": m.opts.RateLimitMax,
		},
	}
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	errCode := "server_error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
		if code == fiber.StatusNotFound {
			errCode = "not_found"
		}
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}
