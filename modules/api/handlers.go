package api

import (
	"errors"

	domain "github.com/example/todo-api/domain/task"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Confirmation messages returned to clients.
const (
	MsgTaskCompleted = "Task completed and moved."
	MsgTaskDeleted   = "Task deleted"
)

const (
	landingText = "Todo API is running. See /about for the available routes."
	aboutText   = `Todo API

GET    /todos               list active tasks
POST   /addtodo             add a task ({"name": "..."})
DELETE /deletetodo/:id      complete a task
GET    /completedtasks      list completed tasks
DELETE /completedtasks/:id  delete a completed task
`
)

// setupRoutes configures all HTTP routes.
func (m *Module) setupRoutes(app *fiber.App) {
	app.Get("/", m.landing)
	app.Get("/about", m.about)
	app.Get("/health", m.healthHandler)

	app.Get("/todos", m.listTodos)
	app.Post("/addtodo", m.addTodo)
	app.Delete("/deletetodo/:id", m.completeTodo)

	app.Get("/completedtasks", m.listCompleted)
	app.Delete("/completedtasks/:id", m.deleteCompleted)
}

// landing handles GET /.
func (m *Module) landing(c *fiber.Ctx) error {
	return c.SendString(landingText)
}

// about handles GET /about.
func (m *Module) about(c *fiber.Ctx) error {
	return c.SendString(aboutText)
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module": "api",
			"port":   m.opts.Port,
		},
	})
}

// listTodos handles GET /todos.
func (m *Module) listTodos(c *fiber.Ctx) error {
	tasks, err := m.taskPort.ListActive(c.UserContext())
	if err != nil {
		return m.taskError(c, err, "Failed to fetch todos")
	}
	return c.JSON(tasks)
}

// addTodo handles POST /addtodo.
func (m *Module) addTodo(c *fiber.Ctx) error {
	var req AddTodoRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid request body",
			})
		}
	}

	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Name is required",
		})
	}

	created, err := m.taskPort.AddTask(c.UserContext(), req.Name)
	if err != nil {
		return m.taskError(c, err, "Failed to add todo")
	}
	return c.JSON(created)
}

// completeTodo handles DELETE /deletetodo/:id.
func (m *Module) completeTodo(c *fiber.Ctx) error {
	if _, err := m.taskPort.CompleteTask(c.UserContext(), c.Params("id")); err != nil {
		return m.taskError(c, err, "Failed to complete and delete task")
	}
	return c.JSON(MessageResponse{Message: MsgTaskCompleted})
}

// listCompleted handles GET /completedtasks.
func (m *Module) listCompleted(c *fiber.Ctx) error {
	tasks, err := m.taskPort.ListCompleted(c.UserContext())
	if err != nil {
		return m.taskError(c, err, "Failed to fetch completed tasks")
	}
	return c.JSON(tasks)
}

// deleteCompleted handles DELETE /completedtasks/:id.
func (m *Module) deleteCompleted(c *fiber.Ctx) error {
	if err := m.taskPort.DeleteCompleted(c.UserContext(), c.Params("id")); err != nil {
		return m.taskError(c, err, "Failed to delete task")
	}
	return c.JSON(MessageResponse{Message: MsgTaskDeleted})
}

// taskError maps a task error to a response. Store failures are logged and
// reported with the generic message only.
func (m *Module) taskError(c *fiber.Ctx, err error, failure string) error {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Name is required",
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Task not found",
		})
	}

	m.logger.Error(failure, "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "server_error",
		Message: failure,
	})
}
