package api

// AddTodoRequest is the HTTP request for adding a task.
type AddTodoRequest struct {
	Name string `json:"name" validate:"required"`
}

// MessageResponse is the HTTP response for operations that return a confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the HTTP error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the HTTP response for health check.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
