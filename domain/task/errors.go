package task

import "errors"

// Sentinel errors for task operations.
var (
	// ErrNotFound is returned when the id is absent from the targeted collection.
	ErrNotFound = errors.New("task not found")

	// ErrNameRequired is returned when a task is added without a name.
	ErrNameRequired = errors.New("name is required")
)
