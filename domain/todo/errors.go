package todo

import "errors"

var (
	// ErrEmptyText indicates the todo text was empty after trimming.
	ErrEmptyText = errors.New("todo text is empty")
	// ErrTodoNotFound indicates no todo has the given identifier.
	ErrTodoNotFound = errors.New("todo not found")
	// ErrInvalidFilter indicates an unknown list filter.
	ErrInvalidFilter = errors.New("invalid filter")
)
