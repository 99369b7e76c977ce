package api

import (
	domain "github.com/zeinputraa/simple-todo-app/domain/todo"
	"github.com/zeinputraa/simple-todo-app/modules/activity"
)

// AddTodoRequest is the HTTP request for adding a todo.
type AddTodoRequest struct {
	Text string `json:"text"`
}

// TodoListResponse is the HTTP response for listing todos.
type TodoListResponse struct {
	Filter string        `json:"filter"`
	Todos  []domain.Todo `json:"todos"`
	Counts domain.Counts `json:"counts"`
}

// ClearCompletedResponse reports how many todos clear-completed removed.
type ClearCompletedResponse struct {
	Removed int `json:"removed"`
}

// ReplaceResponse reports the collection size after import or restore.
type ReplaceResponse struct {
	Total int `json:"total"`
}

// BackupResponse is the HTTP response for a new backup.
type BackupResponse struct {
	Key string `json:"key"`
}

// BackupListResponse lists backup keys, oldest first.
type BackupListResponse struct {
	Keys []string `json:"keys"`
}

// ActivityResponse lists recent activity, newest first.
type ActivityResponse struct {
	Entries []activity.Entry `json:"entries"`
}

// HealthResponse is the HTTP response for health check.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the HTTP error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
