package todo

import (
	"context"

	domain "github.com/zeinputraa/simple-todo-app/domain/todo"
	"github.com/zeinputraa/simple-todo-app/modules/todostore"
)

// TodoPort is the interface other modules use to reach the todo module.
type TodoPort interface {
	Add(ctx context.Context, text string) (*domain.Todo, error)
	Toggle(ctx context.Context, id string) (*domain.Todo, error)
	Delete(ctx context.Context, id string) error
	ClearCompleted(ctx context.Context) (int, error)
	List(ctx context.Context, filter string) (*ListResponse, error)
	Export(ctx context.Context) (string, error)
	Import(ctx context.Context, snapshot string) (int, error)
	Clear(ctx context.Context) error
	Backup(ctx context.Context) (string, error)
	ListBackups(ctx context.Context) ([]string, error)
	RestoreBackup(ctx context.Context, key string) (int, error)
	DeleteBackup(ctx context.Context, key string) error
	Stats(ctx context.Context) (*todostore.Stats, error)
}

// AddRequest is the request for adding a todo.
type AddRequest struct {
	Text string `json:"text"`
}

// TodoIDRequest identifies a single todo.
type TodoIDRequest struct {
	ID string `json:"id"`
}

// TodoResponse carries a single todo.
type TodoResponse struct {
	Todo domain.Todo `json:"todo"`
}

// DeleteResponse is the response for deleting a todo.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// ClearCompletedResponse reports how many todos were removed.
type ClearCompletedResponse struct {
	Removed int `json:"removed"`
}

// ListRequest is the request for listing todos.
type ListRequest struct {
	Filter string `json:"filter,omitempty"`
}

// ListResponse is the filtered view plus counts over the whole collection.
type ListResponse struct {
	Filter string        `json:"filter"`
	Todos  []domain.Todo `json:"todos"`
	Counts domain.Counts `json:"counts"`
}

// EmptyRequest is sent to services that take no arguments.
type EmptyRequest struct{}

// AckResponse acknowledges a command without a payload.
type AckResponse struct {
	OK bool `json:"ok"`
}

// ExportResponse carries a snapshot document.
type ExportResponse struct {
	Snapshot string `json:"snapshot"`
}

// ImportRequest carries a snapshot document to import.
type ImportRequest struct {
	Snapshot string `json:"snapshot"`
}

// ReplaceResponse reports the size of the collection after a wholesale replacement.
type ReplaceResponse struct {
	Total int `json:"total"`
}

// BackupKeyRequest identifies a backup.
type BackupKeyRequest struct {
	Key string `json:"key"`
}

// BackupResponse carries the key of a new backup.
type BackupResponse struct {
	Key string `json:"key"`
}

// ListBackupsResponse lists backup keys, oldest first.
type ListBackupsResponse struct {
	Keys []string `json:"keys"`
}
