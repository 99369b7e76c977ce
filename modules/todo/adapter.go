package todo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	domain "github.com/zeinputraa/simple-todo-app/domain/todo"
	"github.com/zeinputraa/simple-todo-app/modules/todostore"
)

// todoAdapter implements TodoPort over the todo module's service container.
type todoAdapter struct {
	container mono.ServiceContainer
}

var _ TodoPort = (*todoAdapter)(nil)

// NewTodoAdapter creates a new adapter for todo services.
// container is the ServiceContainer from the todo module received via SetDependencyServiceContainer.
func NewTodoAdapter(container mono.ServiceContainer) TodoPort {
	if container == nil {
		panic("todo adapter requires non-nil ServiceContainer")
	}
	return &todoAdapter{container: container}
}

// callService invokes a todo service and maps its error back to a sentinel.
func callService[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return mapServiceError(fmt.Errorf("%s service call failed: %w", service, err))
	}
	return nil
}

// Add adds a todo via the add service.
func (a *todoAdapter) Add(ctx context.Context, text string) (*domain.Todo, error) {
	req := AddRequest{Text: text}
	var resp TodoResponse
	if err := callService(ctx, a.container, ServiceAdd, &req, &resp); err != nil {
		return nil, err
	}
	return &resp.Todo, nil
}

// Toggle flips a todo via the toggle service.
func (a *todoAdapter) Toggle(ctx context.Context, id string) (*domain.Todo, error) {
	req := TodoIDRequest{ID: id}
	var resp TodoResponse
	if err := callService(ctx, a.container, ServiceToggle, &req, &resp); err != nil {
		return nil, err
	}
	return &resp.Todo, nil
}

// Delete removes a todo via the delete service.
func (a *todoAdapter) Delete(ctx context.Context, id string) error {
	req := TodoIDRequest{ID: id}
	var resp DeleteResponse
	if err := callService(ctx, a.container, ServiceDelete, &req, &resp); err != nil {
		return err
	}
	if !resp.Deleted {
		return fmt.Errorf("%w: %s", domain.ErrTodoNotFound, id)
	}
	return nil
}

// ClearCompleted removes completed todos via the clear-completed service.
func (a *todoAdapter) ClearCompleted(ctx context.Context) (int, error) {
	var resp ClearCompletedResponse
	if err := callService(ctx, a.container, ServiceClearCompleted, &EmptyRequest{}, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// List returns the filtered todos via the list service.
func (a *todoAdapter) List(ctx context.Context, filter string) (*ListResponse, error) {
	req := ListRequest{Filter: filter}
	var resp ListResponse
	if err := callService(ctx, a.container, ServiceList, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Todos == nil {
		resp.Todos = []domain.Todo{}
	}
	return &resp, nil
}

// Export renders a snapshot via the export service.
func (a *todoAdapter) Export(ctx context.Context) (string, error) {
	var resp ExportResponse
	if err := callService(ctx, a.container, ServiceExport, &EmptyRequest{}, &resp); err != nil {
		return "", err
	}
	return resp.Snapshot, nil
}

// Import replaces the collection via the import service.
func (a *todoAdapter) Import(ctx context.Context, snapshot string) (int, error) {
	req := ImportRequest{Snapshot: snapshot}
	var resp ReplaceResponse
	if err := callService(ctx, a.container, ServiceImport, &req, &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// Clear removes the stored collection via the clear service.
func (a *todoAdapter) Clear(ctx context.Context) error {
	var resp AckResponse
	return callService(ctx, a.container, ServiceClear, &EmptyRequest{}, &resp)
}

// Backup creates a backup via the backup service.
func (a *todoAdapter) Backup(ctx context.Context) (string, error) {
	var resp BackupResponse
	if err := callService(ctx, a.container, ServiceBackup, &EmptyRequest{}, &resp); err != nil {
		return "", err
	}
	return resp.Key, nil
}

// ListBackups lists backup keys via the list-backups service.
func (a *todoAdapter) ListBackups(ctx context.Context) ([]string, error) {
	var resp ListBackupsResponse
	if err := callService(ctx, a.container, ServiceListBackups, &EmptyRequest{}, &resp); err != nil {
		return nil, err
	}
	if resp.Keys == nil {
		resp.Keys = []string{}
	}
	return resp.Keys, nil
}

// RestoreBackup restores a backup via the restore-backup service.
func (a *todoAdapter) RestoreBackup(ctx context.Context, key string) (int, error) {
	req := BackupKeyRequest{Key: key}
	var resp ReplaceResponse
	if err := callService(ctx, a.container, ServiceRestoreBackup, &req, &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// DeleteBackup removes a backup via the delete-backup service.
func (a *todoAdapter) DeleteBackup(ctx context.Context, key string) error {
	req := BackupKeyRequest{Key: key}
	var resp AckResponse
	return callService(ctx, a.container, ServiceDeleteBackup, &req, &resp)
}

// Stats returns storage statistics via the stats service.
func (a *todoAdapter) Stats(ctx context.Context) (*todostore.Stats, error) {
	var resp todostore.Stats
	if err := callService(ctx, a.container, ServiceStats, &EmptyRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// mapServiceError restores sentinel errors lost on the bus by matching their messages.
// The original text is kept so callers can still log it.
func mapServiceError(err error) error {
	if err == nil {
		return nil
	}

	errMsg := strings.ToLower(err.Error())

	var sentinel error
	switch {
	case strings.Contains(errMsg, domain.ErrEmptyText.Error()):
		sentinel = domain.ErrEmptyText
	case strings.Contains(errMsg, domain.ErrTodoNotFound.Error()):
		sentinel = domain.ErrTodoNotFound
	case strings.Contains(errMsg, domain.ErrInvalidFilter.Error()):
		sentinel = domain.ErrInvalidFilter
	case strings.Contains(errMsg, strings.ToLower(todostore.ErrBackupNotFound.Error())):
		sentinel = todostore.ErrBackupNotFound
	case strings.Contains(errMsg, strings.ToLower(todostore.ErrInvalidBackupKey.Error())):
		sentinel = todostore.ErrInvalidBackupKey
	case strings.Contains(errMsg, todostore.ErrInvalidSnapshot.Error()):
		sentinel = todostore.ErrInvalidSnapshot
	case strings.Contains(errMsg, string(todostore.KindMalformedData)):
		sentinel = todostore.ErrMalformedData
	case strings.Contains(errMsg, string(todostore.KindStorageAccess)):
		sentinel = todostore.ErrStorageAccess
	default:
		return err
	}
	return fmt.Errorf("%w: %s", sentinel, err.Error())
}
