package todo

import (
	"context"
	"time"

	"github.com/go-monolith/mono"
	domain "github.com/zeinputraa/simple-todo-app/domain/todo"
	"github.com/zeinputraa/simple-todo-app/events"
	"github.com/zeinputraa/simple-todo-app/modules/todostore"
)

// Request-reply service names registered by the todo module.
const (
	ServiceAdd            = "add"
	ServiceToggle         = "toggle"
	ServiceDelete         = "delete"
	ServiceClearCompleted = "clear-completed"
	ServiceList           = "list"
	ServiceExport         = "export"
	ServiceImport         = "import"
	ServiceClear          = "clear"
	ServiceBackup         = "backup"
	ServiceListBackups    = "list-backups"
	ServiceRestoreBackup  = "restore-backup"
	ServiceDeleteBackup   = "delete-backup"
	ServiceStats          = "stats"
)

// addTodo handles the add service request.
func (m *TodoModule) addTodo(_ context.Context, req AddRequest, _ *mono.Msg) (TodoResponse, error) {
	t, total, err := m.state.Add(req.Text)
	if err != nil {
		return TodoResponse{}, err
	}

	m.publish("TodoAdded", func(bus mono.EventBus) error {
		return events.TodoAddedV1.Publish(bus, events.TodoAddedEvent{
			TodoID:    t.ID,
			Text:      t.Text,
			Total:     total,
			CreatedAt: time.Now(),
		}, nil)
	})

	return TodoResponse{Todo: t}, nil
}

// toggleTodo handles the toggle service request.
func (m *TodoModule) toggleTodo(_ context.Context, req TodoIDRequest, _ *mono.Msg) (TodoResponse, error) {
	t, err := m.state.Toggle(req.ID)
	if err != nil {
		return TodoResponse{}, err
	}

	m.publish("TodoToggled", func(bus mono.EventBus) error {
		return events.TodoToggledV1.Publish(bus, events.TodoToggledEvent{
			TodoID:    t.ID,
			Completed: t.Completed,
			ToggledAt: time.Now(),
		}, nil)
	})

	return TodoResponse{Todo: t}, nil
}

// deleteTodo handles the delete service request.
func (m *TodoModule) deleteTodo(_ context.Context, req TodoIDRequest, _ *mono.Msg) (DeleteResponse, error) {
	if err := m.state.Delete(req.ID); err != nil {
		return DeleteResponse{}, err
	}

	m.publish("TodoDeleted", func(bus mono.EventBus) error {
		return events.TodoDeletedV1.Publish(bus, events.TodoDeletedEvent{
			TodoID:    req.ID,
			DeletedAt: time.Now(),
		}, nil)
	})

	return DeleteResponse{Deleted: true}, nil
}

// clearCompleted handles the clear-completed service request.
func (m *TodoModule) clearCompleted(_ context.Context, _ EmptyRequest, _ *mono.Msg) (ClearCompletedResponse, error) {
	removed, remaining := m.state.ClearCompleted()

	if removed > 0 {
		m.publish("CompletedCleared", func(bus mono.EventBus) error {
			return events.CompletedClearedV1.Publish(bus, events.CompletedClearedEvent{
				Removed:   removed,
				Remaining: remaining,
				ClearedAt: time.Now(),
			}, nil)
		})
	}

	return ClearCompletedResponse{Removed: removed}, nil
}

// listTodos handles the list service request.
func (m *TodoModule) listTodos(_ context.Context, req ListRequest, _ *mono.Msg) (ListResponse, error) {
	filter, err := domain.ParseFilter(req.Filter)
	if err != nil {
		return ListResponse{}, err
	}

	todos, counts := m.state.List(filter)
	return ListResponse{
		Filter: string(filter),
		Todos:  todos,
		Counts: counts,
	}, nil
}

// exportTodos handles the export service request.
func (m *TodoModule) exportTodos(ctx context.Context, _ EmptyRequest, _ *mono.Msg) (ExportResponse, error) {
	snapshot, err := m.state.Export(ctx)
	if err != nil {
		return ExportResponse{}, err
	}
	return ExportResponse{Snapshot: snapshot}, nil
}

// importTodos handles the import service request.
func (m *TodoModule) importTodos(ctx context.Context, req ImportRequest, _ *mono.Msg) (ReplaceResponse, error) {
	total, err := m.state.Import(ctx, req.Snapshot)
	if err != nil {
		return ReplaceResponse{}, err
	}

	m.publishReplaced(events.ReasonImport, total, "")
	return ReplaceResponse{Total: total}, nil
}

// clearTodos handles the clear service request.
func (m *TodoModule) clearTodos(ctx context.Context, _ EmptyRequest, _ *mono.Msg) (AckResponse, error) {
	if err := m.state.Clear(ctx); err != nil {
		return AckResponse{}, err
	}

	m.publishReplaced(events.ReasonClear, 0, "")
	return AckResponse{OK: true}, nil
}

// backupTodos handles the backup service request.
func (m *TodoModule) backupTodos(ctx context.Context, _ EmptyRequest, _ *mono.Msg) (BackupResponse, error) {
	key, err := m.state.Backup(ctx)
	if err != nil {
		return BackupResponse{}, err
	}
	return BackupResponse{Key: key}, nil
}

// listBackups handles the list-backups service request.
func (m *TodoModule) listBackups(ctx context.Context, _ EmptyRequest, _ *mono.Msg) (ListBackupsResponse, error) {
	keys, err := m.state.ListBackups(ctx)
	if err != nil {
		return ListBackupsResponse{}, err
	}
	return ListBackupsResponse{Keys: keys}, nil
}

// restoreBackup handles the restore-backup service request.
func (m *TodoModule) restoreBackup(ctx context.Context, req BackupKeyRequest, _ *mono.Msg) (ReplaceResponse, error) {
	total, err := m.state.RestoreBackup(ctx, req.Key)
	if err != nil {
		return ReplaceResponse{}, err
	}

	m.publishReplaced(events.ReasonRestore, total, req.Key)
	return ReplaceResponse{Total: total}, nil
}

// deleteBackup handles the delete-backup service request.
func (m *TodoModule) deleteBackup(ctx context.Context, req BackupKeyRequest, _ *mono.Msg) (AckResponse, error) {
	if err := m.state.DeleteBackup(ctx, req.Key); err != nil {
		return AckResponse{}, err
	}
	return AckResponse{OK: true}, nil
}

// storageStats handles the stats service request.
func (m *TodoModule) storageStats(ctx context.Context, _ EmptyRequest, _ *mono.Msg) (todostore.Stats, error) {
	return m.state.Stats(ctx)
}

func (m *TodoModule) publishReplaced(reason string, total int, backupKey string) {
	m.publish("CollectionReplaced", func(bus mono.EventBus) error {
		return events.CollectionReplacedV1.Publish(bus, events.CollectionReplacedEvent{
			Reason:     reason,
			Total:      total,
			BackupKey:  backupKey,
			ReplacedAt: time.Now(),
		}, nil)
	})
}

// publish is best-effort; a failed publish never fails the operation.
func (m *TodoModule) publish(name string, fn func(mono.EventBus) error) {
	if m.eventBus == nil {
		return
	}
	if err := fn(m.eventBus); err != nil {
		m.logger.WithError(err).Warn("Failed to publish event", "event", name)
	}
}
