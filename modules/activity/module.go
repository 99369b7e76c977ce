// Package activity records a human-readable trail of todo list changes by
// consuming the todo module's events.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/jaevor/go-nanoid"
	"github.com/zeinputraa/simple-todo-app/events"
)

// DefaultLimit is how many entries the module keeps.
const DefaultLimit = 100

// entryIDLength is the size of generated entry IDs.
const entryIDLength = 12

var newEntryID = func() func() string {
	gen, err := nanoid.Standard(entryIDLength)
	if err != nil {
		panic(err)
	}
	return gen
}()

// Entry is one recorded change.
type Entry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TodoID    string    `json:"todo_id,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityModule subscribes to todo events and keeps the most recent entries.
type ActivityModule struct {
	limit   int
	entries []Entry
	mu      sync.RWMutex
}

var _ mono.Module = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)
var _ mono.ServiceProviderModule = (*ActivityModule)(nil)

// NewModule creates an activity module keeping at most limit entries.
// A non-positive limit means DefaultLimit.
func NewModule(limit int) *ActivityModule {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &ActivityModule{
		limit:   limit,
		entries: make([]Entry, 0, limit),
	}
}

func (m *ActivityModule) Name() string {
	return "activity"
}

func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoAddedV1, m.handleTodoAdded, m); err != nil {
		return fmt.Errorf("failed to register TodoAdded consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoToggledV1, m.handleTodoToggled, m); err != nil {
		return fmt.Errorf("failed to register TodoToggled consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TodoDeletedV1, m.handleTodoDeleted, m); err != nil {
		return fmt.Errorf("failed to register TodoDeleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.CompletedClearedV1, m.handleCompletedCleared, m); err != nil {
		return fmt.Errorf("failed to register CompletedCleared consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.CollectionReplacedV1, m.handleCollectionReplaced, m); err != nil {
		return fmt.Errorf("failed to register CollectionReplaced consumer: %w", err)
	}

	log.Printf("[activity] Registered event consumers: TodoAdded, TodoToggled, TodoDeleted, CompletedCleared, CollectionReplaced")
	return nil
}

func (m *ActivityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRecent, json.Unmarshal, json.Marshal, m.recentActivity,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRecent, err)
	}
	return nil
}

func (m *ActivityModule) handleTodoAdded(_ context.Context, event events.TodoAddedEvent, _ *mono.Msg) error {
	log.Printf("[activity] Todo added: %s - %s", event.TodoID, event.Text)
	m.record(event.TodoID, "todo_added", fmt.Sprintf("Added '%s' (%d in list)", event.Text, event.Total))
	return nil
}

func (m *ActivityModule) handleTodoToggled(_ context.Context, event events.TodoToggledEvent, _ *mono.Msg) error {
	state := "active"
	if event.Completed {
		state = "completed"
	}
	log.Printf("[activity] Todo toggled: %s -> %s", event.TodoID, state)
	m.record(event.TodoID, "todo_toggled", fmt.Sprintf("Marked %s as %s", event.TodoID, state))
	return nil
}

func (m *ActivityModule) handleTodoDeleted(_ context.Context, event events.TodoDeletedEvent, _ *mono.Msg) error {
	log.Printf("[activity] Todo deleted: %s", event.TodoID)
	m.record(event.TodoID, "todo_deleted", fmt.Sprintf("Deleted %s", event.TodoID))
	return nil
}

func (m *ActivityModule) handleCompletedCleared(_ context.Context, event events.CompletedClearedEvent, _ *mono.Msg) error {
	log.Printf("[activity] Completed cleared: %d removed", event.Removed)
	m.record("", "completed_cleared", fmt.Sprintf("Cleared %d completed, %d remaining", event.Removed, event.Remaining))
	return nil
}

func (m *ActivityModule) handleCollectionReplaced(_ context.Context, event events.CollectionReplacedEvent, _ *mono.Msg) error {
	log.Printf("[activity] Collection replaced by %s: %d todos", event.Reason, event.Total)

	msg := fmt.Sprintf("List replaced by %s (%d todos)", event.Reason, event.Total)
	if event.BackupKey != "" {
		msg = fmt.Sprintf("List restored from %s (%d todos)", event.BackupKey, event.Total)
	}
	m.record("", "collection_"+event.Reason, msg)
	return nil
}

func (m *ActivityModule) record(todoID, entryType, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == m.limit {
		copy(m.entries, m.entries[1:])
		m.entries = m.entries[:len(m.entries)-1]
	}
	m.entries = append(m.entries, Entry{
		ID:        newEntryID(),
		Type:      entryType,
		TodoID:    todoID,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// Recent returns up to n entries, newest first. n <= 0 returns all of them.
func (m *ActivityModule) Recent(n int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n <= 0 || n > len(m.entries) {
		n = len(m.entries)
	}
	result := make([]Entry, 0, n)
	for i := len(m.entries) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, m.entries[i])
	}
	return result
}

func (m *ActivityModule) Start(_ context.Context) error {
	log.Println("[activity] Module started - listening for todo events")
	return nil
}

func (m *ActivityModule) Stop(_ context.Context) error {
	log.Println("[activity] Module stopped")
	return nil
}
