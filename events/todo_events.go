// Package events holds the typed event definitions emitted by the todo module.
package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TodoAddedEvent is emitted when a todo is added.
type TodoAddedEvent struct {
	TodoID    string    `json:"todo_id"`
	Text      string    `json:"text"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// TodoAddedV1 is the typed event definition for todo creation.
// Subject: events.todo.v1.todo-added
var TodoAddedV1 = helper.EventDefinition[TodoAddedEvent](
	"todo", "TodoAdded", "v1",
)

// TodoToggledEvent is emitted when a todo's completed flag flips.
type TodoToggledEvent struct {
	TodoID    string    `json:"todo_id"`
	Completed bool      `json:"completed"`
	ToggledAt time.Time `json:"toggled_at"`
}

// TodoToggledV1 is the typed event definition for toggles.
// Subject: events.todo.v1.todo-toggled
var TodoToggledV1 = helper.EventDefinition[TodoToggledEvent](
	"todo", "TodoToggled", "v1",
)

// TodoDeletedEvent is emitted when a todo is removed.
type TodoDeletedEvent struct {
	TodoID    string    `json:"todo_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TodoDeletedV1 is the typed event definition for deletion.
// Subject: events.todo.v1.todo-deleted
var TodoDeletedV1 = helper.EventDefinition[TodoDeletedEvent](
	"todo", "TodoDeleted", "v1",
)

// CompletedClearedEvent is emitted after clear-completed removed at least one todo.
type CompletedClearedEvent struct {
	Removed   int       `json:"removed"`
	Remaining int       `json:"remaining"`
	ClearedAt time.Time `json:"cleared_at"`
}

// CompletedClearedV1 is the typed event definition for clear-completed.
// Subject: events.todo.v1.completed-cleared
var CompletedClearedV1 = helper.EventDefinition[CompletedClearedEvent](
	"todo", "CompletedCleared", "v1",
)

// CollectionReplacedEvent is emitted when the whole collection changes at once
// (import, clear, restore).
type CollectionReplacedEvent struct {
	Reason     string    `json:"reason"`
	Total      int       `json:"total"`
	BackupKey  string    `json:"backup_key,omitempty"`
	ReplacedAt time.Time `json:"replaced_at"`
}

// CollectionReplacedV1 is the typed event definition for wholesale replacement.
// Subject: events.todo.v1.collection-replaced
var CollectionReplacedV1 = helper.EventDefinition[CollectionReplacedEvent](
	"todo", "CollectionReplaced", "v1",
)

// Reasons carried by CollectionReplacedEvent.
const (
	ReasonImport  = "import"
	ReasonClear   = "clear"
	ReasonRestore = "restore"
)
