// Package todo holds the task record and the pure list operations applied to it.
package todo

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the ISO 8601 form used for CreatedAt (UTC, millisecond precision).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Todo is a single to-do item.
// CreatedAt is kept as the stored string so records written elsewhere round-trip unchanged.
type Todo struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// New creates a pending todo with a fresh identifier.
// Text is trimmed; blank text is rejected with ErrEmptyText.
func New(text string, now time.Time) (Todo, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Todo{}, ErrEmptyText
	}
	return Todo{
		ID:        uuid.New().String(),
		Text:      trimmed,
		Completed: false,
		CreatedAt: now.UTC().Format(TimestampLayout),
	}, nil
}

// Valid reports whether the record carries an identifier and non-blank text.
func (t Todo) Valid() bool {
	return t.ID != "" && strings.TrimSpace(t.Text) != ""
}

// Filter selects a view over the collection.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter maps a query value to a Filter. Empty means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive:
		return FilterActive, nil
	case FilterCompleted:
		return FilterCompleted, nil
	default:
		return "", ErrInvalidFilter
	}
}

// Counts are the derived totals shown alongside the list.
type Counts struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}
