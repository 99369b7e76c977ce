package todostore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zeinputraa/simple-todo-app/domain/todo"
)

// Snapshot is the export document. It carries no version field.
type Snapshot struct {
	ExportDate string      `json:"exportDate"`
	TotalTodos int         `json:"totalTodos"`
	Todos      []todo.Todo `json:"todos"`
}

var errTodosNotArray = errors.New("snapshot has no todos array")

// encodeCollection renders the stored form of a collection. A nil collection encodes as [].
func encodeCollection(todos []todo.Todo) (string, error) {
	if todos == nil {
		todos = []todo.Todo{}
	}
	data, err := json.Marshal(todos)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeCollection parses a stored collection and drops records without an id or text.
// A JSON null decodes to an empty collection.
func decodeCollection(raw string) ([]todo.Todo, int, error) {
	var records []todo.Todo
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return []todo.Todo{}, 0, err
	}

	valid := make([]todo.Todo, 0, len(records))
	for _, r := range records {
		if r.Valid() {
			valid = append(valid, r)
		}
	}
	return valid, len(records) - len(valid), nil
}

// encodeSnapshot renders a snapshot with two-space indentation.
func encodeSnapshot(s Snapshot) (string, error) {
	if s.Todos == nil {
		s.Todos = []todo.Todo{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parseSnapshot extracts the todos of an import document.
// The document must be an object whose todos field is an array of valid records.
func parseSnapshot(blob string) ([]todo.Todo, error) {
	var envelope struct {
		Todos json.RawMessage `json:"todos"`
	}
	if err := json.Unmarshal([]byte(blob), &envelope); err != nil {
		return nil, err
	}

	raw := bytes.TrimSpace(envelope.Todos)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, errTodosNotArray
	}

	var records []todo.Todo
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}

	for i, r := range records {
		if !r.Valid() {
			return nil, fmt.Errorf("record %d: missing id or text", i)
		}
	}
	if records == nil {
		records = []todo.Todo{}
	}
	return records, nil
}
