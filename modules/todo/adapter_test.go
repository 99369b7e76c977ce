package todo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	domain "github.com/zeinputraa/simple-todo-app/domain/todo"
	"github.com/zeinputraa/simple-todo-app/modules/todostore"
)

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "empty text", err: errors.New("add service call failed: todo text is empty"), want: domain.ErrEmptyText},
		{name: "not found", err: errors.New("toggle service call failed: todo not found: abc"), want: domain.ErrTodoNotFound},
		{name: "filter", err: errors.New("list service call failed: invalid filter"), want: domain.ErrInvalidFilter},
		{
			name: "backup not found",
			err:  errors.New(`todostore restore: invalid_input: invalid input: backup not found: "@todos_data_backup_1"`),
			want: todostore.ErrBackupNotFound,
		},
		{
			name: "invalid backup key",
			err:  errors.New(`todostore restore: invalid_input: invalid input: not a backup key: "x"`),
			want: todostore.ErrInvalidBackupKey,
		},
		{name: "malformed", err: errors.New("todostore load: malformed_data: unexpected end"), want: todostore.ErrMalformedData},
		{
			name: "invalid snapshot",
			err:  errors.New("todostore import: malformed_data: malformed todo data: invalid snapshot: todos is not an array"),
			want: todostore.ErrInvalidSnapshot,
		},
		{name: "storage", err: errors.New("todostore save: storage_access: connection refused"), want: todostore.ErrStorageAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapServiceError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.Contains(t, got.Error(), tt.err.Error())
		})
	}
}

func TestMapServiceError_Passthrough(t *testing.T) {
	assert.NoError(t, mapServiceError(nil))

	err := errors.New("nats: timeout")
	assert.Same(t, err, mapServiceError(err))
}

func TestMapServiceError_StoredMalformedIsNotInvalidSnapshot(t *testing.T) {
	got := mapServiceError(errors.New("import service call failed: todostore load: malformed_data: unexpected end"))
	assert.ErrorIs(t, got, todostore.ErrMalformedData)
	assert.NotErrorIs(t, got, todostore.ErrInvalidSnapshot)
}

func TestMapServiceError_InvalidInputFamily(t *testing.T) {
	got := mapServiceError(errors.New(`todostore delete-backup: invalid_input: invalid input: not a backup key: "x"`))
	assert.ErrorIs(t, got, todostore.ErrInvalidInput)
}
