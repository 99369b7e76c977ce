package todo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	domain "github.com/zeinputraa/simple-todo-app/domain/todo"
	"github.com/zeinputraa/simple-todo-app/modules/todostore"
)

// State owns the in-memory todo collection.
//
// Every mutation goes through the mutex, bumps the sequence number and hands
// the resulting collection to the writer. Operations that replace the whole
// collection (import, clear, restore) flush the writer first and reload from
// the store afterwards.
type State struct {
	store  *todostore.Store
	writer *todostore.Writer
	logger types.Logger
	now    func() time.Time

	mu    sync.RWMutex
	todos []domain.Todo
	seq   uint64
}

// NewState creates an empty state container. Call Reload to read the persisted collection.
func NewState(store *todostore.Store, writer *todostore.Writer, logger types.Logger) *State {
	return &State{
		store:  store,
		writer: writer,
		logger: logger.WithModule("todo.state"),
		now:    time.Now,
		todos:  []domain.Todo{},
	}
}

// Add appends a pending todo with trimmed text. Blank text returns domain.ErrEmptyText
// and leaves the collection unchanged.
func (s *State) Add(text string) (domain.Todo, int, error) {
	t, err := domain.New(text, s.now())
	if err != nil {
		return domain.Todo{}, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitLocked(domain.Append(s.todos, t))
	return t, len(s.todos), nil
}

// Toggle flips the completed flag of the todo with id.
func (s *State) Toggle(id string) (domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := domain.Toggle(s.todos, id)
	if !ok {
		return domain.Todo{}, fmt.Errorf("%w: %s", domain.ErrTodoNotFound, id)
	}
	s.commitLocked(next)

	t, _ := domain.Find(next, id)
	return t, nil
}

// Delete removes the todo with id. An unknown id leaves the collection unchanged
// and returns domain.ErrTodoNotFound.
func (s *State) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := domain.Remove(s.todos, id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrTodoNotFound, id)
	}
	s.commitLocked(next)
	return nil
}

// ClearCompleted removes every completed todo and returns how many were removed
// and how many remain.
func (s *State) ClearCompleted() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, removed := domain.ClearCompleted(s.todos)
	if removed > 0 {
		s.commitLocked(next)
	}
	return removed, len(s.todos)
}

// List returns the todos matching filter together with counts over the whole collection.
func (s *State) List(filter domain.Filter) ([]domain.Todo, domain.Counts) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Apply(s.todos, filter), domain.Count(s.todos)
}

// Flush blocks until every committed mutation has been written.
func (s *State) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// Reload replaces the in-memory collection with the persisted one.
// On failure the in-memory collection is kept.
func (s *State) Reload(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.settleLocked(ctx, "reload"); err != nil {
		return len(s.todos), err
	}
	return s.reloadLocked(ctx)
}

// Export flushes pending writes and renders the persisted collection as a snapshot.
func (s *State) Export(ctx context.Context) (string, error) {
	if err := s.Flush(ctx); err != nil {
		return "", err
	}
	return s.store.ExportSnapshot(ctx)
}

// Import replaces the collection with the todos of a snapshot document.
func (s *State) Import(ctx context.Context, blob string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.settleLocked(ctx, "import"); err != nil {
		return 0, err
	}
	if err := s.store.ImportSnapshot(ctx, blob); err != nil {
		return 0, err
	}
	return s.reloadLocked(ctx)
}

// Clear removes the persisted collection and empties the in-memory one.
func (s *State) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.settleLocked(ctx, "clear"); err != nil {
		return err
	}
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.replaceLocked([]domain.Todo{})
	return nil
}

// Backup flushes pending writes and copies the persisted collection under a new backup key.
func (s *State) Backup(ctx context.Context) (string, error) {
	if err := s.Flush(ctx); err != nil {
		return "", err
	}
	return s.store.Backup(ctx)
}

// ListBackups returns the backup keys, oldest first.
func (s *State) ListBackups(ctx context.Context) ([]string, error) {
	return s.store.ListBackupKeys(ctx)
}

// RestoreBackup makes the backup stored under key the current collection.
func (s *State) RestoreBackup(ctx context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.settleLocked(ctx, "restore"); err != nil {
		return 0, err
	}
	if err := s.store.RestoreBackup(ctx, key); err != nil {
		return 0, err
	}
	return s.reloadLocked(ctx)
}

// DeleteBackup removes one backup key.
func (s *State) DeleteBackup(ctx context.Context, key string) error {
	return s.store.DeleteBackup(ctx, key)
}

// Stats flushes pending writes and aggregates storage statistics.
func (s *State) Stats(ctx context.Context) (todostore.Stats, error) {
	if err := s.Flush(ctx); err != nil {
		return todostore.Stats{}, err
	}
	return s.store.Stats(ctx)
}

// settleLocked waits for the writer before the stored collection is read or replaced.
// A failed last write is only logged. An expired ctx aborts: the pending write
// could still land and overwrite the result.
func (s *State) settleLocked(ctx context.Context, op string) error {
	err := s.writer.Flush(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: pending write not persisted: %w", op, ctxErr)
	}
	s.logger.WithError(err).Warn("Pending write failed before "+op, "op", op)
	return nil
}

func (s *State) commitLocked(next []domain.Todo) {
	s.todos = next
	s.seq++
	s.writer.Enqueue(s.seq, next)
}

// replaceLocked installs a collection that already matches storage.
// The sequence number still advances so older queued snapshots are dropped.
func (s *State) replaceLocked(next []domain.Todo) {
	s.todos = next
	s.seq++
}

func (s *State) reloadLocked(ctx context.Context) (int, error) {
	loaded, err := s.store.Load(ctx)
	if err != nil {
		return len(s.todos), err
	}
	s.replaceLocked(loaded)
	s.logger.Debug("Todos reloaded", "count", len(loaded))
	return len(loaded), nil
}
