// Package todostore persists the todo collection into a key-value facility.
//
// The whole collection is the unit of persistence: every Save rewrites the
// primary key. Every operation reports failure through a *Error and returns
// a neutral value (empty collection, empty string, zero Stats) alongside it.
package todostore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/zeinputraa/simple-todo-app/domain/todo"
	"github.com/zeinputraa/simple-todo-app/modules/storage"
	"golang.org/x/sync/singleflight"
)

const (
	// TodosKey is the primary key holding the serialized collection.
	TodosKey = "@todos_data"
	// BackupKeyPrefix prefixes every backup key; the suffix is a unix-millisecond timestamp.
	BackupKeyPrefix = TodosKey + "_backup_"
)

// Stats is a read-only aggregate over the facility and the stored collection.
type Stats struct {
	TotalKeys      int `json:"totalKeys"`
	TodosCount     int `json:"todosCount"`
	CompletedTodos int `json:"completedTodos"`
	ActiveTodos    int `json:"activeTodos"`
	// StorageSize is the byte length of the encoded collection.
	StorageSize int `json:"storageSize"`
}

// Store is the task store.
type Store struct {
	facility storage.Facility
	logger   types.Logger
	now      func() time.Time

	loads singleflight.Group

	mu         sync.Mutex
	lastBackup int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now, used for export dates and backup keys.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a Store over facility.
func New(facility storage.Facility, logger types.Logger, opts ...Option) *Store {
	s := &Store{
		facility: facility,
		logger:   logger.WithModule("todostore"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes the full collection under TodosKey.
func (s *Store) Save(ctx context.Context, todos []todo.Todo) error {
	return s.write(ctx, "save", TodosKey, todos)
}

// Load reads the stored collection. An absent key yields an empty collection and no error.
// Concurrent calls share one facility read. A read in flight when the primary
// key is written is not shared with later callers.
func (s *Store) Load(ctx context.Context) ([]todo.Todo, error) {
	ch := s.loads.DoChan(TodosKey, func() (any, error) {
		// Shared by every joined caller, so one caller's cancellation must not end it.
		todos, _, err := s.read(context.WithoutCancel(ctx), "load", TodosKey)
		return todos, err
	})

	select {
	case res := <-ch:
		todos, _ := res.Val.([]todo.Todo)
		return todo.Clone(todos), res.Err
	case <-ctx.Done():
		return []todo.Todo{}, s.fail(storageErr("load", ctx.Err()))
	}
}

// Clear removes the stored collection. Clearing an empty store succeeds.
func (s *Store) Clear(ctx context.Context) error {
	err := s.facility.Remove(ctx, TodosKey)
	s.loads.Forget(TodosKey)
	if err != nil {
		return s.fail(storageErr("clear", err))
	}
	s.logger.Debug("Todos cleared")
	return nil
}

// ExportSnapshot renders the stored collection as a pretty-printed snapshot document.
func (s *Store) ExportSnapshot(ctx context.Context) (string, error) {
	todos, err := s.Load(ctx)
	if err != nil {
		return "", err
	}

	out, err := encodeSnapshot(Snapshot{
		ExportDate: s.now().UTC().Format(todo.TimestampLayout),
		TotalTodos: len(todos),
		Todos:      todos,
	})
	if err != nil {
		return "", s.fail(malformedErr("export", err))
	}
	return out, nil
}

// ImportSnapshot replaces the stored collection with the todos of blob.
// Storage is left untouched unless blob holds a todos array of valid records.
func (s *Store) ImportSnapshot(ctx context.Context, blob string) error {
	todos, err := parseSnapshot(blob)
	if err != nil {
		return s.fail(malformedErr("import", fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)))
	}
	if err := s.write(ctx, "import", TodosKey, todos); err != nil {
		return err
	}
	s.logger.Info("Todos imported", "count", len(todos))
	return nil
}

// Backup copies the stored collection under a new backup key and returns the key.
// Keys issued by one Store are strictly increasing.
func (s *Store) Backup(ctx context.Context) (string, error) {
	todos, err := s.Load(ctx)
	if err != nil {
		return "", err
	}

	key := s.nextBackupKey()
	if err := s.write(ctx, "backup", key, todos); err != nil {
		return "", err
	}
	s.logger.Info("Backup created", "key", key, "count", len(todos))
	return key, nil
}

// ListBackupKeys returns every backup key, oldest first.
func (s *Store) ListBackupKeys(ctx context.Context) ([]string, error) {
	keys, err := s.facility.ListKeys(ctx)
	if err != nil {
		return []string{}, s.fail(storageErr("list-backups", err))
	}

	backups := make([]string, 0, len(keys))
	for _, k := range keys {
		if IsBackupKey(k) {
			backups = append(backups, k)
		}
	}
	sort.Slice(backups, func(i, j int) bool {
		return backupStamp(backups[i]) < backupStamp(backups[j])
	})
	return backups, nil
}

// RestoreBackup makes the collection stored under key the primary collection.
func (s *Store) RestoreBackup(ctx context.Context, key string) error {
	if !IsBackupKey(key) {
		return s.fail(inputErr("restore", fmt.Errorf("%w: %q", ErrInvalidBackupKey, key)))
	}

	todos, found, err := s.read(ctx, "restore", key)
	if err != nil {
		return err
	}
	if !found {
		return s.fail(inputErr("restore", fmt.Errorf("%w: %q", ErrBackupNotFound, key)))
	}

	if err := s.write(ctx, "restore", TodosKey, todos); err != nil {
		return err
	}
	s.logger.Info("Backup restored", "key", key, "count", len(todos))
	return nil
}

// DeleteBackup removes one backup key.
func (s *Store) DeleteBackup(ctx context.Context, key string) error {
	if !IsBackupKey(key) {
		return s.fail(inputErr("delete-backup", fmt.Errorf("%w: %q", ErrInvalidBackupKey, key)))
	}
	if err := s.facility.Remove(ctx, key); err != nil {
		return s.fail(storageErr("delete-backup", err))
	}
	return nil
}

// Stats aggregates the key listing and the stored collection.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	keys, err := s.facility.ListKeys(ctx)
	if err != nil {
		return Stats{}, s.fail(storageErr("stats", err))
	}

	todos, err := s.Load(ctx)
	if err != nil {
		return Stats{}, err
	}

	encoded, err := encodeCollection(todos)
	if err != nil {
		return Stats{}, s.fail(malformedErr("stats", err))
	}

	counts := todo.Count(todos)
	return Stats{
		TotalKeys:      len(keys),
		TodosCount:     counts.Total,
		CompletedTodos: counts.Completed,
		ActiveTodos:    counts.Active,
		StorageSize:    len(encoded),
	}, nil
}

// IsBackupKey reports whether key was produced by Backup.
func IsBackupKey(key string) bool {
	return strings.HasPrefix(key, BackupKeyPrefix) && len(key) > len(BackupKeyPrefix)
}

func (s *Store) read(ctx context.Context, op, key string) ([]todo.Todo, bool, error) {
	raw, found, err := s.facility.Get(ctx, key)
	if err != nil {
		return []todo.Todo{}, false, s.fail(storageErr(op, err))
	}
	if !found {
		s.logger.Debug("No todos found in storage", "key", key)
		return []todo.Todo{}, false, nil
	}

	todos, dropped, err := decodeCollection(raw)
	if err != nil {
		return []todo.Todo{}, true, s.fail(malformedErr(op, err))
	}
	if dropped > 0 {
		s.logger.Warn("Dropped todo records without id or text", "op", op, "key", key, "dropped", dropped)
	}
	return todos, true, nil
}

func (s *Store) write(ctx context.Context, op, key string, todos []todo.Todo) error {
	encoded, err := encodeCollection(todos)
	if err != nil {
		return s.fail(malformedErr(op, err))
	}
	err = s.facility.Set(ctx, key, encoded)
	if key == TodosKey {
		s.loads.Forget(TodosKey)
	}
	if err != nil {
		return s.fail(storageErr(op, err))
	}
	s.logger.Debug("Todos written", "op", op, "key", key, "count", len(todos))
	return nil
}

func (s *Store) fail(err *Error) error {
	s.logger.WithError(err.Err).Warn("Task store operation failed", "op", err.Op, "kind", string(err.Kind))
	return err
}

func (s *Store) nextBackupKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().UnixMilli()
	if stamp <= s.lastBackup {
		stamp = s.lastBackup + 1
	}
	s.lastBackup = stamp
	return BackupKeyPrefix + strconv.FormatInt(stamp, 10)
}

// backupStamp parses the timestamp suffix; unparseable suffixes sort first.
func backupStamp(key string) int64 {
	n, err := strconv.ParseInt(strings.TrimPrefix(key, BackupKeyPrefix), 10, 64)
	if err != nil {
		return -1
	}
	return n
}
