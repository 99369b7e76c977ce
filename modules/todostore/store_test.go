package todostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeinputraa/simple-todo-app/domain/todo"
	"github.com/zeinputraa/simple-todo-app/modules/storage"
)

// mockLogger records warnings so tests can assert on diagnostics.
type mockLogger struct {
	mu    sync.Mutex
	warns []string
}

func (m *mockLogger) Debug(msg string, args ...any) {}
func (m *mockLogger) Info(msg string, args ...any)  {}
func (m *mockLogger) Warn(msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}
func (m *mockLogger) Error(msg string, args ...any)         {}
func (m *mockLogger) With(args ...any) types.Logger         { return m }
func (m *mockLogger) WithError(err error) types.Logger      { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

func (m *mockLogger) warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.warns...)
}

// failingFacility fails every call with err.
type failingFacility struct {
	err error
}

func (f failingFacility) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, f.err
}
func (f failingFacility) Set(ctx context.Context, key, value string) error { return f.err }
func (f failingFacility) Remove(ctx context.Context, key string) error     { return f.err }
func (f failingFacility) ListKeys(ctx context.Context) ([]string, error)   { return nil, f.err }
func (f failingFacility) Close() error                                     { return nil }

func newTestFacility(t *testing.T) storage.Facility {
	t.Helper()
	f, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "todos.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func newTestStore(t *testing.T, opts ...Option) (*Store, storage.Facility, *mockLogger) {
	t.Helper()
	f := newTestFacility(t)
	logger := &mockLogger{}
	return New(f, logger, opts...), f, logger
}

func sampleTodos() []todo.Todo {
	return []todo.Todo{
		{ID: "1", Text: "Buy milk", Completed: true, CreatedAt: "2024-03-01T10:30:00.123Z"},
		{ID: "2", Text: "Walk dog", Completed: false, CreatedAt: "2024-03-01T10:31:00.000Z"},
		{ID: "3", Text: "Read book", Completed: false},
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleTodos()))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleTodos(), loaded)
}

func TestStore_LoadUntouched(t *testing.T) {
	s, _, _ := newTestStore(t)

	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, loaded)
	assert.Empty(t, loaded)
}

func TestStore_SaveNilStoresEmptyArray(t *testing.T) {
	s, f, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, nil))

	raw, found, err := f.Get(ctx, TodosKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", raw)
}

func TestStore_Clear(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleTodos()))
	require.NoError(t, s.Clear(ctx))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	// clearing again is fine
	assert.NoError(t, s.Clear(ctx))
}

func TestStore_LoadMalformed(t *testing.T) {
	s, f, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, f.Set(ctx, TodosKey, "{not json"))

	loaded, err := s.Load(ctx)
	assert.Empty(t, loaded)
	assert.ErrorIs(t, err, ErrMalformedData)
	assert.NotErrorIs(t, err, ErrInvalidSnapshot)

	var storeErr *Error
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "load", storeErr.Op)
	assert.Equal(t, KindMalformedData, storeErr.Kind)
}

func TestStore_LoadDropsInvalidRecords(t *testing.T) {
	s, f, logger := newTestStore(t)
	ctx := context.Background()

	raw := `[{"id":"1","text":"keep","completed":false},{"id":"","text":"no id"},{"id":"3","text":"   "}]`
	require.NoError(t, f.Set(ctx, TodosKey, raw))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "keep", loaded[0].Text)
	assert.Contains(t, logger.warnings(), "Dropped todo records without id or text")
}

func TestStore_StorageFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	s := New(failingFacility{err: boom}, &mockLogger{})
	ctx := context.Background()

	loaded, err := s.Load(ctx)
	assert.Empty(t, loaded)
	assert.ErrorIs(t, err, ErrStorageAccess)
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, s.Save(ctx, sampleTodos()), ErrStorageAccess)
	assert.ErrorIs(t, s.Clear(ctx), ErrStorageAccess)

	out, err := s.ExportSnapshot(ctx)
	assert.Empty(t, out)
	assert.ErrorIs(t, err, ErrStorageAccess)

	key, err := s.Backup(ctx)
	assert.Empty(t, key)
	assert.ErrorIs(t, err, ErrStorageAccess)

	keys, err := s.ListBackupKeys(ctx)
	assert.Empty(t, keys)
	assert.ErrorIs(t, err, ErrStorageAccess)

	stats, err := s.Stats(ctx)
	assert.Equal(t, Stats{}, stats)
	assert.ErrorIs(t, err, ErrStorageAccess)
}

func TestStore_ExportSnapshot(t *testing.T) {
	fixed := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	s, _, _ := newTestStore(t, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleTodos()))

	out, err := s.ExportSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{\n  \"exportDate\""))

	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "2024-03-02T08:00:00.000Z", snap.ExportDate)
	assert.Equal(t, 3, snap.TotalTodos)
	assert.Equal(t, sampleTodos(), snap.Todos)
}

func TestStore_ExportEmpty(t *testing.T) {
	s, _, _ := newTestStore(t)

	out, err := s.ExportSnapshot(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, `"todos": []`)
	assert.Contains(t, out, `"totalTodos": 0`)
}

func TestStore_ExportImportRoundTrip(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleTodos()))
	out, err := s.ExportSnapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.ImportSnapshot(ctx, out))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleTodos(), loaded)
}

func TestStore_ImportRejected(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{name: "not json", blob: "nope"},
		{name: "top-level array", blob: `[{"id":"1","text":"x"}]`},
		{name: "null", blob: "null"},
		{name: "missing todos", blob: `{"exportDate":"2024-01-01T00:00:00.000Z"}`},
		{name: "todos is object", blob: `{"todos":{"id":"1"}}`},
		{name: "todos is string", blob: `{"todos":"[]"}`},
		{name: "todos is null", blob: `{"todos":null}`},
		{name: "record without id", blob: `{"todos":[{"text":"x"}]}`},
		{name: "record with blank text", blob: `{"todos":[{"id":"1","text":"  "}]}`},
		{name: "record of wrong type", blob: `{"todos":[{"id":1,"text":"x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestStore(t)
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, sampleTodos()))

			err := s.ImportSnapshot(ctx, tt.blob)
			assert.ErrorIs(t, err, ErrMalformedData)
			assert.ErrorIs(t, err, ErrInvalidSnapshot)

			loaded, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, sampleTodos(), loaded, "storage must be untouched")
		})
	}
}

func TestStore_ImportEmptyArray(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleTodos()))

	require.NoError(t, s.ImportSnapshot(ctx, `{"todos":[]}`))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestStore_Backup(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	s, _, _ := newTestStore(t, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleTodos()))

	first, err := s.Backup(ctx)
	require.NoError(t, err)
	second, err := s.Backup(ctx)
	require.NoError(t, err)

	assert.Equal(t, "@todos_data_backup_1700000000000", first)
	assert.Equal(t, "@todos_data_backup_1700000000001", second)
	assert.NotEqual(t, TodosKey, first)

	keys, err := s.ListBackupKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{first, second}, keys)
}

func TestStore_BackupConcurrentKeysDistinct(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key, err := s.Backup(ctx)
			assert.NoError(t, err)
			mu.Lock()
			seen[key] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 10)
	keys, err := s.ListBackupKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 10)
}

func TestStore_ListBackupKeys_IgnoresOtherKeys(t *testing.T) {
	s, f, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, f.Set(ctx, "@settings", "{}"))
	require.NoError(t, f.Set(ctx, BackupKeyPrefix+"20", "[]"))
	require.NoError(t, f.Set(ctx, BackupKeyPrefix+"3", "[]"))
	require.NoError(t, s.Save(ctx, nil))

	keys, err := s.ListBackupKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{BackupKeyPrefix + "3", BackupKeyPrefix + "20"}, keys)
}

func TestStore_RestoreBackup(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleTodos()))
	key, err := s.Backup(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, sampleTodos()[:1]))
	require.NoError(t, s.RestoreBackup(ctx, key))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleTodos(), loaded)
}

func TestStore_RestoreBackupErrors(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	err := s.RestoreBackup(ctx, TodosKey)
	assert.ErrorIs(t, err, ErrInvalidBackupKey)
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = s.RestoreBackup(ctx, BackupKeyPrefix+"42")
	assert.ErrorIs(t, err, ErrBackupNotFound)
}

func TestStore_DeleteBackup(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	key, err := s.Backup(ctx)
	require.NoError(t, err)
	require.NoError(t, s.DeleteBackup(ctx, key))

	keys, err := s.ListBackupKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	assert.ErrorIs(t, s.DeleteBackup(ctx, "other"), ErrInvalidBackupKey)
}

func TestStore_Stats(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleTodos()))
	_, err := s.Backup(ctx)
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)

	encoded, err := json.Marshal(sampleTodos())
	require.NoError(t, err)
	assert.Equal(t, Stats{
		TotalKeys:      2,
		TodosCount:     3,
		CompletedTodos: 1,
		ActiveTodos:    2,
		StorageSize:    len(encoded),
	}, stats)
}

func TestStore_StatsEmpty(t *testing.T) {
	s, _, _ := newTestStore(t)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{StorageSize: 2}, stats)
}

func TestStore_ConcurrentLoads(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleTodos()))

	var wg sync.WaitGroup
	results := make([][]todo.Todo, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			loaded, err := s.Load(ctx)
			assert.NoError(t, err)
			results[i] = loaded
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		assert.Equal(t, sampleTodos(), r, fmt.Sprintf("load %d", i))
	}
	// callers receive independent slices
	results[0][0].Text = "changed"
	assert.Equal(t, "Buy milk", results[1][0].Text)
}

func TestStore_Scenario(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	milk, err := todo.New("Buy milk", now)
	require.NoError(t, err)
	dog, err := todo.New("Walk dog", now)
	require.NoError(t, err)

	list := todo.Append(nil, milk)
	require.NoError(t, s.Save(ctx, list))
	list = todo.Append(list, dog)
	require.NoError(t, s.Save(ctx, list))
	list, ok := todo.Toggle(list, milk.ID)
	require.True(t, ok)
	require.NoError(t, s.Save(ctx, list))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Buy milk", loaded[0].Text)
	assert.True(t, loaded[0].Completed)
	assert.Equal(t, "Walk dog", loaded[1].Text)
	assert.False(t, loaded[1].Completed)
}

func TestError_Message(t *testing.T) {
	err := storageErr("save", errors.New("boom"))
	assert.Equal(t, "todostore save: storage_access: boom", err.Error())
	assert.False(t, errors.Is(err, ErrMalformedData))
}

func TestIsBackupKey(t *testing.T) {
	assert.True(t, IsBackupKey(BackupKeyPrefix+"1"))
	assert.False(t, IsBackupKey(BackupKeyPrefix))
	assert.False(t, IsBackupKey(TodosKey))
	assert.False(t, IsBackupKey("backup_1"))
}

// gatedFacility holds the first Get after reading until release is closed.
type gatedFacility struct {
	storage.Facility

	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedFacility(f storage.Facility) *gatedFacility {
	return &gatedFacility{
		Facility: f,
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (g *gatedFacility) Get(ctx context.Context, key string) (string, bool, error) {
	val, found, err := g.Facility.Get(ctx, key)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return val, found, err
}

func TestStore_LoadAfterWriteSeesWrite(t *testing.T) {
	ctx := context.Background()
	gated := newGatedFacility(newTestFacility(t))
	s := New(gated, &mockLogger{})

	old := []todo.Todo{{ID: "o1", Text: "old task"}}
	require.NoError(t, s.Save(ctx, old))

	statsDone := make(chan Stats, 1)
	go func() {
		stats, err := s.Stats(ctx)
		assert.NoError(t, err)
		statsDone <- stats
	}()
	<-gated.entered

	require.NoError(t, s.ImportSnapshot(ctx, `{"todos":[{"id":"n1","text":"imported"}]}`))

	loaded := make(chan []todo.Todo, 1)
	go func() {
		todos, err := s.Load(ctx)
		assert.NoError(t, err)
		loaded <- todos
	}()

	select {
	case todos := <-loaded:
		require.Len(t, todos, 1)
		assert.Equal(t, "imported", todos[0].Text)
	case <-time.After(2 * time.Second):
		t.Fatal("load after import waited on a read started before it")
	}

	close(gated.release)
	stats := <-statsDone
	assert.Equal(t, 1, stats.TodosCount)
}

func TestStore_LoadCancelledCallerDoesNotFailOthers(t *testing.T) {
	gated := newGatedFacility(newTestFacility(t))
	s := New(gated, &mockLogger{})
	require.NoError(t, s.Save(context.Background(), sampleTodos()))

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := s.Load(leaderCtx)
		leaderErr <- err
	}()
	<-gated.entered

	joined := make(chan error, 1)
	var joinedTodos []todo.Todo
	go func() {
		todos, err := s.Load(context.Background())
		joinedTodos = todos
		joined <- err
	}()

	cancel()
	err := <-leaderErr
	assert.ErrorIs(t, err, ErrStorageAccess)
	assert.ErrorIs(t, err, context.Canceled)

	close(gated.release)
	require.NoError(t, <-joined)
	assert.Equal(t, sampleTodos(), joinedTodos)
}

func TestStore_ClearThenLoadSeesClear(t *testing.T) {
	ctx := context.Background()
	gated := newGatedFacility(newTestFacility(t))
	s := New(gated, &mockLogger{})
	require.NoError(t, s.Save(ctx, sampleTodos()))

	go func() { _, _ = s.Load(ctx) }()
	<-gated.entered

	require.NoError(t, s.Clear(ctx))
	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	close(gated.release)
}
