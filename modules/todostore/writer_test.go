package todostore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeinputraa/simple-todo-app/domain/todo"
)

// recordingSaver records every saved collection. When gate is set, each Save
// blocks until a value is received from it.
type recordingSaver struct {
	mu    sync.Mutex
	saves [][]todo.Todo
	gate  chan struct{}
	err   error
}

func (r *recordingSaver) Save(ctx context.Context, todos []todo.Todo) error {
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, todo.Clone(todos))
	return r.err
}

func (r *recordingSaver) saved() [][]todo.Todo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]todo.Todo(nil), r.saves...)
}

func listOf(texts ...string) []todo.Todo {
	list := make([]todo.Todo, 0, len(texts))
	for _, text := range texts {
		list = append(list, todo.Todo{ID: text, Text: text})
	}
	return list
}

func startWriter(t *testing.T, saver Saver) *Writer {
	t.Helper()
	w := NewWriter(DefaultWriterConfig(), saver, &mockLogger{})
	require.NoError(t, w.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = w.Stop(ctx)
	})
	return w
}

func TestWriter_PersistsEnqueued(t *testing.T) {
	saver := &recordingSaver{}
	w := startWriter(t, saver)

	assert.True(t, w.Enqueue(1, listOf("a")))
	require.NoError(t, w.Flush(context.Background()))

	assert.Equal(t, [][]todo.Todo{listOf("a")}, saver.saved())
	assert.Equal(t, uint64(1), w.Persisted())
}

func TestWriter_LatestIntentWins(t *testing.T) {
	saver := &recordingSaver{gate: make(chan struct{})}
	w := startWriter(t, saver)

	w.Enqueue(1, listOf("a"))
	// wait until the first write is in flight
	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.pending == nil
	}, time.Second, time.Millisecond)

	w.Enqueue(2, listOf("a", "b"))
	w.Enqueue(3, listOf("a", "b", "c"))

	saver.gate <- struct{}{}
	saver.gate <- struct{}{}
	require.NoError(t, w.Flush(context.Background()))

	saves := saver.saved()
	require.Len(t, saves, 2, "snapshot 2 is superseded before it is written")
	assert.Equal(t, listOf("a"), saves[0])
	assert.Equal(t, listOf("a", "b", "c"), saves[1])
	assert.Equal(t, uint64(3), w.Persisted())
}

func TestWriter_DropsStaleSnapshots(t *testing.T) {
	saver := &recordingSaver{}
	w := startWriter(t, saver)

	require.True(t, w.Enqueue(5, listOf("new")))
	require.NoError(t, w.Flush(context.Background()))

	assert.False(t, w.Enqueue(4, listOf("old")))
	assert.False(t, w.Enqueue(5, listOf("same")))
	require.NoError(t, w.Flush(context.Background()))

	assert.Equal(t, [][]todo.Todo{listOf("new")}, saver.saved())
}

func TestWriter_EnqueueCopiesInput(t *testing.T) {
	saver := &recordingSaver{gate: make(chan struct{}, 1)}
	w := startWriter(t, saver)

	list := listOf("a")
	w.Enqueue(1, list)
	list[0].Text = "mutated"

	saver.gate <- struct{}{}
	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, "a", saver.saved()[0][0].Text)
}

func TestWriter_FlushReturnsWriteError(t *testing.T) {
	boom := errors.New("boom")
	saver := &recordingSaver{err: boom}
	w := startWriter(t, saver)

	w.Enqueue(1, listOf("a"))
	assert.ErrorIs(t, w.Flush(context.Background()), boom)
	assert.Equal(t, uint64(1), w.Persisted())
}

func TestWriter_FlushHonoursContext(t *testing.T) {
	saver := &recordingSaver{gate: make(chan struct{})}
	w := startWriter(t, saver)
	defer close(saver.gate)

	w.Enqueue(1, listOf("a"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Flush(ctx), context.DeadlineExceeded)
}

func TestWriter_StopDrainsPending(t *testing.T) {
	saver := &recordingSaver{}
	w := NewWriter(DefaultWriterConfig(), saver, &mockLogger{})
	require.NoError(t, w.Start())

	w.Enqueue(1, listOf("a"))
	w.Enqueue(2, listOf("a", "b"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))

	saves := saver.saved()
	require.NotEmpty(t, saves)
	assert.Equal(t, listOf("a", "b"), saves[len(saves)-1])
	assert.Equal(t, uint64(2), w.Persisted())
}

func TestWriter_StartTwice(t *testing.T) {
	w := startWriter(t, &recordingSaver{})
	assert.Error(t, w.Start())
}

func TestWriter_WithStore(t *testing.T) {
	s, _, _ := newTestStore(t)
	w := startWriter(t, s)

	for i := uint64(1); i <= 20; i++ {
		list := make([]todo.Todo, 0, i)
		for j := uint64(0); j < i; j++ {
			list = append(list, todo.Todo{ID: string(rune('a' + j)), Text: "item"})
		}
		w.Enqueue(i, list)
	}
	require.NoError(t, w.Flush(context.Background()))

	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded, 20)
}
