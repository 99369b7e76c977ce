package todostore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/zeinputraa/simple-todo-app/domain/todo"
)

// Saver persists a full collection.
type Saver interface {
	Save(ctx context.Context, todos []todo.Todo) error
}

// WriterConfig holds writer configuration.
type WriterConfig struct {
	// WriteTimeout bounds a single Save call.
	WriteTimeout time.Duration
}

// DefaultWriterConfig returns the default writer configuration.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		WriteTimeout: 10 * time.Second,
	}
}

type pendingWrite struct {
	seq   uint64
	todos []todo.Todo
}

// Writer serializes collection writes through one goroutine.
//
// Only the newest pending snapshot is kept. A snapshot whose sequence number
// is not above the last handled one is dropped, so persisted state never
// moves backwards.
type Writer struct {
	config WriterConfig
	saver  Saver
	logger types.Logger

	mu       sync.Mutex
	pending  *pendingWrite
	queued   uint64
	handled  uint64
	lastErr  error
	progress chan struct{}
	running  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewWriter creates a writer over saver.
func NewWriter(cfg WriterConfig, saver Saver, logger types.Logger) *Writer {
	return &Writer{
		config:   cfg,
		saver:    saver,
		logger:   logger.WithModule("todostore.writer"),
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
	}
}

// Start launches the write loop.
func (w *Writer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("writer is already running")
	}
	w.running = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})

	go w.run(w.stop, w.done)
	w.logger.Debug("Writer started")
	return nil
}

// Stop persists whatever is pending and ends the write loop, bounded by ctx.
func (w *Writer) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	stop, done := w.stop, w.done
	w.mu.Unlock()

	close(stop)

	select {
	case <-done:
		w.logger.Debug("Writer stopped")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Timeout waiting for pending write")
		return ctx.Err()
	}
}

// Enqueue schedules todos, tagged with seq, for persistence.
// It reports false when the snapshot was dropped as stale.
func (w *Writer) Enqueue(seq uint64, todos []todo.Todo) bool {
	w.mu.Lock()
	if seq <= w.handled || seq <= w.queued {
		w.mu.Unlock()
		w.logger.Debug("Dropped stale snapshot", "seq", seq)
		return false
	}
	w.pending = &pendingWrite{seq: seq, todos: todo.Clone(todos)}
	w.queued = seq
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

// Flush waits until every snapshot enqueued before the call has been handled
// and returns the error of the most recent write.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	target := w.queued
	w.mu.Unlock()

	for {
		w.mu.Lock()
		if w.handled >= target {
			err := w.lastErr
			w.mu.Unlock()
			return err
		}
		progress := w.progress
		w.mu.Unlock()

		select {
		case <-progress:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Persisted returns the sequence number of the last handled snapshot.
func (w *Writer) Persisted() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handled
}

func (w *Writer) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			w.drain()
			return
		case <-w.wake:
			w.drain()
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		p := w.pending
		w.pending = nil
		w.mu.Unlock()
		if p == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), w.config.WriteTimeout)
		err := w.saver.Save(ctx, p.todos)
		cancel()
		if err != nil {
			w.logger.WithError(err).Error("Failed to persist todos", "seq", p.seq)
		}

		w.mu.Lock()
		if p.seq > w.handled {
			w.handled = p.seq
		}
		w.lastErr = err
		close(w.progress)
		w.progress = make(chan struct{})
		w.mu.Unlock()
	}
}
