// Package todo is the mono module owning the todo collection. It exposes the
// list and storage operations as request-reply services and emits todo events.
package todo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
	domain "github.com/zeinputraa/simple-todo-app/domain/todo"
	"github.com/zeinputraa/simple-todo-app/events"
	"github.com/zeinputraa/simple-todo-app/modules/storage"
	"github.com/zeinputraa/simple-todo-app/modules/todostore"
)

// DefaultBucket is the kv-jetstream bucket used when no facility is supplied.
const DefaultBucket = "todos"

// TodoModule owns the todo state and its persistence.
type TodoModule struct {
	kv       *kvjetstream.PluginModule
	bucket   string
	facility storage.Facility

	store    *todostore.Store
	writer   *todostore.Writer
	state    *State
	eventBus mono.EventBus
	logger   types.Logger

	writerConfig todostore.WriterConfig
}

// Compile-time interface checks
var (
	_ mono.Module                = (*TodoModule)(nil)
	_ mono.ServiceProviderModule = (*TodoModule)(nil)
	_ mono.UsePluginModule       = (*TodoModule)(nil)
	_ mono.EventBusAwareModule   = (*TodoModule)(nil)
	_ mono.EventEmitterModule    = (*TodoModule)(nil)
	_ mono.HealthCheckableModule = (*TodoModule)(nil)
)

// Option configures a TodoModule.
type Option func(*TodoModule)

// WithFacility stores todos in f instead of the kv-jetstream plugin.
// The module closes f on Stop.
func WithFacility(f storage.Facility) Option {
	return func(m *TodoModule) {
		m.facility = f
	}
}

// WithBucket selects the kv-jetstream bucket.
func WithBucket(name string) Option {
	return func(m *TodoModule) {
		m.bucket = name
	}
}

// WithWriterConfig overrides the persistence writer configuration.
func WithWriterConfig(cfg todostore.WriterConfig) Option {
	return func(m *TodoModule) {
		m.writerConfig = cfg
	}
}

// NewModule creates a new todo module.
func NewModule(logger types.Logger, opts ...Option) *TodoModule {
	m := &TodoModule{
		bucket:       DefaultBucket,
		logger:       logger.WithModule("todo"),
		writerConfig: todostore.DefaultWriterConfig(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the module name.
func (m *TodoModule) Name() string {
	return "todo"
}

// SetPlugin receives the KV plugin from the framework.
func (m *TodoModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "kv" {
		return
	}
	kv, ok := plugin.(*kvjetstream.PluginModule)
	if !ok {
		m.logger.Error("Invalid plugin type for kv",
			"alias", alias,
			"expected", "*kvjetstream.PluginModule")
		return
	}
	m.kv = kv
	m.logger.Info("Received KV plugin", "alias", alias)
}

// SetEventBus receives the EventBus from the framework.
func (m *TodoModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *TodoModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TodoAddedV1.ToBase(),
		events.TodoToggledV1.ToBase(),
		events.TodoDeletedV1.ToBase(),
		events.CompletedClearedV1.ToBase(),
		events.CollectionReplacedV1.ToBase(),
	}
}

// RegisterServices registers the request-reply services of the module.
func (m *TodoModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceAdd, json.Unmarshal, json.Marshal, m.addTodo,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceAdd, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceToggle, json.Unmarshal, json.Marshal, m.toggleTodo,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceToggle, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDelete, json.Unmarshal, json.Marshal, m.deleteTodo,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDelete, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceClearCompleted, json.Unmarshal, json.Marshal, m.clearCompleted,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceClearCompleted, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceList, json.Unmarshal, json.Marshal, m.listTodos,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceList, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceExport, json.Unmarshal, json.Marshal, m.exportTodos,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceExport, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceImport, json.Unmarshal, json.Marshal, m.importTodos,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceImport, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceClear, json.Unmarshal, json.Marshal, m.clearTodos,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceClear, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceBackup, json.Unmarshal, json.Marshal, m.backupTodos,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceBackup, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListBackups, json.Unmarshal, json.Marshal, m.listBackups,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListBackups, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRestoreBackup, json.Unmarshal, json.Marshal, m.restoreBackup,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRestoreBackup, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDeleteBackup, json.Unmarshal, json.Marshal, m.deleteBackup,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDeleteBackup, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceStats, json.Unmarshal, json.Marshal, m.storageStats,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceStats, err)
	}

	m.logger.Info("Registered todo services", "count", 13)
	return nil
}

// Start resolves the facility, loads the persisted collection and starts the writer.
func (m *TodoModule) Start(ctx context.Context) error {
	if m.facility == nil {
		if m.kv == nil {
			return fmt.Errorf("required plugin 'kv' not registered")
		}
		bucket := m.kv.Bucket(m.bucket)
		if bucket == nil {
			return fmt.Errorf("bucket '%s' not found in KV plugin", m.bucket)
		}
		m.facility = storage.NewJetStreamFacility(bucket)
	}

	m.store = todostore.New(m.facility, m.logger)
	m.writer = todostore.NewWriter(m.writerConfig, m.store, m.logger)
	m.state = NewState(m.store, m.writer, m.logger)

	if err := m.writer.Start(); err != nil {
		return fmt.Errorf("failed to start writer: %w", err)
	}

	count, err := m.state.Reload(ctx)
	if err != nil {
		m.logger.WithError(err).Warn("Starting without persisted todos")
	}

	if m.eventBus == nil {
		m.logger.Warn("eventBus not set, events will not be published")
	}
	m.logger.Info("Todo module started", "todos", count)
	return nil
}

// Stop drains pending writes and closes the facility.
func (m *TodoModule) Stop(ctx context.Context) error {
	var stopErr error
	if m.writer != nil {
		if err := m.writer.Stop(ctx); err != nil {
			stopErr = fmt.Errorf("failed to drain writer: %w", err)
		}
	}
	if m.facility != nil {
		if err := m.facility.Close(); err != nil && stopErr == nil {
			stopErr = fmt.Errorf("failed to close storage: %w", err)
		}
	}
	m.logger.Info("Todo module stopped")
	return stopErr
}

// Health reports whether the storage facility is reachable.
func (m *TodoModule) Health(ctx context.Context) mono.HealthStatus {
	if m.facility == nil || m.state == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "storage not initialized",
		}
	}

	if p, ok := m.facility.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			return mono.HealthStatus{
				Healthy: false,
				Message: fmt.Sprintf("storage ping failed: %v", err),
			}
		}
	}

	_, counts := m.state.List(domain.FilterAll)
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"todos":     counts.Total,
			"persisted": m.writer.Persisted(),
		},
	}
}

// State returns the state container. It is nil before Start.
func (m *TodoModule) State() *State {
	return m.state
}
