// Package storage provides the string-keyed key-value facilities the task store persists into.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Facility is an asynchronous string-keyed storage.
// Implementations must treat Remove of an absent key as success and
// report a missing key from Get as found == false with a nil error.
type Facility interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key.
	Remove(ctx context.Context, key string) error

	// ListKeys enumerates every key currently stored.
	ListKeys(ctx context.Context) ([]string, error)

	// Close releases the underlying connection.
	Close() error
}

// Backend names a Facility implementation.
type Backend string

const (
	BackendJetStream Backend = "jetstream"
	BackendSQLite    Backend = "sqlite"
	BackendRedis     Backend = "redis"
	BackendPostgres  Backend = "postgres"
)

// ErrUnknownBackend is returned for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// ParseBackend validates a backend name.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(name); b {
	case BackendJetStream, BackendSQLite, BackendRedis, BackendPostgres:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// Options selects and configures a directly-connected backend.
type Options struct {
	Backend     Backend
	SQLitePath  string
	SQLDebug    bool
	RedisAddr   string
	RedisPrefix string
	DatabaseURL string
}

// Open connects the backend named in opts.
// The JetStream backend is provided by the kv-jetstream plugin and cannot be opened here.
func Open(ctx context.Context, opts Options) (Facility, error) {
	switch opts.Backend {
	case BackendSQLite:
		return OpenSQLite(opts.SQLitePath, opts.SQLDebug)
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPrefix)
	case BackendPostgres:
		return OpenPostgres(ctx, opts.DatabaseURL)
	case BackendJetStream:
		return nil, fmt.Errorf("backend %q is provided by the kv plugin", opts.Backend)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
