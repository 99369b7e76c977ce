package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamFacility stores entries in a kv-jetstream bucket.
// JetStream keys only allow [-/_=.a-zA-Z0-9], so keys are stored base64url encoded.
type JetStreamFacility struct {
	bucket kvjetstream.KVStoragePort
}

var _ Facility = (*JetStreamFacility)(nil)

// NewJetStreamFacility wraps a bucket obtained from the kv plugin.
func NewJetStreamFacility(bucket kvjetstream.KVStoragePort) *JetStreamFacility {
	return &JetStreamFacility{bucket: bucket}
}

// Get retrieves a value.
func (f *JetStreamFacility) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	data, err := f.bucket.Get(encodeKey(key))
	if err != nil {
		if errors.Is(err, kvjetstream.ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kv get %q: %w", key, err)
	}
	// The bucket reports a missing or deleted key as nil data with no error.
	if data == nil {
		return "", false, nil
	}
	return string(data), true, nil
}

// Set stores a value without expiry.
func (f *JetStreamFacility) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.bucket.Set(encodeKey(key), []byte(value), 0); err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

// Remove deletes a key.
func (f *JetStreamFacility) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.bucket.Delete(encodeKey(key)); err != nil && !errors.Is(err, kvjetstream.ErrKeyNotFound) {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

// ListKeys returns all decoded keys. Keys not written by this facility are skipped.
func (f *JetStreamFacility) ListKeys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := f.bucket.Keys()
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) || errors.Is(err, kvjetstream.ErrKeyNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("kv keys: %w", err)
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		decoded, ok := decodeKey(k)
		if !ok {
			continue
		}
		keys = append(keys, decoded)
	}
	return keys, nil
}

// Close is a no-op; the plugin owns the connection.
func (f *JetStreamFacility) Close() error {
	return nil
}

func encodeKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

func decodeKey(encoded string) (string, bool) {
	b, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	return string(b), true
}
