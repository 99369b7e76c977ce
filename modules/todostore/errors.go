package todostore

import (
	"errors"
	"fmt"
)

// Kind classifies a store failure.
type Kind string

const (
	// KindStorageAccess means the facility failed to read or write.
	KindStorageAccess Kind = "storage_access"
	// KindMalformedData means stored or imported data could not be decoded into todos.
	KindMalformedData Kind = "malformed_data"
	// KindInvalidInput means the caller passed an argument the store cannot act on.
	KindInvalidInput Kind = "invalid_input"
)

// Sentinel errors matching each Kind through errors.Is.
var (
	ErrStorageAccess = errors.New("storage access failed")
	ErrMalformedData = errors.New("malformed todo data")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrInvalidBackupKey is returned when a key lacks the backup prefix.
	ErrInvalidBackupKey = fmt.Errorf("%w: not a backup key", ErrInvalidInput)
	// ErrBackupNotFound is returned when a backup key holds no data.
	ErrBackupNotFound = fmt.Errorf("%w: backup not found", ErrInvalidInput)
	// ErrInvalidSnapshot is returned when an imported document is not a valid snapshot.
	// Stored data that fails to decode is reported as plain ErrMalformedData.
	ErrInvalidSnapshot = fmt.Errorf("%w: invalid snapshot", ErrMalformedData)
)

// Error is returned by every Store operation that fails.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("todostore %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the Kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrStorageAccess:
		return e.Kind == KindStorageAccess
	case ErrMalformedData:
		return e.Kind == KindMalformedData
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	}
	return false
}

func storageErr(op string, err error) *Error {
	return &Error{Op: op, Kind: KindStorageAccess, Err: err}
}

func malformedErr(op string, err error) *Error {
	return &Error{Op: op, Kind: KindMalformedData, Err: err}
}

func inputErr(op string, err error) *Error {
	return &Error{Op: op, Kind: KindInvalidInput, Err: err}
}
