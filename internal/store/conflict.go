package store

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres SQLSTATEs that mean the serializable scheduler aborted us and the
// whole transaction is worth retrying.
const (
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// IsSerializationFailure reports whether err is a transient conflict raised
// by serializable isolation. Every other store error is non-retryable.
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == serializationFailure || string(pqErr.Code) == deadlockDetected
}
