package store

import (
	"context"
	"fmt"

	"trainbot/internal/domain"
)

// Store persists user profiles. Get lazily creates a default record for
// unknown users so callers never observe a missing profile.
type Store interface {
	Get(ctx context.Context, uid int64) (domain.UserRecord, error)
	Update(ctx context.Context, uid int64, mutate func(*domain.UserRecord)) error
	All(ctx context.Context) ([]domain.UserRecord, error)
	Close() error
}

// PersistenceError reports a failed write to the backing storage. The
// in-memory state has already been applied when this is returned; callers
// log it and keep serving.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Code implements the error-code convention used by handler summary logs.
func (e *PersistenceError) Code() string { return "PERSISTENCE" }
