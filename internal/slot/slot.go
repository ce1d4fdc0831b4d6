// Package slot defines the persistent key-value slot backing a bookmark
// collection across sessions.
package slot

import (
	"context"
	"errors"
)

// ErrSlotNotFound is returned by Get when the key has never been written.
var ErrSlotNotFound = errors.New("slot not found")

// Slot is a single-writer key-value facility. Set replaces the whole value;
// there are no partial updates.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Pinger is implemented by slots that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Lister is implemented by slots that can enumerate their keys.
type Lister interface {
	Names(ctx context.Context) ([]string, error)
}
