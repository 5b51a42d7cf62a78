package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the advisory key-value store used for read projections.
// Losing all cache contents never affects correctness, only latency.
type Cache interface {
	// Get returns the cached bytes for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// SetWithTTL stores value under key for the given duration.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Transactor runs fn atomically against the store. Implementations
// carry the transaction on the context so repository calls made inside
// fn join it; WithTransaction returns only after commit or rollback.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NotificationDispatcher emits asynchronous payment notifications.
// Delivery semantics beyond enqueue success are not observed here.
type NotificationDispatcher interface {
	SendPaymentNotification(ctx context.Context, chargeID uuid.UUID) error
}
