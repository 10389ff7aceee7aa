package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/commissionledger/internal/domain"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// TransactionRepository defines data access for commission transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Tx, id string) (*domain.Transaction, error)
	// Update persists t only if the stored version still equals expectedVersion
	// and returns domain.ErrConflict otherwise. On success t.Version is advanced.
	Update(ctx context.Context, tx Tx, t *domain.Transaction, expectedVersion int64) error
	List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
	Count(ctx context.Context, filter domain.TransactionFilter) (int64, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Tx, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// Tx represents a database transaction.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager handles transaction lifecycle.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetIfAbsent stores value only when key is not already cached and
	// reports whether it was written.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops the claim on key so the request may be retried.
	Release(ctx context.Context, key string) error
}

// Locker serializes work on a key across callers.
type Locker interface {
	// WithLock runs fn while holding the lock for key.
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Retrier re-runs an operation on transient storage failures.
type Retrier interface {
	Retry(ctx context.Context, op func() error) error
}
