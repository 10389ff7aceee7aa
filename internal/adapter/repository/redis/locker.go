package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/commissionledger/internal/domain"
)

// ErrLockNotAcquired is returned when the lock stays held by another caller
// for every attempt. It also matches domain.ErrConflict.
var ErrLockNotAcquired = errors.New("lock not acquired")

// LockOptions configures mutex acquisition.
type LockOptions struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// DefaultLockOptions returns settings sized for a single stage transition.
func DefaultLockOptions() LockOptions {
	return LockOptions{
		Expiry:     10 * time.Second,
		Tries:      32,
		RetryDelay: 50 * time.Millisecond,
	}
}

// Locker implements usecase.Locker with a Redis mutex (Redlock).
type Locker struct {
	rs     *redsync.Redsync
	opts   LockOptions
	logger zerolog.Logger
}

// NewLocker creates a Locker on top of client.
func NewLocker(client redis.UniversalClient, opts LockOptions, logger zerolog.Logger) *Locker {
	return &Locker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: logger,
	}
}

// WithLock runs fn while holding the mutex named key. The mutex is released
// when fn returns.
func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	mutex := l.rs.NewMutex(
		key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("failed to acquire lock %s: %w", key, ctxErr)
		}
		l.logger.Warn().Err(err).Str("key", key).Msg("lock busy")
		return fmt.Errorf("%w: %s: %w", ErrLockNotAcquired, key, domain.ErrConflict)
	}

	defer func() {
		// The caller's context may already be done; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		if ok, err := mutex.UnlockContext(releaseCtx); !ok || err != nil {
			l.logger.Warn().Err(err).Str("key", key).Msg("failed to release lock")
		}
	}()

	return fn(ctx)
}
