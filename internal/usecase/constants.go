package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultCacheTTL is how long a transaction snapshot stays in the read cache
	DefaultCacheTTL = 5 * time.Minute

	// reconciliationPageSize is the batch size used when walking all transactions
	reconciliationPageSize = 500
)

// IdempotencyPendingMarker is stored under an idempotency key while the first
// request carrying it is still being served.
const IdempotencyPendingMarker = "processing"

// TransactionCacheKey returns the cache key of a transaction snapshot.
func TransactionCacheKey(id string) string {
	return "transaction:" + id
}

// TransactionLockKey returns the lock key serializing transitions of a transaction.
func TransactionLockKey(id string) string {
	return "lock:transaction:" + id
}
