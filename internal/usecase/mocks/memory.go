package mocks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iho/commissionledger/internal/domain"
	"github.com/iho/commissionledger/internal/usecase"
)

var errTxClosed = errors.New("memory: transaction already closed")

// MemoryStore is an in-memory TransactionRepository, OutboxRepository and
// TxManager. Writes made through a transaction become visible on Commit,
// where the version check is repeated so concurrent writers still conflict.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
	events       []*domain.OutboxEvent

	BeginFunc   func(ctx context.Context) (usecase.Tx, error)
	CreateFunc  func(ctx context.Context, tx usecase.Tx, t *domain.Transaction) error
	UpdateFunc  func(ctx context.Context, tx usecase.Tx, t *domain.Transaction, expectedVersion int64) error
	OutboxFunc  func(ctx context.Context, tx usecase.Tx, event *domain.OutboxEvent) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.Transaction, error)
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string]*domain.Transaction),
	}
}

// MemoryTx buffers writes until Commit.
type MemoryTx struct {
	store   *MemoryStore
	pending []func() error
	closed  bool

	CommitFunc func(ctx context.Context) error
}

// Begin starts a new buffered transaction.
func (s *MemoryStore) Begin(ctx context.Context) (usecase.Tx, error) {
	if s.BeginFunc != nil {
		return s.BeginFunc(ctx)
	}
	return &MemoryTx{store: s}, nil
}

// Commit applies all buffered writes atomically.
func (t *MemoryTx) Commit(ctx context.Context) error {
	if t.closed {
		return errTxClosed
	}
	t.closed = true

	if t.CommitFunc != nil {
		if err := t.CommitFunc(ctx); err != nil {
			return err
		}
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	snapshot := make(map[string]*domain.Transaction, len(t.store.transactions))
	for k, v := range t.store.transactions {
		snapshot[k] = v
	}
	eventCount := len(t.store.events)

	for _, op := range t.pending {
		if err := op(); err != nil {
			t.store.transactions = snapshot
			t.store.events = t.store.events[:eventCount]
			return err
		}
	}
	return nil
}

// Rollback discards buffered writes.
func (t *MemoryTx) Rollback(ctx context.Context) error {
	if t.closed {
		return errTxClosed
	}
	t.closed = true
	t.pending = nil
	return nil
}

func asMemoryTx(tx usecase.Tx) (*MemoryTx, error) {
	mtx, ok := tx.(*MemoryTx)
	if !ok || mtx.closed {
		return nil, fmt.Errorf("memory: unusable transaction %T", tx)
	}
	return mtx, nil
}

// Create stores a new transaction on commit.
func (s *MemoryStore) Create(ctx context.Context, tx usecase.Tx, t *domain.Transaction) error {
	if s.CreateFunc != nil {
		return s.CreateFunc(ctx, tx, t)
	}

	mtx, err := asMemoryTx(tx)
	if err != nil {
		return err
	}

	stored := t.Clone()
	mtx.pending = append(mtx.pending, func() error {
		if _, exists := s.transactions[stored.ID]; exists {
			return fmt.Errorf("memory: duplicate transaction id %s", stored.ID)
		}
		s.transactions[stored.ID] = stored
		return nil
	})
	return nil
}

// GetByID returns a copy of the stored transaction.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if s.GetByIDFunc != nil {
		return s.GetByIDFunc(ctx, id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.transactions[id]; ok {
		return t.Clone(), nil
	}
	return nil, domain.ErrTransactionNotFound
}

// GetByIDForUpdate behaves like GetByID; row locking is left to the caller's Locker.
func (s *MemoryStore) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Transaction, error) {
	return s.GetByID(ctx, id)
}

// Update checks the version now and again on commit.
func (s *MemoryStore) Update(ctx context.Context, tx usecase.Tx, t *domain.Transaction, expectedVersion int64) error {
	if s.UpdateFunc != nil {
		return s.UpdateFunc(ctx, tx, t, expectedVersion)
	}

	mtx, err := asMemoryTx(tx)
	if err != nil {
		return err
	}

	check := func() error {
		current, ok := s.transactions[t.ID]
		if !ok {
			return domain.ErrTransactionNotFound
		}
		if current.Version != expectedVersion {
			return domain.ErrConflict
		}
		return nil
	}

	s.mu.RLock()
	err = check()
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	t.Version = expectedVersion + 1
	stored := t.Clone()
	mtx.pending = append(mtx.pending, func() error {
		if err := check(); err != nil {
			return err
		}
		s.transactions[stored.ID] = stored
		return nil
	})
	return nil
}

// List returns transactions ordered by creation time, newest first.
func (s *MemoryStore) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	matched := s.filter(filter)

	if filter.Offset >= len(matched) {
		return []*domain.Transaction{}, nil
	}
	end := len(matched)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], nil
}

// Count returns the number of transactions matching the filter's stage.
func (s *MemoryStore) Count(ctx context.Context, filter domain.TransactionFilter) (int64, error) {
	return int64(len(s.filter(filter))), nil
}

func (s *MemoryStore) filter(filter domain.TransactionFilter) []*domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Transaction
	for _, t := range s.transactions {
		if filter.Stage != nil && t.Stage != *filter.Stage {
			continue
		}
		out = append(out, t.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Put stores t directly, bypassing transactions. Useful for seeding.
func (s *MemoryStore) Put(t *domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.ID] = t.Clone()
}

// OutboxRepository returns a view of the store implementing usecase.OutboxRepository.
func (s *MemoryStore) OutboxRepository() *MemoryOutbox {
	return &MemoryOutbox{store: s}
}

// Events returns a copy of every committed outbox event.
func (s *MemoryStore) Events() []*domain.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// MemoryOutbox is the outbox side of a MemoryStore.
type MemoryOutbox struct {
	store *MemoryStore
}

func (o *MemoryOutbox) Create(ctx context.Context, tx usecase.Tx, event *domain.OutboxEvent) error {
	s := o.store
	if s.OutboxFunc != nil {
		return s.OutboxFunc(ctx, tx, event)
	}

	mtx, err := asMemoryTx(tx)
	if err != nil {
		return err
	}

	mtx.pending = append(mtx.pending, func() error {
		s.events = append(s.events, event)
		return nil
	})
	return nil
}

func (o *MemoryOutbox) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	o.store.mu.RLock()
	defer o.store.mu.RUnlock()

	var out []*domain.OutboxEvent
	for _, e := range o.store.events {
		if e.Published {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (o *MemoryOutbox) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()

	for _, e := range o.store.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return fmt.Errorf("memory: outbox event %s not found", id)
}

func (o *MemoryOutbox) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	o.store.mu.RLock()
	defer o.store.mu.RUnlock()

	var out []*domain.OutboxEvent
	for _, e := range o.store.events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (o *MemoryOutbox) DeletePublished(ctx context.Context, before time.Time) error {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()

	kept := o.store.events[:0]
	for _, e := range o.store.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	o.store.events = kept
	return nil
}

// SequentialIDGenerator returns prefix-1, prefix-2, ...
type SequentialIDGenerator struct {
	Prefix string
	n      atomic.Int64
}

func (g *SequentialIDGenerator) Generate() string {
	return fmt.Sprintf("%s-%d", g.Prefix, g.n.Add(1))
}

// PassthroughLocker runs fn without locking.
type PassthroughLocker struct{}

func (PassthroughLocker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	return fn(ctx)
}

// ConflictRetrier retries op while it fails with domain.ErrConflict, up to MaxAttempts.
type ConflictRetrier struct {
	MaxAttempts int
}

func (r ConflictRetrier) Retry(ctx context.Context, op func() error) error {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 5
	}

	var err error
	for range attempts {
		if err = op(); err == nil || !errors.Is(err, domain.ErrConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}
