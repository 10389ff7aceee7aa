package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iho/commissionledger/internal/domain"
	"github.com/iho/commissionledger/internal/infrastructure/metrics"
)

var tracer = otel.Tracer("commissionledger-usecase")

// TransactionUseCase handles commission transaction business logic.
type TransactionUseCase struct {
	txManager  TxManager
	repo       TransactionRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	locker     Locker
	retrier    Retrier

	cache    Cache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

// TransactionOption configures optional collaborators of a TransactionUseCase.
type TransactionOption func(*TransactionUseCase)

// WithCache enables the read-through transaction cache.
func WithCache(cache Cache, ttl time.Duration) TransactionOption {
	return func(uc *TransactionUseCase) {
		uc.cache = cache
		if ttl > 0 {
			uc.cacheTTL = ttl
		}
	}
}

// WithMetrics records Prometheus metrics for every operation.
func WithMetrics(m *metrics.Metrics) TransactionOption {
	return func(uc *TransactionUseCase) { uc.metrics = m }
}

// WithLogger sets the logger used for warnings and audit lines.
func WithLogger(logger zerolog.Logger) TransactionOption {
	return func(uc *TransactionUseCase) { uc.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) TransactionOption {
	return func(uc *TransactionUseCase) { uc.now = now }
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TxManager,
	repo TransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	locker Locker,
	retrier Retrier,
	opts ...TransactionOption,
) *TransactionUseCase {
	uc := &TransactionUseCase{
		txManager:  txManager,
		repo:       repo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		locker:     locker,
		retrier:    retrier,
		cacheTTL:   DefaultCacheTTL,
		logger:     zerolog.Nop(),
		now:        func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// CreateTransactionInput represents input for opening a transaction.
type CreateTransactionInput struct {
	TotalServiceFee decimal.Decimal
	ListingAgent    string
	SellingAgent    string
}

// ListTransactionsInput represents input for listing transactions.
type ListTransactionsInput struct {
	Stage  *domain.Stage
	Limit  int
	Offset int
}

// ListTransactionsResult is one page of transactions plus the filtered total.
type ListTransactionsResult struct {
	Transactions []*domain.Transaction
	Total        int64
}

// AdvanceStageInput represents a request to move a transaction to its next stage.
type AdvanceStageInput struct {
	TransactionID string
	Stage         domain.Stage
	EarnestMoney  *decimal.Decimal
}

// CreateTransaction opens a new transaction in the agreement stage.
func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionUseCase.CreateTransaction")
	defer span.End()

	t, err := domain.NewTransaction(domain.NewTransactionParams{
		ID:              uc.idGen.Generate(),
		TotalServiceFee: input.TotalServiceFee,
		ListingAgent:    input.ListingAgent,
		SellingAgent:    input.SellingAgent,
		Now:             uc.now(),
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("transaction.id", t.ID))

	// Add timeout to prevent long-running transactions
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, uc.creationFailed(span, err)
	}
	defer tx.Rollback(ctx)

	if err := uc.repo.Create(ctx, tx, t); err != nil {
		return nil, uc.creationFailed(span, err)
	}

	if err := uc.outboxRepo.Create(ctx, tx, domain.NewTransactionCreatedEvent(uc.idGen.Generate(), t)); err != nil {
		return nil, uc.creationFailed(span, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, uc.creationFailed(span, err)
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsCreated.Inc()
	}

	uc.logger.Info().
		Str("transaction_id", t.ID).
		Str("total_service_fee", t.TotalServiceFee.String()).
		Msg("transaction created")

	return t, nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionUseCase.GetTransaction",
		trace.WithAttributes(attribute.String("transaction.id", id)))
	defer span.End()

	if cached, ok := uc.fromCache(ctx, id); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	t, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	uc.toCache(ctx, t)

	return t, nil
}

// ListTransactions returns a page of transactions, optionally filtered by stage.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) (*ListTransactionsResult, error) {
	ctx, span := tracer.Start(ctx, "TransactionUseCase.ListTransactions")
	defer span.End()

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	filter := domain.TransactionFilter{Stage: input.Stage, Limit: limit, Offset: offset}

	transactions, err := uc.repo.List(ctx, filter)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	total, err := uc.repo.Count(ctx, filter)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	return &ListTransactionsResult{Transactions: transactions, Total: total}, nil
}

// AdvanceStage moves a transaction to the requested stage. Concurrent calls
// for the same transaction are serialized through the locker, and a stale
// version detected at write time is retried from a fresh load.
func (uc *TransactionUseCase) AdvanceStage(ctx context.Context, input AdvanceStageInput) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionUseCase.AdvanceStage",
		trace.WithAttributes(
			attribute.String("transaction.id", input.TransactionID),
			attribute.String("stage.requested", input.Stage.String()),
		))
	defer span.End()

	start := time.Now()

	var (
		result  *domain.Transaction
		from    domain.Stage
		attempt int
	)

	err := uc.locker.WithLock(ctx, TransactionLockKey(input.TransactionID), func(ctx context.Context) error {
		err := uc.retrier.Retry(ctx, func() error {
			if attempt > 0 && uc.metrics != nil {
				uc.metrics.ConflictRetries.Inc()
			}
			attempt++

			t, prev, err := uc.advanceOnce(ctx, input)
			if err != nil {
				return err
			}

			result, from = t, prev
			return nil
		})
		if err != nil {
			return err
		}

		// Refreshed under the lock so writers land in commit order.
		uc.refreshCache(ctx, result)
		return nil
	})
	if err != nil {
		uc.recordRejection(err)
		recordSpanError(span, err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.StageTransitions.WithLabelValues(from.String(), result.Stage.String()).Inc()
		uc.metrics.TransitionDuration.Observe(time.Since(start).Seconds())
		if result.Stage == domain.StageCompleted {
			uc.observeCommission(result.FinancialBreakdown)
		}
	}

	uc.logger.Info().
		Str("transaction_id", result.ID).
		Stringer("from", from).
		Stringer("to", result.Stage).
		Int64("version", result.Version).
		Int("attempts", attempt).
		Msg("transaction stage advanced")

	return result, nil
}

// advanceOnce runs one load-validate-save cycle inside a database transaction.
func (uc *TransactionUseCase) advanceOnce(ctx context.Context, input AdvanceStageInput) (*domain.Transaction, domain.Stage, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, 0, &domain.PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx)

	current, err := uc.repo.GetByIDForUpdate(ctx, tx, input.TransactionID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, 0, err
		}
		return nil, 0, &domain.PersistenceError{Op: "load", Err: err}
	}

	next := current.Clone()

	_, err = next.ApplyTransition(domain.TransitionRequest{
		Stage:        input.Stage,
		EarnestMoney: input.EarnestMoney,
	}, uc.now())
	if err != nil {
		return nil, 0, err
	}

	if err := uc.repo.Update(ctx, tx, next, current.Version); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, 0, err
		}
		return nil, 0, &domain.PersistenceError{Op: "update", Err: err}
	}

	event := domain.NewStageChangedEvent(uc.idGen.Generate(), current.Stage, next)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, 0, &domain.PersistenceError{Op: "outbox", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, &domain.PersistenceError{Op: "commit", Err: err}
	}

	return next, current.Stage, nil
}

func (uc *TransactionUseCase) creationFailed(span trace.Span, err error) error {
	if uc.metrics != nil {
		uc.metrics.PersistenceErrors.WithLabelValues("create").Inc()
	}
	err = &domain.CreationError{Err: err}
	recordSpanError(span, err)
	return err
}

func (uc *TransactionUseCase) recordRejection(err error) {
	if uc.metrics == nil {
		return
	}

	var persistErr *domain.PersistenceError

	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		uc.metrics.TransitionRejections.WithLabelValues("invalid_transition").Inc()
	case errors.Is(err, domain.ErrMissingRequiredField):
		uc.metrics.TransitionRejections.WithLabelValues("missing_field").Inc()
	case errors.Is(err, domain.ErrInvalidValue):
		uc.metrics.TransitionRejections.WithLabelValues("invalid_value").Inc()
	case errors.Is(err, domain.ErrTransactionNotFound):
		uc.metrics.TransitionRejections.WithLabelValues("not_found").Inc()
	case errors.As(err, &persistErr):
		uc.metrics.PersistenceErrors.WithLabelValues(persistErr.Op).Inc()
	case errors.Is(err, domain.ErrConflict):
		uc.metrics.TransitionRejections.WithLabelValues("conflict").Inc()
	}
}

func (uc *TransactionUseCase) observeCommission(b domain.FinancialBreakdown) {
	agency, _ := b.Agency.Float64()
	listing, _ := b.ListingAgent.Float64()
	selling, _ := b.SellingAgent.Float64()

	uc.metrics.CommissionAmount.WithLabelValues("agency").Observe(agency)
	uc.metrics.CommissionAmount.WithLabelValues("listing_agent").Observe(listing)
	uc.metrics.CommissionAmount.WithLabelValues("selling_agent").Observe(selling)
}

func (uc *TransactionUseCase) fromCache(ctx context.Context, id string) (*domain.Transaction, bool) {
	if uc.cache == nil {
		return nil, false
	}

	data, err := uc.cache.Get(ctx, TransactionCacheKey(id))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			uc.logger.Warn().Err(err).Str("transaction_id", id).Msg("transaction cache read failed")
		}
		if uc.metrics != nil {
			uc.metrics.CacheMisses.Inc()
		}
		return nil, false
	}

	var t domain.Transaction
	if err := json.Unmarshal(data, &t); err != nil {
		uc.logger.Warn().Err(err).Str("transaction_id", id).Msg("discarding undecodable cache entry")
		return nil, false
	}

	if uc.metrics != nil {
		uc.metrics.CacheHits.Inc()
	}

	return &t, true
}

// toCache fills a miss. It never overwrites an existing entry, so a snapshot
// read before a concurrent AdvanceStage cannot replace the one that call
// stored after committing.
func (uc *TransactionUseCase) toCache(ctx context.Context, t *domain.Transaction) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(t)
	if err != nil {
		uc.logger.Warn().Err(err).Str("transaction_id", t.ID).Msg("failed to encode transaction for cache")
		return
	}

	if _, err := uc.cache.SetIfAbsent(ctx, TransactionCacheKey(t.ID), data, uc.cacheTTL); err != nil {
		uc.logger.Warn().Err(err).Str("transaction_id", t.ID).Msg("transaction cache write failed")
	}
}

// refreshCache overwrites the entry with a committed snapshot. If that write
// fails the entry is dropped instead.
func (uc *TransactionUseCase) refreshCache(ctx context.Context, t *domain.Transaction) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(t)
	if err == nil {
		err = uc.cache.Set(ctx, TransactionCacheKey(t.ID), data, uc.cacheTTL)
	}
	if err == nil {
		return
	}

	uc.logger.Warn().Err(err).Str("transaction_id", t.ID).Msg("transaction cache refresh failed")
	uc.invalidate(ctx, t.ID)
}

// invalidate drops the cached snapshot. Failures are logged only, the entry
// expires on its own after the cache TTL.
func (uc *TransactionUseCase) invalidate(ctx context.Context, id string) {
	if err := uc.cache.Delete(ctx, TransactionCacheKey(id)); err != nil {
		uc.logger.Warn().Err(err).Str("transaction_id", id).Msg("transaction cache invalidation failed")
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
