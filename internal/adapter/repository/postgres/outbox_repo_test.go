package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/commissionledger/internal/domain"
)

var outboxColumns = []string{
	"id", "aggregate_id", "aggregate_type", "event_type", "payload", "created_at", "published", "published_at",
}

func TestOutboxRepository_Create(t *testing.T) {
	pool := newMockPool(t)
	repo := newOutboxRepositoryWithDB(pool)
	tx := beginTx(t, pool)

	event := domain.NewTransactionCreatedEvent("evt-1", sampleTransaction(t))

	pool.ExpectExec("INSERT INTO outbox_events").
		WithArgs("evt-1", "01HZX", domain.AggregateTypeTransaction, domain.EventTypeTransactionCreated,
			pgxmock.AnyArg(), pgxmock.AnyArg(), false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), tx, event))
	assertExpectations(t, pool)
}

func TestOutboxRepository_GetUnpublished(t *testing.T) {
	pool := newMockPool(t)
	repo := newOutboxRepositoryWithDB(pool)

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pool.ExpectQuery("FROM outbox_events").
		WithArgs(int32(10)).
		WillReturnRows(pool.NewRows(outboxColumns).AddRow(
			"evt-1", "tx-1", "transaction", "transaction.created",
			[]byte(`{"transaction_id":"tx-1"}`),
			pgtype.Timestamptz{Time: created, Valid: true},
			false,
			pgtype.Timestamptz{},
		))

	events, err := repo.GetUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "tx-1", events[0].Payload["transaction_id"])
	assert.Nil(t, events[0].PublishedAt)
	assert.True(t, events[0].CreatedAt.Equal(created))
	assertExpectations(t, pool)
}

func TestOutboxRepository_MarkPublished(t *testing.T) {
	pool := newMockPool(t)
	repo := newOutboxRepositoryWithDB(pool)

	pool.ExpectExec("UPDATE outbox_events SET published = TRUE").
		WithArgs("evt-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.MarkPublished(context.Background(), "evt-1", time.Now()))
	assertExpectations(t, pool)
}

func TestOutboxRepository_DeletePublished(t *testing.T) {
	pool := newMockPool(t)
	repo := newOutboxRepositoryWithDB(pool)

	pool.ExpectExec("DELETE FROM outbox_events").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, repo.DeletePublished(context.Background(), time.Now()))
	assertExpectations(t, pool)
}

func TestOutboxRepository_GetByAggregate_BadPayload(t *testing.T) {
	pool := newMockPool(t)
	repo := newOutboxRepositoryWithDB(pool)

	pool.ExpectQuery("FROM outbox_events").
		WithArgs("transaction", "tx-1", int32(10), int32(0)).
		WillReturnRows(pool.NewRows(outboxColumns).AddRow(
			"evt-1", "tx-1", "transaction", "transaction.created",
			[]byte(`{not json`),
			pgtype.Timestamptz{Time: time.Now(), Valid: true},
			true,
			pgtype.Timestamptz{Time: time.Now(), Valid: true},
		))

	_, err := repo.GetByAggregate(context.Background(), "transaction", "tx-1", 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evt-1")
}
