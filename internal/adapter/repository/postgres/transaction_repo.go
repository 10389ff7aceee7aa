package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/commissionledger/internal/domain"
	"github.com/iho/commissionledger/internal/infrastructure/postgres/generated"
	"github.com/iho/commissionledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return newTransactionRepositoryWithDB(pool)
}

func newTransactionRepositoryWithDB(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{
		queries: generated.New(db),
	}
}

// Create inserts a new transaction within tx.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Tx, t *domain.Transaction) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	history, err := json.Marshal(t.StageHistory)
	if err != nil {
		return fmt.Errorf("failed to encode stage history: %w", err)
	}

	return r.queries.WithTx(ptx).CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:                t.ID,
		TotalServiceFee:   decimalToNumeric(t.TotalServiceFee),
		ListingAgent:      t.ListingAgent,
		SellingAgent:      t.SellingAgent,
		Stage:             t.Stage.String(),
		EarnestMoney:      nullDecimalToNumeric(t.EarnestMoney),
		AgencyShare:       decimalToNumeric(t.FinancialBreakdown.Agency),
		ListingAgentShare: decimalToNumeric(t.FinancialBreakdown.ListingAgent),
		SellingAgentShare: decimalToNumeric(t.FinancialBreakdown.SellingAgent),
		CommissionDetail:  t.CommissionDetail,
		StageHistory:      history,
		Version:           t.Version,
		CreatedAt:         timeToPgTimestamptz(t.CreatedAt),
		UpdatedAt:         timeToPgTimestamptz(t.UpdatedAt),
	})
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToTransaction(row)
}

// GetByIDForUpdate retrieves a transaction by ID with a FOR UPDATE lock.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Transaction, error) {
	ptx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	row, err := r.queries.WithTx(ptx).GetTransactionByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToTransaction(row)
}

// Update writes the mutable columns of t if the stored version equals
// expectedVersion. Zero affected rows means another writer got there first.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Tx, t *domain.Transaction, expectedVersion int64) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	history, err := json.Marshal(t.StageHistory)
	if err != nil {
		return fmt.Errorf("failed to encode stage history: %w", err)
	}

	affected, err := r.queries.WithTx(ptx).UpdateTransaction(ctx, generated.UpdateTransactionParams{
		ID:                t.ID,
		Stage:             t.Stage.String(),
		EarnestMoney:      nullDecimalToNumeric(t.EarnestMoney),
		AgencyShare:       decimalToNumeric(t.FinancialBreakdown.Agency),
		ListingAgentShare: decimalToNumeric(t.FinancialBreakdown.ListingAgent),
		SellingAgentShare: decimalToNumeric(t.FinancialBreakdown.SellingAgent),
		CommissionDetail:  t.CommissionDetail,
		StageHistory:      history,
		UpdatedAt:         timeToPgTimestamptz(t.UpdatedAt),
		Version:           expectedVersion,
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrConflict
	}

	t.Version = expectedVersion + 1

	return nil
}

// List retrieves transactions, newest first, optionally filtered by stage.
func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	var (
		rows []generated.Transaction
		err  error
	)

	if filter.Stage != nil {
		rows, err = r.queries.ListTransactionsByStage(ctx, generated.ListTransactionsByStageParams{
			Stage:  filter.Stage.String(),
			Limit:  int32(filter.Limit),
			Offset: int32(filter.Offset),
		})
	} else {
		rows, err = r.queries.ListTransactions(ctx, generated.ListTransactionsParams{
			Limit:  int32(filter.Limit),
			Offset: int32(filter.Offset),
		})
	}
	if err != nil {
		return nil, err
	}

	transactions := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := rowToTransaction(row)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	return transactions, nil
}

// Count returns the number of transactions matching the filter's stage.
func (r *TransactionRepository) Count(ctx context.Context, filter domain.TransactionFilter) (int64, error) {
	if filter.Stage != nil {
		return r.queries.CountTransactionsByStage(ctx, filter.Stage.String())
	}
	return r.queries.CountTransactions(ctx)
}

func rowToTransaction(row generated.Transaction) (*domain.Transaction, error) {
	stage, err := domain.ParseStage(row.Stage)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", row.ID, err)
	}

	var history []domain.StageHistoryEntry
	if len(row.StageHistory) > 0 {
		if err := json.Unmarshal(row.StageHistory, &history); err != nil {
			return nil, fmt.Errorf("transaction %s: failed to decode stage history: %w", row.ID, err)
		}
	}

	return &domain.Transaction{
		ID:              row.ID,
		TotalServiceFee: numericToDecimal(row.TotalServiceFee),
		ListingAgent:    row.ListingAgent,
		SellingAgent:    row.SellingAgent,
		Stage:           stage,
		EarnestMoney:    numericToNullDecimal(row.EarnestMoney),
		FinancialBreakdown: domain.FinancialBreakdown{
			Agency:       numericToDecimal(row.AgencyShare),
			ListingAgent: numericToDecimal(row.ListingAgentShare),
			SellingAgent: numericToDecimal(row.SellingAgentShare),
		},
		CommissionDetail: row.CommissionDetail,
		StageHistory:     history,
		Version:          row.Version,
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
	}, nil
}
