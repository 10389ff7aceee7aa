package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const countTransactions = `-- name: CountTransactions :one
SELECT COUNT(*) FROM transactions
`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countTransactions)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countTransactionsByStage = `-- name: CountTransactionsByStage :one
SELECT COUNT(*) FROM transactions WHERE stage = $1
`

func (q *Queries) CountTransactionsByStage(ctx context.Context, stage string) (int64, error) {
	row := q.db.QueryRow(ctx, countTransactionsByStage, stage)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createTransaction = `-- name: CreateTransaction :exec
INSERT INTO transactions (id, total_service_fee, listing_agent, selling_agent, stage, earnest_money, agency_share, listing_agent_share, selling_agent_share, commission_detail, stage_history, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

type CreateTransactionParams struct {
	ID                string             `json:"id"`
	TotalServiceFee   pgtype.Numeric     `json:"total_service_fee"`
	ListingAgent      string             `json:"listing_agent"`
	SellingAgent      string             `json:"selling_agent"`
	Stage             string             `json:"stage"`
	EarnestMoney      pgtype.Numeric     `json:"earnest_money"`
	AgencyShare       pgtype.Numeric     `json:"agency_share"`
	ListingAgentShare pgtype.Numeric     `json:"listing_agent_share"`
	SellingAgentShare pgtype.Numeric     `json:"selling_agent_share"`
	CommissionDetail  string             `json:"commission_detail"`
	StageHistory      []byte             `json:"stage_history"`
	Version           int64              `json:"version"`
	CreatedAt         pgtype.Timestamptz `json:"created_at"`
	UpdatedAt         pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.Exec(ctx, createTransaction,
		arg.ID,
		arg.TotalServiceFee,
		arg.ListingAgent,
		arg.SellingAgent,
		arg.Stage,
		arg.EarnestMoney,
		arg.AgencyShare,
		arg.ListingAgentShare,
		arg.SellingAgentShare,
		arg.CommissionDetail,
		arg.StageHistory,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getTransactionByID = `-- name: GetTransactionByID :one
SELECT id, total_service_fee, listing_agent, selling_agent, stage, earnest_money, agency_share, listing_agent_share, selling_agent_share, commission_detail, stage_history, version, created_at, updated_at FROM transactions WHERE id = $1
`

func (q *Queries) GetTransactionByID(ctx context.Context, id string) (Transaction, error) {
	row := q.db.QueryRow(ctx, getTransactionByID, id)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.TotalServiceFee,
		&i.ListingAgent,
		&i.SellingAgent,
		&i.Stage,
		&i.EarnestMoney,
		&i.AgencyShare,
		&i.ListingAgentShare,
		&i.SellingAgentShare,
		&i.CommissionDetail,
		&i.StageHistory,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getTransactionByIDForUpdate = `-- name: GetTransactionByIDForUpdate :one
SELECT id, total_service_fee, listing_agent, selling_agent, stage, earnest_money, agency_share, listing_agent_share, selling_agent_share, commission_detail, stage_history, version, created_at, updated_at FROM transactions WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetTransactionByIDForUpdate(ctx context.Context, id string) (Transaction, error) {
	row := q.db.QueryRow(ctx, getTransactionByIDForUpdate, id)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.TotalServiceFee,
		&i.ListingAgent,
		&i.SellingAgent,
		&i.Stage,
		&i.EarnestMoney,
		&i.AgencyShare,
		&i.ListingAgentShare,
		&i.SellingAgentShare,
		&i.CommissionDetail,
		&i.StageHistory,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listTransactions = `-- name: ListTransactions :many
SELECT id, total_service_fee, listing_agent, selling_agent, stage, earnest_money, agency_share, listing_agent_share, selling_agent_share, commission_detail, stage_history, version, created_at, updated_at FROM transactions
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2
`

type ListTransactionsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactions, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Transaction{}
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.TotalServiceFee,
			&i.ListingAgent,
			&i.SellingAgent,
			&i.Stage,
			&i.EarnestMoney,
			&i.AgencyShare,
			&i.ListingAgentShare,
			&i.SellingAgentShare,
			&i.CommissionDetail,
			&i.StageHistory,
			&i.Version,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTransactionsByStage = `-- name: ListTransactionsByStage :many
SELECT id, total_service_fee, listing_agent, selling_agent, stage, earnest_money, agency_share, listing_agent_share, selling_agent_share, commission_detail, stage_history, version, created_at, updated_at FROM transactions
WHERE stage = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListTransactionsByStageParams struct {
	Stage  string `json:"stage"`
	Limit  int32  `json:"limit"`
	Offset int32  `json:"offset"`
}

func (q *Queries) ListTransactionsByStage(ctx context.Context, arg ListTransactionsByStageParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactionsByStage, arg.Stage, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Transaction{}
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.TotalServiceFee,
			&i.ListingAgent,
			&i.SellingAgent,
			&i.Stage,
			&i.EarnestMoney,
			&i.AgencyShare,
			&i.ListingAgentShare,
			&i.SellingAgentShare,
			&i.CommissionDetail,
			&i.StageHistory,
			&i.Version,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateTransaction = `-- name: UpdateTransaction :execrows
UPDATE transactions
SET stage = $2,
    earnest_money = $3,
    agency_share = $4,
    listing_agent_share = $5,
    selling_agent_share = $6,
    commission_detail = $7,
    stage_history = $8,
    version = version + 1,
    updated_at = $9
WHERE id = $1 AND version = $10
`

type UpdateTransactionParams struct {
	ID                string             `json:"id"`
	Stage             string             `json:"stage"`
	EarnestMoney      pgtype.Numeric     `json:"earnest_money"`
	AgencyShare       pgtype.Numeric     `json:"agency_share"`
	ListingAgentShare pgtype.Numeric     `json:"listing_agent_share"`
	SellingAgentShare pgtype.Numeric     `json:"selling_agent_share"`
	CommissionDetail  string             `json:"commission_detail"`
	StageHistory      []byte             `json:"stage_history"`
	UpdatedAt         pgtype.Timestamptz `json:"updated_at"`
	Version           int64              `json:"version"`
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateTransaction,
		arg.ID,
		arg.Stage,
		arg.EarnestMoney,
		arg.AgencyShare,
		arg.ListingAgentShare,
		arg.SellingAgentShare,
		arg.CommissionDetail,
		arg.StageHistory,
		arg.UpdatedAt,
		arg.Version,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
