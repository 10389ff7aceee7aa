package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/commissionledger/internal/domain"
	"github.com/iho/commissionledger/internal/usecase"
)

// BreakdownResponse is the commission split in API responses.
type BreakdownResponse struct {
	Agency       decimal.Decimal `json:"agency"`
	ListingAgent decimal.Decimal `json:"listing_agent"`
	SellingAgent decimal.Decimal `json:"selling_agent"`
}

// StageHistoryResponse is one audit entry in API responses.
type StageHistoryResponse struct {
	Stage     string         `json:"stage"`
	Changes   map[string]any `json:"changes"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID                 string                 `json:"id"`
	TotalServiceFee    decimal.Decimal        `json:"total_service_fee"`
	ListingAgent       string                 `json:"listing_agent"`
	SellingAgent       string                 `json:"selling_agent"`
	Stage              string                 `json:"stage"`
	EarnestMoney       *decimal.Decimal       `json:"earnest_money"`
	FinancialBreakdown BreakdownResponse      `json:"financial_breakdown"`
	CommissionDetail   string                 `json:"commission_detail"`
	StageHistory       []StageHistoryResponse `json:"stage_history"`
	Version            int64                  `json:"version"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	var earnest *decimal.Decimal
	if t.EarnestMoney.Valid {
		v := t.EarnestMoney.Decimal
		earnest = &v
	}

	history := make([]StageHistoryResponse, len(t.StageHistory))
	for i, h := range t.StageHistory {
		history[i] = StageHistoryResponse{
			Stage:     h.Stage.String(),
			Changes:   h.Changes,
			UpdatedAt: h.UpdatedAt,
		}
	}

	return &TransactionResponse{
		ID:              t.ID,
		TotalServiceFee: t.TotalServiceFee,
		ListingAgent:    t.ListingAgent,
		SellingAgent:    t.SellingAgent,
		Stage:           t.Stage.String(),
		EarnestMoney:    earnest,
		FinancialBreakdown: BreakdownResponse{
			Agency:       t.FinancialBreakdown.Agency,
			ListingAgent: t.FinancialBreakdown.ListingAgent,
			SellingAgent: t.FinancialBreakdown.SellingAgent,
		},
		CommissionDetail: t.CommissionDetail,
		StageHistory:     history,
		Version:          t.Version,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse is one page of transactions.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}

// DiscrepancyResponse is one consistency violation.
type DiscrepancyResponse struct {
	TransactionID string `json:"transaction_id"`
	Stage         string `json:"stage"`
	Reason        string `json:"reason"`
}

// ConsistencyReportResponse is the result of a commission consistency check.
type ConsistencyReportResponse struct {
	Consistent            bool                  `json:"consistent"`
	TotalTransactions     int                   `json:"total_transactions"`
	CompletedTransactions int                   `json:"completed_transactions"`
	Discrepancies         []DiscrepancyResponse `json:"discrepancies"`
	CheckedAt             time.Time             `json:"checked_at"`
}

// ConsistencyReportFromUseCase converts a use case report to a response.
func ConsistencyReportFromUseCase(r *usecase.ConsistencyReport) *ConsistencyReportResponse {
	discrepancies := make([]DiscrepancyResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = DiscrepancyResponse{
			TransactionID: d.TransactionID,
			Stage:         d.Stage.String(),
			Reason:        d.Reason,
		}
	}

	return &ConsistencyReportResponse{
		Consistent:            r.Consistent,
		TotalTransactions:     r.TotalTransactions,
		CompletedTransactions: r.CompletedTransactions,
		Discrepancies:         discrepancies,
		CheckedAt:             r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
