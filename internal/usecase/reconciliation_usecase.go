package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/commissionledger/internal/domain"
	"github.com/iho/commissionledger/internal/infrastructure/metrics"
)

// ReconciliationUseCase checks stored transactions against the commission rules.
type ReconciliationUseCase struct {
	repo    TransactionRepository
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(repo TransactionRepository, m *metrics.Metrics, logger zerolog.Logger) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		repo:    repo,
		metrics: m,
		logger:  logger,
	}
}

// Discrepancy describes one rule a stored transaction violates.
type Discrepancy struct {
	TransactionID string       `json:"transaction_id"`
	Stage         domain.Stage `json:"stage"`
	Reason        string       `json:"reason"`
}

// ConsistencyReport is the outcome of a full consistency check.
type ConsistencyReport struct {
	TotalTransactions     int           `json:"total_transactions"`
	CompletedTransactions int           `json:"completed_transactions"`
	Discrepancies         []Discrepancy `json:"discrepancies"`
	Consistent            bool          `json:"consistent"`
	CheckedAt             time.Time     `json:"checked_at"`
}

// CheckCommissionConsistency walks every transaction and reports those whose
// stored breakdown, narrative or history disagree with the commission rules.
func (uc *ReconciliationUseCase) CheckCommissionConsistency(ctx context.Context) (*ConsistencyReport, error) {
	report := &ConsistencyReport{
		Discrepancies: make([]Discrepancy, 0),
	}

	for offset := 0; ; offset += reconciliationPageSize {
		page, err := uc.repo.List(ctx, domain.TransactionFilter{Limit: reconciliationPageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("failed to list transactions at offset %d: %w", offset, err)
		}

		for _, t := range page {
			report.TotalTransactions++
			if t.Stage == domain.StageCompleted {
				report.CompletedTransactions++
			}
			report.Discrepancies = append(report.Discrepancies, CheckTransaction(t)...)
		}

		if len(page) < reconciliationPageSize {
			break
		}
	}

	report.Consistent = len(report.Discrepancies) == 0
	report.CheckedAt = time.Now().UTC()

	if uc.metrics != nil {
		uc.metrics.InconsistentTransactions.Set(float64(len(report.Discrepancies)))
	}

	if !report.Consistent {
		uc.logger.Warn().
			Int("discrepancies", len(report.Discrepancies)).
			Int("total", report.TotalTransactions).
			Msg("commission consistency check found discrepancies")
	}

	return report, nil
}

// CheckTransaction returns every discrepancy found on a single transaction.
func CheckTransaction(t *domain.Transaction) []Discrepancy {
	var out []Discrepancy

	add := func(format string, args ...any) {
		out = append(out, Discrepancy{
			TransactionID: t.ID,
			Stage:         t.Stage,
			Reason:        fmt.Sprintf(format, args...),
		})
	}

	if len(t.StageHistory) == 0 {
		add("stage history is empty")
	} else if last := t.StageHistory[len(t.StageHistory)-1]; last.Stage != t.Stage {
		add("last history entry is for %s but transaction is in %s", last.Stage, t.Stage)
	}

	if t.Stage != domain.StageCompleted {
		if !t.FinancialBreakdown.IsZero() {
			add("financial breakdown is populated before completion")
		}
		if t.CommissionDetail != "" {
			add("commission detail is set before completion")
		}
		return out
	}

	if !t.FinancialBreakdown.Total().Equal(t.TotalServiceFee) && t.ListingAgent != "" && t.SellingAgent != "" {
		add("breakdown sums to %s but service fee is %s", t.FinancialBreakdown.Total(), t.TotalServiceFee)
	}

	expected, detail := domain.CalculateCommission(t.TotalServiceFee, t.ListingAgent, t.SellingAgent)
	if !t.FinancialBreakdown.Equal(expected) {
		add("stored breakdown differs from recomputed split")
	}
	if t.CommissionDetail != detail {
		add("stored commission detail differs from recomputed narrative")
	}

	return out
}
