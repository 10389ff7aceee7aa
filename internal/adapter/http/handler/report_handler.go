package handler

import (
	"context"
	"net/http"

	"github.com/iho/commissionledger/internal/adapter/http/dto"
	"github.com/iho/commissionledger/internal/usecase"
)

// ConsistencyChecker runs the commission consistency report.
type ConsistencyChecker interface {
	CheckCommissionConsistency(ctx context.Context) (*usecase.ConsistencyReport, error)
}

// ReportHandler serves operational reports.
type ReportHandler struct {
	checker ConsistencyChecker
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(checker ConsistencyChecker) *ReportHandler {
	return &ReportHandler{checker: checker}
}

// Consistency runs the commission consistency check.
func (h *ReportHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.checker.CheckCommissionConsistency(r.Context())
	if err != nil {
		writeDomainError(w, "consistency check failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyReportFromUseCase(report))
}
