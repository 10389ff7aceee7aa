package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/commissionledger/internal/adapter/http/dto"
	"github.com/iho/commissionledger/internal/domain"
	"github.com/iho/commissionledger/internal/usecase"
)

// TransactionService is the use case surface the handler drives.
type TransactionService interface {
	CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) (*usecase.ListTransactionsResult, error)
	AdvanceStage(ctx context.Context, input usecase.AdvanceStageInput) (*domain.Transaction, error)
}

// TransactionHandler handles commission transaction requests.
type TransactionHandler struct {
	transactionUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionUC: transactionUC}
}

// Create opens a new transaction in the agreement stage.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid transaction", err)
		return
	}

	t, err := h.transactionUC.CreateTransaction(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(t))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	t, err := h.transactionUC.GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(t))
}

// List returns a page of transactions, optionally filtered by ?stage=.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	input := usecase.ListTransactionsInput{
		Limit:  parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset: parseIntQuery(r, "offset", 0),
	}

	if raw := r.URL.Query().Get("stage"); raw != "" {
		stage, err := domain.ParseStage(raw)
		if err != nil {
			writeDomainError(w, "invalid stage filter", err)
			return
		}
		input.Stage = &stage
	}

	result, err := h.transactionUC.ListTransactions(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to list transactions", err)
		return
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(result.Transactions),
		Total:        result.Total,
		Limit:        limit,
		Offset:       offset,
	})
}

// AdvanceStage moves a transaction to the requested stage. The stage may come
// from the JSON body or, when the body omits it, the ?stage= query parameter.
func (h *TransactionHandler) AdvanceStage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.AdvanceStageRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Stage == "" {
		req.Stage = r.URL.Query().Get("stage")
	}

	input, err := req.ToUseCaseInput(id)
	if err != nil {
		writeDomainError(w, "invalid stage request", err)
		return
	}

	t, err := h.transactionUC.AdvanceStage(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to advance stage", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(t))
}
