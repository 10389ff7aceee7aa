package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/commissionledger/internal/adapter/http/dto"
	"github.com/iho/commissionledger/internal/domain"
	"github.com/iho/commissionledger/internal/usecase"
)

type transactionServiceStub struct {
	createFn  func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error)
	getFn     func(ctx context.Context, id string) (*domain.Transaction, error)
	listFn    func(ctx context.Context, input usecase.ListTransactionsInput) (*usecase.ListTransactionsResult, error)
	advanceFn func(ctx context.Context, input usecase.AdvanceStageInput) (*domain.Transaction, error)
}

func (s *transactionServiceStub) CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
	return s.createFn(ctx, input)
}

func (s *transactionServiceStub) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.getFn(ctx, id)
}

func (s *transactionServiceStub) ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) (*usecase.ListTransactionsResult, error) {
	return s.listFn(ctx, input)
}

func (s *transactionServiceStub) AdvanceStage(ctx context.Context, input usecase.AdvanceStageInput) (*domain.Transaction, error) {
	return s.advanceFn(ctx, input)
}

func setChiURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func newTestTransaction(t *testing.T) *domain.Transaction {
	t.Helper()

	tx, err := domain.NewTransaction(domain.NewTransactionParams{
		ID:              "tx-1",
		TotalServiceFee: decimal.NewFromInt(10000),
		ListingAgent:    "Alice",
		SellingAgent:    "Bob",
		Now:             time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("failed to build transaction: %v", err)
	}
	return tx
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestTransactionHandler_Create_Success(t *testing.T) {
	var captured usecase.CreateTransactionInput
	handler := NewTransactionHandler(&transactionServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
			captured = input
			return newTestTransaction(t), nil
		},
	})

	body := `{"total_service_fee":"10000","listing_agent":"Alice","selling_agent":"Bob"}`
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if !captured.TotalServiceFee.Equal(decimal.NewFromInt(10000)) || captured.ListingAgent != "Alice" || captured.SellingAgent != "Bob" {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "tx-1" || resp.Stage != "agreement" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.EarnestMoney != nil {
		t.Fatalf("expected no earnest money, got %v", resp.EarnestMoney)
	}
	if len(resp.StageHistory) != 1 || resp.StageHistory[0].Stage != "agreement" {
		t.Fatalf("expected creation history entry, got %+v", resp.StageHistory)
	}
}

func TestTransactionHandler_Create_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{bad json`},
		{"unknown field", `{"total_service_fee":"1","listing_agent":"A","selling_agent":"B","extra":1}`},
		{"missing fee", `{"listing_agent":"A","selling_agent":"B"}`},
		{"negative fee", `{"total_service_fee":"-5","listing_agent":"A","selling_agent":"B"}`},
		{"blank agent", `{"total_service_fee":"5","listing_agent":"  ","selling_agent":"B"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTransactionHandler(&transactionServiceStub{
				createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
					t.Fatal("CreateTransaction should not be called")
					return nil, nil
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			handler.Create(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTransactionHandler_Create_StorageFailure(t *testing.T) {
	handler := NewTransactionHandler(&transactionServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
			return nil, &domain.CreationError{Err: errors.New("connection refused")}
		},
	})

	body := `{"total_service_fee":"1","listing_agent":"A","selling_agent":"B"}`
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestTransactionHandler_Get(t *testing.T) {
	handler := NewTransactionHandler(&transactionServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Transaction, error) {
			if id != "tx-1" {
				return nil, domain.ErrTransactionNotFound
			}
			return newTestTransaction(t), nil
		},
	})

	rec := httptest.NewRecorder()
	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/transactions/tx-1", nil), "id", "tx-1")
	handler.Get(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = setChiURLParam(httptest.NewRequest(http.MethodGet, "/transactions/nope", nil), "id", "nope")
	handler.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTransactionHandler_List(t *testing.T) {
	var captured usecase.ListTransactionsInput
	handler := NewTransactionHandler(&transactionServiceStub{
		listFn: func(ctx context.Context, input usecase.ListTransactionsInput) (*usecase.ListTransactionsResult, error) {
			captured = input
			return &usecase.ListTransactionsResult{
				Transactions: []*domain.Transaction{newTestTransaction(t)},
				Total:        11,
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/transactions?limit=10&offset=10&stage=Title_Deed", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Stage == nil || *captured.Stage != domain.StageTitleDeed || captured.Limit != 10 || captured.Offset != 10 {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp dto.ListTransactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 11 || len(resp.Transactions) != 1 || resp.Limit != 10 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestTransactionHandler_List_InvalidStage(t *testing.T) {
	handler := NewTransactionHandler(&transactionServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/transactions?stage=closing", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransactionHandler_AdvanceStage(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		body       string
		serviceErr error
		wantStatus int
		wantStage  domain.Stage
		wantEM     string
	}{
		{
			name:       "body stage with earnest money",
			url:        "/transactions/tx-1/stage",
			body:       `{"stage":"earnest_money","earnest_money":"500.25"}`,
			wantStatus: http.StatusOK,
			wantStage:  domain.StageEarnestMoney,
			wantEM:     "500.25",
		},
		{
			name:       "query stage fallback",
			url:        "/transactions/tx-1/stage?stage=title_deed",
			wantStatus: http.StatusOK,
			wantStage:  domain.StageTitleDeed,
		},
		{
			name:       "missing stage",
			url:        "/transactions/tx-1/stage",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown stage",
			url:        "/transactions/tx-1/stage",
			body:       `{"stage":"closing"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid transition",
			url:        "/transactions/tx-1/stage",
			body:       `{"stage":"completed"}`,
			serviceErr: &domain.InvalidTransitionError{Current: domain.StageAgreement, Requested: domain.StageCompleted},
			wantStatus: http.StatusBadRequest,
			wantStage:  domain.StageCompleted,
		},
		{
			name:       "conflict",
			url:        "/transactions/tx-1/stage",
			body:       `{"stage":"title_deed"}`,
			serviceErr: domain.ErrConflict,
			wantStatus: http.StatusConflict,
			wantStage:  domain.StageTitleDeed,
		},
		{
			name:       "not found",
			url:        "/transactions/tx-1/stage",
			body:       `{"stage":"title_deed"}`,
			serviceErr: domain.ErrTransactionNotFound,
			wantStatus: http.StatusNotFound,
			wantStage:  domain.StageTitleDeed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured *usecase.AdvanceStageInput
			handler := NewTransactionHandler(&transactionServiceStub{
				advanceFn: func(ctx context.Context, input usecase.AdvanceStageInput) (*domain.Transaction, error) {
					captured = &input
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return newTestTransaction(t), nil
				},
			})

			req := httptest.NewRequest(http.MethodPatch, tt.url, bytes.NewBufferString(tt.body))
			req = setChiURLParam(req, "id", "tx-1")
			rec := httptest.NewRecorder()

			handler.AdvanceStage(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			if tt.wantStage == 0 {
				if captured != nil {
					t.Fatalf("service should not be called, got %+v", captured)
				}
				if resp := decodeError(t, rec); resp.Error == "" {
					t.Fatalf("expected error body")
				}
				return
			}

			if captured == nil || captured.TransactionID != "tx-1" || captured.Stage != tt.wantStage {
				t.Fatalf("unexpected input %+v", captured)
			}
			if tt.wantEM != "" && (captured.EarnestMoney == nil || captured.EarnestMoney.String() != tt.wantEM) {
				t.Fatalf("expected earnest money %s, got %v", tt.wantEM, captured.EarnestMoney)
			}
		})
	}
}
