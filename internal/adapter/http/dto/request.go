package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/commissionledger/internal/domain"
	"github.com/iho/commissionledger/internal/usecase"
)

// CreateTransactionRequest represents a request to open a transaction.
type CreateTransactionRequest struct {
	TotalServiceFee *decimal.Decimal `json:"total_service_fee" validate:"required,nonnegative_decimal"`
	ListingAgent    string           `json:"listing_agent"     validate:"notblank_trimmed,max=255"`
	SellingAgent    string           `json:"selling_agent"     validate:"notblank_trimmed,max=255"`
}

// ToUseCaseInput validates the request and converts it to use case input.
func (r *CreateTransactionRequest) ToUseCaseInput() (usecase.CreateTransactionInput, error) {
	if err := Validate(r); err != nil {
		return usecase.CreateTransactionInput{}, err
	}

	return usecase.CreateTransactionInput{
		TotalServiceFee: *r.TotalServiceFee,
		ListingAgent:    r.ListingAgent,
		SellingAgent:    r.SellingAgent,
	}, nil
}

// AdvanceStageRequest represents a request to move a transaction forward.
// EarnestMoney is only read for the earnest_money stage.
type AdvanceStageRequest struct {
	Stage        string           `json:"stage"                   validate:"notblank_trimmed"`
	EarnestMoney *decimal.Decimal `json:"earnest_money,omitempty"`
}

// ToUseCaseInput validates the request and converts it to use case input.
func (r *AdvanceStageRequest) ToUseCaseInput(transactionID string) (usecase.AdvanceStageInput, error) {
	if err := Validate(r); err != nil {
		return usecase.AdvanceStageInput{}, err
	}

	stage, err := domain.ParseStage(r.Stage)
	if err != nil {
		return usecase.AdvanceStageInput{}, err
	}

	return usecase.AdvanceStageInput{
		TransactionID: transactionID,
		Stage:         stage,
		EarnestMoney:  r.EarnestMoney,
	}, nil
}
