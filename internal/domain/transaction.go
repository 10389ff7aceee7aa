package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Audit change keys.
const (
	ChangeStage              = "stage"
	ChangeEarnestMoney       = "earnest_money"
	ChangeFinancialBreakdown = "financial_breakdown"
	ChangeCommissionDetail   = "commission_detail"
	ChangeTotalServiceFee    = "total_service_fee"
	ChangeListingAgent       = "listing_agent"
	ChangeSellingAgent       = "selling_agent"
)

// Transaction is a real-estate commission transaction moving through the
// agreement, earnest money, title deed and completed stages.
type Transaction struct {
	ID                 string              `json:"id"`
	TotalServiceFee    decimal.Decimal     `json:"total_service_fee"`
	ListingAgent       string              `json:"listing_agent"`
	SellingAgent       string              `json:"selling_agent"`
	Stage              Stage               `json:"stage"`
	EarnestMoney       decimal.NullDecimal `json:"earnest_money"`
	FinancialBreakdown FinancialBreakdown  `json:"financial_breakdown"`
	CommissionDetail   string              `json:"commission_detail"`
	StageHistory       []StageHistoryEntry `json:"stage_history"`
	Version            int64               `json:"version"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// StageHistoryEntry records what changed during one transition.
type StageHistoryEntry struct {
	Stage     Stage     `json:"stage"`
	Changes   Changes   `json:"changes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Changes maps a field name to its new value or to a StageChange.
type Changes map[string]any

// StageChange is the from/to pair recorded for a stage move.
type StageChange struct {
	From Stage `json:"from"`
	To   Stage `json:"to"`
}

// NewTransactionParams holds the data needed to open a transaction.
type NewTransactionParams struct {
	ID              string
	TotalServiceFee decimal.Decimal
	ListingAgent    string
	SellingAgent    string
	Now             time.Time
}

// NewTransaction validates params and returns a transaction in the agreement
// stage with a zeroed breakdown and the creation entry in its history.
func NewTransaction(p NewTransactionParams) (*Transaction, error) {
	if err := ValidateServiceFee(p.TotalServiceFee); err != nil {
		return nil, err
	}
	if err := ValidateAgentName(ChangeListingAgent, p.ListingAgent); err != nil {
		return nil, err
	}
	if err := ValidateAgentName(ChangeSellingAgent, p.SellingAgent); err != nil {
		return nil, err
	}

	t := &Transaction{
		ID:              p.ID,
		TotalServiceFee: p.TotalServiceFee,
		ListingAgent:    normalizeAgent(p.ListingAgent),
		SellingAgent:    normalizeAgent(p.SellingAgent),
		Stage:           StageAgreement,
		FinancialBreakdown: FinancialBreakdown{
			Agency:       decimal.Zero,
			ListingAgent: decimal.Zero,
			SellingAgent: decimal.Zero,
		},
		Version:   0,
		CreatedAt: p.Now,
		UpdatedAt: p.Now,
	}

	t.appendHistory(StageHistoryEntry{
		Stage: StageAgreement,
		Changes: Changes{
			ChangeStage:           StageAgreement,
			ChangeTotalServiceFee: t.TotalServiceFee,
			ChangeListingAgent:    t.ListingAgent,
			ChangeSellingAgent:    t.SellingAgent,
		},
		UpdatedAt: p.Now,
	})

	return t, nil
}

// TransitionRequest asks for a move to Stage, carrying the data that stage needs.
type TransitionRequest struct {
	Stage        Stage
	EarnestMoney *decimal.Decimal
}

// validate checks the stage-specific preconditions of the request.
func (r TransitionRequest) validate() error {
	if r.Stage != StageEarnestMoney {
		return nil
	}
	if r.EarnestMoney == nil {
		return &MissingRequiredFieldError{Field: ChangeEarnestMoney, Stage: StageEarnestMoney}
	}
	return ValidateEarnestMoney(*r.EarnestMoney)
}

// ApplyTransition validates req against the current stage and, when it is
// admissible, applies it and appends exactly one history entry. On error the
// transaction is left untouched.
func (t *Transaction) ApplyTransition(req TransitionRequest, now time.Time) (StageHistoryEntry, error) {
	if err := ValidateTransition(t.Stage, req.Stage); err != nil {
		return StageHistoryEntry{}, err
	}
	if err := req.validate(); err != nil {
		return StageHistoryEntry{}, err
	}

	changes := Changes{}

	if req.Stage == StageEarnestMoney {
		amount := *req.EarnestMoney
		if !t.EarnestMoney.Valid || !t.EarnestMoney.Decimal.Equal(amount) {
			changes[ChangeEarnestMoney] = amount
			t.EarnestMoney = decimal.NewNullDecimal(amount)
		}
	}

	if t.Stage != req.Stage {
		changes[ChangeStage] = StageChange{From: t.Stage, To: req.Stage}
		t.Stage = req.Stage
	}

	if req.Stage == StageCompleted {
		breakdown, detail := CalculateCommission(t.TotalServiceFee, t.ListingAgent, t.SellingAgent)
		if !t.FinancialBreakdown.Equal(breakdown) {
			changes[ChangeFinancialBreakdown] = breakdown
			t.FinancialBreakdown = breakdown
		}
		if t.CommissionDetail != detail {
			changes[ChangeCommissionDetail] = detail
			t.CommissionDetail = detail
		}
	}

	entry := StageHistoryEntry{
		Stage:     req.Stage,
		Changes:   changes,
		UpdatedAt: now,
	}
	t.appendHistory(entry)
	t.UpdatedAt = now

	return entry, nil
}

// appendHistory appends to a clipped slice so entries already shared with
// earlier copies of the history are never overwritten.
func (t *Transaction) appendHistory(entry StageHistoryEntry) {
	t.StageHistory = append(slices.Clip(t.StageHistory), entry)
}

// Clone returns a copy that shares no mutable state with t.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.StageHistory = slices.Clone(t.StageHistory)
	return &c
}

// TransactionFilter narrows List results.
type TransactionFilter struct {
	Stage  *Stage
	Limit  int
	Offset int
}
