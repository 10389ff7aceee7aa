package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestTransaction(t *testing.T, listing, selling string) *Transaction {
	t.Helper()

	tx, err := NewTransaction(NewTransactionParams{
		ID:              "tx-1",
		TotalServiceFee: decimal.NewFromInt(10000),
		ListingAgent:    listing,
		SellingAgent:    selling,
		Now:             testNow,
	})
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	return tx
}

func earnest(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func advanceToCompleted(t *testing.T, tx *Transaction) {
	t.Helper()

	steps := []TransitionRequest{
		{Stage: StageEarnestMoney, EarnestMoney: earnest("1000")},
		{Stage: StageTitleDeed},
		{Stage: StageCompleted},
	}
	for i, req := range steps {
		if _, err := tx.ApplyTransition(req, testNow.Add(time.Duration(i+1)*time.Hour)); err != nil {
			t.Fatalf("transition to %s: %v", req.Stage, err)
		}
	}
}

func TestNewTransaction(t *testing.T) {
	tx := newTestTransaction(t, " Alice ", "Bob")

	if tx.Stage != StageAgreement {
		t.Errorf("expected agreement stage, got %s", tx.Stage)
	}
	if tx.ListingAgent != "Alice" {
		t.Errorf("expected trimmed listing agent, got %q", tx.ListingAgent)
	}
	if !tx.FinancialBreakdown.IsZero() {
		t.Errorf("expected zero breakdown, got %+v", tx.FinancialBreakdown)
	}
	if tx.EarnestMoney.Valid {
		t.Error("expected earnest money to be unset")
	}
	if tx.CommissionDetail != "" {
		t.Errorf("expected empty commission detail, got %q", tx.CommissionDetail)
	}
	if len(tx.StageHistory) != 1 {
		t.Fatalf("expected one history entry, got %d", len(tx.StageHistory))
	}

	entry := tx.StageHistory[0]
	if entry.Stage != StageAgreement || entry.Changes[ChangeStage] != StageAgreement {
		t.Errorf("unexpected creation entry: %+v", entry)
	}
}

func TestNewTransaction_Validation(t *testing.T) {
	tests := []struct {
		name    string
		fee     decimal.Decimal
		listing string
		selling string
		wantErr error
	}{
		{"negative fee", decimal.NewFromInt(-1), "Alice", "Bob", ErrInvalidValue},
		{"missing listing agent", decimal.NewFromInt(1), "", "Bob", ErrMissingRequiredField},
		{"missing selling agent", decimal.NewFromInt(1), "Alice", "  ", ErrMissingRequiredField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransaction(NewTransactionParams{
				ID:              "tx",
				TotalServiceFee: tt.fee,
				ListingAgent:    tt.listing,
				SellingAgent:    tt.selling,
				Now:             testNow,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyTransition_HappyPathDifferentAgents(t *testing.T) {
	tx := newTestTransaction(t, "Alice", "Bob")
	advanceToCompleted(t, tx)

	if tx.Stage != StageCompleted {
		t.Fatalf("expected completed, got %s", tx.Stage)
	}
	if len(tx.StageHistory) != 4 {
		t.Fatalf("expected 4 history entries, got %d", len(tx.StageHistory))
	}

	want := FinancialBreakdown{
		Agency:       decimal.NewFromInt(5000),
		ListingAgent: decimal.NewFromInt(2500),
		SellingAgent: decimal.NewFromInt(2500),
	}
	if !tx.FinancialBreakdown.Equal(want) {
		t.Errorf("unexpected breakdown: %+v", tx.FinancialBreakdown)
	}
	if !tx.EarnestMoney.Valid || !tx.EarnestMoney.Decimal.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("unexpected earnest money: %+v", tx.EarnestMoney)
	}

	last := tx.StageHistory[3]
	if last.Stage != StageCompleted {
		t.Errorf("expected last entry for completed, got %s", last.Stage)
	}
	if _, ok := last.Changes[ChangeFinancialBreakdown]; !ok {
		t.Error("expected financial breakdown in completion changes")
	}
	if _, ok := last.Changes[ChangeCommissionDetail]; !ok {
		t.Error("expected commission detail in completion changes")
	}
	change, ok := last.Changes[ChangeStage].(StageChange)
	if !ok || change.From != StageTitleDeed || change.To != StageCompleted {
		t.Errorf("unexpected stage change: %+v", last.Changes[ChangeStage])
	}
}

func TestApplyTransition_SameAgent(t *testing.T) {
	tx := newTestTransaction(t, "Alice", "Alice")
	advanceToCompleted(t, tx)

	if !tx.FinancialBreakdown.ListingAgent.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("expected listing agent share 5000, got %s", tx.FinancialBreakdown.ListingAgent)
	}
	if !tx.FinancialBreakdown.SellingAgent.IsZero() {
		t.Errorf("expected selling agent share 0, got %s", tx.FinancialBreakdown.SellingAgent)
	}
}

func TestApplyTransition_SkipRejected(t *testing.T) {
	tx := newTestTransaction(t, "Alice", "Bob")
	before := tx.Clone()

	_, err := tx.ApplyTransition(TransitionRequest{Stage: StageCompleted}, testNow.Add(time.Hour))

	var ite *InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected *InvalidTransitionError, got %v", err)
	}
	if ite.Current != StageAgreement || ite.Requested != StageCompleted {
		t.Errorf("unexpected error stages: %+v", ite)
	}
	assertUnchanged(t, before, tx)
}

func TestApplyTransition_MissingEarnestMoney(t *testing.T) {
	tx := newTestTransaction(t, "Alice", "Bob")
	before := tx.Clone()

	_, err := tx.ApplyTransition(TransitionRequest{Stage: StageEarnestMoney}, testNow.Add(time.Hour))

	if !errors.Is(err, ErrMissingRequiredField) {
		t.Fatalf("expected ErrMissingRequiredField, got %v", err)
	}
	assertUnchanged(t, before, tx)
}

func TestApplyTransition_NegativeEarnestMoney(t *testing.T) {
	tx := newTestTransaction(t, "Alice", "Bob")
	before := tx.Clone()

	_, err := tx.ApplyTransition(TransitionRequest{Stage: StageEarnestMoney, EarnestMoney: earnest("-5")}, testNow)

	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	assertUnchanged(t, before, tx)
}

func TestApplyTransition_TerminalStage(t *testing.T) {
	tx := newTestTransaction(t, "Alice", "Bob")
	advanceToCompleted(t, tx)
	before := tx.Clone()

	for _, s := range Stages {
		if _, err := tx.ApplyTransition(TransitionRequest{Stage: s}, testNow.Add(48*time.Hour)); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition for %s, got %v", s, err)
		}
	}
	assertUnchanged(t, before, tx)
}

func TestApplyTransition_RepeatCurrentStageRejected(t *testing.T) {
	tx := newTestTransaction(t, "Alice", "Bob")

	if _, err := tx.ApplyTransition(TransitionRequest{Stage: StageAgreement}, testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestApplyTransition_EarnestMoneyIgnoredOnOtherStages(t *testing.T) {
	tx := newTestTransaction(t, "Alice", "Bob")
	if _, err := tx.ApplyTransition(TransitionRequest{Stage: StageEarnestMoney, EarnestMoney: earnest("100")}, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, err := tx.ApplyTransition(TransitionRequest{Stage: StageTitleDeed, EarnestMoney: earnest("999")}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tx.EarnestMoney.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected earnest money to stay 100, got %s", tx.EarnestMoney.Decimal)
	}
	if _, ok := entry.Changes[ChangeEarnestMoney]; ok {
		t.Error("did not expect earnest money change on title_deed")
	}
}

func TestApplyTransition_HistoryGrowsByOne(t *testing.T) {
	tx := newTestTransaction(t, "Alice", "Bob")
	snapshot := tx.StageHistory

	if _, err := tx.ApplyTransition(TransitionRequest{Stage: StageEarnestMoney, EarnestMoney: earnest("0")}, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tx.StageHistory) != len(snapshot)+1 {
		t.Fatalf("expected history to grow by one, got %d -> %d", len(snapshot), len(tx.StageHistory))
	}
	if tx.StageHistory[0].Stage != snapshot[0].Stage {
		t.Error("existing history entry was modified")
	}
}

func TestClone_Independent(t *testing.T) {
	tx := newTestTransaction(t, "Alice", "Bob")
	clone := tx.Clone()

	if _, err := clone.ApplyTransition(TransitionRequest{Stage: StageEarnestMoney, EarnestMoney: earnest("1")}, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Stage != StageAgreement || len(tx.StageHistory) != 1 {
		t.Error("original changed after mutating clone")
	}
}

func assertUnchanged(t *testing.T, before, after *Transaction) {
	t.Helper()

	if before.Stage != after.Stage {
		t.Errorf("stage changed: %s -> %s", before.Stage, after.Stage)
	}
	if len(before.StageHistory) != len(after.StageHistory) {
		t.Errorf("history changed: %d -> %d", len(before.StageHistory), len(after.StageHistory))
	}
	if !before.FinancialBreakdown.Equal(after.FinancialBreakdown) {
		t.Error("financial breakdown changed")
	}
	if before.EarnestMoney.Valid != after.EarnestMoney.Valid || !before.EarnestMoney.Decimal.Equal(after.EarnestMoney.Decimal) {
		t.Error("earnest money changed")
	}
	if !before.UpdatedAt.Equal(after.UpdatedAt) {
		t.Error("updated_at changed")
	}
}
