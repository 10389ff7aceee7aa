package domain

import "time"

// Event types
const (
	EventTypeTransactionCreated      = "transaction.created"
	EventTypeTransactionStageChanged = "transaction.stage_changed"
	EventTypeTransactionCompleted    = "transaction.completed"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewTransactionCreatedEvent builds the event emitted when a transaction is opened.
func NewTransactionCreatedEvent(id string, t *Transaction) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   t.ID,
		AggregateType: AggregateTypeTransaction,
		EventType:     EventTypeTransactionCreated,
		Payload: map[string]any{
			"transaction_id":    t.ID,
			"total_service_fee": t.TotalServiceFee.String(),
			"listing_agent":     t.ListingAgent,
			"selling_agent":     t.SellingAgent,
			"stage":             t.Stage.String(),
		},
		CreatedAt: t.CreatedAt,
	}
}

// NewStageChangedEvent builds the event emitted after a transition. Reaching
// the completed stage produces a transaction.completed event carrying the split.
func NewStageChangedEvent(id string, from Stage, t *Transaction) *OutboxEvent {
	payload := map[string]any{
		"transaction_id": t.ID,
		"from":           from.String(),
		"to":             t.Stage.String(),
		"version":        t.Version,
	}

	eventType := EventTypeTransactionStageChanged
	if t.Stage == StageCompleted {
		eventType = EventTypeTransactionCompleted
		payload["agency"] = t.FinancialBreakdown.Agency.String()
		payload["listing_agent_share"] = t.FinancialBreakdown.ListingAgent.String()
		payload["selling_agent_share"] = t.FinancialBreakdown.SellingAgent.String()
		payload["commission_detail"] = t.CommissionDetail
	}

	return &OutboxEvent{
		ID:            id,
		AggregateID:   t.ID,
		AggregateType: AggregateTypeTransaction,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     t.UpdatedAt,
	}
}
