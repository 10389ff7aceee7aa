package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	Published     bool               `json:"published"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
}

type Transaction struct {
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
