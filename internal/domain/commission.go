package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	agencyRate     = decimal.RequireFromString("0.5")
	fullAgentRate  = decimal.RequireFromString("0.5")
	splitAgentRate = decimal.RequireFromString("0.25")
)

// FinancialBreakdown is the three-way split of the total service fee.
type FinancialBreakdown struct {
	Agency       decimal.Decimal `json:"agency"`
	ListingAgent decimal.Decimal `json:"listing_agent"`
	SellingAgent decimal.Decimal `json:"selling_agent"`
}

// Total returns the sum of all three shares.
func (b FinancialBreakdown) Total() decimal.Decimal {
	return b.Agency.Add(b.ListingAgent).Add(b.SellingAgent)
}

// IsZero reports whether every share is zero.
func (b FinancialBreakdown) IsZero() bool {
	return b.Agency.IsZero() && b.ListingAgent.IsZero() && b.SellingAgent.IsZero()
}

// Equal compares shares by value, so 500 and 500.00 are equal.
func (b FinancialBreakdown) Equal(other FinancialBreakdown) bool {
	return b.Agency.Equal(other.Agency) &&
		b.ListingAgent.Equal(other.ListingAgent) &&
		b.SellingAgent.Equal(other.SellingAgent)
}

// CalculateCommission splits the fee between the agency and the two agents
// and explains the split. Half always goes to the agency. When one party
// holds both roles it receives the whole agent half, otherwise the agents
// get a quarter each. Agent shares stay zero if either agent is unknown.
func CalculateCommission(total decimal.Decimal, listingAgent, sellingAgent string) (FinancialBreakdown, string) {
	breakdown := FinancialBreakdown{
		Agency:       total.Mul(agencyRate),
		ListingAgent: decimal.Zero,
		SellingAgent: decimal.Zero,
	}

	if listingAgent == "" || sellingAgent == "" {
		return breakdown, fmt.Sprintf(
			"The agency received %s. Agent shares were not calculated because an agent is missing.",
			breakdown.Agency.String(),
		)
	}

	if listingAgent == sellingAgent {
		breakdown.ListingAgent = total.Mul(fullAgentRate)

		return breakdown, fmt.Sprintf(
			"Since %s acted as both listing and selling agent, %s received the full agent portion of %s and the agency received %s.",
			listingAgent, listingAgent, breakdown.ListingAgent.String(), breakdown.Agency.String(),
		)
	}

	breakdown.ListingAgent = total.Mul(splitAgentRate)
	breakdown.SellingAgent = total.Mul(splitAgentRate)

	return breakdown, fmt.Sprintf(
		"Since the listing and selling agents were different, the agent portion was split equally: listing agent %s received %s and selling agent %s received %s. The agency received %s.",
		listingAgent, breakdown.ListingAgent.String(),
		sellingAgent, breakdown.SellingAgent.String(),
		breakdown.Agency.String(),
	)
}
