package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	pricingDomain "github.com/fd1az/triarb/business/pricing/domain"
)

// Opportunity is a triple whose cycle yield exceeds 1.
type Opportunity struct {
	Triple    Triple
	Cycle     [3]pricingDomain.Symbol
	Direction Direction
	Yield     float64
	Profit    decimal.Decimal
}

func newOpportunity(t Triple, cycle [3]pricingDomain.Symbol, dir Direction, yield float64) *Opportunity {
	return &Opportunity{
		Triple:    t,
		Cycle:     cycle,
		Direction: dir,
		Yield:     yield,
		Profit:    ProfitPercent(yield),
	}
}

// Buy renders the conversion order as "S1 -> S2 -> S3".
func (o *Opportunity) Buy() string {
	parts := make([]string, len(o.Cycle))
	for i, s := range o.Cycle {
		parts[i] = string(s)
	}
	return strings.Join(parts, " -> ")
}

// ProfitText renders the profit as "d.dd %".
func (o *Opportunity) ProfitText() string {
	return o.Profit.StringFixed(2) + " %"
}

type opportunityJSON struct {
	Buy    string `json:"buy"`
	Profit string `json:"profit"`
}

// MarshalJSON emits {"buy": "...", "profit": "d.dd %"}.
func (o *Opportunity) MarshalJSON() ([]byte, error) {
	return marshalJSON(opportunityJSON{Buy: o.Buy(), Profit: o.ProfitText()})
}
