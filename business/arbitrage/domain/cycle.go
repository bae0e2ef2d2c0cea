package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	pricingDomain "github.com/fd1az/triarb/business/pricing/domain"
	"github.com/fd1az/triarb/internal/apperror"
)

// MinQuotePrice is the smallest price accepted as a divisor.
const MinQuotePrice = 1e-12

// Evaluate computes both cycle yields for t from its three prices, given in
// triple order. The forward yield (p1/p2)*p3 is checked first and wins when
// both exceed 1. It returns nil when neither yield strictly exceeds 1, and an
// INVALID_QUOTE error when a price is unusable as a ratio operand.
func Evaluate(t Triple, prices [3]float64) (*Opportunity, error) {
	for i, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < MinQuotePrice {
			return nil, apperror.New(apperror.CodeInvalidQuote,
				apperror.WithContext(fmt.Sprintf("%s price %v", t.Symbols[i], p)))
		}
	}

	p1, p2, p3 := prices[0], prices[1], prices[2]
	s1, s2, s3 := t.Symbols[0], t.Symbols[1], t.Symbols[2]

	yieldA := (p1 / p2) * p3
	yieldB := (p2 / p3) * p1
	if math.IsInf(yieldA, 0) || math.IsInf(yieldB, 0) || math.IsNaN(yieldA) || math.IsNaN(yieldB) {
		return nil, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext(fmt.Sprintf("non-finite yield for %s", t)))
	}

	switch {
	case yieldA > 1:
		return newOpportunity(t, [3]pricingDomain.Symbol{s1, s2, s3}, DirectionForward, yieldA), nil
	case yieldB > 1:
		return newOpportunity(t, [3]pricingDomain.Symbol{s2, s3, s1}, DirectionRotated, yieldB), nil
	default:
		return nil, nil
	}
}

// ProfitPercent converts a cycle yield to a percentage rounded half away from
// zero to two places.
func ProfitPercent(yield float64) decimal.Decimal {
	return decimal.NewFromFloat((yield - 1) * 100).Round(2)
}
