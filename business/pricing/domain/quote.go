// Package domain contains the core domain types for the pricing context.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StatusTrading is the exchange status of an instrument open for trading.
const StatusTrading = "TRADING"

// Symbol is an exchange instrument identifier such as "ETHBTC".
type Symbol string

func (s Symbol) String() string {
	return string(s)
}

// Instrument is a catalog entry as published by the exchange.
type Instrument struct {
	Symbol     Symbol
	Status     string
	BaseAsset  string
	QuoteAsset string
}

// IsTrading reports whether the instrument is open for trading.
func (i Instrument) IsTrading() bool {
	return i.Status == StatusTrading
}

// Catalog is the ordered list of symbols a scan enumerates. Order is
// significant and duplicates are kept.
type Catalog []Symbol

// Len returns the number of symbols.
func (c Catalog) Len() int {
	return len(c)
}

// Quote is a price observed for one symbol.
type Quote struct {
	Symbol    Symbol
	Price     decimal.Decimal
	Attempts  int
	FetchedAt time.Time
}

// Float64 returns the price as a float64 for ratio arithmetic.
func (q Quote) Float64() float64 {
	f, _ := q.Price.Float64()
	return f
}

// ParsePrice parses a decimal price string as returned by the exchange. Zero
// and negative values parse; the evaluator rejects them as INVALID_QUOTE.
func ParsePrice(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", raw, err)
	}
	return d, nil
}
