// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"

	"github.com/fd1az/triarb/business/pricing/domain"
)

// PriceSource returns the raw last-price text for a symbol. An empty string
// with a nil error means the source has no price for it.
type PriceSource interface {
	TickerPrice(ctx context.Context, symbol domain.Symbol) (string, error)
}

// InstrumentSource lists the instruments published by an exchange, in
// exchange order.
type InstrumentSource interface {
	Instruments(ctx context.Context) ([]domain.Instrument, error)
}
