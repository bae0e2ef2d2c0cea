// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/triarb/business/pricing/app"
	"github.com/fd1az/triarb/business/pricing/infra/binance"
	"github.com/fd1az/triarb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PriceFetcher   = di.NewToken[*app.PriceFetcher]("pricing.PriceFetcher")
	CatalogService = di.NewToken[*app.CatalogService]("pricing.CatalogService")
	// BinanceProvider is public for health checks.
	BinanceProvider = di.NewToken[*binance.Provider]("pricing.BinanceProvider")
	// BinanceStream is only resolved when streaming is enabled.
	BinanceStream = di.NewToken[*binance.StreamingSource]("pricing.BinanceStream")
)

// Helper functions for type-safe access
func GetPriceFetcher(c di.ServiceRegistry) *app.PriceFetcher {
	return di.GetToken(c, PriceFetcher)
}

func GetCatalogService(c di.ServiceRegistry) *app.CatalogService {
	return di.GetToken(c, CatalogService)
}

func GetBinanceProvider(c di.ServiceRegistry) *binance.Provider {
	return di.GetToken(c, BinanceProvider)
}

func GetBinanceStream(c di.ServiceRegistry) *binance.StreamingSource {
	return di.GetToken(c, BinanceStream)
}
